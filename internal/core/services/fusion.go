package services

import (
	"sort"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

// rrfK dampens the effect of rank 1 dominating the fused score.
// k=60 is the constant from the original RRF paper and is what Azure AI
// Search and OpenSearch use.
const rrfK = 60

// rankedList pairs one retriever's output with its fusion weight.
type rankedList struct {
	source     domain.CandidateSource
	candidates []domain.RankedCandidate
	weight     float64
}

// fuse merges independently ranked candidate lists with weighted
// Reciprocal Rank Fusion. A chunk at rank r in list i contributes
// w_i/(k+r); a chunk absent from a list contributes 0 from it.
//
// Results sort by fused score descending, ties broken by the best
// (smallest) rank in any contributing list, then by chunk ID.
func fuse(lists []rankedList) []domain.FusedCandidate {
	fused := make(map[string]*domain.FusedCandidate)

	for _, list := range lists {
		for _, c := range list.candidates {
			rank := c.Rank
			if rank <= 0 {
				continue
			}
			entry, ok := fused[c.ChunkID]
			if !ok {
				entry = &domain.FusedCandidate{
					ChunkID:  c.ChunkID,
					BestRank: rank,
				}
				fused[c.ChunkID] = entry
			}
			entry.Score += list.weight / float64(rrfK+rank)
			if rank < entry.BestRank {
				entry.BestRank = rank
			}
			entry.Sources = append(entry.Sources, list.source)
		}
	}

	results := make([]domain.FusedCandidate, 0, len(fused))
	for _, entry := range fused {
		results = append(results, *entry)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].BestRank != results[j].BestRank {
			return results[i].BestRank < results[j].BestRank
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	return results
}
