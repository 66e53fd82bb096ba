package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

func rankedCandidates(ids ...string) []domain.RankedCandidate {
	out := make([]domain.RankedCandidate, len(ids))
	for i, id := range ids {
		out[i] = domain.RankedCandidate{ChunkID: id, Score: float64(len(ids) - i), Rank: i + 1}
	}
	return out
}

func TestFuse_Empty(t *testing.T) {
	assert.Empty(t, fuse(nil))
	assert.Empty(t, fuse([]rankedList{
		{source: domain.SourceKeyword, weight: 0.3},
		{source: domain.SourceVector, weight: 0.7},
	}))
}

func TestFuse_SingleList(t *testing.T) {
	fused := fuse([]rankedList{
		{source: domain.SourceKeyword, candidates: rankedCandidates("a", "b", "c"), weight: 1.0},
	})

	require.Len(t, fused, 3)
	assert.Equal(t, "a", fused[0].ChunkID)
	assert.Equal(t, "b", fused[1].ChunkID)
	assert.Equal(t, "c", fused[2].ChunkID)
	assert.InDelta(t, 1.0/61, fused[0].Score, 1e-12)
	assert.InDelta(t, 1.0/62, fused[1].Score, 1e-12)
}

func TestFuse_WeightedContributions(t *testing.T) {
	// "both" appears at rank 1 in keyword and rank 2 in vector.
	fused := fuse([]rankedList{
		{source: domain.SourceKeyword, candidates: rankedCandidates("both", "kw"), weight: 0.3},
		{source: domain.SourceVector, candidates: rankedCandidates("vec", "both"), weight: 0.7},
	})

	require.Len(t, fused, 3)

	byID := make(map[string]domain.FusedCandidate)
	for _, f := range fused {
		byID[f.ChunkID] = f
	}
	assert.InDelta(t, 0.3/61+0.7/62, byID["both"].Score, 1e-12)
	assert.InDelta(t, 0.3/62, byID["kw"].Score, 1e-12)
	assert.InDelta(t, 0.7/61, byID["vec"].Score, 1e-12)
	assert.Equal(t, 1, byID["both"].BestRank)
	assert.ElementsMatch(t,
		[]domain.CandidateSource{domain.SourceKeyword, domain.SourceVector},
		byID["both"].Sources)
}

func TestFuse_BothListsBeatsOne(t *testing.T) {
	// Equal weights: a chunk in both lists outranks a chunk holding the
	// same ranks in only one list.
	fused := fuse([]rankedList{
		{source: domain.SourceKeyword, candidates: rankedCandidates("shared", "kw-only"), weight: 0.5},
		{source: domain.SourceVector, candidates: rankedCandidates("shared", "vec-only"), weight: 0.5},
	})

	require.Len(t, fused, 3)
	assert.Equal(t, "shared", fused[0].ChunkID)
}

func TestFuse_TieBreaksByBestRankThenID(t *testing.T) {
	// Symmetric ranks give x and y identical fused scores with the same
	// best rank, so the chunk ID decides.
	fused := fuse([]rankedList{
		{source: domain.SourceKeyword, candidates: rankedCandidates("x", "y"), weight: 0.5},
		{source: domain.SourceVector, candidates: rankedCandidates("y", "x"), weight: 0.5},
	})

	require.Len(t, fused, 2)
	assert.InDelta(t, fused[0].Score, fused[1].Score, 1e-12)
	assert.Equal(t, "x", fused[0].ChunkID)
	assert.Equal(t, "y", fused[1].ChunkID)
}

func TestFuse_ZeroWeightLegContributesNothing(t *testing.T) {
	fused := fuse([]rankedList{
		{source: domain.SourceKeyword, candidates: rankedCandidates("kw"), weight: 1.0},
		{source: domain.SourceVector, candidates: rankedCandidates("vec"), weight: 0},
	})

	require.Len(t, fused, 2)
	assert.Equal(t, "kw", fused[0].ChunkID)
	assert.Equal(t, 0.0, fused[1].Score)
}

func TestFuse_IgnoresInvalidRanks(t *testing.T) {
	fused := fuse([]rankedList{
		{
			source: domain.SourceKeyword,
			candidates: []domain.RankedCandidate{
				{ChunkID: "ok", Rank: 1},
				{ChunkID: "bad", Rank: 0},
			},
			weight: 1.0,
		},
	})

	require.Len(t, fused, 1)
	assert.Equal(t, "ok", fused[0].ChunkID)
}
