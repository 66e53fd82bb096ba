// Package bm25 provides an in-memory inverted index with BM25 relevance
// scoring. It implements the driven.SearchEngine port and can be rebuilt
// from the chunk store at startup.
package bm25

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
	"github.com/vintner-labs/vinsearch/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.SearchEngine = (*Index)(nil)

// BM25 constants. k1 controls term-frequency saturation, b controls
// document-length normalisation.
const (
	k1 = 1.2
	b  = 0.75
)

// Index is an inverted index over chunk content with BM25 scoring.
// The lock guards postings and document statistics so queries can run
// concurrently with indexing.
type Index struct {
	mu sync.RWMutex

	// postings maps term -> chunkID -> term frequency.
	postings map[string]map[string]int

	// docLens maps chunkID -> token count.
	docLens map[string]int

	totalLen int
}

// New creates an empty BM25 index.
func New() *Index {
	return &Index{
		postings: make(map[string]map[string]int),
		docLens:  make(map[string]int),
	}
}

// Load rebuilds the index from all chunks in the store.
func (idx *Index) Load(ctx context.Context, store driven.ChunkStore) error {
	chunks, err := store.AllChunks(ctx)
	if err != nil {
		return err
	}
	if err := idx.Index(ctx, chunks); err != nil {
		return err
	}
	logger.Info("BM25 index rebuilt with %d chunks", len(chunks))
	return nil
}

// Index adds or updates chunks. Re-indexing a chunk with the same ID
// replaces its previous posting-list contributions.
func (idx *Index) Index(ctx context.Context, chunks []domain.Chunk) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx.remove(chunks[i].ID)
		terms := domain.Tokenize(chunks[i].Content)
		idx.docLens[chunks[i].ID] = len(terms)
		idx.totalLen += len(terms)
		for _, term := range terms {
			posting, ok := idx.postings[term]
			if !ok {
				posting = make(map[string]int)
				idx.postings[term] = posting
			}
			posting[chunks[i].ID]++
		}
	}
	return nil
}

// Delete removes a chunk from the index.
func (idx *Index) Delete(_ context.Context, chunkID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.remove(chunkID)
	return nil
}

// remove drops a chunk's contributions. Caller holds the write lock.
func (idx *Index) remove(chunkID string) {
	length, ok := idx.docLens[chunkID]
	if !ok {
		return
	}
	idx.totalLen -= length
	delete(idx.docLens, chunkID)
	for term, posting := range idx.postings {
		if _, ok := posting[chunkID]; ok {
			delete(posting, chunkID)
			if len(posting) == 0 {
				delete(idx.postings, term)
			}
		}
	}
}

// Search ranks indexed chunks against the query terms.
// Results are ordered by descending BM25 score, ties broken by chunk ID
// for determinism. Empty terms yield an empty result.
func (idx *Index) Search(_ context.Context, terms []string, limit int) ([]domain.RankedCandidate, error) {
	if len(terms) == 0 || limit <= 0 {
		return []domain.RankedCandidate{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.docLens)
	if n == 0 {
		return []domain.RankedCandidate{}, nil
	}
	avgLen := float64(idx.totalLen) / float64(n)

	scores := make(map[string]float64)
	for _, term := range terms {
		posting, ok := idx.postings[term]
		if !ok {
			continue
		}
		idf := math.Log((float64(n)-float64(len(posting))+0.5)/(float64(len(posting))+0.5) + 1)
		for chunkID, tf := range posting {
			norm := 1 - b + b*float64(idx.docLens[chunkID])/avgLen
			scores[chunkID] += idf * float64(tf) * (k1 + 1) / (float64(tf) + k1*norm)
		}
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})

	if limit < len(ids) {
		ids = ids[:limit]
	}

	results := make([]domain.RankedCandidate, len(ids))
	for i, id := range ids {
		results[i] = domain.RankedCandidate{
			ChunkID: id,
			Score:   scores[id],
			Rank:    i + 1,
		}
	}
	return results, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docLens)
}

// Close releases resources. The in-memory index has none.
func (idx *Index) Close() error {
	return nil
}
