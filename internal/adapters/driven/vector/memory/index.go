// Package memory provides a brute-force in-memory vector index using
// cosine similarity. It backs tests and offline use; production setups
// point at an external store via the qdrant adapter.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vectors keyed by chunk ID and searches them exhaustively.
type Index struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// New creates an empty in-memory vector index.
func New() *Index {
	return &Index{vectors: make(map[string][]float32)}
}

// Upsert writes a vector for the given chunk ID.
func (idx *Index) Upsert(_ context.Context, chunkID string, embedding []float32, _ map[string]string) error {
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty embedding for chunk %s", domain.ErrInvalidInput, chunkID)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	idx.vectors[chunkID] = vec
	return nil
}

// Delete removes vectors for the given chunk IDs.
func (idx *Index) Delete(_ context.Context, chunkIDs []string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, id := range chunkIDs {
		delete(idx.vectors, id)
	}
	return nil
}

// Search returns up to limit chunks ordered by descending cosine
// similarity to the query vector, ties broken by chunk ID.
func (idx *Index) Search(_ context.Context, query []float32, limit int) ([]domain.RankedCandidate, error) {
	if len(query) == 0 || limit <= 0 {
		return []domain.RankedCandidate{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		id  string
		sim float64
	}
	candidates := make([]scored, 0, len(idx.vectors))
	for id, vec := range idx.vectors {
		candidates = append(candidates, scored{id: id, sim: Cosine(query, vec)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].id < candidates[j].id
	})

	if limit < len(candidates) {
		candidates = candidates[:limit]
	}

	results := make([]domain.RankedCandidate, len(candidates))
	for i, c := range candidates {
		results[i] = domain.RankedCandidate{
			ChunkID: c.id,
			Score:   c.sim,
			Rank:    i + 1,
		}
	}
	return results, nil
}

// List returns the IDs of all stored vectors.
func (idx *Index) List(_ context.Context) ([]string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.vectors))
	for id := range idx.vectors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the number of stored vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Close releases resources. The in-memory index has none.
func (idx *Index) Close() error {
	return nil
}

// Cosine computes cosine similarity between two vectors. Mismatched
// lengths compare over the shorter prefix; zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
