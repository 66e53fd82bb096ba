package driven

import (
	"context"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

// SearchEngine provides lexical relevance ranking over indexed chunks.
// Backed by an in-process BM25 inverted index.
type SearchEngine interface {
	// Index adds or updates chunks in the search index. Re-indexing a
	// chunk with the same ID replaces its posting-list contributions.
	Index(ctx context.Context, chunks []domain.Chunk) error

	// Delete removes a chunk from the search index.
	Delete(ctx context.Context, chunkID string) error

	// Search ranks indexed chunks against the query terms and returns
	// up to limit candidates ordered by descending BM25 score, ties
	// broken by chunk ID. Empty terms yield an empty result, not an error.
	Search(ctx context.Context, terms []string, limit int) ([]domain.RankedCandidate, error)

	// Close releases resources.
	Close() error
}
