package driven

import (
	"context"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

// VectorIndex adapts an external nearest-neighbour store. The store owns
// the vectors; this interface only reads and writes through it.
//
// Implementations map transport failures and timeouts to
// domain.ErrUnavailable so the retrieval pipeline can degrade to
// keyword-only ranking.
type VectorIndex interface {
	// Upsert writes a vector for the given chunk ID with its payload.
	Upsert(ctx context.Context, chunkID string, embedding []float32, payload map[string]string) error

	// Delete removes vectors for the given chunk IDs.
	Delete(ctx context.Context, chunkIDs []string) error

	// Search finds up to limit nearest neighbours to the query vector,
	// ordered by descending cosine similarity.
	Search(ctx context.Context, query []float32, limit int) ([]domain.RankedCandidate, error)

	// List returns the IDs of all stored vectors. Used by the
	// reconciliation pass to detect orphaned entries.
	List(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
