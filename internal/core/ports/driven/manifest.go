package driven

import (
	"context"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

// ManifestStore persists the index manifest: one entry per source
// document. Record must be durable immediately (not batched) so an
// interrupted ingestion run resumes without reprocessing completed
// documents.
//
// A store that cannot parse its backing state returns domain.ErrCorrupt
// from Open/All; callers treat the index as empty and require a full
// reindex.
type ManifestStore interface {
	// Get retrieves the entry for a document path.
	// Returns domain.ErrNotFound if the path is untracked.
	Get(ctx context.Context, path string) (*domain.ManifestEntry, error)

	// Record persists one entry immediately, replacing any existing
	// entry for the same path.
	Record(ctx context.Context, entry domain.ManifestEntry) error

	// Remove deletes the entry for a document path.
	Remove(ctx context.Context, path string) error

	// All returns every tracked entry.
	All(ctx context.Context) ([]domain.ManifestEntry, error)

	// Close releases resources.
	Close() error
}
