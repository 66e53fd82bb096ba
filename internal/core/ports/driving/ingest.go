package driving

import (
	"context"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

// IngestService keeps the indexes in sync with the document source.
type IngestService interface {
	// Ingest processes new and modified documents. When force is true
	// every document is treated as modified.
	Ingest(ctx context.Context, force bool) (*domain.IngestSummary, error)

	// Status summarises the indexed corpus from the manifest.
	Status(ctx context.Context) (*domain.IndexStatus, error)

	// Reconcile removes vector-store entries whose chunks no longer
	// exist, returning the number of orphans deleted.
	Reconcile(ctx context.Context) (int, error)
}
