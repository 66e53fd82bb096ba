package driving

import (
	"context"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

// RetrievalService answers queries over the indexed corpus.
type RetrievalService interface {
	// Retrieve runs the hybrid retrieval pipeline: keyword + vector
	// search, rank fusion, deduplication, optional reranking, caching.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.RetrievedChunk, error)
}
