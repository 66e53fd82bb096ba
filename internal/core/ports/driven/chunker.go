package driven

import (
	"context"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

// Chunker splits document text into retrievable chunks. Chunk IDs and
// fingerprints are assigned by the implementation via domain.NewChunk.
type Chunker interface {
	// Chunk splits the document content into chunks in position order.
	Chunk(ctx context.Context, documentPath, content string) ([]domain.Chunk, error)
}
