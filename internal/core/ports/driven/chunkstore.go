package driven

import (
	"context"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

// ChunkStore persists chunk text, embeddings, and metadata. It is the
// hydration source for retrieval results and the rebuild source for the
// keyword index.
type ChunkStore interface {
	// SaveChunks stores chunks, replacing existing rows with the same ID.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetChunk retrieves a chunk by ID.
	// Returns domain.ErrNotFound if the chunk does not exist.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ChunksForDocument returns all chunks of a document in position order.
	ChunksForDocument(ctx context.Context, documentPath string) ([]domain.Chunk, error)

	// DeleteChunks removes chunks by ID.
	DeleteChunks(ctx context.Context, ids []string) error

	// AllChunks returns every stored chunk. Used to rebuild the keyword
	// index at startup.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// Close releases resources.
	Close() error
}
