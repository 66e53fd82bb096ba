// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Chunker splits document content into overlapping fixed-size chunks,
// preferring to cut at whitespace so words stay intact.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Chunk splits the document content into chunks in position order.
// Chunk IDs and fingerprints are derived from path, position, and
// content, so unchanged text chunks to the same IDs on every run.
func (c *Chunker) Chunk(_ context.Context, documentPath, content string) ([]domain.Chunk, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	meta := domain.ChunkMetadata{
		SourceName: filepath.Base(documentPath),
	}

	contentLen := len(content)
	estimatedChunks := (contentLen / (c.chunkSize - c.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	start := 0

	for start < contentLen {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		} else {
			end = breakAtWhitespace(content, start, end)
		}

		text := strings.TrimSpace(content[start:end])
		if text != "" {
			chunks = append(chunks, domain.NewChunk(documentPath, position, text, meta))
			position++
		}

		if end == contentLen {
			break
		}

		step := end - start - c.overlap
		if step <= 0 {
			step = end - start
		}
		start += step
	}

	return chunks, nil
}

// breakAtWhitespace walks end backwards to the nearest whitespace so a
// chunk never splits mid-word. Falls back to the hard cut when the
// window contains a single unbroken token.
func breakAtWhitespace(content string, start, end int) int {
	for i := end; i > start; i-- {
		if content[i-1] == ' ' || content[i-1] == '\n' || content[i-1] == '\t' {
			return i
		}
	}
	return end
}
