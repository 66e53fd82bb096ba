package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Chunk represents the smallest retrievable unit of document text.
// Chunks are immutable once created; a changed source document produces
// new chunk IDs that supersede the old ones.
type Chunk struct {
	// ID is the unique identifier for the chunk. It is derived from the
	// document path and the content fingerprint, so re-chunking an
	// unchanged document yields identical IDs.
	ID string

	// DocumentPath identifies the owning source document.
	DocumentPath string

	// Content is the raw text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Fingerprint is the SHA-256 hash of Content, used for exact
	// deduplication and change detection.
	Fingerprint string

	// Embedding is the vector representation for semantic search and
	// semantic deduplication. May be nil when embeddings are disabled.
	Embedding []float32

	// Metadata holds chunk provenance and extracted domain fields.
	Metadata ChunkMetadata
}

// ChunkMetadata carries a fixed set of named domain fields plus an open
// string-keyed map for extensibility.
type ChunkMetadata struct {
	// SourceName is the human-readable name of the source document.
	SourceName string

	// Page is the page number within the source, if known (0 = unknown).
	Page int

	// Entities lists domain entities extracted from the chunk, such as
	// grape varieties, regions, or producers.
	Entities []string

	// Extra holds additional key-value pairs that have no dedicated field.
	Extra map[string]string
}

// Fingerprint computes the content fingerprint for a piece of text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ChunkID derives the stable identifier for a chunk from its owning
// document path, position, and content fingerprint.
func ChunkID(documentPath string, position int, fingerprint string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%d\x00%s", documentPath, position, fingerprint))
	return hex.EncodeToString(sum[:16])
}

// NewChunk constructs an immutable chunk for the given document and text,
// computing the fingerprint and stable ID.
func NewChunk(documentPath string, position int, content string, meta ChunkMetadata) Chunk {
	fp := Fingerprint(content)
	return Chunk{
		ID:           ChunkID(documentPath, position, fp),
		DocumentPath: documentPath,
		Content:      content,
		Position:     position,
		Fingerprint:  fp,
		Metadata:     meta,
	}
}
