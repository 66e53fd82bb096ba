package domain

import "time"

// ManifestEntry records the indexed state of one source document.
// The manifest is the single source of truth for incremental-indexing
// decisions: a document is up to date iff its current content fingerprint
// equals the stored one.
type ManifestEntry struct {
	// Path is the document path, unique within a collection.
	Path string

	// Fingerprint is the SHA-256 hash of the document content at the
	// time it was indexed.
	Fingerprint string

	// SizeBytes is the document size in bytes.
	SizeBytes int64

	// ModifiedAt is the document's last-modified timestamp.
	ModifiedAt time.Time

	// IndexedAt is when the document finished indexing.
	IndexedAt time.Time

	// ChunkCount is the number of chunks produced from the document.
	ChunkCount int

	// Collection names the index collection the document belongs to.
	Collection string
}

// ManifestDiff classifies the current document set against the manifest.
type ManifestDiff struct {
	// New lists documents with no manifest entry.
	New []string

	// Modified lists documents whose fingerprint differs from the
	// stored entry.
	Modified []string

	// Unchanged lists documents whose fingerprint matches.
	Unchanged []string

	// Deleted lists manifest entries with no corresponding document.
	Deleted []string
}

// IndexStatus summarises the indexed corpus.
type IndexStatus struct {
	// DocumentsIndexed is the number of tracked documents.
	DocumentsIndexed int

	// TotalChunks is the sum of chunk counts across documents.
	TotalChunks int

	// LastUpdated is the most recent IndexedAt across entries.
	LastUpdated time.Time

	// ChunkCounts maps document path to its chunk count.
	ChunkCounts map[string]int
}

// IngestSummary reports the outcome of one ingestion run.
type IngestSummary struct {
	// RunID identifies the ingestion run.
	RunID string

	// DocumentsProcessed is the number of documents (re)indexed.
	DocumentsProcessed int

	// DocumentsSkipped is the number of unchanged documents.
	DocumentsSkipped int

	// DocumentsDeleted is the number of stale documents purged.
	DocumentsDeleted int

	// ChunksAdded is the total chunks written during the run.
	ChunksAdded int
}
