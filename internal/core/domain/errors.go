package domain

import "errors"

// Domain errors classify retrieval and indexing failures.
// Every public operation returns either a result or one of these.
var (
	// ErrUnavailable indicates an external dependency (vector store,
	// embedding provider, reranking model) could not be reached or
	// timed out. Callers degrade gracefully rather than failing.
	ErrUnavailable = errors.New("dependency unavailable")

	// ErrNotFound indicates a referenced chunk or document no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt indicates a manifest or index file could not be parsed.
	// The index is treated as empty and a full reindex is required.
	ErrCorrupt = errors.New("corrupt index state")

	// ErrInvalidInput indicates an empty query, non-positive limit, or
	// malformed configuration. Rejected before touching any dependency.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetrievalFailed indicates both retrieval legs were unavailable
	// at once, so no candidates could be produced.
	ErrRetrievalFailed = errors.New("retrieval failed: no retriever available")

	// ErrIngestInProgress indicates an ingestion run is already active.
	ErrIngestInProgress = errors.New("ingest already in progress")
)
