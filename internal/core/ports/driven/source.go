package driven

import (
	"context"
	"io"
	"time"
)

// SourceDocument describes one document available from a source.
type SourceDocument struct {
	// Path uniquely identifies the document within the source.
	Path string

	// SizeBytes is the document size.
	SizeBytes int64

	// ModifiedAt is the last-modified timestamp.
	ModifiedAt time.Time
}

// DocumentSource enumerates source documents and opens their content.
// Content streams are used to compute fingerprints and to obtain text
// for chunking.
type DocumentSource interface {
	// Documents lists all documents currently available.
	Documents(ctx context.Context) ([]SourceDocument, error)

	// Open returns a readable content stream for a document path.
	// Returns domain.ErrNotFound if the document no longer exists.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// SourceWatcher extends a DocumentSource with change notification.
// Events carry the affected document path; callers debounce and trigger
// an incremental ingest.
type SourceWatcher interface {
	// Watch delivers changed document paths until ctx is cancelled.
	Watch(ctx context.Context) (<-chan string, error)
}
