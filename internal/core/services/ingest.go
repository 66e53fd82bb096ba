package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driving"
	"github.com/vintner-labs/vinsearch/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "vinsearch"

// defaultEmbedRate caps embedding requests per second so batch ingestion
// does not overwhelm the embedding backend.
const defaultEmbedRate = 5

// IngestService keeps the chunk store, keyword index, and vector index
// in sync with the document source, driven by the manifest. Documents
// are processed one at a time; a crash mid-run loses at most the
// document in flight.
type IngestService struct {
	source           driven.DocumentSource
	chunker          driven.Chunker
	embeddingService driven.EmbeddingService
	chunkStore       driven.ChunkStore
	searchIndex      driven.SearchEngine
	vectorIndex      driven.VectorIndex
	manifest         driven.ManifestStore

	collection     string
	embedLimiter   *rate.Limiter
	onIndexChanged func()

	mu      sync.Mutex
	running bool
}

// NewIngestService creates an ingest service. The embeddingService and
// vectorIndex parameters are optional (can be nil); without them chunks
// are indexed for keyword search only.
func NewIngestService(
	source driven.DocumentSource,
	chunker driven.Chunker,
	embeddingService driven.EmbeddingService,
	chunkStore driven.ChunkStore,
	searchIndex driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	manifest driven.ManifestStore,
) *IngestService {
	return &IngestService{
		source:           source,
		chunker:          chunker,
		embeddingService: embeddingService,
		chunkStore:       chunkStore,
		searchIndex:      searchIndex,
		vectorIndex:      vectorIndex,
		manifest:         manifest,
		collection:       DefaultCollection,
		embedLimiter:     rate.NewLimiter(rate.Limit(defaultEmbedRate), defaultEmbedRate),
	}
}

// SetCollection overrides the collection name recorded in the manifest.
func (s *IngestService) SetCollection(name string) {
	if name != "" {
		s.collection = name
	}
}

// SetEmbedRate overrides the embedding requests-per-second cap.
func (s *IngestService) SetEmbedRate(perSecond float64) {
	if perSecond > 0 {
		s.embedLimiter = rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1)
	}
}

// SetOnIndexChanged registers a callback invoked after a run that
// changed the index. The retrieval service uses it to drop its cache.
func (s *IngestService) SetOnIndexChanged(fn func()) {
	s.onIndexChanged = fn
}

// Ingest diffs the source against the manifest and processes every new
// or modified document. At most one run executes at a time.
func (s *IngestService) Ingest(ctx context.Context, force bool) (*domain.IngestSummary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, domain.ErrIngestInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	logger.Section("Ingestion")
	summary := &domain.IngestSummary{RunID: uuid.New().String()}
	logger.Info("Starting ingestion run %s (force=%t)", summary.RunID, force)

	docs, err := s.source.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	diff, contents, err := s.diff(ctx, docs, force)
	if err != nil {
		return nil, err
	}
	logger.Info("Diff: %d new, %d modified, %d unchanged, %d deleted",
		len(diff.New), len(diff.Modified), len(diff.Unchanged), len(diff.Deleted))

	summary.DocumentsSkipped = len(diff.Unchanged)

	byPath := make(map[string]driven.SourceDocument, len(docs))
	for _, doc := range docs {
		byPath[doc.Path] = doc
	}

	for _, path := range append(append([]string{}, diff.New...), diff.Modified...) {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		added, err := s.processDocument(ctx, byPath[path], contents[path])
		if err != nil {
			logger.Warn("Failed to index %s: %v", path, err)
			continue
		}
		summary.DocumentsProcessed++
		summary.ChunksAdded += added
	}

	for _, path := range diff.Deleted {
		if err := s.purgeDocument(ctx, path); err != nil {
			logger.Warn("Failed to purge %s: %v", path, err)
			continue
		}
		summary.DocumentsDeleted++
	}

	if summary.DocumentsProcessed > 0 || summary.DocumentsDeleted > 0 {
		if s.onIndexChanged != nil {
			s.onIndexChanged()
		}
	}

	logger.Info("Run %s done: %d processed, %d skipped, %d deleted, %d chunks added",
		summary.RunID, summary.DocumentsProcessed, summary.DocumentsSkipped,
		summary.DocumentsDeleted, summary.ChunksAdded)
	return summary, nil
}

// diff classifies the source documents against the manifest by content
// fingerprint and returns the document contents read along the way so
// changed documents are not read twice.
func (s *IngestService) diff(
	ctx context.Context, docs []driven.SourceDocument, force bool,
) (*domain.ManifestDiff, map[string]string, error) {
	entries, err := s.manifest.All(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCorrupt) {
			logger.Warn("Manifest corrupt, treating index as empty: %v", err)
			entries = nil
		} else {
			return nil, nil, fmt.Errorf("read manifest: %w", err)
		}
	}

	tracked := make(map[string]domain.ManifestEntry, len(entries))
	for _, entry := range entries {
		tracked[entry.Path] = entry
	}

	diff := &domain.ManifestDiff{}
	contents := make(map[string]string)

	for _, doc := range docs {
		content, err := s.readDocument(ctx, doc.Path)
		if err != nil {
			logger.Warn("Skipping unreadable document %s: %v", doc.Path, err)
			continue
		}

		entry, known := tracked[doc.Path]
		delete(tracked, doc.Path)

		switch {
		case !known:
			diff.New = append(diff.New, doc.Path)
			contents[doc.Path] = content
		case force || entry.Fingerprint != domain.Fingerprint(content):
			diff.Modified = append(diff.Modified, doc.Path)
			contents[doc.Path] = content
		default:
			diff.Unchanged = append(diff.Unchanged, doc.Path)
		}
	}

	for path := range tracked {
		diff.Deleted = append(diff.Deleted, path)
	}

	return diff, contents, nil
}

// readDocument reads the full content of a source document.
func (s *IngestService) readDocument(ctx context.Context, path string) (string, error) {
	rc, err := s.source.Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// processDocument chunks, embeds, and indexes one document, then records
// it in the manifest. Chunks from a previous version are removed first
// so a modified document never leaves stale chunks behind.
func (s *IngestService) processDocument(
	ctx context.Context, doc driven.SourceDocument, content string,
) (int, error) {
	logger.Debug("Indexing %s (%d bytes)", doc.Path, len(content))

	chunks, err := s.chunker.Chunk(ctx, doc.Path, content)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}

	if err := s.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}

	if err := s.removeSupersededChunks(ctx, doc.Path, chunks); err != nil {
		return 0, err
	}

	if err := s.chunkStore.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("save chunks: %w", err)
	}
	if err := s.searchIndex.Index(ctx, chunks); err != nil {
		return 0, fmt.Errorf("keyword index: %w", err)
	}
	if s.vectorIndex != nil {
		for i := range chunks {
			if len(chunks[i].Embedding) == 0 {
				continue
			}
			payload := map[string]string{"document_path": doc.Path}
			if err := s.vectorIndex.Upsert(ctx, chunks[i].ID, chunks[i].Embedding, payload); err != nil {
				return 0, fmt.Errorf("vector index: %w", err)
			}
		}
	}

	entry := domain.ManifestEntry{
		Path:        doc.Path,
		Fingerprint: domain.Fingerprint(content),
		SizeBytes:   doc.SizeBytes,
		ModifiedAt:  doc.ModifiedAt,
		ChunkCount:  len(chunks),
		Collection:  s.collection,
	}
	if err := s.manifest.Record(ctx, entry); err != nil {
		return 0, fmt.Errorf("record manifest: %w", err)
	}

	logger.Debug("Indexed %s: %d chunks", doc.Path, len(chunks))
	return len(chunks), nil
}

// embedChunks fills in chunk embeddings, rate limited per batch. A nil
// embedding service leaves chunks keyword-searchable only.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if s.embeddingService == nil || len(chunks) == 0 {
		return nil
	}

	if err := s.embedLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("embed rate limit: %w", err)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	return nil
}

// removeSupersededChunks deletes a document's previous chunks that are
// not present in the new chunk set.
func (s *IngestService) removeSupersededChunks(
	ctx context.Context, path string, next []domain.Chunk,
) error {
	previous, err := s.chunkStore.ChunksForDocument(ctx, path)
	if err != nil {
		return fmt.Errorf("load previous chunks: %w", err)
	}
	if len(previous) == 0 {
		return nil
	}

	keep := make(map[string]bool, len(next))
	for i := range next {
		keep[next[i].ID] = true
	}

	var stale []string
	for i := range previous {
		if !keep[previous[i].ID] {
			stale = append(stale, previous[i].ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	logger.Debug("Removing %d superseded chunks for %s", len(stale), path)
	return s.deleteChunkIDs(ctx, stale)
}

// purgeDocument removes every trace of a deleted document.
func (s *IngestService) purgeDocument(ctx context.Context, path string) error {
	logger.Debug("Purging deleted document %s", path)

	chunks, err := s.chunkStore.ChunksForDocument(ctx, path)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID
	}
	if err := s.deleteChunkIDs(ctx, ids); err != nil {
		return err
	}
	if err := s.manifest.Remove(ctx, path); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("remove manifest entry: %w", err)
	}
	return nil
}

// deleteChunkIDs removes chunk IDs from every index and the chunk store.
func (s *IngestService) deleteChunkIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if err := s.searchIndex.Delete(ctx, id); err != nil {
			return fmt.Errorf("keyword delete: %w", err)
		}
	}
	if s.vectorIndex != nil {
		if err := s.vectorIndex.Delete(ctx, ids); err != nil {
			return fmt.Errorf("vector delete: %w", err)
		}
	}
	if err := s.chunkStore.DeleteChunks(ctx, ids); err != nil {
		return fmt.Errorf("chunk store delete: %w", err)
	}
	return nil
}

// Status summarises the indexed corpus from the manifest.
func (s *IngestService) Status(ctx context.Context) (*domain.IndexStatus, error) {
	entries, err := s.manifest.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	status := &domain.IndexStatus{
		DocumentsIndexed: len(entries),
		ChunkCounts:      make(map[string]int, len(entries)),
	}
	for _, entry := range entries {
		status.TotalChunks += entry.ChunkCount
		status.ChunkCounts[entry.Path] = entry.ChunkCount
		if entry.IndexedAt.After(status.LastUpdated) {
			status.LastUpdated = entry.IndexedAt
		}
	}
	return status, nil
}

// Reconcile deletes vector-store entries whose chunk rows no longer
// exist. Orphans appear when a previous run deleted chunks but crashed
// before the vector delete completed.
func (s *IngestService) Reconcile(ctx context.Context) (int, error) {
	if s.vectorIndex == nil {
		return 0, nil
	}

	logger.Section("Reconcile")

	ids, err := s.vectorIndex.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list vectors: %w", err)
	}

	var orphans []string
	for _, id := range ids {
		if _, err := s.chunkStore.GetChunk(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				orphans = append(orphans, id)
				continue
			}
			return 0, fmt.Errorf("check chunk %s: %w", id, err)
		}
	}

	if len(orphans) == 0 {
		logger.Info("No orphaned vectors")
		return 0, nil
	}

	if err := s.vectorIndex.Delete(ctx, orphans); err != nil {
		return 0, fmt.Errorf("delete orphans: %w", err)
	}
	logger.Info("Removed %d orphaned vectors", len(orphans))
	return len(orphans), nil
}
