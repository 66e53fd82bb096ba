// Package sqlite provides SQLite-backed implementations of the manifest
// and chunk stores. One database file holds both; WAL mode keeps
// concurrent readers cheap and every manifest write commits immediately
// so an interrupted ingestion run can resume.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vintner-labs/vinsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
	"github.com/vintner-labs/vinsearch/internal/logger"
)

// Store is a unified SQLite-based storage that provides access to the
// manifest and chunk store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.vinsearch/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".vinsearch", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	db, err := openVerified(dbPath)
	if errors.Is(err, domain.ErrCorrupt) {
		// A database file that cannot be read is lost index state. Set
		// it aside and start over empty; the next forced ingest run
		// rebuilds the full index.
		logger.Warn("Index database corrupt, quarantining and starting empty: %v", err)
		if qErr := quarantine(dbPath); qErr != nil {
			return nil, fmt.Errorf("quarantining corrupt database: %w", qErr)
		}
		db, err = openVerified(dbPath)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// openVerified opens the database and checks it is readable. An
// unreadable file is classified as domain.ErrCorrupt.
func openVerified(dbPath string) (*sql.DB, error) {
	// WAL for concurrent readers, FULL sync so each manifest record is
	// durable before the next document starts.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorrupt, dbPath, err)
	}
	return db, nil
}

// quarantine moves a corrupt database to index.db.corrupt, replacing any
// earlier quarantined copy, and drops its WAL sidecar files so a fresh
// database can take the original path.
func quarantine(dbPath string) error {
	if err := os.Rename(dbPath, dbPath+".corrupt"); err != nil {
		return err
	}
	for _, sidecar := range []string{dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(sidecar); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ManifestStore returns a ManifestStore interface backed by this store.
func (s *Store) ManifestStore() driven.ManifestStore {
	return &manifestStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Manifest Store ====================

// manifestStore implements driven.ManifestStore.
type manifestStore struct {
	store *Store
}

var _ driven.ManifestStore = (*manifestStore)(nil)

// Get retrieves the entry for a document path.
func (m *manifestStore) Get(ctx context.Context, path string) (*domain.ManifestEntry, error) {
	row := m.store.db.QueryRowContext(ctx, `
		SELECT path, fingerprint, size_bytes, modified_at, indexed_at, chunk_count, collection
		FROM manifest WHERE path = ?
	`, path)

	var entry domain.ManifestEntry
	if err := row.Scan(&entry.Path, &entry.Fingerprint, &entry.SizeBytes,
		&entry.ModifiedAt, &entry.IndexedAt, &entry.ChunkCount, &entry.Collection); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning manifest entry: %w", err)
	}
	return &entry, nil
}

// Record persists one entry immediately. The write commits on its own so
// a crash mid-run never loses completed documents.
func (m *manifestStore) Record(ctx context.Context, entry domain.ManifestEntry) error {
	if entry.IndexedAt.IsZero() {
		entry.IndexedAt = time.Now().UTC()
	}

	_, err := m.store.db.ExecContext(ctx, `
		INSERT INTO manifest (path, fingerprint, size_bytes, modified_at, indexed_at, chunk_count, collection)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			size_bytes = excluded.size_bytes,
			modified_at = excluded.modified_at,
			indexed_at = excluded.indexed_at,
			chunk_count = excluded.chunk_count,
			collection = excluded.collection
	`, entry.Path, entry.Fingerprint, entry.SizeBytes,
		entry.ModifiedAt.UTC(), entry.IndexedAt.UTC(), entry.ChunkCount, entry.Collection)

	if err != nil {
		return fmt.Errorf("recording manifest entry: %w", err)
	}
	return nil
}

// Remove deletes the entry for a document path.
func (m *manifestStore) Remove(ctx context.Context, path string) error {
	_, err := m.store.db.ExecContext(ctx, "DELETE FROM manifest WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("removing manifest entry: %w", err)
	}
	return nil
}

// All returns every tracked entry ordered by path.
func (m *manifestStore) All(ctx context.Context) ([]domain.ManifestEntry, error) {
	rows, err := m.store.db.QueryContext(ctx, `
		SELECT path, fingerprint, size_bytes, modified_at, indexed_at, chunk_count, collection
		FROM manifest ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}
	defer rows.Close()

	var entries []domain.ManifestEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.ManifestEntry
		if err := rows.Scan(&entry.Path, &entry.Fingerprint, &entry.SizeBytes,
			&entry.ModifiedAt, &entry.IndexedAt, &entry.ChunkCount, &entry.Collection); err != nil {
			return nil, fmt.Errorf("scanning manifest entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manifest: %w", err)
	}
	return entries, nil
}

// Close is a no-op; the owning Store manages the connection.
func (m *manifestStore) Close() error {
	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunks stores chunks in one transaction, replacing rows with the
// same ID.
func (c *chunkStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_path, content, position, fingerprint, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_path = excluded.document_path,
			content = excluded.content,
			position = excluded.position,
			fingerprint = excluded.fingerprint,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		metadataJSON, err := json.Marshal(chunks[i].Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		embeddingBlob := float32SliceToBytes(chunks[i].Embedding)

		if _, err := stmt.ExecContext(ctx, chunks[i].ID, chunks[i].DocumentPath,
			chunks[i].Content, chunks[i].Position, chunks[i].Fingerprint,
			embeddingBlob, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (c *chunkStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT id, document_path, content, position, fingerprint, embedding, metadata
		FROM chunks WHERE id = ?
	`, id)
	return scanChunk(row)
}

// ChunksForDocument returns all chunks of a document in position order.
func (c *chunkStore) ChunksForDocument(ctx context.Context, documentPath string) ([]domain.Chunk, error) {
	return c.queryChunks(ctx, `
		SELECT id, document_path, content, position, fingerprint, embedding, metadata
		FROM chunks WHERE document_path = ?
		ORDER BY position
	`, documentPath)
}

// AllChunks returns every stored chunk.
func (c *chunkStore) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	return c.queryChunks(ctx, `
		SELECT id, document_path, content, position, fingerprint, embedding, metadata
		FROM chunks
		ORDER BY document_path, position
	`)
}

// DeleteChunks removes chunks by ID.
func (c *chunkStore) DeleteChunks(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM chunks WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("deleting chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close is a no-op; the owning Store manages the connection.
func (c *chunkStore) Close() error {
	return nil
}

// queryChunks runs a chunk query and scans all rows.
func (c *chunkStore) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// scanner abstracts sql.Row and sql.Rows for scanChunk.
type scanner interface {
	Scan(dest ...any) error
}

// scanChunk reads one chunk row.
func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	var metadataJSON string

	if err := row.Scan(&chunk.ID, &chunk.DocumentPath, &chunk.Content,
		&chunk.Position, &chunk.Fingerprint, &embeddingBlob, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
	}
	return &chunk, nil
}

// float32SliceToBytes encodes a vector as little-endian bytes for BLOB
// storage. Nil vectors encode as nil.
func float32SliceToBytes(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice decodes a BLOB back into a vector.
func bytesToFloat32Slice(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
