package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)

	require.NoError(t, err)
	defer store.Close()
	assert.FileExists(t, filepath.Join(dir, "index.db"))
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	entry := domain.ManifestEntry{
		Path:        "docs/wine_atlas.pdf",
		Fingerprint: "abc123",
		SizeBytes:   2048,
		ModifiedAt:  time.Now().UTC().Truncate(time.Second),
		IndexedAt:   time.Now().UTC().Truncate(time.Second),
		ChunkCount:  7,
		Collection:  "wine",
	}
	require.NoError(t, store.ManifestStore().Record(ctx, entry))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.ManifestStore().Get(ctx, "docs/wine_atlas.pdf")
	require.NoError(t, err)
	assert.Equal(t, "abc123", got.Fingerprint)
	assert.Equal(t, 7, got.ChunkCount)
}

func TestNewStore_QuarantinesCorruptDatabase(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	dbPath := filepath.Join(dir, "index.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("not a sqlite database"), 0600))

	store, err := NewStore(dir)

	require.NoError(t, err)
	defer store.Close()

	// The unreadable file is set aside and a fresh, empty index takes
	// its place, so a forced ingest can rebuild from scratch.
	assert.FileExists(t, dbPath+".corrupt")
	entries, err := store.ManifestStore().All(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entry := domain.ManifestEntry{
		Path:        "docs/rebuilt.md",
		Fingerprint: "def456",
		ModifiedAt:  time.Now().UTC().Truncate(time.Second),
		ChunkCount:  2,
		Collection:  "wine",
	}
	require.NoError(t, store.ManifestStore().Record(ctx, entry))
}

func TestManifestStore_GetMissing(t *testing.T) {
	store := setupStore(t)

	_, err := store.ManifestStore().Get(context.Background(), "missing.md")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManifestStore_RecordReplaces(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	manifest := store.ManifestStore()

	entry := domain.ManifestEntry{
		Path:        "docs/regions.md",
		Fingerprint: "v1",
		ModifiedAt:  time.Now().UTC(),
		IndexedAt:   time.Now().UTC(),
		ChunkCount:  3,
	}
	require.NoError(t, manifest.Record(ctx, entry))

	entry.Fingerprint = "v2"
	entry.ChunkCount = 5
	require.NoError(t, manifest.Record(ctx, entry))

	got, err := manifest.Get(ctx, "docs/regions.md")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Fingerprint)
	assert.Equal(t, 5, got.ChunkCount)

	all, err := manifest.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestManifestStore_Remove(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	manifest := store.ManifestStore()

	require.NoError(t, manifest.Record(ctx, domain.ManifestEntry{
		Path:        "docs/gone.md",
		Fingerprint: "x",
		ModifiedAt:  time.Now().UTC(),
		IndexedAt:   time.Now().UTC(),
	}))
	require.NoError(t, manifest.Remove(ctx, "docs/gone.md"))

	_, err := manifest.Get(ctx, "docs/gone.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_SaveAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	chunks := store.ChunkStore()

	chunk := domain.NewChunk("docs/burgundy.md", 0, "Chablis is unoaked Chardonnay.", domain.ChunkMetadata{
		SourceName: "burgundy.md",
		Page:       2,
		Entities:   []string{"chablis", "chardonnay"},
		Extra:      map[string]string{"style": "white"},
	})
	chunk.Embedding = []float32{0.1, 0.2, 0.3}
	require.NoError(t, chunks.SaveChunks(ctx, []domain.Chunk{chunk}))

	got, err := chunks.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Equal(t, chunk.Fingerprint, got.Fingerprint)
	assert.Equal(t, chunk.Embedding, got.Embedding)
	assert.Equal(t, chunk.Metadata, got.Metadata)
}

func TestChunkStore_GetMissing(t *testing.T) {
	store := setupStore(t)

	_, err := store.ChunkStore().GetChunk(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunkStore_ChunksForDocument_PositionOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	chunks := store.ChunkStore()

	c0 := domain.NewChunk("docs/loire.md", 0, "Sancerre", domain.ChunkMetadata{})
	c1 := domain.NewChunk("docs/loire.md", 1, "Vouvray", domain.ChunkMetadata{})
	c2 := domain.NewChunk("docs/loire.md", 2, "Chinon", domain.ChunkMetadata{})
	require.NoError(t, chunks.SaveChunks(ctx, []domain.Chunk{c2, c0, c1}))

	got, err := chunks.ChunksForDocument(ctx, "docs/loire.md")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{got[0].Position, got[1].Position, got[2].Position})
}

func TestChunkStore_DeleteChunks(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	chunks := store.ChunkStore()

	c0 := domain.NewChunk("docs/rhone.md", 0, "Hermitage", domain.ChunkMetadata{})
	c1 := domain.NewChunk("docs/rhone.md", 1, "Cornas", domain.ChunkMetadata{})
	require.NoError(t, chunks.SaveChunks(ctx, []domain.Chunk{c0, c1}))

	require.NoError(t, chunks.DeleteChunks(ctx, []string{c0.ID}))

	all, err := chunks.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, c1.ID, all[0].ID)
}

func TestNewStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.db"), []byte("not a database"), 0600))

	_, err := NewStore(dir)

	assert.ErrorIs(t, err, domain.ErrCorrupt)
}

func TestFloat32SliceRoundTrip(t *testing.T) {
	v := []float32{0, -1.5, 3.25, 1e-7}

	got := bytesToFloat32Slice(float32SliceToBytes(v))

	assert.Equal(t, v, got)
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
