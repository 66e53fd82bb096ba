package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_EmptyContent(t *testing.T) {
	c := New()

	chunks, err := c.Chunk(context.Background(), "doc.md", "")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = c.Chunk(context.Background(), "doc.md", "   \n\t  ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunker_ShortContentSingleChunk(t *testing.T) {
	c := New()

	chunks, err := c.Chunk(context.Background(), "notes/barolo.md", "Barolo needs long cellaring.")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Barolo needs long cellaring.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, "notes/barolo.md", chunks[0].DocumentPath)
	assert.Equal(t, "barolo.md", chunks[0].Metadata.SourceName)
	assert.NotEmpty(t, chunks[0].ID)
	assert.NotEmpty(t, chunks[0].Fingerprint)
}

func TestChunker_SplitsLongContent(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	content := strings.Repeat("grape harvest ", 50) // 700 chars

	chunks, err := c.Chunk(context.Background(), "doc.md", content)

	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Position)
		assert.LessOrEqual(t, len(chunk.Content), 100)
	}
}

func TestChunker_BreaksAtWhitespace(t *testing.T) {
	c := New(WithChunkSize(30), WithOverlap(5))
	content := "cabernet sauvignon merlot syrah grenache mourvedre carignan"

	chunks, err := c.Chunk(context.Background(), "doc.md", content)

	require.NoError(t, err)
	for _, chunk := range chunks {
		assert.False(t, strings.HasPrefix(chunk.Content, " "))
		assert.False(t, strings.HasSuffix(chunk.Content, " "))
		// Every chunk starts and ends on whole words from the source.
		for _, word := range strings.Fields(chunk.Content) {
			assert.Contains(t, content, word)
		}
	}
}

func TestChunker_OverlapRetainsContext(t *testing.T) {
	c := New(WithChunkSize(40), WithOverlap(15))
	content := strings.Repeat("vintage report ", 20)

	chunks, err := c.Chunk(context.Background(), "doc.md", content)

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks share text from the overlap window.
	tail := chunks[0].Content[len(chunks[0].Content)-7:]
	assert.Contains(t, chunks[1].Content, strings.TrimSpace(tail))
}

func TestChunker_DeterministicIDs(t *testing.T) {
	c := New(WithChunkSize(50), WithOverlap(10))
	content := strings.Repeat("terroir matters ", 10)

	first, err := c.Chunk(context.Background(), "doc.md", content)
	require.NoError(t, err)
	second, err := c.Chunk(context.Background(), "doc.md", content)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Fingerprint, second[i].Fingerprint)
	}
}

func TestChunker_UnbrokenTokenHardCut(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(2))
	content := strings.Repeat("x", 25)

	chunks, err := c.Chunk(context.Background(), "doc.md", content)

	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 10)
	}
}

func TestChunker_OverlapClampedToChunkSize(t *testing.T) {
	c := New(WithChunkSize(20), WithOverlap(50))
	content := strings.Repeat("a b ", 30)

	chunks, err := c.Chunk(context.Background(), "doc.md", content)

	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}
