package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

func cachedResults(ids ...string) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(ids))
	for i, id := range ids {
		out[i] = domain.RetrievedChunk{ChunkID: id, Text: "text " + id, Score: 1.0 / float64(i+1)}
	}
	return out
}

func TestQueryCache_MissThenHit(t *testing.T) {
	cache := newQueryCache(4)

	_, ok := cache.get("k1")
	assert.False(t, ok)

	cache.put("k1", cachedResults("a", "b"))
	got, ok := cache.get("k1")
	require.True(t, ok)
	assert.Equal(t, cachedResults("a", "b"), got)

	stats := cache.stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := newQueryCache(2)

	cache.put("k1", cachedResults("a"))
	cache.put("k2", cachedResults("b"))

	// Touch k1 so k2 becomes the eviction candidate.
	_, ok := cache.get("k1")
	require.True(t, ok)

	cache.put("k3", cachedResults("c"))

	_, ok = cache.get("k1")
	assert.True(t, ok)
	_, ok = cache.get("k2")
	assert.False(t, ok)
	_, ok = cache.get("k3")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.stats().Size)
}

func TestQueryCache_PutReplacesExisting(t *testing.T) {
	cache := newQueryCache(2)

	cache.put("k1", cachedResults("a"))
	cache.put("k1", cachedResults("b"))

	got, ok := cache.get("k1")
	require.True(t, ok)
	assert.Equal(t, cachedResults("b"), got)
	assert.Equal(t, 1, cache.stats().Size)
}

func TestQueryCache_ReturnsCopies(t *testing.T) {
	cache := newQueryCache(2)
	cache.put("k1", cachedResults("a", "b"))

	got, ok := cache.get("k1")
	require.True(t, ok)
	got[0].ChunkID = "mutated"

	again, ok := cache.get("k1")
	require.True(t, ok)
	assert.Equal(t, "a", again[0].ChunkID)
}

func TestQueryCache_Clear(t *testing.T) {
	cache := newQueryCache(4)
	cache.put("k1", cachedResults("a"))
	cache.get("k1")
	cache.get("missing")

	cache.clear()

	stats := cache.stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, uint64(0), stats.Hits)
	assert.Equal(t, uint64(0), stats.Misses)

	_, ok := cache.get("k1")
	assert.False(t, ok)
}

func TestQueryCache_HitRate(t *testing.T) {
	cache := newQueryCache(4)
	assert.Equal(t, 0.0, cache.stats().HitRate())

	cache.put("k1", cachedResults("a"))
	cache.get("k1")
	cache.get("k1")
	cache.get("missing")
	cache.get("also-missing")

	assert.InDelta(t, 0.5, cache.stats().HitRate(), 1e-9)
}

func TestQueryCache_CapacityBound(t *testing.T) {
	cache := newQueryCache(3)
	for i := 0; i < 10; i++ {
		cache.put(fmt.Sprintf("k%d", i), cachedResults("a"))
	}
	assert.Equal(t, 3, cache.stats().Size)
}
