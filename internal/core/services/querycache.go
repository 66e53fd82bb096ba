package services

import (
	"container/list"
	"sync"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
)

// DefaultCacheCapacity bounds the query cache when no capacity is given.
const DefaultCacheCapacity = 100

// cacheEntry is one stored result. Entries are immutable once created.
type cacheEntry struct {
	key     string
	results []domain.RetrievedChunk
}

// queryCache memoizes final ranked results for a normalized query plus
// parameters, bounded by recency. A single mutex serialises access to
// the ordering structure under concurrent queries.
type queryCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	entries  map[string]*list.Element
	hits     uint64
	misses   uint64
}

// newQueryCache creates an LRU query cache with the given capacity.
func newQueryCache(capacity int) *queryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &queryCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// get returns the cached results for a key, refreshing its recency.
// The returned slice is a copy so callers cannot mutate the entry.
func (c *queryCache) get(key string) ([]domain.RetrievedChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.order.MoveToFront(elem)
	c.hits++

	stored := elem.Value.(*cacheEntry).results
	results := make([]domain.RetrievedChunk, len(stored))
	copy(results, stored)
	return results, true
}

// put stores results for a key, evicting the least recently used entry
// on overflow.
func (c *queryCache) put(key string, results []domain.RetrievedChunk) {
	stored := make([]domain.RetrievedChunk, len(results))
	copy(stored, results)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).results = stored
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, results: stored})
}

// clear drops every entry and resets the counters.
func (c *queryCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.hits = 0
	c.misses = 0
}

// stats returns a snapshot of the counters.
func (c *queryCache) stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CacheStats{
		Size:     c.order.Len(),
		Capacity: c.capacity,
		Hits:     c.hits,
		Misses:   c.misses,
	}
}
