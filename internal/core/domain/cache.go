package domain

// CacheStats reports query cache counters.
type CacheStats struct {
	// Size is the number of cached entries.
	Size int

	// Capacity is the maximum number of entries.
	Capacity int

	// Hits counts lookups served from the cache.
	Hits uint64

	// Misses counts lookups that fell through to the pipeline.
	Misses uint64
}

// HitRate returns the fraction of lookups served from the cache.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
