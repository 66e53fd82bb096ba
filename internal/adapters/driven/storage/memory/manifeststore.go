// Package memory provides in-memory implementations of the storage
// ports, used by tests and ephemeral setups.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
)

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is an in-memory implementation of driven.ManifestStore.
type ManifestStore struct {
	mu      sync.RWMutex
	entries map[string]domain.ManifestEntry
}

// NewManifestStore creates a new in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{entries: make(map[string]domain.ManifestEntry)}
}

// Get retrieves the entry for a document path.
func (s *ManifestStore) Get(_ context.Context, path string) (*domain.ManifestEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// Record stores one entry, replacing any existing entry for the path.
func (s *ManifestStore) Record(_ context.Context, entry domain.ManifestEntry) error {
	if entry.IndexedAt.IsZero() {
		entry.IndexedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Path] = entry
	return nil
}

// Remove deletes the entry for a document path.
func (s *ManifestStore) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, path)
	return nil
}

// All returns every tracked entry ordered by path.
func (s *ManifestStore) All(_ context.Context) ([]domain.ManifestEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]domain.ManifestEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Close releases resources. The in-memory store has none.
func (s *ManifestStore) Close() error {
	return nil
}
