package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Ensure RegistryStore implements the interface.
var _ driven.RegistryStore = (*RegistryStore)(nil)

// RegistryStore is an in-memory implementation of driven.RegistryStore.
type RegistryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.RegistryEntry
}

// NewRegistryStore creates a new in-memory registry store.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{
		entries: make(map[string]domain.RegistryEntry),
	}
}

// Save stores or replaces an entry.
func (s *RegistryStore) Save(_ context.Context, entry domain.RegistryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.PackID] = entry
	return nil
}

// Get retrieves the entry for a pack.
func (s *RegistryStore) Get(_ context.Context, packID string) (*domain.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[packID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &entry, nil
}

// List returns every entry ordered by pack id.
func (s *RegistryStore) List(_ context.Context) ([]domain.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.RegistryEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PackID < result[j].PackID })
	return result, nil
}

// Delete removes the entry for a pack.
func (s *RegistryStore) Delete(_ context.Context, packID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, packID)
	return nil
}
