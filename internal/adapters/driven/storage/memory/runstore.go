package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Ensure IngestRunStore implements the interface.
var _ driven.IngestRunStore = (*IngestRunStore)(nil)

// IngestRunStore is an in-memory implementation of driven.IngestRunStore.
type IngestRunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.IngestRun
}

// NewIngestRunStore creates a new in-memory run store.
func NewIngestRunStore() *IngestRunStore {
	return &IngestRunStore{
		runs: make(map[string]domain.IngestRun),
	}
}

// SaveRun stores or updates a run.
func (s *IngestRunStore) SaveRun(_ context.Context, run domain.IngestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// ListRuns returns recent runs for a pack, most recent first.
// A non-positive limit returns every run.
func (s *IngestRunStore) ListRuns(_ context.Context, packID string, limit int) ([]domain.IngestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.IngestRun, 0)
	for _, run := range s.runs {
		if run.PackID == packID {
			result = append(result, run)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
