package mcp

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// mockCatalogService is a mock implementation of driving.CatalogService.
type mockCatalogService struct {
	entries []domain.RegistryEntry
	err     error
}

func (m *mockCatalogService) List(_ context.Context) ([]domain.RegistryEntry, error) {
	return m.entries, m.err
}

func (m *mockCatalogService) Get(_ context.Context, packID string) (*domain.RegistryEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.entries {
		if m.entries[i].PackID == packID {
			return &m.entries[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockCatalogService) Refresh(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	return m.Get(ctx, packID)
}

func (m *mockCatalogService) Remove(_ context.Context, _ string) error {
	return m.err
}

// mockDownloadService is a mock implementation of driving.DownloadService.
// It records the last cursor and limit it was called with.
type mockDownloadService struct {
	page   *domain.DownloadPage
	err    error
	cursor *string
	limit  int
}

func (m *mockDownloadService) Download(_ context.Context, _ string, cursor *string, limit int) (*domain.DownloadPage, error) {
	m.cursor = cursor
	m.limit = limit
	return m.page, m.err
}

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	topK    int
}

func (m *mockSearchService) Search(_ context.Context, _, _ string, topK int) ([]domain.SearchResult, error) {
	m.topK = topK
	return m.results, m.err
}

func strPtr(s string) *string { return &s }
