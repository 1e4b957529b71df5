package tui

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// MockCatalogService implements driving.CatalogService for testing.
type MockCatalogService struct {
	ListFunc    func(ctx context.Context) ([]domain.RegistryEntry, error)
	GetFunc     func(ctx context.Context, packID string) (*domain.RegistryEntry, error)
	RefreshFunc func(ctx context.Context, packID string) (*domain.RegistryEntry, error)
	RemoveFunc  func(ctx context.Context, packID string) error
}

func (m *MockCatalogService) List(ctx context.Context) ([]domain.RegistryEntry, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockCatalogService) Get(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, packID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockCatalogService) Refresh(ctx context.Context, packID string) (*domain.RegistryEntry, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, packID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockCatalogService) Remove(ctx context.Context, packID string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, packID)
	}
	return nil
}

// MockDownloadService implements driving.DownloadService for testing.
type MockDownloadService struct {
	DownloadFunc func(ctx context.Context, packID string, cursor *string, limit int) (*domain.DownloadPage, error)
}

func (m *MockDownloadService) Download(
	ctx context.Context, packID string, cursor *string, limit int,
) (*domain.DownloadPage, error) {
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, packID, cursor, limit)
	}
	return &domain.DownloadPage{PackID: packID, Limit: limit, Offset: cursor}, nil
}

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	SearchFunc func(ctx context.Context, packID, query string, topK int) ([]domain.SearchResult, error)
}

func (m *MockSearchService) Search(ctx context.Context, packID, query string, topK int) ([]domain.SearchResult, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, packID, query, topK)
	}
	return nil, nil
}

// MockSettingsService implements driving.SettingsService for testing.
type MockSettingsService struct {
	settings domain.AppSettings
	err      error
}

func (m *MockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *MockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *MockSettingsService) SetStoreBackend(backend domain.StoreBackend) error {
	m.settings.Store.Backend = backend
	return nil
}

func (m *MockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *MockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return nil
}

func (m *MockSettingsService) Validate() error {
	return nil
}

func (m *MockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

var (
	_ driving.CatalogService  = (*MockCatalogService)(nil)
	_ driving.DownloadService = (*MockDownloadService)(nil)
	_ driving.SearchService   = (*MockSearchService)(nil)
	_ driving.SettingsService = (*MockSettingsService)(nil)
)

func testPorts() *Ports {
	return &Ports{
		Catalog:  &MockCatalogService{},
		Download: &MockDownloadService{},
		Search:   &MockSearchService{},
		Settings: &MockSettingsService{settings: domain.DefaultAppSettings()},
	}
}
