package driving

import "github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: stored values over defaults,
	// with environment overrides applied last.
	Get() (*domain.AppSettings, error)

	// Save persists settings.
	Save(settings *domain.AppSettings) error

	// SetStoreBackend selects the vector store backend.
	SetStoreBackend(backend domain.StoreBackend) error

	// SetEmbeddingProvider configures the embedding provider.
	// An empty model selects the provider's default.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the summariser provider.
	// An empty model selects the provider's default.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the effective settings can run the server.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
