package services

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStoreBackend       = "store.backend"
	keyQdrantURL          = "store.qdrant_url"
	keyQdrantAPIKey       = "store.qdrant_api_key"
	keyRedisURL           = "store.redis_url"
	keyCollectionPrefix   = "store.collection_prefix"
	keyRegistryCollection = "store.registry_collection"
	keyStoreTimeout       = "store.timeout"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyEmbedRateLimit     = "embedding.rate_limit"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyServerAddr         = "server.addr"
	keyDefaultTopK        = "search.default_top_k"
	keyIngestWorkers      = "ingest.workers"
	keyIngestRetries      = "ingest.max_retries"
	keyRegistryRetries    = "ingest.registry_retries"
	keyRetryBackoff       = "ingest.retry_backoff"
	keyUserAgent          = "scraper.user_agent"
	keyScraperRPS         = "scraper.requests_per_second"
	keyIgnoreRobots       = "scraper.ignore_robots"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvStoreBackend    = "ZEROSIGNAL_STORE"
	EnvQdrantURL       = "QDRANT_URL"
	EnvQdrantAPIKey    = "QDRANT_API_KEY"
	EnvRedisURL        = "REDIS_URL"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get returns the effective settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	s.applyEnv(settings)
	return settings, nil
}

// stored reads persisted values over defaults, without environment overrides.
func (s *SettingsService) stored() *domain.AppSettings {
	d := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Store: domain.StoreSettings{
			Backend:            s.getBackend(d.Store.Backend),
			QdrantURL:          s.getString(keyQdrantURL, d.Store.QdrantURL),
			QdrantAPIKey:       s.configStore.GetString(keyQdrantAPIKey),
			RedisURL:           s.getString(keyRedisURL, d.Store.RedisURL),
			CollectionPrefix:   s.getString(keyCollectionPrefix, d.Store.CollectionPrefix),
			RegistryCollection: s.getString(keyRegistryCollection, d.Store.RegistryCollection),
			Timeout:            s.getDuration(keyStoreTimeout, d.Store.Timeout),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:  s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:     s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:   s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:    s.configStore.GetString(keyEmbedAPIKey),
			RateLimit: s.configStore.GetFloat(keyEmbedRateLimit),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:    s.getString(keyLLMModel, d.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Ingest: domain.IngestSettings{
			Workers:         s.getInt(keyIngestWorkers, d.Ingest.Workers),
			MaxRetries:      s.getInt(keyIngestRetries, d.Ingest.MaxRetries),
			RegistryRetries: s.getInt(keyRegistryRetries, d.Ingest.RegistryRetries),
			RetryBackoff:    s.getDuration(keyRetryBackoff, d.Ingest.RetryBackoff),
		},
		Server: domain.ServerSettings{
			Addr:        s.getString(keyServerAddr, d.Server.Addr),
			DefaultTopK: s.getInt(keyDefaultTopK, d.Server.DefaultTopK),
		},
		Scraper: domain.ScraperSettings{
			UserAgent:         s.getString(keyUserAgent, d.Scraper.UserAgent),
			RequestsPerSecond: s.getFloat(keyScraperRPS, d.Scraper.RequestsPerSecond),
			IgnoreRobots:      s.getBool(keyIgnoreRobots, d.Scraper.IgnoreRobots),
		},
	}
}

// applyEnv overlays environment variables on settings.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if v := s.getenv(EnvStoreBackend); v != "" {
		if b := domain.StoreBackend(strings.ToLower(v)); b.IsValid() {
			settings.Store.Backend = b
		}
	}
	if v := s.getenv(EnvQdrantURL); v != "" {
		settings.Store.QdrantURL = v
	}
	if v := s.getenv(EnvQdrantAPIKey); v != "" {
		settings.Store.QdrantAPIKey = v
	}
	if v := s.getenv(EnvRedisURL); v != "" {
		settings.Store.RedisURL = v
	}

	keys := map[domain.AIProvider]string{
		domain.AIProviderOpenAI:    s.getenv(EnvOpenAIAPIKey),
		domain.AIProviderAnthropic: s.getenv(EnvAnthropicAPIKey),
	}
	if k := keys[settings.Embedding.Provider]; k != "" && settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = k
	}
	if k := keys[settings.LLM.Provider]; k != "" && settings.LLM.APIKey == "" {
		settings.LLM.APIKey = k
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyQdrantURL, settings.Store.QdrantURL},
		{keyRedisURL, settings.Store.RedisURL},
		{keyCollectionPrefix, settings.Store.CollectionPrefix},
		{keyRegistryCollection, settings.Store.RegistryCollection},
		{keyStoreTimeout, settings.Store.Timeout.String()},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyServerAddr, settings.Server.Addr},
		{keyDefaultTopK, settings.Server.DefaultTopK},
		{keyIngestWorkers, settings.Ingest.Workers},
		{keyIngestRetries, settings.Ingest.MaxRetries},
		{keyRegistryRetries, settings.Ingest.RegistryRetries},
		{keyRetryBackoff, settings.Ingest.RetryBackoff.String()},
		{keyUserAgent, settings.Scraper.UserAgent},
		{keyScraperRPS, settings.Scraper.RequestsPerSecond},
		{keyIgnoreRobots, settings.Scraper.IgnoreRobots},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Secrets are only written when present
	secrets := map[string]string{
		keyQdrantAPIKey: settings.Store.QdrantAPIKey,
		keyEmbedAPIKey:  settings.Embedding.APIKey,
		keyLLMAPIKey:    settings.LLM.APIKey,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return s.configStore.Save()
}

// SetStoreBackend selects the vector store backend.
func (s *SettingsService) SetStoreBackend(backend domain.StoreBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: invalid store backend: %s", domain.ErrInvalidInput, backend)
	}
	settings := s.stored()
	settings.Store.Backend = backend
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	defaults := domain.DefaultEmbeddingModels()
	defaultModel, ok := defaults[provider]
	if !ok {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.getenv(EnvOpenAIAPIKey) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings := s.stored()
	settings.Embedding.Provider = provider
	settings.Embedding.Model = defaultModel
	if model != "" {
		settings.Embedding.Model = model
	}
	if provider == domain.AIProviderOllama {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the summariser provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings := s.stored()
	settings.LLM.Provider = provider
	settings.LLM.Model = domain.DefaultLLMModels()[provider]
	if model != "" {
		settings.LLM.Model = model
	}
	if provider == domain.AIProviderOllama {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that the effective settings can run the server.
// Every problem is reported, each wrapping domain.ErrConfig.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{domain.ErrConfig}, args...)...))
	}

	switch settings.Store.Backend {
	case domain.StoreBackendQdrant:
		if settings.Store.QdrantURL == "" {
			add("qdrant backend requires %s", keyQdrantURL)
		}
	case domain.StoreBackendRedis:
		if settings.Store.RedisURL == "" {
			add("redis backend requires %s", keyRedisURL)
		}
	case domain.StoreBackendSQLite, domain.StoreBackendMemory:
	default:
		add("invalid store backend: %s", settings.Store.Backend)
	}
	if domain.SanitisePackID(settings.Store.CollectionPrefix) == "" {
		add("%s must contain a letter or digit", keyCollectionPrefix)
	}
	if !settings.Embedding.IsConfigured() {
		add("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if err := domain.ValidateTopK(settings.Server.DefaultTopK); err != nil {
		add("%s: %v", keyDefaultTopK, err)
	}
	if settings.Ingest.Workers < 1 {
		add("%s must be at least 1", keyIngestWorkers)
	}
	if settings.Ingest.MaxRetries < 0 || settings.Ingest.RegistryRetries < 0 {
		add("retry counts must not be negative")
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
