package domain

import "time"

const unknownDescription = "Unknown"

// StoreBackend identifies the vector store implementation.
type StoreBackend string

// Available store backends.
const (
	// StoreBackendSQLite is the embedded on-disk store. Used on client devices.
	StoreBackendSQLite StoreBackend = "sqlite"

	// StoreBackendMemory keeps everything in process. Used for tests and dry runs.
	StoreBackendMemory StoreBackend = "memory"

	// StoreBackendQdrant is a remote Qdrant server.
	StoreBackendQdrant StoreBackend = "qdrant"

	// StoreBackendRedis is a Redis server.
	StoreBackendRedis StoreBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendMemory, StoreBackendQdrant, StoreBackendRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreBackendSQLite:
		return "SQLite (embedded)"
	case StoreBackendMemory:
		return "Memory (ephemeral)"
	case StoreBackendQdrant:
		return "Qdrant (remote)"
	case StoreBackendRedis:
		return "Redis (remote)"
	default:
		return unknownDescription
	}
}

// AllStoreBackends returns every supported store backend.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{StoreBackendSQLite, StoreBackendMemory, StoreBackendQdrant, StoreBackendRedis}
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// AllEmbeddingProviders returns providers that can embed text.
// Anthropic has no embedding API.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders returns providers that can summarise text.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}
}

// StoreSettings holds vector store configuration.
type StoreSettings struct {
	// Backend selects the store implementation.
	Backend StoreBackend

	// QdrantURL is the Qdrant REST endpoint.
	QdrantURL string

	// QdrantAPIKey is sent as the api-key header when set.
	QdrantAPIKey string

	// RedisURL is a redis:// connection URL.
	RedisURL string

	// CollectionPrefix is prepended to sanitised pack ids.
	CollectionPrefix string

	// RegistryCollection holds the pack registry.
	RegistryCollection string

	// Timeout bounds every store call.
	Timeout time.Duration
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds summariser provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name. Pack definitions may override it.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IngestSettings holds ingestion tuning.
type IngestSettings struct {
	// Workers bounds concurrent batch upserts.
	Workers int

	// MaxRetries is the number of extra attempts per failed batch.
	MaxRetries int

	// RegistryRetries is the number of extra attempts for the registry write.
	RegistryRetries int

	// RetryBackoff is the initial delay between attempts. It doubles per attempt.
	RetryBackoff time.Duration
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// DefaultTopK is used when a search request omits top_k.
	DefaultTopK int
}

// ScraperSettings holds source fetching configuration.
type ScraperSettings struct {
	// UserAgent is sent with every request and matched against robots.txt.
	UserAgent string

	// RequestsPerSecond caps requests per host.
	RequestsPerSecond float64

	// IgnoreRobots disables robots.txt checks.
	IgnoreRobots bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	Store     StoreSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Ingest    IngestSettings
	Server    ServerSettings
	Scraper   ScraperSettings
}

// DefaultUserAgent identifies the fetcher to remote servers.
const DefaultUserAgent = "ZeroSignalScraper/0.1 (+https://zerosignal.ai)"

// DefaultAppSettings returns settings with sensible defaults.
// The summariser is left unconfigured; packs fall back to raw text.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Store: StoreSettings{
			Backend:            StoreBackendSQLite,
			QdrantURL:          "http://localhost:6333",
			RedisURL:           "redis://localhost:6379/0",
			CollectionPrefix:   DefaultCollectionPrefix,
			RegistryCollection: DefaultRegistryCollection,
			Timeout:            30 * time.Second,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{},
		Ingest: IngestSettings{
			Workers:         4,
			MaxRetries:      3,
			RegistryRetries: 3,
			RetryBackoff:    200 * time.Millisecond,
		},
		Server: ServerSettings{
			Addr:        ":8000",
			DefaultTopK: DefaultTopK,
		},
		Scraper: ScraperSettings{
			UserAgent:         DefaultUserAgent,
			RequestsPerSecond: 2,
		},
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
