// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	ollamaembed "github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/embedding/openai"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/embedding/ratelimit"
	anthropicllm "github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/llm/ollama"
	openaillm "github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driven/llm/openai"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// settingsHint is appended to configuration errors.
const settingsHint = "Run 'zerosignal settings' to fix"

// InitResult contains the AI services built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	Summariser       driven.Summariser // Nil when unconfigured or unreachable.
	Warnings         []string          // Non-fatal issues that caused fallback.
	FellBack         bool              // True if summaries fell back to raw text.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.Summariser != nil {
		_ = r.Summariser.Close()
	}
}

// promptSetter is implemented by summarisers that accept custom prompts.
type promptSetter interface {
	SetPromptStore(store driven.PromptStore)
}

// Init builds the embedding service and summariser. A missing or unreachable
// embedding service is an error; a failing summariser only adds a warning
// so ingestion continues with raw chunk text.
func Init(settings *domain.AppSettings, prompts driven.PromptStore) (*InitResult, error) {
	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding provider %q is not configured. %s",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider, settingsHint)
	}

	result := &InitResult{EmbeddingService: embedder}

	summariser, err := CreateAndValidateSummariser(&settings.LLM, prompts)
	switch {
	case err != nil:
		logger.Warn("summariser unavailable, using raw chunk text: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
	case summariser != nil:
		result.Summariser = summariser
	}

	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error when no provider is configured.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrEmbeddingUnavailable, err, settingsHint)
	}
	return svc, nil
}

// CreateAndValidateSummariser creates a summariser and validates connectivity.
// Returns nil without error when no provider is configured.
func CreateAndValidateSummariser(settings *domain.LLMSettings, prompts driven.PromptStore) (driven.Summariser, error) {
	svc, err := CreateSummariser(settings, prompts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. %s", domain.ErrLLMUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, nil
	}

	if err := ping(svc.Ping); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s", domain.ErrLLMUnavailable, err, settingsHint)
	}
	return svc, nil
}

// Validate pings every configured provider and reports all failures.
// This is used by 'settings check' to validate credentials.
func Validate(settings *domain.AppSettings) error {
	var errs []error

	if svc, err := CreateEmbeddingService(&settings.Embedding); err != nil {
		errs = append(errs, fmt.Errorf("embedding: %w", err))
	} else if svc != nil {
		if err := ping(svc.Ping); err != nil {
			errs = append(errs, fmt.Errorf("embedding: %w: %w", domain.ErrEmbeddingUnavailable, err))
		}
		_ = svc.Close()
	}

	if svc, err := CreateSummariser(&settings.LLM, nil); err != nil {
		errs = append(errs, fmt.Errorf("llm: %w", err))
	} else if svc != nil {
		if err := ping(svc.Ping); err != nil {
			errs = append(errs, fmt.Errorf("llm: %w: %w", domain.ErrLLMUnavailable, err))
		}
		_ = svc.Close()
	}

	return errors.Join(errs...)
}

func ping(fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return fn(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// A positive RateLimit wraps the service in a limiter.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai", domain.ErrConfig)
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	var svc driven.EmbeddingService
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = createOllamaEmbedding(settings)
	case domain.AIProviderOpenAI:
		var err error
		if svc, err = createOpenAIEmbedding(settings); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrConfig, settings.Provider)
	}

	if settings.RateLimit > 0 {
		svc = ratelimit.Wrap(svc, settings.RateLimit)
	}
	return svc, nil
}

// CreateSummariser creates the appropriate summariser based on settings.
// prompts is optional. Returns nil if the provider is not configured.
func CreateSummariser(settings *domain.LLMSettings, prompts driven.PromptStore) (driven.Summariser, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var svc driven.Summariser
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamallm.NewSummariser(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderOpenAI:
		s, err := openaillm.NewSummariser(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		svc = s
	case domain.AIProviderAnthropic:
		s, err := anthropicllm.NewSummariser(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
		if err != nil {
			return nil, err
		}
		svc = s
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", domain.ErrConfig, settings.Provider)
	}

	if ps, ok := svc.(promptSetter); ok && prompts != nil {
		ps.SetPromptStore(prompts)
	}
	return svc, nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}
