// Package ratelimit wraps an embedding service with a request rate limit.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService waits on a token bucket before each request to the
// wrapped service. Ingest workers share one limiter, so the configured rate
// holds across the whole run.
type EmbeddingService struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// Wrap limits svc to perSecond requests per second. A non-positive rate
// returns svc unchanged.
func Wrap(svc driven.EmbeddingService, perSecond float64) driven.EmbeddingService {
	if perSecond <= 0 || svc == nil {
		return svc
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &EmbeddingService{
		EmbeddingService: svc,
		limiter:          rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Embed waits for a token, then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}
	return s.EmbeddingService.Embed(ctx, text)
}

// EmbedBatch waits for a token, then embeds texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}
	return s.EmbeddingService.EmbedBatch(ctx, texts)
}
