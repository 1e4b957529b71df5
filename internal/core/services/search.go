package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService runs similarity queries within a pack.
type SearchService struct {
	searcher    driven.VectorSearcher
	embedder    driven.EmbeddingService
	prefix      string
	defaultTopK int
	timeout     time.Duration
}

// NewSearchService creates a search service. searcher may be nil when the
// configured store cannot run similarity queries; Search then returns
// domain.ErrSearchUnavailable.
func NewSearchService(
	searcher driven.VectorSearcher,
	embedder driven.EmbeddingService,
	collectionPrefix string,
	defaultTopK int,
	timeout time.Duration,
) *SearchService {
	if defaultTopK <= 0 {
		defaultTopK = domain.DefaultTopK
	}
	return &SearchService{
		searcher:    searcher,
		embedder:    embedder,
		prefix:      collectionPrefix,
		defaultTopK: defaultTopK,
		timeout:     timeout,
	}
}

// Search embeds the query and returns the most similar chunks.
func (s *SearchService) Search(ctx context.Context, packID, query string, topK int) ([]domain.SearchResult, error) {
	if topK == 0 {
		topK = s.defaultTopK
	}
	if err := domain.ValidateTopK(topK); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", domain.ErrInvalidInput)
	}
	if s.searcher == nil {
		return nil, domain.ErrSearchUnavailable
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Search")
	logger.Debug("pack=%s query=%q top_k=%d", packID, query, topK)

	var hits []driven.VectorHit
	err := withTimeout(ctx, s.timeout, func(ctx context.Context) error {
		vec, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		hits, err = s.searcher.Search(ctx, domain.CollectionName(s.prefix, packID), vec, topK)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", packID, err)
	}

	results := make([]domain.SearchResult, len(hits))
	for n, h := range hits {
		meta := h.Chunk.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		results[n] = domain.SearchResult{
			DocumentID: h.Chunk.DocumentID,
			Text:       h.Chunk.Text,
			Score:      h.Score,
			Metadata:   meta,
		}
	}
	logger.Debug("search returned %d results", len(results))
	return results, nil
}
