package driving

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// SearchService provides similarity search within a pack.
type SearchService interface {
	// Search embeds the query and returns the topK most similar chunks.
	// topK of zero uses the configured default.
	Search(ctx context.Context, packID, query string, topK int) ([]domain.SearchResult, error)
}
