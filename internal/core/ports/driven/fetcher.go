package driven

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// SourceFetcher reads and cleans the text of a pack source.
type SourceFetcher interface {
	// Fetch retrieves the source at url. The returned document's Index is zero;
	// callers set it.
	Fetch(ctx context.Context, url string) (*domain.SourceDocument, error)
}

// PackLoader reads pack definitions.
type PackLoader interface {
	// Load parses and validates the definition at path.
	// Invalid definitions wrap domain.ErrConfig.
	Load(path string) (*domain.PackConfig, error)
}
