// Package summary replaces chunk text with an LLM summary before embedding.
package summary

import (
	"cmp"
	"context"
	"strings"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// Name is the processor name used in pipeline configuration.
const Name = "summary"

// Processor summarises every chunk. Chunk ids and metadata are untouched;
// only Text changes. When the summariser fails or returns nothing the raw
// chunk text is kept.
type Processor struct {
	summariser driven.Summariser
	opts       driven.SummariseOptions
}

// New creates a summary processor.
func New(s driven.Summariser, opts driven.SummariseOptions) *Processor {
	if opts.MaxWords <= 0 {
		opts.MaxWords = domain.DefaultSummaryMaxWords
	}
	return &Processor{summariser: s, opts: opts}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Model is the model requests are sent with: the pack override when set,
// otherwise the summariser's configured model.
func (p *Processor) Model() string {
	return cmp.Or(p.opts.Model, p.summariser.ModelName())
}

// Process summarises the chunks produced by earlier processors.
func (p *Processor) Process(ctx context.Context, src *domain.SourceDocument, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, len(chunks))
	fallbacks := 0
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = c
		summary, err := p.summariser.Summarise(ctx, c.Text, p.opts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("summarise %s: %v; keeping source text", c.DocumentID, err)
			fallbacks++
			continue
		}
		summary = strings.TrimSpace(summary)
		if summary == "" {
			logger.Debug("empty summary for %s; keeping source text", c.DocumentID)
			fallbacks++
			continue
		}
		out[i].Text = summary
	}
	logger.Debug("summarised %d/%d chunks of %s", len(chunks)-fallbacks, len(chunks), src.URL)
	return out, nil
}
