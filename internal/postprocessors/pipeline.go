// Package postprocessors turns fetched source text into pack chunks.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// Pipeline runs post-processors in order over one source document. The first
// stage (the chunker) creates chunks from nothing; later stages rewrite them.
type Pipeline struct {
	stages []driven.PostProcessor
}

func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process stops early once a stage leaves no chunks, so an empty source
// never reaches the summariser.
func (p *Pipeline) Process(ctx context.Context, src *domain.SourceDocument) ([]domain.Chunk, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source document", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := stage.Process(ctx, src, chunks)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stage.Name(), err)
		}
		if len(out) == 0 {
			return nil, nil
		}
		chunks = out
	}
	return chunks, nil
}

func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Names lists stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

func (p *Pipeline) Len() int { return len(p.stages) }

// SummaryModel reports the model of the first stage that names one.
func (p *Pipeline) SummaryModel() string {
	for _, s := range p.stages {
		if m, ok := s.(interface{ Model() string }); ok {
			return m.Model()
		}
	}
	return ""
}
