package driven

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// PostProcessor turns source text into chunks.
// PostProcessors are chained in a pipeline (e.g., chunking, summarisation).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a source document and returns chunks.
	// If the processor modifies chunks (e.g., summariser), it receives and returns chunks.
	// If the processor creates chunks (e.g., chunker), it receives nil and returns new chunks.
	Process(ctx context.Context, src *domain.SourceDocument, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, src *domain.SourceDocument) ([]domain.Chunk, error)

	// SummaryModel returns the model the summary stage uses, or "" when the
	// pipeline does not summarise.
	SummaryModel() string
}

// PipelineFactory builds the processing pipeline for a pack definition.
type PipelineFactory interface {
	// Pipeline returns a pipeline for the pack. When summarise is true and a
	// summariser is available, chunk text is summarised after chunking.
	// Invalid chunking settings wrap domain.ErrConfig.
	Pipeline(pack *domain.PackConfig, summarise bool) (PostProcessorPipeline, error)
}
