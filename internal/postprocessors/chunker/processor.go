// Package chunker provides deterministic, overlapping text chunking.
package chunker

import (
	"context"
	"unicode/utf8"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// Name is the processor name used in pipeline configuration.
const Name = "chunker"

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor splits source text into chunks with deterministic ids.
// It implements the PostProcessor interface.
type Processor struct {
	packID    string
	chunkSize int
	overlap   int
	defaults  map[string]any
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithPackID sets the pack used to build document ids.
func WithPackID(packID string) Option {
	return func(p *Processor) {
		p.packID = packID
	}
}

// WithDefaultMetadata sets the pack-level metadata layer.
func WithDefaultMetadata(m map[string]any) Option {
	return func(p *Processor) {
		p.defaults = m
	}
}

// New creates a new chunker processor with the given options.
// Returns domain.ErrConfig if the overlap is not smaller than the chunk size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := domain.ValidateChunking(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Process splits the source text into chunks.
// Input chunks are ignored; this processor creates new chunks from the source.
func (p *Processor) Process(ctx context.Context, src *domain.SourceDocument, _ []domain.Chunk) ([]domain.Chunk, error) {
	if src.Text == "" {
		return nil, nil
	}

	total := utf8.RuneCountInString(src.Text)
	chunks := make([]domain.Chunk, 0, Estimate(total, p.chunkSize, p.overlap))

	for i, text := range Windows(src.Text, p.chunkSize, p.overlap) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID: domain.MakeDocumentID(p.packID, src.Index, i),
			Text:       text,
			Metadata: domain.MergeMetadata(
				p.defaults,
				src.Metadata,
				domain.SystemMetadata(src, i, utf8.RuneCountInString(text)),
			),
		})
	}

	return chunks, nil
}
