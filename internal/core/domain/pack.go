package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Pack definition defaults.
const (
	DefaultChunkSize          = 900
	DefaultChunkOverlap       = 150
	DefaultSummaryTemperature = 0.2
	DefaultSummaryMaxWords    = 180
	DefaultRequestTimeout     = 30 * time.Second
	DefaultBatchSize          = 16
	MaxBatchSize              = 64
)

// SourceConfig is one source of text within a pack.
type SourceConfig struct {
	// URL is an http(s) URL, a file:// URL or a local path.
	URL string

	// Title overrides the title discovered while fetching.
	Title string

	// Metadata overrides pack defaults for chunks of this source.
	Metadata map[string]any
}

// PackConfig is the read-only definition of a pack.
// It is an input to ingestion and is never mutated by the core.
type PackConfig struct {
	// PackID is the URL-safe slug identifying the pack.
	PackID string

	// Sources are fetched in order; the index becomes part of each document id.
	Sources []SourceConfig

	// ChunkSize is the maximum number of characters per chunk.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by consecutive chunks.
	// Must be smaller than ChunkSize.
	ChunkOverlap int

	// SummarisationEnabled replaces chunk text with an LLM summary before embedding.
	SummarisationEnabled bool

	// SummaryModel overrides the configured LLM model for this pack's
	// summaries. Empty uses the provider's model from settings.
	SummaryModel string

	// SummaryTemperature controls summary randomness.
	SummaryTemperature float64

	// SummaryMaxWords is the target length of each summary.
	SummaryMaxWords int

	// RequestTimeout bounds each fetch and store call.
	RequestTimeout time.Duration

	// BatchSize is the number of chunks per upsert request.
	BatchSize int

	// DefaultMetadata is applied to every chunk in the pack.
	DefaultMetadata map[string]any

	// Schedule is the re-ingestion interval. Zero disables scheduling.
	Schedule time.Duration
}

// DefaultPackConfig returns a pack definition with every default applied.
func DefaultPackConfig() PackConfig {
	return PackConfig{
		ChunkSize:            DefaultChunkSize,
		ChunkOverlap:         DefaultChunkOverlap,
		SummarisationEnabled: true,
		SummaryTemperature:   DefaultSummaryTemperature,
		SummaryMaxWords:      DefaultSummaryMaxWords,
		RequestTimeout:       DefaultRequestTimeout,
		BatchSize:            DefaultBatchSize,
		DefaultMetadata:      map[string]any{},
	}
}

// Validate checks the definition and returns every problem found, each
// wrapping ErrConfig.
func (p *PackConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(p.PackID) == "" {
		errs = append(errs, fmt.Errorf("%w: pack_id is required", ErrConfig))
	}
	if len(p.Sources) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one source is required", ErrConfig))
	}
	for i, s := range p.Sources {
		if strings.TrimSpace(s.URL) == "" {
			errs = append(errs, fmt.Errorf("%w: sources[%d].url is required", ErrConfig, i))
		}
	}
	if err := ValidateChunking(p.ChunkSize, p.ChunkOverlap); err != nil {
		errs = append(errs, err)
	}
	if p.BatchSize <= 0 || p.BatchSize > MaxBatchSize {
		errs = append(errs, fmt.Errorf("%w: batch_size must be between 1 and %d, got %d",
			ErrConfig, MaxBatchSize, p.BatchSize))
	}
	if p.SummaryMaxWords < 0 {
		errs = append(errs, fmt.Errorf("%w: summary_max_words must not be negative", ErrConfig))
	}
	if p.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: request_timeout must not be negative", ErrConfig))
	}
	return errors.Join(errs...)
}

// ValidateChunking rejects window sizes that cannot make progress.
func ValidateChunking(chunkSize, chunkOverlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrConfig, chunkSize)
	}
	if chunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap must not be negative, got %d", ErrConfig, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			ErrConfig, chunkOverlap, chunkSize)
	}
	return nil
}

// MetadataEcho is the configuration summary stored with the registry entry.
// summaryModel is the model the run actually summarised with; empty records
// summary_model as nil.
func (p *PackConfig) MetadataEcho(summaryModel string) map[string]any {
	var model any
	if summaryModel != "" {
		model = summaryModel
	}
	defaults := p.DefaultMetadata
	if defaults == nil {
		defaults = map[string]any{}
	}
	return map[string]any{
		"default_metadata": defaults,
		"chunk_size":       p.ChunkSize,
		"chunk_overlap":    p.ChunkOverlap,
		"summary_model":    model,
	}
}
