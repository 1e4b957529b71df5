package driving

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// Ingestor builds packs: chunk, embed, upsert, then recompute the registry.
type Ingestor interface {
	// Ingest runs a full ingestion of the pack definition.
	// Configuration errors are returned before any I/O. A run where some
	// batches failed returns a report together with domain.ErrPartialIngest.
	Ingest(ctx context.Context, pack domain.PackConfig, opts domain.IngestOptions) (*domain.IngestReport, error)

	// StoreDocuments embeds and upserts pre-chunked documents and returns the
	// number stored. The registry is not recomputed.
	StoreDocuments(ctx context.Context, packID string, docs []domain.DocumentInput) (int, error)

	// Status returns the status of the pack's current or most recent run.
	Status(ctx context.Context, packID string) (*IngestStatus, error)

	// Runs returns recent runs for a pack, most recent first.
	Runs(ctx context.Context, packID string, limit int) ([]domain.IngestRun, error)
}

// IngestStatus represents the current state of an ingestion.
type IngestStatus struct {
	// PackID identifies the pack.
	PackID string

	// Running indicates if ingestion is currently in progress.
	Running bool

	// ChunksProduced is the count of chunks produced so far.
	ChunksProduced int

	// ChunksStored is the count of chunks acknowledged by the store.
	ChunksStored int

	// ErrorCount is the number of failed batches.
	ErrorCount int
}
