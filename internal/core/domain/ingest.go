package domain

import "time"

// IngestOptions changes how a single ingestion run behaves.
type IngestOptions struct {
	// DryRun fetches, chunks and summarises without any store calls.
	DryRun bool

	// Clean deletes the pack's collection before ingesting.
	// Ignored on dry runs.
	Clean bool

	// NoSummary disables summarisation regardless of the pack definition.
	NoSummary bool

	// OverridePackID replaces the pack id from the definition.
	OverridePackID string

	// OutputPath writes the processed chunks as JSON before upload.
	OutputPath string
}

// IngestStatus is the outcome of an ingestion run.
type IngestStatus string

// Ingest run statuses.
const (
	IngestStatusRunning IngestStatus = "running"

	// IngestStatusSucceeded means every batch and the registry write succeeded.
	IngestStatusSucceeded IngestStatus = "succeeded"

	// IngestStatusPartial means at least one batch failed after retries.
	IngestStatusPartial IngestStatus = "partial"

	// IngestStatusRegistryFailed means all batches succeeded but the
	// registry could not be written.
	IngestStatusRegistryFailed IngestStatus = "registry_failed"

	IngestStatusFailed IngestStatus = "failed"
	IngestStatusDryRun IngestStatus = "dry_run"
)

// IngestRun records one ingestion of a pack.
type IngestRun struct {
	// ID is the unique identifier for the run.
	ID string `json:"id"`

	// PackID is the pack that was ingested.
	PackID string `json:"pack_id"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended. Zero while running.
	FinishedAt time.Time `json:"finished_at"`

	// Chunks is the number of chunks produced.
	Chunks int `json:"chunks"`

	// Stored is the number of chunks acknowledged by the store.
	Stored int `json:"stored"`

	// Batches is the number of upsert batches.
	Batches int `json:"batches"`

	// FailedBatches is the number of batches that failed after retries.
	FailedBatches int `json:"failed_batches"`

	// Status is the run outcome.
	Status IngestStatus `json:"status"`

	// Error holds the failure message, if any.
	Error string `json:"error,omitempty"`
}

// IngestReport is returned to the caller of an ingestion run.
type IngestReport struct {
	// Run is the recorded run.
	Run IngestRun

	// Chunks are the processed chunks, without embeddings.
	Chunks []Chunk

	// Registry is the entry written after a fully successful run.
	Registry *RegistryEntry
}
