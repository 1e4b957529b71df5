package domain

import (
	"context"
	"errors"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid client input.
	// Callers must not retry these.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfig indicates a malformed pack definition or settings.
	// It is always raised before any I/O takes place.
	ErrConfig = errors.New("configuration error")

	// ErrIngestInProgress indicates the pack is already being ingested.
	ErrIngestInProgress = errors.New("ingest in progress")

	// ErrPartialIngest indicates some batches of an ingest run failed.
	// Successful batches stay stored; the registry is not advanced.
	ErrPartialIngest = errors.New("partial ingest")

	// Store Errors.

	// ErrStoreUnavailable indicates the vector store could not be reached
	// or failed transiently. It is retryable.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreAuth indicates the vector store rejected the credentials.
	ErrStoreAuth = errors.New("store authentication failed")

	// AI Errors.

	// ErrEmbeddingFailure indicates the embedder failed for a batch.
	// It is treated like a store failure for that batch.
	ErrEmbeddingFailure = errors.New("embedding failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSummarisationFailure indicates the summariser failed.
	// Ingestion falls back to the raw chunk text.
	ErrSummarisationFailure = errors.New("summarisation failed")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Summarisation is disabled.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrSearchUnavailable indicates the configured store cannot run similarity queries.
	ErrSearchUnavailable = errors.New("search unavailable")
)

// IsRetryable reports whether an operation that failed with err may succeed
// if attempted again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreAuth) || errors.Is(err, ErrConfig) || errors.Is(err, ErrInvalidInput) {
		return false
	}
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrEmbeddingFailure) ||
		errors.Is(err, context.DeadlineExceeded)
}
