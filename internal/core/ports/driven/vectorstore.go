package driven

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// VectorStore is the capability the core needs from a similarity-search store.
// Any store that honours these three operations and the scan ordering
// guarantee can back a pack.
//
// Implementations must not retry internally. Transient failures are reported
// as domain.ErrStoreUnavailable and credential failures as domain.ErrStoreAuth;
// retry policy belongs to the caller.
type VectorStore interface {
	// Upsert inserts or overwrites chunks keyed by DocumentID.
	// Safe to call concurrently for disjoint ids and safe to retry.
	// The collection is created on first use.
	Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error

	// Scan returns up to limit chunks strictly after cursor in a fixed total
	// order. An empty cursor starts from the beginning. The next cursor is the
	// store-native id of the last returned chunk, or "" when fewer than limit
	// chunks were returned. A missing collection returns domain.ErrNotFound.
	Scan(ctx context.Context, collection, cursor string, limit int) ([]domain.Chunk, string, error)

	// DeleteCollection irreversibly removes every chunk in the collection.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, collection string) error

	// Close releases resources.
	Close() error
}

// VectorSearcher is implemented by stores that can run similarity queries.
type VectorSearcher interface {
	// Search returns the k chunks most similar to the query vector, best first.
	// A missing collection returns domain.ErrNotFound.
	Search(ctx context.Context, collection string, query []float32, k int) ([]VectorHit, error)
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk. Its embedding may be omitted.
	Chunk domain.Chunk

	// Score is the cosine similarity.
	Score float64
}
