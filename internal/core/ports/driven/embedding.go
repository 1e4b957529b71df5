package driven

import "context"

// EmbeddingService turns chunk text and search queries into vectors. The
// ingestor embeds every chunk before upload and search embeds the query, so
// both must use the same model for scores to mean anything.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order. Transient
	// failures wrap domain.ErrEmbeddingFailure; rejected input also wraps
	// domain.ErrInvalidInput.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, used when a store creates a collection.
	Dimensions() int

	// ModelName is echoed into registry metadata.
	ModelName() string

	// Ping checks reachability and credentials without embedding anything.
	Ping(ctx context.Context) error

	Close() error
}
