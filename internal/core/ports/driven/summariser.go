package driven

import "context"

// Summariser condenses chunk text with a language model.
// This is an optional service - when nil, raw chunk text is embedded.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
type Summariser interface {
	// Summarise condenses text to roughly maxWords words.
	// Failures wrap domain.ErrSummarisationFailure.
	Summarise(ctx context.Context, text string, opts SummariseOptions) (string, error)

	// ModelName returns the default model.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// SummariseOptions configures a single summary.
type SummariseOptions struct {
	// MaxWords is the target length.
	MaxWords int

	// Model overrides the service's default model when set.
	Model string

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
