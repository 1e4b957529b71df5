package domain

import "fmt"

// Search result bounds.
const (
	DefaultTopK = 5
	MaxTopK     = 50
)

// SearchResult is a single similarity hit within a pack.
type SearchResult struct {
	DocumentID string         `json:"document_id"`
	Text       string         `json:"text"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata"`
}

// ValidateTopK rejects result counts outside 1..MaxTopK.
func ValidateTopK(topK int) error {
	if topK < 1 || topK > MaxTopK {
		return fmt.Errorf("%w: top_k must be between 1 and %d, got %d", ErrInvalidInput, MaxTopK, topK)
	}
	return nil
}
