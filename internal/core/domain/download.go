package domain

import "fmt"

// Download page size bounds.
const (
	DefaultDownloadLimit = 50
	MaxDownloadLimit     = 500
)

// DownloadItem is one chunk as returned to clients.
type DownloadItem struct {
	DocumentID string         `json:"document_id"`
	Text       string         `json:"text"`
	Embedding  []float32      `json:"embedding"`
	Metadata   map[string]any `json:"metadata"`
}

// DownloadPage is one page of a pack download.
// Offset echoes the input cursor. NextOffset is nil once the pack is exhausted.
type DownloadPage struct {
	PackID     string         `json:"pack_id"`
	Limit      int            `json:"limit"`
	Offset     *string        `json:"offset"`
	NextOffset *string        `json:"next_offset"`
	Items      []DownloadItem `json:"items"`
}

// Done reports whether the page is the last of the session.
func (p *DownloadPage) Done() bool {
	return p.NextOffset == nil
}

// ValidateDownloadLimit rejects page sizes outside 1..MaxDownloadLimit.
func ValidateDownloadLimit(limit int) error {
	if limit < 1 || limit > MaxDownloadLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d, got %d", ErrInvalidInput, MaxDownloadLimit, limit)
	}
	return nil
}

// ItemFromChunk converts a stored chunk into a download item.
func ItemFromChunk(c Chunk) DownloadItem {
	meta := c.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	emb := c.Embedding
	if emb == nil {
		emb = []float32{}
	}
	return DownloadItem{
		DocumentID: c.DocumentID,
		Text:       c.Text,
		Embedding:  emb,
		Metadata:   meta,
	}
}
