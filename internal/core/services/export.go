package services

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// exportedChunk is the on-disk shape of a processed chunk.
type exportedChunk struct {
	DocumentID        string         `json:"document_id"`
	Text              string         `json:"text"`
	Metadata          map[string]any `json:"metadata"`
	OriginalCharCount any            `json:"original_char_count"`
}

// writeChunks writes processed chunks to path as an indented JSON array.
func writeChunks(path string, chunks []domain.Chunk) error {
	out := make([]exportedChunk, len(chunks))
	for n, c := range chunks {
		out[n] = exportedChunk{
			DocumentID:        c.DocumentID,
			Text:              c.Text,
			Metadata:          c.Metadata,
			OriginalCharCount: c.Metadata[domain.MetaOriginalCharCount],
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
