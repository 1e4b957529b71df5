package domain

import "fmt"

// System metadata keys set on every chunk by the ingestor.
const (
	MetaSourceURL         = "source_url"
	MetaSourceTitle       = "source_title"
	MetaChunkIndex        = "chunk_index"
	MetaOriginalCharCount = "original_char_count"

	// MetaTopic is read when grouping chunks into registry topics.
	MetaTopic = "topic"
)

// DefaultTopic is used for chunks without a topic.
const DefaultTopic = "unspecified"

// MergeMetadata merges metadata layers in order. Later layers take precedence,
// so callers pass pack defaults, then source overrides, then system fields.
// Nil layers are skipped and the inputs are never modified.
func MergeMetadata(layers ...map[string]any) map[string]any {
	size := 0
	for _, l := range layers {
		size += len(l)
	}
	merged := make(map[string]any, size)
	for _, l := range layers {
		for k, v := range l {
			merged[k] = v
		}
	}
	return merged
}

// SystemMetadata builds the system-derived metadata layer for one chunk.
func SystemMetadata(src *SourceDocument, chunkIndex, originalChars int) map[string]any {
	return map[string]any{
		MetaSourceURL:         src.URL,
		MetaSourceTitle:       src.Title,
		MetaChunkIndex:        chunkIndex,
		MetaOriginalCharCount: originalChars,
	}
}

func metadataString(m map[string]any, key, fallback string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if s == "" {
		return fallback
	}
	return s
}
