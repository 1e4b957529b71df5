package domain

import (
	"sort"
	"time"
)

// TopicStat is the number of chunks sharing a topic.
type TopicStat struct {
	Name          string `json:"name"`
	DocumentCount int    `json:"document_count"`
}

// RegistryEntry is the aggregate record for one pack. It is always
// recomputed from the stored chunks, never adjusted in place.
type RegistryEntry struct {
	// PackID identifies the pack.
	PackID string `json:"pack_id"`

	// TotalDocuments is the number of chunks retrievable for the pack.
	TotalDocuments int `json:"total_documents"`

	// Topics is ordered by name.
	Topics []TopicStat `json:"topics"`

	// SourceURLs is sorted and holds no duplicates.
	SourceURLs []string `json:"source_urls"`

	// Metadata echoes the pack configuration used for the last ingest.
	Metadata map[string]any `json:"metadata"`

	// LastIngestedAt is when the most recent successful ingestion finished.
	LastIngestedAt time.Time `json:"last_ingested_at"`
}

// RegistryBuilder accumulates chunks into a RegistryEntry.
// The zero value is not usable; call NewRegistryBuilder.
type RegistryBuilder struct {
	packID string
	total  int
	topics map[string]int
	urls   map[string]struct{}
}

// NewRegistryBuilder creates a builder for the given pack.
func NewRegistryBuilder(packID string) *RegistryBuilder {
	return &RegistryBuilder{
		packID: packID,
		topics: make(map[string]int),
		urls:   make(map[string]struct{}),
	}
}

// Add counts one chunk.
func (b *RegistryBuilder) Add(c *Chunk) {
	b.total++
	b.topics[c.Topic()]++
	if u := c.SourceURL(); u != "" {
		b.urls[u] = struct{}{}
	}
}

// Count returns the number of chunks added so far.
func (b *RegistryBuilder) Count() int {
	return b.total
}

// Build returns the entry. Topics and source URLs are sorted.
func (b *RegistryBuilder) Build(metadata map[string]any, ingestedAt time.Time) RegistryEntry {
	topics := make([]TopicStat, 0, len(b.topics))
	for name, count := range b.topics {
		topics = append(topics, TopicStat{Name: name, DocumentCount: count})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })

	urls := make([]string, 0, len(b.urls))
	for u := range b.urls {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	if metadata == nil {
		metadata = map[string]any{}
	}
	return RegistryEntry{
		PackID:         b.packID,
		TotalDocuments: b.total,
		Topics:         topics,
		SourceURLs:     urls,
		Metadata:       metadata,
		LastIngestedAt: ingestedAt.UTC(),
	}
}
