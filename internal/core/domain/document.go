package domain

// Chunk is the atomic unit of knowledge stored in a pack.
type Chunk struct {
	// DocumentID is unique within a pack and derived from
	// (pack_id, source_index, chunk_index). See MakeDocumentID.
	DocumentID string

	// Text is the chunk content, or its summary when summarisation is enabled.
	Text string

	// Metadata holds scalar values merged from pack defaults, source
	// overrides and system fields.
	Metadata map[string]any

	// Embedding is the vector representation of Text.
	// Empty until the chunk has been embedded.
	Embedding []float32
}

// Topic returns the chunk's topic metadata, or DefaultTopic when unset.
func (c *Chunk) Topic() string {
	return metadataString(c.Metadata, MetaTopic, DefaultTopic)
}

// SourceURL returns the chunk's source_url metadata, or "" when unset.
func (c *Chunk) SourceURL() string {
	return metadataString(c.Metadata, MetaSourceURL, "")
}

// SourceDocument is cleaned text fetched from a pack source.
type SourceDocument struct {
	// Index is the position of the source in the pack definition.
	Index int

	// URL is the final location the text was read from.
	URL string

	// Title is the configured source title, or the discovered one.
	Title string

	// Metadata holds the source-specific overrides from the pack definition.
	Metadata map[string]any

	// Text is the extracted plain text.
	Text string
}

// DocumentInput is a pre-chunked document submitted directly to a pack.
type DocumentInput struct {
	DocumentID string         `json:"document_id"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata"`
}
