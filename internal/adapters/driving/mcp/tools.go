package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// ListPacksInput is the (empty) input schema for the list_packs tool.
type ListPacksInput struct{}

// ListPacksOutput is the output schema for the list_packs tool.
type ListPacksOutput struct {
	Packs []PackSummary `json:"packs"`
	Count int           `json:"count"`
}

// PackSummary is the condensed registry view returned by list_packs.
type PackSummary struct {
	PackID         string   `json:"pack_id"`
	TotalDocuments int      `json:"total_documents"`
	Topics         []string `json:"topics"`
	LastIngestedAt string   `json:"last_ingested_at"`
}

// PackDetail is the full registry entry returned by get_pack.
type PackDetail struct {
	PackID         string             `json:"pack_id"`
	TotalDocuments int                `json:"total_documents"`
	Topics         []domain.TopicStat `json:"topics"`
	SourceURLs     []string           `json:"source_urls"`
	Metadata       map[string]any     `json:"metadata"`
	LastIngestedAt string             `json:"last_ingested_at"`
}

// PackInput selects a pack.
type PackInput struct {
	PackID string `json:"pack_id" jsonschema:"identifier of the context pack"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	PackID string `json:"pack_id" jsonschema:"identifier of the context pack to search"`
	Query  string `json:"query" jsonschema:"natural language query"`
	TopK   int    `json:"top_k,omitempty" jsonschema:"number of results between 1 and 50 (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []domain.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// DownloadInput is the input schema for the download_page tool.
type DownloadInput struct {
	PackID string `json:"pack_id" jsonschema:"identifier of the context pack"`
	Offset string `json:"offset,omitempty" jsonschema:"next_offset from the previous page; omit for the first page"`
	Limit  int    `json:"limit,omitempty" jsonschema:"page size between 1 and 500 (default 50)"`
}

// DownloadOutput is one page of chunks without embeddings.
type DownloadOutput struct {
	PackID     string        `json:"pack_id"`
	NextOffset string        `json:"next_offset,omitempty"`
	Done       bool          `json:"done"`
	Items      []ChunkOutput `json:"items"`
}

// ChunkOutput is a stored chunk. Embeddings are left out because assistants
// cannot use raw vectors.
type ChunkOutput struct {
	DocumentID string         `json:"document_id"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_packs",
		Description: "List the available context packs with document counts and topics",
	}, s.handleListPacks)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_pack",
		Description: "Show the registry entry of one context pack",
	}, s.handleGetPack)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "download_page",
		Description: "Read one page of chunks from a context pack in document id order",
	}, s.handleDownload)

	if s.ports.Search != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "search",
			Description: "Find the chunks of a context pack most similar to a query",
		}, s.handleSearch)
	}
}

func (s *Server) handleListPacks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListPacksInput,
) (*mcp.CallToolResult, ListPacksOutput, error) {
	entries, err := s.ports.Catalog.List(ctx)
	if err != nil {
		return nil, ListPacksOutput{}, err
	}

	out := ListPacksOutput{
		Packs: make([]PackSummary, len(entries)),
		Count: len(entries),
	}
	for i := range entries {
		topics := make([]string, len(entries[i].Topics))
		for j, t := range entries[i].Topics {
			topics[j] = t.Name
		}
		out.Packs[i] = PackSummary{
			PackID:         entries[i].PackID,
			TotalDocuments: entries[i].TotalDocuments,
			Topics:         topics,
			LastIngestedAt: formatTime(entries[i].LastIngestedAt),
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetPack(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PackInput,
) (*mcp.CallToolResult, PackDetail, error) {
	entry, err := s.ports.Catalog.Get(ctx, input.PackID)
	if err != nil {
		return nil, PackDetail{}, err
	}
	return nil, PackDetail{
		PackID:         entry.PackID,
		TotalDocuments: entry.TotalDocuments,
		Topics:         entry.Topics,
		SourceURLs:     entry.SourceURLs,
		Metadata:       entry.Metadata,
		LastIngestedAt: formatTime(entry.LastIngestedAt),
	}, nil
}

func (s *Server) handleDownload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DownloadInput,
) (*mcp.CallToolResult, DownloadOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = domain.DefaultDownloadLimit
	}
	var cursor *string
	if input.Offset != "" {
		cursor = &input.Offset
	}

	page, err := s.ports.Download.Download(ctx, input.PackID, cursor, limit)
	if err != nil {
		return nil, DownloadOutput{}, err
	}

	out := DownloadOutput{
		PackID: page.PackID,
		Done:   page.Done(),
		Items:  make([]ChunkOutput, len(page.Items)),
	}
	if page.NextOffset != nil {
		out.NextOffset = *page.NextOffset
	}
	for i, item := range page.Items {
		out.Items[i] = ChunkOutput{
			DocumentID: item.DocumentID,
			Text:       item.Text,
			Metadata:   item.Metadata,
		}
	}
	return nil, out, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Search.Search(ctx, input.PackID, input.Query, input.TopK)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return nil, SearchOutput{Results: results, Count: len(results)}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
