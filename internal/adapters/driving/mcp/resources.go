package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for ZeroSignal resources.
	uriScheme = "zerosignal://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "packs",
		Name:        "packs",
		Description: "Registry entries of all context packs",
		MIMEType:    "application/json",
	}, s.handlePacksResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "packs/{packId}",
		Name:        "pack",
		Description: "Registry entry of a single context pack",
		MIMEType:    "application/json",
	}, s.handlePackResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "packs/{packId}/text",
		Name:        "pack-text",
		Description: "First page of a context pack as plain text",
		MIMEType:    "text/plain",
	}, s.handlePackTextResource)
}

func (s *Server) handlePacksResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries, err := s.ports.Catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing packs: %w", err)
	}
	if entries == nil {
		entries = []domain.RegistryEntry{}
	}
	return jsonResource(req.Params.URI, entries)
}

func (s *Server) handlePackResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	packID := extractPackID(req.Params.URI, "")
	if packID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entry, err := s.ports.Catalog.Get(ctx, packID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting pack: %w", err)
	}
	return jsonResource(req.Params.URI, entry)
}

// handlePackTextResource renders the first download page, one chunk per
// paragraph headed by its document id.
func (s *Server) handlePackTextResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	packID := extractPackID(req.Params.URI, "/text")
	if packID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	page, err := s.ports.Download.Download(ctx, packID, nil, domain.DefaultDownloadLimit)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading pack: %w", err)
	}

	var b strings.Builder
	for i, item := range page.Items {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n%s", item.DocumentID, item.Text)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     b.String(),
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractPackID extracts the pack ID from a URI like zerosignal://packs/{packId}{suffix}.
func extractPackID(uri, suffix string) string {
	const prefix = uriScheme + "packs/"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
