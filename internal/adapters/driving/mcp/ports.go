package mcp

import (
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Catalog exposes registry entries.
	Catalog driving.CatalogService

	// Download serves paged pack reads.
	Download driving.DownloadService

	// Search runs similarity queries. Optional: without an embedding
	// service the search tool is not registered.
	Search driving.SearchService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Catalog == nil || p.Download == nil {
		return ErrMissingService
	}
	return nil
}
