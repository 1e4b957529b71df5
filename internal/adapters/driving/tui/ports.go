// Package tui provides an interactive terminal browser for context packs.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
// Only Catalog is required; views backed by a nil port show a notice.
type Ports struct {
	// Catalog lists and manages registry entries.
	Catalog driving.CatalogService

	// Download pages through pack chunks.
	Download driving.DownloadService

	// Search runs similarity search within a pack.
	Search driving.SearchService

	// Settings exposes the effective settings.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}
