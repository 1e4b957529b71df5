// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the pack search view.
	ViewSearch
	// ViewPacks lists the packs in the registry.
	ViewPacks
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewPackDetail shows the registry entry for one pack.
	ViewPackDetail
	// ViewChunks pages through the chunks of a pack.
	ViewChunks
	// ViewChunk shows a single chunk.
	ViewChunk
	// ViewSettings shows the effective settings.
	ViewSettings
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewPacks:
		return "packs"
	case ViewHelp:
		return "help"
	case ViewPackDetail:
		return "pack_detail"
	case ViewChunks:
		return "chunks"
	case ViewChunk:
		return "chunk"
	case ViewSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// PacksLoaded carries the registry entries from the catalog.
type PacksLoaded struct {
	Packs []domain.RegistryEntry
	Err   error
}

// PackSelected signals a pack was chosen from the list.
type PackSelected struct {
	Pack domain.RegistryEntry
}

// PackRefreshed carries a recomputed registry entry.
type PackRefreshed struct {
	Pack *domain.RegistryEntry
	Err  error
}

// PackRemoved signals a pack was deleted.
type PackRemoved struct {
	PackID string
	Err    error
}

// BrowseRequested asks the app to open the chunk browser for a pack.
type BrowseRequested struct {
	PackID string
}

// SearchRequested asks the app to open the search view scoped to a pack.
type SearchRequested struct {
	PackID string
}

// PageLoaded carries one download page.
// Cursor is the offset the page was requested with.
type PageLoaded struct {
	PackID string
	Cursor *string
	Page   *domain.DownloadPage
	Err    error
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	PackID  string
	Query   string
	Results []domain.SearchResult
	Elapsed time.Duration
	Err     error
}

// ChunkSelected opens a chunk in the viewer. From is the view to return to.
type ChunkSelected struct {
	PackID     string
	DocumentID string
	Text       string
	Metadata   map[string]any
	From       ViewType
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}
