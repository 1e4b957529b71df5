package driving

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// DownloadService serves resumable, cursor-ordered reads of a pack.
// It is stateless; the session lives in the client-held cursor.
type DownloadService interface {
	// Download returns one page strictly after cursor (nil means start).
	// Invalid limits return domain.ErrInvalidInput and unknown packs
	// return domain.ErrNotFound.
	Download(ctx context.Context, packID string, cursor *string, limit int) (*domain.DownloadPage, error)
}

// CatalogService exposes the pack registry.
type CatalogService interface {
	// List returns registry entries for every pack.
	List(ctx context.Context) ([]domain.RegistryEntry, error)

	// Get returns the entry for one pack or domain.ErrNotFound.
	Get(ctx context.Context, packID string) (*domain.RegistryEntry, error)

	// Refresh recomputes the entry from the stored chunks.
	Refresh(ctx context.Context, packID string) (*domain.RegistryEntry, error)

	// Remove deletes the pack's collection and its registry entry.
	Remove(ctx context.Context, packID string) error
}

// PackSync pulls packs from a remote server into the local store.
type PackSync interface {
	// Pull pages the remote pack into the local store, resuming from the
	// last acknowledged cursor.
	Pull(ctx context.Context, packID string, limit int) (*PullResult, error)

	// State returns the saved pull state, or nil when none exists.
	State(ctx context.Context, packID string) (*domain.SyncState, error)

	// Reset discards saved pull state so the next pull starts over.
	Reset(ctx context.Context, packID string) error
}

// PullResult summarises one pull.
type PullResult struct {
	// PackID is the pulled pack.
	PackID string

	// Pages is the number of pages fetched.
	Pages int

	// Stored is the number of chunks stored locally.
	Stored int

	// Resumed reports whether the pull continued a previous session.
	Resumed bool

	// Complete reports whether the remote signalled the end of the pack.
	Complete bool
}
