package driven

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// SyncStateStore persists pull progress.
type SyncStateStore interface {
	// Save stores or updates sync state.
	Save(ctx context.Context, state domain.SyncState) error

	// Get retrieves sync state by key (see domain.SyncKey).
	// Returns nil and no error if no state exists.
	Get(ctx context.Context, key string) (*domain.SyncState, error)

	// Delete removes sync state.
	Delete(ctx context.Context, key string) error
}

// PackClient reads packs from a remote server's download API.
type PackClient interface {
	// Download fetches one page strictly after cursor.
	Download(ctx context.Context, packID, cursor string, limit int) (*domain.DownloadPage, error)

	// GetPack fetches the registry entry for a pack.
	GetPack(ctx context.Context, packID string) (*domain.RegistryEntry, error)
}
