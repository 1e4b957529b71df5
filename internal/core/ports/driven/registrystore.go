package driven

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// RegistryStore persists pack registry entries, one per pack.
// Entries are replaced whole; the store never merges fields.
type RegistryStore interface {
	// Save stores or replaces the entry for entry.PackID.
	Save(ctx context.Context, entry domain.RegistryEntry) error

	// Get retrieves the entry for a pack.
	// Returns domain.ErrNotFound when the pack has no entry.
	Get(ctx context.Context, packID string) (*domain.RegistryEntry, error)

	// List returns every entry ordered by pack id.
	List(ctx context.Context) ([]domain.RegistryEntry, error)

	// Delete removes the entry for a pack. Missing entries are ignored.
	Delete(ctx context.Context, packID string) error
}
