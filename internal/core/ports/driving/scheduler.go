package driving

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// Scheduler re-ingests packs on their configured interval.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Register adds or updates the re-ingestion task for a pack definition.
	Register(ctx context.Context, configPath string, pack domain.PackConfig) error

	// Tasks returns all registered tasks.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)
}
