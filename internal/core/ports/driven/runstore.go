package driven

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// IngestRunStore persists ingestion history.
type IngestRunStore interface {
	// SaveRun stores or updates a run.
	SaveRun(ctx context.Context, run domain.IngestRun) error

	// ListRuns returns recent runs for a pack, most recent first.
	ListRuns(ctx context.Context, packID string, limit int) ([]domain.IngestRun, error)
}
