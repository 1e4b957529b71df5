package driven

import (
	"context"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// SchedulerStore keeps re-ingestion tasks and their run history so schedules
// survive restarts.
type SchedulerStore interface {
	// Task returns nil and no error when the task does not exist.
	Task(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// Tasks returns every task ordered by id.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask inserts or replaces a task.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// DeleteTask removes a task and its history.
	DeleteTask(ctx context.Context, taskID string) error

	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// History returns up to limit results for a task, newest first.
	History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps the newest keep results of each task.
	PruneHistory(ctx context.Context, keep int) error
}
