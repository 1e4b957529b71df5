package domain

import (
	"strings"
	"time"
)

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// ConfigPath is the pack definition re-ingested by the task.
	ConfigPath string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// IsDue reports whether the task should run at now.
func (t *ScheduledTask) IsDue(now time.Time) bool {
	return t.Enabled && t.Interval > 0 && !now.Before(t.NextRun)
}

// TaskResult is the outcome of one scheduled re-ingestion.
type TaskResult struct {
	TaskID    string
	RunID     string // ingest run id, empty when the run never started
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string
	Chunks    int // chunks stored by the run
}

// TaskIDPrefixIngest prefixes the ids of pack re-ingestion tasks.
const TaskIDPrefixIngest = "ingest:"

// IngestTaskID returns the scheduler task id for a pack.
func IngestTaskID(packID string) string {
	return TaskIDPrefixIngest + packID
}

// PackIDFromTaskID extracts the pack id from an ingest task id.
func PackIDFromTaskID(taskID string) (string, bool) {
	if !strings.HasPrefix(taskID, TaskIDPrefixIngest) {
		return "", false
	}
	return strings.TrimPrefix(taskID, TaskIDPrefixIngest), true
}
