package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

const taskColumns = `id, name, config_path, interval_seconds, last_run, next_run, last_error, last_success, enabled`

// schedulerStore persists pack re-ingestion tasks in the scheduled_tasks and
// task_results tables.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *schedulerStore) Task(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = ?`, taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

func (s *schedulerStore) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY id`)
	if err != nil {
		return nil, storeError("query scheduled tasks", err)
	}
	defer rows.Close()

	tasks := make([]domain.ScheduledTask, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("%w: task id is required", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO scheduled_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Name, task.ConfigPath, int64(task.Interval/time.Second),
		formatNullableTime(task.LastRun), formatNullableTime(task.NextRun),
		nullString(task.LastError), formatNullableTime(task.LastSuccess),
		boolToInt(task.Enabled))
	if err != nil {
		return storeError("save task "+task.ID, err)
	}
	return nil
}

// DeleteTask removes the task and its history in one transaction.
func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin delete task", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM task_results WHERE task_id = ?`,
		`DELETE FROM scheduled_tasks WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, taskID); err != nil {
			return storeError("delete task "+taskID, err)
		}
	}
	return tx.Commit()
}

func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return fmt.Errorf("%w: nil task result", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO task_results (task_id, run_id, started_at, ended_at, success, error, chunks)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.TaskID, nullString(result.RunID),
		formatTime(result.StartedAt), formatTime(result.EndedAt),
		boolToInt(result.Success), nullString(result.Error), result.Chunks)
	if err != nil {
		return storeError("record result for "+result.TaskID, err)
	}
	return nil
}

// History orders by insertion as well as start time so results recorded in
// the same second keep their order.
func (s *schedulerStore) History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT task_id, run_id, started_at, ended_at, success, error, chunks
		FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, taskID, limit)
	if err != nil {
		return nil, storeError("query history for "+taskID, err)
	}
	defer rows.Close()

	var results []domain.TaskResult
	for rows.Next() {
		var (
			r                  domain.TaskResult
			runID, errMsg      sql.NullString
			startedAt, endedAt string
			success            int
		)
		if err := rows.Scan(&r.TaskID, &runID, &startedAt, &endedAt, &success, &errMsg, &r.Chunks); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		r.RunID = runID.String
		r.Error = errMsg.String
		r.StartedAt = parseTime(startedAt)
		r.EndedAt = parseTime(endedAt)
		r.Success = success == 1
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_results
		WHERE id IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY task_id ORDER BY started_at DESC, id DESC
				) AS pos
				FROM task_results
			) WHERE pos > ?
		)`, keep)
	if err != nil {
		return storeError("prune task history", err)
	}
	return nil
}

func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		task                                   domain.ScheduledTask
		seconds                                int64
		lastRun, nextRun, lastErr, lastSuccess sql.NullString
		enabled                                int
	)
	err := row.Scan(&task.ID, &task.Name, &task.ConfigPath, &seconds,
		&lastRun, &nextRun, &lastErr, &lastSuccess, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan scheduled task: %w", err)
	}

	task.Interval = time.Duration(seconds) * time.Second
	task.LastRun = parseNullableTime(lastRun)
	task.NextRun = parseNullableTime(nextRun)
	task.LastError = lastErr.String
	task.LastSuccess = parseNullableTime(lastSuccess)
	task.Enabled = enabled == 1
	return &task, nil
}
