package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driving"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is the number of results kept per task.
const historyRetention = 100

// Scheduler re-ingests packs whose definitions carry a schedule.
type Scheduler struct {
	store    driven.SchedulerStore
	loader   driven.PackLoader
	ingestor driving.Ingestor
	tick     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	inflight map[string]bool
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler. tick is how often due tasks are checked;
// zero means once a minute.
func NewScheduler(
	store driven.SchedulerStore,
	loader driven.PackLoader,
	ingestor driving.Ingestor,
	tick time.Duration,
) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{
		store:    store,
		loader:   loader,
		ingestor: ingestor,
		tick:     tick,
		now:      time.Now,
		inflight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()
	return nil
}

// Register creates or updates the re-ingestion task for a pack.
// A pack without a schedule disables any existing task.
func (s *Scheduler) Register(ctx context.Context, configPath string, pack domain.PackConfig) error {
	if pack.PackID == "" {
		return fmt.Errorf("%w: pack id is required", domain.ErrInvalidInput)
	}
	if pack.Schedule < 0 {
		return fmt.Errorf("%w: schedule must not be negative", domain.ErrConfig)
	}

	id := domain.IngestTaskID(pack.PackID)
	task, err := s.store.Task(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	if task == nil {
		task = &domain.ScheduledTask{
			ID:      id,
			Name:    "Re-ingest " + pack.PackID,
			NextRun: now.Add(pack.Schedule),
		}
	} else if task.Interval != pack.Schedule {
		// Recalculate next run from now
		task.NextRun = now.Add(pack.Schedule)
	}
	task.ConfigPath = configPath
	task.Interval = pack.Schedule
	task.Enabled = pack.Schedule > 0

	return s.store.SaveTask(ctx, task)
}

// Tasks returns all registered tasks.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	return s.store.Tasks(ctx)
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.Tasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for n := range tasks {
		if tasks[n].IsDue(now) {
			s.runTask(ctx, tasks[n])
		}
	}
}

// runTask executes a single task unless it is already running.
func (s *Scheduler) runTask(ctx context.Context, task domain.ScheduledTask) {
	s.mu.Lock()
	if s.inflight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inflight[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: s.now(),
		}

		run, err := s.reingest(ctx, &task)
		result.RunID = run.ID
		result.Chunks = run.Stored
		result.EndedAt = s.now()
		if err != nil {
			logger.Error("scheduler: task %s failed: %v", task.ID, err)
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		// Persist even when ctx is cancelled mid-run
		saveCtx := context.WithoutCancel(ctx)
		if err := s.store.SaveTask(saveCtx, &task); err != nil {
			logger.Error("scheduler: failed to save task %s: %v", task.ID, err)
		}
		if err := s.store.RecordResult(saveCtx, result); err != nil {
			logger.Error("scheduler: failed to record result for %s: %v", task.ID, err)
		}
		if err := s.store.PruneHistory(saveCtx, historyRetention); err != nil {
			logger.Error("scheduler: failed to prune history: %v", err)
		}
	}()
}

// reingest reloads the pack definition and runs a full ingestion.
func (s *Scheduler) reingest(ctx context.Context, task *domain.ScheduledTask) (domain.IngestRun, error) {
	packID, ok := domain.PackIDFromTaskID(task.ID)
	if !ok {
		return domain.IngestRun{}, fmt.Errorf("unknown task id %q", task.ID)
	}

	pack, err := s.loader.Load(task.ConfigPath)
	if err != nil {
		return domain.IngestRun{}, fmt.Errorf("load %s: %w", task.ConfigPath, err)
	}
	if pack.PackID != packID {
		return domain.IngestRun{}, fmt.Errorf("%w: %s now defines pack %q, expected %q",
			domain.ErrConfig, task.ConfigPath, pack.PackID, packID)
	}

	logger.Info("scheduler: re-ingesting %s", packID)
	report, err := s.ingestor.Ingest(ctx, *pack, domain.IngestOptions{})
	if errors.Is(err, domain.ErrIngestInProgress) {
		logger.Info("scheduler: %s already ingesting; skipped", packID)
		return domain.IngestRun{}, nil
	}
	if report == nil {
		return domain.IngestRun{}, err
	}
	return report.Run, err
}
