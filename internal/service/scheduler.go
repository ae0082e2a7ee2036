package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"waterscribe/internal/model"
	"waterscribe/internal/repository"
)

const (
	// DefaultCompletionLabel names the log entry when the caller gives none.
	DefaultCompletionLabel = "Scheduled Task"
	completionNote         = "Completed scheduled task"
)

// CompletionResult is what a successful Complete changed.
type CompletionResult struct {
	Task  model.ScheduledTask
	Entry model.MaintenanceLogEntry
}

// Scheduler owns the recurring / one-time task lifecycle.
type Scheduler struct {
	tasks repository.ScheduledTaskRepository
	tx    repository.Transactor
	clock Clock
	log   zerolog.Logger
}

func NewScheduler(tasks repository.ScheduledTaskRepository, tx repository.Transactor, clock Clock, log zerolog.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	return &Scheduler{tasks: tasks, tx: tx, clock: clock, log: log.With().Str("component", "scheduler").Logger()}
}

// Create validates input and persists a new active task.
func (s *Scheduler) Create(ctx context.Context, input CreateTaskInput) (*model.ScheduledTask, error) {
	task, err := ValidateCreate(input, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Insert(ctx, &task); err != nil {
		return nil, storageErr("create task", err)
	}
	s.log.Info().Uint("task_id", task.ID).Bool("recurring", task.IsRecurring).
		Time("next_due", task.NextDue).Msg("task scheduled")
	return &task, nil
}

// Get fetches a task by id.
func (s *Scheduler) Get(ctx context.Context, id uint) (*model.ScheduledTask, error) {
	task, err := s.tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Entity: "task", ID: id}
		}
		return nil, storageErr("get task", err)
	}
	return task, nil
}

// ListActive returns live tasks, soonest due first.
func (s *Scheduler) ListActive(ctx context.Context) ([]model.ScheduledTask, error) {
	tasks, err := s.tasks.ListActive(ctx)
	if err != nil {
		return nil, storageErr("list tasks", err)
	}
	return tasks, nil
}

// Complete marks the task done and appends one maintenance entry in the same
// transaction. Recurring tasks are rescheduled from now using their stored
// frequency; one-time tasks are retired.
//
// It returns *NotFoundError for unknown ids and ErrTaskInactive for a
// one-time task that was already completed. Neither writes anything.
func (s *Scheduler) Complete(ctx context.Context, id uint, displayName string) (*CompletionResult, error) {
	now := s.clock.Now()
	label := strings.TrimSpace(displayName)
	if label == "" {
		label = DefaultCompletionLabel
	}

	var result CompletionResult
	err := s.tx.WithinTx(ctx, func(tasks repository.ScheduledTaskRepository, logs repository.MaintenanceLogRepository) error {
		task, err := tasks.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return &NotFoundError{Entity: "task", ID: id}
			}
			return storageErr("get task", err)
		}
		if !task.Active {
			return ErrTaskInactive
		}

		fields, err := completionFields(task, now)
		if err != nil {
			return err
		}
		changed, err := tasks.UpdateActive(ctx, id, fields)
		if err != nil {
			return storageErr("update task", err)
		}
		if !changed {
			// Retired by a concurrent completion since the read above.
			return ErrTaskInactive
		}
		applyCompletion(task, fields)

		entry := model.MaintenanceLogEntry{
			Timestamp:   now,
			TaskType:    label,
			Description: completionNote,
			Completed:   true,
		}
		if err := logs.Append(ctx, &entry); err != nil {
			return storageErr("append maintenance entry", err)
		}

		result = CompletionResult{Task: *task, Entry: entry}
		return nil
	})
	if err != nil {
		if IsSwallowable(err) {
			s.log.Debug().Uint("task_id", id).Err(err).Msg("completion skipped")
			return nil, err
		}
		s.log.Error().Uint("task_id", id).Err(err).Msg("completion failed")
		return nil, storageErr("complete task", err)
	}

	s.log.Info().Uint("task_id", id).Bool("recurring", result.Task.IsRecurring).
		Bool("active", result.Task.Active).Uint("log_id", result.Entry.ID).Msg("task completed")
	return &result, nil
}

// Delete removes the task. History in the maintenance log is kept.
func (s *Scheduler) Delete(ctx context.Context, id uint) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return storageErr("delete task", err)
	}
	s.log.Info().Uint("task_id", id).Msg("task deleted")
	return nil
}

// completionFields computes the columns a completion writes. The branch is
// chosen by the stored IsRecurring flag.
func completionFields(task *model.ScheduledTask, now time.Time) (map[string]interface{}, error) {
	if !task.IsRecurring {
		return map[string]interface{}{
			"last_completed": now,
			"active":         false,
		}, nil
	}
	if task.FrequencyDays == nil || *task.FrequencyDays <= 0 {
		return nil, storageErr("complete task", errors.New("recurring task has no stored frequency"))
	}
	return map[string]interface{}{
		"last_completed": now,
		"next_due":       AddDays(now, *task.FrequencyDays),
	}, nil
}

func applyCompletion(task *model.ScheduledTask, fields map[string]interface{}) {
	if v, ok := fields["last_completed"].(time.Time); ok {
		task.LastCompleted = &v
	}
	if v, ok := fields["next_due"].(time.Time); ok {
		task.NextDue = v
	}
	if v, ok := fields["active"].(bool); ok {
		task.Active = v
	}
}
