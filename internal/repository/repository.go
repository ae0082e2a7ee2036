package repository

import (
	"context"
	"errors"
	"time"

	"waterscribe/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// ScheduledTaskRepository stores scheduled tasks.
type ScheduledTaskRepository interface {
	// Insert persists a new task and fills task.ID.
	Insert(ctx context.Context, task *model.ScheduledTask) error

	// Get returns the task or ErrNotFound.
	Get(ctx context.Context, id uint) (*model.ScheduledTask, error)

	// ListActive returns active tasks, soonest due first, ties by id.
	ListActive(ctx context.Context) ([]model.ScheduledTask, error)

	// UpdateActive writes fields to the task only while it is still active.
	// It reports whether a row was changed.
	UpdateActive(ctx context.Context, id uint, fields map[string]interface{}) (bool, error)

	// Delete removes the task. Missing ids are not an error.
	Delete(ctx context.Context, id uint) error

	// CountDueBy counts active tasks with next_due <= deadline.
	CountDueBy(ctx context.Context, deadline time.Time) (int64, error)
}

// MaintenanceLogRepository is the append-only maintenance history.
type MaintenanceLogRepository interface {
	// Append persists the entry and fills entry.ID.
	Append(ctx context.Context, entry *model.MaintenanceLogEntry) error

	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.MaintenanceLogEntry, error)

	// CountSince counts entries logged at or after since.
	CountSince(ctx context.Context, since time.Time) (int64, error)
}

// Transactor runs fn with repositories bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tasks ScheduledTaskRepository, logs MaintenanceLogRepository) error) error
}

// WaterParameterRepository stores water test readings.
type WaterParameterRepository interface {
	Create(ctx context.Context, reading *model.WaterParameter) error
	ListRecent(ctx context.Context, limit int) ([]model.WaterParameter, error)
	Latest(ctx context.Context) (*model.WaterParameter, error)
	Delete(ctx context.Context, id uint) error
}

// FishRepository stores the tank inventory.
type FishRepository interface {
	Create(ctx context.Context, fish *model.Fish) error
	List(ctx context.Context) ([]model.Fish, error)
	Delete(ctx context.Context, id uint) error
	TotalQuantity(ctx context.Context) (int64, error)
}
