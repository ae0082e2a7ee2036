package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"waterscribe/internal/model"
)

type gormScheduledTaskRepository struct {
	db *gorm.DB
}

// NewScheduledTaskRepository creates a gorm-backed ScheduledTaskRepository.
func NewScheduledTaskRepository(db *gorm.DB) ScheduledTaskRepository {
	return &gormScheduledTaskRepository{db: db}
}

func (r *gormScheduledTaskRepository) Insert(ctx context.Context, task *model.ScheduledTask) error {
	task.NextDue = storedTime(task.NextDue)
	task.LastCompleted = storedTimePtr(task.LastCompleted)
	task.SpecificDate = storedTimePtr(task.SpecificDate)
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("insert scheduled task: %w", err)
	}
	return nil
}

func (r *gormScheduledTaskRepository) Get(ctx context.Context, id uint) (*model.ScheduledTask, error) {
	var task model.ScheduledTask
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	switch {
	case err == nil:
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("get scheduled task: %w", err)
	}
}

func (r *gormScheduledTaskRepository) ListActive(ctx context.Context) ([]model.ScheduledTask, error) {
	var tasks []model.ScheduledTask
	if err := r.db.WithContext(ctx).Where("active = ?", true).
		Order("next_due ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	return tasks, nil
}

func (r *gormScheduledTaskRepository) UpdateActive(ctx context.Context, id uint, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.ScheduledTask{}).
		Where("id = ? AND active = ?", id, true).
		Updates(storedFields(fields))
	if res.Error != nil {
		return false, fmt.Errorf("update scheduled task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes a task regardless of it being recurring or not.
func (r *gormScheduledTaskRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).
		Delete(&model.ScheduledTask{}).Error; err != nil {
		return fmt.Errorf("delete scheduled task: %w", err)
	}
	return nil
}

func (r *gormScheduledTaskRepository) CountDueBy(ctx context.Context, deadline time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ScheduledTask{}).
		Where("active = ? AND next_due <= ?", true, storedTime(deadline)).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count due tasks: %w", err)
	}
	return count, nil
}
