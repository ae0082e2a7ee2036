package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"waterscribe/internal/model"
)

type gormMaintenanceLogRepository struct {
	db *gorm.DB
}

// NewMaintenanceLogRepository creates a gorm-backed MaintenanceLogRepository.
func NewMaintenanceLogRepository(db *gorm.DB) MaintenanceLogRepository {
	return &gormMaintenanceLogRepository{db: db}
}

func (r *gormMaintenanceLogRepository) Append(ctx context.Context, entry *model.MaintenanceLogEntry) error {
	entry.Timestamp = storedTime(entry.Timestamp)
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append maintenance entry: %w", err)
	}
	return nil
}

func (r *gormMaintenanceLogRepository) ListRecent(ctx context.Context, limit int) ([]model.MaintenanceLogEntry, error) {
	var entries []model.MaintenanceLogEntry
	if err := r.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list maintenance entries: %w", err)
	}
	return entries, nil
}

func (r *gormMaintenanceLogRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.MaintenanceLogEntry{}).
		Where("timestamp >= ?", storedTime(since)).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count maintenance entries: %w", err)
	}
	return count, nil
}
