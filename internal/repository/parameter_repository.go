package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"waterscribe/internal/model"
)

type gormWaterParameterRepository struct {
	db *gorm.DB
}

// NewWaterParameterRepository creates a gorm-backed WaterParameterRepository.
func NewWaterParameterRepository(db *gorm.DB) WaterParameterRepository {
	return &gormWaterParameterRepository{db: db}
}

func (r *gormWaterParameterRepository) Create(ctx context.Context, reading *model.WaterParameter) error {
	reading.Timestamp = storedTime(reading.Timestamp)
	if err := r.db.WithContext(ctx).Create(reading).Error; err != nil {
		return fmt.Errorf("create water reading: %w", err)
	}
	return nil
}

func (r *gormWaterParameterRepository) ListRecent(ctx context.Context, limit int) ([]model.WaterParameter, error) {
	var readings []model.WaterParameter
	if err := r.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("list water readings: %w", err)
	}
	return readings, nil
}

// Latest returns the newest reading or ErrNotFound when none exist.
func (r *gormWaterParameterRepository) Latest(ctx context.Context) (*model.WaterParameter, error) {
	var reading model.WaterParameter
	err := r.db.WithContext(ctx).Order("timestamp DESC, id DESC").First(&reading).Error
	switch {
	case err == nil:
		return &reading, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("latest water reading: %w", err)
	}
}

func (r *gormWaterParameterRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).
		Delete(&model.WaterParameter{}).Error; err != nil {
		return fmt.Errorf("delete water reading: %w", err)
	}
	return nil
}
