package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"waterscribe/internal/model"
)

type gormFishRepository struct {
	db *gorm.DB
}

// NewFishRepository creates a gorm-backed FishRepository.
func NewFishRepository(db *gorm.DB) FishRepository {
	return &gormFishRepository{db: db}
}

func (r *gormFishRepository) Create(ctx context.Context, fish *model.Fish) error {
	fish.AddedDate = storedTime(fish.AddedDate)
	if err := r.db.WithContext(ctx).Create(fish).Error; err != nil {
		return fmt.Errorf("create fish: %w", err)
	}
	return nil
}

func (r *gormFishRepository) List(ctx context.Context) ([]model.Fish, error) {
	var fish []model.Fish
	if err := r.db.WithContext(ctx).Order("added_date DESC, id DESC").Find(&fish).Error; err != nil {
		return nil, fmt.Errorf("list fish: %w", err)
	}
	return fish, nil
}

func (r *gormFishRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Fish{}).Error; err != nil {
		return fmt.Errorf("delete fish: %w", err)
	}
	return nil
}

func (r *gormFishRepository) TotalQuantity(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Fish{}).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum fish quantity: %w", err)
	}
	return total, nil
}
