package service

import (
	"context"
	"strings"

	"waterscribe/internal/model"
	"waterscribe/internal/repository"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ClampLimit maps a requested page size onto [1, MaxListLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// MaintenanceService records direct user log entries.
type MaintenanceService struct {
	logs  repository.MaintenanceLogRepository
	clock Clock
}

func NewMaintenanceService(logs repository.MaintenanceLogRepository, clock Clock) *MaintenanceService {
	if clock == nil {
		clock = SystemClock
	}
	return &MaintenanceService{logs: logs, clock: clock}
}

// MaintenanceInput is a user-entered log entry. Completed defaults to true.
type MaintenanceInput struct {
	TaskType    string
	Description string
	Completed   *bool
}

func (s *MaintenanceService) Log(ctx context.Context, input MaintenanceInput) (*model.MaintenanceLogEntry, error) {
	taskType := strings.TrimSpace(input.TaskType)
	if taskType == "" {
		return nil, missing("taskType", "Task type is required")
	}
	entry := model.MaintenanceLogEntry{
		Timestamp:   s.clock.Now(),
		TaskType:    taskType,
		Description: strings.TrimSpace(input.Description),
		Completed:   input.Completed == nil || *input.Completed,
	}
	if err := s.logs.Append(ctx, &entry); err != nil {
		return nil, storageErr("log maintenance", err)
	}
	return &entry, nil
}

func (s *MaintenanceService) Recent(ctx context.Context, limit int) ([]model.MaintenanceLogEntry, error) {
	entries, err := s.logs.ListRecent(ctx, ClampLimit(limit))
	if err != nil {
		return nil, storageErr("list maintenance", err)
	}
	return entries, nil
}

// ReadingService stores water test results.
type ReadingService struct {
	readings repository.WaterParameterRepository
	clock    Clock
}

func NewReadingService(readings repository.WaterParameterRepository, clock Clock) *ReadingService {
	if clock == nil {
		clock = SystemClock
	}
	return &ReadingService{readings: readings, clock: clock}
}

// ReadingInput carries the measured values; nil means not tested.
type ReadingInput struct {
	Temperature *float64
	PH          *float64
	Ammonia     *float64
	Nitrite     *float64
	Nitrate     *float64
	Notes       string
}

func (s *ReadingService) Record(ctx context.Context, input ReadingInput) (*model.WaterParameter, error) {
	for _, c := range []struct {
		field string
		value *float64
	}{
		{"ammonia", input.Ammonia},
		{"nitrite", input.Nitrite},
		{"nitrate", input.Nitrate},
	} {
		if c.value != nil && *c.value < 0 {
			return nil, malformed(c.field, c.field+" cannot be negative")
		}
	}
	if input.PH != nil && (*input.PH < 0 || *input.PH > 14) {
		return nil, malformed("ph", "pH must be between 0 and 14")
	}
	reading := model.WaterParameter{
		Timestamp:   s.clock.Now(),
		Temperature: input.Temperature,
		PH:          input.PH,
		Ammonia:     input.Ammonia,
		Nitrite:     input.Nitrite,
		Nitrate:     input.Nitrate,
		Notes:       strings.TrimSpace(input.Notes),
	}
	if err := s.readings.Create(ctx, &reading); err != nil {
		return nil, storageErr("record reading", err)
	}
	return &reading, nil
}

func (s *ReadingService) Recent(ctx context.Context, limit int) ([]model.WaterParameter, error) {
	readings, err := s.readings.ListRecent(ctx, ClampLimit(limit))
	if err != nil {
		return nil, storageErr("list readings", err)
	}
	return readings, nil
}

func (s *ReadingService) Delete(ctx context.Context, id uint) error {
	if err := s.readings.Delete(ctx, id); err != nil {
		return storageErr("delete reading", err)
	}
	return nil
}

// InventoryService keeps the fish list.
type InventoryService struct {
	fish  repository.FishRepository
	clock Clock
}

func NewInventoryService(fish repository.FishRepository, clock Clock) *InventoryService {
	if clock == nil {
		clock = SystemClock
	}
	return &InventoryService{fish: fish, clock: clock}
}

// FishInput describes stock being added. Quantity defaults to 1.
type FishInput struct {
	Species    string
	CommonName string
	Quantity   *int
	Notes      string
}

func (s *InventoryService) Add(ctx context.Context, input FishInput) (*model.Fish, error) {
	species := strings.TrimSpace(input.Species)
	if species == "" {
		return nil, missing("species", "Species is required")
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}
	if quantity < 1 {
		return nil, malformed("quantity", "Quantity must be at least 1")
	}
	fish := model.Fish{
		Species:    species,
		CommonName: strings.TrimSpace(input.CommonName),
		Quantity:   quantity,
		AddedDate:  s.clock.Now(),
		Notes:      strings.TrimSpace(input.Notes),
	}
	if err := s.fish.Create(ctx, &fish); err != nil {
		return nil, storageErr("add fish", err)
	}
	return &fish, nil
}

func (s *InventoryService) List(ctx context.Context) ([]model.Fish, error) {
	fish, err := s.fish.List(ctx)
	if err != nil {
		return nil, storageErr("list fish", err)
	}
	return fish, nil
}

func (s *InventoryService) Remove(ctx context.Context, id uint) error {
	if err := s.fish.Delete(ctx, id); err != nil {
		return storageErr("remove fish", err)
	}
	return nil
}
