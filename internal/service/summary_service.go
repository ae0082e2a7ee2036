package service

import (
	"context"
	"errors"
	"time"

	"waterscribe/internal/model"
	"waterscribe/internal/repository"
)

// Summary is the dashboard snapshot.
type Summary struct {
	LatestParameters  *model.WaterParameter `json:"latestParameters"`
	UpcomingTasks     int64                 `json:"upcomingTasks"`
	TotalFish         int64                 `json:"totalFish"`
	RecentMaintenance int64                 `json:"recentMaintenance"`
}

// SummaryService aggregates read-only counts. Due-ness is evaluated against
// the clock at read time.
type SummaryService struct {
	tasks    repository.ScheduledTaskRepository
	logs     repository.MaintenanceLogRepository
	readings repository.WaterParameterRepository
	fish     repository.FishRepository
	clock    Clock

	dueSoon time.Duration
	recent  time.Duration
}

func NewSummaryService(
	tasks repository.ScheduledTaskRepository,
	logs repository.MaintenanceLogRepository,
	readings repository.WaterParameterRepository,
	fish repository.FishRepository,
	clock Clock,
	dueSoon, recent time.Duration,
) *SummaryService {
	if clock == nil {
		clock = SystemClock
	}
	return &SummaryService{tasks: tasks, logs: logs, readings: readings, fish: fish, clock: clock, dueSoon: dueSoon, recent: recent}
}

// DueSoonWindow is the look-ahead used for upcoming tasks.
func (s *SummaryService) DueSoonWindow() time.Duration {
	return s.dueSoon
}

// RecentWindow bounds the recent maintenance count.
func (s *SummaryService) RecentWindow() time.Duration {
	return s.recent
}

func (s *SummaryService) Stats(ctx context.Context) (*Summary, error) {
	now := s.clock.Now()
	var summary Summary

	latest, err := s.readings.Latest(ctx)
	switch {
	case err == nil:
		summary.LatestParameters = latest
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, storageErr("latest reading", err)
	}

	if summary.UpcomingTasks, err = s.tasks.CountDueBy(ctx, now.Add(s.dueSoon)); err != nil {
		return nil, storageErr("count upcoming tasks", err)
	}
	if summary.TotalFish, err = s.fish.TotalQuantity(ctx); err != nil {
		return nil, storageErr("count fish", err)
	}
	if summary.RecentMaintenance, err = s.logs.CountSince(ctx, now.Add(-s.recent)); err != nil {
		return nil, storageErr("count maintenance", err)
	}
	return &summary, nil
}
