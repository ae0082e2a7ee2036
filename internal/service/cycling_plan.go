package service

import (
	"context"

	"github.com/rs/zerolog"
)

// PlannedTask is one recurring entry of a seeded schedule.
type PlannedTask struct {
	Name          string
	FrequencyDays int
	Description   string
}

// CycleStartLabel is the log entry recorded on day one of a fishless cycle.
const CycleStartLabel = "Cycle Start - Day 1"

const cycleStartNote = "Added FritzZyme 7 (5 oz) + Fritz Ammonium Chloride (1.25 tsp to 2-4 ppm). " +
	"Temperature set to 78-80°F. Filter and sponge filter running 24/7."

// CyclingPlan is the fishless cycling and stocking schedule for a 50 gallon
// tank, grouped the way it is imported.
func CyclingPlan() []PlannedTask {
	return []PlannedTask{
		// cycling tests
		{"Water Test - Early Cycling (Days 4-21)", 3, "Test: Ammonia, Nitrite, Nitrate, KH, pH. " +
			"Watch for nitrites to appear (usually days 7-10). " +
			"When ammonia drops to 0-0.25 ppm, redose to 2-4 ppm."},
		{"Water Test - Late Cycling (Days 21-35+)", 1, "Daily testing once ammonia and nitrites start dropping. " +
			"Watch for nitrite spike (can be very high - normal). " +
			"If nitrites exceed 5 ppm, do 50% water change."},
		{"Redose Ammonia (if needed)", 3, "When ammonia drops to 0-0.25 ppm, redose Fritz Ammonium Chloride " +
			"to reach 2-4 ppm. Target: process 2-4 ppm ammonia to 0 in 24 hours."},
		{"Check Nitrite Level", 2, "If nitrites exceed 5 ppm, perform 50% water change. " +
			"High nitrites are normal during cycling but can stall above 5 ppm."},

		// post-cycle
		{"Cycle Completion Check", 1, "Cycle is complete when: " +
			"1) Ammonia processes from 2-4 ppm to 0 within 24 hours, " +
			"2) Nitrite reads 0, " +
			"3) Nitrates are present (5-40 ppm). " +
			"Before adding fish: Do 50% water change to lower nitrates."},

		// stocking
		{"QT First Group - 8 Sterbai Cories", 21, "Quarantine first group of 8 sterbai corydoras for 2-3 weeks before " +
			"adding to main tank. Monitor for diseases and parasites."},
		{"QT Second Group - 8 Sterbai Cories", 21, "Quarantine second group of 8 sterbai corydoras for 2-3 weeks before " +
			"adding to main tank. Wait 1 week after first group before adding."},
		{"Add Ember Tetras", 7, "After both cory groups are established (wait 1 week after second group), " +
			"add 25-30 ember tetras. Monitor water parameters closely."},

		// regular maintenance
		{"Water Change 25%", 7, "Perform 25% water change. Vacuum substrate. " +
			"Match temperature and dechlorinate new water."},
		{"Weekly Water Test", 7, "Test: Ammonia (should be 0), Nitrite (should be 0), " +
			"Nitrate (keep under 20 ppm for sensitive fish), pH, KH."},
		{"Clean Filter Media", 14, "Rinse filter media in old tank water (never tap water). " +
			"Replace chemical media if needed."},
		{"Check Equipment", 7, "Verify heater temperature, filter flow rate, air pump operation. " +
			"Clean intake tubes if needed."},
		{"Algae Cleaning", 7, "Clean algae from glass, decorations, and equipment. " +
			"Some algae is beneficial - don't over-clean."},
	}
}

// SeedCycling logs the day-one entry and schedules every planned task. It
// stops at the first failure; rows written before it are kept.
func SeedCycling(ctx context.Context, scheduler *Scheduler, maintenance *MaintenanceService, plan []PlannedTask, log zerolog.Logger) (int, error) {
	if _, err := maintenance.Log(ctx, MaintenanceInput{TaskType: CycleStartLabel, Description: cycleStartNote}); err != nil {
		return 0, err
	}
	log.Info().Str("task_type", CycleStartLabel).Msg("logged")

	recurring := true
	for i, planned := range plan {
		days := planned.FrequencyDays
		task, err := scheduler.Create(ctx, CreateTaskInput{
			TaskName:      planned.Name,
			IsRecurring:   &recurring,
			FrequencyDays: &days,
			Description:   planned.Description,
		})
		if err != nil {
			return i, err
		}
		log.Info().Uint("task_id", task.ID).Str("task", task.TaskName).Int("every_days", days).Msg("added")
	}
	return len(plan), nil
}
