package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"waterscribe/internal/model"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB("sqlite", filepath.Join(t.TempDir(), "nested", "aquarium.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func intPtr(v int) *int { return &v }

func TestScheduledTaskListActiveOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledTaskRepository(openTestDB(t))

	tasks := []*model.ScheduledTask{
		{TaskName: "Clean Filter Media", FrequencyDays: intPtr(14), NextDue: base.Add(14 * 24 * time.Hour), Active: true, IsRecurring: true},
		{TaskName: "Water Change 25%", FrequencyDays: intPtr(7), NextDue: base.Add(7 * 24 * time.Hour), Active: true, IsRecurring: true},
		{TaskName: "Weekly Water Test", FrequencyDays: intPtr(7), NextDue: base.Add(7 * 24 * time.Hour), Active: true, IsRecurring: true},
		{TaskName: "Retired", NextDue: base, Active: false, IsRecurring: false},
	}
	for _, task := range tasks {
		require.NoError(t, repo.Insert(ctx, task))
		assert.NotZero(t, task.ID)
	}

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []uint{tasks[1].ID, tasks[2].ID, tasks[0].ID}, []uint{active[0].ID, active[1].ID, active[2].ID})
	for _, task := range active {
		assert.True(t, task.Active)
	}
}

func TestScheduledTaskMixedOffsetsKeepInstantOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledTaskRepository(openTestDB(t))

	plus5 := time.FixedZone("UTC+5", 5*60*60)
	minus3 := time.FixedZone("UTC-3", -3*60*60)
	plus9 := time.FixedZone("UTC+9", 9*60*60)

	a := &model.ScheduledTask{TaskName: "QT First Group", NextDue: time.Date(2030, 1, 1, 10, 0, 0, 0, plus5), Active: true}
	b := &model.ScheduledTask{TaskName: "Add Ember Tetras", NextDue: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC), Active: true}
	c := &model.ScheduledTask{TaskName: "Check Equipment", NextDue: time.Date(2030, 1, 1, 6, 0, 0, 0, minus3), Active: true}
	for _, task := range []*model.ScheduledTask{a, b, c} {
		require.NoError(t, repo.Insert(ctx, task))
	}

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []uint{a.ID, b.ID, c.ID}, []uint{active[0].ID, active[1].ID, active[2].ID})

	count, err := repo.CountDueBy(ctx, time.Date(2030, 1, 1, 12, 0, 0, 0, plus5))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	changed, err := repo.UpdateActive(ctx, c.ID, map[string]interface{}{"next_due": time.Date(2030, 1, 1, 13, 0, 0, 0, plus9)})
	require.NoError(t, err)
	require.True(t, changed)

	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []uint{c.ID, a.ID, b.ID}, []uint{active[0].ID, active[1].ID, active[2].ID})
	assert.True(t, active[0].NextDue.Equal(time.Date(2030, 1, 1, 4, 0, 0, 0, time.UTC)))
}

func TestScheduledTaskGetMissing(t *testing.T) {
	repo := NewScheduledTaskRepository(openTestDB(t))
	_, err := repo.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScheduledTaskUpdateActiveOnlyTouchesActiveRows(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledTaskRepository(openTestDB(t))

	task := &model.ScheduledTask{TaskName: "QT First Group", NextDue: base, Active: true, SpecificDate: &base}
	require.NoError(t, repo.Insert(ctx, task))

	changed, err := repo.UpdateActive(ctx, task.ID, map[string]interface{}{"active": false, "last_completed": base})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.UpdateActive(ctx, task.ID, map[string]interface{}{"last_completed": base.Add(time.Hour)})
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := repo.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.False(t, got.IsRecurring)
	require.NotNil(t, got.LastCompleted)
	assert.True(t, got.LastCompleted.Equal(base))
}

func TestScheduledTaskDeleteAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledTaskRepository(openTestDB(t))

	soon := &model.ScheduledTask{TaskName: "Algae Cleaning", FrequencyDays: intPtr(3), NextDue: base.Add(3 * 24 * time.Hour), Active: true, IsRecurring: true}
	later := &model.ScheduledTask{TaskName: "Clean Filter Media", FrequencyDays: intPtr(14), NextDue: base.Add(14 * 24 * time.Hour), Active: true, IsRecurring: true}
	require.NoError(t, repo.Insert(ctx, soon))
	require.NoError(t, repo.Insert(ctx, later))

	count, err := repo.CountDueBy(ctx, base.Add(7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, repo.Delete(ctx, soon.ID))
	require.NoError(t, repo.Delete(ctx, 9999))

	_, err = repo.Get(ctx, soon.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaintenanceLogNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMaintenanceLogRepository(openTestDB(t))

	for i, name := range []string{"Water Change", "Filter Rinse", "Glass Scrape"} {
		entry := &model.MaintenanceLogEntry{Timestamp: base.Add(time.Duration(i) * time.Hour), TaskType: name, Completed: true}
		require.NoError(t, repo.Append(ctx, entry))
	}

	entries, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Glass Scrape", entries[0].TaskType)
	assert.Equal(t, "Filter Rinse", entries[1].TaskType)

	count, err := repo.CountSince(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestMaintenanceLogMixedOffsets(t *testing.T) {
	ctx := context.Background()
	repo := NewMaintenanceLogRepository(openTestDB(t))

	early := &model.MaintenanceLogEntry{Timestamp: time.Date(2030, 1, 1, 10, 0, 0, 0, time.FixedZone("UTC+5", 5*60*60)), TaskType: "Water Change", Completed: true}
	late := &model.MaintenanceLogEntry{Timestamp: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC), TaskType: "Filter Rinse", Completed: true}
	require.NoError(t, repo.Append(ctx, early))
	require.NoError(t, repo.Append(ctx, late))

	entries, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Filter Rinse", entries[0].TaskType)

	count, err := repo.CountSince(ctx, time.Date(2030, 1, 1, 15, 0, 0, 0, time.FixedZone("UTC+9", 9*60*60)))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestTransactorRollsBackBothWrites(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	tasks := NewScheduledTaskRepository(db)
	logs := NewMaintenanceLogRepository(db)

	task := &model.ScheduledTask{TaskName: "Water Change 25%", FrequencyDays: intPtr(7), NextDue: base, Active: true, IsRecurring: true}
	require.NoError(t, tasks.Insert(ctx, task))

	boom := errors.New("boom")
	err := NewTransactor(db).WithinTx(ctx, func(txTasks ScheduledTaskRepository, txLogs MaintenanceLogRepository) error {
		if _, err := txTasks.UpdateActive(ctx, task.ID, map[string]interface{}{"next_due": base.Add(time.Hour)}); err != nil {
			return err
		}
		if err := txLogs.Append(ctx, &model.MaintenanceLogEntry{Timestamp: base, TaskType: "Water Change 25%", Completed: true}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := tasks.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.NextDue.Equal(base))

	entries, err := logs.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWaterParameterLatestAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewWaterParameterRepository(openTestDB(t))

	_, err := repo.Latest(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	ph := 7.2
	first := &model.WaterParameter{Timestamp: base, PH: &ph}
	ammonia := 0.25
	second := &model.WaterParameter{Timestamp: base.Add(time.Hour), Ammonia: &ammonia, Notes: "after dosing"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Nil(t, latest.PH)

	require.NoError(t, repo.Delete(ctx, second.ID))
	readings, err := repo.ListRecent(ctx, 50)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	require.NotNil(t, readings[0].PH)
	assert.InDelta(t, 7.2, *readings[0].PH, 1e-9)
}

func TestFishTotalQuantity(t *testing.T) {
	ctx := context.Background()
	repo := NewFishRepository(openTestDB(t))

	total, err := repo.TotalQuantity(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	require.NoError(t, repo.Create(ctx, &model.Fish{Species: "Corydoras sterbai", Quantity: 8, AddedDate: base}))
	require.NoError(t, repo.Create(ctx, &model.Fish{Species: "Trigonostigma hengeli", Quantity: 25, AddedDate: base.Add(time.Hour)}))

	total, err = repo.TotalQuantity(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 33, total)

	fish, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, fish, 2)
	assert.Equal(t, "Trigonostigma hengeli", fish[0].Species)
}
