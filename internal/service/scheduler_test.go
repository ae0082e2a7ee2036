package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"waterscribe/internal/model"
	"waterscribe/internal/repository"
)

var t0 = time.Date(2026, 2, 7, 10, 30, 0, 0, time.UTC)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type schedulerFixture struct {
	db    *gorm.DB
	clock *manualClock
	tasks repository.ScheduledTaskRepository
	logs  repository.MaintenanceLogRepository
	sched *Scheduler
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	db, err := repository.NewDB("sqlite", filepath.Join(t.TempDir(), "aquarium.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &schedulerFixture{
		db:    db,
		clock: &manualClock{now: t0},
		tasks: repository.NewScheduledTaskRepository(db),
		logs:  repository.NewMaintenanceLogRepository(db),
	}
	f.sched = NewScheduler(f.tasks, repository.NewTransactor(db), f.clock, zerolog.Nop())
	return f
}

func (f *schedulerFixture) countRows(t *testing.T) (tasks, logs int64) {
	t.Helper()
	require.NoError(t, f.db.Model(&model.ScheduledTask{}).Count(&tasks).Error)
	require.NoError(t, f.db.Model(&model.MaintenanceLogEntry{}).Count(&logs).Error)
	return tasks, logs
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func TestRecurringTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	task, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Water Change 25%", IsRecurring: boolPtr(true), FrequencyDays: intPtr(7)})
	require.NoError(t, err)
	assert.NotZero(t, task.ID)
	assert.True(t, task.Active)
	assert.Nil(t, task.LastCompleted)
	assert.True(t, task.NextDue.Equal(t0.AddDate(0, 0, 7)))

	_, logs := f.countRows(t)
	assert.Zero(t, logs)

	t1 := t0.Add(3*24*time.Hour + 2*time.Hour)
	f.clock.Set(t1)

	res, err := f.sched.Complete(ctx, task.ID, "Water Change 25%")
	require.NoError(t, err)
	assert.True(t, res.Task.Active)
	require.NotNil(t, res.Task.LastCompleted)
	assert.True(t, res.Task.LastCompleted.Equal(t1))
	assert.True(t, res.Task.NextDue.Equal(t1.AddDate(0, 0, 7)))
	assert.Equal(t, "Water Change 25%", res.Entry.TaskType)
	assert.Equal(t, "Completed scheduled task", res.Entry.Description)
	assert.True(t, res.Entry.Completed)

	stored, err := f.sched.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.True(t, stored.NextDue.Equal(t1.AddDate(0, 0, 7)))
	require.NotNil(t, stored.LastCompleted)
	assert.True(t, stored.LastCompleted.Equal(t1))

	entries, err := f.logs.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Timestamp.Equal(t1))
}

func TestRecurringCompletionUsesStoredFrequency(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	task, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Clean Filter Media", FrequencyDays: intPtr(14)})
	require.NoError(t, err)
	assert.True(t, task.IsRecurring, "isRecurring defaults to true")

	// Late completions never drift: the next due date is always from now.
	for _, offset := range []int{20, 21, 50} {
		now := t0.AddDate(0, 0, offset)
		f.clock.Set(now)
		res, err := f.sched.Complete(ctx, task.ID, "")
		require.NoError(t, err)
		assert.True(t, res.Task.NextDue.Equal(now.AddDate(0, 0, 14)))
		assert.Equal(t, DefaultCompletionLabel, res.Entry.TaskType)
	}

	_, logs := f.countRows(t)
	assert.EqualValues(t, 3, logs)
}

func TestOneTimeTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	target := t0.AddDate(0, 0, 21)
	task, err := f.sched.Create(ctx, CreateTaskInput{
		TaskName:     "QT First Group",
		IsRecurring:  boolPtr(false),
		SpecificDate: target.Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.False(t, task.IsRecurring)
	assert.Nil(t, task.FrequencyDays)
	assert.True(t, task.NextDue.Equal(target))
	require.NotNil(t, task.SpecificDate)
	assert.True(t, task.SpecificDate.Equal(target))

	t2 := t0.AddDate(0, 0, 19)
	f.clock.Set(t2)
	res, err := f.sched.Complete(ctx, task.ID, "QT First Group")
	require.NoError(t, err)
	assert.False(t, res.Task.Active)
	require.NotNil(t, res.Task.LastCompleted)
	assert.True(t, res.Task.LastCompleted.Equal(t2))
	assert.True(t, res.Task.NextDue.Equal(target), "next due is frozen on retirement")

	active, err := f.sched.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	// A second completion is rejected and logs nothing.
	f.clock.Set(t2.Add(time.Hour))
	_, err = f.sched.Complete(ctx, task.ID, "QT First Group")
	assert.ErrorIs(t, err, ErrTaskInactive)
	assert.True(t, IsSwallowable(err))

	stored, err := f.sched.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastCompleted.Equal(t2))

	_, logs := f.countRows(t)
	assert.EqualValues(t, 1, logs)
}

func TestCompleteUnknownTask(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	_, err := f.sched.Complete(ctx, 404, "Ghost")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.EqualValues(t, 404, nf.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.True(t, IsSwallowable(err))

	tasks, logs := f.countRows(t)
	assert.Zero(t, tasks)
	assert.Zero(t, logs)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		input  CreateTaskInput
		field  string
		reason ValidationReason
	}{
		{name: "no name", input: CreateTaskInput{TaskName: "  ", FrequencyDays: intPtr(7)}, field: "taskName", reason: ReasonMissing},
		{name: "recurring without frequency", input: CreateTaskInput{TaskName: "Water Test", IsRecurring: boolPtr(true)}, field: "frequencyDays", reason: ReasonMissing},
		{name: "recurring zero frequency", input: CreateTaskInput{TaskName: "Water Test", FrequencyDays: intPtr(0)}, field: "frequencyDays", reason: ReasonMissing},
		{name: "recurring negative frequency", input: CreateTaskInput{TaskName: "Water Test", FrequencyDays: intPtr(-3)}, field: "frequencyDays", reason: ReasonMalformed},
		{name: "one-time without date", input: CreateTaskInput{TaskName: "Add Ember Tetras", IsRecurring: boolPtr(false), FrequencyDays: intPtr(7)}, field: "specificDate", reason: ReasonMissing},
		{name: "one-time blank date", input: CreateTaskInput{TaskName: "Add Ember Tetras", IsRecurring: boolPtr(false), SpecificDate: "   "}, field: "specificDate", reason: ReasonMissing},
		{name: "one-time bad date", input: CreateTaskInput{TaskName: "Add Ember Tetras", IsRecurring: boolPtr(false), SpecificDate: "next tuesday"}, field: "specificDate", reason: ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSchedulerFixture(t)
			_, err := f.sched.Create(context.Background(), tt.input)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, tt.reason, ve.Reason)

			tasks, logs := f.countRows(t)
			assert.Zero(t, tasks)
			assert.Zero(t, logs)
		})
	}
}

func TestListActiveOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	weekly, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Weekly Water Test", FrequencyDays: intPtr(7)})
	require.NoError(t, err)
	daily, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Late Cycling Test", FrequencyDays: intPtr(1)})
	require.NoError(t, err)
	algae, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Algae Cleaning", FrequencyDays: intPtr(7)})
	require.NoError(t, err)
	once, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Buy test kit", IsRecurring: boolPtr(false), SpecificDate: "2026-02-08"})
	require.NoError(t, err)

	_, err = f.sched.Complete(ctx, once.ID, "")
	require.NoError(t, err)

	active, err := f.sched.ListActive(ctx)
	require.NoError(t, err)
	ids := make([]uint, 0, len(active))
	for _, task := range active {
		assert.True(t, task.Active)
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []uint{daily.ID, weekly.ID, algae.ID}, ids)
}

func TestListActiveOrdersMixedOffsetsByInstant(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	// 05:00Z, written with a +05:00 offset
	early, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "QT First Group", IsRecurring: boolPtr(false), SpecificDate: "2030-01-01T10:00:00+05:00"})
	require.NoError(t, err)
	late, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Add Ember Tetras", IsRecurring: boolPtr(false), SpecificDate: "2030-01-01T08:00:00Z"})
	require.NoError(t, err)

	active, err := f.sched.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, []uint{early.ID, late.ID}, []uint{active[0].ID, active[1].ID})
	assert.True(t, active[0].NextDue.Equal(time.Date(2030, 1, 1, 5, 0, 0, 0, time.UTC)))

	due, err := f.tasks.CountDueBy(ctx, time.Date(2030, 1, 1, 11, 0, 0, 0, time.FixedZone("UTC+5", 5*60*60)))
	require.NoError(t, err)
	assert.EqualValues(t, 1, due)
}

func TestDeleteKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	task, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Check Equipment", FrequencyDays: intPtr(7)})
	require.NoError(t, err)
	_, err = f.sched.Complete(ctx, task.ID, "Check Equipment")
	require.NoError(t, err)

	require.NoError(t, f.sched.Delete(ctx, task.ID))
	require.NoError(t, f.sched.Delete(ctx, task.ID))

	_, err = f.sched.Get(ctx, task.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	tasks, logs := f.countRows(t)
	assert.Zero(t, tasks)
	assert.EqualValues(t, 1, logs)
}

type failingLogs struct {
	repository.MaintenanceLogRepository
	err error
}

func (l failingLogs) Append(context.Context, *model.MaintenanceLogEntry) error {
	return l.err
}

type failingAppendTx struct {
	inner repository.Transactor
	err   error
}

func (f failingAppendTx) WithinTx(ctx context.Context, fn func(repository.ScheduledTaskRepository, repository.MaintenanceLogRepository) error) error {
	return f.inner.WithinTx(ctx, func(tasks repository.ScheduledTaskRepository, logs repository.MaintenanceLogRepository) error {
		return fn(tasks, failingLogs{MaintenanceLogRepository: logs, err: f.err})
	})
}

func TestCompleteIsAtomicOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	task, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Water Change 25%", FrequencyDays: intPtr(7)})
	require.NoError(t, err)

	diskFull := errors.New("disk I/O error")
	broken := NewScheduler(f.tasks, failingAppendTx{inner: repository.NewTransactor(f.db), err: diskFull}, f.clock, zerolog.Nop())

	f.clock.Set(t0.AddDate(0, 0, 2))
	_, err = broken.Complete(ctx, task.ID, "Water Change 25%")
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, diskFull)
	assert.False(t, IsSwallowable(err))

	stored, err := f.sched.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastCompleted, "task update must roll back with the failed log append")
	assert.True(t, stored.NextDue.Equal(t0.AddDate(0, 0, 7)))

	_, logs := f.countRows(t)
	assert.Zero(t, logs)
}

func TestConcurrentOneTimeCompletionLogsOnce(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	task, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "QT Second Group", IsRecurring: boolPtr(false), SpecificDate: "2026-03-01T09:00"})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.sched.Complete(ctx, task.ID, "QT Second Group")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrTaskInactive)
	}
	assert.Equal(t, 1, succeeded)

	_, logs := f.countRows(t)
	assert.EqualValues(t, 1, logs)
}

func TestConcurrentRecurringCompletionLogsEachApplied(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture(t)

	task, err := f.sched.Create(ctx, CreateTaskInput{TaskName: "Redose Ammonia", FrequencyDays: intPtr(3)})
	require.NoError(t, err)

	const workers = 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sched.Complete(ctx, task.ID, "Redose Ammonia")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.sched.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.True(t, stored.NextDue.Equal(t0.AddDate(0, 0, 3)))

	_, logs := f.countRows(t)
	assert.EqualValues(t, workers, logs)
}
