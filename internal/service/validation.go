package service

import (
	"strings"
	"time"

	"waterscribe/internal/model"
)

// CreateTaskInput is the transport-neutral request to schedule a task.
type CreateTaskInput struct {
	TaskName string
	// IsRecurring defaults to true when nil.
	IsRecurring   *bool
	FrequencyDays *int
	SpecificDate  string
	Description   string
}

// dateLayouts are tried in order. Layouts without an offset are read as
// local time.
var dateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate accepts RFC3339 and the ISO-8601 forms a date picker sends.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AddDays advances t by whole days using wall-clock arithmetic.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// ValidateCreate turns input into a task ready to insert, or a
// *ValidationError. It never writes anything.
func ValidateCreate(input CreateTaskInput, now time.Time) (model.ScheduledTask, error) {
	name := strings.TrimSpace(input.TaskName)
	if name == "" {
		return model.ScheduledTask{}, missing("taskName", "Task name is required")
	}

	recurring := input.IsRecurring == nil || *input.IsRecurring
	if recurring {
		return validateRecurring(name, input, now)
	}
	return validateOneTime(name, input)
}

func validateRecurring(name string, input CreateTaskInput, now time.Time) (model.ScheduledTask, error) {
	if input.FrequencyDays == nil || *input.FrequencyDays == 0 {
		return model.ScheduledTask{}, missing("frequencyDays", "Frequency is required for recurring tasks")
	}
	days := *input.FrequencyDays
	if days < 0 {
		return model.ScheduledTask{}, malformed("frequencyDays", "Frequency must be a positive number of days")
	}
	return model.ScheduledTask{
		TaskName:      name,
		IsRecurring:   true,
		FrequencyDays: &days,
		NextDue:       AddDays(now, days),
		Description:   strings.TrimSpace(input.Description),
		Active:        true,
	}, nil
}

func validateOneTime(name string, input CreateTaskInput) (model.ScheduledTask, error) {
	if strings.TrimSpace(input.SpecificDate) == "" {
		return model.ScheduledTask{}, missing("specificDate", "Date is required for one-time tasks")
	}
	date, ok := ParseDate(input.SpecificDate)
	if !ok {
		return model.ScheduledTask{}, malformed("specificDate", "Invalid date format")
	}
	return model.ScheduledTask{
		TaskName:     name,
		IsRecurring:  false,
		SpecificDate: &date,
		NextDue:      date,
		Description:  strings.TrimSpace(input.Description),
		Active:       true,
	}, nil
}
