package model

import "time"

// ScheduledTask is a care task that is either recurring (FrequencyDays) or
// one-time (SpecificDate). NextDue is a cached projection of those fields.
type ScheduledTask struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TaskName      string     `gorm:"not null" json:"taskName"`
	FrequencyDays *int       `json:"frequencyDays"`
	LastCompleted *time.Time `json:"lastCompleted"`
	NextDue       time.Time  `gorm:"index" json:"nextDue"`
	Description   string     `json:"description,omitempty"`
	Active        bool       `gorm:"index" json:"active"`
	IsRecurring   bool       `json:"isRecurring"`
	SpecificDate  *time.Time `json:"specificDate"`
}

func (ScheduledTask) TableName() string { return "scheduled_tasks" }

// DueWithin reports whether the task is due at or before now+window.
// Overdue tasks count as due.
func (t ScheduledTask) DueWithin(now time.Time, window time.Duration) bool {
	return !t.NextDue.After(now.Add(window))
}
