package model

import "time"

// MaintenanceLogEntry is an append-only record of a finished care action.
type MaintenanceLogEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time `gorm:"index" json:"timestamp"`
	TaskType    string    `gorm:"not null" json:"taskType"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
}

func (MaintenanceLogEntry) TableName() string { return "maintenance_log" }
