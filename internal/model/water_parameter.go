package model

import "time"

// WaterParameter is a single water test reading. Unmeasured values stay nil.
type WaterParameter struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time `gorm:"index" json:"timestamp"`
	Temperature *float64  `json:"temperature"`
	PH          *float64  `gorm:"column:ph" json:"ph"`
	Ammonia     *float64  `json:"ammonia"`
	Nitrite     *float64  `json:"nitrite"`
	Nitrate     *float64  `json:"nitrate"`
	Notes       string    `json:"notes,omitempty"`
}

func (WaterParameter) TableName() string { return "water_parameters" }
