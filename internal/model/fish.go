package model

import "time"

// Fish is one stocked species line in the tank inventory.
type Fish struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Species    string    `gorm:"not null" json:"species"`
	CommonName string    `json:"commonName,omitempty"`
	Quantity   int       `json:"quantity"`
	AddedDate  time.Time `gorm:"index" json:"addedDate"`
	Notes      string    `json:"notes,omitempty"`
}

func (Fish) TableName() string { return "fish_inventory" }
