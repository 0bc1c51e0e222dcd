package models

import (
	"time"

	"gorm.io/gorm"
)

// Term is an academic semester window bounding course validity.
type Term struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:128;not null" json:"name"`
	StartsAt  time.Time      `gorm:"not null" json:"starts_at"`
	EndsAt    time.Time      `gorm:"not null" json:"ends_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Contains reports whether the instant falls inside the term window.
func (t Term) Contains(at time.Time) bool {
	return !at.Before(t.StartsAt) && !at.After(t.EndsAt)
}
