package models

import (
	"time"

	"gorm.io/gorm"
)

// Assignment represents gradable work that belongs to a course.
type Assignment struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CourseID      uint           `gorm:"not null;index" json:"course_id"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	MaxPoints     float64        `gorm:"not null" json:"max_points"`
	IsExtraCredit bool           `gorm:"not null;default:false" json:"is_extra_credit"`
	LatePenalty   float64        `gorm:"not null;default:0" json:"late_penalty"`
	DueDate       *time.Time     `json:"due_date"`
	FileURL       string         `gorm:"size:512" json:"file_url"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Submissions   []Submission   `json:"submissions"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueDate != nil && reference.After(*a.DueDate)
}
