package models

import (
	"time"

	"gorm.io/gorm"
)

// Schedule places a course in a weekly (day, period) slot.
type Schedule struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	TeacherID uint           `gorm:"not null;index" json:"teacher_id"`
	DayOfWeek int            `gorm:"not null;index:idx_schedule_slot" json:"day_of_week"`
	Period    int            `gorm:"not null;index:idx_schedule_slot" json:"period"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Course    Course         `json:"course"`
}
