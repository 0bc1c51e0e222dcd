package models

import (
	"time"

	"gorm.io/gorm"
)

// Course is a class taught by one teacher during one term.
type Course struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Name                string         `gorm:"size:255;not null" json:"name"`
	TeacherID           uint           `gorm:"not null;index" json:"teacher_id"`
	TermID              uint           `gorm:"not null;index" json:"term_id"`
	AttendancePoolScore float64        `gorm:"not null;default:0" json:"attendance_pool_score"`
	Teacher             Teacher        `json:"teacher"`
	Term                Term           `json:"term"`
	Students            []Student      `gorm:"many2many:course_enrollments;" json:"students"`
	Assignments         []Assignment   `json:"assignments"`
	Schedules           []Schedule     `json:"schedules"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasStudent reports whether the student is on the loaded roster.
func (c Course) HasStudent(studentID uint) bool {
	for _, student := range c.Students {
		if student.ID == studentID {
			return true
		}
	}
	return false
}

// StudentIDs returns the identifiers of the loaded roster.
func (c Course) StudentIDs() []uint {
	ids := make([]uint, 0, len(c.Students))
	for _, student := range c.Students {
		ids = append(ids, student.ID)
	}
	return ids
}
