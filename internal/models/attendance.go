package models

import (
	"time"

	"gorm.io/gorm"
)

// AttendanceStatus enumerates the outcome recorded for a student in a session.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceExcused AttendanceStatus = "EXCUSED"
	// AttendanceSkipped marks a session that did not take place.
	AttendanceSkipped AttendanceStatus = "SKIPPED"
	// AttendancePending marks a session whose attendance was not taken yet.
	AttendancePending AttendanceStatus = "PENDING"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceExcused, AttendanceSkipped, AttendancePending:
		return true
	default:
		return false
	}
}

// Attendance is one record per (course, student, date, period).
type Attendance struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	CourseID   uint             `gorm:"not null;index:idx_attendance_slot,unique" json:"course_id"`
	StudentID  uint             `gorm:"not null;index:idx_attendance_slot,unique" json:"student_id"`
	Date       time.Time        `gorm:"type:date;not null;index:idx_attendance_slot,unique" json:"date"`
	Period     int              `gorm:"not null;index:idx_attendance_slot,unique" json:"period"`
	Status     AttendanceStatus `gorm:"size:16;not null" json:"status"`
	Note       string           `gorm:"size:512" json:"note"`
	RecordedBy uint             `gorm:"not null" json:"recorded_by"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"-"`
	Student    Student          `json:"student"`
}
