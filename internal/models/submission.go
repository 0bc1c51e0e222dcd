package models

import (
	"time"

	"gorm.io/gorm"
)

// Submission represents the work a student handed in for an assignment.
type Submission struct {
	ID           uint                     `gorm:"primaryKey" json:"id"`
	AssignmentID uint                     `gorm:"not null;index" json:"assignment_id"`
	StudentID    uint                     `gorm:"not null;index" json:"student_id"`
	FileURL      string                   `gorm:"size:512" json:"file_url"`
	Status       string                   `gorm:"size:32;not null" json:"status"`
	Grade        *float64                 `json:"grade"`
	Feedback     string                   `gorm:"type:text" json:"feedback"`
	SubmittedAt  time.Time                `gorm:"not null" json:"submitted_at"`
	GradedBy     *uint                    `json:"graded_by"`
	GradedAt     *time.Time               `json:"graded_at"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	DeletedAt    gorm.DeletedAt           `gorm:"index" json:"-"`
	Assignment   Assignment               `json:"assignment"`
	Student      Student                  `json:"student"`
	History      []SubmissionGradeHistory `json:"history"`
}

// SubmissionGradeHistory keeps every grade a submission has received.
type SubmissionGradeHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Score        float64   `gorm:"not null" json:"score"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	GradedBy     uint      `gorm:"not null" json:"graded_by"`
	GradedAt     time.Time `gorm:"not null" json:"graded_at"`
}

const (
	// SubmissionStatusSubmitted indicates the submission has been uploaded but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates the submission has been evaluated.
	SubmissionStatusGraded = "graded"
)

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded && s.Grade != nil
}

// IsLate reports whether the work arrived after the assignment deadline.
func (s Submission) IsLate(assignment Assignment) bool {
	return assignment.DueDate != nil && s.SubmittedAt.After(*assignment.DueDate)
}
