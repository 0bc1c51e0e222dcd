package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Quiz is a multiple-choice quiz attached to a course.
type Quiz struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CourseID    uint           `gorm:"not null;index" json:"course_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Questions   []QuizQuestion `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
	CreatedBy   uint           `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// QuizQuestion holds one prompt, its options and the index of the correct option.
type QuizQuestion struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	QuizID       uint                        `gorm:"not null;index" json:"quiz_id"`
	Position     int                         `gorm:"not null" json:"position"`
	Prompt       string                      `gorm:"type:text;not null" json:"prompt"`
	Options      datatypes.JSONSlice[string] `json:"options"`
	CorrectIndex int                         `gorm:"not null" json:"correct_index"`
	Points       float64                     `gorm:"not null" json:"points"`
}

// MaxScore sums the points of every question.
func (q Quiz) MaxScore() float64 {
	var total float64
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

// QuizAttempt stores a student's answers and the auto-graded result.
type QuizAttempt struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	QuizID      uint              `gorm:"not null;uniqueIndex:idx_quiz_attempt_student" json:"quiz_id"`
	StudentID   uint              `gorm:"not null;uniqueIndex:idx_quiz_attempt_student" json:"student_id"`
	Answers     datatypes.JSONMap `json:"answers"`
	Score       float64           `gorm:"not null" json:"score"`
	MaxScore    float64           `gorm:"not null" json:"max_score"`
	Percentage  float64           `gorm:"not null" json:"percentage"`
	SubmittedAt time.Time         `gorm:"not null" json:"submitted_at"`
	CreatedAt   time.Time         `json:"created_at"`
	Student     Student           `json:"student"`
}
