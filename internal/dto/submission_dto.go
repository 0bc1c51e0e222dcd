package dto

import (
	"time"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// GradeSubmissionRequest carries a percentage grade and optional feedback.
type GradeSubmissionRequest struct {
	Grade    float64 `json:"grade" validate:"gte=0,lte=100"`
	Feedback string  `json:"feedback" validate:"omitempty,max=5000"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	StudentID *uint   `query:"student_id"`
	Status    *string `query:"status" validate:"omitempty,oneof=submitted graded"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID           uint                             `json:"id"`
	AssignmentID uint                             `json:"assignment_id"`
	StudentID    uint                             `json:"student_id"`
	Student      PersonLite                       `json:"student"`
	FileURL      string                           `json:"file_url"`
	Status       string                           `json:"status"`
	Late         bool                             `json:"late"`
	Grade        *float64                         `json:"grade"`
	Feedback     string                           `json:"feedback"`
	SubmittedAt  time.Time                        `json:"submitted_at"`
	GradedBy     *uint                            `json:"graded_by"`
	GradedAt     *time.Time                       `json:"graded_at"`
	History      []SubmissionGradeHistoryResponse `json:"history,omitempty"`
}

// SubmissionGradeHistoryResponse serializes grading history entries.
type SubmissionGradeHistoryResponse struct {
	Score    float64   `json:"score"`
	Feedback string    `json:"feedback"`
	GradedBy uint      `json:"graded_by"`
	GradedAt time.Time `json:"graded_at"`
}

// NewSubmissionResponse converts a model into a DTO. Lateness is judged
// against the preloaded assignment.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Student:      newStudentLite(submission.Student),
		FileURL:      submission.FileURL,
		Status:       submission.Status,
		Late:         submission.IsLate(submission.Assignment),
		Grade:        submission.Grade,
		Feedback:     submission.Feedback,
		SubmittedAt:  submission.SubmittedAt,
		GradedBy:     submission.GradedBy,
		GradedAt:     submission.GradedAt,
	}
	for _, entry := range submission.History {
		response.History = append(response.History, SubmissionGradeHistoryResponse{
			Score:    entry.Score,
			Feedback: entry.Feedback,
			GradedBy: entry.GradedBy,
			GradedAt: entry.GradedAt,
		})
	}
	return response
}

// NewSubmissionResponseSlice converts submission models.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		out = append(out, NewSubmissionResponse(submission))
	}
	return out
}
