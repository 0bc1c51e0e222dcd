package dto

import (
	"time"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// AssignmentCreateRequest represents the payload to create an assignment.
type AssignmentCreateRequest struct {
	Title         string     `json:"title" form:"title" validate:"required,min=3,max=255"`
	Description   string     `json:"description" form:"description" validate:"omitempty,max=5000"`
	MaxPoints     float64    `json:"max_points" form:"max_points" validate:"required,gt=0"`
	IsExtraCredit bool       `json:"is_extra_credit" form:"is_extra_credit"`
	LatePenalty   float64    `json:"late_penalty" form:"late_penalty" validate:"gte=0,lte=100"`
	DueDate       *time.Time `json:"due_date" form:"due_date"`
}

// AssignmentUpdateRequest captures partial updates for an assignment.
type AssignmentUpdateRequest struct {
	Title         *string    `json:"title" validate:"omitempty,min=3,max=255"`
	Description   *string    `json:"description" validate:"omitempty,max=5000"`
	MaxPoints     *float64   `json:"max_points" validate:"omitempty,gt=0"`
	IsExtraCredit *bool      `json:"is_extra_credit"`
	LatePenalty   *float64   `json:"late_penalty" validate:"omitempty,gte=0,lte=100"`
	DueDate       *time.Time `json:"due_date"`
	ClearDueDate  bool       `json:"clear_due_date"`
}

// AssignmentResponse is the API representation of an assignment.
type AssignmentResponse struct {
	ID            uint       `json:"id"`
	CourseID      uint       `json:"course_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	MaxPoints     float64    `json:"max_points"`
	IsExtraCredit bool       `json:"is_extra_credit"`
	LatePenalty   float64    `json:"late_penalty"`
	DueDate       *time.Time `json:"due_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(assignment models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            assignment.ID,
		CourseID:      assignment.CourseID,
		Title:         assignment.Title,
		Description:   assignment.Description,
		MaxPoints:     assignment.MaxPoints,
		IsExtraCredit: assignment.IsExtraCredit,
		LatePenalty:   assignment.LatePenalty,
		DueDate:       assignment.DueDate,
		CreatedAt:     assignment.CreatedAt,
		UpdatedAt:     assignment.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts assignment models.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	out := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		out = append(out, NewAssignmentResponse(assignment))
	}
	return out
}
