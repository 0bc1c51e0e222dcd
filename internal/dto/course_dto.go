package dto

import (
	"time"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// TermCreateRequest defines the payload to open a new term.
type TermCreateRequest struct {
	Name     string    `json:"name" validate:"required,min=2,max=128"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

// TermResponse serializes a term.
type TermResponse struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// NewTermResponse converts a term model.
func NewTermResponse(term models.Term) TermResponse {
	return TermResponse{ID: term.ID, Name: term.Name, StartsAt: term.StartsAt, EndsAt: term.EndsAt}
}

// NewTermResponseSlice converts term models.
func NewTermResponseSlice(terms []models.Term) []TermResponse {
	out := make([]TermResponse, 0, len(terms))
	for _, term := range terms {
		out = append(out, NewTermResponse(term))
	}
	return out
}

// CourseCreateRequest defines the payload to create a course.
type CourseCreateRequest struct {
	Name                string  `json:"name" validate:"required,min=2,max=255"`
	TeacherID           uint    `json:"teacher_id" validate:"required,gt=0"`
	TermID              uint    `json:"term_id" validate:"required,gt=0"`
	AttendancePoolScore float64 `json:"attendance_pool_score" validate:"gte=0"`
}

// CourseUpdateRequest captures partial course updates.
type CourseUpdateRequest struct {
	Name                *string  `json:"name" validate:"omitempty,min=2,max=255"`
	TeacherID           *uint    `json:"teacher_id" validate:"omitempty,gt=0"`
	AttendancePoolScore *float64 `json:"attendance_pool_score" validate:"omitempty,gte=0"`
}

// CourseFilter describes query string filters for listing courses.
type CourseFilter struct {
	TeacherID *uint  `query:"teacher_id"`
	TermID    *uint  `query:"term_id"`
	StudentID *uint  `query:"student_id"`
	Search    string `query:"search" validate:"omitempty,max=128"`
}

// EnrollmentRequest lists the students to add to a course roster.
type EnrollmentRequest struct {
	StudentIDs []uint `json:"student_ids" validate:"required,min=1,dive,gt=0"`
}

// CourseResponse is returned to API clients when viewing courses.
type CourseResponse struct {
	ID                  uint         `json:"id"`
	Name                string       `json:"name"`
	TermID              uint         `json:"term_id"`
	Term                string       `json:"term,omitempty"`
	Teacher             PersonLite   `json:"teacher"`
	AttendancePoolScore float64      `json:"attendance_pool_score"`
	Students            []PersonLite `json:"students,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// NewCourseResponse converts a course model; the roster is included when loaded.
func NewCourseResponse(course models.Course) CourseResponse {
	response := CourseResponse{
		ID:                  course.ID,
		Name:                course.Name,
		TermID:              course.TermID,
		Term:                course.Term.Name,
		Teacher:             newTeacherLite(course.Teacher),
		AttendancePoolScore: course.AttendancePoolScore,
		CreatedAt:           course.CreatedAt,
		UpdatedAt:           course.UpdatedAt,
	}
	if response.Teacher.ID == 0 {
		response.Teacher.ID = course.TeacherID
	}
	for _, student := range course.Students {
		response.Students = append(response.Students, newStudentLite(student))
	}
	return response
}

// NewCourseResponseSlice converts course models.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, NewCourseResponse(course))
	}
	return out
}
