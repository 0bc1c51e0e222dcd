package dto

import (
	"time"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// ScheduleAssignRequest places a course into a weekly slot.
type ScheduleAssignRequest struct {
	CourseID  uint `json:"course_id" validate:"required,gt=0"`
	DayOfWeek int  `json:"day_of_week" validate:"required,min=1,max=7"`
	Period    int  `json:"period" validate:"required,min=1,max=12"`
	Override  bool `json:"override"`
}

// ScheduleResponse serializes a weekly slot.
type ScheduleResponse struct {
	ID         uint      `json:"id"`
	CourseID   uint      `json:"course_id"`
	CourseName string    `json:"course_name"`
	TeacherID  uint      `json:"teacher_id"`
	DayOfWeek  int       `json:"day_of_week"`
	Period     int       `json:"period"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewScheduleResponse converts a schedule model.
func NewScheduleResponse(schedule models.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:         schedule.ID,
		CourseID:   schedule.CourseID,
		CourseName: schedule.Course.Name,
		TeacherID:  schedule.TeacherID,
		DayOfWeek:  schedule.DayOfWeek,
		Period:     schedule.Period,
		CreatedAt:  schedule.CreatedAt,
	}
}

// NewScheduleResponseSlice converts schedule models.
func NewScheduleResponseSlice(schedules []models.Schedule) []ScheduleResponse {
	out := make([]ScheduleResponse, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, NewScheduleResponse(schedule))
	}
	return out
}
