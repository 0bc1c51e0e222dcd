package dto

import (
	"time"

	"github.com/noah-isme/gema-school-api/internal/grading"
	"github.com/noah-isme/gema-school-api/internal/models"
)

// AttendanceDateLayout is the calendar date format used by attendance payloads.
const AttendanceDateLayout = "2006-01-02"

// AttendanceSessionRequest records one period of one course for many students.
type AttendanceSessionRequest struct {
	Date    string                   `json:"date" validate:"required,datetime=2006-01-02"`
	Period  int                      `json:"period" validate:"required,min=1,max=12"`
	Records []AttendanceEntryRequest `json:"records" validate:"required,min=1,dive"`
}

// AttendanceEntryRequest is a single student's status within a session.
type AttendanceEntryRequest struct {
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Status    string `json:"status" validate:"required,oneof=PRESENT ABSENT EXCUSED SKIPPED PENDING"`
	Note      string `json:"note" validate:"omitempty,max=512"`
}

// AttendanceSessionQuery selects a stored session.
type AttendanceSessionQuery struct {
	Date   string `query:"date" validate:"required,datetime=2006-01-02"`
	Period int    `query:"period" validate:"required,min=1,max=12"`
}

// AttendanceResponse serializes an attendance row.
type AttendanceResponse struct {
	ID         uint       `json:"id"`
	CourseID   uint       `json:"course_id"`
	StudentID  uint       `json:"student_id"`
	Student    PersonLite `json:"student"`
	Date       string     `json:"date"`
	Period     int        `json:"period"`
	Status     string     `json:"status"`
	Note       string     `json:"note"`
	RecordedBy uint       `json:"recorded_by"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewAttendanceResponse converts an attendance row.
func NewAttendanceResponse(record models.Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:         record.ID,
		CourseID:   record.CourseID,
		StudentID:  record.StudentID,
		Student:    newStudentLite(record.Student),
		Date:       record.Date.Format(AttendanceDateLayout),
		Period:     record.Period,
		Status:     string(record.Status),
		Note:       record.Note,
		RecordedBy: record.RecordedBy,
		UpdatedAt:  record.UpdatedAt,
	}
}

// NewAttendanceResponseSlice converts attendance rows.
func NewAttendanceResponseSlice(records []models.Attendance) []AttendanceResponse {
	out := make([]AttendanceResponse, 0, len(records))
	for _, record := range records {
		out = append(out, NewAttendanceResponse(record))
	}
	return out
}

// AttendanceSummaryResponse is a student's attendance rollup in one course.
type AttendanceSummaryResponse struct {
	CourseID  uint                      `json:"course_id"`
	StudentID uint                      `json:"student_id"`
	Summary   grading.AttendanceSummary `json:"summary"`
}
