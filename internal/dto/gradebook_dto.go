package dto

import (
	"time"

	"github.com/noah-isme/gema-school-api/internal/grading"
)

// CourseGrade is one student's standing in one course.
type CourseGrade struct {
	CourseID   uint                      `json:"course_id"`
	CourseName string                    `json:"course_name"`
	Breakdown  grading.GradeBreakdown    `json:"breakdown"`
	Attendance grading.AttendanceSummary `json:"attendance"`
}

// StudentGradebookResponse lists a student's grade in every enrolled course.
type StudentGradebookResponse struct {
	Student     PersonLite    `json:"student"`
	Courses     []CourseGrade `json:"courses"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// CourseGradebookRow is one roster student in a teacher's course view.
type CourseGradebookRow struct {
	Student    PersonLite                `json:"student"`
	Breakdown  grading.GradeBreakdown    `json:"breakdown"`
	Attendance grading.AttendanceSummary `json:"attendance"`
}

// CourseGradebookResponse is the teacher view of one course.
type CourseGradebookResponse struct {
	CourseID    uint                 `json:"course_id"`
	CourseName  string               `json:"course_name"`
	Assignments []AssignmentResponse `json:"assignments"`
	Rows        []CourseGradebookRow `json:"rows"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// HomeroomGradebookResponse is the homeroom teacher's view of their students.
type HomeroomGradebookResponse struct {
	HomeroomID   uint                       `json:"homeroom_id"`
	HomeroomName string                     `json:"homeroom_name"`
	Students     []StudentGradebookResponse `json:"students"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}
