package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/grading"
)

var (
	// ErrUnauthorized indicates the actor may not perform the operation.
	ErrUnauthorized = errors.New("unauthorized")

	ErrTermNotFound         = errors.New("term not found")
	ErrTeacherNotFound      = errors.New("teacher not found")
	ErrStudentNotFound      = errors.New("student not found")
	ErrHomeroomNotFound     = errors.New("homeroom not found")
	ErrCourseNotFound       = errors.New("course not found")
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrAttendanceNotFound   = errors.New("attendance record not found")
	ErrScheduleNotFound     = errors.New("schedule not found")
	ErrMaterialNotFound     = errors.New("material not found")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrNotEnrolled indicates a student is not on the course roster.
	ErrNotEnrolled = errors.New("student is not enrolled in course")
	// ErrAlreadyScheduled indicates the course already occupies the slot.
	ErrAlreadyScheduled = errors.New("course already scheduled in this slot")
	// ErrQuizAlreadyAttempted indicates the student already submitted the quiz.
	ErrQuizAlreadyAttempted = errors.New("quiz already attempted")
	// ErrInvalidAnswer indicates an answer references an unknown question or option.
	ErrInvalidAnswer = errors.New("invalid quiz answer")
	// ErrInvalidQuestion indicates a quiz question's correct option is out of range.
	ErrInvalidQuestion = errors.New("correct option index out of range")
	// ErrInvalidAttendanceStatus indicates an unsupported attendance status.
	ErrInvalidAttendanceStatus = errors.New("invalid attendance status")
	// ErrInvalidSession indicates a malformed attendance session payload.
	ErrInvalidSession = errors.New("invalid attendance session")
)

// ScheduleConflictError rejects a schedule assignment that would double-book
// students or the teacher.
type ScheduleConflictError struct {
	Conflicts []grading.Conflict
}

func (e *ScheduleConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, conflict := range e.Conflicts {
		parts = append(parts, conflict.String())
	}
	return fmt.Sprintf("schedule conflict: %s", strings.Join(parts, "; "))
}

// notFound translates gorm's missing-row error into the domain error.
func notFound(err error, domain error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain
	}
	return err
}
