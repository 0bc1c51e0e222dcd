package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/grading"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/observability"
	"github.com/noah-isme/gema-school-api/internal/repository"
)

// AttendanceService records and summarises class attendance.
type AttendanceService interface {
	SaveSession(ctx context.Context, actor Actor, courseID uint, payload dto.AttendanceSessionRequest) ([]dto.AttendanceResponse, error)
	ListSession(ctx context.Context, actor Actor, courseID uint, query dto.AttendanceSessionQuery) ([]dto.AttendanceResponse, error)
	Summary(ctx context.Context, actor Actor, courseID, studentID uint) (dto.AttendanceSummaryResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type attendanceService struct {
	attendance repository.AttendanceRepository
	courses    repository.CourseRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	gradebook  GradebookInvalidator
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewAttendanceService builds an attendance service.
func NewAttendanceService(attendance repository.AttendanceRepository, courses repository.CourseRepository, validate *validator.Validate, activity ActivityRecorder, gradebook GradebookInvalidator, logger zerolog.Logger) AttendanceService {
	return &attendanceService{
		attendance: attendance,
		courses:    courses,
		validator:  validate,
		activity:   activity,
		gradebook:  gradebook,
		tracer:     observability.Tracer("attendance"),
		logger:     logger.With().Str("component", "attendance_service").Logger(),
	}
}

// SaveSession writes every row of the session or none of them.
func (s *attendanceService) SaveSession(ctx context.Context, actor Actor, courseID uint, payload dto.AttendanceSessionRequest) ([]dto.AttendanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attendance.save_session")
	span.SetAttributes(
		attribute.Int64("attendance.course_id", int64(courseID)),
		attribute.Int("attendance.records", len(payload.Records)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return nil, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		span.SetStatus(codes.Error, "unauthorized")
		return nil, ErrUnauthorized
	}

	date, err := parseSessionDate(payload.Date)
	if err != nil {
		return nil, err
	}

	records := make([]models.Attendance, 0, len(payload.Records))
	studentIDs := make([]uint, 0, len(payload.Records))
	seen := make(map[uint]struct{}, len(payload.Records))
	for _, entry := range payload.Records {
		status := models.AttendanceStatus(strings.ToUpper(strings.TrimSpace(entry.Status)))
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAttendanceStatus, entry.Status)
		}
		if !course.HasStudent(entry.StudentID) {
			return nil, fmt.Errorf("%w: student %d", ErrNotEnrolled, entry.StudentID)
		}
		if _, dup := seen[entry.StudentID]; dup {
			return nil, fmt.Errorf("%w: student %d listed twice", ErrInvalidSession, entry.StudentID)
		}
		seen[entry.StudentID] = struct{}{}

		records = append(records, models.Attendance{
			CourseID:   courseID,
			StudentID:  entry.StudentID,
			Date:       date,
			Period:     payload.Period,
			Status:     status,
			Note:       strings.TrimSpace(entry.Note),
			RecordedBy: actor.ID,
		})
		studentIDs = append(studentIDs, entry.StudentID)
	}

	if _, err := s.attendance.SaveSession(ctx, records); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save_failed")
		return nil, err
	}

	for _, record := range records {
		observability.AttendanceRecordsSaved().WithLabelValues(string(record.Status)).Inc()
	}
	if s.gradebook != nil {
		s.gradebook.Invalidate(ctx, studentIDs...)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "attendance.saved",
		EntityType: "course",
		EntityID:   &course.ID,
		Metadata: map[string]interface{}{
			"date":    payload.Date,
			"period":  payload.Period,
			"records": len(records),
		},
	})

	saved, err := s.attendance.ListSession(ctx, courseID, date, payload.Period)
	if err != nil {
		return nil, err
	}
	return dto.NewAttendanceResponseSlice(saved), nil
}

func (s *attendanceService) ListSession(ctx context.Context, actor Actor, courseID uint, query dto.AttendanceSessionQuery) ([]dto.AttendanceResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return nil, ErrUnauthorized
	}

	date, err := parseSessionDate(query.Date)
	if err != nil {
		return nil, err
	}

	records, err := s.attendance.ListSession(ctx, courseID, date, query.Period)
	if err != nil {
		return nil, err
	}
	return dto.NewAttendanceResponseSlice(records), nil
}

// Summary lets a student read only their own rollup.
func (s *attendanceService) Summary(ctx context.Context, actor Actor, courseID, studentID uint) (dto.AttendanceSummaryResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.AttendanceSummaryResponse{}, notFound(err, ErrCourseNotFound)
	}
	if actor.IsStudent() && actor.ID != studentID {
		return dto.AttendanceSummaryResponse{}, ErrUnauthorized
	}
	if !canViewCourse(actor, course) {
		return dto.AttendanceSummaryResponse{}, ErrUnauthorized
	}
	if !course.HasStudent(studentID) {
		return dto.AttendanceSummaryResponse{}, ErrNotEnrolled
	}

	records, err := s.attendance.ListByCourseStudent(ctx, courseID, studentID)
	if err != nil {
		return dto.AttendanceSummaryResponse{}, err
	}

	return dto.AttendanceSummaryResponse{
		CourseID:  courseID,
		StudentID: studentID,
		Summary:   grading.SummarizeRecords(records),
	}, nil
}

func (s *attendanceService) Delete(ctx context.Context, actor Actor, id uint) error {
	record, err := s.attendance.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrAttendanceNotFound)
	}
	course, err := s.courses.GetByID(ctx, record.CourseID)
	if err != nil {
		return notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return ErrUnauthorized
	}

	if err := s.attendance.Delete(ctx, id); err != nil {
		return notFound(err, ErrAttendanceNotFound)
	}
	if s.gradebook != nil {
		s.gradebook.Invalidate(ctx, record.StudentID)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "attendance.deleted",
		EntityType: "attendance",
		EntityID:   &record.ID,
		Metadata:   map[string]interface{}{"student_id": record.StudentID, "course_id": record.CourseID},
	})
	return nil
}

// parseSessionDate reads a calendar date as UTC midnight so the same day
// always maps to the same stored value.
func parseSessionDate(value string) (time.Time, error) {
	date, err := time.ParseInLocation(dto.AttendanceDateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidSession, value)
	}
	return date, nil
}
