package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/grading"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/observability"
	"github.com/noah-isme/gema-school-api/internal/repository"
)

var weekdays = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ScheduleService places courses in the weekly timetable.
type ScheduleService interface {
	Assign(ctx context.Context, actor Actor, payload dto.ScheduleAssignRequest) (dto.ScheduleResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.ScheduleResponse, error)
	ListByTeacher(ctx context.Context, actor Actor, teacherID uint) ([]dto.ScheduleResponse, error)
	ListByStudent(ctx context.Context, actor Actor, studentID uint) ([]dto.ScheduleResponse, error)
}

type scheduleService struct {
	schedules     repository.ScheduleRepository
	courses       repository.CourseRepository
	validator     *validator.Validate
	notifications NotificationPublisher
	activity      ActivityRecorder
	tracer        trace.Tracer
	logger        zerolog.Logger
}

// NewScheduleService builds a schedule service.
func NewScheduleService(schedules repository.ScheduleRepository, courses repository.CourseRepository, validate *validator.Validate, notifications NotificationPublisher, activity ActivityRecorder, logger zerolog.Logger) ScheduleService {
	return &scheduleService{
		schedules:     schedules,
		courses:       courses,
		validator:     validate,
		notifications: notifications,
		activity:      activity,
		tracer:        observability.Tracer("schedule"),
		logger:        logger.With().Str("component", "schedule_service").Logger(),
	}
}

// Assign rejects the whole placement when any roster student or the course
// teacher is already busy in the slot, unless the caller sets Override.
func (s *scheduleService) Assign(ctx context.Context, actor Actor, payload dto.ScheduleAssignRequest) (dto.ScheduleResponse, error) {
	ctx, span := s.tracer.Start(ctx, "schedule.assign")
	span.SetAttributes(
		attribute.Int64("schedule.course_id", int64(payload.CourseID)),
		attribute.Int("schedule.day_of_week", payload.DayOfWeek),
		attribute.Int("schedule.period", payload.Period),
		attribute.Bool("schedule.override", payload.Override),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ScheduleResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		return dto.ScheduleResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		span.SetStatus(codes.Error, "unauthorized")
		return dto.ScheduleResponse{}, ErrUnauthorized
	}

	if _, err := s.schedules.FindSlot(ctx, course.ID, payload.DayOfWeek, payload.Period); err == nil {
		return dto.ScheduleResponse{}, ErrAlreadyScheduled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ScheduleResponse{}, err
	}

	conflicts, err := s.detect(ctx, course, grading.Slot{DayOfWeek: payload.DayOfWeek, Period: payload.Period})
	if err != nil {
		span.RecordError(err)
		return dto.ScheduleResponse{}, err
	}
	span.SetAttributes(attribute.Int("schedule.conflicts", len(conflicts)))

	if len(conflicts) > 0 {
		for _, conflict := range conflicts {
			observability.ScheduleConflicts().WithLabelValues(string(conflict.Kind)).Inc()
		}
		if !payload.Override {
			span.SetStatus(codes.Error, "conflict")
			return dto.ScheduleResponse{}, &ScheduleConflictError{Conflicts: conflicts}
		}
		s.logger.Warn().
			Uint("course_id", course.ID).
			Int("conflicts", len(conflicts)).
			Msg("schedule conflicts overridden")
	}

	schedule := models.Schedule{
		CourseID:  course.ID,
		TeacherID: course.TeacherID,
		DayOfWeek: payload.DayOfWeek,
		Period:    payload.Period,
	}
	if err := s.schedules.Create(ctx, &schedule); err != nil {
		span.RecordError(err)
		return dto.ScheduleResponse{}, err
	}
	schedule.Course = course

	action := "schedule.assigned"
	if len(conflicts) > 0 {
		action = "schedule.overridden"
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "schedule",
		EntityID:   &schedule.ID,
		Metadata: map[string]interface{}{
			"course_id":   course.ID,
			"day_of_week": schedule.DayOfWeek,
			"period":      schedule.Period,
			"conflicts":   len(conflicts),
		},
	})
	s.notifyRoster(ctx, course, fmt.Sprintf("%s now meets on %s, period %d", course.Name, weekdays[schedule.DayOfWeek], schedule.Period))

	return dto.NewScheduleResponse(schedule), nil
}

// detect gathers the roster's and teacher's existing timetable and runs the detector.
func (s *scheduleService) detect(ctx context.Context, course models.Course, slot grading.Slot) ([]grading.Conflict, error) {
	teacherSchedules, err := s.schedules.ListByTeacher(ctx, course.TeacherID)
	if err != nil {
		return nil, err
	}

	studentSchedules, err := s.schedules.ListByStudents(ctx, course.StudentIDs())
	if err != nil {
		return nil, err
	}

	roster := make([]grading.RosterStudent, 0, len(course.Students))
	for _, student := range course.Students {
		roster = append(roster, grading.RosterStudent{
			StudentID:   student.ID,
			StudentName: student.Name,
			Schedules:   scheduledCourses(studentSchedules[student.ID]),
		})
	}

	proposal := grading.Proposal{CourseID: course.ID, TeacherID: course.TeacherID, Slot: slot}
	return grading.DetectConflicts(proposal, roster, scheduledCourses(teacherSchedules)), nil
}

func (s *scheduleService) Delete(ctx context.Context, actor Actor, id uint) error {
	schedule, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrScheduleNotFound)
	}
	course, err := s.courses.GetByID(ctx, schedule.CourseID)
	if err != nil {
		return notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return ErrUnauthorized
	}

	if err := s.schedules.Delete(ctx, id); err != nil {
		return notFound(err, ErrScheduleNotFound)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "schedule.deleted",
		EntityType: "schedule",
		EntityID:   &schedule.ID,
		Metadata:   map[string]interface{}{"course_id": course.ID},
	})
	s.notifyRoster(ctx, course, fmt.Sprintf("%s no longer meets on %s, period %d", course.Name, weekdays[schedule.DayOfWeek], schedule.Period))
	return nil
}

func (s *scheduleService) ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.ScheduleResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !canViewCourse(actor, course) {
		return nil, ErrUnauthorized
	}

	schedules, err := s.schedules.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewScheduleResponseSlice(schedules), nil
}

func (s *scheduleService) ListByTeacher(ctx context.Context, actor Actor, teacherID uint) ([]dto.ScheduleResponse, error) {
	if !actor.IsAdmin() && !(actor.IsTeacher() && actor.ID == teacherID) {
		return nil, ErrUnauthorized
	}

	schedules, err := s.schedules.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	return dto.NewScheduleResponseSlice(schedules), nil
}

func (s *scheduleService) ListByStudent(ctx context.Context, actor Actor, studentID uint) ([]dto.ScheduleResponse, error) {
	if actor.IsStudent() && actor.ID != studentID {
		return nil, ErrUnauthorized
	}

	schedules, err := s.schedules.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if actor.IsTeacher() && !teachesAny(actor.ID, schedules) {
		return nil, ErrUnauthorized
	}
	return dto.NewScheduleResponseSlice(schedules), nil
}

func (s *scheduleService) notifyRoster(ctx context.Context, course models.Course, message string) {
	if s.notifications == nil {
		return
	}
	for _, student := range course.Students {
		if _, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  studentSubject(student.ID),
			Type:    "schedule_changed",
			Message: message,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("student_id", student.ID).Msg("failed to notify schedule change")
		}
	}
}

func scheduledCourses(schedules []models.Schedule) []grading.ScheduledCourse {
	out := make([]grading.ScheduledCourse, 0, len(schedules))
	for _, schedule := range schedules {
		out = append(out, grading.ScheduledCourse{
			CourseID:   schedule.CourseID,
			CourseName: schedule.Course.Name,
			TeacherID:  schedule.Course.TeacherID,
			Slot:       grading.Slot{DayOfWeek: schedule.DayOfWeek, Period: schedule.Period},
		})
	}
	return out
}

func teachesAny(teacherID uint, schedules []models.Schedule) bool {
	for _, schedule := range schedules {
		if schedule.Course.TeacherID == teacherID {
			return true
		}
	}
	return false
}
