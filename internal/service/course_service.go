package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/repository"
)

// CourseService manages courses and their rosters.
type CourseService interface {
	List(ctx context.Context, actor Actor, filter dto.CourseFilter) ([]dto.CourseResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.CourseResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Enroll(ctx context.Context, actor Actor, id uint, payload dto.EnrollmentRequest) (dto.CourseResponse, error)
	Unenroll(ctx context.Context, actor Actor, id, studentID uint) error
}

type courseService struct {
	courses   repository.CourseRepository
	terms     repository.TermRepository
	people    repository.PeopleRepository
	validator *validator.Validate
	activity  ActivityRecorder
	gradebook GradebookInvalidator
	logger    zerolog.Logger
}

// NewCourseService builds a course service.
func NewCourseService(courses repository.CourseRepository, terms repository.TermRepository, people repository.PeopleRepository, validate *validator.Validate, activity ActivityRecorder, gradebook GradebookInvalidator, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		terms:     terms,
		people:    people,
		validator: validate,
		activity:  activity,
		gradebook: gradebook,
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

// List restricts students to their own enrollments.
func (s *courseService) List(ctx context.Context, actor Actor, filter dto.CourseFilter) ([]dto.CourseResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.CourseFilter{
		TeacherID: filter.TeacherID,
		TermID:    filter.TermID,
		StudentID: filter.StudentID,
		Search:    filter.Search,
	}
	if actor.IsStudent() {
		id := actor.ID
		repoFilter.StudentID = &id
	}

	courses, err := s.courses.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return dto.NewCourseResponseSlice(courses), nil
}

func (s *courseService) Get(ctx context.Context, actor Actor, id uint) (dto.CourseResponse, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !canViewCourse(actor, course) {
		return dto.CourseResponse{}, ErrUnauthorized
	}
	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, actor Actor, payload dto.CourseCreateRequest) (dto.CourseResponse, error) {
	if !actor.IsAdmin() && !(actor.IsTeacher() && payload.TeacherID == actor.ID) {
		return dto.CourseResponse{}, ErrUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	if _, err := s.terms.GetByID(ctx, payload.TermID); err != nil {
		return dto.CourseResponse{}, notFound(err, ErrTermNotFound)
	}
	if _, err := s.people.GetTeacher(ctx, payload.TeacherID); err != nil {
		return dto.CourseResponse{}, notFound(err, ErrTeacherNotFound)
	}

	course := models.Course{
		Name:                strings.TrimSpace(payload.Name),
		TeacherID:           payload.TeacherID,
		TermID:              payload.TermID,
		AttendancePoolScore: payload.AttendancePoolScore,
	}
	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	created, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "course.created",
		EntityType: "course",
		EntityID:   &created.ID,
		Metadata:   map[string]interface{}{"name": created.Name, "teacher_id": created.TeacherID},
	})
	s.logger.Info().Uint("course_id", created.ID).Msg("course created")

	return dto.NewCourseResponse(created), nil
}

func (s *courseService) Update(ctx context.Context, actor Actor, id uint, payload dto.CourseUpdateRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return dto.CourseResponse{}, ErrUnauthorized
	}

	if payload.Name != nil {
		course.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.TeacherID != nil && *payload.TeacherID != course.TeacherID {
		if !actor.IsAdmin() {
			return dto.CourseResponse{}, ErrUnauthorized
		}
		if _, err := s.people.GetTeacher(ctx, *payload.TeacherID); err != nil {
			return dto.CourseResponse{}, notFound(err, ErrTeacherNotFound)
		}
		course.TeacherID = *payload.TeacherID
	}
	poolChanged := false
	if payload.AttendancePoolScore != nil && *payload.AttendancePoolScore != course.AttendancePoolScore {
		course.AttendancePoolScore = *payload.AttendancePoolScore
		poolChanged = true
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	if poolChanged {
		s.invalidate(ctx, course.StudentIDs()...)
	}

	updated, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}
	s.logger.Info().Uint("course_id", id).Msg("course updated")
	return dto.NewCourseResponse(updated), nil
}

func (s *courseService) Delete(ctx context.Context, actor Actor, id uint) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return ErrUnauthorized
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return notFound(err, ErrCourseNotFound)
	}
	s.invalidate(ctx, course.StudentIDs()...)

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "course.deleted",
		EntityType: "course",
		EntityID:   &course.ID,
		Metadata:   map[string]interface{}{"name": course.Name},
	})
	return nil
}

func (s *courseService) Enroll(ctx context.Context, actor Actor, id uint, payload dto.EnrollmentRequest) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return dto.CourseResponse{}, ErrUnauthorized
	}

	if err := s.courses.AddStudents(ctx, id, payload.StudentIDs); err != nil {
		return dto.CourseResponse{}, notFound(err, ErrStudentNotFound)
	}
	s.invalidate(ctx, payload.StudentIDs...)

	updated, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "course.enrolled",
		EntityType: "course",
		EntityID:   &course.ID,
		Metadata:   map[string]interface{}{"student_ids": payload.StudentIDs},
	})
	return dto.NewCourseResponse(updated), nil
}

func (s *courseService) Unenroll(ctx context.Context, actor Actor, id, studentID uint) error {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return ErrUnauthorized
	}

	if err := s.courses.RemoveStudent(ctx, id, studentID); err != nil {
		return notFound(err, ErrNotEnrolled)
	}
	s.invalidate(ctx, studentID)

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "course.unenrolled",
		EntityType: "course",
		EntityID:   &course.ID,
		Metadata:   map[string]interface{}{"student_id": studentID},
	})
	return nil
}

func (s *courseService) invalidate(ctx context.Context, studentIDs ...uint) {
	if s.gradebook != nil {
		s.gradebook.Invalidate(ctx, studentIDs...)
	}
}
