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

// AssignmentService exposes assignment use cases scoped to a course.
type AssignmentService interface {
	ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.AssignmentResponse, error)
	Create(ctx context.Context, actor Actor, courseID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, actor Actor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	gradebook   GradebookInvalidator
	logger      zerolog.Logger
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, courses repository.CourseRepository, validate *validator.Validate, activity ActivityRecorder, gradebook GradebookInvalidator, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		courses:     courses,
		validator:   validate,
		activity:    activity,
		gradebook:   gradebook,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) ListByCourse(ctx context.Context, actor Actor, courseID uint) ([]dto.AssignmentResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !canViewCourse(actor, course) {
		return nil, ErrUnauthorized
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Create(ctx context.Context, actor Actor, courseID uint, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.AssignmentResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return dto.AssignmentResponse{}, ErrUnauthorized
	}

	assignment := models.Assignment{
		CourseID:      courseID,
		Title:         strings.TrimSpace(payload.Title),
		Description:   payload.Description,
		MaxPoints:     payload.MaxPoints,
		IsExtraCredit: payload.IsExtraCredit,
		LatePenalty:   payload.LatePenalty,
		DueDate:       payload.DueDate,
	}
	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.invalidate(ctx, course)
	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", courseID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, actor Actor, id uint, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, course, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Title != nil {
		assignment.Title = strings.TrimSpace(*payload.Title)
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.MaxPoints != nil {
		assignment.MaxPoints = *payload.MaxPoints
	}
	if payload.IsExtraCredit != nil {
		assignment.IsExtraCredit = *payload.IsExtraCredit
	}
	if payload.LatePenalty != nil {
		assignment.LatePenalty = *payload.LatePenalty
	}
	if payload.ClearDueDate {
		assignment.DueDate = nil
	} else if payload.DueDate != nil {
		assignment.DueDate = payload.DueDate
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.invalidate(ctx, course)
	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, actor Actor, id uint) error {
	assignment, course, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		return notFound(err, ErrAssignmentNotFound)
	}

	s.invalidate(ctx, course)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "assignment.deleted",
		EntityType: "assignment",
		EntityID:   &assignment.ID,
		Metadata:   map[string]interface{}{"course_id": assignment.CourseID, "title": assignment.Title},
	})
	return nil
}

// load fetches the assignment and its course, enforcing course ownership.
func (s *assignmentService) load(ctx context.Context, actor Actor, id uint) (models.Assignment, models.Course, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return models.Assignment{}, models.Course{}, notFound(err, ErrAssignmentNotFound)
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return models.Assignment{}, models.Course{}, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return models.Assignment{}, models.Course{}, ErrUnauthorized
	}
	return assignment, course, nil
}

func (s *assignmentService) invalidate(ctx context.Context, course models.Course) {
	if s.gradebook != nil {
		s.gradebook.Invalidate(ctx, course.StudentIDs()...)
	}
}
