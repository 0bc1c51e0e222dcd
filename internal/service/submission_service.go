package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/observability"
	"github.com/noah-isme/gema-school-api/internal/repository"
)

// SubmissionService orchestrates hand-in and grading workflows.
type SubmissionService interface {
	Submit(ctx context.Context, actor Actor, assignmentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, actor Actor, assignmentID uint, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, actor Actor, submissionID uint) error
}

type submissionService struct {
	submissions   repository.SubmissionRepository
	assignments   repository.AssignmentRepository
	courses       repository.CourseRepository
	validator     *validator.Validate
	uploads       *uploadGuard
	notifications NotificationPublisher
	activity      ActivityRecorder
	gradebook     GradebookInvalidator
	tracer        trace.Tracer
	logger        zerolog.Logger
	now           func() time.Time
}

// SubmissionDependencies groups the collaborators of the submission service.
type SubmissionDependencies struct {
	Submissions   repository.SubmissionRepository
	Assignments   repository.AssignmentRepository
	Courses       repository.CourseRepository
	Validator     *validator.Validate
	Uploader      FileUploader
	MaxUploadMB   int
	Notifications NotificationPublisher
	Activity      ActivityRecorder
	Gradebook     GradebookInvalidator
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(deps SubmissionDependencies, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions:   deps.Submissions,
		assignments:   deps.Assignments,
		courses:       deps.Courses,
		validator:     deps.Validator,
		uploads:       newUploadGuard(deps.Uploader, deps.MaxUploadMB, logger),
		notifications: deps.Notifications,
		activity:      deps.Activity,
		gradebook:     deps.Gradebook,
		tracer:        observability.Tracer("submission"),
		logger:        logger.With().Str("component", "submission_service").Logger(),
		now:           time.Now,
	}
}

// Submit stores the student's file. Late work is accepted; the penalty is
// applied when grades are calculated. A resubmission replaces the previous
// file and clears its grade.
func (s *submissionService) Submit(ctx context.Context, actor Actor, assignmentID uint, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if !actor.IsStudent() {
		return dto.SubmissionResponse{}, ErrUnauthorized
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, notFound(err, ErrAssignmentNotFound)
	}
	enrolled, err := s.courses.IsEnrolled(ctx, assignment.CourseID, actor.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !enrolled {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	stored, err := s.uploads.store(ctx, file, submissionMimeTypes)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	submittedAt := s.now().UTC()
	existing, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, actor.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		existing = models.Submission{AssignmentID: assignmentID, StudentID: actor.ID}
	case err != nil:
		return dto.SubmissionResponse{}, err
	}

	resubmitted := existing.ID != 0
	existing.FileURL = stored.URL
	existing.Status = models.SubmissionStatusSubmitted
	existing.SubmittedAt = submittedAt
	existing.Grade = nil
	existing.GradedBy = nil
	existing.GradedAt = nil

	if resubmitted {
		err = s.submissions.Update(ctx, &existing)
	} else {
		err = s.submissions.Create(ctx, &existing)
	}
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.invalidate(ctx, actor.ID)

	saved, err := s.submissions.GetByID(ctx, existing.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().
		Uint("submission_id", saved.ID).
		Bool("late", saved.IsLate(assignment)).
		Bool("resubmitted", resubmitted).
		Msg("submission stored")

	return dto.NewSubmissionResponse(saved), nil
}

// ListByAssignment returns every submission to course staff and only the
// caller's own to a student.
func (s *submissionService) ListByAssignment(ctx context.Context, actor Actor, assignmentID uint, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, notFound(err, ErrAssignmentNotFound)
	}
	course, err := s.courses.GetByID(ctx, assignment.CourseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !canViewCourse(actor, course) {
		return nil, ErrUnauthorized
	}

	repoFilter := repository.SubmissionFilter{
		AssignmentID: &assignmentID,
		StudentID:    filter.StudentID,
		Status:       filter.Status,
	}
	if actor.IsStudent() {
		id := actor.ID
		repoFilter.StudentID = &id
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Grade(ctx context.Context, actor Actor, submissionID uint, payload dto.GradeSubmissionRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.grade")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(submissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, notFound(err, ErrSubmissionNotFound)
	}
	course, err := s.courses.GetByID(ctx, submission.Assignment.CourseID)
	if err != nil {
		return dto.SubmissionResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		span.SetStatus(codes.Error, "unauthorized")
		return dto.SubmissionResponse{}, ErrUnauthorized
	}

	feedback := strings.TrimSpace(payload.Feedback)
	sameGrade := submission.Grade != nil && math.Abs(*submission.Grade-payload.Grade) < 1e-6
	sameGrader := submission.GradedBy != nil && *submission.GradedBy == actor.ID
	if sameGrade && sameGrader && strings.TrimSpace(submission.Feedback) == feedback {
		span.SetAttributes(attribute.Bool("grading.idempotent", true))
		return dto.NewSubmissionResponse(submission), nil
	}

	grade := payload.Grade
	gradedAt := s.now().UTC()
	gradedBy := actor.ID
	submission.Grade = &grade
	submission.Feedback = feedback
	submission.Status = models.SubmissionStatusGraded
	submission.GradedAt = &gradedAt
	submission.GradedBy = &gradedBy

	history := models.SubmissionGradeHistory{
		Score:    grade,
		Feedback: feedback,
		GradedBy: actor.ID,
		GradedAt: gradedAt,
	}
	if err := s.submissions.SaveGrade(ctx, &submission, &history); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	s.invalidate(ctx, submission.StudentID)
	s.notifyGraded(ctx, submission)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "submission.graded",
		EntityType: "submission",
		EntityID:   &submission.ID,
		Metadata: map[string]interface{}{
			"assignment_id": submission.AssignmentID,
			"student_id":    submission.StudentID,
			"grade":         grade,
			"late":          submission.IsLate(submission.Assignment),
		},
	})

	graded, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(attribute.Float64("grading.score", grade))
	return dto.NewSubmissionResponse(graded), nil
}

func (s *submissionService) Delete(ctx context.Context, actor Actor, submissionID uint) error {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return notFound(err, ErrSubmissionNotFound)
	}
	course, err := s.courses.GetByID(ctx, submission.Assignment.CourseID)
	if err != nil {
		return notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return ErrUnauthorized
	}

	if err := s.submissions.Delete(ctx, submissionID); err != nil {
		return notFound(err, ErrSubmissionNotFound)
	}

	s.invalidate(ctx, submission.StudentID)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "submission.deleted",
		EntityType: "submission",
		EntityID:   &submission.ID,
		Metadata:   map[string]interface{}{"student_id": submission.StudentID},
	})
	return nil
}

func (s *submissionService) notifyGraded(ctx context.Context, submission models.Submission) {
	if s.notifications == nil {
		return
	}
	message := fmt.Sprintf("Your submission for %q was graded %.1f%%", submission.Assignment.Title, *submission.Grade)
	if _, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  studentSubject(submission.StudentID),
		Type:    "grade_posted",
		Message: message,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to notify student")
	}
}

func (s *submissionService) invalidate(ctx context.Context, studentIDs ...uint) {
	if s.gradebook != nil {
		s.gradebook.Invalidate(ctx, studentIDs...)
	}
}
