package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/grading"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/observability"
	"github.com/noah-isme/gema-school-api/internal/repository"
)

// GradebookInvalidator drops cached gradebooks after writes that change grades.
type GradebookInvalidator interface {
	Invalidate(ctx context.Context, studentIDs ...uint)
}

// GradebookService produces the student, teacher and homeroom grade views.
// All three run the same calculator over the same inputs.
type GradebookService interface {
	GradebookInvalidator
	StudentView(ctx context.Context, actor Actor, studentID uint) (dto.StudentGradebookResponse, error)
	CourseView(ctx context.Context, actor Actor, courseID uint) (dto.CourseGradebookResponse, error)
	HomeroomView(ctx context.Context, actor Actor, homeroomID uint) (dto.HomeroomGradebookResponse, error)
}

// GradebookDependencies groups the repositories the gradebook reads from.
type GradebookDependencies struct {
	Courses     repository.CourseRepository
	Assignments repository.AssignmentRepository
	Submissions repository.SubmissionRepository
	Attendance  repository.AttendanceRepository
	People      repository.PeopleRepository
	Cache       *redis.Client
	CacheTTL    time.Duration
}

type gradebookService struct {
	courses     repository.CourseRepository
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	attendance  repository.AttendanceRepository
	people      repository.PeopleRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradebookService builds the gradebook aggregator.
func NewGradebookService(deps GradebookDependencies, logger zerolog.Logger) GradebookService {
	return &gradebookService{
		courses:     deps.Courses,
		assignments: deps.Assignments,
		submissions: deps.Submissions,
		attendance:  deps.Attendance,
		people:      deps.People,
		cache:       deps.Cache,
		cacheTTL:    deps.CacheTTL,
		tracer:      observability.Tracer("gradebook"),
		logger:      logger.With().Str("component", "gradebook_service").Logger(),
		now:         time.Now,
	}
}

func gradebookCacheKey(studentID uint) string {
	return fmt.Sprintf("gradebook:student:%d", studentID)
}

func (s *gradebookService) StudentView(ctx context.Context, actor Actor, studentID uint) (dto.StudentGradebookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "gradebook.student")
	span.SetAttributes(attribute.Int64("gradebook.student_id", int64(studentID)))
	defer span.End()

	student, err := s.people.GetStudent(ctx, studentID)
	if err != nil {
		return dto.StudentGradebookResponse{}, notFound(err, ErrStudentNotFound)
	}
	if err := s.authorizeStudent(ctx, actor, student); err != nil {
		return dto.StudentGradebookResponse{}, err
	}

	return s.studentGradebook(ctx, student)
}

func (s *gradebookService) authorizeStudent(ctx context.Context, actor Actor, student models.Student) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsStudent():
		if actor.ID == student.ID {
			return nil
		}
		return ErrUnauthorized
	case actor.IsTeacher():
		teacherID := actor.ID
		taught, err := s.courses.List(ctx, repository.CourseFilter{TeacherID: &teacherID, StudentID: &student.ID})
		if err != nil {
			return err
		}
		if len(taught) > 0 {
			return nil
		}
		if student.HomeroomID != nil {
			homeroom, err := s.people.GetHomeroom(ctx, *student.HomeroomID)
			if err != nil {
				return notFound(err, ErrHomeroomNotFound)
			}
			if homeroom.TeacherID == actor.ID {
				return nil
			}
		}
		return ErrUnauthorized
	default:
		return ErrUnauthorized
	}
}

// studentGradebook serves from Redis when possible and fills it otherwise.
func (s *gradebookService) studentGradebook(ctx context.Context, student models.Student) (dto.StudentGradebookResponse, error) {
	key := gradebookCacheKey(student.ID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			var response dto.StudentGradebookResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.GradebookCache().WithLabelValues("hit").Inc()
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read gradebook cache")
		}
		observability.GradebookCache().WithLabelValues("miss").Inc()
	}

	response, err := s.buildStudentGradebook(ctx, student)
	if err != nil {
		return dto.StudentGradebookResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store gradebook cache")
			}
		}
	}

	return response, nil
}

func (s *gradebookService) buildStudentGradebook(ctx context.Context, student models.Student) (dto.StudentGradebookResponse, error) {
	courses, err := s.courses.List(ctx, repository.CourseFilter{StudentID: &student.ID})
	if err != nil {
		return dto.StudentGradebookResponse{}, err
	}

	courseIDs := make([]uint, 0, len(courses))
	for _, course := range courses {
		courseIDs = append(courseIDs, course.ID)
	}

	assignments, err := s.assignments.ListByCourses(ctx, courseIDs)
	if err != nil {
		return dto.StudentGradebookResponse{}, err
	}
	assignmentsByCourse := make(map[uint][]models.Assignment)
	assignmentIDs := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		assignmentsByCourse[assignment.CourseID] = append(assignmentsByCourse[assignment.CourseID], assignment)
		assignmentIDs = append(assignmentIDs, assignment.ID)
	}

	submissionsByAssignment := make(map[uint][]models.Submission)
	if len(assignmentIDs) > 0 {
		submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{StudentID: &student.ID, AssignmentIDs: assignmentIDs})
		if err != nil {
			return dto.StudentGradebookResponse{}, err
		}
		for _, submission := range submissions {
			submissionsByAssignment[submission.AssignmentID] = append(submissionsByAssignment[submission.AssignmentID], submission)
		}
	}

	records, err := s.attendance.ListByCoursesStudents(ctx, courseIDs, []uint{student.ID})
	if err != nil {
		return dto.StudentGradebookResponse{}, err
	}
	recordsByCourse := make(map[uint][]models.Attendance)
	for _, record := range records {
		recordsByCourse[record.CourseID] = append(recordsByCourse[record.CourseID], record)
	}

	response := dto.StudentGradebookResponse{
		Student:     dto.PersonLite{ID: student.ID, Name: student.Name, Email: student.Email},
		Courses:     make([]dto.CourseGrade, 0, len(courses)),
		GeneratedAt: s.now().UTC(),
	}
	for _, course := range courses {
		courseAssignments := assignmentsByCourse[course.ID]
		var submissions []models.Submission
		for _, assignment := range courseAssignments {
			submissions = append(submissions, submissionsByAssignment[assignment.ID]...)
		}

		breakdown, summary := courseStanding(course, courseAssignments, submissions, recordsByCourse[course.ID])
		response.Courses = append(response.Courses, dto.CourseGrade{
			CourseID:   course.ID,
			CourseName: course.Name,
			Breakdown:  breakdown,
			Attendance: summary,
		})
	}

	observability.GradeComputations().WithLabelValues("student").Inc()
	return response, nil
}

func (s *gradebookService) CourseView(ctx context.Context, actor Actor, courseID uint) (dto.CourseGradebookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "gradebook.course")
	span.SetAttributes(attribute.Int64("gradebook.course_id", int64(courseID)))
	defer span.End()

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.CourseGradebookResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return dto.CourseGradebookResponse{}, ErrUnauthorized
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.CourseGradebookResponse{}, err
	}
	assignmentIDs := make([]uint, 0, len(assignments))
	for _, assignment := range assignments {
		assignmentIDs = append(assignmentIDs, assignment.ID)
	}

	submissionsByStudent := make(map[uint][]models.Submission)
	if len(assignmentIDs) > 0 {
		submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentIDs: assignmentIDs})
		if err != nil {
			return dto.CourseGradebookResponse{}, err
		}
		for _, submission := range submissions {
			submissionsByStudent[submission.StudentID] = append(submissionsByStudent[submission.StudentID], submission)
		}
	}

	records, err := s.attendance.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.CourseGradebookResponse{}, err
	}
	recordsByStudent := make(map[uint][]models.Attendance)
	for _, record := range records {
		recordsByStudent[record.StudentID] = append(recordsByStudent[record.StudentID], record)
	}

	response := dto.CourseGradebookResponse{
		CourseID:    course.ID,
		CourseName:  course.Name,
		Assignments: dto.NewAssignmentResponseSlice(assignments),
		Rows:        make([]dto.CourseGradebookRow, 0, len(course.Students)),
		GeneratedAt: s.now().UTC(),
	}
	for _, student := range course.Students {
		breakdown, summary := courseStanding(course, assignments, submissionsByStudent[student.ID], recordsByStudent[student.ID])
		response.Rows = append(response.Rows, dto.CourseGradebookRow{
			Student:    dto.PersonLite{ID: student.ID, Name: student.Name, Email: student.Email},
			Breakdown:  breakdown,
			Attendance: summary,
		})
	}

	observability.GradeComputations().WithLabelValues("course").Inc()
	span.SetAttributes(attribute.Int("gradebook.rows", len(response.Rows)))
	return response, nil
}

func (s *gradebookService) HomeroomView(ctx context.Context, actor Actor, homeroomID uint) (dto.HomeroomGradebookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "gradebook.homeroom")
	span.SetAttributes(attribute.Int64("gradebook.homeroom_id", int64(homeroomID)))
	defer span.End()

	homeroom, err := s.people.GetHomeroom(ctx, homeroomID)
	if err != nil {
		return dto.HomeroomGradebookResponse{}, notFound(err, ErrHomeroomNotFound)
	}
	if !actor.IsAdmin() && !(actor.IsTeacher() && homeroom.TeacherID == actor.ID) {
		return dto.HomeroomGradebookResponse{}, ErrUnauthorized
	}

	response := dto.HomeroomGradebookResponse{
		HomeroomID:   homeroom.ID,
		HomeroomName: homeroom.Name,
		Students:     make([]dto.StudentGradebookResponse, 0, len(homeroom.Students)),
		GeneratedAt:  s.now().UTC(),
	}
	for _, student := range homeroom.Students {
		view, err := s.studentGradebook(ctx, student)
		if err != nil {
			span.RecordError(err)
			return dto.HomeroomGradebookResponse{}, err
		}
		response.Students = append(response.Students, view)
	}

	observability.GradeComputations().WithLabelValues("homeroom").Inc()
	return response, nil
}

func (s *gradebookService) Invalidate(ctx context.Context, studentIDs ...uint) {
	if s.cache == nil || len(studentIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		keys = append(keys, gradebookCacheKey(id))
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Int("keys", len(keys)).Msg("failed to invalidate gradebook cache")
	}
}

// courseStanding is the single place a student's course grade is derived.
func courseStanding(course models.Course, assignments []models.Assignment, submissions []models.Submission, records []models.Attendance) (grading.GradeBreakdown, grading.AttendanceSummary) {
	summary := grading.SummarizeRecords(records)
	scores := grading.ScoresFor(assignments, submissions)
	return grading.CalculateGrade(scores, course.AttendancePoolScore, summary.Percentage), summary
}
