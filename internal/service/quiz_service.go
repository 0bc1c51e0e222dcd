package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/repository"
)

// QuizService runs auto-graded multiple-choice quizzes.
type QuizService interface {
	Create(ctx context.Context, actor Actor, courseID uint, payload dto.QuizCreateRequest) (dto.QuizResponse, error)
	List(ctx context.Context, actor Actor, courseID uint) ([]dto.QuizResponse, error)
	Attempt(ctx context.Context, actor Actor, quizID uint, payload dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error)
	ListAttempts(ctx context.Context, actor Actor, quizID uint) ([]dto.QuizAttemptResponse, error)
}

type quizService struct {
	quizzes   repository.QuizRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewQuizService builds a quiz service.
func NewQuizService(quizzes repository.QuizRepository, courses repository.CourseRepository, validate *validator.Validate, logger zerolog.Logger) QuizService {
	return &quizService{
		quizzes:   quizzes,
		courses:   courses,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "quiz_service").Logger(),
		now:       time.Now,
	}
}

func (s *quizService) Create(ctx context.Context, actor Actor, courseID uint, payload dto.QuizCreateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.QuizResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return dto.QuizResponse{}, ErrUnauthorized
	}

	quiz := models.Quiz{
		CourseID:    courseID,
		Title:       strings.TrimSpace(payload.Title),
		Description: s.sanitizer.Sanitize(payload.Description),
		CreatedBy:   actor.ID,
		Questions:   make([]models.QuizQuestion, 0, len(payload.Questions)),
	}
	for i, question := range payload.Questions {
		if question.CorrectIndex >= len(question.Options) {
			return dto.QuizResponse{}, fmt.Errorf("%w: question %d", ErrInvalidQuestion, i+1)
		}
		options := make(datatypes.JSONSlice[string], 0, len(question.Options))
		for _, option := range question.Options {
			options = append(options, s.sanitizer.Sanitize(option))
		}
		quiz.Questions = append(quiz.Questions, models.QuizQuestion{
			Position:     i + 1,
			Prompt:       s.sanitizer.Sanitize(question.Prompt),
			Options:      options,
			CorrectIndex: question.CorrectIndex,
			Points:       question.Points,
		})
	}

	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, err
	}

	s.logger.Info().Uint("quiz_id", quiz.ID).Int("questions", len(quiz.Questions)).Msg("quiz created")
	return dto.NewQuizResponse(quiz, true), nil
}

// List hides the correct options from students.
func (s *quizService) List(ctx context.Context, actor Actor, courseID uint) ([]dto.QuizResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !canViewCourse(actor, course) {
		return nil, ErrUnauthorized
	}

	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewQuizResponseSlice(quizzes, canManageCourse(actor, course)), nil
}

// Attempt grades a student's single attempt. Unanswered questions score zero.
func (s *quizService) Attempt(ctx context.Context, actor Actor, quizID uint, payload dto.QuizAttemptRequest) (dto.QuizAttemptResponse, error) {
	if !actor.IsStudent() {
		return dto.QuizAttemptResponse{}, ErrUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return dto.QuizAttemptResponse{}, notFound(err, ErrQuizNotFound)
	}
	enrolled, err := s.courses.IsEnrolled(ctx, quiz.CourseID, actor.ID)
	if err != nil {
		return dto.QuizAttemptResponse{}, err
	}
	if !enrolled {
		return dto.QuizAttemptResponse{}, ErrNotEnrolled
	}

	if _, err := s.quizzes.GetAttempt(ctx, quizID, actor.ID); err == nil {
		return dto.QuizAttemptResponse{}, ErrQuizAlreadyAttempted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.QuizAttemptResponse{}, err
	}

	score, answers, err := scoreQuiz(quiz, payload.Answers)
	if err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	maxScore := quiz.MaxScore()
	percentage := 0.0
	if maxScore > 0 {
		percentage = math.Max(0, math.Min(100, score/maxScore*100))
	}

	attempt := models.QuizAttempt{
		QuizID:      quiz.ID,
		StudentID:   actor.ID,
		Answers:     answers,
		Score:       score,
		MaxScore:    maxScore,
		Percentage:  percentage,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.quizzes.CreateAttempt(ctx, &attempt); err != nil {
		return dto.QuizAttemptResponse{}, err
	}

	s.logger.Info().Uint("quiz_id", quiz.ID).Uint("student_id", actor.ID).Float64("percentage", percentage).Msg("quiz attempt graded")
	return dto.NewQuizAttemptResponse(attempt), nil
}

func (s *quizService) ListAttempts(ctx context.Context, actor Actor, quizID uint) ([]dto.QuizAttemptResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, notFound(err, ErrQuizNotFound)
	}
	course, err := s.courses.GetByID(ctx, quiz.CourseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return nil, ErrUnauthorized
	}

	attempts, err := s.quizzes.ListAttempts(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return dto.NewQuizAttemptResponseSlice(attempts), nil
}

func scoreQuiz(quiz models.Quiz, answers map[uint]int) (float64, datatypes.JSONMap, error) {
	questions := make(map[uint]models.QuizQuestion, len(quiz.Questions))
	for _, question := range quiz.Questions {
		questions[question.ID] = question
	}

	stored := datatypes.JSONMap{}
	var score float64
	for questionID, choice := range answers {
		question, ok := questions[questionID]
		if !ok {
			return 0, nil, fmt.Errorf("%w: unknown question %d", ErrInvalidAnswer, questionID)
		}
		if choice < 0 || choice >= len(question.Options) {
			return 0, nil, fmt.Errorf("%w: option %d for question %d", ErrInvalidAnswer, choice, questionID)
		}
		stored[strconv.FormatUint(uint64(questionID), 10)] = choice
		if choice == question.CorrectIndex {
			score += question.Points
		}
	}
	return score, stored, nil
}
