package dto

import (
	"time"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// QuizCreateRequest defines a multiple-choice quiz.
type QuizCreateRequest struct {
	Title       string                `json:"title" validate:"required,min=3,max=255"`
	Description string                `json:"description" validate:"omitempty,max=5000"`
	Questions   []QuizQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// QuizQuestionRequest is one question of a new quiz.
type QuizQuestionRequest struct {
	Prompt       string   `json:"prompt" validate:"required,min=1,max=2000"`
	Options      []string `json:"options" validate:"required,min=2,max=10,dive,required,max=500"`
	CorrectIndex int      `json:"correct_index" validate:"gte=0"`
	Points       float64  `json:"points" validate:"gt=0"`
}

// QuizAttemptRequest maps question identifiers to the chosen option index.
type QuizAttemptRequest struct {
	Answers map[uint]int `json:"answers" validate:"required,min=1"`
}

// QuizQuestionResponse serializes a question. CorrectIndex is omitted for students.
type QuizQuestionResponse struct {
	ID           uint     `json:"id"`
	Position     int      `json:"position"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	Points       float64  `json:"points"`
	CorrectIndex *int     `json:"correct_index,omitempty"`
}

// QuizResponse serializes a quiz.
type QuizResponse struct {
	ID          uint                   `json:"id"`
	CourseID    uint                   `json:"course_id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	MaxScore    float64                `json:"max_score"`
	Questions   []QuizQuestionResponse `json:"questions"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NewQuizResponse converts a quiz, revealing answers only when asked to.
func NewQuizResponse(quiz models.Quiz, revealAnswers bool) QuizResponse {
	response := QuizResponse{
		ID:          quiz.ID,
		CourseID:    quiz.CourseID,
		Title:       quiz.Title,
		Description: quiz.Description,
		MaxScore:    quiz.MaxScore(),
		Questions:   make([]QuizQuestionResponse, 0, len(quiz.Questions)),
		CreatedAt:   quiz.CreatedAt,
	}
	for _, question := range quiz.Questions {
		item := QuizQuestionResponse{
			ID:       question.ID,
			Position: question.Position,
			Prompt:   question.Prompt,
			Options:  []string(question.Options),
			Points:   question.Points,
		}
		if revealAnswers {
			correct := question.CorrectIndex
			item.CorrectIndex = &correct
		}
		response.Questions = append(response.Questions, item)
	}
	return response
}

// NewQuizResponseSlice converts quizzes.
func NewQuizResponseSlice(quizzes []models.Quiz, revealAnswers bool) []QuizResponse {
	out := make([]QuizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		out = append(out, NewQuizResponse(quiz, revealAnswers))
	}
	return out
}

// QuizAttemptResponse is the graded result of an attempt.
type QuizAttemptResponse struct {
	ID          uint       `json:"id"`
	QuizID      uint       `json:"quiz_id"`
	Student     PersonLite `json:"student"`
	Score       float64    `json:"score"`
	MaxScore    float64    `json:"max_score"`
	Percentage  float64    `json:"percentage"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// NewQuizAttemptResponse converts an attempt.
func NewQuizAttemptResponse(attempt models.QuizAttempt) QuizAttemptResponse {
	student := newStudentLite(attempt.Student)
	if student.ID == 0 {
		student.ID = attempt.StudentID
	}
	return QuizAttemptResponse{
		ID:          attempt.ID,
		QuizID:      attempt.QuizID,
		Student:     student,
		Score:       attempt.Score,
		MaxScore:    attempt.MaxScore,
		Percentage:  attempt.Percentage,
		SubmittedAt: attempt.SubmittedAt,
	}
}

// NewQuizAttemptResponseSlice converts attempts.
func NewQuizAttemptResponseSlice(attempts []models.QuizAttempt) []QuizAttemptResponse {
	out := make([]QuizAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		out = append(out, NewQuizAttemptResponse(attempt))
	}
	return out
}
