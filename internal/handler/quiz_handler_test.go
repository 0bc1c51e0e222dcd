package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/dto"
)

func TestQuizAttemptOverHTTP(t *testing.T) {
	env := newTestApp(t, 1)
	courseID := env.createCourse(t, "Astronomy", env.teacher, 0, env.students[0])

	resp := env.do(t, env.teacher, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/quizzes", courseID), map[string]interface{}{
		"title": "Planets",
		"questions": []map[string]interface{}{
			{"prompt": "Largest planet?", "options": []string{"Mars", "Jupiter"}, "correct_index": 1, "points": 2},
			{"prompt": "Closest to the sun?", "options": []string{"Mercury", "Venus"}, "correct_index": 0, "points": 2},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, env.students[0], http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/quizzes", courseID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var quizzes envelope[[]dto.QuizResponse]
	decodeResponse(t, resp, &quizzes)
	require.Len(t, quizzes.Data, 1)
	quiz := quizzes.Data[0]
	for _, question := range quiz.Questions {
		require.Nil(t, question.CorrectIndex)
	}

	attemptPath := fmt.Sprintf("/api/v1/quizzes/%d/attempts", quiz.ID)
	answers := map[string]int{
		fmt.Sprint(quiz.Questions[0].ID): 1,
		fmt.Sprint(quiz.Questions[1].ID): 1,
	}
	resp = env.do(t, env.teacher, http.MethodPost, attemptPath, map[string]interface{}{"answers": answers})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.students[0], http.MethodPost, attemptPath, map[string]interface{}{"answers": answers})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var attempt envelope[dto.QuizAttemptResponse]
	decodeResponse(t, resp, &attempt)
	require.InDelta(t, 2, attempt.Data.Score, 1e-9)
	require.InDelta(t, 4, attempt.Data.MaxScore, 1e-9)

	resp = env.do(t, env.students[0], http.MethodPost, attemptPath, map[string]interface{}{"answers": answers})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp = env.do(t, env.teacher, http.MethodGet, attemptPath, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var attempts envelope[[]dto.QuizAttemptResponse]
	decodeResponse(t, resp, &attempts)
	require.Len(t, attempts.Data, 1)
}
