package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/grading"
)

func TestScheduleAssignReturnsConflictDetails(t *testing.T) {
	env := newTestApp(t, 2)
	math := env.createCourse(t, "Math", env.teacher, 0, env.students[0], env.students[1])
	art := env.createCourse(t, "Art", env.other, 0, env.students[1])

	resp := env.do(t, env.teacher, http.MethodPost, "/api/v1/schedules", map[string]interface{}{
		"course_id": math, "day_of_week": 1, "period": 3,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, env.other, http.MethodPost, "/api/v1/schedules", map[string]interface{}{
		"course_id": art, "day_of_week": 1, "period": 3,
	})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body struct {
		Success bool               `json:"success"`
		Message string             `json:"message"`
		Details []grading.Conflict `json:"details"`
	}
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "schedule conflict", body.Message)
	require.Len(t, body.Details, 1)
	require.Equal(t, grading.ConflictStudent, body.Details[0].Kind)
	require.Equal(t, env.students[1].id, body.Details[0].StudentID)
	require.Equal(t, math, body.Details[0].CourseID)

	resp = env.do(t, env.admin, http.MethodPost, "/api/v1/schedules", map[string]interface{}{
		"course_id": art, "day_of_week": 1, "period": 3, "override": true,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.do(t, env.students[1], http.MethodGet, fmt.Sprintf("/api/v1/students/%d/schedules", env.students[1].id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var grid envelope[[]dto.ScheduleResponse]
	decodeResponse(t, resp, &grid)
	require.Len(t, grid.Data, 2)
}

func TestScheduleRoutesGuardRoles(t *testing.T) {
	env := newTestApp(t, 1)
	course := env.createCourse(t, "History", env.teacher, 0, env.students[0])

	resp := env.do(t, env.students[0], http.MethodPost, "/api/v1/schedules", map[string]interface{}{
		"course_id": course, "day_of_week": 2, "period": 1,
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.students[0], http.MethodGet, fmt.Sprintf("/api/v1/teachers/%d/schedules", env.teacher.id), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.teacher, http.MethodPost, "/api/v1/schedules", map[string]interface{}{
		"course_id": course, "day_of_week": 9, "period": 1,
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, env.teacher, http.MethodDelete, "/api/v1/schedules/999", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
