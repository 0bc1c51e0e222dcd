package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/dto"
)

func TestAttendanceSessionRoundTrip(t *testing.T) {
	env := newTestApp(t, 2)
	courseID := env.createCourse(t, "Civics", env.teacher, 10, env.students...)
	path := fmt.Sprintf("/api/v1/courses/%d/attendance", courseID)

	resp := env.do(t, env.teacher, http.MethodPost, path, map[string]interface{}{
		"date":   "2026-08-18",
		"period": 2,
		"records": []map[string]interface{}{
			{"student_id": env.students[0].id, "status": "PRESENT"},
			{"student_id": env.students[1].id, "status": "ABSENT", "note": "no letter"},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, env.teacher, http.MethodGet, path+"?date=2026-08-18&period=2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var session envelope[[]dto.AttendanceResponse]
	decodeResponse(t, resp, &session)
	require.Len(t, session.Data, 2)

	resp = env.do(t, env.teacher, http.MethodGet, path+"?date=18-08-2026&period=2", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	summaryPath := fmt.Sprintf("%s/students/%d/summary", path, env.students[1].id)
	resp = env.do(t, env.students[0], http.MethodGet, summaryPath, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.students[1], http.MethodGet, summaryPath, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var summary envelope[dto.AttendanceSummaryResponse]
	decodeResponse(t, resp, &summary)
	require.Equal(t, 1, summary.Data.Summary.Absent)
	require.Zero(t, summary.Data.Summary.Percentage)

	resp = env.do(t, env.teacher, http.MethodDelete, fmt.Sprintf("/api/v1/attendance/%d", session.Data[1].ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAttendanceRejectsBadSessions(t *testing.T) {
	env := newTestApp(t, 2)
	courseID := env.createCourse(t, "Sports", env.teacher, 0, env.students[0])
	path := fmt.Sprintf("/api/v1/courses/%d/attendance", courseID)

	resp := env.do(t, env.teacher, http.MethodPost, path, map[string]interface{}{
		"date":    "2026-08-19",
		"period":  1,
		"records": []map[string]interface{}{{"student_id": env.students[1].id, "status": "PRESENT"}},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, env.teacher, http.MethodPost, path, map[string]interface{}{
		"date":    "2026-08-19",
		"period":  1,
		"records": []map[string]interface{}{{"student_id": env.students[0].id, "status": "LATE"}},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, env.students[0], http.MethodPost, path, map[string]interface{}{
		"date":    "2026-08-19",
		"period":  1,
		"records": []map[string]interface{}{{"student_id": env.students[0].id, "status": "PRESENT"}},
	})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
