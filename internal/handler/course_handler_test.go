package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/dto"
)

func TestTermCreateRequiresAdmin(t *testing.T) {
	env := newTestApp(t, 0)
	payload := map[string]string{
		"name":      "2027 Even",
		"starts_at": "2027-01-04T00:00:00Z",
		"ends_at":   "2027-06-18T00:00:00Z",
	}

	resp := env.do(t, env.teacher, http.MethodPost, "/api/v1/terms", payload)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.admin, http.MethodPost, "/api/v1/terms", payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created envelope[dto.TermResponse]
	decodeResponse(t, resp, &created)
	require.True(t, created.Success)
	require.Equal(t, "2027 Even", created.Data.Name)

	resp = env.do(t, env.students[0], http.MethodGet, "/api/v1/terms", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed envelope[[]dto.TermResponse]
	decodeResponse(t, resp, &listed)
	require.Len(t, listed.Data, 2)
}

func TestTermCreateReportsValidationDetails(t *testing.T) {
	env := newTestApp(t, 0)

	resp := env.do(t, env.admin, http.MethodPost, "/api/v1/terms", map[string]string{
		"name":      "Backwards",
		"starts_at": "2027-06-18T00:00:00Z",
		"ends_at":   "2027-01-04T00:00:00Z",
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body envelope[any]
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "validation failed", body.Message)
	require.JSONEq(t, `{"EndsAt":"gtfield"}`, string(body.Details))
}

func TestCourseEndpointsScopeAndErrors(t *testing.T) {
	env := newTestApp(t, 2)
	courseID := env.createCourse(t, "Biology", env.teacher, 10, env.students[0])

	resp := env.do(t, env.students[0], http.MethodGet, fmt.Sprintf("/api/v1/courses/%d", courseID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, env.students[1], http.MethodGet, fmt.Sprintf("/api/v1/courses/%d", courseID), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.students[1], http.MethodGet, "/api/v1/courses", nil)
	var listed envelope[[]dto.CourseResponse]
	decodeResponse(t, resp, &listed)
	require.Empty(t, listed.Data)

	resp = env.do(t, env.admin, http.MethodGet, "/api/v1/courses/abc", nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, env.admin, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d", courseID+50), nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.do(t, env.students[0], http.MethodPatch, fmt.Sprintf("/api/v1/courses/%d", courseID), map[string]string{"name": "Hacked"})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.teacher, http.MethodPatch, fmt.Sprintf("/api/v1/courses/%d", courseID), map[string]string{"name": "Biology II"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var updated envelope[dto.CourseResponse]
	decodeResponse(t, resp, &updated)
	require.Equal(t, "Biology II", updated.Data.Name)

	resp = env.do(t, env.other, http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d/students/%d", courseID, env.students[0].id), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.teacher, http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d/students/%d", courseID, env.students[0].id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, env.students[0], http.MethodGet, fmt.Sprintf("/api/v1/courses/%d", courseID), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestProtectedRoutesRequireIdentity(t *testing.T) {
	env := newTestApp(t, 0)

	resp := env.do(t, identity{}, http.MethodGet, "/api/v1/courses", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, identity{}, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
