package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/models"
)

func TestStudentGradebookContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "student_gradebook.schema.json"))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	env := newTestApp(t, 1)
	student := env.students[0]
	courseID := env.createCourse(t, "Chemistry", env.teacher, 10, student)

	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	assignment := models.Assignment{CourseID: courseID, Title: "Titration report", MaxPoints: 100, LatePenalty: 10, DueDate: &due}
	require.NoError(t, env.db.Omit("Submissions").Create(&assignment).Error)
	grade := 80.0
	submission := models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    student.id,
		FileURL:      "https://files.test/report.pdf",
		Status:       models.SubmissionStatusGraded,
		Grade:        &grade,
		SubmittedAt:  due.Add(time.Hour),
	}
	require.NoError(t, env.db.Omit("Assignment", "Student", "History").Create(&submission).Error)

	resp := env.do(t, env.teacher, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/attendance", courseID), map[string]interface{}{
		"date":    "2026-08-17",
		"period":  1,
		"records": []map[string]interface{}{{"student_id": student.id, "status": "PRESENT"}},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.do(t, student, http.MethodGet, "/api/v1/gradebook/me", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var document interface{}
	require.NoError(t, json.Unmarshal(raw, &document))
	require.NoError(t, schema.Validate(document))

	var body envelope[dto.StudentGradebookResponse]
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Len(t, body.Data.Courses, 1)
	breakdown := body.Data.Courses[0].Breakdown
	require.InDelta(t, 72, breakdown.EarnedPoints, 1e-9)
	require.InDelta(t, 10, breakdown.AttendanceScore, 1e-9)
	require.InDelta(t, 82.0/110*100, breakdown.Grade, 1e-9)
}

func TestGradebookViewsAgreeOverHTTP(t *testing.T) {
	env := newTestApp(t, 2)
	courseID := env.createCourse(t, "Physics", env.teacher, 0, env.students...)

	assignment := models.Assignment{CourseID: courseID, Title: "Kinematics", MaxPoints: 40}
	require.NoError(t, env.db.Omit("Submissions").Create(&assignment).Error)
	grade := 75.0
	require.NoError(t, env.db.Omit("Assignment", "Student", "History").Create(&models.Submission{
		AssignmentID: assignment.ID,
		StudentID:    env.students[0].id,
		FileURL:      "https://files.test/k.pdf",
		Status:       models.SubmissionStatusGraded,
		Grade:        &grade,
		SubmittedAt:  time.Now().UTC(),
	}).Error)

	resp := env.do(t, env.teacher, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/gradebook", courseID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var courseView envelope[dto.CourseGradebookResponse]
	decodeResponse(t, resp, &courseView)
	require.Len(t, courseView.Data.Rows, 2)

	resp = env.do(t, env.teacher, http.MethodGet, fmt.Sprintf("/api/v1/gradebook/students/%d", env.students[0].id), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var studentView envelope[dto.StudentGradebookResponse]
	decodeResponse(t, resp, &studentView)

	for _, row := range courseView.Data.Rows {
		if row.Student.ID == env.students[0].id {
			require.InDelta(t, studentView.Data.Courses[0].Breakdown.Grade, row.Breakdown.Grade, 1e-9)
			require.InDelta(t, 75, row.Breakdown.Grade, 1e-9)
		}
	}

	resp = env.do(t, env.students[1], http.MethodGet, fmt.Sprintf("/api/v1/gradebook/students/%d", env.students[0].id), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.students[0], http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/gradebook", courseID), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, env.other, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/gradebook", courseID), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
