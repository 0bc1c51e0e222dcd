package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/config"
	"github.com/noah-isme/gema-school-api/internal/handler"
	"github.com/noah-isme/gema-school-api/internal/middleware"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/repository"
	"github.com/noah-isme/gema-school-api/internal/router"
	"github.com/noah-isme/gema-school-api/internal/service"
)

const (
	headerTestUser = "X-Test-User"
	headerTestRole = "X-Test-Role"
)

type memoryUploader struct{}

func (memoryUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	return "https://files.test/" + name, nil
}

type identity struct {
	id   uint
	role string
}

// testApp is the full API wired over SQLite. Identity comes from test
// headers instead of a signed token.
type testApp struct {
	app      *fiber.App
	db       *gorm.DB
	admin    identity
	teacher  identity
	other    identity
	students []identity
	termID   uint
}

func newTestApp(t *testing.T, studentCount int) *testApp {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	termRepo := repository.NewTermRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	peopleRepo := repository.NewPeopleRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), validate, logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validate, logger)
	gradebook := service.NewGradebookService(service.GradebookDependencies{
		Courses:     courseRepo,
		Assignments: assignmentRepo,
		Submissions: submissionRepo,
		Attendance:  attendanceRepo,
		People:      peopleRepo,
	}, logger)
	submissions := service.NewSubmissionService(service.SubmissionDependencies{
		Submissions:   submissionRepo,
		Assignments:   assignmentRepo,
		Courses:       courseRepo,
		Validator:     validate,
		Uploader:      memoryUploader{},
		MaxUploadMB:   1,
		Notifications: notifications,
		Activity:      activity,
		Gradebook:     gradebook,
	}, logger)

	app := fiber.New()
	cfg := config.Config{AppName: "Test", AppEnv: "test", JWTSecret: "secret", RateLimitMax: 1000, RateLimitWindow: time.Minute}
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:       handler.NewCourseHandler(service.NewTermService(termRepo, validate, logger), service.NewCourseService(courseRepo, termRepo, peopleRepo, validate, activity, gradebook, logger), logger),
		AssignmentHandler:   handler.NewAssignmentHandler(service.NewAssignmentService(assignmentRepo, courseRepo, validate, activity, gradebook, logger), submissions, logger),
		AttendanceHandler:   handler.NewAttendanceHandler(service.NewAttendanceService(attendanceRepo, courseRepo, validate, activity, gradebook, logger), logger),
		ScheduleHandler:     handler.NewScheduleHandler(service.NewScheduleService(repository.NewScheduleRepository(db), courseRepo, validate, notifications, activity, logger), logger),
		GradebookHandler:    handler.NewGradebookHandler(gradebook, logger),
		QuizHandler:         handler.NewQuizHandler(service.NewQuizService(repository.NewQuizRepository(db), courseRepo, validate, logger), logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, logger, time.Second),
		ActivityHandler:     handler.NewActivityHandler(activity, logger),
		JWTMiddleware: func(c *fiber.Ctx) error {
			id, err := strconv.ParseUint(c.Get(headerTestUser), 10, 64)
			if err != nil || id == 0 {
				return fiber.ErrUnauthorized
			}
			c.Locals(middleware.LocalUserID, uint(id))
			c.Locals(middleware.LocalUserRole, c.Get(headerTestRole))
			return c.Next()
		},
	})

	env := &testApp{app: app, db: db, admin: identity{id: 1, role: middleware.RoleAdmin}}

	teacher := models.Teacher{Name: "Pak Budi", Email: "budi@school.test"}
	other := models.Teacher{Name: "Bu Ani", Email: "ani@school.test"}
	term := models.Term{
		Name:     "2026 Odd",
		StartsAt: time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&term).Error)
	env.teacher = identity{id: teacher.ID, role: middleware.RoleTeacher}
	env.other = identity{id: other.ID, role: middleware.RoleTeacher}
	env.termID = term.ID

	for i := 0; i < studentCount; i++ {
		student := models.Student{Name: fmt.Sprintf("Student %02d", i+1), Email: fmt.Sprintf("s%02d@school.test", i+1)}
		require.NoError(t, db.Create(&student).Error)
		env.students = append(env.students, identity{id: student.ID, role: middleware.RoleStudent})
	}
	return env
}

func (e *testApp) do(t *testing.T, who identity, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	e.authorize(req, who)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testApp) upload(t *testing.T, who identity, path, field, filename string, content []byte, fields map[string]string) *http.Response {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	e.authorize(req, who)

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testApp) authorize(req *http.Request, who identity) {
	if who.id == 0 {
		return
	}
	req.Header.Set(headerTestUser, strconv.FormatUint(uint64(who.id), 10))
	req.Header.Set(headerTestRole, who.role)
}

// createCourse goes through the API as admin and enrolls the given students.
func (e *testApp) createCourse(t *testing.T, name string, teacher identity, pool float64, students ...identity) uint {
	t.Helper()

	resp := e.do(t, e.admin, http.MethodPost, "/api/v1/courses", map[string]interface{}{
		"name":                  name,
		"teacher_id":            teacher.id,
		"term_id":               e.termID,
		"attendance_pool_score": pool,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created envelope[struct {
		ID uint `json:"id"`
	}]
	decodeResponse(t, resp, &created)

	if len(students) > 0 {
		ids := make([]uint, 0, len(students))
		for _, student := range students {
			ids = append(ids, student.id)
		}
		resp = e.do(t, e.admin, http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/students", created.Data.ID), map[string]interface{}{"student_ids": ids})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	return created.Data.ID
}

type envelope[T any] struct {
	Success bool            `json:"success"`
	Data    T               `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
	Message string          `json:"message"`
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target), string(data))
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
}
