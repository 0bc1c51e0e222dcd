package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []dto.NotificationCreateRequest
}

func (p *recordingPublisher) Publish(_ context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, payload)
	return dto.NotificationResponse{ID: uint(len(p.sent)), UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

func (p *recordingPublisher) byType(kind string) []dto.NotificationCreateRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []dto.NotificationCreateRequest
	for _, item := range p.sent {
		if item.Type == kind {
			out = append(out, item)
		}
	}
	return out
}

type stubUploader struct {
	calls int
	names []string
}

func (u *stubUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	u.calls++
	u.names = append(u.names, name)
	return "https://files.test/" + name, nil
}

// testEnv wires every grading-related service against one SQLite database
// and a miniredis gradebook cache.
type testEnv struct {
	db       *gorm.DB
	mini     *miniredis.Miniredis
	notified *recordingPublisher
	uploader *stubUploader

	courseRepo repository.CourseRepository

	activity    ActivityService
	gradebook   GradebookService
	courses     CourseService
	assignments AssignmentService
	submissions SubmissionService
	attendance  AttendanceService
	schedules   ScheduleService
	quizzes     QuizService

	admin        Actor
	teacher      models.Teacher
	otherTeacher models.Teacher
	term         models.Term
	students     []models.Student
}

func newTestEnv(t *testing.T, studentCount int) *testEnv {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	db := setupServiceDB(t)
	validate := testValidator()
	logger := testLogger()

	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	peopleRepo := repository.NewPeopleRepository(db)

	env := &testEnv{
		db:         db,
		mini:       mini,
		notified:   &recordingPublisher{},
		uploader:   &stubUploader{},
		courseRepo: courseRepo,
		admin:      Actor{ID: 1, Role: RoleAdmin},
	}

	env.activity = NewActivityService(repository.NewActivityLogRepository(db), validate, logger)
	env.gradebook = NewGradebookService(GradebookDependencies{
		Courses:     courseRepo,
		Assignments: assignmentRepo,
		Submissions: submissionRepo,
		Attendance:  attendanceRepo,
		People:      peopleRepo,
		Cache:       redisClient,
		CacheTTL:    time.Minute,
	}, logger)
	env.courses = NewCourseService(courseRepo, repository.NewTermRepository(db), peopleRepo, validate, env.activity, env.gradebook, logger)
	env.assignments = NewAssignmentService(assignmentRepo, courseRepo, validate, env.activity, env.gradebook, logger)
	env.submissions = NewSubmissionService(SubmissionDependencies{
		Submissions:   submissionRepo,
		Assignments:   assignmentRepo,
		Courses:       courseRepo,
		Validator:     validate,
		Uploader:      env.uploader,
		MaxUploadMB:   1,
		Notifications: env.notified,
		Activity:      env.activity,
		Gradebook:     env.gradebook,
	}, logger)
	env.attendance = NewAttendanceService(attendanceRepo, courseRepo, validate, env.activity, env.gradebook, logger)
	env.schedules = NewScheduleService(repository.NewScheduleRepository(db), courseRepo, validate, env.notified, env.activity, logger)
	env.quizzes = NewQuizService(repository.NewQuizRepository(db), courseRepo, validate, logger)

	env.teacher = models.Teacher{Name: "Pak Budi", Email: "budi@school.test"}
	env.otherTeacher = models.Teacher{Name: "Bu Ani", Email: "ani@school.test"}
	env.term = models.Term{
		Name:     "2026 Odd",
		StartsAt: time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(&env.teacher).Error)
	require.NoError(t, db.Create(&env.otherTeacher).Error)
	require.NoError(t, db.Create(&env.term).Error)

	for i := 0; i < studentCount; i++ {
		student := models.Student{Name: fmt.Sprintf("Student %02d", i+1), Email: fmt.Sprintf("s%02d@school.test", i+1)}
		require.NoError(t, db.Create(&student).Error)
		env.students = append(env.students, student)
	}
	return env
}

func (e *testEnv) teacherActor() Actor {
	return Actor{ID: e.teacher.ID, Role: RoleTeacher}
}

func (e *testEnv) studentActor(i int) Actor {
	return Actor{ID: e.students[i].ID, Role: RoleStudent}
}

// course creates a course owned by teacherID and enrolls the given students.
func (e *testEnv) course(t *testing.T, name string, teacherID uint, pool float64, students ...models.Student) models.Course {
	t.Helper()
	course := models.Course{Name: name, TeacherID: teacherID, TermID: e.term.ID, AttendancePoolScore: pool}
	require.NoError(t, e.courseRepo.Create(context.Background(), &course))
	if len(students) > 0 {
		ids := make([]uint, 0, len(students))
		for _, student := range students {
			ids = append(ids, student.ID)
		}
		require.NoError(t, e.courseRepo.AddStudents(context.Background(), course.ID, ids))
	}
	return course
}

func (e *testEnv) assignment(t *testing.T, courseID uint, maxPoints float64, extra bool, penalty float64, due *time.Time) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		CourseID:      courseID,
		Title:         fmt.Sprintf("Task %.0f", maxPoints),
		MaxPoints:     maxPoints,
		IsExtraCredit: extra,
		LatePenalty:   penalty,
		DueDate:       due,
	}
	require.NoError(t, e.db.Omit("Submissions").Create(&assignment).Error)
	return assignment
}

func (e *testEnv) gradedSubmission(t *testing.T, assignmentID, studentID uint, grade float64, submittedAt time.Time) models.Submission {
	t.Helper()
	submission := models.Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		FileURL:      "https://files.test/work.pdf",
		Status:       models.SubmissionStatusGraded,
		Grade:        &grade,
		SubmittedAt:  submittedAt,
	}
	require.NoError(t, e.db.Omit("Assignment", "Student", "History").Create(&submission).Error)
	return submission
}

func multipartFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
}

func ptrTime(v time.Time) *time.Time {
	return &v
}
