package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/models"
)

// seedGradedCourse builds one course with a late graded task, an on-time task,
// an extra credit task and four attendance sessions for students[0].
func seedGradedCourse(t *testing.T, env *testEnv) models.Course {
	t.Helper()
	ctx := context.Background()

	course := env.course(t, "Biology", env.teacher.ID, 10, env.students...)
	due := time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)

	late := env.assignment(t, course.ID, 100, false, 10, &due)
	onTime := env.assignment(t, course.ID, 50, false, 0, &due)
	bonus := env.assignment(t, course.ID, 10, true, 0, nil)

	student := env.students[0]
	env.gradedSubmission(t, late.ID, student.ID, 80, due.Add(2*time.Hour))
	env.gradedSubmission(t, onTime.ID, student.ID, 100, due.Add(-time.Hour))
	env.gradedSubmission(t, bonus.ID, student.ID, 50, due)

	for i, status := range []string{"PRESENT", "EXCUSED", "ABSENT", "SKIPPED"} {
		_, err := env.attendance.SaveSession(ctx, env.teacherActor(), course.ID, dto.AttendanceSessionRequest{
			Date:    time.Date(2026, 8, 3+i, 0, 0, 0, 0, time.UTC).Format(dto.AttendanceDateLayout),
			Period:  1,
			Records: []dto.AttendanceEntryRequest{{StudentID: student.ID, Status: status}},
		})
		require.NoError(t, err)
	}
	return course
}

func TestGradebookStudentViewBreakdown(t *testing.T) {
	env := newTestEnv(t, 2)
	course := seedGradedCourse(t, env)

	view, err := env.gradebook.StudentView(context.Background(), env.studentActor(0), env.students[0].ID)
	require.NoError(t, err)
	require.Len(t, view.Courses, 1)

	grade := view.Courses[0]
	require.Equal(t, course.ID, grade.CourseID)
	require.InDelta(t, 72+50, grade.Breakdown.EarnedPoints, 1e-9)
	require.InDelta(t, 5, grade.Breakdown.ExtraCreditPoints, 1e-9)
	require.InDelta(t, 150, grade.Breakdown.MaxPoints, 1e-9)
	require.InDelta(t, 20.0/3.0, grade.Breakdown.AttendanceScore, 1e-9)
	require.InDelta(t, (127+20.0/3.0)/160*100, grade.Breakdown.Grade, 1e-9)

	require.Equal(t, 3, grade.Attendance.TotalSessions)
	require.Equal(t, 2, grade.Attendance.Attended)
	require.Equal(t, 1, grade.Attendance.Skipped)
}

func TestGradebookViewsAgree(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()
	course := seedGradedCourse(t, env)

	homeroom := models.Homeroom{Name: "XI IPA 1", TeacherID: env.otherTeacher.ID}
	require.NoError(t, env.db.Omit("Teacher", "Students").Create(&homeroom).Error)
	require.NoError(t, env.db.Model(&models.Student{}).Where("id IN ?", []uint{env.students[0].ID, env.students[1].ID}).Update("homeroom_id", homeroom.ID).Error)

	studentView, err := env.gradebook.StudentView(ctx, env.admin, env.students[0].ID)
	require.NoError(t, err)

	courseView, err := env.gradebook.CourseView(ctx, env.teacherActor(), course.ID)
	require.NoError(t, err)
	require.Len(t, courseView.Rows, 2)

	homeroomView, err := env.gradebook.HomeroomView(ctx, Actor{ID: env.otherTeacher.ID, Role: RoleTeacher}, homeroom.ID)
	require.NoError(t, err)
	require.Len(t, homeroomView.Students, 2)

	var fromCourse, fromHomeroom float64
	for _, row := range courseView.Rows {
		if row.Student.ID == env.students[0].ID {
			fromCourse = row.Breakdown.Grade
		}
	}
	for _, view := range homeroomView.Students {
		if view.Student.ID == env.students[0].ID {
			fromHomeroom = view.Courses[0].Breakdown.Grade
		}
	}

	require.InDelta(t, studentView.Courses[0].Breakdown.Grade, fromCourse, 1e-9)
	require.InDelta(t, studentView.Courses[0].Breakdown.Grade, fromHomeroom, 1e-9)

	// The second student has nothing graded: zero earned against the full
	// denominator, with a perfect attendance ratio.
	for _, row := range courseView.Rows {
		if row.Student.ID == env.students[1].ID {
			require.InDelta(t, 10.0/160*100, row.Breakdown.Grade, 1e-9)
		}
	}
}

func TestGradebookEmptyCourseIsFullMarks(t *testing.T) {
	env := newTestEnv(t, 1)
	env.course(t, "Homeroom Guidance", env.teacher.ID, 0, env.students[0])

	view, err := env.gradebook.StudentView(context.Background(), env.studentActor(0), env.students[0].ID)
	require.NoError(t, err)
	require.Len(t, view.Courses, 1)
	require.Equal(t, float64(100), view.Courses[0].Breakdown.Grade)
}

func TestGradebookCacheInvalidatedByGrading(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()

	course := env.course(t, "Chemistry", env.teacher.ID, 0, env.students[0])
	assignment := env.assignment(t, course.ID, 100, false, 0, nil)
	submission := env.gradedSubmission(t, assignment.ID, env.students[0].ID, 40, time.Now().UTC())

	first, err := env.gradebook.StudentView(ctx, env.studentActor(0), env.students[0].ID)
	require.NoError(t, err)
	require.InDelta(t, 40, first.Courses[0].Breakdown.Grade, 1e-9)
	require.True(t, env.mini.Exists(gradebookCacheKey(env.students[0].ID)))

	_, err = env.submissions.Grade(ctx, env.teacherActor(), submission.ID, dto.GradeSubmissionRequest{Grade: 90, Feedback: "Much better"})
	require.NoError(t, err)
	require.False(t, env.mini.Exists(gradebookCacheKey(env.students[0].ID)))

	second, err := env.gradebook.StudentView(ctx, env.studentActor(0), env.students[0].ID)
	require.NoError(t, err)
	require.InDelta(t, 90, second.Courses[0].Breakdown.Grade, 1e-9)
}

func TestGradebookAuthorization(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()
	course := env.course(t, "Physics", env.teacher.ID, 5, env.students[0])

	_, err := env.gradebook.StudentView(ctx, env.studentActor(1), env.students[0].ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.gradebook.StudentView(ctx, Actor{ID: env.otherTeacher.ID, Role: RoleTeacher}, env.students[0].ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.gradebook.StudentView(ctx, env.teacherActor(), env.students[0].ID)
	require.NoError(t, err)

	_, err = env.gradebook.CourseView(ctx, Actor{ID: env.otherTeacher.ID, Role: RoleTeacher}, course.ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.gradebook.CourseView(ctx, env.admin, course.ID+100)
	require.ErrorIs(t, err, ErrCourseNotFound)
}
