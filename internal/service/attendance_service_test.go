package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/models"
)

func TestAttendanceSaveSessionUpserts(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()
	course := env.course(t, "English", env.teacher.ID, 10, env.students...)

	payload := dto.AttendanceSessionRequest{
		Date:   "2026-08-10",
		Period: 2,
		Records: []dto.AttendanceEntryRequest{
			{StudentID: env.students[0].ID, Status: "PRESENT"},
			{StudentID: env.students[1].ID, Status: "PENDING"},
		},
	}
	saved, err := env.attendance.SaveSession(ctx, env.teacherActor(), course.ID, payload)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	payload.Records[1].Status = "ABSENT"
	payload.Records[1].Note = "sick, no letter"
	saved, err = env.attendance.SaveSession(ctx, env.teacherActor(), course.ID, payload)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	require.Equal(t, string(models.AttendanceAbsent), saved[1].Status)
	require.Equal(t, "sick, no letter", saved[1].Note)

	var count int64
	require.NoError(t, env.db.Model(&models.Attendance{}).Count(&count).Error)
	require.Equal(t, int64(2), count)

	listed, err := env.attendance.ListSession(ctx, env.admin, course.ID, dto.AttendanceSessionQuery{Date: "2026-08-10", Period: 2})
	require.NoError(t, err)
	require.Len(t, listed, 2)
}

func TestAttendanceSaveSessionIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()
	course := env.course(t, "English", env.teacher.ID, 10, env.students[0], env.students[1])

	_, err := env.attendance.SaveSession(ctx, env.teacherActor(), course.ID, dto.AttendanceSessionRequest{
		Date:   "2026-08-11",
		Period: 1,
		Records: []dto.AttendanceEntryRequest{
			{StudentID: env.students[0].ID, Status: "PRESENT"},
			{StudentID: env.students[2].ID, Status: "PRESENT"},
		},
	})
	require.ErrorIs(t, err, ErrNotEnrolled)

	_, err = env.attendance.SaveSession(ctx, env.teacherActor(), course.ID, dto.AttendanceSessionRequest{
		Date:   "2026-08-11",
		Period: 1,
		Records: []dto.AttendanceEntryRequest{
			{StudentID: env.students[0].ID, Status: "PRESENT"},
			{StudentID: env.students[0].ID, Status: "ABSENT"},
		},
	})
	require.ErrorIs(t, err, ErrInvalidSession)

	var count int64
	require.NoError(t, env.db.Model(&models.Attendance{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAttendanceSummaryAccess(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()
	course := env.course(t, "Civics", env.teacher.ID, 10, env.students...)

	for i, status := range []string{"PRESENT", "ABSENT", "SKIPPED", "PENDING"} {
		_, err := env.attendance.SaveSession(ctx, env.teacherActor(), course.ID, dto.AttendanceSessionRequest{
			Date:    "2026-08-12",
			Period:  i + 1,
			Records: []dto.AttendanceEntryRequest{{StudentID: env.students[0].ID, Status: status}},
		})
		require.NoError(t, err)
	}

	summary, err := env.attendance.Summary(ctx, env.studentActor(0), course.ID, env.students[0].ID)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Summary.TotalSessions)
	require.Equal(t, 2, summary.Summary.Recorded)
	require.Equal(t, 1, summary.Summary.Pending)
	require.InDelta(t, 1.0/3.0, summary.Summary.Percentage, 1e-9)

	_, err = env.attendance.Summary(ctx, env.studentActor(1), course.ID, env.students[0].ID)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.attendance.SaveSession(ctx, Actor{ID: env.otherTeacher.ID, Role: RoleTeacher}, course.ID, dto.AttendanceSessionRequest{
		Date:    "2026-08-13",
		Period:  1,
		Records: []dto.AttendanceEntryRequest{{StudentID: env.students[0].ID, Status: "PRESENT"}},
	})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAttendanceSaveInvalidatesGradebook(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	course := env.course(t, "Sports", env.teacher.ID, 10, env.students[0])

	_, err := env.gradebook.StudentView(ctx, env.studentActor(0), env.students[0].ID)
	require.NoError(t, err)
	require.True(t, env.mini.Exists(gradebookCacheKey(env.students[0].ID)))

	_, err = env.attendance.SaveSession(ctx, env.teacherActor(), course.ID, dto.AttendanceSessionRequest{
		Date:    "2026-08-14",
		Period:  1,
		Records: []dto.AttendanceEntryRequest{{StudentID: env.students[0].ID, Status: "ABSENT"}},
	})
	require.NoError(t, err)
	require.False(t, env.mini.Exists(gradebookCacheKey(env.students[0].ID)))

	view, err := env.gradebook.StudentView(ctx, env.studentActor(0), env.students[0].ID)
	require.NoError(t, err)
	require.Equal(t, float64(0), view.Courses[0].Breakdown.Grade)
}
