package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-school-api/internal/models"
)

func TestAttendanceRepositorySaveSessionUpserts(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db, 2)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()
	course := f.course(t, db, "Biology")
	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	session := []models.Attendance{
		{CourseID: course.ID, StudentID: f.students[0].ID, Date: date, Period: 2, Status: models.AttendancePresent, RecordedBy: f.teacher.ID},
		{CourseID: course.ID, StudentID: f.students[1].ID, Date: date, Period: 2, Status: models.AttendanceAbsent, RecordedBy: f.teacher.ID},
	}
	saved, err := repo.SaveSession(ctx, session)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	session[1].Status = models.AttendanceExcused
	session[1].Note = "doctor's letter"
	_, err = repo.SaveSession(ctx, session)
	require.NoError(t, err)

	rows, err := repo.ListSession(ctx, course.ID, date, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, models.AttendanceExcused, rows[1].Status)
	require.Equal(t, "doctor's letter", rows[1].Note)
	require.Equal(t, f.students[1].Name, rows[1].Student.Name)
}

func TestAttendanceRepositoryRestoresSoftDeletedSlot(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db, 1)
	repo := NewAttendanceRepository(db)
	ctx := context.Background()
	course := f.course(t, db, "Chemistry")
	date := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)

	record := models.Attendance{CourseID: course.ID, StudentID: f.students[0].ID, Date: date, Period: 1, Status: models.AttendanceAbsent, RecordedBy: f.teacher.ID}
	saved, err := repo.SaveSession(ctx, []models.Attendance{record})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, saved[0].ID))

	rows, err := repo.ListByCourseStudent(ctx, course.ID, f.students[0].ID)
	require.NoError(t, err)
	require.Empty(t, rows)

	record.Status = models.AttendancePresent
	restored, err := repo.SaveSession(ctx, []models.Attendance{record})
	require.NoError(t, err)
	require.Equal(t, saved[0].ID, restored[0].ID)

	rows, err = repo.ListByCourseStudent(ctx, course.ID, f.students[0].ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, models.AttendancePresent, rows[0].Status)
}
