package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCourseRepositoryRosterLifecycle(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db, 3)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	math := f.course(t, db, "Mathematics")
	art := f.course(t, db, "Art")

	require.NoError(t, repo.AddStudents(ctx, math.ID, []uint{f.students[0].ID, f.students[1].ID}))
	require.NoError(t, repo.AddStudents(ctx, art.ID, []uint{f.students[1].ID}))

	loaded, err := repo.GetByID(ctx, math.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Students, 2)
	require.Equal(t, "Bu Sari", loaded.Teacher.Name)

	enrolled, err := repo.IsEnrolled(ctx, art.ID, f.students[1].ID)
	require.NoError(t, err)
	require.True(t, enrolled)

	studentID := f.students[1].ID
	courses, err := repo.List(ctx, CourseFilter{StudentID: &studentID})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, "Art", courses[0].Name)

	require.NoError(t, repo.RemoveStudent(ctx, art.ID, studentID))
	enrolled, err = repo.IsEnrolled(ctx, art.ID, studentID)
	require.NoError(t, err)
	require.False(t, enrolled)

	require.ErrorIs(t, repo.RemoveStudent(ctx, art.ID, studentID), gorm.ErrRecordNotFound)
}

func TestCourseRepositoryRejectsUnknownStudents(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db, 1)
	repo := NewCourseRepository(db)
	course := f.course(t, db, "Physics")

	err := repo.AddStudents(context.Background(), course.ID, []uint{f.students[0].ID, 999})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	enrolled, err := repo.IsEnrolled(context.Background(), course.ID, f.students[0].ID)
	require.NoError(t, err)
	require.False(t, enrolled)
}

func TestCourseRepositorySoftDeleteHidesCourse(t *testing.T) {
	db := setupTestDB(t)
	f := seedFixture(t, db, 0)
	repo := NewCourseRepository(db)
	ctx := context.Background()
	course := f.course(t, db, "History")

	require.NoError(t, repo.Delete(ctx, course.ID))

	_, err := repo.GetByID(ctx, course.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	courses, err := repo.List(ctx, CourseFilter{})
	require.NoError(t, err)
	require.Empty(t, courses)

	var count int64
	require.NoError(t, db.Unscoped().Table("courses").Where("id = ?", course.ID).Count(&count).Error)
	require.Equal(t, int64(1), count, "row must remain with deleted_at stamped")
}
