package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

type fixture struct {
	teacher  models.Teacher
	term     models.Term
	students []models.Student
}

func seedFixture(t *testing.T, db *gorm.DB, studentCount int) fixture {
	t.Helper()

	f := fixture{
		teacher: models.Teacher{Name: "Bu Sari", Email: "sari@school.test"},
		term: models.Term{
			Name:     "2026 Odd",
			StartsAt: time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 12, 18, 0, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, db.Create(&f.teacher).Error)
	require.NoError(t, db.Create(&f.term).Error)

	for i := 0; i < studentCount; i++ {
		student := models.Student{Name: fmt.Sprintf("Student %02d", i+1), Email: fmt.Sprintf("s%02d@school.test", i+1)}
		require.NoError(t, db.Create(&student).Error)
		f.students = append(f.students, student)
	}
	return f
}

func (f fixture) course(t *testing.T, db *gorm.DB, name string) models.Course {
	t.Helper()
	course := models.Course{Name: name, TeacherID: f.teacher.ID, TermID: f.term.ID, AttendancePoolScore: 10}
	require.NoError(t, db.Omit("Students", "Teacher", "Term").Create(&course).Error)
	return course
}
