package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/models"
)

const enrollmentTable = "course_enrollments"

// CourseFilter narrows course listings.
type CourseFilter struct {
	TeacherID *uint
	TermID    *uint
	StudentID *uint
	Search    string
}

// CourseRepository defines persistence operations for courses and their rosters.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	AddStudents(ctx context.Context, courseID uint, studentIDs []uint) error
	RemoveStudent(ctx context.Context, courseID, studentID uint) error
	IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{}).Preload("Teacher").Preload("Term")

	if filter.TeacherID != nil {
		query = query.Where("courses.teacher_id = ?", *filter.TeacherID)
	}
	if filter.TermID != nil {
		query = query.Where("courses.term_id = ?", *filter.TermID)
	}
	if filter.StudentID != nil {
		query = query.
			Joins("JOIN "+enrollmentTable+" ON "+enrollmentTable+".course_id = courses.id").
			Where(enrollmentTable+".student_id = ?", *filter.StudentID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(courses.name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var courses []models.Course
	if err := query.Order("courses.name ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Term").
		Preload("Students", func(db *gorm.DB) *gorm.DB { return db.Order("students.name ASC") }).
		First(&course, id).Error
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	var courses []models.Course
	if err := r.db.WithContext(ctx).Preload("Teacher").Where("id IN ?", ids).Order("name ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit("Students", "Teacher", "Term").Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit("Students", "Teacher", "Term", "Assignments", "Schedules").Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Course{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddStudents enrolls existing students; unknown identifiers fail the whole call.
func (r *courseRepository) AddStudents(ctx context.Context, courseID uint, studentIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, courseID).Error; err != nil {
			return err
		}

		var students []models.Student
		if err := tx.Where("id IN ?", studentIDs).Find(&students).Error; err != nil {
			return err
		}
		if len(students) != len(uniqueIDs(studentIDs)) {
			return fmt.Errorf("enroll students: %w", gorm.ErrRecordNotFound)
		}

		return tx.Model(&course).Association("Students").Append(&students)
	})
}

func (r *courseRepository) RemoveStudent(ctx context.Context, courseID, studentID uint) error {
	result := r.db.WithContext(ctx).
		Exec("DELETE FROM "+enrollmentTable+" WHERE course_id = ? AND student_id = ?", courseID, studentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepository) IsEnrolled(ctx context.Context, courseID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table(enrollmentTable).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	return count > 0, err
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
