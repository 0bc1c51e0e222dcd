package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// PeopleRepository provides read access to teachers, students and homerooms.
type PeopleRepository interface {
	GetTeacher(ctx context.Context, id uint) (models.Teacher, error)
	GetStudent(ctx context.Context, id uint) (models.Student, error)
	GetHomeroom(ctx context.Context, id uint) (models.Homeroom, error)
}

type peopleRepository struct {
	db *gorm.DB
}

// NewPeopleRepository constructs a people repository.
func NewPeopleRepository(db *gorm.DB) PeopleRepository {
	return &peopleRepository{db: db}
}

func (r *peopleRepository) GetTeacher(ctx context.Context, id uint) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, id).Error; err != nil {
		return models.Teacher{}, err
	}

	return teacher, nil
}

func (r *peopleRepository) GetStudent(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

// GetHomeroom loads a homeroom together with its teacher and students.
func (r *peopleRepository) GetHomeroom(ctx context.Context, id uint) (models.Homeroom, error) {
	var homeroom models.Homeroom
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Students", func(db *gorm.DB) *gorm.DB { return db.Order("students.name ASC") }).
		First(&homeroom, id).Error
	if err != nil {
		return models.Homeroom{}, err
	}

	return homeroom, nil
}
