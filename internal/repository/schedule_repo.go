package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// ScheduleRepository persists weekly schedule slots.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	GetByID(ctx context.Context, id uint) (models.Schedule, error)
	Delete(ctx context.Context, id uint) error
	ListByCourse(ctx context.Context, courseID uint) ([]models.Schedule, error)
	ListByTeacher(ctx context.Context, teacherID uint) ([]models.Schedule, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Schedule, error)
	ListByStudents(ctx context.Context, studentIDs []uint) (map[uint][]models.Schedule, error)
	FindSlot(ctx context.Context, courseID uint, dayOfWeek, period int) (models.Schedule, error)
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository instantiates a GORM-backed repository.
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) ordered(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Course").
		Order("day_of_week ASC").
		Order("period ASC")
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	return r.db.WithContext(ctx).Omit("Course").Create(schedule).Error
}

func (r *scheduleRepository) GetByID(ctx context.Context, id uint) (models.Schedule, error) {
	var schedule models.Schedule
	if err := r.db.WithContext(ctx).Preload("Course").First(&schedule, id).Error; err != nil {
		return models.Schedule{}, err
	}
	return schedule, nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Schedule{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *scheduleRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Schedule, error) {
	var schedules []models.Schedule
	if err := r.ordered(ctx).Where("course_id = ?", courseID).Find(&schedules).Error; err != nil {
		return nil, err
	}
	return activeCourses(schedules), nil
}

// ListByTeacher follows the current teacher of each course, not the teacher
// recorded when the slot was assigned.
func (r *scheduleRepository) ListByTeacher(ctx context.Context, teacherID uint) ([]models.Schedule, error) {
	var schedules []models.Schedule
	err := r.ordered(ctx).
		Joins("JOIN courses ON courses.id = schedules.course_id AND courses.deleted_at IS NULL").
		Where("courses.teacher_id = ?", teacherID).
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return activeCourses(schedules), nil
}

func (r *scheduleRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Schedule, error) {
	grouped, err := r.ListByStudents(ctx, []uint{studentID})
	if err != nil {
		return nil, err
	}
	return grouped[studentID], nil
}

// ListByStudents returns, per student, every schedule entry of the courses they are enrolled in.
func (r *scheduleRepository) ListByStudents(ctx context.Context, studentIDs []uint) (map[uint][]models.Schedule, error) {
	result := make(map[uint][]models.Schedule, len(studentIDs))
	if len(studentIDs) == 0 {
		return result, nil
	}

	type enrollment struct {
		CourseID  uint
		StudentID uint
	}
	var enrollments []enrollment
	if err := r.db.WithContext(ctx).
		Table(enrollmentTable).
		Select("course_id, student_id").
		Where("student_id IN ?", studentIDs).
		Scan(&enrollments).Error; err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return result, nil
	}

	courseIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}

	var schedules []models.Schedule
	if err := r.ordered(ctx).Where("course_id IN ?", uniqueIDs(courseIDs)).Find(&schedules).Error; err != nil {
		return nil, err
	}
	schedules = activeCourses(schedules)

	byCourse := make(map[uint][]models.Schedule)
	for _, schedule := range schedules {
		byCourse[schedule.CourseID] = append(byCourse[schedule.CourseID], schedule)
	}
	for _, e := range enrollments {
		result[e.StudentID] = append(result[e.StudentID], byCourse[e.CourseID]...)
	}

	return result, nil
}

func (r *scheduleRepository) FindSlot(ctx context.Context, courseID uint, dayOfWeek, period int) (models.Schedule, error) {
	var schedule models.Schedule
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND day_of_week = ? AND period = ?", courseID, dayOfWeek, period).
		First(&schedule).Error
	if err != nil {
		return models.Schedule{}, err
	}
	return schedule, nil
}

// activeCourses drops entries whose course was soft deleted; the preload leaves those empty.
func activeCourses(schedules []models.Schedule) []models.Schedule {
	filtered := schedules[:0]
	for _, schedule := range schedules {
		if schedule.Course.ID == 0 {
			continue
		}
		filtered = append(filtered, schedule)
	}
	return filtered
}
