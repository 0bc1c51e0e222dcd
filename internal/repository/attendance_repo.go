package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// AttendanceRepository persists attendance sessions.
type AttendanceRepository interface {
	SaveSession(ctx context.Context, records []models.Attendance) ([]models.Attendance, error)
	ListSession(ctx context.Context, courseID uint, date time.Time, period int) ([]models.Attendance, error)
	ListByCourse(ctx context.Context, courseID uint) ([]models.Attendance, error)
	ListByCourseStudent(ctx context.Context, courseID, studentID uint) ([]models.Attendance, error)
	ListByCoursesStudents(ctx context.Context, courseIDs, studentIDs []uint) ([]models.Attendance, error)
	GetByID(ctx context.Context, id uint) (models.Attendance, error)
	Delete(ctx context.Context, id uint) error
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository instantiates a GORM-backed repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// SaveSession upserts every record inside one transaction. A row that was
// soft deleted for the same slot is restored instead of duplicated.
func (r *attendanceRepository) SaveSession(ctx context.Context, records []models.Attendance) ([]models.Attendance, error) {
	saved := make([]models.Attendance, 0, len(records))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			var existing models.Attendance
			err := tx.Unscoped().
				Where("course_id = ? AND student_id = ? AND date = ? AND period = ?",
					record.CourseID, record.StudentID, record.Date, record.Period).
				First(&existing).Error

			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				row := record
				if err := tx.Omit("Student").Create(&row).Error; err != nil {
					return err
				}
				saved = append(saved, row)
			case err != nil:
				return err
			default:
				updates := map[string]interface{}{
					"status":      record.Status,
					"note":        record.Note,
					"recorded_by": record.RecordedBy,
					"deleted_at":  nil,
				}
				if err := tx.Unscoped().Model(&existing).Updates(updates).Error; err != nil {
					return err
				}
				existing.Status = record.Status
				existing.Note = record.Note
				existing.RecordedBy = record.RecordedBy
				existing.DeletedAt = gorm.DeletedAt{}
				saved = append(saved, existing)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

func (r *attendanceRepository) ListSession(ctx context.Context, courseID uint, date time.Time, period int) ([]models.Attendance, error) {
	var records []models.Attendance
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("course_id = ? AND date = ? AND period = ?", courseID, date, period).
		Order("student_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Attendance, error) {
	return r.ListByCoursesStudents(ctx, []uint{courseID}, nil)
}

func (r *attendanceRepository) ListByCourseStudent(ctx context.Context, courseID, studentID uint) ([]models.Attendance, error) {
	return r.ListByCoursesStudents(ctx, []uint{courseID}, []uint{studentID})
}

// ListByCoursesStudents loads attendance for the given courses, optionally narrowed to students.
func (r *attendanceRepository) ListByCoursesStudents(ctx context.Context, courseIDs, studentIDs []uint) ([]models.Attendance, error) {
	if len(courseIDs) == 0 {
		return []models.Attendance{}, nil
	}

	query := r.db.WithContext(ctx).Where("course_id IN ?", courseIDs)
	if len(studentIDs) > 0 {
		query = query.Where("student_id IN ?", studentIDs)
	}

	var records []models.Attendance
	if err := query.Order("date ASC").Order("period ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id uint) (models.Attendance, error) {
	var record models.Attendance
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return models.Attendance{}, err
	}
	return record, nil
}

func (r *attendanceRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Attendance{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
