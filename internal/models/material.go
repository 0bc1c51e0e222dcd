package models

import (
	"time"

	"gorm.io/gorm"
)

// Material is a file shared with the students of a course.
type Material struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CourseID    uint           `gorm:"not null;index" json:"course_id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	FileURL     string         `gorm:"size:512;not null" json:"file_url"`
	MimeType    string         `gorm:"size:128" json:"mime_type"`
	Size        int64          `json:"size"`
	UploadedBy  uint           `gorm:"not null" json:"uploaded_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
