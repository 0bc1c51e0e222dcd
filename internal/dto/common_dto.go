package dto

import "github.com/noah-isme/gema-school-api/internal/models"

// PaginationMeta captures pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// PersonLite summarizes a teacher or student embedded in other responses.
type PersonLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

func newTeacherLite(teacher models.Teacher) PersonLite {
	return PersonLite{ID: teacher.ID, Name: teacher.Name, Email: teacher.Email}
}

func newStudentLite(student models.Student) PersonLite {
	return PersonLite{ID: student.ID, Name: student.Name, Email: student.Email}
}
