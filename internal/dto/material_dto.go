package dto

import (
	"time"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// MaterialCreateRequest describes the multipart fields accompanying a material upload.
type MaterialCreateRequest struct {
	Title       string `form:"title" validate:"required,min=3,max=255"`
	Description string `form:"description" validate:"omitempty,max=5000"`
}

// MaterialResponse serializes a course material.
type MaterialResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileURL     string    `json:"file_url"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	UploadedBy  uint      `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewMaterialResponse converts a material model.
func NewMaterialResponse(material models.Material) MaterialResponse {
	return MaterialResponse{
		ID:          material.ID,
		CourseID:    material.CourseID,
		Title:       material.Title,
		Description: material.Description,
		FileURL:     material.FileURL,
		MimeType:    material.MimeType,
		Size:        material.Size,
		UploadedBy:  material.UploadedBy,
		CreatedAt:   material.CreatedAt,
	}
}

// NewMaterialResponseSlice converts material models.
func NewMaterialResponseSlice(materials []models.Material) []MaterialResponse {
	out := make([]MaterialResponse, 0, len(materials))
	for _, material := range materials {
		out = append(out, NewMaterialResponse(material))
	}
	return out
}
