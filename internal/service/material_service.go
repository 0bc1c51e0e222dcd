package service

import (
	"context"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/repository"
)

// MaterialService shares files with a course.
type MaterialService interface {
	List(ctx context.Context, actor Actor, courseID uint) ([]dto.MaterialResponse, error)
	Create(ctx context.Context, actor Actor, courseID uint, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type materialService struct {
	materials repository.MaterialRepository
	courses   repository.CourseRepository
	validator *validator.Validate
	uploads   *uploadGuard
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewMaterialService builds a material service.
func NewMaterialService(materials repository.MaterialRepository, courses repository.CourseRepository, validate *validator.Validate, uploader FileUploader, maxUploadMB int, activity ActivityRecorder, logger zerolog.Logger) MaterialService {
	return &materialService{
		materials: materials,
		courses:   courses,
		validator: validate,
		uploads:   newUploadGuard(uploader, maxUploadMB, logger),
		sanitizer: bluemonday.UGCPolicy(),
		activity:  activity,
		logger:    logger.With().Str("component", "material_service").Logger(),
	}
}

func (s *materialService) List(ctx context.Context, actor Actor, courseID uint) ([]dto.MaterialResponse, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, notFound(err, ErrCourseNotFound)
	}
	if !canViewCourse(actor, course) {
		return nil, ErrUnauthorized
	}

	materials, err := s.materials.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewMaterialResponseSlice(materials), nil
}

func (s *materialService) Create(ctx context.Context, actor Actor, courseID uint, payload dto.MaterialCreateRequest, file *multipart.FileHeader) (dto.MaterialResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.MaterialResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return dto.MaterialResponse{}, notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return dto.MaterialResponse{}, ErrUnauthorized
	}

	stored, err := s.uploads.store(ctx, file, materialMimeTypes)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	material := models.Material{
		CourseID:    courseID,
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		FileURL:     stored.URL,
		MimeType:    stored.MimeType,
		Size:        stored.Size,
		UploadedBy:  actor.ID,
	}
	if err := s.materials.Create(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	s.logger.Info().Uint("material_id", material.ID).Uint("course_id", courseID).Msg("material uploaded")
	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Delete(ctx context.Context, actor Actor, id uint) error {
	material, err := s.materials.GetByID(ctx, id)
	if err != nil {
		return notFound(err, ErrMaterialNotFound)
	}
	course, err := s.courses.GetByID(ctx, material.CourseID)
	if err != nil {
		return notFound(err, ErrCourseNotFound)
	}
	if !canManageCourse(actor, course) {
		return ErrUnauthorized
	}

	if err := s.materials.Delete(ctx, id); err != nil {
		return notFound(err, ErrMaterialNotFound)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "material.deleted",
		EntityType: "material",
		EntityID:   &material.ID,
		Metadata:   map[string]interface{}{"course_id": material.CourseID, "title": material.Title},
	})
	return nil
}
