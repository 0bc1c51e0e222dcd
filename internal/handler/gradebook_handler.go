package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-school-api/internal/middleware"
	"github.com/noah-isme/gema-school-api/internal/service"
	"github.com/noah-isme/gema-school-api/internal/utils"
)

// GradebookHandler serves the student, course and homeroom grade views.
type GradebookHandler struct {
	service service.GradebookService
	logger  zerolog.Logger
}

// NewGradebookHandler constructs the handler.
func NewGradebookHandler(service service.GradebookService, logger zerolog.Logger) *GradebookHandler {
	return &GradebookHandler{
		service: service,
		logger:  logger.With().Str("component", "gradebook_handler").Logger(),
	}
}

// Register attaches gradebook routes to the router group.
func (h *GradebookHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleTeacher)

	router.Get("/gradebook/me", middleware.RequireRole(middleware.RoleStudent), h.me)
	router.Get("/gradebook/students/:id", h.student)
	router.Get("/courses/:id/gradebook", staff, h.course)
	router.Get("/homerooms/:id/gradebook", staff, h.homeroom)
}

func (h *GradebookHandler) me(c *fiber.Ctx) error {
	actor := actorFromContext(c)
	view, err := h.service.StudentView(requestContext(c), actor, actor.ID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "gradebook retrieved", view)
}

func (h *GradebookHandler) student(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.StudentView(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "gradebook retrieved", view)
}

func (h *GradebookHandler) course(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.CourseView(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "course gradebook retrieved", view)
}

func (h *GradebookHandler) homeroom(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.HomeroomView(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "homeroom gradebook retrieved", view)
}
