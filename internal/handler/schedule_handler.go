package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/middleware"
	"github.com/noah-isme/gema-school-api/internal/service"
	"github.com/noah-isme/gema-school-api/internal/utils"
)

// ScheduleHandler exposes the weekly timetable.
type ScheduleHandler struct {
	service service.ScheduleService
	logger  zerolog.Logger
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(service service.ScheduleService, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service: service,
		logger:  logger.With().Str("component", "schedule_handler").Logger(),
	}
}

// Register attaches schedule routes to the router group.
func (h *ScheduleHandler) Register(router fiber.Router) {
	staff := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleTeacher)

	router.Post("/schedules", staff, h.assign)
	router.Delete("/schedules/:id", staff, h.delete)
	router.Get("/courses/:id/schedules", h.listByCourse)
	router.Get("/teachers/:id/schedules", staff, h.listByTeacher)
	router.Get("/students/:id/schedules", h.listByStudent)
}

func (h *ScheduleHandler) assign(c *fiber.Ctx) error {
	var payload dto.ScheduleAssignRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	schedule, err := h.service.Assign(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if payload.Override {
		requestLogger(h.logger, c).Warn().
			Uint("course_id", payload.CourseID).
			Int("day_of_week", payload.DayOfWeek).
			Int("period", payload.Period).
			Msg("schedule placed with conflict override")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "schedule assigned", schedule)
}

func (h *ScheduleHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(requestContext(c), actorFromContext(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "schedule deleted", fiber.Map{"id": id})
}

func (h *ScheduleHandler) listByCourse(c *fiber.Ctx) error {
	return h.listBy(c, h.service.ListByCourse)
}

func (h *ScheduleHandler) listByTeacher(c *fiber.Ctx) error {
	return h.listBy(c, h.service.ListByTeacher)
}

func (h *ScheduleHandler) listByStudent(c *fiber.Ctx) error {
	return h.listBy(c, h.service.ListByStudent)
}

type scheduleLister func(ctx context.Context, actor service.Actor, id uint) ([]dto.ScheduleResponse, error)

func (h *ScheduleHandler) listBy(c *fiber.Ctx, list scheduleLister) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	schedules, err := list(requestContext(c), actorFromContext(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "schedules retrieved", schedules)
}
