package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-school-api/internal/middleware"
	"github.com/noah-isme/gema-school-api/internal/service"
	"github.com/noah-isme/gema-school-api/internal/utils"
)

// actorFromContext reads the identity stored by the JWT middleware.
func actorFromContext(c *fiber.Ctx) service.Actor {
	actor := service.Actor{}
	if id, ok := c.Locals(middleware.LocalUserID).(uint); ok {
		actor.ID = id
	}
	if role, ok := c.Locals(middleware.LocalUserRole).(string); ok {
		actor.Role = strings.ToLower(strings.TrimSpace(role))
	}
	return actor
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// parseQueryTime accepts RFC3339 timestamps; an absent parameter yields nil.
func parseQueryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.New("invalid " + name + " timestamp")
	}
	return &parsed, nil
}

func validationDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		details[fieldErr.Field()] = fieldErr.Tag()
	}
	return details
}

var (
	notFoundErrors = []error{
		service.ErrTermNotFound,
		service.ErrTeacherNotFound,
		service.ErrStudentNotFound,
		service.ErrHomeroomNotFound,
		service.ErrCourseNotFound,
		service.ErrAssignmentNotFound,
		service.ErrSubmissionNotFound,
		service.ErrAttendanceNotFound,
		service.ErrScheduleNotFound,
		service.ErrMaterialNotFound,
		service.ErrQuizNotFound,
		service.ErrNotificationNotFound,
	}
	badRequestErrors = []error{
		service.ErrNotEnrolled,
		service.ErrInvalidAnswer,
		service.ErrInvalidQuestion,
		service.ErrInvalidAttendanceStatus,
		service.ErrInvalidSession,
		service.ErrInvalidRoom,
		service.ErrFileRequired,
	}
	conflictErrors = []error{
		service.ErrAlreadyScheduled,
		service.ErrQuizAlreadyAttempted,
	}
)

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError maps service errors onto the JSON envelope.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var (
		validationErrs validator.ValidationErrors
		conflictErr    *service.ScheduleConflictError
	)

	switch {
	case errors.As(err, &validationErrs):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(validationErrs))
	case errors.As(err, &conflictErr):
		return utils.Fail(c, fiber.StatusConflict, "schedule conflict", conflictErr.Conflicts)
	case errors.Is(err, service.ErrUnauthorized):
		return utils.SendError(c, fiber.StatusForbidden, "unauthorized")
	case matchesAny(err, notFoundErrors):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case matchesAny(err, conflictErrors):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrUploadTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case matchesAny(err, badRequestErrors):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
