package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-school-api/internal/config"
	"github.com/noah-isme/gema-school-api/internal/handler"
	"github.com/noah-isme/gema-school-api/internal/middleware"
	"github.com/noah-isme/gema-school-api/internal/observability"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(router fiber.Router)
}

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CourseHandler       *handler.CourseHandler
	AssignmentHandler   *handler.AssignmentHandler
	AttendanceHandler   *handler.AttendanceHandler
	ScheduleHandler     *handler.ScheduleHandler
	GradebookHandler    *handler.GradebookHandler
	MaterialHandler     *handler.MaterialHandler
	QuizHandler         *handler.QuizHandler
	ChatHandler         *handler.ChatHandler
	NotificationHandler *handler.NotificationHandler
	ActivityHandler     *handler.ActivityHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	protected := api.Group("", jwtMiddleware, middleware.RateLimit("api", cfg.RateLimitMax, cfg.RateLimitWindow))

	for _, registrar := range deps.registrars() {
		registrar.Register(protected)
	}
}

// registrars skips handlers that were not constructed.
func (d Dependencies) registrars() []Registrar {
	var out []Registrar
	add := func(r Registrar, present bool) {
		if present {
			out = append(out, r)
		}
	}

	add(d.CourseHandler, d.CourseHandler != nil)
	add(d.AssignmentHandler, d.AssignmentHandler != nil)
	add(d.AttendanceHandler, d.AttendanceHandler != nil)
	add(d.ScheduleHandler, d.ScheduleHandler != nil)
	add(d.GradebookHandler, d.GradebookHandler != nil)
	add(d.MaterialHandler, d.MaterialHandler != nil)
	add(d.QuizHandler, d.QuizHandler != nil)
	add(d.ChatHandler, d.ChatHandler != nil)
	add(d.NotificationHandler, d.NotificationHandler != nil)
	add(d.ActivityHandler, d.ActivityHandler != nil)
	return out
}
