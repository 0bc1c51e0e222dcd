package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-school-api/internal/config"
	"github.com/noah-isme/gema-school-api/internal/database"
	"github.com/noah-isme/gema-school-api/internal/handler"
	"github.com/noah-isme/gema-school-api/internal/middleware"
	"github.com/noah-isme/gema-school-api/internal/repository"
	"github.com/noah-isme/gema-school-api/internal/router"
	"github.com/noah-isme/gema-school-api/internal/service"
	cloud "github.com/noah-isme/gema-school-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()
	if cfg.AppEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnLifetime,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not set; realtime fan-out limited to redis")
	}

	storage, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create cloudinary client")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	termRepo := repository.NewTermRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	peopleRepo := repository.NewPeopleRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)
	chatService := service.NewChatService(chatRepo, courseRepo, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)
	gradebookService := service.NewGradebookService(service.GradebookDependencies{
		Courses:     courseRepo,
		Assignments: assignmentRepo,
		Submissions: submissionRepo,
		Attendance:  attendanceRepo,
		People:      peopleRepo,
		Cache:       redisClient,
		CacheTTL:    cfg.GradebookCacheTTL,
	}, logger)
	termService := service.NewTermService(termRepo, validate, logger)
	courseService := service.NewCourseService(courseRepo, termRepo, peopleRepo, validate, activityService, gradebookService, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, validate, activityService, gradebookService, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Submissions:   submissionRepo,
		Assignments:   assignmentRepo,
		Courses:       courseRepo,
		Validator:     validate,
		Uploader:      storage,
		MaxUploadMB:   cfg.UploadMaxSizeMB,
		Notifications: notificationService,
		Activity:      activityService,
		Gradebook:     gradebookService,
	}, logger)
	attendanceService := service.NewAttendanceService(attendanceRepo, courseRepo, validate, activityService, gradebookService, logger)
	scheduleService := service.NewScheduleService(scheduleRepo, courseRepo, validate, notificationService, activityService, logger)
	materialService := service.NewMaterialService(materialRepo, courseRepo, validate, storage, cfg.UploadMaxSizeMB, activityService, logger)
	quizService := service.NewQuizService(quizRepo, courseRepo, validate, logger)

	notificationService.Start(ctx)
	chatService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:    &logger,
		AccessLog: cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		CourseHandler:       handler.NewCourseHandler(termService, courseService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, submissionService, logger),
		AttendanceHandler:   handler.NewAttendanceHandler(attendanceService, logger),
		ScheduleHandler:     handler.NewScheduleHandler(scheduleService, logger),
		GradebookHandler:    handler.NewGradebookHandler(gradebookService, logger),
		MaterialHandler:     handler.NewMaterialHandler(materialService, logger),
		QuizHandler:         handler.NewQuizHandler(quizService, logger),
		ChatHandler:         handler.NewChatHandler(chatService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, cfg.SSEKeepAlive),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	logger.Info().Str("address", cfg.HTTPAddress()).Msg("server started")

	waitForShutdown(ctx, app, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
