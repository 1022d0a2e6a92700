package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/classroom-planner-api/api/swagger"
	"github.com/noah-isme/classroom-planner-api/internal/handler"
	internalmiddleware "github.com/noah-isme/classroom-planner-api/internal/middleware"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/internal/planner"
	"github.com/noah-isme/classroom-planner-api/internal/repository"
	"github.com/noah-isme/classroom-planner-api/internal/service"
	"github.com/noah-isme/classroom-planner-api/migrations"
	"github.com/noah-isme/classroom-planner-api/pkg/cache"
	"github.com/noah-isme/classroom-planner-api/pkg/config"
	"github.com/noah-isme/classroom-planner-api/pkg/database"
	"github.com/noah-isme/classroom-planner-api/pkg/jobs"
	"github.com/noah-isme/classroom-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/classroom-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classroom-planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/classroom-planner-api/pkg/storage"
)

// @title Classroom Planner API
// @version 1.0.0
// @description Lesson plans, weekly schedule board, seating chart and schedule exports for a single classroom.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, migrations.FS, logr); err != nil {
			logr.Sugar().Fatalw("failed to migrate database", "error", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	periods, err := planner.ParsePeriods(cfg.Schedule.DefaultPeriods)
	if err != nil {
		logr.Sugar().Fatalw("invalid schedule template", "error", err)
	}
	accounts, err := service.ParseAccounts(cfg.Auth.Accounts)
	if err != nil {
		logr.Sugar().Fatalw("invalid auth accounts", "error", err)
	}
	if len(accounts) == 0 {
		logr.Warn("no accounts configured; login will always fail")
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	lessonPlanRepo := repository.NewLessonPlanRepository(db)
	timeBlockRepo := repository.NewTimeBlockRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	seatRepo := repository.NewSeatRepository(db)

	// Plan deletion and block assignment share one lock so a release never races an assign.
	scheduleLock := &sync.Mutex{}

	authSvc := service.NewAuthService(accounts, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	lessonPlanSvc := service.NewLessonPlanService(lessonPlanRepo, timeBlockRepo, db, cacheSvc, scheduleLock, validate, logr)
	scheduleSvc := service.NewScheduleService(timeBlockRepo, lessonPlanRepo, db, cacheSvc, metricsSvc, scheduleLock, validate, logr, service.ScheduleConfig{
		Periods:  periods,
		CacheTTL: cfg.Cache.TTL,
	})
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	seatingSvc := service.NewSeatingService(seatRepo, studentRepo, db, cacheSvc, metricsSvc, validate, logr, service.SeatingConfig{
		Rows:     cfg.Seating.Rows,
		Cols:     cfg.Seating.Cols,
		CacheTTL: cfg.Cache.TTL,
	})

	exportJobSvc, exportQueue := buildExports(ctx, cfg, scheduleSvc, metricsSvc, validate, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": db,
		"redis":    cache.Pinger{Client: redisClient},
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	lessonPlanHandler := handler.NewLessonPlanHandler(lessonPlanSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	seatingHandler := handler.NewSeatingHandler(seatingSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	exportHandler := handler.NewExportHandler(exportJobSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	// Signed tokens authorise downloads on their own so links can be opened outside the app.
	api.GET("/exports/download", exportHandler.Download)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	teacherOnly := internalmiddleware.RequireRoles(models.RoleTeacher)
	route := func(action string, h gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{teacherOnly, internalmiddleware.Audit(logr, action), h}
	}

	secured.GET("/auth/me", authHandler.Me)
	secured.GET("/metrics/summary", metricsHandler.Summary)

	plans := secured.Group("/lesson-plans")
	plans.GET("", lessonPlanHandler.List)
	plans.GET("/:id", lessonPlanHandler.Get)
	plans.GET("/:id/activities/phases", lessonPlanHandler.ActivityPhases)
	plans.POST("", route("lesson_plan.create", lessonPlanHandler.Create)...)
	plans.PUT("/:id", route("lesson_plan.update", lessonPlanHandler.Update)...)
	plans.DELETE("/:id", route("lesson_plan.delete", lessonPlanHandler.Delete)...)
	plans.POST("/:id/activities/reorder", route("lesson_plan.reorder", lessonPlanHandler.ReorderActivities)...)

	schedule := secured.Group("/schedule")
	schedule.GET("", scheduleHandler.Board)
	schedule.GET("/unassigned", scheduleHandler.Unassigned)
	schedule.POST("/validate", scheduleHandler.ValidateFit)
	schedule.POST("/assign", route("schedule.assign", scheduleHandler.Assign)...)
	schedule.DELETE("/blocks/:id/assignment", route("schedule.unassign", scheduleHandler.Unassign)...)
	schedule.POST("/blocks", route("schedule.block_create", scheduleHandler.CreateBlock)...)
	schedule.POST("/seed", route("schedule.seed", scheduleHandler.SeedWeek)...)

	students := secured.Group("/students")
	students.GET("", studentHandler.List)
	students.GET("/:id", studentHandler.Get)
	students.PUT("/:id", route("student.upsert", studentHandler.Upsert)...)

	seating := secured.Group("/seating")
	seating.GET("", seatingHandler.Chart)
	seating.POST("/grid", route("seating.grid", seatingHandler.InitGrid)...)
	seating.POST("/auto-arrange", route("seating.auto_arrange", seatingHandler.AutoArrange)...)
	seating.POST("/clear", route("seating.clear", seatingHandler.Clear)...)
	seating.POST("/swap", route("seating.swap", seatingHandler.Swap)...)

	exports := secured.Group("/exports")
	exports.POST("/schedule", route("export.schedule", exportHandler.Create)...)
	exports.GET("/:id", exportHandler.Status)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "exports", cfg.Exports.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}

// buildExports wires the export pipeline. With exports disabled the job service still
// answers status and create calls, reporting that exports are unavailable.
func buildExports(ctx context.Context, cfg *config.Config, board *service.ScheduleService, metrics *service.MetricsService, validate *validator.Validate, logr *zap.Logger) (*service.ExportJobService, *jobs.Queue) {
	jobCfg := service.ExportJobConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	}
	if !cfg.Exports.Enabled {
		return service.NewExportJobService(nil, nil, metrics, validate, logr, jobCfg), nil
	}

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(board, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	jobSvc := service.NewExportJobService(nil, exportSvc, metrics, validate, logr, jobCfg)
	worker := service.NewExportWorker(jobSvc, exportSvc, logr)
	queue := jobs.NewQueue("schedule_exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		OnGiveUp:   jobSvc.HandleGiveUp,
		Logger:     logr,
	})
	jobSvc.SetQueue(queue)
	metrics.TrackExportQueue(queue.Pending)
	queue.Start(ctx)
	jobSvc.StartCleanup(ctx)
	return jobSvc, queue
}
