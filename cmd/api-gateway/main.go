package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-substitution-api/api/swagger"
	"github.com/noah-isme/sma-substitution-api/internal/handler"
	"github.com/noah-isme/sma-substitution-api/internal/middleware"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
	"github.com/noah-isme/sma-substitution-api/internal/service"
	"github.com/noah-isme/sma-substitution-api/pkg/cache"
	"github.com/noah-isme/sma-substitution-api/pkg/config"
	"github.com/noah-isme/sma-substitution-api/pkg/database"
	"github.com/noah-isme/sma-substitution-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-substitution-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-substitution-api/pkg/middleware/requestid"
)

// @title SMA Substitution API
// @version 1.0.0
// @description Substitute-teacher assignment for school timetables
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type handlers struct {
	teachers      *handler.TeacherHandler
	availability  *handler.AvailabilityHandler
	substitutions *handler.SubstitutionHandler
	payroll       *handler.PayrollHandler
	timetable     *handler.TimetableHandler
	metrics       *handler.MetricsHandler
}

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(context.Background(), db); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	h := buildHandlers(cfg, db, cacheRepo, metricsSvc, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", h.metrics.Prometheus)
		r.GET("/metrics/summary", h.metrics.Summary)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.RequestTimeout(cfg.Substitution.RequestTimeout))
	registerRoutes(api, h, authSvc, cfg.Substitution.Enabled, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func buildHandlers(cfg *config.Config, db *sqlx.DB, cacheRepo *repository.CacheRepository, metricsSvc *service.MetricsService, logr *zap.Logger) handlers {
	validate := validator.New()
	subCfg := cfg.Substitution

	teacherRepo := repository.NewTeacherRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	importRepo := repository.NewTimetableImportRepository(db)
	substitutionRepo := repository.NewSubstitutionRepository(db)
	payrollRepo := repository.NewPayrollSettingsRepository(db)
	extraTaskRepo := repository.NewExtraTaskRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, subCfg.TimetableCacheTTL, logr, cacheRepo.Enabled())
	timetableSvc := service.NewTimetableService(timetableRepo, teacherRepo, cacheSvc, subCfg.TimetableCacheTTL, metricsSvc, logr)
	availabilitySvc := service.NewAvailabilityService(timetableSvc, substitutionRepo, service.AvailabilityConfig{
		OperatingDays:        subCfg.OperatingDays,
		DefaultPeriodsPerDay: subCfg.DefaultPeriodsPerDay,
	}, logr)
	candidateSvc := service.NewCandidateService(availabilitySvc, subCfg.OperatingDays, metricsSvc, logr)
	payrollSvc := service.NewPayrollService(payrollRepo, validate, logr)
	substitutionSvc := service.NewSubstitutionService(substitutionRepo, teacherRepo, timetableRepo, payrollSvc, validate, metricsSvc, logr)
	extraTaskSvc := service.NewExtraTaskService(extraTaskRepo, teacherRepo, payrollSvc, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, timetableSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(timetableSvc, substitutionRepo, subCfg.OperatingDays, logr)
	importSvc := service.NewTimetableImportService(importRepo, db, timetableSvc, validate, logr)

	deps := map[string]handler.Pinger{"postgres": db}
	if cacheRepo.Enabled() {
		deps["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	return handlers{
		teachers:      handler.NewTeacherHandler(teacherSvc, scheduleSvc),
		availability:  handler.NewAvailabilityHandler(availabilitySvc, candidateSvc),
		substitutions: handler.NewSubstitutionHandler(substitutionSvc),
		payroll:       handler.NewPayrollHandler(payrollSvc, extraTaskSvc),
		timetable:     handler.NewTimetableHandler(importSvc),
		metrics:       handler.NewMetricsHandler(metricsSvc, deps),
	}
}

func registerRoutes(api *gin.RouterGroup, h handlers, authSvc *service.AuthService, substitutionsEnabled bool, logr *zap.Logger) {
	school := api.Group("/schools/:"+middleware.SchoolParam, middleware.JWT(authSvc), middleware.SchoolScope(), middleware.WithResponseMeta())
	manager := middleware.RequireManager()

	teachers := school.Group("/teachers")
	teachers.GET("", h.teachers.List)
	teachers.GET("/:id", h.teachers.Get)
	teachers.GET("/:id/day", h.teachers.Day)
	teachers.PATCH("/:id/profile", manager, middleware.Audit(logr, "teacher.profile.update"), h.teachers.UpdateProfile)

	school.PUT("/timetable", manager, middleware.Audit(logr, "timetable.replace"), h.timetable.Replace)

	school.GET("/payroll-settings", h.payroll.GetSettings)
	school.PUT("/payroll-settings", manager, middleware.Audit(logr, "payroll.settings.update"), h.payroll.UpdateSettings)
	school.GET("/extra-tasks", h.payroll.ListTasks)
	school.POST("/extra-tasks", manager, middleware.Audit(logr, "extra_task.create"), h.payroll.CreateTask)
	school.DELETE("/extra-tasks/:id", manager, middleware.Audit(logr, "extra_task.delete"), h.payroll.DeleteTask)

	gated := school.Group("", middleware.FeatureFlag(substitutionsEnabled))
	gated.GET("/availability/busy", h.availability.Busy)

	subs := gated.Group("/substitutions")
	subs.GET("", h.substitutions.List)
	subs.GET("/candidates", h.availability.Candidates)
	subs.GET("/:id", h.substitutions.Get)
	subs.POST("", manager, middleware.Audit(logr, "substitution.create"), h.substitutions.Create)
	subs.POST("/:id/cancel", manager, middleware.Audit(logr, "substitution.cancel"), h.substitutions.Cancel)
	subs.DELETE("/:id", manager, middleware.Audit(logr, "substitution.delete"), h.substitutions.Delete)
}
