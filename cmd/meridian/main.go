package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-hq/meridian/internal/app"
	"github.com/meridian-hq/meridian/internal/attendance"
	"github.com/meridian-hq/meridian/internal/auth"
	"github.com/meridian-hq/meridian/internal/dashboard"
	"github.com/meridian-hq/meridian/internal/leave"
	"github.com/meridian-hq/meridian/internal/observability"
	"github.com/meridian-hq/meridian/internal/platform/db"
	"github.com/meridian-hq/meridian/internal/projects"
	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/recruitment"
	"github.com/meridian-hq/meridian/internal/reports"
	"github.com/meridian-hq/meridian/internal/sales/customers"
	"github.com/meridian-hq/meridian/internal/sales/leads"
	"github.com/meridian-hq/meridian/internal/shared"
	"github.com/meridian-hq/meridian/internal/users"
	"github.com/meridian-hq/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	rbacMiddleware := rbac.Middleware{Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	leaveRepo := leave.NewRepository(dbpool)
	leaveService := leave.NewService(leaveRepo, usersService)

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo, usersService)
	attendanceHandler := attendance.NewHandler(logger, attendanceService, rbacMiddleware)

	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, usersService)
	reportsHandler := reports.NewHandler(logger, reportsService, rbacMiddleware)

	leadsRepo := leads.NewRepository(dbpool)
	leadsService := leads.NewService(leadsRepo)
	leadsHandler := leads.NewHandler(logger, leadsService, rbacMiddleware)

	customersRepo := customers.NewRepository(dbpool)
	customersService := customers.NewService(customersRepo, leadsService)
	customersHandler := customers.NewHandler(logger, customersService, rbacMiddleware)

	projectsRepo := projects.NewRepository(dbpool)
	projectsService := projects.NewService(projectsRepo)
	projectsHandler := projects.NewHandler(logger, projectsService, rbacMiddleware)

	recruitmentRepo := recruitment.NewRepository(dbpool)
	recruitmentService := recruitment.NewService(recruitmentRepo)
	recruitmentHandler := recruitment.NewHandler(logger, recruitmentService, rbacMiddleware)

	dashboardService := dashboard.NewService(redisClient, leaveService, attendanceService, projectsService, leadsService)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, rbacMiddleware)

	// Decisions and cancellations drop the requester's cached dashboard.
	leaveHandler := leave.NewHandler(logger, leaveService, rbacMiddleware, dashboardService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		LeaveHandler:       leaveHandler,
		AttendanceHandler:  attendanceHandler,
		ReportsHandler:     reportsHandler,
		LeadsHandler:       leadsHandler,
		CustomersHandler:   customersHandler,
		ProjectsHandler:    projectsHandler,
		RecruitmentHandler: recruitmentHandler,
		DashboardHandler:   dashboardHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
