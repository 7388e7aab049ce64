package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-hq/meridian/internal/app"
	"github.com/meridian-hq/meridian/internal/attendance"
	"github.com/meridian-hq/meridian/internal/dashboard"
	"github.com/meridian-hq/meridian/internal/leave"
	"github.com/meridian-hq/meridian/internal/platform/db"
	"github.com/meridian-hq/meridian/internal/projects"
	"github.com/meridian-hq/meridian/internal/sales/leads"
	"github.com/meridian-hq/meridian/internal/users"
	"github.com/meridian-hq/meridian/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	usersService := users.NewService(users.NewRepository(pool))
	attendanceService := attendance.NewService(attendance.NewRepository(pool), usersService)
	leaveService := leave.NewService(leave.NewRepository(pool), usersService)
	leadsService := leads.NewService(leads.NewRepository(pool))
	projectsService := projects.NewService(projects.NewRepository(pool))
	dashboardService := dashboard.NewService(redisClient, leaveService, attendanceService, projectsService, leadsService)

	cleanupJob := jobs.NewAttendanceCleanupJob(attendanceService, logger, nil)
	warmupJob := jobs.NewDashboardWarmupJob(dashboardService, usersService, logger, nil)

	cleanupTask, err := jobs.NewAttendanceCleanupTask(jobs.AttendanceCleanupPayload{
		RetentionDays: cfg.AttendanceRetentionDays,
	})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewDashboardWarmupTask(jobs.DashboardWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAttendanceCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.AttendanceCleanupCron, Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.DashboardWarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
