package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-hq/meridian/internal/jobs"
)

const defaultRetentionDays = 365

// AttendancePurger prunes attendance records older than the retention
// window.
type AttendancePurger interface {
	PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// AttendanceCleanupJob sweeps expired attendance records.
type AttendanceCleanupJob struct {
	Attendance AttendancePurger
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewAttendanceCleanupJob wires dependencies for the cleanup handler.
func NewAttendanceCleanupJob(purger AttendancePurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *AttendanceCleanupJob {
	return &AttendanceCleanupJob{Attendance: purger, Logger: logger, Metrics: metrics}
}

// Handle processes attendance cleanup tasks.
func (j *AttendanceCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Attendance == nil {
		return errors.New("attendance cleanup: handler not configured")
	}
	var payload AttendanceCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = defaultRetentionDays
	}

	tracker := j.Metrics.Track(TaskAttendanceCleanup)
	removed, err := j.Attendance.PurgeOlderThan(ctx, payload.RetentionDays)
	if err := tracker.End(err); err != nil {
		return err
	}

	j.logger().Info("attendance cleanup",
		slog.Int("retention_days", payload.RetentionDays),
		slog.Int64("removed", removed),
	)
	return nil
}

func (j *AttendanceCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
