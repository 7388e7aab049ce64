package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-hq/meridian/internal/jobs"
	"github.com/meridian-hq/meridian/internal/users"
)

// DashboardWarmer rebuilds one user's cached dashboard.
type DashboardWarmer interface {
	Warm(ctx context.Context, userID, role string) error
}

// UserLister enumerates users for scheduled warmups.
type UserLister interface {
	List(ctx context.Context) ([]users.User, error)
	Get(ctx context.Context, id string) (*users.User, error)
}

// DashboardWarmupJob pre-populates dashboard caches so the morning
// traffic spike hits warm Redis entries.
type DashboardWarmupJob struct {
	Dashboard DashboardWarmer
	Users     UserLister
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(warmer DashboardWarmer, lister UserLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboard: warmer, Users: lister, Logger: logger, Metrics: metrics}
}

// Handle processes dashboard warmup tasks. Individual user failures are
// logged and skipped so one broken account does not stall the sweep.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil || j.Users == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskDashboardWarmup)
	warmed, err := j.run(ctx, payload)
	if err := tracker.End(err); err != nil {
		return err
	}

	j.logger().Info("dashboard warmup", slog.Int("warmed", warmed))
	return nil
}

func (j *DashboardWarmupJob) run(ctx context.Context, payload DashboardWarmupPayload) (int, error) {
	targets, err := j.resolveTargets(ctx, payload)
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, u := range targets {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if err := j.Dashboard.Warm(ctx, u.ID, u.Role); err != nil {
			j.logger().Warn("dashboard warmup user",
				slog.String("user_id", u.ID),
				slog.Any("error", err),
			)
			continue
		}
		warmed++
	}
	return warmed, nil
}

func (j *DashboardWarmupJob) resolveTargets(ctx context.Context, payload DashboardWarmupPayload) ([]users.User, error) {
	if len(payload.UserIDs) == 0 {
		all, err := j.Users.List(ctx)
		if err != nil {
			return nil, err
		}
		active := all[:0]
		for _, u := range all {
			if u.IsActive {
				active = append(active, u)
			}
		}
		return active, nil
	}

	targets := make([]users.User, 0, len(payload.UserIDs))
	for _, id := range payload.UserIDs {
		u, err := j.Users.Get(ctx, id)
		if err != nil {
			j.logger().Warn("dashboard warmup lookup",
				slog.String("user_id", id),
				slog.Any("error", err),
			)
			continue
		}
		targets = append(targets, *u)
	}
	return targets, nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
