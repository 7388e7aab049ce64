package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/users"
)

type fakePurger struct {
	gotRetention int
	removed      int64
	err          error
}

func (f *fakePurger) PurgeOlderThan(_ context.Context, retentionDays int) (int64, error) {
	f.gotRetention = retentionDays
	return f.removed, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAttendanceCleanupDefaultsRetention(t *testing.T) {
	purger := &fakePurger{removed: 7}
	job := NewAttendanceCleanupJob(purger, discard(), nil)

	task, err := NewAttendanceCleanupTask(AttendanceCleanupPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, defaultRetentionDays, purger.gotRetention)
}

func TestAttendanceCleanupPropagatesError(t *testing.T) {
	purger := &fakePurger{err: errors.New("boom")}
	job := NewAttendanceCleanupJob(purger, discard(), nil)

	task, err := NewAttendanceCleanupTask(AttendanceCleanupPayload{RetentionDays: 30})
	require.NoError(t, err)

	require.Error(t, job.Handle(context.Background(), task))
	require.Equal(t, 30, purger.gotRetention)
}

func TestAttendanceCleanupBadPayloadSkipsRetry(t *testing.T) {
	job := NewAttendanceCleanupJob(&fakePurger{}, discard(), nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskAttendanceCleanup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type fakeWarmupDeps struct {
	users  []users.User
	warmed []string
	fail   map[string]bool
}

func (f *fakeWarmupDeps) Warm(_ context.Context, userID, _ string) error {
	if f.fail[userID] {
		return errors.New("warm failed")
	}
	f.warmed = append(f.warmed, userID)
	return nil
}

func (f *fakeWarmupDeps) List(context.Context) ([]users.User, error) {
	return f.users, nil
}

func (f *fakeWarmupDeps) Get(_ context.Context, id string) (*users.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			clone := u
			return &clone, nil
		}
	}
	return nil, errors.New("not found")
}

func TestDashboardWarmupSkipsInactiveAndFailing(t *testing.T) {
	deps := &fakeWarmupDeps{
		users: []users.User{
			{ID: "u-1", Role: "employee", IsActive: true},
			{ID: "u-2", Role: "employee", IsActive: false},
			{ID: "u-3", Role: "manager", IsActive: true},
		},
		fail: map[string]bool{"u-3": true},
	}
	job := NewDashboardWarmupJob(deps, deps, discard(), nil)

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"u-1"}, deps.warmed)
}

func TestDashboardWarmupTargetsExplicitUsers(t *testing.T) {
	deps := &fakeWarmupDeps{
		users: []users.User{
			{ID: "u-1", Role: "employee", IsActive: true},
			{ID: "u-2", Role: "employee", IsActive: true},
		},
	}
	job := NewDashboardWarmupJob(deps, deps, discard(), nil)

	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{UserIDs: []string{"u-2", "missing"}})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"u-2"}, deps.warmed)
}
