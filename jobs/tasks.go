package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAttendanceCleanup prunes attendance records past retention.
	TaskAttendanceCleanup = "attendance:cleanup"
	// TaskDashboardWarmup rebuilds cached dashboards ahead of the workday.
	TaskDashboardWarmup = "dashboard:warmup"
)

// AttendanceCleanupPayload configures one retention sweep.
type AttendanceCleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAttendanceCleanupTask constructs an Asynq task.
func NewAttendanceCleanupTask(payload AttendanceCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttendanceCleanup, data), nil
}

// DashboardWarmupPayload configures one warmup run. An empty UserIDs
// slice warms every active user.
type DashboardWarmupPayload struct {
	UserIDs []string `json:"user_ids,omitempty"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}
