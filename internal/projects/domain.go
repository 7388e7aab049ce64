package projects

import (
	"errors"
	"time"
)

// Status enumerates project states.
type Status string

const (
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Closed reports whether the project no longer accepts changes.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// KnownStatus reports whether s is a recognized project state.
func KnownStatus(s Status) bool {
	switch s {
	case StatusActive, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// TaskStatus enumerates task workflow states.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
)

// KnownTaskStatus reports whether s is a recognized task state.
func KnownTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskCompleted:
		return true
	}
	return false
}

// Project groups a task list under one manager.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	ManagerID   string     `json:"manager_id"`
	MemberIDs   []string   `json:"member_ids"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Task is one unit of work inside a project.
type Task struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	Title      string     `json:"title"`
	Details    string     `json:"details,omitempty"`
	Status     TaskStatus `json:"status"`
	AssigneeID string     `json:"assignee_id,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Stats summarizes the project portfolio.
type Stats struct {
	ActiveProjects    int                `json:"active_projects"`
	CompletedProjects int                `json:"completed_projects"`
	TasksByStatus     map[TaskStatus]int `json:"tasks_by_status"`
	OverdueTasks      int                `json:"overdue_tasks"`
}

var (
	// ErrNotFound indicates the project or task is absent.
	ErrNotFound = errors.New("projects: not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("projects: invalid input")
	// ErrForbidden indicates the caller may not mutate the project.
	ErrForbidden = errors.New("projects: forbidden")
	// ErrInvalidState occurs when mutating a finished project.
	ErrInvalidState = errors.New("projects: project is closed")
)
