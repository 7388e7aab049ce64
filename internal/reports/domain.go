package reports

import (
	"errors"
	"time"
)

// Report is one user's daily work summary. At most one exists per user
// and date.
type Report struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ReportDate time.Time `json:"report_date"`
	Content    string    `json:"content"`
	Blockers   string    `json:"blockers,omitempty"`
	Plans      string    `json:"plans,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var (
	// ErrNotFound indicates the report is absent.
	ErrNotFound = errors.New("reports: not found")
	// ErrDuplicate indicates a report already exists for the user and day.
	ErrDuplicate = errors.New("reports: report already submitted for this day")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("reports: invalid input")
	// ErrForbidden indicates the caller does not own the report.
	ErrForbidden = errors.New("reports: forbidden")
)
