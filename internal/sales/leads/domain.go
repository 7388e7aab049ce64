package leads

import (
	"errors"
	"time"
)

// Status enumerates the lead funnel stages.
type Status string

const (
	StatusNew         Status = "new"
	StatusContacted   Status = "contacted"
	StatusQualified   Status = "qualified"
	StatusProposal    Status = "proposal"
	StatusNegotiation Status = "negotiation"
	StatusClosedWon   Status = "closed_won"
	StatusClosedLost  Status = "closed_lost"
)

// KnownStatus reports whether s is a recognized funnel stage.
func KnownStatus(s Status) bool {
	switch s {
	case StatusNew, StatusContacted, StatusQualified, StatusProposal,
		StatusNegotiation, StatusClosedWon, StatusClosedLost:
		return true
	}
	return false
}

// Closed reports whether the lead left the active funnel.
func (s Status) Closed() bool {
	return s == StatusClosedWon || s == StatusClosedLost
}

// Lead is one sales prospect working through the funnel.
type Lead struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Company        string    `json:"company,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Source         string    `json:"source,omitempty"`
	EstimatedValue float64   `json:"estimated_value"`
	Status         Status    `json:"status"`
	AssignedTo     string    `json:"assigned_to"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Activity is one logged touch point on a lead.
type Activity struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes the funnel.
type Stats struct {
	Total          int            `json:"total"`
	ByStatus       map[Status]int `json:"by_status"`
	ConversionRate float64        `json:"conversion_rate"`
	PipelineValue  float64        `json:"pipeline_value"`
}

var (
	// ErrNotFound indicates the lead is absent.
	ErrNotFound = errors.New("leads: not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("leads: invalid input")
	// ErrInvalidState occurs when mutating a closed lead.
	ErrInvalidState = errors.New("leads: lead is closed")
	// ErrForbidden indicates the caller does not own the lead.
	ErrForbidden = errors.New("leads: forbidden")
)
