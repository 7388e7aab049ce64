package leave

import (
	"errors"
	"time"
)

// Status enumerates the lifecycle states of a leave request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// Type enumerates leave categories.
type Type string

const (
	TypeSick         Type = "sick"
	TypeVacation     Type = "vacation"
	TypePersonal     Type = "personal"
	TypeWorkFromHome Type = "work_from_home"
)

// KnownType reports whether t is a recognized leave category.
func KnownType(t Type) bool {
	switch t {
	case TypeSick, TypeVacation, TypePersonal, TypeWorkFromHome:
		return true
	}
	return false
}

// Yearly allotment per leave type.
var defaultAllotments = map[Type]int{
	TypeSick:         12,
	TypeVacation:     15,
	TypePersonal:     5,
	TypeWorkFromHome: 10,
}

// Request is a leave request record. user_id is immutable after creation
// and approver fields are written exactly once, at the decision.
type Request struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	LeaveType        Type       `json:"leave_type"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          time.Time  `json:"end_date"`
	DurationDays     int        `json:"duration_days"`
	Reason           string     `json:"reason,omitempty"`
	Status           Status     `json:"status"`
	ApproverID       *string    `json:"approver_id,omitempty"`
	ApproverComments *string    `json:"approver_comments,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DurationDays counts days in the inclusive [start, end] range.
func DurationDays(start, end time.Time) int {
	s := start.Truncate(24 * time.Hour)
	e := end.Truncate(24 * time.Hour)
	return int(e.Sub(s).Hours()/24) + 1
}

// TypeBalance is the per-type view of the yearly balance.
type TypeBalance struct {
	Allotted  int `json:"allotted"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

// Balance summarizes a user's leave balance for one calendar year.
type Balance struct {
	UserID string               `json:"user_id"`
	Year   int                  `json:"year"`
	Types  map[Type]TypeBalance `json:"types"`
}

var (
	// ErrNotFound indicates the record is absent.
	ErrNotFound = errors.New("leave: not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("leave: invalid input")
	// ErrInvalidState occurs when an operation is not valid for the
	// record's current status.
	ErrInvalidState = errors.New("leave: invalid state")
	// ErrForbidden indicates an ownership or team-membership violation.
	ErrForbidden = errors.New("leave: forbidden")
)
