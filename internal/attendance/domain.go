package attendance

import (
	"errors"
	"time"
)

// Record is one user's attendance for one calendar day. At most one
// record exists per user and date.
type Record struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Date       time.Time  `json:"date"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
	IsLate     bool       `json:"is_late"`
	WorkHours  float64    `json:"work_hours"`
	Location   string     `json:"location,omitempty"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// MonthStats summarizes one user's attendance for a month.
type MonthStats struct {
	UserID      string  `json:"user_id"`
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	WorkDays    int     `json:"work_days"`
	PresentDays int     `json:"present_days"`
	LateDays    int     `json:"late_days"`
	TotalHours  float64 `json:"total_hours"`
}

// Check-ins after this time of day are flagged late.
const lateHour, lateMinute = 9, 30

var (
	// ErrNotFound indicates no record for the user and date.
	ErrNotFound = errors.New("attendance: not found")
	// ErrAlreadyCheckedIn indicates a second check-in on the same day.
	ErrAlreadyCheckedIn = errors.New("attendance: already checked in today")
	// ErrNotCheckedIn indicates a check-out without a prior check-in.
	ErrNotCheckedIn = errors.New("attendance: not checked in today")
	// ErrAlreadyCheckedOut indicates a repeated check-out.
	ErrAlreadyCheckedOut = errors.New("attendance: already checked out today")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("attendance: invalid input")
)

// IsLateCheckIn reports whether t (local) is past the late threshold.
func IsLateCheckIn(t time.Time) bool {
	h, m := t.Hour(), t.Minute()
	return h > lateHour || (h == lateHour && m > lateMinute)
}

// Workdays counts the non-weekend days of a month.
func Workdays(year int, month time.Month) int {
	days := 0
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}
