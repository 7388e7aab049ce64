package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort describes the persistence surface used by Service.
type RepositoryPort interface {
	Insert(ctx context.Context, rec Record) error
	GetByUserDate(ctx context.Context, userID string, date time.Time) (*Record, error)
	SetCheckOut(ctx context.Context, id string, checkOut time.Time, workHours float64, updatedAt time.Time) (int64, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]Record, error)
	ListByUsersDate(ctx context.Context, userIDs []string, date time.Time) ([]Record, error)
	MonthAggregate(ctx context.Context, userID string, year int, month time.Month) (present, late int, hours float64, err error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DirectoryPort resolves a manager's reporting line.
type DirectoryPort interface {
	TeamMemberIDs(ctx context.Context, managerID string) (map[string]struct{}, error)
}

// Service implements the daily check-in/check-out workflow: one record
// per user and day, a late flag past 09:30, and work hours computed at
// check-out.
type Service struct {
	repo      RepositoryPort
	directory DirectoryPort
	now       func() time.Time
}

// NewService constructs the attendance service.
func NewService(repo RepositoryPort, directory DirectoryPort) *Service {
	return &Service{repo: repo, directory: directory, now: time.Now}
}

// CheckIn opens today's attendance record for the user.
func (s *Service) CheckIn(ctx context.Context, userID, location, note string) (*Record, error) {
	now := s.now()
	today := dateOnly(now)

	existing, err := s.repo.GetByUserDate(ctx, userID, today)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyCheckedIn
	}

	rec := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Date:      today,
		CheckIn:   now.UTC(),
		IsLate:    IsLateCheckIn(now),
		Location:  location,
		Note:      note,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CheckOut completes today's record and computes work hours.
func (s *Service) CheckOut(ctx context.Context, userID string) (*Record, error) {
	now := s.now()
	today := dateOnly(now)

	rec, err := s.repo.GetByUserDate(ctx, userID, today)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}
	if rec.CheckOut != nil {
		return nil, ErrAlreadyCheckedOut
	}

	checkOut := now.UTC()
	hours := checkOut.Sub(rec.CheckIn).Hours()
	if hours < 0 {
		hours = 0
	}
	rows, err := s.repo.SetCheckOut(ctx, rec.ID, checkOut, hours, checkOut)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAlreadyCheckedOut
	}

	rec.CheckOut = &checkOut
	rec.WorkHours = hours
	rec.UpdatedAt = checkOut
	return rec, nil
}

// Today returns the caller's record for the current day.
func (s *Service) Today(ctx context.Context, userID string) (*Record, error) {
	return s.repo.GetByUserDate(ctx, userID, dateOnly(s.now()))
}

// ListRange returns a user's records between two dates inclusive.
func (s *Service) ListRange(ctx context.Context, userID string, from, to time.Time) ([]Record, error) {
	if from.After(to) {
		return nil, fmt.Errorf("%w: from after to", ErrValidation)
	}
	return s.repo.ListRange(ctx, userID, from, to)
}

// TeamToday returns today's records for the manager's team.
func (s *Service) TeamToday(ctx context.Context, managerID string) ([]Record, error) {
	team, err := s.directory.TeamMemberIDs(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("attendance: resolve team: %w", err)
	}
	if len(team) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(team))
	for id := range team {
		ids = append(ids, id)
	}
	return s.repo.ListByUsersDate(ctx, ids, dateOnly(s.now()))
}

// StatsForMonth summarizes a user's month: present days against the
// weekday count, late days and summed hours.
func (s *Service) StatsForMonth(ctx context.Context, userID string, year int, month time.Month) (*MonthStats, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month out of range", ErrValidation)
	}
	present, late, hours, err := s.repo.MonthAggregate(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}
	return &MonthStats{
		UserID:      userID,
		Year:        year,
		Month:       int(month),
		WorkDays:    Workdays(year, month),
		PresentDays: present,
		LateDays:    late,
		TotalHours:  hours,
	}, nil
}

// PurgeOlderThan removes records past the retention window.
func (s *Service) PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("%w: retention days must be positive", ErrValidation)
	}
	cutoff := dateOnly(s.now()).AddDate(0, 0, -retentionDays)
	return s.repo.DeleteOlderThan(ctx, cutoff)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
