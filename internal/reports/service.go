package reports

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/internal/rbac"
)

// RepositoryPort is the persistence contract consumed by the service.
type RepositoryPort interface {
	Insert(ctx context.Context, rep Report) error
	Get(ctx context.Context, id string) (*Report, error)
	GetByUserDate(ctx context.Context, userID string, date time.Time) (*Report, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]Report, error)
	ListByUsersDate(ctx context.Context, userIDs []string, date time.Time) ([]Report, error)
	Update(ctx context.Context, rep Report) (int64, error)
}

// DirectoryPort resolves a manager's reporting line.
type DirectoryPort interface {
	TeamMemberIDs(ctx context.Context, managerID string) (map[string]struct{}, error)
}

// Service implements the daily report workflow.
type Service struct {
	repo      RepositoryPort
	directory DirectoryPort
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, directory DirectoryPort) *Service {
	return &Service{repo: repo, directory: directory, now: time.Now}
}

// SubmitInput carries the fields for a new daily report.
type SubmitInput struct {
	Content  string
	Blockers string
	Plans    string
}

// Submit files the caller's report for today. A second submission on
// the same day fails with ErrDuplicate.
func (s *Service) Submit(ctx context.Context, userID string, in SubmitInput) (*Report, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, ErrValidation
	}

	now := s.now().UTC()
	rep := Report{
		ID:         uuid.NewString(),
		UserID:     userID,
		ReportDate: dateOnly(now),
		Content:    strings.TrimSpace(in.Content),
		Blockers:   in.Blockers,
		Plans:      in.Plans,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Today returns the caller's report for today, or ErrNotFound.
func (s *Service) Today(ctx context.Context, userID string) (*Report, error) {
	return s.repo.GetByUserDate(ctx, userID, dateOnly(s.now().UTC()))
}

// UpdateInput is a partial patch for a report. Empty Content keeps the
// stored text.
type UpdateInput struct {
	Content  string
	Blockers *string
	Plans    *string
}

// Update patches the caller's own report.
func (s *Service) Update(ctx context.Context, id, userID string, in UpdateInput) (*Report, error) {
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.UserID != userID {
		return nil, ErrForbidden
	}

	if in.Content != "" {
		rep.Content = strings.TrimSpace(in.Content)
		if rep.Content == "" {
			return nil, ErrValidation
		}
	}
	if in.Blockers != nil {
		rep.Blockers = *in.Blockers
	}
	if in.Plans != nil {
		rep.Plans = *in.Plans
	}
	rep.UpdatedAt = s.now().UTC()

	rows, err := s.repo.Update(ctx, *rep)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return rep, nil
}

// ListRange returns the caller's reports between two dates inclusive.
func (s *Service) ListRange(ctx context.Context, userID string, from, to time.Time) ([]Report, error) {
	if from.After(to) {
		return nil, ErrValidation
	}
	return s.repo.ListRange(ctx, userID, dateOnly(from), dateOnly(to))
}

// TeamForDate returns the reports the caller's team filed on one day.
// Admins receive their managed team like everyone else; use the range
// listing per user for deeper audits.
func (s *Service) TeamForDate(ctx context.Context, managerID, role string, date time.Time) ([]Report, error) {
	if !rbac.CanResolveTeam(role) {
		return nil, ErrForbidden
	}
	team, err := s.directory.TeamMemberIDs(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if len(team) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(team))
	for id := range team {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return s.repo.ListByUsersDate(ctx, ids, dateOnly(date))
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
