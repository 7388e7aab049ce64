package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/shared"
)

// RepositoryPort defines the data access surface the service needs.
type RepositoryPort interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	ListByManager(ctx context.Context, managerID string) ([]User, error)
	ListByDepartment(ctx context.Context, department, excludeID string) ([]User, error)
	ListNonAdmins(ctx context.Context, excludeID string) ([]User, error)
	TeamByLead(ctx context.Context, leadID string) (*Team, error)
	GetMany(ctx context.Context, ids []string) ([]User, error)
	UpdateProfile(ctx context.Context, id string, firstName, lastName, phone string) error
}

// Service handles directory business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all directory entries.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile lets a user change their own profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id, firstName, lastName, phone string) (*User, error) {
	if err := s.repo.UpdateProfile(ctx, id, firstName, lastName, phone); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// TeamMembersByManager resolves the reporting line of a manager, in order:
// a team led by the manager, then direct reports, then same-department
// members. Admins without any of those see every non-admin. Users whose
// role cannot head a team resolve to an empty set.
func (s *Service) TeamMembersByManager(ctx context.Context, managerID string) ([]User, error) {
	manager, err := s.repo.Get(ctx, managerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("users: resolve manager: %w", err)
	}
	if !rbac.CanResolveTeam(manager.Role) {
		return nil, nil
	}

	team, err := s.repo.TeamByLead(ctx, managerID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if team != nil && len(team.MemberIDs) > 0 {
		return s.repo.GetMany(ctx, team.MemberIDs)
	}

	reports, err := s.repo.ListByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	if len(reports) > 0 {
		return reports, nil
	}

	if manager.Department != "" {
		members, err := s.repo.ListByDepartment(ctx, manager.Department, managerID)
		if err != nil {
			return nil, err
		}
		if len(members) > 0 {
			return members, nil
		}
	}

	if rbac.IsAdmin(manager.Role) {
		return s.repo.ListNonAdmins(ctx, managerID)
	}
	return nil, nil
}

// TeamMemberIDs returns the member ids of TeamMembersByManager as a set.
func (s *Service) TeamMemberIDs(ctx context.Context, managerID string) (map[string]struct{}, error) {
	members, err := s.TeamMembersByManager(ctx, managerID)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(members))
	for _, m := range members {
		ids[m.ID] = struct{}{}
	}
	return ids, nil
}
