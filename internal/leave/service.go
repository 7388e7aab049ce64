package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/internal/rbac"
)

// RepositoryPort describes the persistence surface used by Service.
type RepositoryPort interface {
	Insert(ctx context.Context, req Request) error
	Get(ctx context.Context, id string) (*Request, error)
	ListByUser(ctx context.Context, userID string, status Status) ([]Request, error)
	ListPendingByUsers(ctx context.Context, userIDs []string) ([]Request, error)
	ListAllPending(ctx context.Context) ([]Request, error)
	UpdatePendingFields(ctx context.Context, id string, leaveType Type, start, end time.Time, durationDays int, reason string, updatedAt time.Time) (int64, error)
	DecidePending(ctx context.Context, id string, decision Status, approverID string, comments string, approvedAt *time.Time, updatedAt time.Time) (int64, error)
	CancelPending(ctx context.Context, id string, updatedAt time.Time) (int64, error)
	ApprovedDaysByType(ctx context.Context, userID string, year int) (map[Type]int, error)
}

// DirectoryPort resolves a manager's reporting line.
type DirectoryPort interface {
	TeamMemberIDs(ctx context.Context, managerID string) (map[string]struct{}, error)
}

// Service owns the leave request lifecycle: creation, owner updates,
// approval decisions and cancellation. Authorization is decided purely
// from the authenticated caller identity and role passed in by the HTTP
// layer, never from identifiers inside request payloads.
type Service struct {
	repo      RepositoryPort
	directory DirectoryPort
	now       func() time.Time
}

// NewService constructs the leave service.
func NewService(repo RepositoryPort, directory DirectoryPort) *Service {
	return &Service{repo: repo, directory: directory, now: time.Now}
}

// CreateInput carries the fields of a new leave request.
type CreateInput struct {
	UserID    string
	LeaveType Type
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// Create files a new leave request for the requester. A caller may only
// request leave for themself.
func (s *Service) Create(ctx context.Context, requesterID string, input CreateInput) (*Request, error) {
	if input.UserID != "" && input.UserID != requesterID {
		return nil, fmt.Errorf("%w: cannot request leave for another user", ErrForbidden)
	}
	if !KnownType(input.LeaveType) {
		return nil, fmt.Errorf("%w: unknown leave type %q", ErrValidation, input.LeaveType)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrValidation)
	}
	if input.StartDate.After(input.EndDate) {
		return nil, fmt.Errorf("%w: start date after end date", ErrValidation)
	}

	now := s.now().UTC()
	req := Request{
		ID:           uuid.NewString(),
		UserID:       requesterID,
		LeaveType:    input.LeaveType,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		DurationDays: DurationDays(input.StartDate, input.EndDate),
		Reason:       input.Reason,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Get is a pure lookup. View authorization differs from mutation rules,
// so callers check it separately via CanView.
func (s *Service) Get(ctx context.Context, id string) (*Request, error) {
	return s.repo.Get(ctx, id)
}

// CanView reports whether viewer may read the record: the owner always
// may, admins always may, and approval-capable roles may when the owner
// is inside their team.
func (s *Service) CanView(ctx context.Context, req *Request, viewerID, viewerRole string) (bool, error) {
	if req.UserID == viewerID {
		return true, nil
	}
	if rbac.IsAdmin(viewerRole) {
		return true, nil
	}
	if !rbac.CanApproveLeave(viewerRole) {
		return false, nil
	}
	team, err := s.directory.TeamMemberIDs(ctx, viewerID)
	if err != nil {
		return false, err
	}
	_, ok := team[req.UserID]
	return ok, nil
}

// ListOwn returns the requester's own records, most recent first,
// optionally restricted to one status.
func (s *Service) ListOwn(ctx context.Context, userID string, status Status) ([]Request, error) {
	if status != "" {
		switch status {
		case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
	}
	return s.repo.ListByUser(ctx, userID, status)
}

// ListPendingForApprover returns the pending queue visible to the
// approver: their team's requests, or every pending request for admins.
// Oldest first.
func (s *Service) ListPendingForApprover(ctx context.Context, approverID, role string) ([]Request, error) {
	if !rbac.CanApproveLeave(role) {
		return nil, fmt.Errorf("%w: not authorized to approve", ErrForbidden)
	}
	if rbac.IsAdmin(role) {
		return s.repo.ListAllPending(ctx)
	}
	team, err := s.directory.TeamMemberIDs(ctx, approverID)
	if err != nil {
		return nil, fmt.Errorf("leave: resolve team: %w", err)
	}
	if len(team) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(team))
	for id := range team {
		ids = append(ids, id)
	}
	return s.repo.ListPendingByUsers(ctx, ids)
}

// BalanceFor summarizes allotted/used/remaining days per leave type for
// the current calendar year, counting approved requests only.
func (s *Service) BalanceFor(ctx context.Context, userID string) (*Balance, error) {
	year := s.now().UTC().Year()
	used, err := s.repo.ApprovedDaysByType(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("leave: balance: %w", err)
	}

	balance := &Balance{UserID: userID, Year: year, Types: make(map[Type]TypeBalance, len(defaultAllotments))}
	for leaveType, allotted := range defaultAllotments {
		u := used[leaveType]
		balance.Types[leaveType] = TypeBalance{
			Allotted:  allotted,
			Used:      u,
			Remaining: allotted - u,
		}
	}
	return balance, nil
}

// UpdateInput carries the owner-editable fields of a pending request.
type UpdateInput struct {
	LeaveType Type
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// Update patches a still-pending request's fields. Preconditions are
// checked in order: the record must exist, must be pending, and must be
// owned by the requester. Status is never altered here.
func (s *Service) Update(ctx context.Context, id, requesterID string, input UpdateInput) (*Request, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot update non-pending request", ErrInvalidState)
	}
	if req.UserID != requesterID {
		return nil, fmt.Errorf("%w: not the request owner", ErrForbidden)
	}

	next := *req
	if input.LeaveType != "" {
		if !KnownType(input.LeaveType) {
			return nil, fmt.Errorf("%w: unknown leave type %q", ErrValidation, input.LeaveType)
		}
		next.LeaveType = input.LeaveType
	}
	if !input.StartDate.IsZero() {
		next.StartDate = input.StartDate
	}
	if !input.EndDate.IsZero() {
		next.EndDate = input.EndDate
	}
	if input.Reason != "" {
		next.Reason = input.Reason
	}
	if next.StartDate.After(next.EndDate) {
		return nil, fmt.Errorf("%w: start date after end date", ErrValidation)
	}
	next.DurationDays = DurationDays(next.StartDate, next.EndDate)
	next.UpdatedAt = s.now().UTC()

	rows, err := s.repo.UpdatePendingFields(ctx, id, next.LeaveType, next.StartDate, next.EndDate, next.DurationDays, next.Reason, next.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// A concurrent transition left pending between our read and write.
		return nil, fmt.Errorf("%w: cannot update non-pending request", ErrInvalidState)
	}
	return &next, nil
}

// Decide transitions a pending request to approved or rejected.
// Preconditions, in order: record exists, record is pending, the role is
// approval-capable, and the owner is inside the approver's team unless
// the approver is an admin. The transition is one-way.
func (s *Service) Decide(ctx context.Context, id, approverID, role string, decision Status, comments string) (*Request, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return nil, fmt.Errorf("%w: decision must be approved or rejected", ErrValidation)
	}

	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}
	if !rbac.CanApproveLeave(role) {
		return nil, fmt.Errorf("%w: not authorized to approve", ErrForbidden)
	}
	if !rbac.IsAdmin(role) {
		team, err := s.directory.TeamMemberIDs(ctx, approverID)
		if err != nil {
			return nil, fmt.Errorf("leave: resolve team: %w", err)
		}
		if _, ok := team[req.UserID]; !ok {
			return nil, fmt.Errorf("%w: request is outside your team", ErrForbidden)
		}
	}

	now := s.now().UTC()
	var approvedAt *time.Time
	if decision == StatusApproved {
		approvedAt = &now
	}
	rows, err := s.repo.DecidePending(ctx, id, decision, approverID, comments, approvedAt, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: request is no longer pending", ErrInvalidState)
	}

	next := *req
	next.Status = decision
	next.ApproverID = &approverID
	if comments != "" {
		next.ApproverComments = &comments
	}
	next.ApprovedAt = approvedAt
	next.UpdatedAt = now
	return &next, nil
}

// Cancel transitions a pending request to cancelled. Only the owner may
// cancel, and only while pending. Approver fields are never touched.
func (s *Service) Cancel(ctx context.Context, id, requesterID string) (*Request, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("%w: can only cancel pending requests", ErrInvalidState)
	}
	if req.UserID != requesterID {
		return nil, fmt.Errorf("%w: not the request owner", ErrForbidden)
	}

	now := s.now().UTC()
	rows, err := s.repo.CancelPending(ctx, id, now)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: can only cancel pending requests", ErrInvalidState)
	}

	// Confirmation read after the write. A failure here means we cannot
	// tell the caller what state the record is in, so it surfaces as-is.
	confirmed, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("leave: confirm cancellation: %w", err)
	}
	return confirmed, nil
}
