package leads

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/internal/rbac"
)

// RepositoryPort describes the persistence surface used by Service.
type RepositoryPort interface {
	Insert(ctx context.Context, lead Lead) error
	Get(ctx context.Context, id string) (*Lead, error)
	ListByAssignee(ctx context.Context, assignedTo string) ([]Lead, error)
	ListAll(ctx context.Context) ([]Lead, error)
	Update(ctx context.Context, lead Lead) (int64, error)
	UpdateWithActivity(ctx context.Context, lead Lead, act Activity) (int64, error)
	InsertActivity(ctx context.Context, act Activity) error
	ListActivities(ctx context.Context, leadID string) ([]Activity, error)
	CountByStatus(ctx context.Context, assignedTo string) (map[Status]int, float64, error)
}

// Service owns the lead funnel.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService constructs the leads service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateInput carries the fields of a new lead.
type CreateInput struct {
	Name           string
	Company        string
	Email          string
	Phone          string
	Source         string
	EstimatedValue float64
	AssignedTo     string
	Notes          string
}

// Create registers a new lead at the top of the funnel. The assignee
// defaults to the creator.
func (s *Service) Create(ctx context.Context, creatorID string, input CreateInput) (*Lead, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if input.EstimatedValue < 0 {
		return nil, fmt.Errorf("%w: estimated value cannot be negative", ErrValidation)
	}
	assignedTo := input.AssignedTo
	if assignedTo == "" {
		assignedTo = creatorID
	}

	now := s.now().UTC()
	lead := Lead{
		ID:             uuid.NewString(),
		Name:           input.Name,
		Company:        input.Company,
		Email:          input.Email,
		Phone:          input.Phone,
		Source:         input.Source,
		EstimatedValue: input.EstimatedValue,
		Status:         StatusNew,
		AssignedTo:     assignedTo,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// Get fetches a lead visible to the caller: the assignee, or any role
// with the whole-book view.
func (s *Service) Get(ctx context.Context, id, callerID, callerRole string) (*Lead, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.AssignedTo != callerID && !rbac.CanViewAllSales(callerRole) {
		return nil, fmt.Errorf("%w: lead belongs to another seller", ErrForbidden)
	}
	return lead, nil
}

// List returns the caller's leads, or the whole book for manager-scope
// roles.
func (s *Service) List(ctx context.Context, callerID, callerRole string) ([]Lead, error) {
	if rbac.CanViewAllSales(callerRole) {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByAssignee(ctx, callerID)
}

// UpdateInput carries the mutable lead fields. Nil pointers leave a
// field unchanged.
type UpdateInput struct {
	Name           *string
	Company        *string
	Email          *string
	Phone          *string
	Source         *string
	EstimatedValue *float64
	Status         *Status
	Notes          *string
}

// Update patches a lead. Closed leads are immutable.
func (s *Service) Update(ctx context.Context, id, callerID, callerRole string, input UpdateInput) (*Lead, error) {
	lead, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Status.Closed() {
		return nil, fmt.Errorf("%w: cannot update a closed lead", ErrInvalidState)
	}
	if lead.AssignedTo != callerID && !rbac.CanViewAllSales(callerRole) {
		return nil, fmt.Errorf("%w: lead belongs to another seller", ErrForbidden)
	}

	next := *lead
	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		next.Name = *input.Name
	}
	if input.Company != nil {
		next.Company = *input.Company
	}
	if input.Email != nil {
		next.Email = *input.Email
	}
	if input.Phone != nil {
		next.Phone = *input.Phone
	}
	if input.Source != nil {
		next.Source = *input.Source
	}
	if input.EstimatedValue != nil {
		if *input.EstimatedValue < 0 {
			return nil, fmt.Errorf("%w: estimated value cannot be negative", ErrValidation)
		}
		next.EstimatedValue = *input.EstimatedValue
	}
	if input.Status != nil {
		if !KnownStatus(*input.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *input.Status)
		}
		next.Status = *input.Status
	}
	if input.Notes != nil {
		next.Notes = *input.Notes
	}
	next.UpdatedAt = s.now().UTC()

	var rows int64
	if input.Status != nil && *input.Status != lead.Status {
		act := Activity{
			ID:        uuid.NewString(),
			LeadID:    id,
			UserID:    callerID,
			Kind:      "status_change",
			Note:      fmt.Sprintf("%s -> %s", lead.Status, next.Status),
			CreatedAt: next.UpdatedAt,
		}
		rows, err = s.repo.UpdateWithActivity(ctx, next, act)
	} else {
		rows, err = s.repo.Update(ctx, next)
	}
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return &next, nil
}

// LogActivity appends one touch point to a lead.
func (s *Service) LogActivity(ctx context.Context, leadID, userID, kind, note string) (*Activity, error) {
	if kind == "" {
		return nil, fmt.Errorf("%w: activity kind is required", ErrValidation)
	}
	if _, err := s.repo.Get(ctx, leadID); err != nil {
		return nil, err
	}
	act := Activity{
		ID:        uuid.NewString(),
		LeadID:    leadID,
		UserID:    userID,
		Kind:      kind,
		Note:      note,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.InsertActivity(ctx, act); err != nil {
		return nil, err
	}
	return &act, nil
}

// Activities lists a lead's touch points, most recent first.
func (s *Service) Activities(ctx context.Context, leadID string) ([]Activity, error) {
	if _, err := s.repo.Get(ctx, leadID); err != nil {
		return nil, err
	}
	return s.repo.ListActivities(ctx, leadID)
}

// StatsFor summarizes a seller's funnel, or the whole book when the
// caller has manager scope.
func (s *Service) StatsFor(ctx context.Context, callerID, callerRole string) (*Stats, error) {
	assignee := callerID
	if rbac.CanViewAllSales(callerRole) {
		assignee = ""
	}
	counts, pipeline, err := s.repo.CountByStatus(ctx, assignee)
	if err != nil {
		return nil, fmt.Errorf("leads: stats: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	closed := counts[StatusClosedWon] + counts[StatusClosedLost]
	var conversion float64
	if closed > 0 {
		conversion = float64(counts[StatusClosedWon]) / float64(closed)
	}
	return &Stats{
		Total:          total,
		ByStatus:       counts,
		ConversionRate: conversion,
		PipelineValue:  pipeline,
	}, nil
}
