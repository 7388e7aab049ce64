package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/sales/leads"
)

// RepositoryPort describes the persistence surface used by Service.
type RepositoryPort interface {
	Insert(ctx context.Context, c Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
	GetByLead(ctx context.Context, leadID string) (*Customer, error)
	ListByManager(ctx context.Context, accountManager string) ([]Customer, error)
	ListAll(ctx context.Context) ([]Customer, error)
	Update(ctx context.Context, c Customer) (int64, error)
}

// LeadsPort exposes the lead lookup needed for conversion.
type LeadsPort interface {
	Get(ctx context.Context, id, callerID, callerRole string) (*leads.Lead, error)
}

// Service owns customer accounts, including lead conversion.
type Service struct {
	repo  RepositoryPort
	leads LeadsPort
	now   func() time.Time
}

// NewService constructs the customers service.
func NewService(repo RepositoryPort, leadsSvc LeadsPort) *Service {
	return &Service{repo: repo, leads: leadsSvc, now: time.Now}
}

// CreateInput carries the fields of a new customer.
type CreateInput struct {
	Name    string
	Company string
	Email   string
	Phone   string
	Notes   string
}

// Create registers a customer from scratch, managed by the creator.
func (s *Service) Create(ctx context.Context, creatorID string, input CreateInput) (*Customer, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	now := s.now().UTC()
	c := Customer{
		ID:             uuid.NewString(),
		Name:           input.Name,
		Company:        input.Company,
		Email:          input.Email,
		Phone:          input.Phone,
		AccountManager: creatorID,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ConvertLead creates a customer from a closed-won lead. The converted
// account keeps the lead's contact fields and is managed by the lead's
// assignee.
func (s *Service) ConvertLead(ctx context.Context, leadID, callerID, callerRole string) (*Customer, error) {
	lead, err := s.leads.Get(ctx, leadID, callerID, callerRole)
	if err != nil {
		if errors.Is(err, leads.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, leads.ErrForbidden) {
			return nil, fmt.Errorf("%w: lead belongs to another seller", ErrForbidden)
		}
		return nil, err
	}
	if lead.Status != leads.StatusClosedWon {
		return nil, fmt.Errorf("%w: lead status is %s", ErrInvalidState, lead.Status)
	}
	if existing, err := s.repo.GetByLead(ctx, leadID); err == nil && existing != nil {
		return nil, ErrAlreadyConverted
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	id := leadID
	c := Customer{
		ID:             uuid.NewString(),
		Name:           lead.Name,
		Company:        lead.Company,
		Email:          lead.Email,
		Phone:          lead.Phone,
		LeadID:         &id,
		AccountManager: lead.AssignedTo,
		Notes:          lead.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Get fetches a customer visible to the caller.
func (s *Service) Get(ctx context.Context, id, callerID, callerRole string) (*Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AccountManager != callerID && !rbac.CanViewAllSales(callerRole) {
		return nil, fmt.Errorf("%w: account managed by another seller", ErrForbidden)
	}
	return c, nil
}

// List returns the caller's accounts, or every account for manager
// scope.
func (s *Service) List(ctx context.Context, callerID, callerRole string) ([]Customer, error) {
	if rbac.CanViewAllSales(callerRole) {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByManager(ctx, callerID)
}

// UpdateInput carries the mutable customer fields. Nil pointers leave a
// field unchanged.
type UpdateInput struct {
	Name    *string
	Company *string
	Email   *string
	Phone   *string
	Notes   *string
}

// Update patches a customer the caller manages.
func (s *Service) Update(ctx context.Context, id, callerID, callerRole string, input UpdateInput) (*Customer, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.AccountManager != callerID && !rbac.CanViewAllSales(callerRole) {
		return nil, fmt.Errorf("%w: account managed by another seller", ErrForbidden)
	}

	next := *c
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
	if input.Notes != nil {
		next.Notes = *input.Notes
	}
	next.UpdatedAt = s.now().UTC()

	rows, err := s.repo.Update(ctx, next)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return &next, nil
}
