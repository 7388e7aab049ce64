package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/sales/leads"
)

type memoryCustomerRepo struct {
	customers map[string]Customer
	byLead    map[string]string
}

func newMemoryCustomerRepo() *memoryCustomerRepo {
	return &memoryCustomerRepo{
		customers: make(map[string]Customer),
		byLead:    make(map[string]string),
	}
}

func (r *memoryCustomerRepo) Insert(ctx context.Context, c Customer) error {
	if c.LeadID != nil {
		if _, ok := r.byLead[*c.LeadID]; ok {
			return ErrAlreadyConverted
		}
		r.byLead[*c.LeadID] = c.ID
	}
	r.customers[c.ID] = c
	return nil
}

func (r *memoryCustomerRepo) Get(ctx context.Context, id string) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *memoryCustomerRepo) GetByLead(ctx context.Context, leadID string) (*Customer, error) {
	id, ok := r.byLead[leadID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *memoryCustomerRepo) ListByManager(ctx context.Context, accountManager string) ([]Customer, error) {
	var out []Customer
	for _, c := range r.customers {
		if c.AccountManager == accountManager {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memoryCustomerRepo) ListAll(ctx context.Context) ([]Customer, error) {
	var out []Customer
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryCustomerRepo) Update(ctx context.Context, c Customer) (int64, error) {
	if _, ok := r.customers[c.ID]; !ok {
		return 0, nil
	}
	r.customers[c.ID] = c
	return 1, nil
}

type stubLeads struct {
	leads map[string]leads.Lead
}

func (s *stubLeads) Get(ctx context.Context, id, callerID, callerRole string) (*leads.Lead, error) {
	lead, ok := s.leads[id]
	if !ok {
		return nil, leads.ErrNotFound
	}
	if lead.AssignedTo != callerID && callerRole != "manager" && callerRole != "admin" {
		return nil, leads.ErrForbidden
	}
	return &lead, nil
}

func newCustomerService(leadSet map[string]leads.Lead) (*Service, *memoryCustomerRepo) {
	repo := newMemoryCustomerRepo()
	svc := NewService(repo, &stubLeads{leads: leadSet})
	return svc, repo
}

func TestCreateCustomer(t *testing.T) {
	svc, _ := newCustomerService(nil)

	c, err := svc.Create(context.Background(), "seller", CreateInput{Name: "Acme"})
	require.NoError(t, err)
	require.Equal(t, "seller", c.AccountManager)
	require.Nil(t, c.LeadID)
}

func TestCreateCustomerRequiresName(t *testing.T) {
	svc, _ := newCustomerService(nil)
	_, err := svc.Create(context.Background(), "seller", CreateInput{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestConvertWonLead(t *testing.T) {
	svc, _ := newCustomerService(map[string]leads.Lead{
		"l1": {ID: "l1", Name: "Acme", Company: "Acme Corp", Status: leads.StatusClosedWon, AssignedTo: "seller"},
	})

	c, err := svc.ConvertLead(context.Background(), "l1", "seller", "employee")
	require.NoError(t, err)
	require.NotNil(t, c.LeadID)
	require.Equal(t, "l1", *c.LeadID)
	require.Equal(t, "Acme", c.Name)
	require.Equal(t, "seller", c.AccountManager)
}

func TestConvertOpenLeadInvalidState(t *testing.T) {
	svc, _ := newCustomerService(map[string]leads.Lead{
		"l1": {ID: "l1", Name: "Acme", Status: leads.StatusNegotiation, AssignedTo: "seller"},
	})

	_, err := svc.ConvertLead(context.Background(), "l1", "seller", "employee")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestConvertTwiceConflict(t *testing.T) {
	svc, _ := newCustomerService(map[string]leads.Lead{
		"l1": {ID: "l1", Name: "Acme", Status: leads.StatusClosedWon, AssignedTo: "seller"},
	})

	_, err := svc.ConvertLead(context.Background(), "l1", "seller", "employee")
	require.NoError(t, err)
	_, err = svc.ConvertLead(context.Background(), "l1", "seller", "employee")
	require.ErrorIs(t, err, ErrAlreadyConverted)
}

func TestConvertMissingLead(t *testing.T) {
	svc, _ := newCustomerService(nil)
	_, err := svc.ConvertLead(context.Background(), "ghost", "seller", "employee")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConvertForeignLeadForbidden(t *testing.T) {
	svc, _ := newCustomerService(map[string]leads.Lead{
		"l1": {ID: "l1", Name: "Acme", Status: leads.StatusClosedWon, AssignedTo: "seller"},
	})

	_, err := svc.ConvertLead(context.Background(), "l1", "rival", "employee")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateForeignCustomerForbidden(t *testing.T) {
	svc, _ := newCustomerService(nil)
	c, err := svc.Create(context.Background(), "seller", CreateInput{Name: "Acme"})
	require.NoError(t, err)

	name := "Acme GmbH"
	_, err = svc.Update(context.Background(), c.ID, "rival", "employee", UpdateInput{Name: &name})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(context.Background(), c.ID, "boss", "manager", UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Acme GmbH", updated.Name)
}

func TestListScopes(t *testing.T) {
	svc, _ := newCustomerService(nil)
	_, err := svc.Create(context.Background(), "s1", CreateInput{Name: "A"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "s2", CreateInput{Name: "B"})
	require.NoError(t, err)

	own, err := svc.List(context.Background(), "s1", "employee")
	require.NoError(t, err)
	require.Len(t, own, 1)

	all, err := svc.List(context.Background(), "boss", "manager")
	require.NoError(t, err)
	require.Len(t, all, 2)
}
