package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/shared"
)

type memoryDirectory struct {
	users map[string]User
	teams map[string]Team // keyed by lead id
}

func newMemoryDirectory() *memoryDirectory {
	return &memoryDirectory{
		users: make(map[string]User),
		teams: make(map[string]Team),
	}
}

func (m *memoryDirectory) Get(ctx context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (m *memoryDirectory) GetByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryDirectory) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryDirectory) ListByManager(ctx context.Context, managerID string) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if u.ManagerID != nil && *u.ManagerID == managerID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryDirectory) ListByDepartment(ctx context.Context, department, excludeID string) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if u.Department == department && u.ID != excludeID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryDirectory) ListNonAdmins(ctx context.Context, excludeID string) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if u.Role != "admin" && u.ID != excludeID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryDirectory) TeamByLead(ctx context.Context, leadID string) (*Team, error) {
	t, ok := m.teams[leadID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &t, nil
}

func (m *memoryDirectory) GetMany(ctx context.Context, ids []string) ([]User, error) {
	var out []User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryDirectory) UpdateProfile(ctx context.Context, id string, firstName, lastName, phone string) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.FirstName = firstName
	u.LastName = lastName
	u.Phone = phone
	m.users[id] = u
	return nil
}

func addUser(dir *memoryDirectory, id, role, department string, managerID *string) {
	dir.users[id] = User{ID: id, Username: id, Role: role, Department: department, ManagerID: managerID, IsActive: true}
}

func TestTeamMembersPrefersExplicitTeam(t *testing.T) {
	dir := newMemoryDirectory()
	addUser(dir, "lead", "team_lead", "engineering", nil)
	addUser(dir, "a", "employee", "engineering", nil)
	addUser(dir, "b", "employee", "sales", nil)
	dir.teams["lead"] = Team{ID: "t1", Name: "Core", LeadID: "lead", MemberIDs: []string{"a", "b"}}

	svc := NewService(dir)
	members, err := svc.TeamMembersByManager(context.Background(), "lead")
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestTeamMembersFallsBackToDirectReports(t *testing.T) {
	dir := newMemoryDirectory()
	mgr := "mgr"
	addUser(dir, mgr, "manager", "sales", nil)
	addUser(dir, "rep1", "employee", "sales", &mgr)
	addUser(dir, "rep2", "employee", "sales", &mgr)
	addUser(dir, "other", "employee", "hr", nil)

	svc := NewService(dir)
	members, err := svc.TeamMembersByManager(context.Background(), mgr)
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, m := range members {
		require.Equal(t, mgr, *m.ManagerID)
	}
}

func TestTeamMembersDepartmentFallback(t *testing.T) {
	dir := newMemoryDirectory()
	addUser(dir, "mgr", "manager", "hr", nil)
	addUser(dir, "peer", "employee", "hr", nil)

	svc := NewService(dir)
	members, err := svc.TeamMembersByManager(context.Background(), "mgr")
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, "peer", members[0].ID)
}

func TestTeamMembersAdminSeesAllNonAdmins(t *testing.T) {
	dir := newMemoryDirectory()
	addUser(dir, "root", "admin", "", nil)
	addUser(dir, "u1", "employee", "sales", nil)
	addUser(dir, "u2", "manager", "hr", nil)
	addUser(dir, "root2", "admin", "", nil)

	svc := NewService(dir)
	members, err := svc.TeamMembersByManager(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, members, 2)
}

func TestTeamMembersEmployeeResolvesEmpty(t *testing.T) {
	dir := newMemoryDirectory()
	addUser(dir, "emp", "employee", "sales", nil)
	addUser(dir, "peer", "employee", "sales", nil)

	svc := NewService(dir)
	members, err := svc.TeamMembersByManager(context.Background(), "emp")
	require.NoError(t, err)
	require.Empty(t, members)
}

func TestTeamMembersUnknownManagerResolvesEmpty(t *testing.T) {
	svc := NewService(newMemoryDirectory())
	members, err := svc.TeamMembersByManager(context.Background(), "ghost")
	require.NoError(t, err)
	require.Empty(t, members)
}
