package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/shared"
)

func TestCapabilityTableCoversAllRoles(t *testing.T) {
	for _, role := range Roles() {
		require.True(t, Known(role), "role %s missing from table", role)
	}
	require.False(t, Known("superuser"))
}

func TestApprovalCapableRoles(t *testing.T) {
	require.True(t, CanApproveLeave(RoleManager))
	require.True(t, CanApproveLeave(RoleDevManager))
	require.True(t, CanApproveLeave(RoleAdmin))
	require.False(t, CanApproveLeave(RoleEmployee))
	require.False(t, CanApproveLeave(RoleTeamLead))
}

func TestAdminOverride(t *testing.T) {
	require.True(t, IsAdmin(RoleAdmin))
	require.False(t, IsAdmin(RoleManager))
	require.False(t, IsAdmin(RoleDevManager))
}

func TestAdminGrantsEverything(t *testing.T) {
	var all []string
	all = append(all, shared.CoreScopes()...)
	all = append(all, shared.HRScopes()...)
	all = append(all, shared.SalesScopes()...)
	all = append(all, shared.ProjectScopes()...)
	for _, perm := range all {
		require.True(t, Has(RoleAdmin, perm), "admin missing %s", perm)
	}
}

func TestEmployeeCannotViewAllLeave(t *testing.T) {
	require.False(t, Has(RoleEmployee, shared.PermLeaveViewAll))
	require.True(t, Has(RoleEmployee, shared.PermLeaveRequest))
}
