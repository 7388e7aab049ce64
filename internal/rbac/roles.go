// Package rbac owns the role to capability mapping and the authorization
// predicates derived from it. The table is assembled once at package init
// and never mutated at runtime; handlers and services consult it through
// the predicate functions only.
package rbac

import "github.com/meridian-hq/meridian/internal/shared"

// Role names known to the platform.
const (
	RoleEmployee   = "employee"
	RoleTeamLead   = "team_lead"
	RoleManager    = "manager"
	RoleDevManager = "dev_manager"
	RoleAdmin      = "admin"
)

// capabilities maps each role to its granted permission set.
var capabilities = map[string]map[string]struct{}{
	RoleEmployee: permSet(
		shared.PermLeaveRequest,
		shared.PermAttendanceRecord,
		shared.PermReportsSubmit,
		shared.PermProjectsView,
		shared.PermLeadsView,
		shared.PermLeadsManage,
		shared.PermCustomersView,
		shared.PermCustomersManage,
	),
	RoleTeamLead: permSet(
		shared.PermLeaveRequest,
		shared.PermAttendanceRecord,
		shared.PermAttendanceViewTeam,
		shared.PermReportsSubmit,
		shared.PermReportsViewTeam,
		shared.PermProjectsView,
		shared.PermLeadsView,
		shared.PermLeadsManage,
		shared.PermCustomersView,
		shared.PermCustomersManage,
		shared.PermUsersView,
		shared.PermTeamsView,
	),
	RoleManager: permSet(
		shared.PermLeaveRequest,
		shared.PermLeaveApprove,
		shared.PermLeaveViewAll,
		shared.PermAttendanceRecord,
		shared.PermAttendanceViewTeam,
		shared.PermReportsSubmit,
		shared.PermReportsViewTeam,
		shared.PermProjectsView,
		shared.PermProjectsManage,
		shared.PermLeadsView,
		shared.PermLeadsManage,
		shared.PermCustomersView,
		shared.PermCustomersManage,
		shared.PermRecruitmentView,
		shared.PermRecruitmentManage,
		shared.PermUsersView,
		shared.PermTeamsView,
	),
	RoleDevManager: permSet(
		shared.PermLeaveRequest,
		shared.PermLeaveApprove,
		shared.PermLeaveViewAll,
		shared.PermAttendanceRecord,
		shared.PermAttendanceViewTeam,
		shared.PermReportsSubmit,
		shared.PermReportsViewTeam,
		shared.PermProjectsView,
		shared.PermProjectsManage,
		shared.PermRecruitmentView,
		shared.PermUsersView,
		shared.PermTeamsView,
	),
	RoleAdmin: permSet(allScopes()...),
}

// Roles returns the known role names.
func Roles() []string {
	return []string{RoleEmployee, RoleTeamLead, RoleManager, RoleDevManager, RoleAdmin}
}

// Known reports whether the role name is part of the table.
func Known(role string) bool {
	_, ok := capabilities[role]
	return ok
}

// Has reports whether the role grants the permission.
func Has(role, perm string) bool {
	set, ok := capabilities[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// IsAdmin reports whether the role carries the administrative override.
// Admins see and act across team boundaries.
func IsAdmin(role string) bool {
	return role == RoleAdmin
}

// CanApproveLeave reports whether the role may approve or reject leave
// requests. Team membership is checked separately; IsAdmin bypasses it.
func CanApproveLeave(role string) bool {
	return Has(role, shared.PermLeaveApprove)
}

// CanViewAllSales reports whether the role sees the whole sales book
// rather than only records assigned to them.
func CanViewAllSales(role string) bool {
	return role == RoleManager || role == RoleAdmin
}

// CanResolveTeam reports whether the role may be used as a manager in
// team-membership lookups.
func CanResolveTeam(role string) bool {
	return role == RoleTeamLead || role == RoleManager || role == RoleDevManager || role == RoleAdmin
}

func permSet(perms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

func allScopes() []string {
	var all []string
	all = append(all, shared.CoreScopes()...)
	all = append(all, shared.HRScopes()...)
	all = append(all, shared.SalesScopes()...)
	all = append(all, shared.ProjectScopes()...)
	return all
}
