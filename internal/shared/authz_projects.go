package shared

// Project tracking permissions.
const (
	PermProjectsView   = "projects.view"
	PermProjectsManage = "projects.manage"
)

// ProjectScopes lists all permissions for project tracking.
func ProjectScopes() []string {
	return []string{
		PermProjectsView,
		PermProjectsManage,
	}
}
