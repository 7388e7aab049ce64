package shared

// Sales department permissions.
const (
	PermLeadsView   = "leads.view"
	PermLeadsManage = "leads.manage"

	PermCustomersView   = "customers.view"
	PermCustomersManage = "customers.manage"
)

// SalesScopes lists all permissions owned by the sales department.
func SalesScopes() []string {
	return []string{
		PermLeadsView,
		PermLeadsManage,
		PermCustomersView,
		PermCustomersManage,
	}
}
