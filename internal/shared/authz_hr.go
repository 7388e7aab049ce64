package shared

// HR department permissions.
const (
	PermLeaveRequest = "leave.request"
	PermLeaveApprove = "leave.approve"
	PermLeaveViewAll = "leave.view_all"

	PermAttendanceRecord   = "attendance.record"
	PermAttendanceViewTeam = "attendance.view_team"

	PermReportsSubmit   = "reports.submit"
	PermReportsViewTeam = "reports.view_team"

	PermRecruitmentView   = "recruitment.view"
	PermRecruitmentManage = "recruitment.manage"
)

// HRScopes lists all permissions owned by the HR department.
func HRScopes() []string {
	return []string{
		PermLeaveRequest,
		PermLeaveApprove,
		PermLeaveViewAll,
		PermAttendanceRecord,
		PermAttendanceViewTeam,
		PermReportsSubmit,
		PermReportsViewTeam,
		PermRecruitmentView,
		PermRecruitmentManage,
	}
}
