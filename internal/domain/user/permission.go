package user

type Permission string

const (
	// Leave
	PermissionLeaveViewOwn Permission = "leave.view_own"
	PermissionLeaveCreate  Permission = "leave.create"
	PermissionLeaveReview  Permission = "leave.review"
	PermissionLeaveViewAll Permission = "leave.view_all"

	// Attendance
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceCreate  Permission = "attendance.create"

	// Payroll
	PermissionPayslipViewOwn Permission = "payroll.view_own"
	PermissionPayrollManage  Permission = "payroll.manage"
	PermissionSalaryManage   Permission = "salary.manage"
	PermissionCalendarView   Permission = "calendar.view"
)

var employeePermissions = []Permission{
	PermissionLeaveViewOwn,
	PermissionLeaveCreate,
	PermissionAttendanceViewOwn,
	PermissionAttendanceCreate,
	PermissionPayslipViewOwn,
	PermissionCalendarView,
}

var adminPermissions = append([]Permission{
	PermissionLeaveReview,
	PermissionLeaveViewAll,
	PermissionPayrollManage,
	PermissionSalaryManage,
}, employeePermissions...)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: adminPermissions,
	RoleAdmin:      adminPermissions,
	RoleHR:         adminPermissions,
	RoleSupervisor: append([]Permission{
		// Supervisors review their direct reports only; the leave service narrows the scope.
		PermissionLeaveReview,
	}, employeePermissions...),
	RoleEmployee: employeePermissions,
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}
