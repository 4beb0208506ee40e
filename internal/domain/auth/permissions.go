package auth

const (
	PermEmployeesManage   = "employees.manage"
	PermAttendanceManage  = "attendance.manage"
	PermLeavesApprove     = "leaves.approve"
	PermPayrollView       = "payroll.view"
	PermPayrollRun        = "payroll.run"
	PermPayrollSalaryEdit = "payroll.salary.update"
	PermUsersManage       = "users.manage"
	PermAuditView         = "audit.view"
)

var DefaultPermissions = []string{
	PermEmployeesManage,
	PermAttendanceManage,
	PermLeavesApprove,
	PermPayrollView,
	PermPayrollRun,
	PermPayrollSalaryEdit,
	PermUsersManage,
	PermAuditView,
}

const (
	RoleHRManager    = "HR Manager"
	RolePayrollClerk = "Payroll Clerk"
	RoleAuditor      = "Auditor"
)

var RolePermissions = map[string][]string{
	RoleHRManager: {
		PermEmployeesManage,
		PermAttendanceManage,
		PermLeavesApprove,
		PermPayrollView,
		PermPayrollRun,
		PermPayrollSalaryEdit,
		PermAuditView,
	},
	RolePayrollClerk: {
		PermPayrollView,
		PermPayrollRun,
	},
	RoleAuditor: {
		PermAuditView,
	},
}
