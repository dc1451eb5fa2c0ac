package user

import "time"

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleHR         Role = "hr"
	RoleSupervisor Role = "supervisor"
	RoleEmployee   Role = "employee"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleHR, RoleSupervisor, RoleEmployee:
		return true
	}
	return false
}

// SeesAllOrganizationData reports whether r is not restricted to its own or its team's data.
func (r Role) SeesAllOrganizationData() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleHR
}

// User is the read-only projection of an organization member. Accounts are managed elsewhere.
type User struct {
	ID             string
	OrganizationID string
	FullName       string
	Email          string
	Role           Role
	DepartmentID   *string
	SupervisorID   *string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Actor identifies who performs an operation, as resolved from the access token.
type Actor struct {
	UserID         string
	OrganizationID string
	Role           Role
}
