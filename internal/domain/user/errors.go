package user

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrUserNotFound            = apperror.NotFound("user not found")
	ErrUserInactive            = apperror.NotFound("user is not active")
	ErrInsufficientPermissions = apperror.Forbidden("insufficient permissions")
	ErrOrganizationIDRequired  = apperror.Forbidden("organization ID is required")
)
