package calendar

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrInvalidMonth = apperror.Validation("month must be between 1 and 12")
	ErrInvalidYear  = apperror.Validation("year must be between 2000 and 2100")
)
