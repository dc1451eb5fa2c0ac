package salary

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrStructureNotFound       = apperror.NotFound("active salary structure not found")
	ErrNegativeBaseSalary      = apperror.Validation("base salary must not be negative")
	ErrActiveStructureConflict = apperror.Conflict("salary structure was changed concurrently, retry the request")
)
