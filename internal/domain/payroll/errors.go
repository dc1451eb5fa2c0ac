package payroll

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	// Run errors
	ErrRunNotFound         = apperror.NotFound("payroll run not found")
	ErrRunAlreadyExists    = apperror.Conflict("payroll run already exists for this period")
	ErrRunAlreadyCompleted = apperror.Validation("payroll run is already completed")
	ErrRunCancelled        = apperror.Validation("payroll run is cancelled and cannot be processed")
	ErrRunInProgress       = apperror.Conflict("payroll run is already being processed")
	ErrRunStatusChanged    = apperror.Conflict("payroll run status changed concurrently")
	ErrRunNotDraft         = apperror.Validation("only draft payroll runs can be cancelled")
	ErrNoWorkingDays       = apperror.Validation("payroll period has no working days")

	// Record errors
	ErrRecordNotFound          = apperror.NotFound("payroll record not found")
	ErrRecordAlreadyExists     = apperror.Conflict("payroll record already exists for this employee in the run")
	ErrInvalidRecordTransition = apperror.Validation("payroll record status cannot change that way")
)
