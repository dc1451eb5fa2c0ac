package attendance

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrAttendanceNotFound = apperror.NotFound("attendance not found")
	ErrAlreadyCheckedIn   = apperror.Conflict("already checked in today")
	ErrAlreadyCheckedOut  = apperror.Conflict("already checked out today")
	ErrNotCheckedIn       = apperror.Validation("no check-in recorded today")
	ErrOnLeaveToday       = apperror.Validation("cannot check in on a day of approved leave")
	ErrDayOnLeave         = apperror.Conflict("the day has been marked as approved leave")
	ErrLocationRequired   = apperror.Validation("check-in location is required")
	ErrOutsideGeofence    = apperror.Validation("check-in location is outside the allowed radius")
)
