package leave

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrLeaveNotFound                  = apperror.NotFound("leave request not found")
	ErrInvalidDateRange               = apperror.Validation("leave dates must fall within 2000-2100, end on or after the start and span at most 366 days")
	ErrNoWorkingDaysInRange           = apperror.Validation("leave range contains no working days")
	ErrHalfDayRangeInvalid            = apperror.Validation("half-day leave must start and end on the same day")
	ErrOverlappingLeave               = apperror.Conflict("leave overlaps an existing pending or approved leave")
	ErrInsufficientBalance            = apperror.Validation("insufficient leave balance")
	ErrBalanceNotFound                = apperror.NotFound("leave balance not found")
	ErrInvalidLeaveType               = apperror.Validation("leave_type must be one of sick, casual, vacation, unpaid")
	ErrLeaveNotPending                = apperror.Validation("leave request is no longer pending")
	ErrApprovedLeaveCannotBeCancelled = apperror.Validation("approved leave cannot be cancelled, contact HR")
	ErrRejectNotesRequired            = apperror.Validation("notes are required when rejecting a leave")
	ErrNotLeaveOwner                  = apperror.Forbidden("only the requester can cancel this leave")
	ErrCannotReviewOwnLeave           = apperror.Forbidden("you cannot review your own leave request")
	ErrNotAllowedToReview             = apperror.Forbidden("only the requester's supervisor or HR can review this leave")
	ErrNotAllowedToViewPending        = apperror.Forbidden("only supervisors and HR can view pending leaves")
)
