package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/calendar"
	"github.com/shopspring/decimal"
)

// LeaveType enum
type LeaveType string

const (
	LeaveTypeSick     LeaveType = "sick"
	LeaveTypeCasual   LeaveType = "casual"
	LeaveTypeVacation LeaveType = "vacation"
	LeaveTypeUnpaid   LeaveType = "unpaid"
)

func (t LeaveType) IsValid() bool {
	switch t {
	case LeaveTypeSick, LeaveTypeCasual, LeaveTypeVacation, LeaveTypeUnpaid:
		return true
	}
	return false
}

// Status enum
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

var halfDay = decimal.RequireFromString("0.5")

// MaxSpanDays caps how far a single request's end date may lie past its start.
const MaxSpanDays = 366

type Leave struct {
	ID             string
	OrganizationID string
	UserID         string
	LeaveType      LeaveType
	StartDate      time.Time
	EndDate        time.Time
	TotalDays      decimal.Decimal
	Reason         string
	Status         Status
	ReviewedBy     *string
	ReviewedAt     *time.Time
	ReviewNotes    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WorkingDates lists the weekdays the leave covers.
func (l Leave) WorkingDates() []time.Time {
	return calendar.Weekdays(l.StartDate, l.EndDate)
}

// DaysWithin returns the part of TotalDays that falls inside [from, to].
// Leaves fully inside the window count whole, which keeps half days intact.
func (l Leave) DaysWithin(from, to time.Time) decimal.Decimal {
	from, to = calendar.StartOfDay(from), calendar.StartOfDay(to)
	start, end := calendar.StartOfDay(l.StartDate), calendar.StartOfDay(l.EndDate)
	if end.Before(from) || start.After(to) {
		return decimal.Zero
	}
	if !start.Before(from) && !end.After(to) {
		return l.TotalDays
	}
	if start.Before(from) {
		start = from
	}
	if end.After(to) {
		end = to
	}
	days := decimal.NewFromInt(int64(len(calendar.Weekdays(start, end))))
	return decimal.Min(days, l.TotalDays)
}

// CheckCancellable validates that the leave may still be withdrawn by its requester.
func (l Leave) CheckCancellable() error {
	switch l.Status {
	case StatusPending:
		return nil
	case StatusApproved:
		return ErrApprovedLeaveCannotBeCancelled
	}
	return ErrLeaveNotPending
}

// Review is the reviewer metadata written on approve or reject.
type Review struct {
	ReviewerID string
	ReviewedAt time.Time
	Notes      *string
}

// CountDays returns the billable days of a request over [start, end].
func CountDays(start, end time.Time, isHalfDay bool) decimal.Decimal {
	n := len(calendar.Weekdays(start, end))
	if n == 0 {
		return decimal.Zero
	}
	if isHalfDay {
		return halfDay
	}
	return decimal.NewFromInt(int64(n))
}
