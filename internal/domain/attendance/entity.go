package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status enum
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half_day"
	StatusOnLeave Status = "on_leave"
)

// WorkedStatuses are the statuses that count as a day worked for payroll.
var WorkedStatuses = []Status{StatusPresent, StatusLate, StatusHalfDay}

type Attendance struct {
	ID             string
	OrganizationID string
	UserID         string
	Date           time.Time
	CheckIn        *time.Time
	CheckOut       *time.Time
	Status         Status
	WorkingHours   *decimal.Decimal
	IsApproved     bool
	LeaveID        *string
	PhotoURL       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Where the user checked in from, when the client sent it.
	CheckInLatitude  *float64
	CheckInLongitude *float64
}

// LeaveDay is one day an approved leave marks as on_leave.
type LeaveDay struct {
	OrganizationID string
	UserID         string
	LeaveID        string
	Date           time.Time
}
