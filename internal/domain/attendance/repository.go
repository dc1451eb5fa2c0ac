package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// Every method is scoped by organization.
type AttendanceRepository interface {
	Create(ctx context.Context, a Attendance) (Attendance, error)
	// GetByUserAndDate returns nil when the user has no row for date.
	GetByUserAndDate(ctx context.Context, organizationID, userID string, date time.Time) (*Attendance, error)
	// Update rewrites a row unless it has been marked on_leave, which yields ErrDayOnLeave.
	Update(ctx context.Context, a Attendance) error
	// UpsertLeaveDays marks each day on_leave and approved, overwriting any existing row.
	UpsertLeaveDays(ctx context.Context, days []LeaveDay) error
	// CountWorkedDays counts rows in [from, to] whose status is one of WorkedStatuses.
	CountWorkedDays(ctx context.Context, organizationID, userID string, from, to time.Time) (int, error)
	ListByUser(ctx context.Context, organizationID, userID string, from, to time.Time) ([]Attendance, error)
}
