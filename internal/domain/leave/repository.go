package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type LeaveRepository interface {
	Create(ctx context.Context, l Leave) (Leave, error)
	GetByID(ctx context.Context, organizationID, id string) (Leave, error)
	// HasOverlap reports a pending or approved leave of the user intersecting [start, end].
	HasOverlap(ctx context.Context, organizationID, userID string, start, end time.Time) (bool, error)
	// UpdateStatus moves the leave from one status to another only if it still holds from.
	// It returns ErrLeaveNotPending when it does not.
	UpdateStatus(ctx context.Context, organizationID, id string, from, to Status, review *Review) (Leave, error)
	List(ctx context.Context, organizationID string, filter ListFilter) ([]Leave, int64, error)
	// ListApprovedInRange returns approved leaves intersecting [from, to]. A nil userIDs
	// means every user of the organization.
	ListApprovedInRange(ctx context.Context, organizationID string, userIDs []string, from, to time.Time) ([]Leave, error)
}

type BalanceRepository interface {
	// GetOrCreate returns the user's balance for year, creating it from alloc when absent.
	GetOrCreate(ctx context.Context, organizationID, userID string, year int, alloc Allocations) (Balance, error)
	// AddUsed charges days against the bucket of t. The balance must exist.
	AddUsed(ctx context.Context, organizationID, userID string, year int, t LeaveType, days decimal.Decimal) (Balance, error)
}
