package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LeaveApproved is published once a leave has been approved and its balance charged.
type LeaveApproved struct {
	EventID        string
	OrganizationID string
	LeaveID        string
	UserID         string
	LeaveType      LeaveType
	TotalDays      decimal.Decimal
	Dates          []time.Time
	ApprovedBy     string
	ApprovedAt     time.Time
}

// ApprovalHandler consumes LeaveApproved synchronously, inside the approval's unit of work.
// A returned error aborts the approval.
type ApprovalHandler interface {
	HandleLeaveApproved(ctx context.Context, event LeaveApproved) error
}

// LeaveDecided tells the requester a reviewer approved or rejected their leave.
type LeaveDecided struct {
	OrganizationID string
	LeaveID        string
	UserID         string
	LeaveType      LeaveType
	StartDate      time.Time
	EndDate        time.Time
	Status         Status
	ReviewedBy     string
	ReviewedAt     time.Time
	Notes          *string
}

// DecisionNotifier is told about decisions after they commit. Delivery is best effort.
type DecisionNotifier interface {
	NotifyLeaveDecision(ctx context.Context, event LeaveDecided)
}
