package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
)

type LeaveService interface {
	// Workflow
	RequestLeave(ctx context.Context, actor user.Actor, req RequestLeaveRequest) (LeaveResponse, error)
	ApproveLeave(ctx context.Context, actor user.Actor, leaveID string, req ApproveLeaveRequest) (LeaveResponse, error)
	RejectLeave(ctx context.Context, actor user.Actor, leaveID string, req RejectLeaveRequest) (LeaveResponse, error)
	CancelLeave(ctx context.Context, actor user.Actor, leaveID string) (LeaveResponse, error)
	// Queries
	MyLeaves(ctx context.Context, actor user.Actor, filter ListFilter) (ListLeaveResponse, error)
	PendingLeaves(ctx context.Context, actor user.Actor, filter ListFilter) (ListLeaveResponse, error)
	AllLeaves(ctx context.Context, actor user.Actor, filter ListFilter) (ListLeaveResponse, error)
	CalendarLeaves(ctx context.Context, actor user.Actor, filter CalendarFilter) ([]LeaveResponse, error)
	// Balance
	MyBalance(ctx context.Context, actor user.Actor, year int) (BalanceResponse, error)
}
