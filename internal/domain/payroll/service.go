package payroll

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
)

type PayrollService interface {
	// Runs
	CreateRun(ctx context.Context, actor user.Actor, req CreateRunRequest) (RunResponse, error)
	ProcessRun(ctx context.Context, actor user.Actor, runID string) (RunResponse, error)
	CancelRun(ctx context.Context, actor user.Actor, runID string) (RunResponse, error)
	GetRun(ctx context.Context, actor user.Actor, runID string) (RunResponse, error)
	ListRuns(ctx context.Context, actor user.Actor, filter RunFilter) (ListRunResponse, error)
	// Records
	GetRecord(ctx context.Context, actor user.Actor, recordID string) (RecordResponse, error)
	MyPayslips(ctx context.Context, actor user.Actor, year *int) ([]RecordResponse, error)
	UpdateRecordStatus(ctx context.Context, actor user.Actor, recordID string, req UpdateRecordStatusRequest) (RecordResponse, error)
}
