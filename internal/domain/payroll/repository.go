package payroll

import (
	"context"
	"time"
)

type PayrollRepository interface {
	// Runs
	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRun(ctx context.Context, organizationID, id string) (Run, error)
	ListRuns(ctx context.Context, organizationID string, filter RunFilter) ([]Run, int64, error)
	// TransitionRun moves the run from one status to another only if it still holds from.
	// It returns ErrRunStatusChanged when the run was not in from.
	TransitionRun(ctx context.Context, organizationID, id string, from, to RunStatus) error
	// CompleteRun moves a processing run to completed and stores its aggregates.
	CompleteRun(ctx context.Context, organizationID, id string, totals Totals, processedBy string, processedAt time.Time) error

	// Records
	DeleteRecordsByRun(ctx context.Context, organizationID, runID string) (int64, error)
	CreateRecords(ctx context.Context, records []Record) error
	ListRecordsByRun(ctx context.Context, organizationID, runID string) ([]Record, error)
	GetRecord(ctx context.Context, organizationID, id string) (Record, error)
	ListRecordsByUser(ctx context.Context, organizationID, userID string, year *int) ([]Record, error)
	UpdateRecordStatus(ctx context.Context, organizationID, id string, from, to RecordStatus, paidAt *time.Time) error
}
