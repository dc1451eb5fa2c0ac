package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// WorkingDaysResolver supplies the proration denominator of a period.
type WorkingDaysResolver interface {
	WorkingDays(ctx context.Context, organizationID string, month, year int) (int, error)
}

// AttendanceCounter counts the days a user was present, late or on a half day.
type AttendanceCounter interface {
	CountWorkedDays(ctx context.Context, organizationID, userID string, from, to time.Time) (int, error)
}

// ApprovedLeaveLister returns approved leaves overlapping a period.
type ApprovedLeaveLister interface {
	ListApprovedInRange(ctx context.Context, organizationID string, userIDs []string, from, to time.Time) ([]leave.Leave, error)
}

type PayrollServiceImpl struct {
	tx            database.Transactor
	payrollRepo   payroll.PayrollRepository
	structureRepo salary.StructureRepository
	userRepo      user.UserRepository
	workingDays   WorkingDaysResolver
	attendance    AttendanceCounter
	leaves        ApprovedLeaveLister
	workers       int
	clock         clock.Clock
	metrics       *metrics.Metrics
}

type Dependencies struct {
	Tx            database.Transactor
	PayrollRepo   payroll.PayrollRepository
	StructureRepo salary.StructureRepository
	UserRepo      user.UserRepository
	WorkingDays   WorkingDaysResolver
	Attendance    AttendanceCounter
	Leaves        ApprovedLeaveLister
	Workers       int
	Clock         clock.Clock
	Metrics       *metrics.Metrics
}

func NewPayrollService(deps Dependencies) payroll.PayrollService {
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &PayrollServiceImpl{
		tx:            deps.Tx,
		payrollRepo:   deps.PayrollRepo,
		structureRepo: deps.StructureRepo,
		userRepo:      deps.UserRepo,
		workingDays:   deps.WorkingDays,
		attendance:    deps.Attendance,
		leaves:        deps.Leaves,
		workers:       workers,
		clock:         clk,
		metrics:       deps.Metrics,
	}
}

// ========== RUNS ==========

func (s *PayrollServiceImpl) CreateRun(ctx context.Context, actor user.Actor, req payroll.CreateRunRequest) (payroll.RunResponse, error) {
	if err := requireManage(actor); err != nil {
		return payroll.RunResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.payrollRepo.CreateRun(ctx, payroll.Run{
		OrganizationID:   actor.OrganizationID,
		Month:            req.Month,
		Year:             req.Year,
		Status:           payroll.RunStatusDraft,
		TotalGrossSalary: decimal.Zero,
		TotalDeductions:  decimal.Zero,
		TotalNetSalary:   decimal.Zero,
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	slog.InfoContext(ctx, "payroll run created",
		"organization_id", actor.OrganizationID, "run_id", run.ID, "month", run.Month, "year", run.Year)
	return payroll.ToRunResponse(run), nil
}

// ProcessRun computes a record for every eligible employee and completes the run.
// Any failure after the run entered processing puts it back to draft.
func (s *PayrollServiceImpl) ProcessRun(ctx context.Context, actor user.Actor, runID string) (payroll.RunResponse, error) {
	if err := requireManage(actor); err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.getRun(ctx, actor.OrganizationID, runID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	if err := run.CheckProcessable(); err != nil {
		return payroll.RunResponse{}, err
	}

	started := s.clock.Now()

	if err := s.payrollRepo.TransitionRun(ctx, actor.OrganizationID, run.ID, payroll.RunStatusDraft, payroll.RunStatusProcessing); err != nil {
		if errors.Is(err, payroll.ErrRunStatusChanged) {
			err = payroll.ErrRunInProgress
		}
		return payroll.RunResponse{}, err
	}

	records, err := s.process(ctx, actor, run)
	s.metrics.ObservePayrollRun(err, s.clock.Now().Sub(started))
	if err != nil {
		s.revertToDraft(ctx, run)
		slog.ErrorContext(ctx, "payroll run failed",
			"organization_id", actor.OrganizationID, "run_id", run.ID, "error", err)
		return payroll.RunResponse{}, err
	}
	s.metrics.PayrollRecordsCreated(len(records))

	completed, err := s.payrollRepo.GetRun(ctx, actor.OrganizationID, run.ID)
	if err != nil {
		return payroll.RunResponse{}, fmt.Errorf("reload payroll run: %w", err)
	}

	slog.InfoContext(ctx, "payroll run completed",
		"organization_id", actor.OrganizationID, "run_id", run.ID,
		"employee_count", completed.EmployeeCount, "total_net_salary", completed.TotalNetSalary.String())

	resp := payroll.ToRunResponse(completed)
	resp.Records = payroll.ToRecordResponses(records)
	return resp, nil
}

func (s *PayrollServiceImpl) process(ctx context.Context, actor user.Actor, run payroll.Run) ([]payroll.Record, error) {
	workingDays, err := s.workingDays.WorkingDays(ctx, run.OrganizationID, run.Month, run.Year)
	if err != nil {
		return nil, fmt.Errorf("resolve working days: %w", err)
	}
	if workingDays == 0 {
		return nil, payroll.ErrNoWorkingDays
	}

	structures, err := s.eligibleStructures(ctx, run)
	if err != nil {
		return nil, err
	}

	inputs, err := s.collectInputs(ctx, run, structures, workingDays)
	if err != nil {
		return nil, err
	}

	records := make([]payroll.Record, 0, len(inputs))
	var totals payroll.Totals
	for _, in := range inputs {
		rec, err := Calculate(in)
		if err != nil {
			return nil, fmt.Errorf("calculate payroll for user %s: %w", in.Structure.UserID, err)
		}
		rec.PayrollRunID = run.ID
		rec.Month = run.Month
		rec.Year = run.Year
		records = append(records, rec)
		totals.Add(rec)
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stale, err := s.payrollRepo.DeleteRecordsByRun(ctx, run.OrganizationID, run.ID)
		if err != nil {
			return fmt.Errorf("delete stale payroll records: %w", err)
		}
		if stale > 0 {
			slog.WarnContext(ctx, "removed records of an earlier attempt", "run_id", run.ID, "count", stale)
		}
		if err := s.payrollRepo.CreateRecords(ctx, records); err != nil {
			return fmt.Errorf("create payroll records: %w", err)
		}
		return s.payrollRepo.CompleteRun(ctx, run.OrganizationID, run.ID, totals, actor.UserID, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// eligibleStructures drops structures whose user is missing or inactive.
func (s *PayrollServiceImpl) eligibleStructures(ctx context.Context, run payroll.Run) ([]salary.Structure, error) {
	structures, err := s.structureRepo.ListAllActive(ctx, run.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("list active salary structures: %w", err)
	}
	if len(structures) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(structures))
	for _, st := range structures {
		ids = append(ids, st.UserID)
	}
	users, err := s.userRepo.GetByIDs(ctx, run.OrganizationID, ids)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	eligible := make([]salary.Structure, 0, len(structures))
	for _, st := range structures {
		u, ok := users[st.UserID]
		switch {
		case !ok:
			s.skip(ctx, run, st.UserID, metrics.SkipReasonUserMissing)
		case !u.IsActive:
			s.skip(ctx, run, st.UserID, metrics.SkipReasonUserInactive)
		default:
			eligible = append(eligible, st)
		}
	}
	return eligible, nil
}

func (s *PayrollServiceImpl) skip(ctx context.Context, run payroll.Run, userID, reason string) {
	s.metrics.PayrollEmployeeSkipped(reason)
	slog.WarnContext(ctx, "employee skipped from payroll run", "run_id", run.ID, "user_id", userID, "reason", reason)
}

// collectInputs loads attendance and leave for every employee. Attendance counts are
// fetched concurrently, bounded by the configured worker count.
func (s *PayrollServiceImpl) collectInputs(ctx context.Context, run payroll.Run, structures []salary.Structure, workingDays int) ([]EmployeeInputs, error) {
	if len(structures) == 0 {
		return nil, nil
	}
	from, to := calendar.MonthRange(run.Year, run.Month)

	ids := make([]string, 0, len(structures))
	for _, st := range structures {
		ids = append(ids, st.UserID)
	}
	approved, err := s.leaves.ListApprovedInRange(ctx, run.OrganizationID, ids, from, to)
	if err != nil {
		return nil, fmt.Errorf("list approved leaves: %w", err)
	}
	leaveDays := make(map[string]decimal.Decimal, len(structures))
	for _, l := range approved {
		leaveDays[l.UserID] = leaveDays[l.UserID].Add(l.DaysWithin(from, to))
	}

	inputs := make([]EmployeeInputs, len(structures))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, st := range structures {
		g.Go(func() error {
			days, err := s.attendance.CountWorkedDays(gctx, run.OrganizationID, st.UserID, from, to)
			if err != nil {
				return fmt.Errorf("count attendance for user %s: %w", st.UserID, err)
			}
			inputs[i] = EmployeeInputs{
				Structure:      st,
				WorkingDays:    workingDays,
				AttendanceDays: days,
				LeaveDays:      leaveDays[st.UserID],
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// revertToDraft runs on a context detached from the request so a cancelled caller
// cannot leave the run stuck in processing.
func (s *PayrollServiceImpl) revertToDraft(ctx context.Context, run payroll.Run) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.payrollRepo.TransitionRun(ctx, run.OrganizationID, run.ID, payroll.RunStatusProcessing, payroll.RunStatusDraft); err != nil {
		slog.ErrorContext(ctx, "failed to revert payroll run to draft", "run_id", run.ID, "error", err)
	}
}

func (s *PayrollServiceImpl) CancelRun(ctx context.Context, actor user.Actor, runID string) (payroll.RunResponse, error) {
	if err := requireManage(actor); err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.getRun(ctx, actor.OrganizationID, runID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	if err := run.CheckCancellable(); err != nil {
		return payroll.RunResponse{}, err
	}

	if err := s.payrollRepo.TransitionRun(ctx, actor.OrganizationID, run.ID, payroll.RunStatusDraft, payroll.RunStatusCancelled); err != nil {
		if errors.Is(err, payroll.ErrRunStatusChanged) {
			return payroll.RunResponse{}, payroll.ErrRunNotDraft
		}
		return payroll.RunResponse{}, err
	}
	run.Status = payroll.RunStatusCancelled

	slog.InfoContext(ctx, "payroll run cancelled", "organization_id", actor.OrganizationID, "run_id", run.ID)
	return payroll.ToRunResponse(run), nil
}

func (s *PayrollServiceImpl) GetRun(ctx context.Context, actor user.Actor, runID string) (payroll.RunResponse, error) {
	if err := requireManage(actor); err != nil {
		return payroll.RunResponse{}, err
	}

	run, err := s.getRun(ctx, actor.OrganizationID, runID)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	records, err := s.payrollRepo.ListRecordsByRun(ctx, actor.OrganizationID, run.ID)
	if err != nil {
		return payroll.RunResponse{}, fmt.Errorf("list payroll records: %w", err)
	}

	resp := payroll.ToRunResponse(run)
	resp.Records = payroll.ToRecordResponses(records)
	return resp, nil
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context, actor user.Actor, filter payroll.RunFilter) (payroll.ListRunResponse, error) {
	if err := requireManage(actor); err != nil {
		return payroll.ListRunResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return payroll.ListRunResponse{}, err
	}

	runs, total, err := s.payrollRepo.ListRuns(ctx, actor.OrganizationID, filter)
	if err != nil {
		return payroll.ListRunResponse{}, fmt.Errorf("list payroll runs: %w", err)
	}

	out := make([]payroll.RunResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, payroll.ToRunResponse(r))
	}
	return payroll.ListRunResponse{Runs: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ========== RECORDS ==========

// GetRecord returns a payslip to its owner or to a payroll manager.
func (s *PayrollServiceImpl) GetRecord(ctx context.Context, actor user.Actor, recordID string) (payroll.RecordResponse, error) {
	rec, err := s.getRecord(ctx, actor.OrganizationID, recordID)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	if rec.UserID != actor.UserID && !user.HasPermission(actor.Role, user.PermissionPayrollManage) {
		return payroll.RecordResponse{}, user.ErrInsufficientPermissions
	}
	return payroll.ToRecordResponse(rec), nil
}

func (s *PayrollServiceImpl) MyPayslips(ctx context.Context, actor user.Actor, year *int) ([]payroll.RecordResponse, error) {
	if year != nil && !validator.IsValidYear(*year) {
		return nil, validator.ValidationErrors{{Field: "year", Message: "year must be between 2000 and 2100"}}
	}

	records, err := s.payrollRepo.ListRecordsByUser(ctx, actor.OrganizationID, actor.UserID, year)
	if err != nil {
		return nil, fmt.Errorf("list payslips: %w", err)
	}
	return payroll.ToRecordResponses(records), nil
}

// UpdateRecordStatus changes the payout status. Computed amounts are never touched.
func (s *PayrollServiceImpl) UpdateRecordStatus(ctx context.Context, actor user.Actor, recordID string, req payroll.UpdateRecordStatusRequest) (payroll.RecordResponse, error) {
	if err := requireManage(actor); err != nil {
		return payroll.RecordResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.RecordResponse{}, err
	}

	rec, err := s.getRecord(ctx, actor.OrganizationID, recordID)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	if !rec.Status.CanMoveTo(req.Status) {
		return payroll.RecordResponse{}, payroll.ErrInvalidRecordTransition
	}

	var paidAt *time.Time
	if req.Status == payroll.RecordStatusPaid {
		now := s.clock.Now()
		paidAt = &now
	}

	if err := s.payrollRepo.UpdateRecordStatus(ctx, actor.OrganizationID, rec.ID, rec.Status, req.Status, paidAt); err != nil {
		return payroll.RecordResponse{}, err
	}
	rec.Status = req.Status
	rec.PaidAt = paidAt

	slog.InfoContext(ctx, "payroll record status updated",
		"organization_id", actor.OrganizationID, "record_id", rec.ID, "status", rec.Status)
	return payroll.ToRecordResponse(rec), nil
}

func (s *PayrollServiceImpl) getRun(ctx context.Context, organizationID, runID string) (payroll.Run, error) {
	if !validator.IsValidUUID(runID) {
		return payroll.Run{}, payroll.ErrRunNotFound
	}
	return s.payrollRepo.GetRun(ctx, organizationID, runID)
}

func (s *PayrollServiceImpl) getRecord(ctx context.Context, organizationID, recordID string) (payroll.Record, error) {
	if !validator.IsValidUUID(recordID) {
		return payroll.Record{}, payroll.ErrRecordNotFound
	}
	return s.payrollRepo.GetRecord(ctx, organizationID, recordID)
}

func requireManage(actor user.Actor) error {
	if !user.HasPermission(actor.Role, user.PermissionPayrollManage) {
		return user.ErrInsufficientPermissions
	}
	return nil
}
