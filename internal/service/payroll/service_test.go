package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePayrollRepo keeps runs and records in memory. Its transactor snapshots the
// state and restores it when the unit of work fails.
type fakePayrollRepo struct {
	mu             sync.Mutex
	runs           map[string]payroll.Run
	records        map[string]payroll.Record
	failCreateOnce bool
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{runs: map[string]payroll.Run{}, records: map[string]payroll.Record{}}
}

func (f *fakePayrollRepo) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	runs := make(map[string]payroll.Run, len(f.runs))
	for k, v := range f.runs {
		runs[k] = v
	}
	records := make(map[string]payroll.Record, len(f.records))
	for k, v := range f.records {
		records[k] = v
	}
	f.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.mu.Lock()
		f.runs, f.records = runs, records
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakePayrollRepo) CreateRun(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.OrganizationID == run.OrganizationID && r.Month == run.Month && r.Year == run.Year {
			return payroll.Run{}, payroll.ErrRunAlreadyExists
		}
	}
	run.ID = uuid.NewString()
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakePayrollRepo) GetRun(ctx context.Context, org, id string) (payroll.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok || r.OrganizationID != org {
		return payroll.Run{}, payroll.ErrRunNotFound
	}
	return r, nil
}

func (f *fakePayrollRepo) ListRuns(ctx context.Context, org string, filter payroll.RunFilter) ([]payroll.Run, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Run
	for _, r := range f.runs {
		if r.OrganizationID == org && (filter.Status == nil || r.Status == *filter.Status) {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakePayrollRepo) TransitionRun(ctx context.Context, org, id string, from, to payroll.RunStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok || r.OrganizationID != org || r.Status != from {
		return payroll.ErrRunStatusChanged
	}
	r.Status = to
	f.runs[id] = r
	return nil
}

func (f *fakePayrollRepo) CompleteRun(ctx context.Context, org, id string, totals payroll.Totals, processedBy string, processedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[id]
	if !ok || r.Status != payroll.RunStatusProcessing {
		return payroll.ErrRunStatusChanged
	}
	r.Status = payroll.RunStatusCompleted
	r.TotalGrossSalary, r.TotalDeductions, r.TotalNetSalary = totals.Gross, totals.Deductions, totals.Net
	r.EmployeeCount = totals.EmployeeCount
	r.ProcessedBy, r.ProcessedAt = &processedBy, &processedAt
	f.runs[id] = r
	return nil
}

func (f *fakePayrollRepo) DeleteRecordsByRun(ctx context.Context, org, runID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, r := range f.records {
		if r.PayrollRunID == runID {
			delete(f.records, id)
			n++
		}
	}
	return n, nil
}

func (f *fakePayrollRepo) CreateRecords(ctx context.Context, records []payroll.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rec := range records {
		if f.failCreateOnce && i == len(records)-1 {
			f.failCreateOnce = false
			return errors.New("connection reset")
		}
		for _, existing := range f.records {
			if existing.PayrollRunID == rec.PayrollRunID && existing.UserID == rec.UserID {
				return payroll.ErrRecordAlreadyExists
			}
		}
		rec.ID = uuid.NewString()
		f.records[rec.ID] = rec
	}
	return nil
}

func (f *fakePayrollRepo) ListRecordsByRun(ctx context.Context, org, runID string) ([]payroll.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Record
	for _, r := range f.records {
		if r.PayrollRunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePayrollRepo) GetRecord(ctx context.Context, org, id string) (payroll.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.OrganizationID != org {
		return payroll.Record{}, payroll.ErrRecordNotFound
	}
	return r, nil
}

func (f *fakePayrollRepo) ListRecordsByUser(ctx context.Context, org, userID string, year *int) ([]payroll.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.Record
	for _, r := range f.records {
		if r.OrganizationID == org && r.UserID == userID && (year == nil || r.Year == *year) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakePayrollRepo) UpdateRecordStatus(ctx context.Context, org, id string, from, to payroll.RecordStatus, paidAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	if !ok || r.Status != from {
		return payroll.ErrInvalidRecordTransition
	}
	r.Status, r.PaidAt = to, paidAt
	f.records[id] = r
	return nil
}

func (f *fakePayrollRepo) recordsOf(runID string) []payroll.Record {
	recs, _ := f.ListRecordsByRun(context.Background(), "", runID)
	return recs
}

type fakeStructures struct {
	active []salary.Structure
}

func (f *fakeStructures) GetActive(ctx context.Context, org, userID string) (salary.Structure, error) {
	return salary.Structure{}, salary.ErrStructureNotFound
}
func (f *fakeStructures) DeactivateActive(ctx context.Context, org, userID string) error { return nil }
func (f *fakeStructures) Create(ctx context.Context, s salary.Structure) (salary.Structure, error) {
	return s, nil
}
func (f *fakeStructures) ListActive(ctx context.Context, org string, filter salary.ListFilter) ([]salary.StructureWithUser, int64, error) {
	return nil, 0, nil
}
func (f *fakeStructures) ListAllActive(ctx context.Context, org string) ([]salary.Structure, error) {
	return f.active, nil
}
func (f *fakeStructures) History(ctx context.Context, org, userID string) ([]salary.Structure, error) {
	return nil, nil
}

type fakeUsers struct {
	users map[string]user.User
}

func (f *fakeUsers) GetByID(ctx context.Context, org, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByIDs(ctx context.Context, org string, ids []string) (map[string]user.User, error) {
	out := map[string]user.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUsers) ListDirectReportIDs(ctx context.Context, org, supervisorID string) ([]string, error) {
	return nil, nil
}

type fixedWorkingDays int

func (n fixedWorkingDays) WorkingDays(ctx context.Context, org string, month, year int) (int, error) {
	return int(n), nil
}

type attendanceCounts map[string]int

func (a attendanceCounts) CountWorkedDays(ctx context.Context, org, userID string, from, to time.Time) (int, error) {
	n, ok := a[userID]
	if !ok {
		return 0, fmt.Errorf("no attendance for %s", userID)
	}
	return n, nil
}

type approvedLeaves []leave.Leave

func (l approvedLeaves) ListApprovedInRange(ctx context.Context, org string, userIDs []string, from, to time.Time) ([]leave.Leave, error) {
	return l, nil
}

const orgID = "org-1"

var (
	hr    = user.Actor{UserID: "hr-1", OrganizationID: orgID, Role: user.RoleHR}
	alice = user.Actor{UserID: "alice", OrganizationID: orgID, Role: user.RoleEmployee}
	bob   = user.Actor{UserID: "bob", OrganizationID: orgID, Role: user.RoleEmployee}
	now   = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc      payroll.PayrollService
	repo     *fakePayrollRepo
	registry *prometheus.Registry
}

type options struct {
	workingDays int
	attendance  attendanceCounts
	leaves      approvedLeaves
	structures  []salary.Structure
	users       map[string]user.User
}

func structureFor(userID string) salary.Structure {
	st := standardStructure()
	st.UserID = userID
	return st
}

func defaultOptions() options {
	return options{
		workingDays: 20,
		attendance:  attendanceCounts{"alice": 20, "bob": 15},
		structures:  []salary.Structure{structureFor("alice"), structureFor("bob")},
		users: map[string]user.User{
			"alice": {ID: "alice", OrganizationID: orgID, IsActive: true},
			"bob":   {ID: "bob", OrganizationID: orgID, IsActive: true},
		},
	}
}

func newFixture(opts options) fixture {
	repo := newFakePayrollRepo()
	reg := prometheus.NewRegistry()
	svc := NewPayrollService(Dependencies{
		Tx:            repo,
		PayrollRepo:   repo,
		StructureRepo: &fakeStructures{active: opts.structures},
		UserRepo:      &fakeUsers{users: opts.users},
		WorkingDays:   fixedWorkingDays(opts.workingDays),
		Attendance:    opts.attendance,
		Leaves:        opts.leaves,
		Workers:       2,
		Clock:         clock.NewFakeClock(now),
		Metrics:       metrics.New(reg),
	})
	return fixture{svc: svc, repo: repo, registry: reg}
}

func createJuneRun(t *testing.T, f fixture) payroll.RunResponse {
	t.Helper()
	run, err := f.svc.CreateRun(context.Background(), hr, payroll.CreateRunRequest{Month: 6, Year: 2024})
	require.NoError(t, err)
	require.Equal(t, payroll.RunStatusDraft, run.Status)
	return run
}

func TestCreateRun_OnePerPeriod(t *testing.T) {
	f := newFixture(defaultOptions())
	createJuneRun(t, f)

	_, err := f.svc.CreateRun(context.Background(), hr, payroll.CreateRunRequest{Month: 6, Year: 2024})
	assert.ErrorIs(t, err, payroll.ErrRunAlreadyExists)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	_, err = f.svc.CreateRun(context.Background(), alice, payroll.CreateRunRequest{Month: 7, Year: 2024})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)
}

func TestProcessRun(t *testing.T) {
	f := newFixture(defaultOptions())
	run := createJuneRun(t, f)

	processed, err := f.svc.ProcessRun(context.Background(), hr, run.ID)
	require.NoError(t, err)

	assert.Equal(t, payroll.RunStatusCompleted, processed.Status)
	assert.Equal(t, 2, processed.EmployeeCount)
	assert.Equal(t, "6250", processed.TotalGrossSalary.String())
	assert.Equal(t, "625", processed.TotalDeductions.String())
	assert.Equal(t, "5625", processed.TotalNetSalary.String())
	require.NotNil(t, processed.ProcessedBy)
	assert.Equal(t, "hr-1", *processed.ProcessedBy)
	require.NotNil(t, processed.ProcessedAt)
	assert.Equal(t, now, *processed.ProcessedAt)

	byUser := map[string]payroll.Record{}
	for _, r := range f.repo.recordsOf(run.ID) {
		byUser[r.UserID] = r
	}
	require.Len(t, byUser, 2)
	assert.Equal(t, "3150", byUser["alice"].NetSalary.String())
	assert.Equal(t, "2475", byUser["bob"].NetSalary.String())
	assert.Equal(t, "2250", byUser["bob"].BaseSalary.String())
	assert.Equal(t, payroll.RecordStatusPending, byUser["bob"].Status)
	assert.Equal(t, 6, byUser["bob"].Month)

	_, err = f.svc.ProcessRun(context.Background(), hr, run.ID)
	assert.ErrorIs(t, err, payroll.ErrRunAlreadyCompleted)

	expected := `
# HELP hris_payroll_records_created_total Payroll records written by completed runs.
# TYPE hris_payroll_records_created_total counter
hris_payroll_records_created_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "hris_payroll_records_created_total"))
}

func TestProcessRun_LeaveCountsAsWorked(t *testing.T) {
	opts := defaultOptions()
	opts.attendance["bob"] = 17
	opts.leaves = approvedLeaves{{
		UserID:    "bob",
		StartDate: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		TotalDays: decimal.NewFromInt(3),
		Status:    leave.StatusApproved,
	}}
	f := newFixture(opts)
	run := createJuneRun(t, f)

	processed, err := f.svc.ProcessRun(context.Background(), hr, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "6300", processed.TotalNetSalary.String())

	for _, r := range processed.Records {
		if r.UserID == "bob" {
			assert.Equal(t, "3", r.LeaveDays.String())
			assert.Equal(t, "0", r.AbsentDays.String())
		}
	}
}

func TestProcessRun_SkipsMissingAndInactiveUsers(t *testing.T) {
	opts := defaultOptions()
	opts.structures = append(opts.structures, structureFor("carol"), structureFor("ghost"))
	opts.users["carol"] = user.User{ID: "carol", OrganizationID: orgID, IsActive: false}
	f := newFixture(opts)
	run := createJuneRun(t, f)

	processed, err := f.svc.ProcessRun(context.Background(), hr, run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, processed.EmployeeCount)
	assert.Len(t, f.repo.recordsOf(run.ID), 2)

	expected := `
# HELP hris_payroll_employees_skipped_total Active salary structures left out of a run, by reason.
# TYPE hris_payroll_employees_skipped_total counter
hris_payroll_employees_skipped_total{reason="user_inactive"} 1
hris_payroll_employees_skipped_total{reason="user_missing"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(f.registry, strings.NewReader(expected), "hris_payroll_employees_skipped_total"))
}

func TestProcessRun_NoWorkingDaysRevertsToDraft(t *testing.T) {
	opts := defaultOptions()
	opts.workingDays = 0
	f := newFixture(opts)
	run := createJuneRun(t, f)

	_, err := f.svc.ProcessRun(context.Background(), hr, run.ID)
	assert.ErrorIs(t, err, payroll.ErrNoWorkingDays)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	reloaded, err := f.svc.GetRun(context.Background(), hr, run.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusDraft, reloaded.Status)
	assert.Empty(t, reloaded.Records)
}

func TestProcessRun_FailureRollsBackAndCanBeRetried(t *testing.T) {
	f := newFixture(defaultOptions())
	run := createJuneRun(t, f)
	f.repo.failCreateOnce = true

	_, err := f.svc.ProcessRun(context.Background(), hr, run.ID)
	require.Error(t, err)

	reloaded, err := f.svc.GetRun(context.Background(), hr, run.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusDraft, reloaded.Status)
	assert.Empty(t, reloaded.Records)
	assert.True(t, reloaded.TotalNetSalary.IsZero())

	processed, err := f.svc.ProcessRun(context.Background(), hr, run.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusCompleted, processed.Status)
	assert.Len(t, f.repo.recordsOf(run.ID), 2)
}

func TestProcessRun_AttendanceFailureRevertsToDraft(t *testing.T) {
	opts := defaultOptions()
	delete(opts.attendance, "bob")
	f := newFixture(opts)
	run := createJuneRun(t, f)

	_, err := f.svc.ProcessRun(context.Background(), hr, run.ID)
	assert.ErrorContains(t, err, "no attendance for bob")

	reloaded, err := f.svc.GetRun(context.Background(), hr, run.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusDraft, reloaded.Status)
}

func TestProcessRun_ConcurrentCallsProduceOneResult(t *testing.T) {
	f := newFixture(defaultOptions())
	run := createJuneRun(t, f)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.ProcessRun(context.Background(), hr, run.ID)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, payroll.ErrRunInProgress) || errors.Is(err, payroll.ErrRunAlreadyCompleted), err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.repo.recordsOf(run.ID), 2)
}

func TestProcessRun_StatusGuards(t *testing.T) {
	f := newFixture(defaultOptions())
	ctx := context.Background()

	_, err := f.svc.ProcessRun(ctx, hr, uuid.NewString())
	assert.ErrorIs(t, err, payroll.ErrRunNotFound)

	run := createJuneRun(t, f)
	require.NoError(t, f.repo.TransitionRun(ctx, orgID, run.ID, payroll.RunStatusDraft, payroll.RunStatusProcessing))
	_, err = f.svc.ProcessRun(ctx, hr, run.ID)
	assert.ErrorIs(t, err, payroll.ErrRunInProgress)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	require.NoError(t, f.repo.TransitionRun(ctx, orgID, run.ID, payroll.RunStatusProcessing, payroll.RunStatusDraft))
	_, err = f.svc.CancelRun(ctx, hr, run.ID)
	require.NoError(t, err)

	_, err = f.svc.ProcessRun(ctx, hr, run.ID)
	assert.ErrorIs(t, err, payroll.ErrRunCancelled)

	_, err = f.svc.CancelRun(ctx, hr, run.ID)
	assert.ErrorIs(t, err, payroll.ErrRunNotDraft)
}

func TestRecords_AccessAndStatus(t *testing.T) {
	f := newFixture(defaultOptions())
	ctx := context.Background()
	run := createJuneRun(t, f)
	_, err := f.svc.ProcessRun(ctx, hr, run.ID)
	require.NoError(t, err)

	slips, err := f.svc.MyPayslips(ctx, alice, nil)
	require.NoError(t, err)
	require.Len(t, slips, 1)
	aliceSlip := slips[0]

	got, err := f.svc.GetRecord(ctx, alice, aliceSlip.ID)
	require.NoError(t, err)
	assert.Equal(t, "3150", got.NetSalary.String())

	_, err = f.svc.GetRecord(ctx, bob, aliceSlip.ID)
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	_, err = f.svc.GetRecord(ctx, hr, aliceSlip.ID)
	assert.NoError(t, err)

	year := 2023
	none, err := f.svc.MyPayslips(ctx, alice, &year)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.UpdateRecordStatus(ctx, alice, aliceSlip.ID, payroll.UpdateRecordStatusRequest{Status: payroll.RecordStatusPaid})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	paid, err := f.svc.UpdateRecordStatus(ctx, hr, aliceSlip.ID, payroll.UpdateRecordStatusRequest{Status: payroll.RecordStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, payroll.RecordStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, "3150", paid.NetSalary.String())

	_, err = f.svc.UpdateRecordStatus(ctx, hr, aliceSlip.ID, payroll.UpdateRecordStatusRequest{Status: payroll.RecordStatusPending})
	assert.ErrorIs(t, err, payroll.ErrInvalidRecordTransition)
}

func TestListRuns(t *testing.T) {
	f := newFixture(defaultOptions())
	createJuneRun(t, f)

	list, err := f.svc.ListRuns(context.Background(), hr, payroll.RunFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.Limit)

	bad := payroll.RunStatus("archived")
	_, err = f.svc.ListRuns(context.Background(), hr, payroll.RunFilter{Status: &bad})
	assert.Error(t, err)
}
