package leave

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inlineTx struct{}

func (inlineTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLeaveRepo struct {
	mu     sync.Mutex
	leaves map[string]leave.Leave
}

func (f *fakeLeaveRepo) Create(ctx context.Context, l leave.Leave) (leave.Leave, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	f.leaves[l.ID] = l
	return l, nil
}

func (f *fakeLeaveRepo) GetByID(ctx context.Context, org, id string) (leave.Leave, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leaves[id]
	if !ok || l.OrganizationID != org {
		return leave.Leave{}, leave.ErrLeaveNotFound
	}
	return l, nil
}

func (f *fakeLeaveRepo) HasOverlap(ctx context.Context, org, userID string, start, end time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.leaves {
		if l.OrganizationID != org || l.UserID != userID {
			continue
		}
		if l.Status != leave.StatusPending && l.Status != leave.StatusApproved {
			continue
		}
		if !l.StartDate.After(end) && !l.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLeaveRepo) UpdateStatus(ctx context.Context, org, id string, from, to leave.Status, review *leave.Review) (leave.Leave, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leaves[id]
	if !ok || l.OrganizationID != org {
		return leave.Leave{}, leave.ErrLeaveNotFound
	}
	if l.Status != from {
		return leave.Leave{}, leave.ErrLeaveNotPending
	}
	l.Status = to
	if review != nil {
		reviewer, at := review.ReviewerID, review.ReviewedAt
		l.ReviewedBy, l.ReviewedAt, l.ReviewNotes = &reviewer, &at, review.Notes
	}
	f.leaves[id] = l
	return l, nil
}

func (f *fakeLeaveRepo) List(ctx context.Context, org string, filter leave.ListFilter) ([]leave.Leave, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.Leave
	for _, l := range f.leaves {
		if l.OrganizationID != org {
			continue
		}
		if filter.UserID != nil && l.UserID != *filter.UserID {
			continue
		}
		if filter.UserIDs != nil && !contains(filter.UserIDs, l.UserID) {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		if filter.LeaveType != nil && l.LeaveType != *filter.LeaveType {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, int64(len(out)), nil
}

func (f *fakeLeaveRepo) ListApprovedInRange(ctx context.Context, org string, userIDs []string, from, to time.Time) ([]leave.Leave, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.Leave
	for _, l := range f.leaves {
		if l.OrganizationID != org || l.Status != leave.StatusApproved {
			continue
		}
		if userIDs != nil && !contains(userIDs, l.UserID) {
			continue
		}
		if l.StartDate.After(to) || l.EndDate.Before(from) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type fakeBalanceRepo struct {
	mu       sync.Mutex
	balances map[string]leave.Balance
}

func balanceKey(org, userID string, year int) string {
	return fmt.Sprintf("%s|%s|%d", org, userID, year)
}

func (f *fakeBalanceRepo) GetOrCreate(ctx context.Context, org, userID string, year int, alloc leave.Allocations) (leave.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := balanceKey(org, userID, year)
	b, ok := f.balances[k]
	if !ok {
		b = leave.NewBalance(org, userID, year, alloc)
		f.balances[k] = b
	}
	return b, nil
}

func (f *fakeBalanceRepo) AddUsed(ctx context.Context, org, userID string, year int, t leave.LeaveType, days decimal.Decimal) (leave.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := balanceKey(org, userID, year)
	b, ok := f.balances[k]
	if !ok {
		return leave.Balance{}, errors.New("balance missing")
	}
	if !b.HasSufficient(t, days) {
		return leave.Balance{}, leave.ErrInsufficientBalance
	}
	switch t {
	case leave.LeaveTypeSick:
		b.Sick.Used = b.Sick.Used.Add(days)
	case leave.LeaveTypeCasual:
		b.Casual.Used = b.Casual.Used.Add(days)
	case leave.LeaveTypeVacation:
		b.Vacation.Used = b.Vacation.Used.Add(days)
	case leave.LeaveTypeUnpaid:
		b.UnpaidUsed = b.UnpaidUsed.Add(days)
	}
	f.balances[k] = b
	return b, nil
}

type fakeUserRepo struct {
	users map[string]user.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, org, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok || u.OrganizationID != org {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, org string, ids []string) (map[string]user.User, error) {
	out := map[string]user.User{}
	for _, id := range ids {
		if u, err := f.GetByID(ctx, org, id); err == nil {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListDirectReportIDs(ctx context.Context, org, supervisorID string) ([]string, error) {
	var ids []string
	for _, u := range f.users {
		if u.OrganizationID == org && u.SupervisorID != nil && *u.SupervisorID == supervisorID {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type recordingHandler struct {
	events []leave.LeaveApproved
	err    error
}

func (h *recordingHandler) HandleLeaveApproved(ctx context.Context, event leave.LeaveApproved) error {
	if h.err != nil {
		return h.err
	}
	h.events = append(h.events, event)
	return nil
}

type recordingNotifier struct {
	decisions []leave.LeaveDecided
}

func (n *recordingNotifier) NotifyLeaveDecision(ctx context.Context, event leave.LeaveDecided) {
	n.decisions = append(n.decisions, event)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

const orgID = "org-1"

type fixture struct {
	svc        leave.LeaveService
	leaves     *fakeLeaveRepo
	balances   *fakeBalanceRepo
	handler    *recordingHandler
	notifier   *recordingNotifier
	employee   user.Actor
	colleague  user.Actor
	supervisor user.Actor
	outsider   user.Actor
	hr         user.Actor
}

func newFixture() *fixture {
	supervisorID := "sup-1"
	f := &fixture{
		leaves:     &fakeLeaveRepo{leaves: map[string]leave.Leave{}},
		balances:   &fakeBalanceRepo{balances: map[string]leave.Balance{}},
		handler:    &recordingHandler{},
		notifier:   &recordingNotifier{},
		employee:   user.Actor{UserID: "emp-1", OrganizationID: orgID, Role: user.RoleEmployee},
		colleague:  user.Actor{UserID: "emp-2", OrganizationID: orgID, Role: user.RoleEmployee},
		supervisor: user.Actor{UserID: supervisorID, OrganizationID: orgID, Role: user.RoleSupervisor},
		outsider:   user.Actor{UserID: "sup-2", OrganizationID: orgID, Role: user.RoleSupervisor},
		hr:         user.Actor{UserID: "hr-1", OrganizationID: orgID, Role: user.RoleHR},
	}
	users := &fakeUserRepo{users: map[string]user.User{
		"emp-1": {ID: "emp-1", OrganizationID: orgID, IsActive: true, SupervisorID: &supervisorID},
		"emp-2": {ID: "emp-2", OrganizationID: orgID, IsActive: true},
		"sup-1": {ID: "sup-1", OrganizationID: orgID, IsActive: true},
		"sup-2": {ID: "sup-2", OrganizationID: orgID, IsActive: true},
		"hr-1":  {ID: "hr-1", OrganizationID: orgID, IsActive: true},
	}}
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))

	f.svc = NewLeaveService(inlineTx{}, f.leaves, f.balances, users, leave.DefaultAllocations(), clk, nil, f.notifier, f.handler)
	return f
}

// Mon 10 Jun 2024 to Wed 12 Jun 2024.
func vacation() leave.RequestLeaveRequest {
	return leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeVacation, StartDate: "2024-06-10", EndDate: "2024-06-12", Reason: "family trip"}
}

func TestRequestLeave(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.RequestLeave(context.Background(), f.employee, vacation())
	require.NoError(t, err)

	assert.Equal(t, leave.StatusPending, resp.Status)
	assert.True(t, resp.TotalDays.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "2024-06-10", resp.StartDate)
	assert.Equal(t, "emp-1", resp.UserID)
}

func TestRequestLeave_Rules(t *testing.T) {
	tests := []struct {
		name     string
		req      leave.RequestLeaveRequest
		wantErr  error
		wantKind apperror.Kind
	}{
		{
			name:     "end before start",
			req:      leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeSick, StartDate: "2024-06-12", EndDate: "2024-06-10"},
			wantErr:  leave.ErrInvalidDateRange,
			wantKind: apperror.KindValidation,
		},
		{
			name:     "years outside the supported range",
			req:      leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeUnpaid, StartDate: "0001-01-01", EndDate: "9999-12-31"},
			wantErr:  leave.ErrInvalidDateRange,
			wantKind: apperror.KindValidation,
		},
		{
			name:     "span longer than a year",
			req:      leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeUnpaid, StartDate: "2024-01-01", EndDate: "2025-06-30"},
			wantErr:  leave.ErrInvalidDateRange,
			wantKind: apperror.KindValidation,
		},
		{
			name:     "weekend only",
			req:      leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeCasual, StartDate: "2024-06-15", EndDate: "2024-06-16"},
			wantErr:  leave.ErrNoWorkingDaysInRange,
			wantKind: apperror.KindValidation,
		},
		{
			name:     "half day over several days",
			req:      leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeCasual, StartDate: "2024-06-10", EndDate: "2024-06-11", HalfDay: true},
			wantErr:  leave.ErrHalfDayRangeInvalid,
			wantKind: apperror.KindValidation,
		},
		{
			name:     "more than the remaining sick days",
			req:      leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeSick, StartDate: "2024-06-03", EndDate: "2024-06-21"},
			wantErr:  leave.ErrInsufficientBalance,
			wantKind: apperror.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.RequestLeave(context.Background(), f.employee, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantKind, apperror.KindOf(err))
		})
	}
}

func TestRequestLeave_UnpaidIgnoresBalance(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.RequestLeave(context.Background(), f.employee, leave.RequestLeaveRequest{
		LeaveType: leave.LeaveTypeUnpaid, StartDate: "2024-06-03", EndDate: "2024-07-31",
	})
	require.NoError(t, err)
	assert.True(t, resp.TotalDays.Equal(decimal.NewFromInt(43)))
}

func TestRequestLeave_HalfDay(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.RequestLeave(context.Background(), f.employee, leave.RequestLeaveRequest{
		LeaveType: leave.LeaveTypeCasual, StartDate: "2024-06-10", EndDate: "2024-06-10", HalfDay: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.TotalDays.Equal(decimal.RequireFromString("0.5")))
}

func TestRequestLeave_Overlap(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.RequestLeave(ctx, f.employee, vacation())
	require.NoError(t, err)

	_, err = f.svc.RequestLeave(ctx, f.employee, leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeSick, StartDate: "2024-06-12", EndDate: "2024-06-14"})
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	// Other users are unaffected.
	_, err = f.svc.RequestLeave(ctx, f.colleague, vacation())
	assert.NoError(t, err)
}

func TestApproveLeave(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.svc.RequestLeave(ctx, f.employee, vacation())
	require.NoError(t, err)

	notes := "  enjoy  "
	approved, err := f.svc.ApproveLeave(ctx, f.hr, req.ID, leave.ApproveLeaveRequest{Notes: &notes})
	require.NoError(t, err)

	assert.Equal(t, leave.StatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, "hr-1", *approved.ReviewedBy)
	require.NotNil(t, approved.ReviewNotes)
	assert.Equal(t, "enjoy", *approved.ReviewNotes)

	balance, err := f.svc.MyBalance(ctx, f.employee, 2024)
	require.NoError(t, err)
	assert.True(t, balance.VacationLeave.Used.Equal(decimal.NewFromInt(3)))
	assert.True(t, balance.VacationLeave.Remaining.Equal(decimal.NewFromInt(12)))
	assert.True(t, balance.VacationLeave.Remaining.Equal(balance.VacationLeave.Total.Sub(balance.VacationLeave.Used)))

	require.Len(t, f.handler.events, 1)
	event := f.handler.events[0]
	assert.Equal(t, req.ID, event.LeaveID)
	assert.NotEmpty(t, event.EventID)
	require.Len(t, event.Dates, 3)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), event.Dates[2])

	require.Len(t, f.notifier.decisions, 1)
	assert.Equal(t, leave.StatusApproved, f.notifier.decisions[0].Status)
	assert.Equal(t, "emp-1", f.notifier.decisions[0].UserID)

	_, err = f.svc.ApproveLeave(ctx, f.hr, req.ID, leave.ApproveLeaveRequest{})
	assert.ErrorIs(t, err, leave.ErrLeaveNotPending)
}

func TestApproveLeave_UnpaidTracksUsedOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.svc.RequestLeave(ctx, f.employee, leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeUnpaid, StartDate: "2024-06-10", EndDate: "2024-06-11"})
	require.NoError(t, err)
	_, err = f.svc.ApproveLeave(ctx, f.hr, req.ID, leave.ApproveLeaveRequest{})
	require.NoError(t, err)

	balance, err := f.svc.MyBalance(ctx, f.employee, 2024)
	require.NoError(t, err)
	assert.True(t, balance.UnpaidLeave.Used.Equal(decimal.NewFromInt(2)))
	assert.True(t, balance.SickLeave.Used.IsZero())
	assert.True(t, balance.CasualLeave.Used.IsZero())
	assert.True(t, balance.VacationLeave.Used.IsZero())
}

func TestApproveLeave_RechecksBalance(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// 10 and 6 vacation days each fit the 15 day bucket alone but not together.
	first, err := f.svc.RequestLeave(ctx, f.employee, leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeVacation, StartDate: "2024-06-03", EndDate: "2024-06-14"})
	require.NoError(t, err)
	second, err := f.svc.RequestLeave(ctx, f.employee, leave.RequestLeaveRequest{LeaveType: leave.LeaveTypeVacation, StartDate: "2024-06-17", EndDate: "2024-06-24"})
	require.NoError(t, err)

	_, err = f.svc.ApproveLeave(ctx, f.hr, first.ID, leave.ApproveLeaveRequest{})
	require.NoError(t, err)

	_, err = f.svc.ApproveLeave(ctx, f.hr, second.ID, leave.ApproveLeaveRequest{})
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	balance, err := f.svc.MyBalance(ctx, f.employee, 2024)
	require.NoError(t, err)
	assert.True(t, balance.VacationLeave.Used.Equal(decimal.NewFromInt(10)))
	assert.True(t, balance.VacationLeave.Remaining.Equal(decimal.NewFromInt(5)))
	assert.Len(t, f.notifier.decisions, 1)
}

func TestApproveLeave_HandlerFailureAborts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.handler.err = errors.New("attendance unavailable")

	req, err := f.svc.RequestLeave(ctx, f.employee, vacation())
	require.NoError(t, err)

	_, err = f.svc.ApproveLeave(ctx, f.hr, req.ID, leave.ApproveLeaveRequest{})
	assert.ErrorContains(t, err, "attendance unavailable")
	assert.Empty(t, f.notifier.decisions)
}

func TestReviewerRules(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.svc.RequestLeave(ctx, f.employee, vacation())
	require.NoError(t, err)

	_, err = f.svc.ApproveLeave(ctx, f.employee, req.ID, leave.ApproveLeaveRequest{})
	assert.ErrorIs(t, err, leave.ErrCannotReviewOwnLeave)

	_, err = f.svc.ApproveLeave(ctx, f.colleague, req.ID, leave.ApproveLeaveRequest{})
	assert.ErrorIs(t, err, leave.ErrNotAllowedToReview)

	_, err = f.svc.ApproveLeave(ctx, f.outsider, req.ID, leave.ApproveLeaveRequest{})
	assert.ErrorIs(t, err, leave.ErrNotAllowedToReview)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

	approved, err := f.svc.ApproveLeave(ctx, f.supervisor, req.ID, leave.ApproveLeaveRequest{})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)

	_, err = f.svc.ApproveLeave(ctx, f.hr, uuid.NewString(), leave.ApproveLeaveRequest{})
	assert.ErrorIs(t, err, leave.ErrLeaveNotFound)
}

func TestRejectLeave(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.svc.RequestLeave(ctx, f.employee, vacation())
	require.NoError(t, err)

	_, err = f.svc.RejectLeave(ctx, f.hr, req.ID, leave.RejectLeaveRequest{Notes: "   "})
	assert.ErrorIs(t, err, leave.ErrRejectNotesRequired)

	rejected, err := f.svc.RejectLeave(ctx, f.hr, req.ID, leave.RejectLeaveRequest{Notes: "peak season"})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, rejected.Status)
	assert.Empty(t, f.handler.events)
	require.Len(t, f.notifier.decisions, 1)
	assert.Equal(t, leave.StatusRejected, f.notifier.decisions[0].Status)
	require.NotNil(t, f.notifier.decisions[0].Notes)
	assert.Equal(t, "peak season", *f.notifier.decisions[0].Notes)

	balance, err := f.svc.MyBalance(ctx, f.employee, 2024)
	require.NoError(t, err)
	assert.True(t, balance.VacationLeave.Used.IsZero())

	// A rejected leave no longer blocks the dates.
	_, err = f.svc.RequestLeave(ctx, f.employee, vacation())
	assert.NoError(t, err)
}

func TestCancelLeave(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pending, err := f.svc.RequestLeave(ctx, f.employee, vacation())
	require.NoError(t, err)

	_, err = f.svc.CancelLeave(ctx, f.colleague, pending.ID)
	assert.ErrorIs(t, err, leave.ErrNotLeaveOwner)

	cancelled, err := f.svc.CancelLeave(ctx, f.employee, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)

	_, err = f.svc.CancelLeave(ctx, f.employee, pending.ID)
	assert.ErrorIs(t, err, leave.ErrLeaveNotPending)

	again, err := f.svc.RequestLeave(ctx, f.employee, vacation())
	require.NoError(t, err)
	_, err = f.svc.ApproveLeave(ctx, f.hr, again.ID, leave.ApproveLeaveRequest{})
	require.NoError(t, err)

	_, err = f.svc.CancelLeave(ctx, f.employee, again.ID)
	assert.ErrorIs(t, err, leave.ErrApprovedLeaveCannotBeCancelled)
}

func TestPendingLeaves(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.RequestLeave(ctx, f.employee, vacation())
	require.NoError(t, err)
	_, err = f.svc.RequestLeave(ctx, f.colleague, vacation())
	require.NoError(t, err)

	all, err := f.svc.PendingLeaves(ctx, f.hr, leave.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	team, err := f.svc.PendingLeaves(ctx, f.supervisor, leave.ListFilter{})
	require.NoError(t, err)
	require.Len(t, team.Leaves, 1)
	assert.Equal(t, "emp-1", team.Leaves[0].UserID)

	none, err := f.svc.PendingLeaves(ctx, f.outsider, leave.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, none.Leaves)
	assert.Equal(t, 1, none.Page)

	_, err = f.svc.PendingLeaves(ctx, f.employee, leave.ListFilter{})
	assert.ErrorIs(t, err, leave.ErrNotAllowedToViewPending)
}

func TestMyLeavesAndAllLeaves(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.RequestLeave(ctx, f.employee, vacation())
	require.NoError(t, err)
	_, err = f.svc.RequestLeave(ctx, f.colleague, vacation())
	require.NoError(t, err)

	mine, err := f.svc.MyLeaves(ctx, f.employee, leave.ListFilter{UserIDs: []string{"emp-2"}})
	require.NoError(t, err)
	require.Len(t, mine.Leaves, 1)
	assert.Equal(t, "emp-1", mine.Leaves[0].UserID)

	all, err := f.svc.AllLeaves(ctx, f.hr, leave.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all.Leaves, 2)

	_, err = f.svc.AllLeaves(ctx, f.employee, leave.ListFilter{})
	assert.ErrorIs(t, err, user.ErrInsufficientPermissions)

	bad := leave.Status("archived")
	_, err = f.svc.AllLeaves(ctx, f.hr, leave.ListFilter{Status: &bad})
	assert.Error(t, err)
}

func TestCalendarLeaves_Scoping(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, actor := range []user.Actor{f.employee, f.colleague} {
		req, err := f.svc.RequestLeave(ctx, actor, vacation())
		require.NoError(t, err)
		_, err = f.svc.ApproveLeave(ctx, f.hr, req.ID, leave.ApproveLeaveRequest{})
		require.NoError(t, err)
	}

	june := leave.CalendarFilter{Month: 6, Year: 2024}

	own, err := f.svc.CalendarLeaves(ctx, f.colleague, june)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "emp-2", own[0].UserID)

	team, err := f.svc.CalendarLeaves(ctx, f.supervisor, june)
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, "emp-1", team[0].UserID)

	all, err := f.svc.CalendarLeaves(ctx, f.hr, june)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	target := "emp-2"
	filtered, err := f.svc.CalendarLeaves(ctx, f.hr, leave.CalendarFilter{Month: 6, Year: 2024, UserID: &target})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "emp-2", filtered[0].UserID)

	july, err := f.svc.CalendarLeaves(ctx, f.hr, leave.CalendarFilter{Month: 7, Year: 2024})
	require.NoError(t, err)
	assert.Empty(t, july)

	_, err = f.svc.CalendarLeaves(ctx, f.hr, leave.CalendarFilter{Month: 0, Year: 2024})
	assert.Error(t, err)
}

func TestMyBalance_Defaults(t *testing.T) {
	f := newFixture()

	balance, err := f.svc.MyBalance(context.Background(), f.employee, 0)
	require.NoError(t, err)

	assert.Equal(t, 2024, balance.Year)
	assert.True(t, balance.SickLeave.Total.Equal(decimal.NewFromInt(10)))
	assert.True(t, balance.CasualLeave.Total.Equal(decimal.NewFromInt(12)))
	assert.True(t, balance.VacationLeave.Total.Equal(decimal.NewFromInt(15)))
	assert.True(t, balance.UnpaidLeave.Used.IsZero())

	_, err = f.svc.MyBalance(context.Background(), f.employee, 1990)
	assert.Error(t, err)
}
