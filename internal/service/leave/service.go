package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/google/uuid"
)

type LeaveServiceImpl struct {
	tx          database.Transactor
	leaveRepo   leave.LeaveRepository
	balanceRepo leave.BalanceRepository
	userRepo    user.UserRepository
	allocations leave.Allocations
	handlers    []leave.ApprovalHandler
	notifier    leave.DecisionNotifier
	clock       clock.Clock
	metrics     *metrics.Metrics
}

func NewLeaveService(
	tx database.Transactor,
	leaveRepo leave.LeaveRepository,
	balanceRepo leave.BalanceRepository,
	userRepo user.UserRepository,
	allocations leave.Allocations,
	clk clock.Clock,
	m *metrics.Metrics,
	notifier leave.DecisionNotifier,
	handlers ...leave.ApprovalHandler,
) leave.LeaveService {
	return &LeaveServiceImpl{
		tx:          tx,
		leaveRepo:   leaveRepo,
		balanceRepo: balanceRepo,
		userRepo:    userRepo,
		allocations: allocations,
		handlers:    handlers,
		notifier:    notifier,
		clock:       clk,
		metrics:     m,
	}
}

// RequestLeave files a pending leave after checking the range, overlaps and the balance.
func (s *LeaveServiceImpl) RequestLeave(ctx context.Context, actor user.Actor, req leave.RequestLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	start, _ := validator.IsValidDate(req.StartDate)
	end, _ := validator.IsValidDate(req.EndDate)
	start, end = calendar.StartOfDay(start), calendar.StartOfDay(end)

	if !validator.IsValidYear(start.Year()) || !validator.IsValidYear(end.Year()) ||
		end.Before(start) || end.After(start.AddDate(0, 0, leave.MaxSpanDays)) {
		return leave.LeaveResponse{}, leave.ErrInvalidDateRange
	}
	if req.HalfDay && !start.Equal(end) {
		return leave.LeaveResponse{}, leave.ErrHalfDayRangeInvalid
	}

	totalDays := leave.CountDays(start, end, req.HalfDay)
	if totalDays.IsZero() {
		return leave.LeaveResponse{}, leave.ErrNoWorkingDaysInRange
	}

	requester, err := s.userRepo.GetByID(ctx, actor.OrganizationID, actor.UserID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if !requester.IsActive {
		return leave.LeaveResponse{}, user.ErrUserInactive
	}

	overlap, err := s.leaveRepo.HasOverlap(ctx, actor.OrganizationID, actor.UserID, start, end)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("check leave overlap: %w", err)
	}
	if overlap {
		return leave.LeaveResponse{}, leave.ErrOverlappingLeave
	}

	balance, err := s.balanceRepo.GetOrCreate(ctx, actor.OrganizationID, actor.UserID, start.Year(), s.allocations)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("get leave balance: %w", err)
	}
	if !balance.HasSufficient(req.LeaveType, totalDays) {
		return leave.LeaveResponse{}, leave.ErrInsufficientBalance
	}

	created, err := s.leaveRepo.Create(ctx, leave.Leave{
		OrganizationID: actor.OrganizationID,
		UserID:         actor.UserID,
		LeaveType:      req.LeaveType,
		StartDate:      start,
		EndDate:        end,
		TotalDays:      totalDays,
		Reason:         strings.TrimSpace(req.Reason),
		Status:         leave.StatusPending,
	})
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("create leave: %w", err)
	}

	slog.InfoContext(ctx, "leave requested",
		"organization_id", actor.OrganizationID, "user_id", actor.UserID, "leave_id", created.ID,
		"leave_type", created.LeaveType, "total_days", created.TotalDays.String())
	return leave.ToLeaveResponse(created), nil
}

// ApproveLeave approves a pending leave, charges the balance and notifies the approval
// handlers. All of it commits or none of it does.
func (s *LeaveServiceImpl) ApproveLeave(ctx context.Context, actor user.Actor, leaveID string, req leave.ApproveLeaveRequest) (leave.LeaveResponse, error) {
	current, err := s.getLeave(ctx, actor.OrganizationID, leaveID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if current.Status != leave.StatusPending {
		return leave.LeaveResponse{}, leave.ErrLeaveNotPending
	}
	if err := s.checkReviewer(ctx, actor, current); err != nil {
		return leave.LeaveResponse{}, err
	}

	review := &leave.Review{
		ReviewerID: actor.UserID,
		ReviewedAt: s.clock.Now(),
		Notes:      trimmedOrNil(req.Notes),
	}

	var approved leave.Leave
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		approved, err = s.leaveRepo.UpdateStatus(ctx, actor.OrganizationID, current.ID, leave.StatusPending, leave.StatusApproved, review)
		if err != nil {
			return err
		}

		year := approved.StartDate.Year()
		balance, err := s.balanceRepo.GetOrCreate(ctx, approved.OrganizationID, approved.UserID, year, s.allocations)
		if err != nil {
			return fmt.Errorf("get leave balance: %w", err)
		}
		// Other approvals may have drawn on the bucket since the request was filed.
		if !balance.HasSufficient(approved.LeaveType, approved.TotalDays) {
			return leave.ErrInsufficientBalance
		}
		if _, err := s.balanceRepo.AddUsed(ctx, approved.OrganizationID, approved.UserID, year, approved.LeaveType, approved.TotalDays); err != nil {
			return fmt.Errorf("charge leave balance: %w", err)
		}

		return s.publishApproved(ctx, approved, review)
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	s.metrics.LeaveDecision(string(leave.StatusApproved))
	s.notifyDecision(ctx, approved, review)
	slog.InfoContext(ctx, "leave approved",
		"organization_id", actor.OrganizationID, "leave_id", approved.ID, "reviewer_id", actor.UserID)
	return leave.ToLeaveResponse(approved), nil
}

func (s *LeaveServiceImpl) RejectLeave(ctx context.Context, actor user.Actor, leaveID string, req leave.RejectLeaveRequest) (leave.LeaveResponse, error) {
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		return leave.LeaveResponse{}, leave.ErrRejectNotesRequired
	}

	current, err := s.getLeave(ctx, actor.OrganizationID, leaveID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if current.Status != leave.StatusPending {
		return leave.LeaveResponse{}, leave.ErrLeaveNotPending
	}
	if err := s.checkReviewer(ctx, actor, current); err != nil {
		return leave.LeaveResponse{}, err
	}

	review := &leave.Review{
		ReviewerID: actor.UserID,
		ReviewedAt: s.clock.Now(),
		Notes:      &notes,
	}
	rejected, err := s.leaveRepo.UpdateStatus(ctx, actor.OrganizationID, current.ID, leave.StatusPending, leave.StatusRejected, review)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	s.metrics.LeaveDecision(string(leave.StatusRejected))
	s.notifyDecision(ctx, rejected, review)
	slog.InfoContext(ctx, "leave rejected",
		"organization_id", actor.OrganizationID, "leave_id", rejected.ID, "reviewer_id", actor.UserID)
	return leave.ToLeaveResponse(rejected), nil
}

// CancelLeave lets the requester withdraw a leave that is still pending.
func (s *LeaveServiceImpl) CancelLeave(ctx context.Context, actor user.Actor, leaveID string) (leave.LeaveResponse, error) {
	current, err := s.getLeave(ctx, actor.OrganizationID, leaveID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if current.UserID != actor.UserID {
		return leave.LeaveResponse{}, leave.ErrNotLeaveOwner
	}
	if err := current.CheckCancellable(); err != nil {
		return leave.LeaveResponse{}, err
	}

	cancelled, err := s.leaveRepo.UpdateStatus(ctx, actor.OrganizationID, current.ID, leave.StatusPending, leave.StatusCancelled, nil)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	s.metrics.LeaveDecision(string(leave.StatusCancelled))
	return leave.ToLeaveResponse(cancelled), nil
}

func (s *LeaveServiceImpl) MyLeaves(ctx context.Context, actor user.Actor, filter leave.ListFilter) (leave.ListLeaveResponse, error) {
	filter.UserID = &actor.UserID
	filter.UserIDs = nil
	return s.list(ctx, actor.OrganizationID, filter)
}

// PendingLeaves returns the leaves awaiting the actor's decision. Supervisors see their
// direct reports only.
func (s *LeaveServiceImpl) PendingLeaves(ctx context.Context, actor user.Actor, filter leave.ListFilter) (leave.ListLeaveResponse, error) {
	pending := leave.StatusPending
	filter.Status = &pending
	filter.UserID = nil
	filter.UserIDs = nil

	switch {
	case actor.Role.SeesAllOrganizationData():
	case actor.Role == user.RoleSupervisor:
		reports, err := s.userRepo.ListDirectReportIDs(ctx, actor.OrganizationID, actor.UserID)
		if err != nil {
			return leave.ListLeaveResponse{}, fmt.Errorf("list direct reports: %w", err)
		}
		if len(reports) == 0 {
			if err := filter.Validate(); err != nil {
				return leave.ListLeaveResponse{}, err
			}
			return emptyList(filter), nil
		}
		filter.UserIDs = reports
	default:
		return leave.ListLeaveResponse{}, leave.ErrNotAllowedToViewPending
	}

	return s.list(ctx, actor.OrganizationID, filter)
}

func (s *LeaveServiceImpl) AllLeaves(ctx context.Context, actor user.Actor, filter leave.ListFilter) (leave.ListLeaveResponse, error) {
	if !actor.Role.SeesAllOrganizationData() {
		return leave.ListLeaveResponse{}, user.ErrInsufficientPermissions
	}
	filter.UserIDs = nil
	return s.list(ctx, actor.OrganizationID, filter)
}

// CalendarLeaves returns the approved leaves overlapping the month that the actor may see.
func (s *LeaveServiceImpl) CalendarLeaves(ctx context.Context, actor user.Actor, filter leave.CalendarFilter) ([]leave.LeaveResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var userIDs []string
	switch {
	case actor.Role.SeesAllOrganizationData():
		if filter.UserID != nil && *filter.UserID != "" {
			userIDs = []string{*filter.UserID}
		}
	case actor.Role == user.RoleSupervisor:
		reports, err := s.userRepo.ListDirectReportIDs(ctx, actor.OrganizationID, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("list direct reports: %w", err)
		}
		userIDs = append([]string{actor.UserID}, reports...)
	default:
		userIDs = []string{actor.UserID}
	}

	from, to := calendar.MonthRange(filter.Year, filter.Month)
	leaves, err := s.leaveRepo.ListApprovedInRange(ctx, actor.OrganizationID, userIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("list approved leaves: %w", err)
	}
	return leave.ToLeaveResponses(leaves), nil
}

// MyBalance returns the actor's balance for year, creating it on first access.
// A zero year means the current one.
func (s *LeaveServiceImpl) MyBalance(ctx context.Context, actor user.Actor, year int) (leave.BalanceResponse, error) {
	if year == 0 {
		year = s.clock.Now().Year()
	}
	if !validator.IsValidYear(year) {
		return leave.BalanceResponse{}, validator.ValidationErrors{{Field: "year", Message: "year must be between 2000 and 2100"}}
	}

	balance, err := s.balanceRepo.GetOrCreate(ctx, actor.OrganizationID, actor.UserID, year, s.allocations)
	if err != nil {
		return leave.BalanceResponse{}, fmt.Errorf("get leave balance: %w", err)
	}
	return leave.ToBalanceResponse(balance), nil
}

func (s *LeaveServiceImpl) getLeave(ctx context.Context, organizationID, leaveID string) (leave.Leave, error) {
	if !validator.IsValidUUID(leaveID) {
		return leave.Leave{}, leave.ErrLeaveNotFound
	}
	return s.leaveRepo.GetByID(ctx, organizationID, leaveID)
}

// checkReviewer allows HR and admins, or the requester's supervisor. Nobody reviews their own leave.
func (s *LeaveServiceImpl) checkReviewer(ctx context.Context, actor user.Actor, l leave.Leave) error {
	if actor.UserID == l.UserID {
		return leave.ErrCannotReviewOwnLeave
	}
	if actor.Role.SeesAllOrganizationData() {
		return nil
	}
	if actor.Role != user.RoleSupervisor {
		return leave.ErrNotAllowedToReview
	}

	requester, err := s.userRepo.GetByID(ctx, actor.OrganizationID, l.UserID)
	if err != nil {
		return err
	}
	if requester.SupervisorID == nil || *requester.SupervisorID != actor.UserID {
		return leave.ErrNotAllowedToReview
	}
	return nil
}

func (s *LeaveServiceImpl) publishApproved(ctx context.Context, l leave.Leave, review *leave.Review) error {
	event := leave.LeaveApproved{
		EventID:        uuid.NewString(),
		OrganizationID: l.OrganizationID,
		LeaveID:        l.ID,
		UserID:         l.UserID,
		LeaveType:      l.LeaveType,
		TotalDays:      l.TotalDays,
		Dates:          l.WorkingDates(),
		ApprovedBy:     review.ReviewerID,
		ApprovedAt:     review.ReviewedAt,
	}
	for _, h := range s.handlers {
		if err := h.HandleLeaveApproved(ctx, event); err != nil {
			return fmt.Errorf("handle leave approved: %w", err)
		}
	}
	return nil
}

func (s *LeaveServiceImpl) notifyDecision(ctx context.Context, l leave.Leave, review *leave.Review) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyLeaveDecision(ctx, leave.LeaveDecided{
		OrganizationID: l.OrganizationID,
		LeaveID:        l.ID,
		UserID:         l.UserID,
		LeaveType:      l.LeaveType,
		StartDate:      l.StartDate,
		EndDate:        l.EndDate,
		Status:         l.Status,
		ReviewedBy:     review.ReviewerID,
		ReviewedAt:     review.ReviewedAt,
		Notes:          review.Notes,
	})
}

func (s *LeaveServiceImpl) list(ctx context.Context, organizationID string, filter leave.ListFilter) (leave.ListLeaveResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveResponse{}, err
	}

	leaves, total, err := s.leaveRepo.List(ctx, organizationID, filter)
	if err != nil {
		return leave.ListLeaveResponse{}, fmt.Errorf("list leaves: %w", err)
	}
	return leave.ListLeaveResponse{
		Leaves: leave.ToLeaveResponses(leaves),
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}, nil
}

func emptyList(filter leave.ListFilter) leave.ListLeaveResponse {
	return leave.ListLeaveResponse{Leaves: []leave.LeaveResponse{}, Page: filter.Page, Limit: filter.Limit}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
