package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/cmlabs-hris/hris-payroll-go/internal/service/file"
	"github.com/shopspring/decimal"
)

// Policy holds the working-time rules applied on check-in and check-out. Times are UTC.
type Policy struct {
	WorkStart    time.Duration // offset from midnight
	LateGrace    time.Duration
	HalfDayHours decimal.Decimal
	// Fence limits where check-ins may come from. Disabled when its radius is zero.
	Fence geo.Fence
}

// NewPolicy parses workStart as HH:MM.
func NewPolicy(workStart string, lateGrace time.Duration, halfDayHours float64) (Policy, error) {
	t, err := time.Parse("15:04", workStart)
	if err != nil {
		return Policy{}, fmt.Errorf("invalid work start %q: %w", workStart, err)
	}
	return Policy{
		WorkStart:    time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute,
		LateGrace:    lateGrace,
		HalfDayHours: decimal.NewFromFloat(halfDayHours),
	}, nil
}

// WithFence returns a copy of p that only accepts check-ins within radius meters of office.
func (p Policy) WithFence(office geo.Point, radius float64) Policy {
	p.Fence = geo.Fence{Center: office, Radius: radius}
	return p
}

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	fileService    file.FileService
	policy         Policy
	clock          clock.Clock
}

func NewAttendanceService(attendanceRepo attendance.AttendanceRepository, fileService file.FileService, policy Policy, clk clock.Clock) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		fileService:    fileService,
		policy:         policy,
		clock:          clk,
	}
}

var (
	_ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)
	_ leave.ApprovalHandler        = (*AttendanceServiceImpl)(nil)
)

// HandleLeaveApproved marks every weekday of the leave as on_leave, replacing whatever the
// user had recorded on those days.
func (s *AttendanceServiceImpl) HandleLeaveApproved(ctx context.Context, event leave.LeaveApproved) error {
	if len(event.Dates) == 0 {
		return nil
	}

	days := make([]attendance.LeaveDay, 0, len(event.Dates))
	for _, d := range event.Dates {
		days = append(days, attendance.LeaveDay{
			OrganizationID: event.OrganizationID,
			UserID:         event.UserID,
			LeaveID:        event.LeaveID,
			Date:           calendar.StartOfDay(d),
		})
	}

	if err := s.attendanceRepo.UpsertLeaveDays(ctx, days); err != nil {
		return fmt.Errorf("mark leave days: %w", err)
	}

	slog.InfoContext(ctx, "attendance marked on leave",
		"organization_id", event.OrganizationID, "user_id", event.UserID, "leave_id", event.LeaveID, "days", len(days))
	return nil
}

// CheckIn records today's arrival. A photo that fails to store is dropped, not fatal.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, actor user.Actor, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	location := req.Location()
	if s.policy.Fence.Enabled() {
		if location == nil {
			return attendance.AttendanceResponse{}, attendance.ErrLocationRequired
		}
		if !s.policy.Fence.Contains(*location) {
			slog.InfoContext(ctx, "check-in rejected outside fence",
				"user_id", actor.UserID, "distance_m", int(geo.Distance(s.policy.Fence.Center, *location)))
			return attendance.AttendanceResponse{}, attendance.ErrOutsideGeofence
		}
	}

	now := s.clock.Now().UTC()
	today := calendar.StartOfDay(now)

	existing, err := s.attendanceRepo.GetByUserAndDate(ctx, actor.OrganizationID, actor.UserID, today)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("get attendance: %w", err)
	}
	if existing != nil {
		if existing.Status == attendance.StatusOnLeave {
			return attendance.AttendanceResponse{}, attendance.ErrOnLeaveToday
		}
		if existing.CheckIn != nil {
			return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedIn
		}
	}

	status := attendance.StatusPresent
	if now.After(today.Add(s.policy.WorkStart + s.policy.LateGrace)) {
		status = attendance.StatusLate
	}

	var photoURL *string
	if photo := req.Photo; photo != nil && photo.Content != nil && s.fileService != nil {
		url, err := s.fileService.UploadAttendancePhoto(ctx, actor.UserID, today, photo.Content, photo.Filename)
		if err != nil {
			slog.WarnContext(ctx, "attendance photo upload failed", "user_id", actor.UserID, "error", err)
		} else {
			photoURL = &url
		}
	}

	if existing != nil {
		existing.CheckIn = &now
		existing.Status = status
		existing.PhotoURL = photoURL
		existing.CheckInLatitude, existing.CheckInLongitude = req.Latitude, req.Longitude
		if err := s.attendanceRepo.Update(ctx, *existing); err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("update attendance: %w", err)
		}
		return attendance.ToResponse(*existing), nil
	}

	created, err := s.attendanceRepo.Create(ctx, attendance.Attendance{
		OrganizationID:   actor.OrganizationID,
		UserID:           actor.UserID,
		Date:             today,
		CheckIn:          &now,
		Status:           status,
		PhotoURL:         photoURL,
		CheckInLatitude:  req.Latitude,
		CheckInLongitude: req.Longitude,
	})
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("create attendance: %w", err)
	}

	slog.InfoContext(ctx, "checked in", "organization_id", actor.OrganizationID, "user_id", actor.UserID, "status", status)
	return attendance.ToResponse(created), nil
}

// CheckOut closes today's attendance. Short days become half_day.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, actor user.Actor) (attendance.AttendanceResponse, error) {
	now := s.clock.Now().UTC()

	existing, err := s.attendanceRepo.GetByUserAndDate(ctx, actor.OrganizationID, actor.UserID, calendar.StartOfDay(now))
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("get attendance: %w", err)
	}
	if existing != nil && existing.Status == attendance.StatusOnLeave {
		return attendance.AttendanceResponse{}, attendance.ErrDayOnLeave
	}
	if existing == nil || existing.CheckIn == nil {
		return attendance.AttendanceResponse{}, attendance.ErrNotCheckedIn
	}
	if existing.CheckOut != nil {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedOut
	}

	hours := decimal.NewFromFloat(now.Sub(*existing.CheckIn).Hours()).Round(2)
	existing.CheckOut = &now
	existing.WorkingHours = &hours
	if hours.LessThan(s.policy.HalfDayHours) {
		existing.Status = attendance.StatusHalfDay
	}

	if err := s.attendanceRepo.Update(ctx, *existing); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("update attendance: %w", err)
	}
	return attendance.ToResponse(*existing), nil
}

func (s *AttendanceServiceImpl) MyAttendance(ctx context.Context, actor user.Actor, month, year int) ([]attendance.AttendanceResponse, error) {
	var errs validator.ValidationErrors
	if !validator.IsValidMonth(month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if !validator.IsValidYear(year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	from, to := calendar.MonthRange(year, month)
	rows, err := s.attendanceRepo.ListByUser(ctx, actor.OrganizationID, actor.UserID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return attendance.ToResponses(rows), nil
}
