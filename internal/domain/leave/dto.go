package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== REQUEST DTOs ==========

type RequestLeaveRequest struct {
	LeaveType LeaveType `json:"leave_type"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Reason    string    `json:"reason"`
	HalfDay   bool      `json:"half_day"`
}

func (r *RequestLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.LeaveType.IsValid() {
		errs.Add("leave_type", "leave_type must be one of sick, casual, vacation, unpaid")
	}
	if validator.IsEmpty(r.StartDate) {
		errs.Add("start_date", "start_date is required")
	} else if _, ok := validator.IsValidDate(r.StartDate); !ok {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	if validator.IsEmpty(r.EndDate) {
		errs.Add("end_date", "end_date is required")
	} else if _, ok := validator.IsValidDate(r.EndDate); !ok {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if len(r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}

	return errs.Err()
}

type ApproveLeaveRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type RejectLeaveRequest struct {
	Notes string `json:"notes"`
}

type ListFilter struct {
	UserID    *string
	UserIDs   []string
	Status    *Status
	LeaveType *LeaveType
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil && !f.Status.IsValid() {
		errs.Add("status", "status must be one of pending, approved, rejected, cancelled")
	}
	if f.LeaveType != nil && !f.LeaveType.IsValid() {
		errs.Add("leave_type", "leave_type must be one of sick, casual, vacation, unpaid")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		errs.Add("end_date", "end_date must not be before start_date")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return errs.Err()
}

// CalendarFilter narrows calendarLeaves. UserID is honoured for organization-wide viewers only.
type CalendarFilter struct {
	Month  int
	Year   int
	UserID *string
}

func (f CalendarFilter) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidMonth(f.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if !validator.IsValidYear(f.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	return errs.Err()
}

// ========== RESPONSE DTOs ==========

type LeaveResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	LeaveType   LeaveType       `json:"leave_type"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	TotalDays   decimal.Decimal `json:"total_days"`
	Reason      string          `json:"reason"`
	Status      Status          `json:"status"`
	ReviewedBy  *string         `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time      `json:"reviewed_at,omitempty"`
	ReviewNotes *string         `json:"review_notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ListLeaveResponse struct {
	Leaves []LeaveResponse `json:"leaves"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

type BucketResponse struct {
	Total     decimal.Decimal `json:"total"`
	Used      decimal.Decimal `json:"used"`
	Remaining decimal.Decimal `json:"remaining"`
}

type UnpaidResponse struct {
	Used decimal.Decimal `json:"used"`
}

type BalanceResponse struct {
	UserID        string         `json:"user_id"`
	Year          int            `json:"year"`
	SickLeave     BucketResponse `json:"sick_leave"`
	CasualLeave   BucketResponse `json:"casual_leave"`
	VacationLeave BucketResponse `json:"vacation_leave"`
	UnpaidLeave   UnpaidResponse `json:"unpaid_leave"`
}

func ToLeaveResponse(l Leave) LeaveResponse {
	return LeaveResponse{
		ID:          l.ID,
		UserID:      l.UserID,
		LeaveType:   l.LeaveType,
		StartDate:   l.StartDate.Format(validator.DateLayout),
		EndDate:     l.EndDate.Format(validator.DateLayout),
		TotalDays:   l.TotalDays,
		Reason:      l.Reason,
		Status:      l.Status,
		ReviewedBy:  l.ReviewedBy,
		ReviewedAt:  l.ReviewedAt,
		ReviewNotes: l.ReviewNotes,
		CreatedAt:   l.CreatedAt,
	}
}

func ToLeaveResponses(leaves []Leave) []LeaveResponse {
	out := make([]LeaveResponse, 0, len(leaves))
	for _, l := range leaves {
		out = append(out, ToLeaveResponse(l))
	}
	return out
}

func toBucketResponse(b Bucket) BucketResponse {
	return BucketResponse{Total: b.Total, Used: b.Used, Remaining: b.Remaining()}
}

func ToBalanceResponse(b Balance) BalanceResponse {
	return BalanceResponse{
		UserID:        b.UserID,
		Year:          b.Year,
		SickLeave:     toBucketResponse(b.Sick),
		CasualLeave:   toBucketResponse(b.Casual),
		VacationLeave: toBucketResponse(b.Vacation),
		UnpaidLeave:   UnpaidResponse{Used: b.UnpaidUsed},
	}
}
