package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== REQUEST DTOs ==========

type CreateRunRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *CreateRunRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidMonth(r.Month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if !validator.IsValidYear(r.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	return errs.Err()
}

type RunFilter struct {
	Year   *int
	Status *RunStatus
	Page   int
	Limit  int
}

func (f *RunFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Year != nil && !validator.IsValidYear(*f.Year) {
		errs.Add("year", "year must be between 2000 and 2100")
	}
	if f.Status != nil && !f.Status.IsValid() {
		errs.Add("status", "status must be one of draft, processing, completed, cancelled")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return errs.Err()
}

type UpdateRecordStatusRequest struct {
	Status RecordStatus `json:"status"`
}

func (r *UpdateRecordStatusRequest) Validate() error {
	var errs validator.ValidationErrors
	if !r.Status.IsValid() {
		errs.Add("status", "status must be one of pending, paid, on_hold")
	}
	return errs.Err()
}

// ========== RESPONSE DTOs ==========

type RunResponse struct {
	ID               string           `json:"id"`
	Month            int              `json:"month"`
	Year             int              `json:"year"`
	Status           RunStatus        `json:"status"`
	ProcessedBy      *string          `json:"processed_by,omitempty"`
	ProcessedAt      *time.Time       `json:"processed_at,omitempty"`
	TotalGrossSalary decimal.Decimal  `json:"total_gross_salary"`
	TotalDeductions  decimal.Decimal  `json:"total_deductions"`
	TotalNetSalary   decimal.Decimal  `json:"total_net_salary"`
	EmployeeCount    int              `json:"employee_count"`
	CreatedAt        time.Time        `json:"created_at"`
	Records          []RecordResponse `json:"records,omitempty"`
}

type ListRunResponse struct {
	Runs  []RunResponse `json:"runs"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type RecordResponse struct {
	ID              string          `json:"id"`
	PayrollRunID    string          `json:"payroll_run_id"`
	UserID          string          `json:"user_id"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	WorkingDays     int             `json:"working_days"`
	DaysWorked      decimal.Decimal `json:"days_worked"`
	LeaveDays       decimal.Decimal `json:"leave_days"`
	AbsentDays      decimal.Decimal `json:"absent_days"`
	BaseSalary      decimal.Decimal `json:"base_salary"`
	Allowances      []ComponentLine `json:"allowances"`
	Deductions      []ComponentLine `json:"deductions"`
	GrossSalary     decimal.Decimal `json:"gross_salary"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetSalary       decimal.Decimal `json:"net_salary"`
	Status          RecordStatus    `json:"status"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func ToRunResponse(r Run) RunResponse {
	return RunResponse{
		ID:               r.ID,
		Month:            r.Month,
		Year:             r.Year,
		Status:           r.Status,
		ProcessedBy:      r.ProcessedBy,
		ProcessedAt:      r.ProcessedAt,
		TotalGrossSalary: r.TotalGrossSalary,
		TotalDeductions:  r.TotalDeductions,
		TotalNetSalary:   r.TotalNetSalary,
		EmployeeCount:    r.EmployeeCount,
		CreatedAt:        r.CreatedAt,
	}
}

func ToRecordResponse(r Record) RecordResponse {
	allowances, deductions := r.Allowances, r.Deductions
	if allowances == nil {
		allowances = []ComponentLine{}
	}
	if deductions == nil {
		deductions = []ComponentLine{}
	}
	return RecordResponse{
		ID:              r.ID,
		PayrollRunID:    r.PayrollRunID,
		UserID:          r.UserID,
		Month:           r.Month,
		Year:            r.Year,
		WorkingDays:     r.WorkingDays,
		DaysWorked:      r.DaysWorked,
		LeaveDays:       r.LeaveDays,
		AbsentDays:      r.AbsentDays,
		BaseSalary:      r.BaseSalary,
		Allowances:      allowances,
		Deductions:      deductions,
		GrossSalary:     r.GrossSalary,
		TotalDeductions: r.TotalDeductions,
		NetSalary:       r.NetSalary,
		Status:          r.Status,
		PaidAt:          r.PaidAt,
		CreatedAt:       r.CreatedAt,
	}
}

func ToRecordResponses(records []Record) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, ToRecordResponse(r))
	}
	return out
}
