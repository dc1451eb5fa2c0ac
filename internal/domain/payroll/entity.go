package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/shopspring/decimal"
)

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft      RunStatus = "draft"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusCancelled  RunStatus = "cancelled"
)

func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusDraft, RunStatusProcessing, RunStatusCompleted, RunStatusCancelled:
		return true
	}
	return false
}

// Run - one payroll pass for an organization and period
type Run struct {
	ID               string
	OrganizationID   string
	Month            int
	Year             int
	Status           RunStatus
	ProcessedBy      *string
	ProcessedAt      *time.Time
	TotalGrossSalary decimal.Decimal
	TotalDeductions  decimal.Decimal
	TotalNetSalary   decimal.Decimal
	EmployeeCount    int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CheckProcessable returns why the run cannot enter processing, or nil.
func (r Run) CheckProcessable() error {
	switch r.Status {
	case RunStatusDraft:
		return nil
	case RunStatusCompleted:
		return ErrRunAlreadyCompleted
	case RunStatusCancelled:
		return ErrRunCancelled
	case RunStatusProcessing:
		return ErrRunInProgress
	}
	return ErrRunStatusChanged
}

func (r Run) CheckCancellable() error {
	if r.Status != RunStatusDraft {
		return ErrRunNotDraft
	}
	return nil
}

// Totals - aggregate written to the run on completion
type Totals struct {
	Gross         decimal.Decimal
	Deductions    decimal.Decimal
	Net           decimal.Decimal
	EmployeeCount int
}

func (t *Totals) Add(rec Record) {
	t.Gross = t.Gross.Add(rec.GrossSalary)
	t.Deductions = t.Deductions.Add(rec.TotalDeductions)
	t.Net = t.Net.Add(rec.NetSalary)
	t.EmployeeCount++
}

// RecordStatus enum
type RecordStatus string

const (
	RecordStatusPending RecordStatus = "pending"
	RecordStatusPaid    RecordStatus = "paid"
	RecordStatusOnHold  RecordStatus = "on_hold"
)

func (s RecordStatus) IsValid() bool {
	return s == RecordStatusPending || s == RecordStatusPaid || s == RecordStatusOnHold
}

// CanMoveTo reports the allowed payout transitions. Paid is final.
func (s RecordStatus) CanMoveTo(next RecordStatus) bool {
	switch s {
	case RecordStatusPending:
		return next == RecordStatusPaid || next == RecordStatusOnHold
	case RecordStatusOnHold:
		return next == RecordStatusPaid || next == RecordStatusPending
	}
	return false
}

// ComponentLine - snapshot of an allowance or deduction with its resolved value
type ComponentLine struct {
	Name   string               `json:"name"`
	Kind   salary.ComponentKind `json:"kind"`
	Amount decimal.Decimal      `json:"amount"`
	Value  decimal.Decimal      `json:"value"`
}

// Record - computed result for one employee in one run. Amounts never change once written.
type Record struct {
	ID              string
	OrganizationID  string
	PayrollRunID    string
	UserID          string
	Month           int
	Year            int
	WorkingDays     int
	DaysWorked      decimal.Decimal
	LeaveDays       decimal.Decimal
	AbsentDays      decimal.Decimal
	BaseSalary      decimal.Decimal
	Allowances      []ComponentLine
	Deductions      []ComponentLine
	GrossSalary     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal
	Status          RecordStatus
	PaidAt          *time.Time
	CreatedAt       time.Time
}
