package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/shopspring/decimal"
)

// EmployeeInputs is everything the calculator needs for one employee and period.
type EmployeeInputs struct {
	Structure      salary.Structure
	WorkingDays    int
	AttendanceDays int
	LeaveDays      decimal.Decimal
}

// Calculate derives the record amounts. Amounts are rounded half-up to 2 decimals,
// and absent days never go below zero.
func Calculate(in EmployeeInputs) (payroll.Record, error) {
	if in.WorkingDays <= 0 {
		return payroll.Record{}, payroll.ErrNoWorkingDays
	}

	workingDays := decimal.NewFromInt(int64(in.WorkingDays))
	daysWorked := decimal.NewFromInt(int64(in.AttendanceDays)).Add(in.LeaveDays)
	absentDays := decimal.Max(workingDays.Sub(daysWorked), decimal.Zero)

	base := in.Structure.BaseSalary
	if absentDays.IsPositive() {
		base = base.Mul(daysWorked).Div(workingDays)
	}

	allowances, allowanceSum := resolve(in.Structure.Allowances, base)
	gross := base.Add(allowanceSum).Round(2)

	deductions, deductionSum := resolve(in.Structure.Deductions, gross)
	totalDeductions := deductionSum.Round(2)

	return payroll.Record{
		OrganizationID:  in.Structure.OrganizationID,
		UserID:          in.Structure.UserID,
		WorkingDays:     in.WorkingDays,
		DaysWorked:      daysWorked,
		LeaveDays:       in.LeaveDays,
		AbsentDays:      absentDays,
		BaseSalary:      base.Round(2),
		Allowances:      allowances,
		Deductions:      deductions,
		GrossSalary:     gross,
		TotalDeductions: totalDeductions,
		NetSalary:       gross.Sub(totalDeductions),
		Status:          payroll.RecordStatusPending,
	}, nil
}

// resolve snapshots components against basis. The sum is left unrounded.
func resolve(components []salary.Component, basis decimal.Decimal) ([]payroll.ComponentLine, decimal.Decimal) {
	lines := make([]payroll.ComponentLine, 0, len(components))
	sum := decimal.Zero
	for _, c := range components {
		value := c.ValueOn(basis)
		sum = sum.Add(value)
		lines = append(lines, payroll.ComponentLine{
			Name:   c.Name,
			Kind:   c.Kind,
			Amount: c.Amount,
			Value:  value.Round(2),
		})
	}
	return lines, sum
}
