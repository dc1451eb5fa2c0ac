package salary

import (
	"time"

	"github.com/shopspring/decimal"
)

type ComponentKind string

const (
	ComponentFixed      ComponentKind = "fixed"
	ComponentPercentage ComponentKind = "percentage"
)

func (k ComponentKind) IsValid() bool {
	return k == ComponentFixed || k == ComponentPercentage
}

// Component is an allowance or a deduction. For percentage components Amount is the rate.
type Component struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Kind   ComponentKind   `json:"kind"`
}

var hundred = decimal.NewFromInt(100)

// ValueOn resolves the component against basis.
func (c Component) ValueOn(basis decimal.Decimal) decimal.Decimal {
	if c.Kind == ComponentPercentage {
		return basis.Mul(c.Amount).Div(hundred)
	}
	return c.Amount
}

// Structure is one version of a user's compensation. Versions are never edited: a change
// deactivates the current row and inserts a new one.
type Structure struct {
	ID             string
	OrganizationID string
	UserID         string
	BaseSalary     decimal.Decimal
	Allowances     []Component
	Deductions     []Component
	EffectiveFrom  time.Time
	IsActive       bool
	CreatedBy      string
	CreatedAt      time.Time
}

// StructureWithUser joins the user projection used for filtering and display.
type StructureWithUser struct {
	Structure
	UserFullName string
	UserEmail    string
	DepartmentID *string
}
