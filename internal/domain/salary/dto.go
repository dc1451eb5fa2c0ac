package salary

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== REQUEST DTOs ==========

type CreateStructureRequest struct {
	UserID        string          `json:"user_id"`
	BaseSalary    decimal.Decimal `json:"base_salary"`
	Allowances    []Component     `json:"allowances"`
	Deductions    []Component     `json:"deductions"`
	EffectiveFrom string          `json:"effective_from"`
}

func (r *CreateStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs.Add("user_id", "user_id is required")
	} else if !validator.IsValidUUID(r.UserID) {
		errs.Add("user_id", "user_id must be a valid UUID")
	}
	if r.EffectiveFrom != "" {
		if _, ok := validator.IsValidDate(r.EffectiveFrom); !ok {
			errs.Add("effective_from", "effective_from must be in YYYY-MM-DD format")
		}
	}
	errs = append(errs, validateComponents("allowances", r.Allowances)...)
	errs = append(errs, validateComponents("deductions", r.Deductions)...)

	return errs.Err()
}

// UpdateStructureRequest carries the fields to change. Nil fields keep the current value.
type UpdateStructureRequest struct {
	BaseSalary    *decimal.Decimal `json:"base_salary,omitempty"`
	Allowances    *[]Component     `json:"allowances,omitempty"`
	Deductions    *[]Component     `json:"deductions,omitempty"`
	EffectiveFrom *string          `json:"effective_from,omitempty"`
}

func (r *UpdateStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EffectiveFrom != nil {
		if _, ok := validator.IsValidDate(*r.EffectiveFrom); !ok {
			errs.Add("effective_from", "effective_from must be in YYYY-MM-DD format")
		}
	}
	if r.Allowances != nil {
		errs = append(errs, validateComponents("allowances", *r.Allowances)...)
	}
	if r.Deductions != nil {
		errs = append(errs, validateComponents("deductions", *r.Deductions)...)
	}

	return errs.Err()
}

type ListFilter struct {
	DepartmentID *string
	Search       *string
	Page         int
	Limit        int
}

func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Search != nil {
		s := strings.TrimSpace(*f.Search)
		if s == "" {
			f.Search = nil
		} else {
			f.Search = &s
		}
	}
}

func validateComponents(field string, components []Component) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for i, c := range components {
		key := fmt.Sprintf("%s[%d]", field, i)
		if validator.IsEmpty(c.Name) {
			errs.Add(key+".name", "name is required")
		}
		if !c.Kind.IsValid() {
			errs.Add(key+".kind", "kind must be fixed or percentage")
		}
		if c.Amount.IsNegative() {
			errs.Add(key+".amount", "amount must not be negative")
		}
		if c.Kind == ComponentPercentage && c.Amount.GreaterThan(hundred) {
			errs.Add(key+".amount", "percentage must not exceed 100")
		}
	}
	return errs
}

// ========== RESPONSE DTOs ==========

type StructureResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	UserFullName  string          `json:"user_full_name,omitempty"`
	UserEmail     string          `json:"user_email,omitempty"`
	DepartmentID  *string         `json:"department_id,omitempty"`
	BaseSalary    decimal.Decimal `json:"base_salary"`
	Allowances    []Component     `json:"allowances"`
	Deductions    []Component     `json:"deductions"`
	EffectiveFrom string          `json:"effective_from"`
	IsActive      bool            `json:"is_active"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ListStructureResponse struct {
	Structures []StructureResponse `json:"structures"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
}

func ToResponse(s Structure) StructureResponse {
	return StructureResponse{
		ID:            s.ID,
		UserID:        s.UserID,
		BaseSalary:    s.BaseSalary,
		Allowances:    nonNil(s.Allowances),
		Deductions:    nonNil(s.Deductions),
		EffectiveFrom: s.EffectiveFrom.Format(validator.DateLayout),
		IsActive:      s.IsActive,
		CreatedBy:     s.CreatedBy,
		CreatedAt:     s.CreatedAt,
	}
}

func ToResponseWithUser(s StructureWithUser) StructureResponse {
	resp := ToResponse(s.Structure)
	resp.UserFullName = s.UserFullName
	resp.UserEmail = s.UserEmail
	resp.DepartmentID = s.DepartmentID
	return resp
}

func nonNil(c []Component) []Component {
	if c == nil {
		return []Component{}
	}
	return c
}
