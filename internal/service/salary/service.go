package salary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/calendar"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type SalaryServiceImpl struct {
	tx            database.Transactor
	structureRepo salary.StructureRepository
	userRepo      user.UserRepository
	clock         clock.Clock
}

func NewSalaryService(tx database.Transactor, structureRepo salary.StructureRepository, userRepo user.UserRepository, clk clock.Clock) salary.SalaryService {
	return &SalaryServiceImpl{
		tx:            tx,
		structureRepo: structureRepo,
		userRepo:      userRepo,
		clock:         clk,
	}
}

// CreateStructure activates a new compensation version for the user, retiring the current one.
func (s *SalaryServiceImpl) CreateStructure(ctx context.Context, actor user.Actor, req salary.CreateStructureRequest) (salary.StructureResponse, error) {
	if err := req.Validate(); err != nil {
		return salary.StructureResponse{}, err
	}
	if req.BaseSalary.IsNegative() {
		return salary.StructureResponse{}, salary.ErrNegativeBaseSalary
	}

	if err := s.ensureActiveUser(ctx, actor.OrganizationID, req.UserID); err != nil {
		return salary.StructureResponse{}, err
	}

	effectiveFrom := calendar.StartOfDay(s.clock.Now())
	if req.EffectiveFrom != "" {
		effectiveFrom, _ = validator.IsValidDate(req.EffectiveFrom)
	}

	next := salary.Structure{
		OrganizationID: actor.OrganizationID,
		UserID:         req.UserID,
		BaseSalary:     req.BaseSalary,
		Allowances:     req.Allowances,
		Deductions:     req.Deductions,
		EffectiveFrom:  effectiveFrom,
		IsActive:       true,
		CreatedBy:      actor.UserID,
	}

	created, err := s.activate(ctx, next)
	if err != nil {
		return salary.StructureResponse{}, err
	}

	slog.InfoContext(ctx, "salary structure created",
		"organization_id", actor.OrganizationID, "user_id", req.UserID, "structure_id", created.ID)
	return salary.ToResponse(created), nil
}

// UpdateStructure writes a new version carrying the current values for fields not supplied.
func (s *SalaryServiceImpl) UpdateStructure(ctx context.Context, actor user.Actor, userID string, req salary.UpdateStructureRequest) (salary.StructureResponse, error) {
	if !validator.IsValidUUID(userID) {
		return salary.StructureResponse{}, validator.ValidationErrors{{Field: "user_id", Message: "user_id must be a valid UUID"}}
	}
	if err := req.Validate(); err != nil {
		return salary.StructureResponse{}, err
	}
	if req.BaseSalary != nil && req.BaseSalary.IsNegative() {
		return salary.StructureResponse{}, salary.ErrNegativeBaseSalary
	}

	var created salary.Structure
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.structureRepo.GetActive(ctx, actor.OrganizationID, userID)
		if err != nil {
			return err
		}

		next := mergeStructure(current, req, calendar.StartOfDay(s.clock.Now()))
		next.CreatedBy = actor.UserID

		if err := s.structureRepo.DeactivateActive(ctx, actor.OrganizationID, userID); err != nil {
			return fmt.Errorf("deactivate salary structure: %w", err)
		}
		created, err = s.structureRepo.Create(ctx, next)
		return err
	})
	if err != nil {
		return salary.StructureResponse{}, err
	}

	slog.InfoContext(ctx, "salary structure updated",
		"organization_id", actor.OrganizationID, "user_id", userID, "structure_id", created.ID)
	return salary.ToResponse(created), nil
}

func (s *SalaryServiceImpl) GetActiveStructure(ctx context.Context, actor user.Actor, userID string) (salary.StructureResponse, error) {
	if !validator.IsValidUUID(userID) {
		return salary.StructureResponse{}, salary.ErrStructureNotFound
	}
	st, err := s.structureRepo.GetActive(ctx, actor.OrganizationID, userID)
	if err != nil {
		return salary.StructureResponse{}, err
	}
	return salary.ToResponse(st), nil
}

func (s *SalaryServiceImpl) ListActiveStructures(ctx context.Context, actor user.Actor, filter salary.ListFilter) (salary.ListStructureResponse, error) {
	filter.Normalize()

	rows, total, err := s.structureRepo.ListActive(ctx, actor.OrganizationID, filter)
	if err != nil {
		return salary.ListStructureResponse{}, fmt.Errorf("list salary structures: %w", err)
	}

	out := make([]salary.StructureResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, salary.ToResponseWithUser(r))
	}
	return salary.ListStructureResponse{
		Structures: out,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *SalaryServiceImpl) StructureHistory(ctx context.Context, actor user.Actor, userID string) ([]salary.StructureResponse, error) {
	if !validator.IsValidUUID(userID) {
		return nil, salary.ErrStructureNotFound
	}
	versions, err := s.structureRepo.History(ctx, actor.OrganizationID, userID)
	if err != nil {
		return nil, fmt.Errorf("salary history: %w", err)
	}
	if len(versions) == 0 {
		return nil, salary.ErrStructureNotFound
	}

	out := make([]salary.StructureResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, salary.ToResponse(v))
	}
	return out, nil
}

func (s *SalaryServiceImpl) ensureActiveUser(ctx context.Context, organizationID, userID string) error {
	u, err := s.userRepo.GetByID(ctx, organizationID, userID)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return user.ErrUserInactive
	}
	return nil
}

func (s *SalaryServiceImpl) activate(ctx context.Context, next salary.Structure) (salary.Structure, error) {
	var created salary.Structure
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.structureRepo.DeactivateActive(ctx, next.OrganizationID, next.UserID); err != nil {
			return fmt.Errorf("deactivate salary structure: %w", err)
		}
		var err error
		created, err = s.structureRepo.Create(ctx, next)
		return err
	})
	return created, err
}

func mergeStructure(current salary.Structure, req salary.UpdateStructureRequest, today time.Time) salary.Structure {
	next := salary.Structure{
		OrganizationID: current.OrganizationID,
		UserID:         current.UserID,
		BaseSalary:     current.BaseSalary,
		Allowances:     current.Allowances,
		Deductions:     current.Deductions,
		EffectiveFrom:  today,
		IsActive:       true,
	}
	if req.BaseSalary != nil {
		next.BaseSalary = *req.BaseSalary
	}
	if req.Allowances != nil {
		next.Allowances = *req.Allowances
	}
	if req.Deductions != nil {
		next.Deductions = *req.Deductions
	}
	if req.EffectiveFrom != nil {
		next.EffectiveFrom, _ = validator.IsValidDate(*req.EffectiveFrom)
	}
	return next
}
