package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/salary"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const constraintOneActiveStructure = "salary_structures_one_active_idx"

type salaryStructureRepositoryImpl struct {
	db *database.DB
}

func NewSalaryStructureRepository(db *database.DB) salary.StructureRepository {
	return &salaryStructureRepositoryImpl{db: db}
}

const structureColumns = `s.id, s.organization_id, s.user_id, s.base_salary, s.allowances, s.deductions,
	s.effective_from, s.is_active, s.created_by, s.created_at`

// scanStructure reads structureColumns followed by any extra destinations.
func scanStructure(row pgx.Row, extra ...any) (salary.Structure, error) {
	var s salary.Structure
	var allowancesBytes, deductionsBytes []byte
	dest := append([]any{
		&s.ID, &s.OrganizationID, &s.UserID, &s.BaseSalary, &allowancesBytes, &deductionsBytes,
		&s.EffectiveFrom, &s.IsActive, &s.CreatedBy, &s.CreatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return salary.Structure{}, err
	}
	if err := json.Unmarshal(allowancesBytes, &s.Allowances); err != nil {
		return salary.Structure{}, fmt.Errorf("failed to decode allowances: %w", err)
	}
	if err := json.Unmarshal(deductionsBytes, &s.Deductions); err != nil {
		return salary.Structure{}, fmt.Errorf("failed to decode deductions: %w", err)
	}
	return s, nil
}

func (r *salaryStructureRepositoryImpl) GetActive(ctx context.Context, organizationID, userID string) (salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + structureColumns + ` FROM salary_structures s
		WHERE s.user_id = $1 AND s.organization_id = $2 AND s.is_active`

	s, err := scanStructure(q.QueryRow(ctx, query, userID, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return salary.Structure{}, salary.ErrStructureNotFound
		}
		return salary.Structure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}
	return s, nil
}

func (r *salaryStructureRepositoryImpl) DeactivateActive(ctx context.Context, organizationID, userID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_structures
		SET is_active = FALSE
		WHERE user_id = $1 AND organization_id = $2 AND is_active
	`
	if _, err := q.Exec(ctx, query, userID, organizationID); err != nil {
		return fmt.Errorf("failed to deactivate salary structure: %w", err)
	}
	return nil
}

func (r *salaryStructureRepositoryImpl) Create(ctx context.Context, s salary.Structure) (salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	allowances, err := json.Marshal(nonNilComponents(s.Allowances))
	if err != nil {
		return salary.Structure{}, fmt.Errorf("failed to encode allowances: %w", err)
	}
	deductions, err := json.Marshal(nonNilComponents(s.Deductions))
	if err != nil {
		return salary.Structure{}, fmt.Errorf("failed to encode deductions: %w", err)
	}

	query := `
		INSERT INTO salary_structures AS s (
			organization_id, user_id, base_salary, allowances, deductions, effective_from, is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + structureColumns

	created, err := scanStructure(q.QueryRow(ctx, query,
		s.OrganizationID, s.UserID, s.BaseSalary, allowances, deductions, s.EffectiveFrom, s.IsActive, s.CreatedBy,
	))
	if err != nil {
		if database.IsUniqueViolation(err, constraintOneActiveStructure) {
			return salary.Structure{}, salary.ErrActiveStructureConflict
		}
		return salary.Structure{}, fmt.Errorf("failed to create salary structure: %w", err)
	}
	return created, nil
}

func (r *salaryStructureRepositoryImpl) ListActive(ctx context.Context, organizationID string, filter salary.ListFilter) ([]salary.StructureWithUser, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := `
		FROM salary_structures s
		JOIN users u ON u.id = s.user_id AND u.organization_id = s.organization_id
		WHERE s.organization_id = $1 AND s.is_active`
	args := []interface{}{organizationID}
	argIdx := 2

	if filter.DepartmentID != nil {
		baseQuery += fmt.Sprintf(" AND u.department_id = $%d", argIdx)
		args = append(args, *filter.DepartmentID)
		argIdx++
	}
	if filter.Search != nil {
		baseQuery += fmt.Sprintf(" AND (u.full_name ILIKE $%d OR u.email ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count salary structures: %w", err)
	}

	selectQuery := fmt.Sprintf(`SELECT %s, u.full_name, u.email, u.department_id %s
		ORDER BY u.full_name LIMIT $%d OFFSET $%d`, structureColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list salary structures: %w", err)
	}
	defer rows.Close()

	var result []salary.StructureWithUser
	for rows.Next() {
		var item salary.StructureWithUser
		s, err := scanStructure(rows, &item.UserFullName, &item.UserEmail, &item.DepartmentID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan salary structure: %w", err)
		}
		item.Structure = s
		result = append(result, item)
	}
	return result, total, rows.Err()
}

func (r *salaryStructureRepositoryImpl) ListAllActive(ctx context.Context, organizationID string) ([]salary.Structure, error) {
	query := `SELECT ` + structureColumns + ` FROM salary_structures s
		WHERE s.organization_id = $1 AND s.is_active
		ORDER BY s.user_id`
	return r.listStructures(ctx, query, organizationID)
}

func (r *salaryStructureRepositoryImpl) History(ctx context.Context, organizationID, userID string) ([]salary.Structure, error) {
	query := `SELECT ` + structureColumns + ` FROM salary_structures s
		WHERE s.organization_id = $1 AND s.user_id = $2
		ORDER BY s.created_at DESC`
	return r.listStructures(ctx, query, organizationID, userID)
}

func (r *salaryStructureRepositoryImpl) listStructures(ctx context.Context, query string, args ...any) ([]salary.Structure, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures: %w", err)
	}
	defer rows.Close()

	var structures []salary.Structure
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary structure: %w", err)
		}
		structures = append(structures, s)
	}
	return structures, rows.Err()
}

func nonNilComponents(c []salary.Component) []salary.Component {
	if c == nil {
		return []salary.Component{}
	}
	return c
}
