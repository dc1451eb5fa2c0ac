package postgresql

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

const userColumns = `id, organization_id, full_name, email, role, department_id, supervisor_id, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.OrganizationID,
		&u.FullName,
		&u.Email,
		&u.Role,
		&u.DepartmentID,
		&u.SupervisorID,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *userRepositoryImpl) GetByID(ctx context.Context, organizationID, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND organization_id = $2`

	u, err := scanUser(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *userRepositoryImpl) GetByIDs(ctx context.Context, organizationID string, ids []string) (map[string]user.User, error) {
	users := make(map[string]user.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE organization_id = $1 AND id = ANY($2::uuid[])`

	rows, err := q.Query(ctx, query, organizationID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}

func (r *userRepositoryImpl) ListDirectReportIDs(ctx context.Context, organizationID, supervisorID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id
		FROM users
		WHERE organization_id = $1 AND supervisor_id = $2
		ORDER BY id
	`
	rows, err := q.Query(ctx, query, organizationID, supervisorID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
