package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const balanceColumns = `id, organization_id, user_id, year, sick_total, sick_used, casual_total, casual_used,
	vacation_total, vacation_used, unpaid_used, created_at, updated_at`

func scanBalance(row pgx.Row) (leave.Balance, error) {
	var b leave.Balance
	err := row.Scan(
		&b.ID,
		&b.OrganizationID,
		&b.UserID,
		&b.Year,
		&b.Sick.Total,
		&b.Sick.Used,
		&b.Casual.Total,
		&b.Casual.Used,
		&b.Vacation.Total,
		&b.Vacation.Used,
		&b.UnpaidUsed,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

// GetOrCreate tolerates concurrent creators: the loser of the insert race reads the winner's row.
func (r *leaveBalanceRepositoryImpl) GetOrCreate(ctx context.Context, organizationID, userID string, year int, alloc leave.Allocations) (leave.Balance, error) {
	q := GetQuerier(ctx, r.db)

	insert := `
		INSERT INTO leave_balances (organization_id, user_id, year, sick_total, casual_total, vacation_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (organization_id, user_id, year) DO NOTHING
	`
	if _, err := q.Exec(ctx, insert, organizationID, userID, year, alloc.Sick, alloc.Casual, alloc.Vacation); err != nil {
		return leave.Balance{}, fmt.Errorf("failed to create leave balance: %w", err)
	}

	query := `SELECT ` + balanceColumns + ` FROM leave_balances
		WHERE organization_id = $1 AND user_id = $2 AND year = $3`

	b, err := scanBalance(q.QueryRow(ctx, query, organizationID, userID, year))
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return b, nil
}

// AddUsed increments the used column in place so concurrent approvals never lose an update.
// Paid buckets are never charged past their total.
func (r *leaveBalanceRepositoryImpl) AddUsed(ctx context.Context, organizationID, userID string, year int, t leave.LeaveType, days decimal.Decimal) (leave.Balance, error) {
	var column, guard string
	switch t {
	case leave.LeaveTypeSick:
		column, guard = "sick_used", " AND sick_total - sick_used >= $4"
	case leave.LeaveTypeCasual:
		column, guard = "casual_used", " AND casual_total - casual_used >= $4"
	case leave.LeaveTypeVacation:
		column, guard = "vacation_used", " AND vacation_total - vacation_used >= $4"
	case leave.LeaveTypeUnpaid:
		column = "unpaid_used"
	default:
		return leave.Balance{}, leave.ErrInvalidLeaveType
	}

	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE leave_balances
		SET %[1]s = %[1]s + $4, updated_at = NOW()
		WHERE organization_id = $1 AND user_id = $2 AND year = $3%[3]s
		RETURNING %[2]s`, column, balanceColumns, guard)

	b, err := scanBalance(q.QueryRow(ctx, query, organizationID, userID, year, days))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return leave.Balance{}, fmt.Errorf("failed to update leave balance: %w", err)
	}

	var exists bool
	err = q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leave_balances WHERE organization_id = $1 AND user_id = $2 AND year = $3)`,
		organizationID, userID, year).Scan(&exists)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("failed to check leave balance: %w", err)
	}
	if exists {
		return leave.Balance{}, leave.ErrInsufficientBalance
	}
	return leave.Balance{}, leave.ErrBalanceNotFound
}
