package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRepository(db *database.DB) leave.LeaveRepository {
	return &leaveRepositoryImpl{db: db}
}

const leaveColumns = `id, organization_id, user_id, leave_type, start_date, end_date, total_days, reason,
	status, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

func scanLeave(row pgx.Row) (leave.Leave, error) {
	var l leave.Leave
	err := row.Scan(
		&l.ID,
		&l.OrganizationID,
		&l.UserID,
		&l.LeaveType,
		&l.StartDate,
		&l.EndDate,
		&l.TotalDays,
		&l.Reason,
		&l.Status,
		&l.ReviewedBy,
		&l.ReviewedAt,
		&l.ReviewNotes,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

func collectLeaves(rows pgx.Rows) ([]leave.Leave, error) {
	defer rows.Close()

	var leaves []leave.Leave
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave: %w", err)
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}

func (r *leaveRepositoryImpl) Create(ctx context.Context, l leave.Leave) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leaves (organization_id, user_id, leave_type, start_date, end_date, total_days, reason, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + leaveColumns

	created, err := scanLeave(q.QueryRow(ctx, query,
		l.OrganizationID, l.UserID, l.LeaveType, l.StartDate, l.EndDate, l.TotalDays, l.Reason, l.Status,
	))
	if err != nil {
		return leave.Leave{}, fmt.Errorf("failed to create leave: %w", err)
	}
	return created, nil
}

func (r *leaveRepositoryImpl) GetByID(ctx context.Context, organizationID, id string) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveColumns + ` FROM leaves WHERE id = $1 AND organization_id = $2`

	l, err := scanLeave(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Leave{}, leave.ErrLeaveNotFound
		}
		return leave.Leave{}, fmt.Errorf("failed to get leave: %w", err)
	}
	return l, nil
}

func (r *leaveRepositoryImpl) HasOverlap(ctx context.Context, organizationID, userID string, start, end time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leaves
			WHERE organization_id = $1
				AND user_id = $2
				AND status IN ('pending', 'approved')
				AND start_date <= $4
				AND end_date >= $3
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query, organizationID, userID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	return exists, nil
}

func (r *leaveRepositoryImpl) UpdateStatus(ctx context.Context, organizationID, id string, from, to leave.Status, review *leave.Review) (leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	var reviewerID *string
	var reviewedAt *time.Time
	var notes *string
	if review != nil {
		reviewerID = &review.ReviewerID
		reviewedAt = &review.ReviewedAt
		notes = review.Notes
	}

	query := `
		UPDATE leaves
		SET status = $4,
			reviewed_by = COALESCE($5, reviewed_by),
			reviewed_at = COALESCE($6, reviewed_at),
			review_notes = COALESCE($7, review_notes),
			updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND status = $3
		RETURNING ` + leaveColumns

	updated, err := scanLeave(q.QueryRow(ctx, query, id, organizationID, from, to, reviewerID, reviewedAt, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Leave{}, leave.ErrLeaveNotPending
		}
		return leave.Leave{}, fmt.Errorf("failed to update leave status: %w", err)
	}
	return updated, nil
}

func (r *leaveRepositoryImpl) List(ctx context.Context, organizationID string, filter leave.ListFilter) ([]leave.Leave, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := ` FROM leaves WHERE organization_id = $1`
	args := []interface{}{organizationID}
	argIdx := 2

	if filter.UserID != nil {
		baseQuery += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, *filter.UserID)
		argIdx++
	}
	if filter.UserIDs != nil {
		baseQuery += fmt.Sprintf(" AND user_id = ANY($%d::uuid[])", argIdx)
		args = append(args, filter.UserIDs)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.LeaveType != nil {
		baseQuery += fmt.Sprintf(" AND leave_type = $%d", argIdx)
		args = append(args, *filter.LeaveType)
		argIdx++
	}
	if filter.From != nil {
		baseQuery += fmt.Sprintf(" AND end_date >= $%d", argIdx)
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		baseQuery += fmt.Sprintf(" AND start_date <= $%d", argIdx)
		args = append(args, *filter.To)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leaves: %w", err)
	}

	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY start_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		leaveColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leaves: %w", err)
	}
	leaves, err := collectLeaves(rows)
	if err != nil {
		return nil, 0, err
	}
	return leaves, total, nil
}

func (r *leaveRepositoryImpl) ListApprovedInRange(ctx context.Context, organizationID string, userIDs []string, from, to time.Time) ([]leave.Leave, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveColumns + ` FROM leaves
		WHERE organization_id = $1
			AND status = 'approved'
			AND start_date <= $3
			AND end_date >= $2
			AND ($4::uuid[] IS NULL OR user_id = ANY($4::uuid[]))
		ORDER BY start_date, user_id`

	rows, err := q.Query(ctx, query, organizationID, from, to, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leaves: %w", err)
	}
	return collectLeaves(rows)
}
