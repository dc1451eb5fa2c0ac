package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const (
	constraintRunPeriod  = "payroll_runs_org_period_key"
	constraintRecordUser = "payroll_records_run_user_key"
)

type payrollRepositoryImpl struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepositoryImpl{db: db}
}

// ========== RUNS ==========

const runColumns = `id, organization_id, month, year, status, processed_by, processed_at,
	total_gross_salary, total_deductions, total_net_salary, employee_count, created_at, updated_at`

func scanRun(row pgx.Row) (payroll.Run, error) {
	var run payroll.Run
	err := row.Scan(
		&run.ID, &run.OrganizationID, &run.Month, &run.Year, &run.Status, &run.ProcessedBy, &run.ProcessedAt,
		&run.TotalGrossSalary, &run.TotalDeductions, &run.TotalNetSalary, &run.EmployeeCount, &run.CreatedAt, &run.UpdatedAt,
	)
	return run, err
}

func (r *payrollRepositoryImpl) CreateRun(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_runs (organization_id, month, year, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + runColumns

	created, err := scanRun(q.QueryRow(ctx, query, run.OrganizationID, run.Month, run.Year, run.Status))
	if err != nil {
		if database.IsUniqueViolation(err, constraintRunPeriod) {
			return payroll.Run{}, payroll.ErrRunAlreadyExists
		}
		return payroll.Run{}, fmt.Errorf("failed to create payroll run: %w", err)
	}
	return created, nil
}

func (r *payrollRepositoryImpl) GetRun(ctx context.Context, organizationID, id string) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE id = $1 AND organization_id = $2`

	run, err := scanRun(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, payroll.ErrRunNotFound
		}
		return payroll.Run{}, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return run, nil
}

func (r *payrollRepositoryImpl) ListRuns(ctx context.Context, organizationID string, filter payroll.RunFilter) ([]payroll.Run, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseQuery := ` FROM payroll_runs WHERE organization_id = $1`
	args := []interface{}{organizationID}
	argIdx := 2

	if filter.Year != nil {
		baseQuery += fmt.Sprintf(" AND year = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll runs: %w", err)
	}

	selectQuery := fmt.Sprintf(`SELECT %s %s ORDER BY year DESC, month DESC LIMIT $%d OFFSET $%d`,
		runColumns, baseQuery, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	var runs []payroll.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

func (r *payrollRepositoryImpl) TransitionRun(ctx context.Context, organizationID, id string, from, to payroll.RunStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs
		SET status = $4, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND status = $3
	`
	tag, err := q.Exec(ctx, query, id, organizationID, from, to)
	if err != nil {
		return fmt.Errorf("failed to transition payroll run: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return payroll.ErrRunStatusChanged
	}
	return nil
}

func (r *payrollRepositoryImpl) CompleteRun(ctx context.Context, organizationID, id string, totals payroll.Totals, processedBy string, processedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs
		SET status = 'completed',
			total_gross_salary = $3,
			total_deductions = $4,
			total_net_salary = $5,
			employee_count = $6,
			processed_by = $7,
			processed_at = $8,
			updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND status = 'processing'
	`
	tag, err := q.Exec(ctx, query, id, organizationID,
		totals.Gross, totals.Deductions, totals.Net, totals.EmployeeCount, processedBy, processedAt)
	if err != nil {
		return fmt.Errorf("failed to complete payroll run: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return payroll.ErrRunStatusChanged
	}
	return nil
}

// ========== RECORDS ==========

const recordColumns = `id, organization_id, payroll_run_id, user_id, month, year, working_days,
	days_worked, leave_days, absent_days, base_salary, allowances, deductions,
	gross_salary, total_deductions, net_salary, status, paid_at, created_at`

func scanRecord(row pgx.Row) (payroll.Record, error) {
	var rec payroll.Record
	var allowancesBytes, deductionsBytes []byte
	err := row.Scan(
		&rec.ID, &rec.OrganizationID, &rec.PayrollRunID, &rec.UserID, &rec.Month, &rec.Year, &rec.WorkingDays,
		&rec.DaysWorked, &rec.LeaveDays, &rec.AbsentDays, &rec.BaseSalary, &allowancesBytes, &deductionsBytes,
		&rec.GrossSalary, &rec.TotalDeductions, &rec.NetSalary, &rec.Status, &rec.PaidAt, &rec.CreatedAt,
	)
	if err != nil {
		return payroll.Record{}, err
	}
	if err := json.Unmarshal(allowancesBytes, &rec.Allowances); err != nil {
		return payroll.Record{}, fmt.Errorf("failed to decode allowances: %w", err)
	}
	if err := json.Unmarshal(deductionsBytes, &rec.Deductions); err != nil {
		return payroll.Record{}, fmt.Errorf("failed to decode deductions: %w", err)
	}
	return rec, nil
}

func (r *payrollRepositoryImpl) DeleteRecordsByRun(ctx context.Context, organizationID, runID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM payroll_records WHERE payroll_run_id = $1 AND organization_id = $2`, runID, organizationID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payroll records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CreateRecords inserts every record in a single batch round trip.
func (r *payrollRepositoryImpl) CreateRecords(ctx context.Context, records []payroll.Record) error {
	if len(records) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_records (
			organization_id, payroll_run_id, user_id, month, year, working_days,
			days_worked, leave_days, absent_days, base_salary, allowances, deductions,
			gross_salary, total_deductions, net_salary, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		allowances, err := json.Marshal(rec.Allowances)
		if err != nil {
			return fmt.Errorf("failed to encode allowances: %w", err)
		}
		deductions, err := json.Marshal(rec.Deductions)
		if err != nil {
			return fmt.Errorf("failed to encode deductions: %w", err)
		}
		batch.Queue(query,
			rec.OrganizationID, rec.PayrollRunID, rec.UserID, rec.Month, rec.Year, rec.WorkingDays,
			rec.DaysWorked, rec.LeaveDays, rec.AbsentDays, rec.BaseSalary, allowances, deductions,
			rec.GrossSalary, rec.TotalDeductions, rec.NetSalary, rec.Status,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			if database.IsUniqueViolation(err, constraintRecordUser) {
				return payroll.ErrRecordAlreadyExists
			}
			return fmt.Errorf("failed to insert payroll record: %w", err)
		}
	}
	return results.Close()
}

func (r *payrollRepositoryImpl) ListRecordsByRun(ctx context.Context, organizationID, runID string) ([]payroll.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM payroll_records
		WHERE payroll_run_id = $1 AND organization_id = $2
		ORDER BY created_at, user_id`
	return r.listRecords(ctx, query, runID, organizationID)
}

func (r *payrollRepositoryImpl) ListRecordsByUser(ctx context.Context, organizationID, userID string, year *int) ([]payroll.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM payroll_records
		WHERE user_id = $1 AND organization_id = $2 AND ($3::int IS NULL OR year = $3)
		ORDER BY year DESC, month DESC`
	return r.listRecords(ctx, query, userID, organizationID, year)
}

func (r *payrollRepositoryImpl) listRecords(ctx context.Context, query string, args ...any) ([]payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var records []payroll.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *payrollRepositoryImpl) GetRecord(ctx context.Context, organizationID, id string) (payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + ` FROM payroll_records WHERE id = $1 AND organization_id = $2`

	rec, err := scanRecord(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Record{}, payroll.ErrRecordNotFound
		}
		return payroll.Record{}, fmt.Errorf("failed to get payroll record: %w", err)
	}
	return rec, nil
}

// UpdateRecordStatus only touches status and paid_at.
func (r *payrollRepositoryImpl) UpdateRecordStatus(ctx context.Context, organizationID, id string, from, to payroll.RecordStatus, paidAt *time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_records
		SET status = $4, paid_at = COALESCE($5, paid_at)
		WHERE id = $1 AND organization_id = $2 AND status = $3
	`
	tag, err := q.Exec(ctx, query, id, organizationID, from, to, paidAt)
	if err != nil {
		return fmt.Errorf("failed to update payroll record status: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return payroll.ErrInvalidRecordTransition
	}
	return nil
}
