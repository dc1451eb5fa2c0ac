package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `id, organization_id, user_id, date, check_in, check_out, status,
	working_hours, is_approved, leave_id, photo_url, check_in_latitude, check_in_longitude,
	created_at, updated_at`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.OrganizationID, &att.UserID, &att.Date, &att.CheckIn, &att.CheckOut, &att.Status,
		&att.WorkingHours, &att.IsApproved, &att.LeaveID, &att.PhotoURL,
		&att.CheckInLatitude, &att.CheckInLongitude, &att.CreatedAt, &att.UpdatedAt,
	)
	return att, err
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			organization_id, user_id, date, check_in, check_out, status,
			working_hours, is_approved, leave_id, photo_url, check_in_latitude, check_in_longitude
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		newAttendance.OrganizationID,
		newAttendance.UserID,
		newAttendance.Date,
		newAttendance.CheckIn,
		newAttendance.CheckOut,
		newAttendance.Status,
		newAttendance.WorkingHours,
		newAttendance.IsApproved,
		newAttendance.LeaveID,
		newAttendance.PhotoURL,
		newAttendance.CheckInLatitude,
		newAttendance.CheckInLongitude,
	))
	if err != nil {
		if database.IsUniqueViolation(err, "attendances_org_user_date_key") {
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return created, nil
}

// GetByUserAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndDate(ctx context.Context, organizationID, userID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances
		WHERE organization_id = $1 AND user_id = $2 AND date = $3`

	att, err := scanAttendance(q.QueryRow(ctx, query, organizationID, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &att, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET check_in = $3,
			check_out = $4,
			status = $5,
			working_hours = $6,
			is_approved = $7,
			leave_id = $8,
			photo_url = $9,
			check_in_latitude = $10,
			check_in_longitude = $11,
			updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND status <> 'on_leave'
	`
	tag, err := q.Exec(ctx, query,
		att.ID, att.OrganizationID, att.CheckIn, att.CheckOut, att.Status,
		att.WorkingHours, att.IsApproved, att.LeaveID, att.PhotoURL,
		att.CheckInLatitude, att.CheckInLongitude,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendances WHERE id = $1 AND organization_id = $2)`,
		att.ID, att.OrganizationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check attendance: %w", err)
	}
	if exists {
		return attendance.ErrDayOnLeave
	}
	return attendance.ErrAttendanceNotFound
}

// UpsertLeaveDays implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpsertLeaveDays(ctx context.Context, days []attendance.LeaveDay) error {
	if len(days) == 0 {
		return nil
	}
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (organization_id, user_id, date, status, is_approved, leave_id)
		VALUES ($1, $2, $3, 'on_leave', TRUE, $4)
		ON CONFLICT (organization_id, user_id, date) DO UPDATE
		SET status = 'on_leave',
			is_approved = TRUE,
			leave_id = EXCLUDED.leave_id,
			updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for _, d := range days {
		batch.Queue(query, d.OrganizationID, d.UserID, d.Date, d.LeaveID)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range days {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to mark leave day: %w", err)
		}
	}
	return results.Close()
}

// CountWorkedDays implements attendance.AttendanceRepository.
func (a *attendanceRepository) CountWorkedDays(ctx context.Context, organizationID, userID string, from, to time.Time) (int, error) {
	q := GetQuerier(ctx, a.db)

	statuses := make([]string, len(attendance.WorkedStatuses))
	for i, s := range attendance.WorkedStatuses {
		statuses[i] = string(s)
	}

	query := `
		SELECT COUNT(*)
		FROM attendances
		WHERE organization_id = $1
			AND user_id = $2
			AND date BETWEEN $3 AND $4
			AND status = ANY($5)
	`
	var count int
	if err := q.QueryRow(ctx, query, organizationID, userID, from, to, statuses).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count worked days: %w", err)
	}
	return count, nil
}

// ListByUser implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByUser(ctx context.Context, organizationID, userID string, from, to time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances
		WHERE organization_id = $1 AND user_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date`

	rows, err := q.Query(ctx, query, organizationID, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	return records, rows.Err()
}
