package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"staffdesk/api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type AttendanceRepository struct {
	pool *pgxpool.Pool
}

func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const attendanceColumns = `
	id, staff_id, login_time, logout_time, ip_address, user_agent,
	browser, os, device_type, session_duration, status,
	auto_delete_date, month_key, notes, created_at, updated_at`

func (r *AttendanceRepository) Insert(ctx context.Context, rec models.AttendanceRecord) error {
	const query = `
		INSERT INTO attendance_records (
			id, staff_id, login_time, logout_time, ip_address, user_agent,
			browser, os, device_type, session_duration, status,
			auto_delete_date, month_key, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.StaffID,
		rec.LoginTime,
		rec.LogoutTime,
		rec.IPAddress,
		rec.UserAgent,
		rec.Device.Browser,
		rec.Device.OS,
		rec.Device.DeviceType,
		rec.DurationMinutes,
		rec.Status,
		rec.AutoDeleteDate,
		rec.MonthKey,
		rec.Notes,
	)
	return err
}

func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (models.AttendanceRecord, error) {
	const query = `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// FindActiveByStaff returns the staff member's open session, if any.
func (r *AttendanceRepository) FindActiveByStaff(ctx context.Context, staffID string) (models.AttendanceRecord, error) {
	const query = `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE staff_id = $1 AND status = 'active' AND logout_time IS NULL
		ORDER BY login_time DESC
		LIMIT 1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, staffID))
}

// Close atomically transitions an active session to a terminal status. The
// WHERE clause makes concurrent closes race-safe: exactly one caller wins,
// every other caller gets models.ErrSessionClosed.
func (r *AttendanceRepository) Close(ctx context.Context, id string, at time.Time, status models.SessionStatus, reason string) (models.AttendanceRecord, error) {
	const query = `
		UPDATE attendance_records
		SET logout_time = $2,
		    status = $3,
		    notes = CASE WHEN $4 <> '' THEN $4 ELSE notes END,
		    session_duration = GREATEST(0, ROUND(EXTRACT(EPOCH FROM ($2::timestamptz - login_time)) / 60))::int,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'active' AND logout_time IS NULL
		RETURNING ` + attendanceColumns

	rec, err := r.scanOne(r.pool.QueryRow(ctx, query, id, at, status, reason))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return models.AttendanceRecord{}, err
	}

	// No active row matched: distinguish "already closed" from "gone".
	if _, getErr := r.GetByID(ctx, id); getErr == nil {
		return models.AttendanceRecord{}, models.ErrSessionClosed
	} else if errors.Is(getErr, ErrSessionNotFound) {
		return models.AttendanceRecord{}, ErrSessionNotFound
	} else {
		return models.AttendanceRecord{}, getErr
	}
}

// ListExpired returns records whose auto-delete date falls on or before the
// given instant. The sweep calls it with now; the deletion-schedule view
// calls it with a future instant.
func (r *AttendanceRepository) ListExpired(ctx context.Context, before time.Time) ([]models.AttendanceRecord, error) {
	const query = `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE auto_delete_date <= $1
		ORDER BY auto_delete_date
	`
	return r.scanMany(ctx, query, before)
}

// ListStale returns sessions still open past the cutoff.
func (r *AttendanceRepository) ListStale(ctx context.Context, cutoff time.Time) ([]models.AttendanceRecord, error) {
	const query = `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE status = 'active' AND logout_time IS NULL AND login_time < $1
		ORDER BY login_time
	`
	return r.scanMany(ctx, query, cutoff)
}

func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM attendance_records WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListByStaff pages through a staff member's history, optionally narrowed
// to one month key.
func (r *AttendanceRepository) ListByStaff(ctx context.Context, staffID, monthKey string, limit, offset int) ([]models.AttendanceRecord, error) {
	const query = `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE staff_id = $1 AND ($2 = '' OR month_key = $2)
		ORDER BY login_time DESC
		LIMIT $3 OFFSET $4
	`
	return r.scanMany(ctx, query, staffID, monthKey, limit, offset)
}

type MonthlySummary struct {
	MonthKey        string
	TotalSessions   int
	TotalMinutes    int
	AverageMinutes  float64
	FirstLogin      *time.Time
	LastLogout      *time.Time
	SystemLogouts   int
	CompletedCloses int
}

func (r *AttendanceRepository) MonthlySummary(ctx context.Context, staffID, monthKey string) (MonthlySummary, error) {
	const query = `
		SELECT
			COUNT(*),
			COALESCE(SUM(session_duration), 0),
			COALESCE(AVG(session_duration), 0),
			MIN(login_time),
			MAX(logout_time),
			COUNT(*) FILTER (WHERE status = 'system-logout'),
			COUNT(*) FILTER (WHERE status IN ('completed', 'forced-logout'))
		FROM attendance_records
		WHERE staff_id = $1 AND month_key = $2
	`
	summary := MonthlySummary{MonthKey: monthKey}
	err := r.pool.QueryRow(ctx, query, staffID, monthKey).Scan(
		&summary.TotalSessions,
		&summary.TotalMinutes,
		&summary.AverageMinutes,
		&summary.FirstLogin,
		&summary.LastLogout,
		&summary.SystemLogouts,
		&summary.CompletedCloses,
	)
	if err != nil {
		return MonthlySummary{}, err
	}
	return summary, nil
}

func (r *AttendanceRepository) scanOne(row pgx.Row) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	if err := row.Scan(
		&rec.ID,
		&rec.StaffID,
		&rec.LoginTime,
		&rec.LogoutTime,
		&rec.IPAddress,
		&rec.UserAgent,
		&rec.Device.Browser,
		&rec.Device.OS,
		&rec.Device.DeviceType,
		&rec.DurationMinutes,
		&rec.Status,
		&rec.AutoDeleteDate,
		&rec.MonthKey,
		&rec.Notes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AttendanceRecord{}, ErrSessionNotFound
		}
		return models.AttendanceRecord{}, err
	}
	return rec, nil
}

func (r *AttendanceRepository) scanMany(ctx context.Context, query string, args ...any) ([]models.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AttendanceRecord
	for rows.Next() {
		rec, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
