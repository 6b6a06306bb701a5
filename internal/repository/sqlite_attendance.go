package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
)

const attendanceColumns = `id, employee_id, date, check_in, check_out, break_start,
	break_minutes, working_minutes, regular_minutes, overtime_minutes,
	early_departure_minutes, is_early_departure, late_minutes, is_late,
	active_session, current_status, device_identifier, location, shift_pattern_id,
	closed_by, close_reason, created_at, updated_at`

// newestFirst orders competing rows for "most recent wins" resolution.
const newestFirst = `ORDER BY check_in DESC, rowid DESC`

// SQLiteAttendanceRepo implements AttendanceRepo using a SQLite database.
type SQLiteAttendanceRepo struct {
	db db.DBTX
}

// NewSQLiteAttendanceRepo creates a new SQLiteAttendanceRepo.
func NewSQLiteAttendanceRepo(db db.DBTX) *SQLiteAttendanceRepo {
	return &SQLiteAttendanceRepo{db: db}
}

func (r *SQLiteAttendanceRepo) Create(ctx context.Context, s *domain.AttendanceSession) error {
	query := `INSERT INTO attendance_sessions (` + attendanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.EmployeeID,
		s.Date,
		formatTime(s.CheckIn),
		nullableTimeToString(s.CheckOut),
		nullableTimeToString(s.BreakStart),
		s.BreakMinutes,
		s.WorkingMinutes,
		s.RegularMinutes,
		s.OvertimeMinutes,
		s.EarlyDepartureMinutes,
		boolToInt(s.IsEarlyDeparture),
		s.LateMinutes,
		boolToInt(s.IsLate),
		boolToInt(s.ActiveSession),
		string(s.Status),
		s.DeviceIdentifier,
		s.Location,
		nullableString(s.ShiftPatternID),
		string(s.ClosedBy),
		string(s.CloseReason),
		formatTime(s.CreatedAt),
		formatTime(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting attendance session: %w", err)
	}
	return nil
}

func (r *SQLiteAttendanceRepo) GetByID(ctx context.Context, id string) (*domain.AttendanceSession, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_sessions WHERE id = ?`
	s, err := scanAttendance(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("attendance session %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning attendance session: %w", err)
	}
	return s, nil
}

// Update overwrites every mutable column. Writers use last-write-wins.
func (r *SQLiteAttendanceRepo) Update(ctx context.Context, s *domain.AttendanceSession) error {
	query := `UPDATE attendance_sessions SET
		check_out = ?, break_start = ?, break_minutes = ?, working_minutes = ?,
		regular_minutes = ?, overtime_minutes = ?, early_departure_minutes = ?,
		is_early_departure = ?, late_minutes = ?, is_late = ?, active_session = ?,
		current_status = ?, device_identifier = ?, location = ?, shift_pattern_id = ?,
		closed_by = ?, close_reason = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableTimeToString(s.CheckOut),
		nullableTimeToString(s.BreakStart),
		s.BreakMinutes,
		s.WorkingMinutes,
		s.RegularMinutes,
		s.OvertimeMinutes,
		s.EarlyDepartureMinutes,
		boolToInt(s.IsEarlyDeparture),
		s.LateMinutes,
		boolToInt(s.IsLate),
		boolToInt(s.ActiveSession),
		string(s.Status),
		s.DeviceIdentifier,
		s.Location,
		nullableString(s.ShiftPatternID),
		string(s.ClosedBy),
		string(s.CloseReason),
		formatTime(s.UpdatedAt),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating attendance session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("attendance session %s: %w", s.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteAttendanceRepo) ListActiveByEmployee(ctx context.Context, employeeID string) ([]*domain.AttendanceSession, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_sessions
		WHERE employee_id = ? AND active_session = 1 ` + newestFirst
	rows, err := r.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("listing active sessions by employee: %w", err)
	}
	defer rows.Close()
	return scanAttendanceRows(rows)
}

func (r *SQLiteAttendanceRepo) ListActive(ctx context.Context) ([]*domain.AttendanceSession, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_sessions
		WHERE active_session = 1 ORDER BY employee_id, check_in DESC, rowid DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing active sessions: %w", err)
	}
	defer rows.Close()
	return scanAttendanceRows(rows)
}

// ListByEmployee returns sessions whose date falls within [fromDate, toDate], newest first.
// Empty bounds are open.
func (r *SQLiteAttendanceRepo) ListByEmployee(ctx context.Context, employeeID, fromDate, toDate string) ([]*domain.AttendanceSession, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance_sessions
		WHERE employee_id = ?
		  AND (? = '' OR date >= ?)
		  AND (? = '' OR date <= ?) ` + newestFirst
	rows, err := r.db.QueryContext(ctx, query, employeeID, fromDate, fromDate, toDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("listing sessions by employee: %w", err)
	}
	defer rows.Close()
	return scanAttendanceRows(rows)
}

func scanAttendanceRows(rows *sql.Rows) ([]*domain.AttendanceSession, error) {
	var sessions []*domain.AttendanceSession
	for rows.Next() {
		s, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning attendance row: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attendance sessions: %w", err)
	}
	return sessions, nil
}

func scanAttendance(row scanner) (*domain.AttendanceSession, error) {
	var s domain.AttendanceSession
	var checkInStr, createdAtStr, updatedAtStr, status, closedBy, closeReason string
	var checkOut, breakStart, patternID sql.NullString
	var isEarly, isLate, active int

	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.Date, &checkInStr, &checkOut, &breakStart,
		&s.BreakMinutes, &s.WorkingMinutes, &s.RegularMinutes, &s.OvertimeMinutes,
		&s.EarlyDepartureMinutes, &isEarly, &s.LateMinutes, &isLate,
		&active, &status, &s.DeviceIdentifier, &s.Location, &patternID,
		&closedBy, &closeReason, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	if s.CheckIn, err = parseTime(checkInStr, "check_in"); err != nil {
		return nil, err
	}
	if s.CheckOut, err = parseNullableTime(checkOut, "check_out"); err != nil {
		return nil, err
	}
	if s.BreakStart, err = parseNullableTime(breakStart, "break_start"); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(createdAtStr, "created_at"); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAtStr, "updated_at"); err != nil {
		return nil, err
	}
	if patternID.Valid && patternID.String != "" {
		id := patternID.String
		s.ShiftPatternID = &id
	}

	s.IsEarlyDeparture = intToBool(isEarly)
	s.IsLate = intToBool(isLate)
	s.ActiveSession = intToBool(active)
	s.Status = domain.SessionStatus(status)
	s.ClosedBy = domain.CloseSource(closedBy)
	s.CloseReason = domain.CloseReason(closeReason)
	return &s, nil
}
