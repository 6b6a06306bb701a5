package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
)

const patternColumns = `id, name, start_time, end_time, grace_period_minutes, overtime_threshold_minutes, created_at`

// SQLiteShiftRepo implements ShiftRepo using a SQLite database.
type SQLiteShiftRepo struct {
	db db.DBTX
}

func NewSQLiteShiftRepo(db db.DBTX) *SQLiteShiftRepo {
	return &SQLiteShiftRepo{db: db}
}

func (r *SQLiteShiftRepo) CreatePattern(ctx context.Context, p *domain.ShiftPattern) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shift_patterns (`+patternColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Start.String(), p.End.String(),
		p.GracePeriodMinutes, p.OvertimeThresholdMinutes, formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting shift pattern: %w", err)
	}
	return nil
}

func (r *SQLiteShiftRepo) GetPattern(ctx context.Context, id string) (*domain.ShiftPattern, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+patternColumns+` FROM shift_patterns WHERE id = ?`, id)
	return r.scanOne(row, id)
}

func (r *SQLiteShiftRepo) GetPatternByName(ctx context.Context, name string) (*domain.ShiftPattern, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+patternColumns+` FROM shift_patterns WHERE name = ?`, name)
	return r.scanOne(row, name)
}

func (r *SQLiteShiftRepo) ListPatterns(ctx context.Context) ([]*domain.ShiftPattern, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+patternColumns+` FROM shift_patterns ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing shift patterns: %w", err)
	}
	defer rows.Close()

	var out []*domain.ShiftPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning shift pattern row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shift patterns: %w", err)
	}
	return out, nil
}

// Assign binds a pattern to an employee's weekday, replacing any earlier binding.
func (r *SQLiteShiftRepo) Assign(ctx context.Context, a domain.ShiftAssignment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shift_assignments (employee_id, weekday, shift_pattern_id) VALUES (?, ?, ?)
		 ON CONFLICT(employee_id, weekday) DO UPDATE SET shift_pattern_id = excluded.shift_pattern_id`,
		a.EmployeeID, int(a.Weekday), a.ShiftPatternID,
	)
	if err != nil {
		return fmt.Errorf("assigning shift pattern: %w", err)
	}
	return nil
}

func (r *SQLiteShiftRepo) Unassign(ctx context.Context, employeeID string, weekday time.Weekday) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM shift_assignments WHERE employee_id = ? AND weekday = ?`, employeeID, int(weekday))
	if err != nil {
		return fmt.Errorf("removing shift assignment: %w", err)
	}
	return nil
}

func (r *SQLiteShiftRepo) ListAssignments(ctx context.Context, employeeID string) ([]domain.ShiftAssignment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT employee_id, weekday, shift_pattern_id FROM shift_assignments WHERE employee_id = ? ORDER BY weekday`,
		employeeID)
	if err != nil {
		return nil, fmt.Errorf("listing shift assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.ShiftAssignment
	for rows.Next() {
		var a domain.ShiftAssignment
		var wd int
		if err := rows.Scan(&a.EmployeeID, &wd, &a.ShiftPatternID); err != nil {
			return nil, fmt.Errorf("scanning shift assignment: %w", err)
		}
		a.Weekday = time.Weekday(wd)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shift assignments: %w", err)
	}
	return out, nil
}

// Lookup returns the pattern assigned for the weekday, or nil when none is assigned.
func (r *SQLiteShiftRepo) Lookup(ctx context.Context, employeeID string, weekday time.Weekday) (*domain.ShiftPattern, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.name, p.start_time, p.end_time, p.grace_period_minutes, p.overtime_threshold_minutes, p.created_at
		 FROM shift_assignments a
		 JOIN shift_patterns p ON p.id = a.shift_pattern_id
		 WHERE a.employee_id = ? AND a.weekday = ?`,
		employeeID, int(weekday))
	p, err := scanPattern(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("looking up shift pattern: %w", err)
	}
	return p, nil
}

func (r *SQLiteShiftRepo) scanOne(row *sql.Row, key string) (*domain.ShiftPattern, error) {
	p, err := scanPattern(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("shift pattern %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning shift pattern: %w", err)
	}
	return p, nil
}

func scanPattern(row scanner) (*domain.ShiftPattern, error) {
	var p domain.ShiftPattern
	var start, end, createdAt string
	if err := row.Scan(&p.ID, &p.Name, &start, &end, &p.GracePeriodMinutes, &p.OvertimeThresholdMinutes, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if p.Start, err = domain.ParseTimeOfDay(start); err != nil {
		return nil, err
	}
	if p.End, err = domain.ParseTimeOfDay(end); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return nil, err
	}
	return &p, nil
}
