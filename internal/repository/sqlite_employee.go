package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
)

// SQLiteEmployeeRepo implements EmployeeRepo using a SQLite database.
type SQLiteEmployeeRepo struct {
	db db.DBTX
}

func NewSQLiteEmployeeRepo(db db.DBTX) *SQLiteEmployeeRepo {
	return &SQLiteEmployeeRepo{db: db}
}

func (r *SQLiteEmployeeRepo) Create(ctx context.Context, e *domain.Employee) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO employees (id, name, active, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.Name, boolToInt(e.Active), formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting employee: %w", err)
	}
	return nil
}

func (r *SQLiteEmployeeRepo) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, active, created_at FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("employee %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning employee: %w", err)
	}
	return e, nil
}

func (r *SQLiteEmployeeRepo) List(ctx context.Context, includeInactive bool) ([]*domain.Employee, error) {
	query := `SELECT id, name, active, created_at FROM employees`
	if !includeInactive {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing employees: %w", err)
	}
	defer rows.Close()

	var out []*domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning employee row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating employees: %w", err)
	}
	return out, nil
}

func (r *SQLiteEmployeeRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE employees SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("updating employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("employee %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanEmployee(row scanner) (*domain.Employee, error) {
	var e domain.Employee
	var active int
	var createdAt string
	if err := row.Scan(&e.ID, &e.Name, &active, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt, "created_at")
	if err != nil {
		return nil, err
	}
	e.Active = intToBool(active)
	e.CreatedAt = t
	return &e, nil
}
