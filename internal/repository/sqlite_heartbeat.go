package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
)

// SQLiteHeartbeatRepo implements HeartbeatRepo using a SQLite database.
type SQLiteHeartbeatRepo struct {
	db db.DBTX
}

func NewSQLiteHeartbeatRepo(db db.DBTX) *SQLiteHeartbeatRepo {
	return &SQLiteHeartbeatRepo{db: db}
}

// Touch records that the device was seen at hb.LastSeenAt. Older timestamps never
// move last_seen_at backwards.
func (r *SQLiteHeartbeatRepo) Touch(ctx context.Context, hb domain.DeviceHeartbeat) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO device_heartbeats (employee_id, device_identifier, location, last_seen_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(employee_id, device_identifier) DO UPDATE SET
		   location = excluded.location,
		   last_seen_at = MAX(last_seen_at, excluded.last_seen_at)`,
		hb.EmployeeID, hb.DeviceIdentifier, hb.Location, formatTime(hb.LastSeenAt),
	)
	if err != nil {
		return fmt.Errorf("touching device heartbeat: %w", err)
	}
	return nil
}

func (r *SQLiteHeartbeatRepo) Get(ctx context.Context, employeeID, deviceIdentifier string) (*domain.DeviceHeartbeat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT employee_id, device_identifier, location, last_seen_at FROM device_heartbeats
		 WHERE employee_id = ? AND device_identifier = ?`, employeeID, deviceIdentifier)
	hb, err := scanHeartbeat(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("heartbeat %s/%s: %w", employeeID, deviceIdentifier, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning heartbeat: %w", err)
	}
	return &hb, nil
}

func (r *SQLiteHeartbeatRepo) ListByEmployee(ctx context.Context, employeeID string) ([]domain.DeviceHeartbeat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT employee_id, device_identifier, location, last_seen_at FROM device_heartbeats
		 WHERE employee_id = ? ORDER BY last_seen_at DESC`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("listing heartbeats: %w", err)
	}
	defer rows.Close()

	var out []domain.DeviceHeartbeat
	for rows.Next() {
		hb, err := scanHeartbeat(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning heartbeat row: %w", err)
		}
		out = append(out, hb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating heartbeats: %w", err)
	}
	return out, nil
}

func (r *SQLiteHeartbeatRepo) Delete(ctx context.Context, employeeID, deviceIdentifier string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM device_heartbeats WHERE employee_id = ? AND device_identifier = ?`, employeeID, deviceIdentifier)
	if err != nil {
		return fmt.Errorf("deleting heartbeat: %w", err)
	}
	return nil
}

func scanHeartbeat(row scanner) (domain.DeviceHeartbeat, error) {
	var hb domain.DeviceHeartbeat
	var seen string
	if err := row.Scan(&hb.EmployeeID, &hb.DeviceIdentifier, &hb.Location, &seen); err != nil {
		return hb, err
	}
	t, err := parseTime(seen, "last_seen_at")
	if err != nil {
		return hb, err
	}
	hb.LastSeenAt = t
	return hb, nil
}
