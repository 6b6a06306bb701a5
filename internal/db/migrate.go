package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS employees (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		active     INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS shift_patterns (
		id                         TEXT PRIMARY KEY,
		name                       TEXT NOT NULL UNIQUE,
		start_time                 TEXT NOT NULL,
		end_time                   TEXT NOT NULL,
		grace_period_minutes       INTEGER NOT NULL DEFAULT 0,
		overtime_threshold_minutes INTEGER NOT NULL DEFAULT 0,
		created_at                 TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS shift_assignments (
		employee_id      TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		weekday          INTEGER NOT NULL CHECK(weekday BETWEEN 0 AND 6),
		shift_pattern_id TEXT NOT NULL REFERENCES shift_patterns(id) ON DELETE CASCADE,
		PRIMARY KEY (employee_id, weekday)
	)`,

	`CREATE TABLE IF NOT EXISTS attendance_sessions (
		id                      TEXT PRIMARY KEY,
		employee_id             TEXT NOT NULL REFERENCES employees(id),
		date                    TEXT NOT NULL,
		check_in                TEXT NOT NULL,
		check_out               TEXT,
		break_start             TEXT,
		break_minutes           INTEGER NOT NULL DEFAULT 0,
		working_minutes         INTEGER NOT NULL DEFAULT 0,
		regular_minutes         INTEGER NOT NULL DEFAULT 0,
		overtime_minutes        INTEGER NOT NULL DEFAULT 0,
		early_departure_minutes INTEGER NOT NULL DEFAULT 0,
		is_early_departure      INTEGER NOT NULL DEFAULT 0,
		late_minutes            INTEGER NOT NULL DEFAULT 0,
		is_late                 INTEGER NOT NULL DEFAULT 0,
		active_session          INTEGER NOT NULL DEFAULT 1,
		current_status          TEXT NOT NULL DEFAULT 'clocked-in'
		                        CHECK(current_status IN ('clocked-in','on-break','clocked-out')),
		device_identifier       TEXT NOT NULL DEFAULT '',
		location                TEXT NOT NULL DEFAULT '',
		shift_pattern_id        TEXT REFERENCES shift_patterns(id) ON DELETE SET NULL,
		closed_by               TEXT NOT NULL DEFAULT '',
		close_reason            TEXT NOT NULL DEFAULT '',
		created_at              TEXT NOT NULL,
		updated_at              TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS device_heartbeats (
		employee_id       TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		device_identifier TEXT NOT NULL,
		location          TEXT NOT NULL DEFAULT '',
		last_seen_at      TEXT NOT NULL,
		PRIMARY KEY (employee_id, device_identifier)
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		title        TEXT NOT NULL,
		message      TEXT NOT NULL,
		kind         TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		delivered_at TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_attendance_employee_active ON attendance_sessions(employee_id, active_session)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_employee_date ON attendance_sessions(employee_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_active ON attendance_sessions(active_session)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_pending ON notifications(delivered_at)`,
}
