package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
)

// SQLiteNotificationRepo is the notification outbox read by the external dispatcher.
type SQLiteNotificationRepo struct {
	db db.DBTX
}

func NewSQLiteNotificationRepo(db db.DBTX) *SQLiteNotificationRepo {
	return &SQLiteNotificationRepo{db: db}
}

func (r *SQLiteNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, title, message, kind, created_at, delivered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Message, string(n.Kind), formatTime(n.CreatedAt), nullableTimeToString(n.DeliveredAt),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// ListPending returns undelivered notifications oldest first.
func (r *SQLiteNotificationRepo) ListPending(ctx context.Context, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, kind, created_at, delivered_at FROM notifications
		 WHERE delivered_at IS NULL ORDER BY created_at, rowid LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing pending notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var kind, createdAt string
		var delivered sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &kind, &createdAt, &delivered); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Kind = domain.NotificationKind(kind)
		if n.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if n.DeliveredAt, err = parseNullableTime(delivered, "delivered_at"); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return out, nil
}

func (r *SQLiteNotificationRepo) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET delivered_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("marking notification delivered: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}
	return nil
}
