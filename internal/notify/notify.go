// Package notify hands attendance notifications to the external dispatcher.
// Delivery is best effort: failures are logged and never block a transition.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/repository"
	"github.com/google/uuid"
)

const dispatchTimeout = 5 * time.Second

// Dispatcher delivers one notification.
type Dispatcher interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// New builds a Notification with a fresh id.
func New(userID string, kind domain.NotificationKind, title, message string, at time.Time) domain.Notification {
	return domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		CreatedAt: at,
	}
}

// LogDispatcher writes notifications to a structured log.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d LogDispatcher) Notify(ctx context.Context, n domain.Notification) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		"user_id", n.UserID, "kind", string(n.Kind), "title", n.Title, "message", n.Message)
	return nil
}

// SQLiteOutbox persists notifications for pickup by the external collaborator.
type SQLiteOutbox struct {
	repo repository.NotificationRepo
}

func NewSQLiteOutbox(repo repository.NotificationRepo) *SQLiteOutbox {
	return &SQLiteOutbox{repo: repo}
}

func (o *SQLiteOutbox) Notify(ctx context.Context, n domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := o.repo.Create(ctx, &n); err != nil {
		return fmt.Errorf("queueing notification: %w", err)
	}
	return nil
}

// Multi delivers to every dispatcher and joins their errors.
type Multi []Dispatcher

func (m Multi) Notify(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, d := range m {
		if d == nil {
			continue
		}
		if err := d.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Async runs a Dispatcher on background goroutines.
type Async struct {
	next   Dispatcher
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewAsync(next Dispatcher, logger *slog.Logger) *Async {
	if logger == nil {
		logger = slog.Default()
	}
	return &Async{next: next, logger: logger}
}

// Dispatch starts delivery and returns immediately. The goroutine uses a fresh
// context with a timeout so caller cancellation does not abort delivery.
func (a *Async) Dispatch(n domain.Notification) {
	if a == nil || a.next == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := a.next.Notify(ctx, n); err != nil {
			a.logger.Warn("notify: dispatch failed",
				"user_id", n.UserID, "kind", string(n.Kind), "error", err)
		}
	}()
}

// Notify satisfies Dispatcher; it never reports an error.
func (a *Async) Notify(_ context.Context, n domain.Notification) error {
	a.Dispatch(n)
	return nil
}

// Wait blocks until pending deliveries finish.
func (a *Async) Wait() {
	if a == nil {
		return
	}
	a.wg.Wait()
}
