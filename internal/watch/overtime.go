package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/notify"
	"github.com/alexanderramin/timeclock/internal/service"
)

// SessionReader is the part of the attendance service the overtime watch needs.
type SessionReader interface {
	Current(ctx context.Context, employeeID string) (*domain.AttendanceSession, error)
	Live(ctx context.Context, sessionID string) (*service.LiveReading, error)
}

type latch struct {
	sessionID string
	status    domain.SessionStatus
}

// OvertimeWatch raises one warning per clocked-in stretch once the shift's
// overtime threshold has passed. The latch resets when the session's status
// changes or a different session becomes active.
type OvertimeWatch struct {
	reader   SessionReader
	notifier notify.Dispatcher
	logger   *slog.Logger

	// OnCross runs after a warning is raised.
	OnCross func(service.LiveReading)

	mu      sync.Mutex
	latches map[string]latch
}

func NewOvertimeWatch(reader SessionReader, notifier notify.Dispatcher, logger *slog.Logger) *OvertimeWatch {
	if logger == nil {
		logger = slog.Default()
	}
	return &OvertimeWatch{
		reader:   reader,
		notifier: notifier,
		logger:   logger,
		latches:  make(map[string]latch),
	}
}

// Check evaluates one employee and reports whether a warning was raised.
func (w *OvertimeWatch) Check(ctx context.Context, employeeID string) (bool, error) {
	sess, err := w.reader.Current(ctx, employeeID)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	l, latched := w.latches[employeeID]
	if latched && (sess == nil || l.sessionID != sess.ID || l.status != sess.Status) {
		delete(w.latches, employeeID)
		latched = false
	}
	w.mu.Unlock()

	if sess == nil || sess.Status != domain.StatusClockedIn || latched {
		return false, nil
	}

	reading, err := w.reader.Live(ctx, sess.ID)
	if err != nil {
		return false, err
	}
	if !reading.OvertimeCrossed {
		return false, nil
	}

	w.mu.Lock()
	if l, ok := w.latches[employeeID]; ok && l.sessionID == sess.ID {
		w.mu.Unlock()
		return false, nil
	}
	w.latches[employeeID] = latch{sessionID: sess.ID, status: sess.Status}
	w.mu.Unlock()

	if w.notifier != nil {
		n := notify.New(employeeID, domain.NotifyOvertime, "Overtime",
			fmt.Sprintf("Scheduled shift end has passed; %d minutes of overtime so far.", reading.Breakdown.OvertimeMinutes),
			reading.At)
		if err := w.notifier.Notify(ctx, n); err != nil {
			w.logger.Warn("watch: overtime notification failed", "employee_id", employeeID, "error", err)
		}
	}
	if w.OnCross != nil {
		w.OnCross(*reading)
	}
	return true, nil
}

// CheckAll evaluates every employee and logs individual failures.
func (w *OvertimeWatch) CheckAll(ctx context.Context, employeeIDs []string) int {
	raised := 0
	for _, id := range employeeIDs {
		ok, err := w.Check(ctx, id)
		if err != nil {
			w.logger.Warn("watch: overtime check failed", "employee_id", id, "error", err)
			continue
		}
		if ok {
			raised++
		}
	}
	return raised
}
