package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// publishTimeout bounds a single background publish.
const publishTimeout = 5 * time.Second

// Async publishes on a background goroutine so the caller's transition is
// never delayed by a slow remote. Failures are logged.
type Async struct {
	next    Publisher
	logger  *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsync(next Publisher, logger *slog.Logger) *Async {
	if logger == nil {
		logger = slog.Default()
	}
	return &Async{next: next, logger: logger, timeout: publishTimeout}
}

// Publish always returns nil; delivery errors are only logged.
func (a *Async) Publish(_ context.Context, e Event) error {
	if a == nil || a.next == nil {
		return nil
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := a.next.Publish(ctx, e); err != nil {
			a.logger.Warn("broadcast: async publish failed",
				"employee_id", e.EmployeeID, "event_type", string(e.Type), "error", err)
		}
	}()
	return nil
}

// Wait blocks until in-flight publishes finish. Used at shutdown.
func (a *Async) Wait() {
	if a == nil {
		return
	}
	a.wg.Wait()
}
