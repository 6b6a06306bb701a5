package testutil

import (
	"context"
	"sync"

	"github.com/alexanderramin/timeclock/internal/domain"
)

// RecordingNotifier captures notifications for assertions.
type RecordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	Err  error
}

func (r *RecordingNotifier) Notify(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.Err
}

func (r *RecordingNotifier) Sent() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

// Kinds returns sent notification kinds in order.
func (r *RecordingNotifier) Kinds() []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]domain.NotificationKind, 0, len(r.sent))
	for _, n := range r.sent {
		kinds = append(kinds, n.Kind)
	}
	return kinds
}
