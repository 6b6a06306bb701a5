// Package broadcast fans session change events out to subscribers. Events are
// dirty signals: receivers re-read the store instead of applying the snapshot.
package broadcast

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/timeclock/internal/domain"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
)

// Event reports that an employee's session row changed.
type Event struct {
	EmployeeID string                    `json:"employee_id"`
	Type       EventType                 `json:"event_type"`
	Snapshot   *domain.AttendanceSession `json:"record_snapshot,omitempty"`
	Origin     string                    `json:"origin,omitempty"`
	At         time.Time                 `json:"at"`
}

// Publisher delivers events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Multi publishes to every non-nil publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
