package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/timeclock/internal/domain"
)

// AttendanceRepo is the append-only session store. Rows are updated in place
// but never deleted.
type AttendanceRepo interface {
	Create(ctx context.Context, s *domain.AttendanceSession) error
	GetByID(ctx context.Context, id string) (*domain.AttendanceSession, error)
	Update(ctx context.Context, s *domain.AttendanceSession) error
	// ListActiveByEmployee returns active rows newest first (check_in, then insertion order).
	ListActiveByEmployee(ctx context.Context, employeeID string) ([]*domain.AttendanceSession, error)
	ListActive(ctx context.Context) ([]*domain.AttendanceSession, error)
	ListByEmployee(ctx context.Context, employeeID, fromDate, toDate string) ([]*domain.AttendanceSession, error)
}

type EmployeeRepo interface {
	Create(ctx context.Context, e *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	List(ctx context.Context, includeInactive bool) ([]*domain.Employee, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// ShiftRepo stores shift patterns and weekday assignments. Lookup is the
// read-only registry query used by the attendance core.
type ShiftRepo interface {
	CreatePattern(ctx context.Context, p *domain.ShiftPattern) error
	GetPattern(ctx context.Context, id string) (*domain.ShiftPattern, error)
	GetPatternByName(ctx context.Context, name string) (*domain.ShiftPattern, error)
	ListPatterns(ctx context.Context) ([]*domain.ShiftPattern, error)
	Assign(ctx context.Context, a domain.ShiftAssignment) error
	Unassign(ctx context.Context, employeeID string, weekday time.Weekday) error
	ListAssignments(ctx context.Context, employeeID string) ([]domain.ShiftAssignment, error)
	Lookup(ctx context.Context, employeeID string, weekday time.Weekday) (*domain.ShiftPattern, error)
}

type HeartbeatRepo interface {
	Touch(ctx context.Context, hb domain.DeviceHeartbeat) error
	Get(ctx context.Context, employeeID, deviceIdentifier string) (*domain.DeviceHeartbeat, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]domain.DeviceHeartbeat, error)
	Delete(ctx context.Context, employeeID, deviceIdentifier string) error
}

type NotificationRepo interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListPending(ctx context.Context, limit int) ([]*domain.Notification, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) error
}
