package service

import (
	"context"
	"time"

	"github.com/alexanderramin/timeclock/internal/broadcast"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/worktime"
)

// AttendanceService is the session state machine plus its read side.
// Mutations return errors wrapping one of the domain sentinels.
type AttendanceService interface {
	ClockIn(ctx context.Context, employeeID string) (string, error)
	BreakStart(ctx context.Context, sessionID string) error
	BreakEnd(ctx context.Context, sessionID string) error
	ClockOut(ctx context.Context, sessionID string) (Summary, error)

	// Current returns the employee's active session, or nil when clocked out.
	Current(ctx context.Context, employeeID string) (*domain.AttendanceSession, error)
	Get(ctx context.Context, sessionID string) (*domain.AttendanceSession, error)
	History(ctx context.Context, employeeID, fromDate, toDate string) ([]*domain.AttendanceSession, error)
	Live(ctx context.Context, sessionID string) (*LiveReading, error)
	DailySummary(ctx context.Context, employeeID, date string) (*DaySummary, error)

	// Heartbeat records that the calling device is still present for the employee.
	Heartbeat(ctx context.Context, employeeID string) error
	Subscribe(employeeID string, fn broadcast.Handler) (unsubscribe func())
}

// ResolverService is the conflict resolver and auto-clockout monitor.
type ResolverService interface {
	// ResolveEmployee closes all but the newest active session and returns the
	// survivor along with the number of rows it closed.
	ResolveEmployee(ctx context.Context, employeeID string) (*domain.AttendanceSession, int, error)
	// ReconcileAll resolves every employee holding more than one active session.
	ReconcileAll(ctx context.Context) (int, error)
	// CloseSession terminates an active session as system-initiated. Closing an
	// already closed session is a no-op that reports false.
	CloseSession(ctx context.Context, sessionID string, reason domain.CloseReason) (bool, error)
	SweepAbandoned(ctx context.Context, heartbeatTimeout, maxAge time.Duration) (*SweepReport, error)
	DeviceGone(ctx context.Context, employeeID, deviceIdentifier string) (int, error)
}

type DirectoryService interface {
	AddEmployee(ctx context.Context, id, name string) (*domain.Employee, error)
	ListEmployees(ctx context.Context, includeInactive bool) ([]*domain.Employee, error)
	DeactivateEmployee(ctx context.Context, id string) error

	AddPattern(ctx context.Context, p PatternInput) (*domain.ShiftPattern, error)
	ListPatterns(ctx context.Context) ([]*domain.ShiftPattern, error)
	AssignPattern(ctx context.Context, employeeID, patternName string, days []time.Weekday) error
	UnassignPattern(ctx context.Context, employeeID string, days []time.Weekday) error
	ListAssignments(ctx context.Context, employeeID string) ([]domain.ShiftAssignment, error)
}

// Summary is the clock-out result.
type Summary struct {
	WorkingMinutes  int
	OvertimeMinutes int
	BreakMinutes    int
}

// LiveReading is a session's breakdown evaluated at At. For a closed session
// At is its check-out.
type LiveReading struct {
	Session   *domain.AttendanceSession
	Breakdown worktime.Breakdown
	At        time.Time
	// OvertimeCrossed reports whether At is past the overtime threshold.
	OvertimeCrossed bool
}

// DaySummary totals every closed session recorded on one date.
type DaySummary struct {
	EmployeeID            string
	Date                  string
	Sessions              int
	WorkingMinutes        int
	BreakMinutes          int
	RegularMinutes        int
	OvertimeMinutes       int
	EarlyDepartureMinutes int
	LateMinutes           int
	// OpenSessionID is set while a session on this date is still active.
	OpenSessionID string
}

type SweepReport struct {
	Checked   int
	Abandoned []string
	Stale     []string
}

// Closed returns the number of sessions the sweep terminated.
func (r *SweepReport) Closed() int {
	return len(r.Abandoned) + len(r.Stale)
}

type PatternInput struct {
	Name                     string
	Start                    string
	End                      string
	GracePeriodMinutes       int
	OvertimeThresholdMinutes int
}
