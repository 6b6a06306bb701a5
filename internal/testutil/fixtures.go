package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testEmployeeCounter atomic.Int64

// Employee options
type EmployeeOption func(*domain.Employee)

func WithEmployeeID(id string) EmployeeOption {
	return func(e *domain.Employee) {
		e.ID = id
	}
}

func Inactive() EmployeeOption {
	return func(e *domain.Employee) {
		e.Active = false
	}
}

func NewTestEmployee(name string, opts ...EmployeeOption) *domain.Employee {
	n := testEmployeeCounter.Add(1)
	e := &domain.Employee{
		ID:        fmt.Sprintf("EMP%03d", n),
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ShiftPattern options
type PatternOption func(*domain.ShiftPattern)

func WithGrace(m int) PatternOption {
	return func(p *domain.ShiftPattern) {
		p.GracePeriodMinutes = m
	}
}

func WithOvertimeThreshold(m int) PatternOption {
	return func(p *domain.ShiftPattern) {
		p.OvertimeThresholdMinutes = m
	}
}

// NewTestPattern builds a pattern from "HH:MM" bounds. It panics on malformed
// input since fixtures are literals.
func NewTestPattern(name, start, end string, opts ...PatternOption) *domain.ShiftPattern {
	s, err := domain.ParseTimeOfDay(start)
	if err != nil {
		panic(err)
	}
	e, err := domain.ParseTimeOfDay(end)
	if err != nil {
		panic(err)
	}
	p := &domain.ShiftPattern{
		ID:        uuid.New().String(),
		Name:      name,
		Start:     s,
		End:       e,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AttendanceSession options
type SessionOption func(*domain.AttendanceSession)

func WithCheckIn(t time.Time) SessionOption {
	return func(s *domain.AttendanceSession) {
		s.CheckIn = t
		s.Date = t.Format(domain.DateLayout)
		s.CreatedAt = t
		s.UpdatedAt = t
	}
}

func WithOpenBreak(t time.Time) SessionOption {
	return func(s *domain.AttendanceSession) {
		s.BreakStart = &t
		s.Status = domain.StatusOnBreak
	}
}

func WithBreakMinutes(m int) SessionOption {
	return func(s *domain.AttendanceSession) {
		s.BreakMinutes = m
	}
}

func WithDevice(id, location string) SessionOption {
	return func(s *domain.AttendanceSession) {
		s.DeviceIdentifier = id
		s.Location = location
	}
}

func WithPattern(id string) SessionOption {
	return func(s *domain.AttendanceSession) {
		s.ShiftPatternID = &id
	}
}

// Closed marks the fixture as already clocked out at t.
func Closed(t time.Time) SessionOption {
	return func(s *domain.AttendanceSession) {
		s.Close(t, domain.ClosedByUser, domain.ReasonClockOut)
	}
}

// NewTestAttendance returns an active, clocked-in session for employeeID.
func NewTestAttendance(employeeID string, opts ...SessionOption) *domain.AttendanceSession {
	now := time.Now().UTC().Truncate(time.Second)
	s := &domain.AttendanceSession{
		ID:               uuid.New().String(),
		EmployeeID:       employeeID,
		Date:             now.Format(domain.DateLayout),
		CheckIn:          now,
		ActiveSession:    true,
		Status:           domain.StatusClockedIn,
		DeviceIdentifier: "test-device",
		Location:         "test",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedEmployee inserts e directly through the given handle.
func SeedEmployee(t *testing.T, conn db.DBTX, e *domain.Employee) {
	t.Helper()
	active := 0
	if e.Active {
		active = 1
	}
	_, err := conn.ExecContext(context.Background(),
		`INSERT INTO employees (id, name, active, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, e.Name, active, e.CreatedAt.UTC().Format(time.RFC3339))
	require.NoError(t, err)
}
