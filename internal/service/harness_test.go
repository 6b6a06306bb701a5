package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/timeclock/internal/broadcast"
	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/metadata"
	"github.com/alexanderramin/timeclock/internal/repository"
	"github.com/alexanderramin/timeclock/internal/testutil"
	"github.com/stretchr/testify/require"
)

type harness struct {
	db         *sql.DB
	clock      *testutil.Clock
	notifier   *testutil.RecordingNotifier
	hub        *broadcast.Hub
	deps       Deps
	attendance AttendanceService
	resolver   ResolverService
	directory  DirectoryService
	sessions   *repository.SQLiteAttendanceRepo
	shifts     *repository.SQLiteShiftRepo
}

func newHarness(t *testing.T, database *sql.DB) *harness {
	t.Helper()
	h := &harness{
		db:       database,
		clock:    testutil.NewClock(testutil.At(0, 9, 0)),
		notifier: &testutil.RecordingNotifier{},
		hub:      broadcast.NewHub(),
		sessions: repository.NewSQLiteAttendanceRepo(database),
		shifts:   repository.NewSQLiteShiftRepo(database),
	}
	h.deps = Deps{
		Attendance: h.sessions,
		Employees:  repository.NewSQLiteEmployeeRepo(database),
		Shifts:     h.shifts,
		Heartbeats: repository.NewSQLiteHeartbeatRepo(database),
		UoW:        db.NewSQLiteUnitOfWork(database),
		Hub:        h.hub,
		Notifier:   h.notifier,
		Device:     metadata.Context{DeviceIdentifier: "dev-default", Location: "hq"},
		Location:   time.UTC,
		Now:        h.clock.Now,
	}
	h.attendance = NewAttendanceService(h.deps)
	h.resolver = NewResolverService(h.deps)
	h.directory = NewDirectoryService(h.deps.Employees, h.shifts)
	return h
}

// employee registers an active employee and returns its id.
func (h *harness) employee(t *testing.T, name string) string {
	t.Helper()
	e := testutil.NewTestEmployee(name)
	require.NoError(t, h.deps.Employees.Create(context.Background(), e))
	return e.ID
}

// pattern creates a pattern and assigns it to the employee for every weekday.
func (h *harness) pattern(t *testing.T, employeeID string, p *domain.ShiftPattern) {
	t.Helper()
	h.patternOn(t, employeeID, p, "all")
}

// patternOn creates a pattern and assigns it to the employee for the given days.
func (h *harness) patternOn(t *testing.T, employeeID string, p *domain.ShiftPattern, weekdays string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.shifts.CreatePattern(ctx, p))
	days, err := domain.ParseWeekdays(weekdays)
	require.NoError(t, err)
	for _, wd := range days {
		require.NoError(t, h.shifts.Assign(ctx, domain.ShiftAssignment{EmployeeID: employeeID, Weekday: wd, ShiftPatternID: p.ID}))
	}
}

func (h *harness) at(dayOffset, hour, minute int) {
	h.clock.Set(testutil.At(dayOffset, hour, minute))
}

func (h *harness) activeCount(t *testing.T, employeeID string) int {
	t.Helper()
	rows, err := h.sessions.ListActiveByEmployee(context.Background(), employeeID)
	require.NoError(t, err)
	return len(rows)
}

func onDevice(id string) context.Context {
	return metadata.WithContext(context.Background(), metadata.Context{DeviceIdentifier: id, Location: "floor-" + id})
}
