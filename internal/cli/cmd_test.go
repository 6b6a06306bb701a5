package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/timeclock/internal/config"
	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/metadata"
	"github.com/alexanderramin/timeclock/internal/repository"
	"github.com/alexanderramin/timeclock/internal/service"
	"github.com/alexanderramin/timeclock/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliHarness struct {
	app      *App
	clock    *testutil.Clock
	sessions *repository.SQLiteAttendanceRepo
	notifier *testutil.RecordingNotifier
}

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *cliHarness {
	t.Helper()
	database := testutil.NewTestDB(t)
	clock := testutil.NewClock(testutil.At(0, 9, 0))
	notifier := &testutil.RecordingNotifier{}

	sessions := repository.NewSQLiteAttendanceRepo(database)
	employees := repository.NewSQLiteEmployeeRepo(database)
	shifts := repository.NewSQLiteShiftRepo(database)
	deps := service.Deps{
		Attendance: sessions,
		Employees:  employees,
		Shifts:     shifts,
		Heartbeats: repository.NewSQLiteHeartbeatRepo(database),
		UoW:        db.NewSQLiteUnitOfWork(database),
		Notifier:   notifier,
		Device:     metadata.Context{DeviceIdentifier: "dev-test", Location: "desk"},
		Location:   time.UTC,
		Now:        clock.Now,
	}

	app := &App{
		Attendance: service.NewAttendanceService(deps),
		Resolver:   service.NewResolverService(deps),
		Directory:  service.NewDirectoryService(employees, shifts),
		Notifier:   notifier,
		Config: &config.Config{
			HeartbeatTimeout:      10 * time.Minute,
			MaxSessionDuration:    16 * time.Hour,
			OvertimeCheckInterval: time.Minute,
			ReconcileInterval:     30 * time.Second,
			DisplayTick:           time.Second,
			SyncDebounce:          10 * time.Millisecond,
		},
		Location: time.UTC,
		Now:      clock.Now,
		Device:   metadata.Context{DeviceIdentifier: "dev-test", Location: "desk"},
	}
	return &cliHarness{app: app, clock: clock, sessions: sessions, notifier: notifier}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func (h *cliHarness) seedEmployee(t *testing.T, id string) {
	t.Helper()
	_, err := executeCmd(t, h.app, "employee", "add", "--id", id, "--name", "Test "+id)
	require.NoError(t, err)
}

func TestClockFlow(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")

	out, err := executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "Clocked in at 09:00")

	h.clock.Set(testutil.At(0, 12, 0))
	out, err = executeCmd(t, h.app, "break", "start", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "Break started at 12:00")

	out, err = executeCmd(t, h.app, "status", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "On break")

	h.clock.Set(testutil.At(0, 12, 30))
	out, err = executeCmd(t, h.app, "break", "end", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "30m")

	h.clock.Set(testutil.At(0, 17, 0))
	out, err = executeCmd(t, h.app, "clock-out", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "7h 30m")
	assert.NotContains(t, out, "overtime")

	out, err = executeCmd(t, h.app, "status", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "Clocked out")
}

func TestClockIn_RecordsInvocationDevice(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")
	h.app.Device = metadata.Context{DeviceIdentifier: "kiosk-2", Location: "lobby"}

	_, err := executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)

	active, err := h.sessions.ListActiveByEmployee(context.Background(), "E1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "kiosk-2", active[0].DeviceIdentifier)
	assert.Equal(t, "lobby", active[0].Location)

	out, err := executeCmd(t, h.app, "heartbeat", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "kiosk-2")
}

func TestClockIn_RequiresEmployee(t *testing.T) {
	h := testApp(t)
	_, err := executeCmd(t, h.app, "clock-in")
	assert.ErrorIs(t, err, domain.ErrValidation)

	h.app.Config.Employee = "E9"
	_, err = executeCmd(t, h.app, "clock-in")
	assert.ErrorIs(t, err, domain.ErrValidation, "unknown employee from config")
}

func TestClockIn_RefusesOpenSessionUnlessRestart(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")

	_, err := executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)

	_, err = executeCmd(t, h.app, "clock-in", "-e", "E1")
	var active *domain.AlreadyActiveError
	require.ErrorAs(t, err, &active)
	assert.NotEmpty(t, active.SessionID)

	h.clock.Advance(time.Hour)
	_, err = executeCmd(t, h.app, "clock-in", "-e", "E1", "--restart")
	require.NoError(t, err)

	rows, err := h.sessions.ListActiveByEmployee(context.Background(), "E1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEqual(t, active.SessionID, rows[0].ID)

	out, err := executeCmd(t, h.app, "history", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "superseded")
}

func TestClockOut_OnBreakAsksForConfirmation(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")
	h.app.IsInteractive = func() bool { return true }
	asked := 0
	answer := false
	h.app.Confirm = func(string, string) (bool, error) {
		asked++
		return answer, nil
	}

	_, err := executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)
	h.clock.Set(testutil.At(0, 12, 0))
	_, err = executeCmd(t, h.app, "break", "start", "-e", "E1")
	require.NoError(t, err)

	h.clock.Set(testutil.At(0, 12, 20))
	out, err := executeCmd(t, h.app, "clock-out", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Equal(t, 1, asked)

	answer = true
	out, err = executeCmd(t, h.app, "clock-out", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "break 20m")
	assert.Equal(t, 2, asked)
}

func TestClockOut_YesSkipsPrompt(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")
	h.app.IsInteractive = func() bool { return true }
	h.app.Confirm = func(string, string) (bool, error) {
		t.Fatal("prompt should not run")
		return false, nil
	}

	_, err := executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)
	_, err = executeCmd(t, h.app, "break", "start", "-e", "E1")
	require.NoError(t, err)
	_, err = executeCmd(t, h.app, "clock-out", "-e", "E1", "--yes")
	require.NoError(t, err)
}

func TestBreakAndClockOut_WithoutSession(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")

	for _, args := range [][]string{
		{"break", "start", "-e", "E1"},
		{"break", "end", "-e", "E1"},
		{"clock-out", "-e", "E1"},
	} {
		_, err := executeCmd(t, h.app, args...)
		assert.ErrorIs(t, err, domain.ErrNoActiveSession, args)
	}

	_, err := executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)
	_, err = executeCmd(t, h.app, "break", "end", "-e", "E1")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestHistoryAndSummary(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")

	out, err := executeCmd(t, h.app, "history", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	_, err = executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)
	h.clock.Set(testutil.At(0, 17, 30))
	_, err = executeCmd(t, h.app, "clock-out", "-e", "E1")
	require.NoError(t, err)

	out, err = executeCmd(t, h.app, "history", "-e", "E1", "--days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-03")
	assert.Contains(t, out, "8h 30m")

	out, err = executeCmd(t, h.app, "summary", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "8h 30m")
	assert.Contains(t, out, "30m")

	_, err = executeCmd(t, h.app, "summary", "-e", "E1", "--date", "03/03/2025")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = executeCmd(t, h.app, "history", "-e", "E1", "--days", "0")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestClockIn_LateWarning(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")
	_, err := executeCmd(t, h.app, "shift", "add", "--name", "day", "--start", "09:00", "--end", "17:00", "--grace", "10")
	require.NoError(t, err)
	_, err = executeCmd(t, h.app, "shift", "assign", "-e", "E1", "--pattern", "day", "--days", "all")
	require.NoError(t, err)

	h.clock.Set(testutil.At(0, 9, 25))
	out, err := executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "Late by 25m")
	assert.Equal(t, []domain.NotificationKind{domain.NotifyLateClockIn}, h.notifier.Kinds())
}

func TestReconcileCmd_ClosesStaleSession(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")

	out, err := executeCmd(t, h.app, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to close")

	_, err = executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)

	h.clock.Set(testutil.At(1, 2, 0))
	out, err = executeCmd(t, h.app, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "closed 1")

	out, err = executeCmd(t, h.app, "status", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "Clocked out")
	assert.Contains(t, h.notifier.Kinds(), domain.NotifyAutoClose)
}

func TestHeartbeatAndDeviceLogout(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")

	out, err := executeCmd(t, h.app, "heartbeat", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "dev-test")

	_, err = executeCmd(t, h.app, "clock-in", "-e", "E1")
	require.NoError(t, err)

	out, err = executeCmd(t, h.app, "device", "logout", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 session(s) closed")

	out, err = executeCmd(t, h.app, "device", "logout", "-e", "E1", "--id", "dev-other")
	require.NoError(t, err)
	assert.Contains(t, out, "0 session(s) closed")
}

func TestEmployeeCommands(t *testing.T) {
	h := testApp(t)

	out, err := executeCmd(t, h.app, "employee", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No employees found.")

	h.seedEmployee(t, "E1")
	h.seedEmployee(t, "E2")

	out, err = executeCmd(t, h.app, "employee", "deactivate", "E2")
	require.NoError(t, err)
	assert.Contains(t, out, "Deactivated employee E2")

	out, err = executeCmd(t, h.app, "employee", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "E1")
	assert.NotContains(t, out, "E2")

	out, err = executeCmd(t, h.app, "employee", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "inactive")

	_, err = executeCmd(t, h.app, "clock-in", "-e", "E2")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = executeCmd(t, h.app, "employee", "deactivate", "nobody")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestShiftCommands(t *testing.T) {
	h := testApp(t)
	h.seedEmployee(t, "E1")

	out, err := executeCmd(t, h.app, "shift", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No shift patterns defined.")

	out, err = executeCmd(t, h.app, "shift", "add", "--name", "night", "--start", "22:00", "--end", "06:00", "--overtime", "15")
	require.NoError(t, err)
	assert.Contains(t, out, "overnight")

	_, err = executeCmd(t, h.app, "shift", "add", "--name", "bad", "--start", "25:00", "--end", "06:00")
	assert.ErrorIs(t, err, domain.ErrValidation)

	out, err = executeCmd(t, h.app, "shift", "assign", "-e", "E1", "--pattern", "night", "--days", "mon,tue")
	require.NoError(t, err)
	assert.Contains(t, out, "mon,tue")

	_, err = executeCmd(t, h.app, "shift", "assign", "-e", "E1", "--pattern", "missing")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = executeCmd(t, h.app, "shift", "assign", "-e", "E1", "--pattern", "night", "--days", "funday")
	assert.ErrorIs(t, err, domain.ErrValidation)

	out, err = executeCmd(t, h.app, "shift", "list", "-e", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "22:00")
	assert.Contains(t, out, "Mon  night")
	assert.Contains(t, out, "Tue  night")

	_, err = executeCmd(t, h.app, "shift", "unassign", "-e", "E1", "--days", "tue")
	require.NoError(t, err)
	out, err = executeCmd(t, h.app, "shift", "list", "-e", "E1")
	require.NoError(t, err)
	assert.NotContains(t, out, "Tue  night")
}

func TestBootstrapErrorStopsCommand(t *testing.T) {
	h := testApp(t)
	h.app.Bootstrap = func(*cobra.Command) error { return errors.New("no database") }
	_, err := executeCmd(t, h.app, "status", "-e", "E1")
	assert.EqualError(t, err, "no database")
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"already active", &domain.AlreadyActiveError{EmployeeID: "E1", SessionID: "0123456789"}, "session 01234567"},
		{"no session", domain.ErrNoActiveSession, "Nothing to do"},
		{"validation", domain.ErrValidation, "Invalid input"},
		{"persistence", domain.ErrPersistence, "nothing was changed"},
		{"other", errors.New("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FriendlyError(tt.err)
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Contains(t, got, tt.want)
		})
	}
}
