package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/repository"
	"github.com/alexanderramin/timeclock/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two devices clock the same employee in at nearly the same moment. Either
// attempt may lose; the only guarantee is convergence to one active row.
func TestClockIn_ScenarioC_RaceConverges(t *testing.T) {
	h := newHarness(t, testutil.NewFileTestDB(t))
	emp := h.employee(t, "Racer")

	for round := range 5 {
		h.at(round, 9, 0)
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, device := range []string{"dev-a", "dev-b"} {
			wg.Add(1)
			go func(i int, device string) {
				defer wg.Done()
				_, errs[i] = h.attendance.ClockIn(onDevice(device), emp)
			}(i, device)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrAlreadyActive, "round %d", round)
			}
		}

		_, _, err := h.resolver.ResolveEmployee(context.Background(), emp)
		require.NoError(t, err)
		assert.Equal(t, 1, h.activeCount(t, emp), "round %d", round)
	}
}

func TestResolveEmployee_MostRecentWins(t *testing.T) {
	h := newHarness(t, testutil.NewTestDB(t))
	ctx := context.Background()
	emp := h.employee(t, "Ada")

	older := testutil.NewTestAttendance(emp, testutil.WithCheckIn(testutil.At(0, 8, 0)), testutil.WithDevice("dev-a", ""))
	newer := testutil.NewTestAttendance(emp, testutil.WithCheckIn(testutil.At(0, 8, 1)), testutil.WithDevice("dev-b", ""))
	require.NoError(t, h.sessions.Create(ctx, newer))
	require.NoError(t, h.sessions.Create(ctx, older))

	winner, closed, err := h.resolver.ResolveEmployee(ctx, emp)
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, 1, closed)
	assert.Equal(t, newer.ID, winner.ID)
	assert.Equal(t, 1, h.activeCount(t, emp))

	loser, err := h.attendance.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonSuperseded, loser.CloseReason)

	none, closed, err := h.resolver.ResolveEmployee(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.Zero(t, closed)
}

func TestReconcileAll(t *testing.T) {
	h := newHarness(t, testutil.NewTestDB(t))
	ctx := context.Background()
	a := h.employee(t, "A")
	b := h.employee(t, "B")

	for i := range 3 {
		require.NoError(t, h.sessions.Create(ctx, testutil.NewTestAttendance(a, testutil.WithCheckIn(testutil.At(0, 8, i)))))
	}
	require.NoError(t, h.sessions.Create(ctx, testutil.NewTestAttendance(b, testutil.WithCheckIn(testutil.At(0, 8, 0)))))

	closed, err := h.resolver.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, closed)
	assert.Equal(t, 1, h.activeCount(t, a))
	assert.Equal(t, 1, h.activeCount(t, b))
}

// staleActiveRepo serves active-session listings captured before another
// writer closed some of those rows.
type staleActiveRepo struct {
	repository.AttendanceRepo
	snapshot []*domain.AttendanceSession
}

func (r *staleActiveRepo) ListActive(context.Context) ([]*domain.AttendanceSession, error) {
	return r.snapshot, nil
}

func (r *staleActiveRepo) ListActiveByEmployee(_ context.Context, employeeID string) ([]*domain.AttendanceSession, error) {
	var out []*domain.AttendanceSession
	for _, s := range r.snapshot {
		if s.EmployeeID == employeeID {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestReconcileAll_CountsOnlyRowsItCloses(t *testing.T) {
	h := newHarness(t, testutil.NewTestDB(t))
	ctx := context.Background()
	emp := h.employee(t, "A")

	for i := range 3 {
		require.NoError(t, h.sessions.Create(ctx, testutil.NewTestAttendance(emp, testutil.WithCheckIn(testutil.At(0, 8, i)))))
	}
	snapshot, err := h.sessions.ListActiveByEmployee(ctx, emp)
	require.NoError(t, err)
	require.Len(t, snapshot, 3)

	// Another writer closes the oldest row after the listing was taken.
	ok, err := h.resolver.CloseSession(ctx, snapshot[2].ID, domain.ReasonSuperseded)
	require.NoError(t, err)
	require.True(t, ok)

	deps := h.deps
	deps.Attendance = &staleActiveRepo{AttendanceRepo: h.sessions, snapshot: snapshot}
	closed, err := NewResolverService(deps).ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)
	assert.Equal(t, 1, h.activeCount(t, emp))
}

func TestCloseSession_Idempotent(t *testing.T) {
	h := newHarness(t, testutil.NewTestDB(t))
	ctx := context.Background()
	emp := h.employee(t, "Ada")

	id, err := h.attendance.ClockIn(ctx, emp)
	require.NoError(t, err)
	h.at(0, 11, 0)
	require.NoError(t, h.attendance.BreakStart(ctx, id))

	h.at(0, 11, 20)
	closed, err := h.resolver.CloseSession(ctx, id, domain.ReasonAbandoned)
	require.NoError(t, err)
	assert.True(t, closed)

	first, err := h.attendance.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, first.ActiveSession)
	assert.Equal(t, domain.StatusClockedOut, first.Status)
	assert.Nil(t, first.BreakStart)
	assert.Equal(t, 20, first.BreakMinutes)
	assert.Equal(t, 120, first.WorkingMinutes)
	assert.Equal(t, domain.ClosedBySystem, first.ClosedBy)

	h.at(0, 15, 0)
	closed, err = h.resolver.CloseSession(ctx, id, domain.ReasonStale)
	require.NoError(t, err)
	assert.False(t, closed)

	second, err := h.attendance.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first, second, "second close must not touch the row")
	assert.Equal(t, []domain.NotificationKind{domain.NotifyAutoClose}, h.notifier.Kinds())

	_, err = h.resolver.CloseSession(ctx, "missing", domain.ReasonStale)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestCloseSession_RollbackLeavesSessionActive(t *testing.T) {
	database := testutil.NewTestDB(t)
	h := newHarness(t, database)
	ctx := context.Background()
	emp := h.employee(t, "Ada")

	id, err := h.attendance.ClockIn(ctx, emp)
	require.NoError(t, err)

	deps := h.deps
	deps.UoW = &testutil.FailOnNthExecUoW{DB: database, FailOn: 1, Err: fmt.Errorf("injected update failure")}
	failing := NewResolverService(deps)

	closed, err := failing.CloseSession(ctx, id, domain.ReasonAbandoned)
	require.Error(t, err)
	assert.False(t, closed)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, err.Error(), "injected update failure")

	s, err := h.attendance.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, s.ActiveSession, "failed close must leave the session active")
	assert.Empty(t, h.notifier.Kinds())
}

func TestSweepAbandoned(t *testing.T) {
	h := newHarness(t, testutil.NewTestDB(t))
	ctx := context.Background()
	gone := h.employee(t, "Gone")
	present := h.employee(t, "Present")

	goneID, err := h.attendance.ClockIn(onDevice("dev-a"), gone)
	require.NoError(t, err)
	presentID, err := h.attendance.ClockIn(onDevice("dev-b"), present)
	require.NoError(t, err)

	h.at(0, 9, 20)
	require.NoError(t, h.attendance.Heartbeat(onDevice("dev-b"), present))

	h.at(0, 9, 25)
	report, err := h.resolver.SweepAbandoned(ctx, 10*time.Minute, 16*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, []string{goneID}, report.Abandoned)
	assert.Empty(t, report.Stale)

	s, err := h.attendance.Get(ctx, goneID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonAbandoned, s.CloseReason)

	// Keep the device alive but let the session outgrow the maximum duration.
	h.at(1, 1, 30)
	require.NoError(t, h.attendance.Heartbeat(onDevice("dev-b"), present))
	report, err = h.resolver.SweepAbandoned(ctx, 10*time.Minute, 16*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{presentID}, report.Stale)
	assert.Equal(t, 1, report.Closed())

	report, err = h.resolver.SweepAbandoned(ctx, 10*time.Minute, 16*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, report.Checked)
}

func TestSweepAbandoned_ZeroLimitsDisableChecks(t *testing.T) {
	h := newHarness(t, testutil.NewTestDB(t))
	emp := h.employee(t, "Ada")
	_, err := h.attendance.ClockIn(context.Background(), emp)
	require.NoError(t, err)

	h.at(3, 9, 0)
	report, err := h.resolver.SweepAbandoned(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Zero(t, report.Closed())
	assert.Equal(t, 1, h.activeCount(t, emp))
}

func TestDeviceGone(t *testing.T) {
	h := newHarness(t, testutil.NewTestDB(t))
	ctx := context.Background()
	emp := h.employee(t, "Ada")

	id, err := h.attendance.ClockIn(onDevice("dev-a"), emp)
	require.NoError(t, err)

	n, err := h.resolver.DeviceGone(ctx, emp, "dev-other")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, h.activeCount(t, emp))

	n, err = h.resolver.DeviceGone(ctx, emp, "dev-a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, err := h.attendance.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonDeviceTerminated, s.CloseReason)

	_, err = h.deps.Heartbeats.Get(ctx, emp, "dev-a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
