package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeSession(checkIn time.Time) *AttendanceSession {
	return &AttendanceSession{
		ID:            "s1",
		EmployeeID:    "e1",
		CheckIn:       checkIn,
		ActiveSession: true,
		Status:        StatusClockedIn,
	}
}

func TestRoundMinutes(t *testing.T) {
	assert.Equal(t, 0, RoundMinutes(29*time.Second))
	assert.Equal(t, 1, RoundMinutes(30*time.Second))
	assert.Equal(t, 30, RoundMinutes(30*time.Minute+10*time.Second))
	assert.Equal(t, 31, RoundMinutes(30*time.Minute+45*time.Second))
}

func TestBreakCycle_AccumulatesMinutes(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := activeSession(start)

	require.NoError(t, s.StartBreak(start.Add(3*time.Hour)))
	assert.Equal(t, StatusOnBreak, s.Status)
	require.NotNil(t, s.BreakStart)

	added, err := s.EndBreak(start.Add(3*time.Hour + 30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 30, added)
	assert.Equal(t, 30, s.BreakMinutes)
	assert.Nil(t, s.BreakStart, "break_start must clear once the break ends")
	assert.Equal(t, StatusClockedIn, s.Status)

	require.NoError(t, s.StartBreak(start.Add(5*time.Hour)))
	_, err = s.EndBreak(start.Add(5*time.Hour + 15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 45, s.BreakMinutes)
}

func TestEndBreak_WithoutOpenBreak(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := activeSession(start)
	s.BreakMinutes = 12

	_, err := s.EndBreak(start.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.Equal(t, 12, s.BreakMinutes)
	assert.Equal(t, StatusClockedIn, s.Status)
}

func TestStartBreak_RequiresClockedIn(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	onBreak := activeSession(start)
	require.NoError(t, onBreak.StartBreak(start.Add(time.Minute)))
	assert.ErrorIs(t, onBreak.StartBreak(start.Add(2*time.Minute)), ErrNoActiveSession)

	closed := activeSession(start)
	closed.Close(start.Add(time.Hour), ClosedByUser, ReasonClockOut)
	assert.ErrorIs(t, closed.StartBreak(start.Add(2*time.Hour)), ErrNoActiveSession)
}

func TestClose_SettlesOpenBreak(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := activeSession(start)
	require.NoError(t, s.StartBreak(start.Add(4*time.Hour)))

	end := start.Add(4*time.Hour + 20*time.Minute)
	s.Close(end, ClosedBySystem, ReasonAbandoned)

	assert.Equal(t, 20, s.BreakMinutes)
	assert.Nil(t, s.BreakStart)
	assert.False(t, s.ActiveSession)
	assert.Equal(t, StatusClockedOut, s.Status)
	require.NotNil(t, s.CheckOut)
	assert.True(t, s.CheckOut.Equal(end))
	assert.Equal(t, ClosedBySystem, s.ClosedBy)
	assert.Equal(t, ReasonAbandoned, s.CloseReason)
}

func TestClone_IsDeep(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := activeSession(start)
	require.NoError(t, s.StartBreak(start.Add(time.Hour)))
	pid := "p1"
	s.ShiftPatternID = &pid

	c := s.Clone()
	*c.BreakStart = start
	*c.ShiftPatternID = "other"

	assert.True(t, s.BreakStart.Equal(start.Add(time.Hour)))
	assert.Equal(t, "p1", *s.ShiftPatternID)
	assert.Nil(t, (*AttendanceSession)(nil).Clone())
}
