package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar-date format stored on attendance sessions.
const DateLayout = "2006-01-02"

// AttendanceSession is one shift instance for one employee on one calendar date.
type AttendanceSession struct {
	ID         string
	EmployeeID string
	Date       string // local calendar date of CheckIn, DateLayout

	CheckIn    time.Time
	CheckOut   *time.Time
	BreakStart *time.Time // non-nil only while Status == StatusOnBreak

	BreakMinutes          int
	WorkingMinutes        int
	RegularMinutes        int
	OvertimeMinutes       int
	EarlyDepartureMinutes int
	IsEarlyDeparture      bool
	LateMinutes           int
	IsLate                bool

	ActiveSession bool
	Status        SessionStatus

	DeviceIdentifier string
	Location         string
	ShiftPatternID   *string

	ClosedBy    CloseSource
	CloseReason CloseReason

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoundMinutes converts a duration to whole minutes, rounding to nearest.
func RoundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

// OpenBreakMinutes returns the elapsed minutes of the currently open break, or 0.
func (s *AttendanceSession) OpenBreakMinutes(now time.Time) int {
	if s.BreakStart == nil {
		return 0
	}
	m := RoundMinutes(now.Sub(*s.BreakStart))
	if m < 0 {
		return 0
	}
	return m
}

// StartBreak opens a break. The session must be clocked in.
func (s *AttendanceSession) StartBreak(now time.Time) error {
	if !s.ActiveSession || s.Status != StatusClockedIn {
		return fmt.Errorf("session %s is %s: %w", s.ID, s.Status, ErrNoActiveSession)
	}
	at := now
	s.BreakStart = &at
	s.Status = StatusOnBreak
	s.UpdatedAt = now
	return nil
}

// EndBreak folds the open break into BreakMinutes and returns the minutes added.
// Without an open break it reports ErrNoActiveSession and leaves BreakMinutes untouched.
func (s *AttendanceSession) EndBreak(now time.Time) (int, error) {
	if !s.ActiveSession || s.BreakStart == nil {
		return 0, fmt.Errorf("session %s has no open break: %w", s.ID, ErrNoActiveSession)
	}
	added := s.SettleBreak(now)
	s.Status = StatusClockedIn
	return added, nil
}

// SettleBreak folds any open break into BreakMinutes and clears BreakStart.
// It is a no-op when no break is open.
func (s *AttendanceSession) SettleBreak(now time.Time) int {
	if s.BreakStart == nil {
		return 0
	}
	added := s.OpenBreakMinutes(now)
	s.BreakMinutes += added
	s.BreakStart = nil
	s.UpdatedAt = now
	return added
}

// Close marks the session terminated at now. Any open break is settled first.
func (s *AttendanceSession) Close(now time.Time, by CloseSource, reason CloseReason) {
	s.SettleBreak(now)
	at := now
	s.CheckOut = &at
	s.ActiveSession = false
	s.Status = StatusClockedOut
	s.ClosedBy = by
	s.CloseReason = reason
	s.UpdatedAt = now
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *AttendanceSession) Clone() *AttendanceSession {
	if s == nil {
		return nil
	}
	c := *s
	if s.CheckOut != nil {
		t := *s.CheckOut
		c.CheckOut = &t
	}
	if s.BreakStart != nil {
		t := *s.BreakStart
		c.BreakStart = &t
	}
	if s.ShiftPatternID != nil {
		id := *s.ShiftPatternID
		c.ShiftPatternID = &id
	}
	return &c
}
