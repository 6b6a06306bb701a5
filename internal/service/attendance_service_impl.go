package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timeclock/internal/broadcast"
	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/repository"
	"github.com/alexanderramin/timeclock/internal/worktime"
	"github.com/google/uuid"
)

type attendanceService struct {
	*core
	resolver *resolverService
}

func NewAttendanceService(d Deps, observers ...UseCaseObserver) AttendanceService {
	c := newCore(d, observers)
	return &attendanceService{core: c, resolver: &resolverService{core: c}}
}

// ClockIn opens a new session. Any active rows left for the employee are
// closed first as superseded. If another writer still holds an active row
// afterwards, or wins the post-insert convergence, an *domain.AlreadyActiveError
// names the surviving session.
func (s *attendanceService) ClockIn(ctx context.Context, employeeID string) (id string, err error) {
	md := s.device(ctx)
	fields := map[string]any{"employee_id": employeeID, "device": md.DeviceIdentifier}
	done := track(ctx, s.observer, "clock-in", fields)
	defer func() { done(err) }()

	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return "", fmt.Errorf("employee id is required: %w", domain.ErrValidation)
	}
	emp, err := s.Employees.GetByID(ctx, employeeID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("unknown employee %s: %w", employeeID, domain.ErrValidation)
	}
	if err != nil {
		return "", classify("loading employee", err)
	}
	if !emp.Active {
		return "", fmt.Errorf("employee %s is inactive: %w", employeeID, domain.ErrValidation)
	}

	now := s.now()
	pattern, err := s.shiftAt(ctx, employeeID, now)
	if err != nil {
		return "", classify("looking up shift pattern", err)
	}

	if _, err := s.resolver.closeAll(ctx, employeeID, domain.ReasonSuperseded); err != nil {
		return "", err
	}
	active, err := s.Attendance.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return "", classify("re-reading active sessions", err)
	}
	if len(active) > 0 {
		return "", &domain.AlreadyActiveError{EmployeeID: employeeID, SessionID: active[0].ID}
	}

	sess := &domain.AttendanceSession{
		ID:               uuid.New().String(),
		EmployeeID:       employeeID,
		Date:             worktime.ShiftDate(now, pattern, s.Location),
		CheckIn:          now,
		ActiveSession:    true,
		Status:           domain.StatusClockedIn,
		DeviceIdentifier: md.DeviceIdentifier,
		Location:         md.Location,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if pattern != nil {
		pid := pattern.ID
		sess.ShiftPatternID = &pid
		sess.IsLate, sess.LateMinutes = worktime.Lateness(now, pattern, s.Location)
	}
	if err := s.Attendance.Create(ctx, sess); err != nil {
		return "", classify("creating session", err)
	}
	fields["session_id"] = sess.ID
	s.touch(ctx, employeeID, md)
	s.publish(ctx, broadcast.EventInsert, sess)

	winner, _, err := s.resolver.ResolveEmployee(ctx, employeeID)
	if err != nil {
		return "", err
	}
	if winner != nil && winner.ID != sess.ID {
		return "", &domain.AlreadyActiveError{EmployeeID: employeeID, SessionID: winner.ID}
	}

	if sess.IsLate {
		s.notify(ctx, employeeID, domain.NotifyLateClockIn, "Late clock-in",
			fmt.Sprintf("%s clocked in %d minutes after the %s shift start", emp.Name, sess.LateMinutes, pattern.Name))
	}
	return sess.ID, nil
}

func (s *attendanceService) BreakStart(ctx context.Context, sessionID string) (err error) {
	done := track(ctx, s.observer, "break-start", map[string]any{"session_id": sessionID})
	defer func() { done(err) }()

	sess, err := s.mutate(ctx, sessionID, func(_ context.Context, _ db.DBTX, sess *domain.AttendanceSession, now time.Time) error {
		return sess.StartBreak(now)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, broadcast.EventUpdate, sess)
	return nil
}

// BreakEnd folds the open break into break_minutes. Without an open break it
// reports ErrNoActiveSession and writes nothing.
func (s *attendanceService) BreakEnd(ctx context.Context, sessionID string) (err error) {
	done := track(ctx, s.observer, "break-end", map[string]any{"session_id": sessionID})
	defer func() { done(err) }()

	sess, err := s.mutate(ctx, sessionID, func(_ context.Context, _ db.DBTX, sess *domain.AttendanceSession, now time.Time) error {
		_, err := sess.EndBreak(now)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(ctx, broadcast.EventUpdate, sess)
	return nil
}

// ClockOut closes the session from either clocked-in or on-break. An open
// break is settled before the breakdown is computed.
func (s *attendanceService) ClockOut(ctx context.Context, sessionID string) (sum Summary, err error) {
	fields := map[string]any{"session_id": sessionID}
	done := track(ctx, s.observer, "clock-out", fields)
	defer func() { done(err) }()

	sess, err := s.mutate(ctx, sessionID, func(ctx context.Context, tx db.DBTX, sess *domain.AttendanceSession, now time.Time) error {
		if !sess.ActiveSession {
			return fmt.Errorf("session %s is already closed: %w", sess.ID, domain.ErrNoActiveSession)
		}
		pattern, err := patternFor(ctx, repository.NewSQLiteShiftRepo(tx), sess)
		if err != nil {
			return err
		}
		sess.Close(now, domain.ClosedByUser, domain.ReasonClockOut)
		s.finalize(sess, pattern)
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	fields["working_minutes"] = sess.WorkingMinutes
	s.publish(ctx, broadcast.EventUpdate, sess)
	return Summary{
		WorkingMinutes:  sess.WorkingMinutes,
		OvertimeMinutes: sess.OvertimeMinutes,
		BreakMinutes:    sess.BreakMinutes,
	}, nil
}

// mutate runs a read-modify-write on one session inside a transaction and
// touches the acting device's heartbeat on success. The committed row is returned.
func (s *attendanceService) mutate(ctx context.Context, sessionID string, fn func(context.Context, db.DBTX, *domain.AttendanceSession, time.Time) error) (*domain.AttendanceSession, error) {
	var out *domain.AttendanceSession
	err := s.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteAttendanceRepo(tx)
		sess, err := repo.GetByID(ctx, sessionID)
		if err != nil {
			return noSession(sessionID, err)
		}
		if err := fn(ctx, tx, sess, s.now()); err != nil {
			return err
		}
		if err := repo.Update(ctx, sess); err != nil {
			return err
		}
		out = sess
		return nil
	})
	if err != nil {
		return nil, classify("updating session", err)
	}
	s.touch(ctx, out.EmployeeID, s.device(ctx))
	return out, nil
}

func (s *attendanceService) Current(ctx context.Context, employeeID string) (*domain.AttendanceSession, error) {
	active, err := s.Attendance.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return nil, classify("loading current session", err)
	}
	if len(active) == 0 {
		return nil, nil
	}
	return active[0], nil
}

func (s *attendanceService) Get(ctx context.Context, sessionID string) (*domain.AttendanceSession, error) {
	sess, err := s.Attendance.GetByID(ctx, sessionID)
	if err != nil {
		return nil, classify("loading session", noSession(sessionID, err))
	}
	return sess, nil
}

func (s *attendanceService) History(ctx context.Context, employeeID, fromDate, toDate string) ([]*domain.AttendanceSession, error) {
	rows, err := s.Attendance.ListByEmployee(ctx, employeeID, fromDate, toDate)
	if err != nil {
		return nil, classify("loading history", err)
	}
	return rows, nil
}

// Live evaluates the breakdown of an active session against now. Closed
// sessions are evaluated at their check-out.
func (s *attendanceService) Live(ctx context.Context, sessionID string) (*LiveReading, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pattern, err := patternFor(ctx, s.Shifts, sess)
	if err != nil {
		return nil, classify("loading shift pattern", err)
	}
	at := s.now()
	if !sess.ActiveSession && sess.CheckOut != nil {
		at = *sess.CheckOut
	}
	b := s.breakdown(sess, at, pattern)
	crossed := b.OvertimeMinutes > 0
	if b.Schedule != nil {
		crossed = at.After(b.Schedule.OvertimeThreshold)
	}
	return &LiveReading{Session: sess, Breakdown: b, At: at, OvertimeCrossed: crossed}, nil
}

func (s *attendanceService) DailySummary(ctx context.Context, employeeID, date string) (*DaySummary, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, domain.ErrValidation)
	}
	rows, err := s.History(ctx, employeeID, date, date)
	if err != nil {
		return nil, err
	}
	sum := &DaySummary{EmployeeID: employeeID, Date: date}
	for _, r := range rows {
		if r.ActiveSession {
			sum.OpenSessionID = r.ID
			continue
		}
		sum.Sessions++
		sum.WorkingMinutes += r.WorkingMinutes
		sum.BreakMinutes += r.BreakMinutes
		sum.RegularMinutes += r.RegularMinutes
		sum.OvertimeMinutes += r.OvertimeMinutes
		sum.EarlyDepartureMinutes += r.EarlyDepartureMinutes
		sum.LateMinutes += r.LateMinutes
	}
	return sum, nil
}

func (s *attendanceService) Heartbeat(ctx context.Context, employeeID string) error {
	md := s.device(ctx)
	if md.DeviceIdentifier == "" {
		return fmt.Errorf("device identifier is required: %w", domain.ErrValidation)
	}
	err := s.Heartbeats.Touch(ctx, domain.DeviceHeartbeat{
		EmployeeID:       employeeID,
		DeviceIdentifier: md.DeviceIdentifier,
		Location:         md.Location,
		LastSeenAt:       s.now(),
	})
	return classify("recording heartbeat", err)
}

func (s *attendanceService) Subscribe(employeeID string, fn broadcast.Handler) func() {
	return s.Hub.Subscribe(employeeID, fn)
}
