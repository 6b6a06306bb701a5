package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timeclock/internal/broadcast"
	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/repository"
)

type resolverService struct {
	*core
}

func NewResolverService(d Deps, observers ...UseCaseObserver) ResolverService {
	return &resolverService{core: newCore(d, observers)}
}

// ResolveEmployee applies "most recent wins": the newest active row by
// check-in survives and every other active row is closed as superseded.
// closed counts only the rows this call closed itself.
func (r *resolverService) ResolveEmployee(ctx context.Context, employeeID string) (winner *domain.AttendanceSession, closed int, err error) {
	active, err := r.Attendance.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return nil, 0, classify("listing active sessions", err)
	}
	if len(active) == 0 {
		return nil, 0, nil
	}
	for _, loser := range active[1:] {
		ok, err := r.CloseSession(ctx, loser.ID, domain.ReasonSuperseded)
		if err != nil {
			return nil, closed, err
		}
		if ok {
			closed++
		}
	}
	return active[0], closed, nil
}

func (r *resolverService) ReconcileAll(ctx context.Context) (closed int, err error) {
	done := track(ctx, r.observer, "reconcile", nil)
	defer func() { done(err) }()

	active, err := r.Attendance.ListActive(ctx)
	if err != nil {
		return 0, classify("listing active sessions", err)
	}
	perEmployee := make(map[string]int)
	for _, s := range active {
		perEmployee[s.EmployeeID]++
	}
	for employeeID, n := range perEmployee {
		if n < 2 {
			continue
		}
		_, c, err := r.ResolveEmployee(ctx, employeeID)
		closed += c
		if err != nil {
			return closed, err
		}
	}
	return closed, nil
}

// closeAll terminates every active row for the employee.
func (r *resolverService) closeAll(ctx context.Context, employeeID string, reason domain.CloseReason) (int, error) {
	active, err := r.Attendance.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return 0, classify("listing active sessions", err)
	}
	closed := 0
	for _, s := range active {
		ok, err := r.CloseSession(ctx, s.ID, reason)
		if err != nil {
			return closed, err
		}
		if ok {
			closed++
		}
	}
	return closed, nil
}

// CloseSession re-reads the row inside a transaction so concurrent closes
// converge: only the first writer to observe it active closes it.
func (r *resolverService) CloseSession(ctx context.Context, sessionID string, reason domain.CloseReason) (closed bool, err error) {
	done := track(ctx, r.observer, "auto-clockout", map[string]any{"session_id": sessionID, "reason": string(reason)})
	defer func() { done(err) }()

	var sess *domain.AttendanceSession
	err = r.UoW.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteAttendanceRepo(tx)
		s, err := repo.GetByID(ctx, sessionID)
		if err != nil {
			return noSession(sessionID, err)
		}
		if !s.ActiveSession {
			return nil
		}
		pattern, err := patternFor(ctx, repository.NewSQLiteShiftRepo(tx), s)
		if err != nil {
			return err
		}
		s.Close(r.now(), domain.ClosedBySystem, reason)
		r.finalize(s, pattern)
		if err := repo.Update(ctx, s); err != nil {
			return err
		}
		sess = s
		return nil
	})
	if err != nil {
		return false, classify("closing session", err)
	}
	if sess == nil {
		return false, nil
	}

	r.publish(ctx, broadcast.EventUpdate, sess)
	r.notify(ctx, sess.EmployeeID, domain.NotifyAutoClose, "Automatic clock-out",
		fmt.Sprintf("Session started %s was closed by the system (%s) after %d working minutes",
			sess.CheckIn.In(r.Location).Format("2006-01-02 15:04"), reason, sess.WorkingMinutes))
	return true, nil
}

// SweepAbandoned closes sessions older than maxAge (stale) and sessions whose
// owning device has not been seen within heartbeatTimeout (abandoned). A zero
// limit disables that check.
func (r *resolverService) SweepAbandoned(ctx context.Context, heartbeatTimeout, maxAge time.Duration) (report *SweepReport, err error) {
	report = &SweepReport{}
	fields := map[string]any{}
	done := track(ctx, r.observer, "sweep", fields)
	defer func() {
		fields["checked"] = report.Checked
		fields["closed"] = report.Closed()
		done(err)
	}()

	active, err := r.Attendance.ListActive(ctx)
	if err != nil {
		return report, classify("listing active sessions", err)
	}
	now := r.now()
	for _, s := range active {
		report.Checked++
		reason, ok, err := r.expired(ctx, s, now, heartbeatTimeout, maxAge)
		if err != nil {
			return report, err
		}
		if !ok {
			continue
		}
		closed, err := r.CloseSession(ctx, s.ID, reason)
		if err != nil {
			return report, err
		}
		if !closed {
			continue
		}
		if reason == domain.ReasonStale {
			report.Stale = append(report.Stale, s.ID)
		} else {
			report.Abandoned = append(report.Abandoned, s.ID)
		}
	}
	return report, nil
}

func (r *resolverService) expired(ctx context.Context, s *domain.AttendanceSession, now time.Time, heartbeatTimeout, maxAge time.Duration) (domain.CloseReason, bool, error) {
	if maxAge > 0 && now.Sub(s.CheckIn) > maxAge {
		return domain.ReasonStale, true, nil
	}
	if heartbeatTimeout <= 0 {
		return "", false, nil
	}
	lastSeen := s.UpdatedAt
	hb, err := r.Heartbeats.Get(ctx, s.EmployeeID, s.DeviceIdentifier)
	switch {
	case err == nil:
		if hb.LastSeenAt.After(lastSeen) {
			lastSeen = hb.LastSeenAt
		}
	case !errors.Is(err, repository.ErrNotFound):
		return "", false, classify("loading heartbeat", err)
	}
	return domain.ReasonAbandoned, now.Sub(lastSeen) > heartbeatTimeout, nil
}

// DeviceGone closes the employee's active sessions owned by the device and
// forgets its heartbeat.
func (r *resolverService) DeviceGone(ctx context.Context, employeeID, deviceIdentifier string) (closed int, err error) {
	done := track(ctx, r.observer, "device-gone", map[string]any{"employee_id": employeeID, "device": deviceIdentifier})
	defer func() { done(err) }()

	active, err := r.Attendance.ListActiveByEmployee(ctx, employeeID)
	if err != nil {
		return 0, classify("listing active sessions", err)
	}
	for _, s := range active {
		if s.DeviceIdentifier != deviceIdentifier {
			continue
		}
		ok, err := r.CloseSession(ctx, s.ID, domain.ReasonDeviceTerminated)
		if err != nil {
			return closed, err
		}
		if ok {
			closed++
		}
	}
	if err := r.Heartbeats.Delete(ctx, employeeID, deviceIdentifier); err != nil {
		return closed, classify("deleting heartbeat", err)
	}
	return closed, nil
}
