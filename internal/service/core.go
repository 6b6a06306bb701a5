package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexanderramin/timeclock/internal/broadcast"
	"github.com/alexanderramin/timeclock/internal/db"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/metadata"
	"github.com/alexanderramin/timeclock/internal/notify"
	"github.com/alexanderramin/timeclock/internal/repository"
	"github.com/alexanderramin/timeclock/internal/worktime"
)

// Deps wires the attendance core to its store and collaborators.
type Deps struct {
	Attendance repository.AttendanceRepo
	Employees  repository.EmployeeRepo
	Shifts     repository.ShiftRepo
	Heartbeats repository.HeartbeatRepo
	UoW        db.UnitOfWork

	// Hub delivers local change events. Remote, if set, receives the same
	// events for other devices and should not block.
	Hub      *broadcast.Hub
	Remote   broadcast.Publisher
	Notifier notify.Dispatcher

	// Device is used when a call's context carries no metadata.
	Device metadata.Context

	Location               *time.Location
	StandardWorkdayMinutes int
	Now                    func() time.Time
	Logger                 *slog.Logger
}

// core holds behaviour shared by the state machine and the resolver.
type core struct {
	Deps
	observer UseCaseObserver
}

func newCore(d Deps, observers []UseCaseObserver) *core {
	if d.Hub == nil {
		d.Hub = broadcast.NewHub()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Notifier == nil {
		d.Notifier = notify.LogDispatcher{Logger: d.Logger}
	}
	if d.StandardWorkdayMinutes <= 0 {
		d.StandardWorkdayMinutes = worktime.DefaultStandardWorkdayMinutes
	}
	return &core{Deps: d, observer: useCaseObserverOrNoop(observers)}
}

func (c *core) now() time.Time {
	return c.Now().UTC().Truncate(time.Second)
}

func (c *core) device(ctx context.Context) metadata.Context {
	if md, ok := metadata.FromContext(ctx); ok && md.DeviceIdentifier != "" {
		return md
	}
	return c.Device
}

// breakdown recomputes derived minutes for s ending at end.
func (c *core) breakdown(s *domain.AttendanceSession, end time.Time, p *domain.ShiftPattern) worktime.Breakdown {
	return worktime.Compute(worktime.Input{
		CheckIn:                s.CheckIn,
		End:                    end,
		BreakMinutes:           s.BreakMinutes + s.OpenBreakMinutes(end),
		Pattern:                p,
		Location:               c.Location,
		StandardWorkdayMinutes: c.StandardWorkdayMinutes,
	})
}

// finalize stores the breakdown on a closed session.
func (c *core) finalize(s *domain.AttendanceSession, p *domain.ShiftPattern) worktime.Breakdown {
	b := c.breakdown(s, *s.CheckOut, p)
	s.WorkingMinutes = b.WorkingMinutes
	s.RegularMinutes = b.RegularMinutes
	s.OvertimeMinutes = b.OvertimeMinutes
	s.EarlyDepartureMinutes = b.EarlyDepartureMinutes
	s.IsEarlyDeparture = b.IsEarlyDeparture
	return b
}

// shiftAt finds the pattern a check-in falls under. The small hours
// belong to the previous weekday's overnight shift when one is assigned.
func (c *core) shiftAt(ctx context.Context, employeeID string, at time.Time) (*domain.ShiftPattern, error) {
	local := at.In(c.Location)
	prev, err := c.Shifts.Lookup(ctx, employeeID, local.AddDate(0, 0, -1).Weekday())
	if err != nil {
		return nil, err
	}
	if worktime.InOvernightTail(at, prev, c.Location) {
		return prev, nil
	}
	return c.Shifts.Lookup(ctx, employeeID, local.Weekday())
}

// patternFor loads the session's shift pattern. A pattern deleted since
// check-in is treated as absent.
func patternFor(ctx context.Context, shifts repository.ShiftRepo, s *domain.AttendanceSession) (*domain.ShiftPattern, error) {
	if s.ShiftPatternID == nil {
		return nil, nil
	}
	p, err := shifts.GetPattern(ctx, *s.ShiftPatternID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (c *core) publish(ctx context.Context, typ broadcast.EventType, s *domain.AttendanceSession) {
	e := broadcast.Event{
		EmployeeID: s.EmployeeID,
		Type:       typ,
		Snapshot:   s.Clone(),
		Origin:     c.Device.DeviceIdentifier,
		At:         c.now(),
	}
	_ = c.Hub.Publish(ctx, e)
	if c.Remote != nil {
		if err := c.Remote.Publish(ctx, e); err != nil {
			c.Logger.WarnContext(ctx, "remote publish failed", "employee_id", s.EmployeeID, "error", err)
		}
	}
}

func (c *core) notify(ctx context.Context, userID string, kind domain.NotificationKind, title, message string) {
	n := notify.New(userID, kind, title, message, c.now())
	if err := c.Notifier.Notify(ctx, n); err != nil {
		c.Logger.WarnContext(ctx, "notification failed", "user_id", userID, "kind", string(kind), "error", err)
	}
}

// touch refreshes the device heartbeat. Failures are logged only.
func (c *core) touch(ctx context.Context, employeeID string, md metadata.Context) {
	if c.Heartbeats == nil || md.DeviceIdentifier == "" {
		return
	}
	err := c.Heartbeats.Touch(ctx, domain.DeviceHeartbeat{
		EmployeeID:       employeeID,
		DeviceIdentifier: md.DeviceIdentifier,
		Location:         md.Location,
		LastSeenAt:       c.now(),
	})
	if err != nil {
		c.Logger.WarnContext(ctx, "heartbeat touch failed", "employee_id", employeeID, "device", md.DeviceIdentifier, "error", err)
	}
}

// classify maps store errors onto the attendance error taxonomy. Errors that
// already carry a domain sentinel pass through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{domain.ErrValidation, domain.ErrNoActiveSession, domain.ErrAlreadyActive, domain.ErrPersistence} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}

// noSession converts a missing row into ErrNoActiveSession.
func noSession(sessionID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNoActiveSession)
	}
	return err
}
