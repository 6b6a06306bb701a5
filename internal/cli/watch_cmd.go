package cli

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/timeclock/internal/livestate"
	"github.com/alexanderramin/timeclock/internal/watch"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live view of the current shift",
		Long: "Show a live clock for the selected employee. While open, the view keeps " +
			"this device's heartbeat fresh and warns once when the shift runs into overtime.",
		RunE: func(cmd *cobra.Command, args []string) error {
			emp, err := app.employee(cmd)
			if err != nil {
				return err
			}
			return app.runWatch(commandContext(cmd), emp)
		},
	}
}

func (a *App) runWatch(parent context.Context, employeeID string) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	manager := livestate.NewManager(a.Attendance, livestate.Options{
		Debounce:     a.Config.SyncDebounce,
		PollInterval: a.Config.ReconcileInterval,
		Logger:       a.Logger,
		Now:          a.Now,
	})
	manager.Track(employeeID)
	defer manager.Untrack(employeeID)

	latch := &overtimeLatch{}
	overtime := watch.NewOvertimeWatch(a.Attendance, a.Notifier, a.Logger)
	overtime.OnCross = latch.set

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return manager.Run(gctx) })
	g.Go(func() error {
		return watch.Every(gctx, heartbeatInterval(a.Config.HeartbeatTimeout), func(work context.Context) {
			if err := a.Attendance.Heartbeat(work, employeeID); err != nil {
				a.Logger.Warn("watch: heartbeat failed", "employee_id", employeeID, "error", err)
			}
		})
	})
	g.Go(func() error {
		return watch.Every(gctx, interval(a.Config.OvertimeCheckInterval, time.Minute), func(work context.Context) {
			if _, err := overtime.Check(work, employeeID); err != nil {
				a.Logger.Warn("watch: overtime check failed", "employee_id", employeeID, "error", err)
			}
		})
	})
	if a.RemoteSync != nil {
		g.Go(func() error { return a.RemoteSync(gctx) })
	}

	runErr := a.RunProgram(newWatchModel(employeeID, manager, latch, a))
	cancel()
	return errors.Join(runErr, g.Wait())
}

// heartbeatInterval refreshes well inside the abandonment timeout.
func heartbeatInterval(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return time.Minute
	}
	return max(timeout/3, time.Second)
}
