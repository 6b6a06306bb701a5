package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/timeclock/internal/watch"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newMonitorCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the auto-clockout monitor and overtime watch until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Monitoring (sweep every %s, overtime every %s). Ctrl+C to stop.\n",
				app.Config.ReconcileInterval, app.Config.OvertimeCheckInterval)
			return app.runMonitor(ctx)
		},
	}
}

// runMonitor supervises the background tasks until ctx ends or one fails.
func (a *App) runMonitor(ctx context.Context) error {
	sweeper := a.sweeper()
	overtime := watch.NewOvertimeWatch(a.Attendance, a.Notifier, a.Logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watch.Every(ctx, interval(a.Config.ReconcileInterval, 30*time.Second), func(work context.Context) {
			_, _ = sweeper.Run(work)
		})
	})
	g.Go(func() error {
		return watch.Every(ctx, interval(a.Config.OvertimeCheckInterval, time.Minute), func(work context.Context) {
			employees, err := a.Directory.ListEmployees(work, false)
			if err != nil {
				a.Logger.Warn("monitor: listing employees failed", "error", err)
				return
			}
			ids := make([]string, 0, len(employees))
			for _, e := range employees {
				ids = append(ids, e.ID)
			}
			overtime.CheckAll(work, ids)
		})
	})
	if a.RemoteSync != nil {
		g.Go(func() error { return a.RemoteSync(ctx) })
	}
	return g.Wait()
}

func interval(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
