package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timeclock/internal/cli/formatter"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/watch"
	"github.com/spf13/cobra"
)

func newHeartbeatCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat",
		Short: "Report that this device is still in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			emp, err := app.employee(cmd)
			if err != nil {
				return err
			}
			if err := app.Attendance.Heartbeat(commandContext(cmd), emp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Heartbeat recorded for %s on %s\n", emp, app.Device.DeviceIdentifier)
			return nil
		},
	}
}

func newDeviceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "device",
		Short: "Manage devices",
	}

	var device string
	logout := &cobra.Command{
		Use:   "logout",
		Short: "Declare a device gone and close its open sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			emp, err := app.employee(cmd)
			if err != nil {
				return err
			}
			id := strings.TrimSpace(device)
			if id == "" {
				id = app.Device.DeviceIdentifier
			}
			if id == "" {
				return fmt.Errorf("no device given: %w", domain.ErrValidation)
			}
			closed, err := app.Resolver.DeviceGone(commandContext(cmd), emp, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Device %s logged out, %d session(s) closed\n", id, closed)
			return nil
		},
	}
	logout.Flags().StringVar(&device, "id", "", "Device identifier (default this device)")

	cmd.AddCommand(logout)
	return cmd
}

func newReconcileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one auto-clockout pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.sweeper().Run(commandContext(cmd))
			if report == nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSweep(report))
			return err
		},
	}
}

func (a *App) sweeper() *watch.Sweeper {
	return &watch.Sweeper{
		Resolver:         a.Resolver,
		HeartbeatTimeout: a.Config.HeartbeatTimeout,
		MaxAge:           a.Config.MaxSessionDuration,
		Logger:           a.Logger,
	}
}
