package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/timeclock/internal/config"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/metadata"
	"github.com/alexanderramin/timeclock/internal/notify"
	"github.com/alexanderramin/timeclock/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// App holds the services and settings used by CLI commands.
type App struct {
	Attendance service.AttendanceService
	Resolver   service.ResolverService
	Directory  service.DirectoryService
	Notifier   notify.Dispatcher

	Config   *config.Config
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time

	// Device is attached to every command's context and recorded on the
	// mutations it performs.
	Device metadata.Context

	// RemoteSync, when set, relays change events from other devices until
	// ctx is cancelled.
	RemoteSync func(ctx context.Context) error

	IsInteractive func() bool
	Confirm       func(title, description string) (bool, error)
	RunProgram    func(m tea.Model) error

	// Bootstrap wires the fields above once flags are parsed. Tests leave it nil.
	Bootstrap func(cmd *cobra.Command) error
	// Shutdown releases what Bootstrap opened.
	Shutdown func() error
}

// NewRootCmd creates the top-level "timeclock" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "timeclock",
		Short:         "Employee attendance clock",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Bootstrap != nil {
				if err := app.Bootstrap(cmd); err != nil {
					return err
				}
			}
			app.defaults()
			if app.Device.DeviceIdentifier != "" {
				cmd.SetContext(metadata.WithContext(commandContext(cmd), app.Device))
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.Shutdown != nil {
				return app.Shutdown()
			}
			return nil
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newClockInCmd(app),
		newBreakCmd(app),
		newClockOutCmd(app),
		newStatusCmd(app),
		newHistoryCmd(app),
		newSummaryCmd(app),
		newHeartbeatCmd(app),
		newDeviceCmd(app),
		newReconcileCmd(app),
		newMonitorCmd(app),
		newWatchCmd(app),
		newEmployeeCmd(app),
		newShiftCmd(app),
	)
	return root
}

func (a *App) defaults() {
	if a.Config == nil {
		a.Config = &config.Config{}
	}
	if a.Location == nil {
		a.Location = time.Local
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	if a.Now == nil {
		a.Now = time.Now
	}
	if a.IsInteractive == nil {
		a.IsInteractive = func() bool { return false }
	}
	if a.Confirm == nil {
		a.Confirm = confirmPrompt
	}
	if a.RunProgram == nil {
		a.RunProgram = func(m tea.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		}
	}
}

// employee resolves the employee for clock commands: the --employee flag,
// then TIMECLOCK_EMPLOYEE.
func (a *App) employee(cmd *cobra.Command) (string, error) {
	if f := cmd.Flags().Lookup("employee"); f != nil && f.Changed {
		if id := strings.TrimSpace(f.Value.String()); id != "" {
			return id, nil
		}
	}
	if a.Config != nil && strings.TrimSpace(a.Config.Employee) != "" {
		return strings.TrimSpace(a.Config.Employee), nil
	}
	return "", fmt.Errorf("no employee selected; pass --employee or set TIMECLOCK_EMPLOYEE: %w", domain.ErrValidation)
}

// today returns the calendar date in the app's location.
func (a *App) today() time.Time {
	return a.Now().In(a.Location)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
