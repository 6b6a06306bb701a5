package cli

import (
	"fmt"

	"github.com/alexanderramin/timeclock/internal/cli/formatter"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/spf13/cobra"
)

func newClockInCmd(app *App) *cobra.Command {
	var restart bool

	cmd := &cobra.Command{
		Use:   "clock-in",
		Short: "Start a shift",
		Long: "Start a shift for the selected employee. If a session is already open " +
			"(for example on another device) the command refuses unless --restart is given, " +
			"in which case the open session is closed as superseded.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			emp, err := app.employee(cmd)
			if err != nil {
				return err
			}

			if !restart {
				current, err := app.Attendance.Current(ctx, emp)
				if err != nil {
					return err
				}
				if current != nil {
					return &domain.AlreadyActiveError{EmployeeID: emp, SessionID: current.ID}
				}
			}

			id, err := app.Attendance.ClockIn(ctx, emp)
			if err != nil {
				return err
			}
			sess, err := app.Attendance.Get(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clocked in at %s %s\n",
				formatter.Bold(formatter.ClockTime(sess.CheckIn, app.Location)), formatter.TruncID(id))
			if sess.IsLate {
				fmt.Fprintln(out, formatter.StyleYellow.Render(
					fmt.Sprintf("Late by %s", formatter.FormatMinutes(sess.LateMinutes))))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&restart, "restart", false, "Close any open session and start a new one")
	return cmd
}

func newBreakCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "break",
		Short: "Start or end a break",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start a break",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := commandContext(cmd)
				sess, err := currentSession(cmd, app)
				if err != nil {
					return err
				}
				if err := app.Attendance.BreakStart(ctx, sess.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Break started at %s\n",
					formatter.ClockTime(app.Now(), app.Location))
				return nil
			},
		},
		&cobra.Command{
			Use:   "end",
			Short: "End the current break",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := commandContext(cmd)
				sess, err := currentSession(cmd, app)
				if err != nil {
					return err
				}
				if err := app.Attendance.BreakEnd(ctx, sess.ID); err != nil {
					return err
				}
				updated, err := app.Attendance.Get(ctx, sess.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Back to work. Breaks today: %s\n",
					formatter.FormatMinutes(updated.BreakMinutes))
				return nil
			},
		},
	)
	return cmd
}

func newClockOutCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clock-out",
		Short: "End the current shift",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			sess, err := currentSession(cmd, app)
			if err != nil {
				return err
			}

			if sess.Status == domain.StatusOnBreak && !yes && app.IsInteractive() {
				ok, err := app.Confirm("You are on a break.",
					"Clocking out ends the break now and counts it as break time.")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			sum, err := app.Attendance.ClockOut(ctx, sess.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatClockOut(sess.ID, sum))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// currentSession returns the selected employee's open session.
func currentSession(cmd *cobra.Command, app *App) (*domain.AttendanceSession, error) {
	emp, err := app.employee(cmd)
	if err != nil {
		return nil, err
	}
	sess, err := app.Attendance.Current(commandContext(cmd), emp)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("employee %s is not clocked in: %w", emp, domain.ErrNoActiveSession)
	}
	return sess, nil
}
