package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timeclock/internal/cli/formatter"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/service"
	"github.com/spf13/cobra"
)

func newEmployeeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Manage employees",
	}
	cmd.AddCommand(
		newEmployeeAddCmd(app),
		newEmployeeListCmd(app),
		newEmployeeDeactivateCmd(app),
	)
	return cmd
}

func newEmployeeAddCmd(app *App) *cobra.Command {
	var id, name string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.Directory.AddEmployee(commandContext(cmd), id, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added employee %s (%s)\n", formatter.Bold(e.Name), e.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Employee ID")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newEmployeeListCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employees",
		RunE: func(cmd *cobra.Command, args []string) error {
			employees, err := app.Directory.ListEmployees(commandContext(cmd), all)
			if err != nil {
				return err
			}
			if len(employees) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No employees found.")
				return nil
			}
			rows := make([][]string, 0, len(employees))
			for _, e := range employees {
				state := formatter.StyleGreen.Render("active")
				if !e.Active {
					state = formatter.Dim("inactive")
				}
				rows = append(rows, []string{e.ID, formatter.Bold(e.Name), state})
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable([]string{"ID", "NAME", "STATE"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive employees")
	return cmd
}

func newEmployeeDeactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <id>",
		Short: "Stop an employee from clocking in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Directory.DeactivateEmployee(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated employee %s\n", args[0])
			return nil
		},
	}
}

func newShiftCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Manage shift patterns and assignments",
	}
	cmd.AddCommand(
		newShiftAddCmd(app),
		newShiftAssignCmd(app),
		newShiftUnassignCmd(app),
		newShiftListCmd(app),
	)
	return cmd
}

func newShiftAddCmd(app *App) *cobra.Command {
	var in service.PatternInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Define a shift pattern",
		Example: `  timeclock shift add --name day --start 09:00 --end 17:00 --grace 10
  timeclock shift add --name night --start 22:00 --end 06:00 --overtime 15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Directory.AddPattern(commandContext(cmd), in)
			if err != nil {
				return err
			}
			kind := ""
			if p.Overnight() {
				kind = formatter.Dim(" (overnight)")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added shift %s %s-%s%s\n", formatter.Bold(p.Name), p.Start, p.End, kind)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "Pattern name")
	cmd.Flags().StringVar(&in.Start, "start", "", "Start time HH:MM")
	cmd.Flags().StringVar(&in.End, "end", "", "End time HH:MM (earlier than start for overnight)")
	cmd.Flags().IntVar(&in.GracePeriodMinutes, "grace", 0, "Minutes late before a clock-in counts as late")
	cmd.Flags().IntVar(&in.OvertimeThresholdMinutes, "overtime", 0, "Minutes past end before overtime starts (default grace)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newShiftAssignCmd(app *App) *cobra.Command {
	var pattern, days string

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a pattern to the selected employee",
		RunE: func(cmd *cobra.Command, args []string) error {
			emp, err := app.employee(cmd)
			if err != nil {
				return err
			}
			weekdays, err := domain.ParseWeekdays(days)
			if err != nil {
				return err
			}
			if err := app.Directory.AssignPattern(commandContext(cmd), emp, pattern, weekdays); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s on %s\n", formatter.Bold(pattern), emp, weekdayList(weekdays))
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Pattern name")
	cmd.Flags().StringVar(&days, "days", "weekdays", "Days: all, weekdays, or a list like mon,wed,fri")
	_ = cmd.MarkFlagRequired("pattern")
	return cmd
}

func newShiftUnassignCmd(app *App) *cobra.Command {
	var days string

	cmd := &cobra.Command{
		Use:   "unassign",
		Short: "Remove the selected employee's pattern on some days",
		RunE: func(cmd *cobra.Command, args []string) error {
			emp, err := app.employee(cmd)
			if err != nil {
				return err
			}
			weekdays, err := domain.ParseWeekdays(days)
			if err != nil {
				return err
			}
			if err := app.Directory.UnassignPattern(commandContext(cmd), emp, weekdays); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s on %s\n", emp, weekdayList(weekdays))
			return nil
		},
	}

	cmd.Flags().StringVar(&days, "days", "all", "Days: all, weekdays, or a list like mon,wed,fri")
	return cmd
}

func newShiftListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List patterns, and the selected employee's week if one is set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()

			patterns, err := app.Directory.ListPatterns(ctx)
			if err != nil {
				return err
			}
			if len(patterns) == 0 {
				fmt.Fprintln(out, "No shift patterns defined.")
				return nil
			}
			names := make(map[string]string, len(patterns))
			rows := make([][]string, 0, len(patterns))
			for _, p := range patterns {
				names[p.ID] = p.Name
				overtime := p.OvertimeThresholdMinutes
				if overtime == 0 {
					overtime = p.GracePeriodMinutes
				}
				rows = append(rows, []string{
					formatter.Bold(p.Name), p.Start.String(), p.End.String(),
					formatter.MinutesOrDash(p.GracePeriodMinutes), formatter.MinutesOrDash(overtime),
				})
			}
			fmt.Fprint(out, formatter.RenderTable([]string{"NAME", "START", "END", "GRACE", "OVERTIME AFTER"}, rows))

			emp, err := app.employee(cmd)
			if err != nil {
				return nil
			}
			assignments, err := app.Directory.ListAssignments(ctx, emp)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s\n", formatter.Header("week for "+emp))
			if len(assignments) == 0 {
				fmt.Fprintln(out, formatter.Dim("No assignments."))
				return nil
			}
			for _, a := range assignments {
				fmt.Fprintf(out, "  %s  %s\n", a.Weekday.String()[:3], names[a.ShiftPatternID])
			}
			return nil
		},
	}
}

func weekdayList(days []time.Weekday) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strings.ToLower(d.String()[:3]))
	}
	return strings.Join(parts, ",")
}
