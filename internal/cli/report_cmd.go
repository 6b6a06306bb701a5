package cli

import (
	"fmt"

	"github.com/alexanderramin/timeclock/internal/cli/formatter"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/service"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			emp, err := app.employee(cmd)
			if err != nil {
				return err
			}
			sess, err := app.Attendance.Current(ctx, emp)
			if err != nil {
				return err
			}
			var reading *service.LiveReading
			if sess != nil {
				if reading, err = app.Attendance.Live(ctx, sess.ID); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStatus(emp, reading, app.Location))
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1: %w", domain.ErrValidation)
			}
			emp, err := app.employee(cmd)
			if err != nil {
				return err
			}
			today := app.today()
			from := today.AddDate(0, 0, -(days - 1)).Format(domain.DateLayout)

			sessions, err := app.Attendance.History(commandContext(cmd), emp, from, "")
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(sessions, app.Location))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Number of days to show, including today")
	return cmd
}

func newSummaryCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals for one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			emp, err := app.employee(cmd)
			if err != nil {
				return err
			}
			if date == "" {
				date = app.today().Format(domain.DateLayout)
			}
			sum, err := app.Attendance.DailySummary(commandContext(cmd), emp, date)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDaySummary(sum))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to summarize (YYYY-MM-DD, default today)")
	return cmd
}
