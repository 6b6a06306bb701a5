package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/service"
)

const shiftProgressWidth = 20

// FormatStatus renders the employee's current session, or a clocked-out note.
func FormatStatus(employeeID string, r *service.LiveReading, loc *time.Location) string {
	if r == nil || r.Session == nil {
		return RenderBox("Status", fmt.Sprintf("%s  %s\n", Bold(employeeID), StatusPill(domain.StatusClockedOut)))
	}
	s := r.Session
	b := r.Breakdown

	var out strings.Builder
	fmt.Fprintf(&out, "%s  %s\n\n", Bold(employeeID), StatusPill(s.Status))
	fmt.Fprintf(&out, "%s %s  %s\n", Dim("Session "), TruncID(s.ID), Dim(s.Date))
	fmt.Fprintf(&out, "%s %s\n", Dim("Checked in"), ClockTime(s.CheckIn, loc))
	if s.Status == domain.StatusOnBreak {
		fmt.Fprintf(&out, "%s %s\n", Dim("Break since"), OptionalClockTime(s.BreakStart, loc))
	}
	fmt.Fprintf(&out, "%s %s  %s %s\n", Dim("Worked    "), FormatMinutes(b.WorkingMinutes),
		Dim("break"), FormatMinutes(b.BreakMinutes))

	if b.Schedule != nil {
		scheduled := int(b.Schedule.End.Sub(b.Schedule.Start) / time.Minute)
		fmt.Fprintf(&out, "%s %s-%s  %s\n", Dim("Shift     "),
			ClockTime(b.Schedule.Start, loc), ClockTime(b.Schedule.End, loc),
			RenderShiftProgress(b.WorkingMinutes, scheduled, shiftProgressWidth))
	}
	if s.IsLate {
		out.WriteString(StyleYellow.Render(fmt.Sprintf("Late by %s", FormatMinutes(s.LateMinutes))) + "\n")
	}
	if r.OvertimeCrossed {
		out.WriteString(StyleRed.Render(fmt.Sprintf("Overtime %s", FormatMinutes(b.OvertimeMinutes))) + "\n")
	}
	if s.DeviceIdentifier != "" {
		fmt.Fprintf(&out, "\n%s\n", Dim(fmt.Sprintf("device %s %s", s.DeviceIdentifier, s.Location)))
	}
	return RenderBox("Status", out.String())
}

// FormatClockOut renders the clock-out result line.
func FormatClockOut(sessionID string, sum service.Summary) string {
	line := fmt.Sprintf("Clocked out %s: worked %s, break %s",
		TruncID(sessionID), Bold(FormatMinutes(sum.WorkingMinutes)), FormatMinutes(sum.BreakMinutes))
	if sum.OvertimeMinutes > 0 {
		line += ", " + StyleRed.Render("overtime "+FormatMinutes(sum.OvertimeMinutes))
	}
	return line + "\n"
}

// FormatHistory renders sessions newest first.
func FormatHistory(sessions []*domain.AttendanceSession, loc *time.Location) string {
	headers := []string{"ID", "DATE", "IN", "OUT", "WORKED", "BREAK", "OT", "STATUS", "NOTE"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		note := CloseBadge(s.ClosedBy, s.CloseReason)
		if s.IsLate {
			note = strings.TrimSpace(StyleYellow.Render("late") + " " + note)
		}
		if s.IsEarlyDeparture {
			note = strings.TrimSpace(note + " " + StyleBlue.Render("early"))
		}
		rows = append(rows, []string{
			TruncID(s.ID),
			s.Date,
			ClockTime(s.CheckIn, loc),
			OptionalClockTime(s.CheckOut, loc),
			MinutesOrDash(s.WorkingMinutes),
			MinutesOrDash(s.BreakMinutes),
			MinutesOrDash(s.OvertimeMinutes),
			StatusPill(s.Status),
			note,
		})
	}
	return RenderTable(headers, rows)
}

// FormatDaySummary renders totals for one day.
func FormatDaySummary(sum *service.DaySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n", Bold(sum.EmployeeID), Dim(sum.Date))
	rows := [][]string{
		{"Sessions", fmt.Sprintf("%d", sum.Sessions)},
		{"Worked", FormatMinutes(sum.WorkingMinutes)},
		{"Regular", FormatMinutes(sum.RegularMinutes)},
		{"Overtime", MinutesOrDash(sum.OvertimeMinutes)},
		{"Break", MinutesOrDash(sum.BreakMinutes)},
		{"Late", MinutesOrDash(sum.LateMinutes)},
		{"Early departure", MinutesOrDash(sum.EarlyDepartureMinutes)},
	}
	b.WriteString(RenderTable([]string{"", ""}, rows))
	if sum.OpenSessionID != "" {
		fmt.Fprintf(&b, "\n%s\n", StyleGreen.Render("Open session "+sum.OpenSessionID+" not included"))
	}
	return RenderBox("Summary", b.String())
}

// FormatSweep renders one auto-clockout pass.
func FormatSweep(r *service.SweepReport) string {
	if r.Closed() == 0 {
		return Dim(fmt.Sprintf("Checked %d active sessions, nothing to close.", r.Checked)) + "\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Checked %d active sessions, closed %d.\n", r.Checked, r.Closed())
	for _, id := range r.Abandoned {
		fmt.Fprintf(&b, "  %s %s\n", TruncID(id), StyleRed.Render("abandoned"))
	}
	for _, id := range r.Stale {
		fmt.Fprintf(&b, "  %s %s\n", TruncID(id), StyleRed.Render("stale"))
	}
	return b.String()
}
