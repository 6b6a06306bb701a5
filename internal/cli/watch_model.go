package cli

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/timeclock/internal/cli/formatter"
	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/alexanderramin/timeclock/internal/livestate"
	"github.com/alexanderramin/timeclock/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg time.Time

type watchKeyMap struct {
	Quit    key.Binding
	Refresh key.Binding
}

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

// overtimeLatch carries the last overtime warning from the watch task to the view.
type overtimeLatch struct {
	mu      sync.Mutex
	reading *service.LiveReading
}

func (l *overtimeLatch) set(r service.LiveReading) {
	l.mu.Lock()
	l.reading = &r
	l.mu.Unlock()
}

func (l *overtimeLatch) get() *service.LiveReading {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reading
}

// watchModel is the live clock view. It never reads the store itself: state
// comes from the session manager snapshot on every display tick.
type watchModel struct {
	employeeID string
	snapshot   func() (livestate.ActiveSession, bool)
	refresh    func()
	overtime   *overtimeLatch
	now        func() time.Time
	tick       time.Duration
	loc        *time.Location
	keys       watchKeyMap

	state    livestate.ActiveSession
	loaded   bool
	quitting bool
}

func newWatchModel(employeeID string, manager *livestate.Manager, latch *overtimeLatch, app *App) watchModel {
	return watchModel{
		employeeID: employeeID,
		snapshot:   func() (livestate.ActiveSession, bool) { return manager.Snapshot(employeeID) },
		refresh:    manager.Refresh,
		overtime:   latch,
		now:        app.Now,
		tick:       interval(app.Config.DisplayTick, time.Second),
		loc:        app.Location,
		keys:       defaultWatchKeys(),
	}
}

func (m watchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return m.tickCmd()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.state, m.loaded = m.snapshot()
		return m, m.tickCmd()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.refresh != nil {
				m.refresh()
			}
		}
	}
	return m, nil
}

// overtimeWarning returns the warning for the session on screen, if any.
func (m watchModel) overtimeWarning() *service.LiveReading {
	if m.overtime == nil || m.state.Session == nil {
		return nil
	}
	r := m.overtime.get()
	if r == nil || r.Session == nil || r.Session.ID != m.state.Session.ID {
		return nil
	}
	if m.state.Session.Status != domain.StatusClockedIn {
		return nil
	}
	return r
}

func (m watchModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(formatter.Header("timeclock " + m.employeeID))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(formatter.Dim("Loading..."))
		b.WriteString("\n")
	case !m.state.ClockedIn():
		b.WriteString(formatter.StatusPill(domain.StatusClockedOut))
		b.WriteString("\n")
	default:
		s := m.state.Session
		now := m.now()
		breakMin := s.BreakMinutes + s.OpenBreakMinutes(now)
		worked := now.Sub(s.CheckIn) - time.Duration(breakMin)*time.Minute

		fmt.Fprintf(&b, "%s  %s %s\n\n", formatter.StatusPill(s.Status),
			formatter.Dim("since"), formatter.ClockTime(s.CheckIn, m.loc))
		fmt.Fprintf(&b, "%s %s\n", formatter.Dim("Worked"), formatter.Bold(formatter.Elapsed(worked)))
		if s.Status == domain.StatusOnBreak && s.BreakStart != nil {
			fmt.Fprintf(&b, "%s %s\n", formatter.Dim("Break "), formatter.StyleYellow.Render(formatter.Elapsed(now.Sub(*s.BreakStart))))
		}
		if breakMin > 0 {
			fmt.Fprintf(&b, "%s %s\n", formatter.Dim("Breaks"), formatter.FormatMinutes(breakMin))
		}
		if r := m.overtimeWarning(); r != nil {
			b.WriteString("\n")
			b.WriteString(formatter.StyleRed.Render(fmt.Sprintf("Overtime: past scheduled end, %s so far",
				formatter.FormatMinutes(r.Breakdown.OvertimeMinutes))))
			b.WriteString("\n")
		}
	}
	if m.state.Err != nil {
		fmt.Fprintf(&b, "\n%s\n", formatter.StyleYellow.Render("sync: "+m.state.Err.Error()))
	}

	b.WriteString("\n")
	b.WriteString(formatter.Dim(fmt.Sprintf("%s %s  %s %s",
		m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc,
		m.keys.Refresh.Help().Key, m.keys.Refresh.Help().Desc)))
	return b.String()
}
