package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/timeclock/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusPill returns a colored indicator for a session status.
func StatusPill(status domain.SessionStatus) string {
	switch status {
	case domain.StatusClockedIn:
		return StyleGreen.Render("● Clocked in")
	case domain.StatusOnBreak:
		return StyleYellow.Render("◐ On break")
	case domain.StatusClockedOut:
		return StyleDim.Render("○ Clocked out")
	default:
		return StyleDim.Render(string(status))
	}
}

// CloseBadge describes how a closed session ended. User clock-outs render
// empty so only system closes stand out in history.
func CloseBadge(by domain.CloseSource, reason domain.CloseReason) string {
	if by != domain.ClosedBySystem {
		return ""
	}
	switch reason {
	case domain.ReasonSuperseded:
		return StylePurple.Render("superseded")
	case domain.ReasonAbandoned:
		return StyleRed.Render("auto: abandoned")
	case domain.ReasonStale:
		return StyleRed.Render("auto: stale")
	case domain.ReasonDeviceTerminated:
		return StyleYellow.Render("device gone")
	default:
		return StyleDim.Render("auto: " + string(reason))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
