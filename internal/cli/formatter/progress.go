package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderShiftProgress renders worked time against the scheduled minutes,
// e.g. [████░░░░] 52%. The bar turns yellow near the end and red once the
// shift runs past its scheduled length.
func RenderShiftProgress(workedMin, scheduledMin, width int) string {
	if width < 2 {
		width = 2
	}
	pct := 0.0
	if scheduledMin > 0 {
		pct = float64(workedMin) / float64(scheduledMin)
	}
	if pct < 0 {
		pct = 0
	}

	shown := min(pct, 1)
	filled := int(shown * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case pct > 1:
		style = StyleRed
	case pct >= 0.9:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}
