package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24h).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM): %w", s, ErrValidation)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On returns the instant at this time of day on the calendar date of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, day.Location())
}

// ShiftPattern is a reference schedule. End < Start denotes an overnight shift.
type ShiftPattern struct {
	ID                       string
	Name                     string
	Start                    TimeOfDay
	End                      TimeOfDay
	GracePeriodMinutes       int
	OvertimeThresholdMinutes int
	CreatedAt                time.Time
}

// Overnight reports whether the shift ends on the following calendar day.
func (p *ShiftPattern) Overnight() bool {
	return p.End < p.Start
}

// OvertimeAllowance is the tolerance after scheduled end before time counts as overtime.
// The explicit overtime threshold wins; otherwise the grace period applies.
func (p *ShiftPattern) OvertimeAllowance() time.Duration {
	if p.OvertimeThresholdMinutes > 0 {
		return time.Duration(p.OvertimeThresholdMinutes) * time.Minute
	}
	return time.Duration(p.GracePeriodMinutes) * time.Minute
}

// Validate checks field ranges.
func (p *ShiftPattern) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("shift pattern name is required: %w", ErrValidation)
	}
	if p.Start < 0 || p.Start >= 24*60 || p.End < 0 || p.End >= 24*60 {
		return fmt.Errorf("shift pattern times out of range: %w", ErrValidation)
	}
	if p.Start == p.End {
		return fmt.Errorf("shift pattern start and end must differ: %w", ErrValidation)
	}
	if p.GracePeriodMinutes < 0 || p.OvertimeThresholdMinutes < 0 {
		return fmt.Errorf("shift pattern thresholds must be non-negative: %w", ErrValidation)
	}
	return nil
}

// ShiftAssignment binds a pattern to an employee for one weekday.
type ShiftAssignment struct {
	EmployeeID     string
	Weekday        time.Weekday
	ShiftPatternID string
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekdays accepts a comma-separated list of three-letter day names, or
// "weekdays" / "all".
func ParseWeekdays(s string) ([]time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}, nil
	case "weekdays":
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}, nil
	}
	seen := make(map[time.Weekday]bool)
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if len(name) > 3 {
			name = name[:3]
		}
		wd, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q: %w", part, ErrValidation)
		}
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	return out, nil
}
