// Package worktime derives worked, break, overtime and early-departure minutes
// from session timestamps and an optional shift pattern. All functions are pure.
package worktime

import (
	"time"

	"github.com/alexanderramin/timeclock/internal/domain"
)

// DefaultStandardWorkdayMinutes is the overtime baseline when no shift pattern applies.
const DefaultStandardWorkdayMinutes = 480

type Input struct {
	CheckIn time.Time
	// End is the check-out instant, or now for a live reading.
	End          time.Time
	BreakMinutes int
	Pattern      *domain.ShiftPattern
	// Location anchors the shift's calendar date. Defaults to CheckIn's location.
	Location *time.Location
	// StandardWorkdayMinutes overrides DefaultStandardWorkdayMinutes when positive.
	StandardWorkdayMinutes int
}

type Breakdown struct {
	TotalMinutes          int
	BreakMinutes          int
	WorkingMinutes        int
	RegularMinutes        int
	OvertimeMinutes       int
	EarlyDepartureMinutes int
	IsEarlyDeparture      bool

	// Schedule is nil when no pattern applied.
	Schedule *Schedule
}

// Schedule is a shift pattern resolved onto concrete instants.
type Schedule struct {
	Start time.Time
	End   time.Time
	// OvertimeThreshold is End plus the pattern's overtime allowance.
	OvertimeThreshold time.Time
}

// Compute returns the minute breakdown for a session ending at in.End.
func Compute(in Input) Breakdown {
	total := domain.RoundMinutes(in.End.Sub(in.CheckIn))
	if total < 0 {
		total = 0
	}
	b := Breakdown{
		TotalMinutes: total,
		BreakMinutes: in.BreakMinutes,
	}
	b.WorkingMinutes = max(0, total-in.BreakMinutes)

	if in.Pattern == nil {
		standard := in.StandardWorkdayMinutes
		if standard <= 0 {
			standard = DefaultStandardWorkdayMinutes
		}
		b.OvertimeMinutes = max(0, b.WorkingMinutes-standard)
		b.RegularMinutes = b.WorkingMinutes - b.OvertimeMinutes
		return b
	}

	sched := Resolve(in.CheckIn, in.Pattern, in.Location)
	b.Schedule = &sched

	switch {
	case in.End.After(sched.OvertimeThreshold):
		b.OvertimeMinutes = min(domain.RoundMinutes(in.End.Sub(sched.End)), b.WorkingMinutes)
	case in.End.Before(sched.End):
		b.IsEarlyDeparture = true
		b.EarlyDepartureMinutes = domain.RoundMinutes(sched.End.Sub(in.End))
	}
	b.RegularMinutes = max(0, b.WorkingMinutes-b.OvertimeMinutes)
	return b
}

// Resolve anchors pattern onto the calendar day of the shift that checkIn belongs to.
// An overnight shift ends on the day after it starts; a check-in in the small hours
// before the overnight end time belongs to the shift that started the previous day.
func Resolve(checkIn time.Time, p *domain.ShiftPattern, loc *time.Location) Schedule {
	if loc == nil {
		loc = checkIn.Location()
	}
	day := checkIn.In(loc)
	if InOvernightTail(checkIn, p, loc) {
		day = day.AddDate(0, 0, -1)
	}

	start := p.Start.On(day)
	end := p.End.On(day)
	if p.Overnight() {
		end = end.AddDate(0, 0, 1)
	}
	return Schedule{
		Start:             start,
		End:               end,
		OvertimeThreshold: end.Add(p.OvertimeAllowance()),
	}
}

// Lateness classifies a clock-in against the pattern's start plus grace period.
// It is informational and never blocks a transition.
func Lateness(checkIn time.Time, p *domain.ShiftPattern, loc *time.Location) (bool, int) {
	if p == nil {
		return false, 0
	}
	sched := Resolve(checkIn, p, loc)
	grace := sched.Start.Add(time.Duration(p.GracePeriodMinutes) * time.Minute)
	if !checkIn.After(grace) {
		return false, 0
	}
	return true, domain.RoundMinutes(checkIn.Sub(sched.Start))
}

// InOvernightTail reports whether checkIn falls after midnight but at or before
// the end of an overnight pattern, i.e. within the shift that started the day before.
func InOvernightTail(checkIn time.Time, p *domain.ShiftPattern, loc *time.Location) bool {
	if p == nil || !p.Overnight() {
		return false
	}
	if loc == nil {
		loc = checkIn.Location()
	}
	return minuteOfDay(checkIn.In(loc)) <= int(p.End)
}

// ShiftDate returns the calendar date (domain.DateLayout) a check-in is recorded
// under: the day its shift starts when a pattern applies, else the local check-in day.
func ShiftDate(checkIn time.Time, p *domain.ShiftPattern, loc *time.Location) string {
	if loc == nil {
		loc = checkIn.Location()
	}
	if p != nil {
		return Resolve(checkIn, p, loc).Start.In(loc).Format(domain.DateLayout)
	}
	return checkIn.In(loc).Format(domain.DateLayout)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
