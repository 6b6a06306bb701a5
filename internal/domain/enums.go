package domain

type SessionStatus string

const (
	StatusClockedIn  SessionStatus = "clocked-in"
	StatusOnBreak    SessionStatus = "on-break"
	StatusClockedOut SessionStatus = "clocked-out"
)

// ValidSessionStatuses is the canonical set of accepted status strings.
var ValidSessionStatuses = map[string]bool{
	"clocked-in": true, "on-break": true, "clocked-out": true,
}

// CloseSource records who terminated a session.
type CloseSource string

const (
	ClosedByUser   CloseSource = "user"
	ClosedBySystem CloseSource = "system"
)

type CloseReason string

const (
	ReasonClockOut         CloseReason = "clock_out"
	ReasonSuperseded       CloseReason = "superseded"
	ReasonAbandoned        CloseReason = "abandoned"
	ReasonStale            CloseReason = "stale"
	ReasonDeviceTerminated CloseReason = "device_terminated"
)

type NotificationKind string

const (
	NotifyLateClockIn NotificationKind = "late_clock_in"
	NotifyOvertime    NotificationKind = "overtime"
	NotifyAutoClose   NotificationKind = "auto_clockout"
)
