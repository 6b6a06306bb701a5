package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/timeclock/internal/domain"
)

// FriendlyError renders err for the terminal with a hint for its category.
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}
	var active *domain.AlreadyActiveError
	switch {
	case errors.As(err, &active):
		if active.SessionID != "" {
			return fmt.Sprintf("Already clocked in (session %s). Run `timeclock status` to see it, or clock in with --restart.", shortID(active.SessionID))
		}
		return "Already clocked in. Run `timeclock status` to see the open session."
	case errors.Is(err, domain.ErrNoActiveSession):
		return fmt.Sprintf("Nothing to do: %v. Run `timeclock status` to see the current state.", err)
	case errors.Is(err, domain.ErrValidation):
		return fmt.Sprintf("Invalid input: %v", err)
	case errors.Is(err, domain.ErrPersistence):
		return fmt.Sprintf("Could not reach the attendance store; nothing was changed. Try again. (%v)", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
