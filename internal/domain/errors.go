package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for a missing or unknown employee reference.
	ErrValidation = errors.New("validation failed")

	// ErrNoActiveSession is returned when a break or clock-out has no matching open record.
	ErrNoActiveSession = errors.New("no active session")

	// ErrAlreadyActive is returned when a clock-in loses a race against another writer.
	ErrAlreadyActive = errors.New("employee already has an active session")

	// ErrPersistence is returned when the store is unreachable or rejects a write.
	ErrPersistence = errors.New("persistence failure")
)

// AlreadyActiveError identifies the session that currently holds the
// employee's active slot. Callers should re-read state rather than retry.
type AlreadyActiveError struct {
	EmployeeID string
	SessionID  string
}

func (e *AlreadyActiveError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("employee %s: %v", e.EmployeeID, ErrAlreadyActive)
	}
	return fmt.Sprintf("employee %s: %v (session %s)", e.EmployeeID, ErrAlreadyActive, e.SessionID)
}

func (e *AlreadyActiveError) Unwrap() error { return ErrAlreadyActive }
