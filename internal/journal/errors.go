package journal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Lookup for an action without an entry.
	ErrNotFound = errors.New("journal entry not found")
	// ErrAlreadyCompleted is returned by any write to a completed entry.
	ErrAlreadyCompleted = errors.New("journal entry already completed")
	// ErrNotInFlight is returned when completing an entry that was never
	// started or has failed since.
	ErrNotInFlight = errors.New("journal entry is not in flight")
)

// JournalCorruptionError means persisted state cannot be trusted. It is
// fatal: the operator must inspect the journal before anything is re-run.
type JournalCorruptionError struct {
	// Location is the file and line or the backend key.
	Location string
	ActionID string
	Reason   string
	Err      error
}

func (e *JournalCorruptionError) Error() string {
	msg := "journal corrupted"
	if e.Location != "" {
		msg += " at " + e.Location
	}
	if e.ActionID != "" {
		msg += fmt.Sprintf(" (action %s)", e.ActionID)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *JournalCorruptionError) Unwrap() error { return e.Err }

// IsCorruption reports whether err is a *JournalCorruptionError.
func IsCorruption(err error) bool {
	var c *JournalCorruptionError
	return errors.As(err, &c)
}
