package executor

import (
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/actionid"
)

// ActionExecutionError is the failure of one action. The journal holds a
// Failed entry for it; completed work is untouched.
type ActionExecutionError struct {
	ID    actionid.ID
	Kind  actionid.Kind
	Cause error
}

func (e *ActionExecutionError) Error() string {
	return fmt.Sprintf("action %s (%s) failed: %v", e.ID, e.Kind, e.Cause)
}

func (e *ActionExecutionError) Unwrap() error { return e.Cause }
