package action

import "fmt"

// State is the run-time lifecycle position of an action.
type State int32

const (
	// Undiscovered actions have not been reached by the builder yet.
	Undiscovered State = iota
	// Pending actions are waiting for their dependencies.
	Pending
	// InFlight actions have been submitted and await confirmation.
	InFlight
	// Completed actions have a confirmed result. Terminal.
	Completed
	// Failed actions errored in this run. Terminal for the run; a new run may
	// retry them.
	Failed
	// Skipped actions were not attempted because a dependency failed or the
	// run was aborted.
	Skipped
)

var stateNames = map[State]string{
	Undiscovered: "undiscovered",
	Pending:      "pending",
	InFlight:     "inflight",
	Completed:    "completed",
	Failed:       "failed",
	Skipped:      "skipped",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether no further transition is allowed within a run.
func (s State) Terminal() bool {
	return s == Completed || s == Failed || s == Skipped
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	switch from {
	case Undiscovered:
		return to == Pending
	case Pending:
		// A journaled result completes an action without it going in flight.
		return to == InFlight || to == Completed || to == Skipped || to == Failed
	case InFlight:
		return to == Completed || to == Failed
	default:
		return false
	}
}
