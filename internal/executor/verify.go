package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/dag"
	"github.com/specialistvlad/deploygrid/internal/journal"
)

// verifyJournal checks that every completed action in plan has completed
// dependencies. A completed entry built on a dependency the journal does not
// know as completed would be reused next to a fresh result of that
// dependency, so the run must not start.
func (e *Executor) verifyJournal(ctx context.Context, plan *dag.Plan) error {
	completed := make(map[string]bool, len(plan.Actions))
	status := func(key string, lookup func() (journal.Entry, error)) (bool, error) {
		if done, ok := completed[key]; ok {
			return done, nil
		}
		entry, err := lookup()
		switch {
		case errors.Is(err, journal.ErrNotFound):
			completed[key] = false
		case err != nil:
			return false, fmt.Errorf("reading journal for %s: %w", key, err)
		default:
			completed[key] = entry.Status == journal.StatusCompleted
		}
		return completed[key], nil
	}

	for _, a := range plan.Actions {
		done, err := status(a.Key(), func() (journal.Entry, error) { return e.journal.Lookup(ctx, a.ID) })
		if err != nil {
			return err
		}
		if !done {
			continue
		}
		for _, dep := range a.DependsOn {
			depDone, err := status(dep.String(), func() (journal.Entry, error) { return e.journal.Lookup(ctx, dep) })
			if err != nil {
				return err
			}
			if !depDone {
				return &journal.JournalCorruptionError{
					ActionID: a.Key(),
					Reason:   fmt.Sprintf("completed, but its dependency %s has no completed entry", dep),
				}
			}
		}
	}
	return nil
}
