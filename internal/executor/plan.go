package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/dag"
	"github.com/specialistvlad/deploygrid/internal/journal"
)

// Decision is what a run would do with an action.
type Decision string

const (
	// DecisionReuse takes the journaled result.
	DecisionReuse Decision = "reuse"
	// DecisionExecute submits an action never attempted before.
	DecisionExecute Decision = "execute"
	// DecisionRetry submits an action whose last attempt failed.
	DecisionRetry Decision = "retry"
	// DecisionRecheck looks up an in-flight submission before anything else.
	DecisionRecheck Decision = "recheck"
)

// Step is one line of a dry-run plan.
type Step struct {
	Action   *action.Action
	Decision Decision
	// Entry is the journal entry the decision was based on, if any.
	Entry *journal.Entry
}

// DryRun decides, for every action in plan order, what a run would do. It
// only reads the journal.
func DryRun(ctx context.Context, plan *dag.Plan, j journal.Journal) ([]Step, error) {
	steps := make([]Step, 0, len(plan.Actions))
	for _, a := range plan.Actions {
		entry, err := j.Lookup(ctx, a.ID)
		if errors.Is(err, journal.ErrNotFound) {
			steps = append(steps, Step{Action: a, Decision: DecisionExecute})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading journal for %s: %w", a.Key(), err)
		}
		step := Step{Action: a, Entry: &entry}
		switch entry.Status {
		case journal.StatusCompleted:
			step.Decision = DecisionReuse
		case journal.StatusInFlight:
			step.Decision = DecisionRecheck
		default:
			step.Decision = DecisionRetry
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// WritePlan prints steps as an aligned table.
func WritePlan(w io.Writer, steps []Step) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDECISION\tACTION\tWHAT\tDETAIL")
	counts := make(map[Decision]int)
	for i, s := range steps {
		counts[s.Decision]++
		detail := ""
		if s.Entry != nil {
			switch s.Decision {
			case DecisionReuse:
				detail = s.Entry.Result
			case DecisionRetry:
				detail = s.Entry.Error
			case DecisionRecheck:
				detail = fmt.Sprintf("attempts=%d", s.Entry.Attempts)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, s.Decision, s.Action.Key(), s.Action.Describe(), detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d actions: %d reuse, %d execute, %d retry, %d recheck\n",
		len(steps), counts[DecisionReuse], counts[DecisionExecute], counts[DecisionRetry], counts[DecisionRecheck])
	return err
}
