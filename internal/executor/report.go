package executor

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Report summarizes a run. Id lists are in plan order.
type Report struct {
	RunID     string
	Executed  []string
	Reused    []string
	Recovered []string
	Skipped   []string
	Failed    []string
	// Failures holds the error of every failed action.
	Failures map[string]error
	// FailedChain is the first required failure preceded by every action it
	// depends on, in plan order.
	FailedChain []string
	// Results maps every completed action to its result.
	Results map[string]string
	// Preserved counts completed journal entries after the run.
	Preserved int
	Duration  time.Duration
	// Err is the error that aborted the run, if any.
	Err error
}

// OK reports whether every action completed.
func (r *Report) OK() bool {
	return r.Err == nil && len(r.Failed) == 0 && len(r.Skipped) == 0
}

// Submitted counts actions that reached the network in this run.
func (r *Report) Submitted() int {
	return len(r.Executed)
}

// Write prints a human readable summary.
func (r *Report) Write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s finished in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	section := func(name string, ids []string) {
		fmt.Fprintf(&b, "  %-9s %d\n", name+":", len(ids))
		for _, id := range ids {
			if err, ok := r.Failures[id]; ok {
				fmt.Fprintf(&b, "    - %s: %v\n", id, err)
				continue
			}
			fmt.Fprintf(&b, "    - %s\n", id)
		}
	}
	section("executed", r.Executed)
	section("recovered", r.Recovered)
	fmt.Fprintf(&b, "  %-9s %d\n", "reused:", len(r.Reused))
	section("failed", r.Failed)
	section("skipped", r.Skipped)
	if len(r.FailedChain) > 0 {
		fmt.Fprintf(&b, "  failing chain: %s\n", strings.Join(r.FailedChain, " -> "))
	}
	fmt.Fprintf(&b, "  journal entries preserved: %d\n", r.Preserved)
	_, err := io.WriteString(w, b.String())
	return err
}
