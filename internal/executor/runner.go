package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/dag"
	"github.com/specialistvlad/deploygrid/internal/journal"
	"github.com/specialistvlad/deploygrid/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool size when Run is given zero.
const DefaultWorkers = 4

type finished struct {
	action  *action.Action
	outcome Outcome
	err     error
	elapsed time.Duration
}

// run is the state of one Run call. Only the dispatcher goroutine touches
// it.
type run struct {
	plan      *dag.Plan
	position  map[string]int
	states    map[string]action.State
	remaining map[string]int
	ready     *dag.ReadyQueue
	report    *Report
	metrics   *metrics.Collector
}

// Run executes plan on a pool of workers and reports what happened. The
// returned error is the report's Err.
func (e *Executor) Run(ctx context.Context, plan *dag.Plan, workers int) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	if workers <= 0 {
		workers = DefaultWorkers
	}
	start := time.Now()

	r := &run{
		plan:      plan,
		position:  make(map[string]int, len(plan.Actions)),
		states:    make(map[string]action.State, len(plan.Actions)),
		remaining: make(map[string]int, len(plan.Actions)),
		ready:     &dag.ReadyQueue{},
		report:    &Report{RunID: e.opts.RunID, Failures: make(map[string]error)},
		metrics:   e.opts.Metrics,
	}
	for i, a := range plan.Actions {
		key := a.Key()
		r.position[key] = i
		r.states[key] = action.Pending
		r.remaining[key] = len(a.DependsOn)
		if len(a.DependsOn) == 0 {
			r.ready.PushItem(key, a.Order)
		}
	}

	if err := e.verifyJournal(ctx, plan); err != nil {
		logger.Error("Journal does not match the plan; nothing was submitted.", "error", err)
		for _, a := range plan.Actions {
			r.skip(a.Key())
		}
		r.report.Err = err
		r.report.Duration = time.Since(start)
		r.metrics.RunFinished(false, r.report.Duration)
		return r.report, err
	}

	results := NewResults()
	work := make(chan *action.Action)
	done := make(chan finished)

	g := new(errgroup.Group)
	for i := 0; i < workers; i++ {
		workerID := i
		g.Go(func() error {
			e.worker(ctx, work, done, results, workerID)
			return nil
		})
	}

	logger.Info("Starting run.", "run_id", e.opts.RunID, "actions", len(plan.Actions), "workers", workers)
	var (
		running int
		aborted bool
		runErr  error
		ctxDone = ctx.Done()
	)
	abort := func(err error) {
		if !aborted {
			logger.Warn("Aborting run; no new actions will start.", "reason", err)
		}
		aborted = true
		if runErr == nil {
			runErr = err
		}
	}

	for {
		if !aborted && ctx.Err() != nil {
			ctxDone = nil
			abort(ctx.Err())
		}
		for !aborted && running < workers && r.ready.Len() > 0 {
			a, _ := plan.Action(r.ready.PopItem())
			r.states[a.Key()] = action.InFlight
			r.metrics.ActionStarted()
			running++
			work <- a
		}
		if running == 0 {
			break
		}

		select {
		case f := <-done:
			running--
			if err := r.finish(ctx, f, results); err != nil {
				abort(err)
			}
		case <-ctxDone:
			ctxDone = nil
			abort(ctx.Err())
		}
	}
	close(work)
	_ = g.Wait()

	for _, a := range plan.Actions {
		if r.states[a.Key()] == action.Pending {
			r.skip(a.Key())
		}
	}
	r.report.sortByPlan(r.position)

	r.report.Results = results.Snapshot()
	r.report.Err = runErr
	if entries, err := e.journal.Entries(context.WithoutCancel(ctx)); err == nil {
		for _, entry := range entries {
			if entry.Status == journal.StatusCompleted {
				r.report.Preserved++
			}
		}
	} else if runErr == nil {
		r.report.Err = fmt.Errorf("reading journal after run: %w", err)
	}
	r.report.Duration = time.Since(start)
	r.metrics.RunFinished(r.report.OK(), r.report.Duration)

	logger.Info("Run finished.",
		"executed", len(r.report.Executed),
		"reused", len(r.report.Reused),
		"recovered", len(r.report.Recovered),
		"failed", len(r.report.Failed),
		"skipped", len(r.report.Skipped),
		"duration", r.report.Duration)
	return r.report, r.report.Err
}

// finish applies one worker result. It returns an error when the run must
// stop dispatching.
func (r *run) finish(ctx context.Context, f finished, results *Results) error {
	key := f.action.Key()
	kind := string(f.action.Kind())

	if f.err != nil {
		r.states[key] = action.Failed
		r.report.Failed = append(r.report.Failed, key)
		r.report.Failures[key] = f.err
		r.metrics.ActionFinished(kind, metrics.OutcomeFailed, f.elapsed)
		r.skipDependents(ctx, key)

		var aee *ActionExecutionError
		if !errors.As(f.err, &aee) {
			return f.err
		}
		if f.action.BestEffort {
			ctxlog.FromContext(ctx).Warn("Best-effort action failed; continuing.", "action_id", key, "error", f.err)
			return nil
		}
		if r.report.FailedChain == nil {
			r.report.FailedChain = r.chain(key)
		}
		return f.err
	}

	r.states[key] = action.Completed
	results.Set(key, f.outcome.Result)
	switch f.outcome.Mode {
	case ModeReused:
		r.report.Reused = append(r.report.Reused, key)
		r.metrics.ActionFinished(kind, metrics.OutcomeReused, f.elapsed)
	case ModeRecovered:
		r.report.Recovered = append(r.report.Recovered, key)
		r.metrics.ActionFinished(kind, metrics.OutcomeRecovered, f.elapsed)
	default:
		r.report.Executed = append(r.report.Executed, key)
		r.metrics.ActionFinished(kind, metrics.OutcomeExecuted, f.elapsed)
	}

	dependents, err := r.plan.Graph.Dependents(key)
	if err != nil {
		return fmt.Errorf("unlocking dependents of %s: %w", key, err)
	}
	for _, dep := range dependents {
		r.remaining[dep]--
		if r.remaining[dep] == 0 && r.states[dep] == action.Pending {
			a, _ := r.plan.Action(dep)
			r.ready.PushItem(dep, a.Order)
		}
	}
	return nil
}

// skipDependents marks everything downstream of key as skipped.
func (r *run) skipDependents(ctx context.Context, key string) {
	queue := []string{key}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		dependents, err := r.plan.Graph.Dependents(current)
		if err != nil {
			continue
		}
		for _, dep := range dependents {
			if r.states[dep] != action.Pending {
				continue
			}
			ctxlog.FromContext(ctx).Debug("Skipping dependent of failed action.", "action_id", dep, "failed", key)
			r.skip(dep)
			queue = append(queue, dep)
		}
	}
}

func (r *run) skip(key string) {
	r.states[key] = action.Skipped
	r.report.Skipped = append(r.report.Skipped, key)
	if a, ok := r.plan.Action(key); ok {
		r.metrics.ActionSkipped(string(a.Kind()))
	}
}

func (r *run) chain(key string) []string {
	ancestors, err := r.plan.Graph.Ancestors(key)
	if err != nil {
		return []string{key}
	}
	chain := append(ancestors, key)
	sortByPosition(chain, r.position)
	return chain
}
