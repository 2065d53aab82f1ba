package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/executor"
	"github.com/specialistvlad/deploygrid/internal/journal/filejournal"
	"github.com/specialistvlad/deploygrid/internal/journal/redisjournal"
)

// ErrJournalNotEmpty is returned when a deploy without resume finds an
// existing journal.
var ErrJournalNotEmpty = errors.New("journal already has entries")

// DeployError is returned when a run left actions unfinished.
type DeployError struct {
	Report *executor.Report
}

func (e *DeployError) Error() string {
	r := e.Report
	switch {
	case len(r.FailedChain) > 0:
		failed := r.FailedChain[len(r.FailedChain)-1]
		return fmt.Sprintf("deployment failed at %s: %v (chain: %s)", failed, r.Err, strings.Join(r.FailedChain, " -> "))
	case r.Err != nil:
		return fmt.Sprintf("deployment aborted: %v", r.Err)
	default:
		return fmt.Sprintf("deployment incomplete: %d actions skipped after best-effort failures %s",
			len(r.Skipped), strings.Join(r.Failed, ", "))
	}
}

func (e *DeployError) Unwrap() error { return e.Report.Err }

// deploy builds the plan of the configured module and runs it.
func (a *App) deploy(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	graph, plan, err := a.loadPlan(ctx)
	if err != nil {
		return err
	}
	if len(plan.Actions) == 0 {
		logger.Warn("No actions found in module, execution not required.", "module", a.config.Module)
		return nil
	}

	if err := a.guardJournal(ctx); err != nil {
		return err
	}

	if a.config.DryRun {
		steps, err := executor.DryRun(ctx, plan, a.journal)
		if err != nil {
			return err
		}
		return executor.WritePlan(a.outW, steps)
	}

	if err := a.openSource(); err != nil {
		return err
	}
	if err := a.openNetwork(ctx, plan); err != nil {
		return err
	}

	if a.config.HealthcheckPort > 0 {
		a.startOpsServer(ctx, a.config.HealthcheckPort)
		defer func() {
			if err := a.closeOpsServer(ctx); err != nil {
				logger.Error("Ops server shutdown failed.", "error", err)
			}
		}()
	}

	logger.Info("🚀 Starting deployment...", "run_id", a.runID, "workers", a.config.Workers)
	exec := executor.New(a.journal, a.network, a.source, executor.Options{
		RunID:   a.runID,
		Timeout: a.config.ActionTimeout,
		Metrics: a.metrics,
	})
	report, runErr := exec.Run(ctx, plan, a.config.Workers)
	a.report = report
	if err := report.Write(a.outW); err != nil {
		return err
	}

	if runErr != nil || len(report.Skipped) > 0 {
		return &DeployError{Report: report}
	}
	if len(report.Failed) > 0 {
		logger.Warn("Best-effort actions failed.", "actions", report.Failed)
	}

	if err := a.exportAddresses(ctx, graph, report); err != nil {
		return err
	}
	if err := writeOutputs(a.outW, graph, report); err != nil {
		return err
	}
	logger.Info("🏁 Deployment finished.")
	return nil
}

// guardJournal refuses to continue a journal that already holds entries
// unless the operator asked to resume it.
func (a *App) guardJournal(ctx context.Context) error {
	entries, err := a.journal.Entries(ctx)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}
	if len(entries) == 0 || a.config.Resume || a.config.DryRun {
		if len(entries) > 0 {
			ctxlog.FromContext(ctx).Info("Resuming from journal.", "journal", a.journalLocation(), "entries", len(entries))
		}
		return nil
	}
	return fmt.Errorf("%w: %s holds %d entries; pass --resume to continue it", ErrJournalNotEmpty, a.journalLocation(), len(entries))
}

// journalLocation names the journal for messages.
func (a *App) journalLocation() string {
	switch j := a.journal.(type) {
	case *filejournal.Journal:
		return j.Path()
	case *redisjournal.Journal:
		return "redis key " + j.Key()
	default:
		return "the journal"
	}
}
