package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/journal"
	"github.com/specialistvlad/deploygrid/internal/metrics"
	"github.com/specialistvlad/deploygrid/internal/network"
)

// DefaultTimeout bounds one submission when Options.Timeout is zero.
const DefaultTimeout = 2 * time.Minute

// Mode says how an action obtained its result.
type Mode int

const (
	// ModeExecuted means the action was submitted in this run.
	ModeExecuted Mode = iota
	// ModeReused means the result came from a completed journal entry.
	ModeReused
	// ModeRecovered means an earlier submission was found on the network.
	ModeRecovered
)

func (m Mode) String() string {
	switch m {
	case ModeExecuted:
		return "executed"
	case ModeReused:
		return "reused"
	case ModeRecovered:
		return "recovered"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Outcome is the result of a successful Execute.
type Outcome struct {
	Result     string
	ReceiptRef string
	Mode       Mode
}

// Options configures an Executor.
type Options struct {
	// RunID is written into every journal record.
	RunID string
	// Timeout bounds one submission; the network is re-queried after it.
	Timeout time.Duration
	// Metrics may be nil.
	Metrics *metrics.Collector
}

// Executor performs single actions.
type Executor struct {
	journal journal.Journal
	network network.Network
	source  artifact.Source
	opts    Options
}

// New returns an executor.
func New(j journal.Journal, n network.Network, src artifact.Source, opts Options) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Executor{journal: j, network: n, source: src, opts: opts}
}

// Execute brings one action to completion, or reports why it could not.
// Every action a depends on must already have its result in results.
//
// Errors of type *ActionExecutionError are failures of the action itself
// and have been journaled. Any other error means the journal could not be
// read or written and the run must stop.
func (e *Executor) Execute(ctx context.Context, a *action.Action, results *Results) (Outcome, error) {
	ctx, logger := ctxlog.With(ctx, "action_id", a.Key())

	entry, err := e.journal.Lookup(ctx, a.ID)
	switch {
	case errors.Is(err, journal.ErrNotFound):
	case err != nil:
		return Outcome{}, fmt.Errorf("reading journal for %s: %w", a.Key(), err)
	default:
		if entry.Kind != "" && entry.Kind != a.Kind() {
			return Outcome{}, &journal.JournalCorruptionError{
				ActionID: entry.ActionID,
				Reason:   fmt.Sprintf("journaled as %s but declared as %s", entry.Kind, a.Kind()),
			}
		}
		switch entry.Status {
		case journal.StatusCompleted:
			logger.Debug("Reusing journaled result.", "result", entry.Result)
			return Outcome{Result: entry.Result, ReceiptRef: entry.ReceiptRef, Mode: ModeReused}, nil
		case journal.StatusInFlight, journal.StatusFailed:
			if entry.Status == journal.StatusInFlight || entry.Attempts > 0 {
				out, done, err := e.settle(ctx, a, entry)
				if done {
					return out, err
				}
			}
		}
	}
	return e.submit(ctx, a, results)
}

// settle looks up an earlier submission. done is false when nothing
// confirmed landed and the action should be submitted again.
func (e *Executor) settle(ctx context.Context, a *action.Action, entry journal.Entry) (Outcome, bool, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Checking network for an earlier submission.", "status", entry.Status, "attempts", entry.Attempts)

	receipt, found, err := e.lookup(ctx, a)
	if err != nil {
		out, ferr := e.fail(ctx, a, fmt.Errorf("checking earlier submission: %w", err))
		return out, true, ferr
	}
	if !found {
		logger.Info("No earlier submission landed; submitting.")
		return Outcome{}, false, nil
	}
	if receipt.Reverted {
		logger.Info("Earlier submission reverted; submitting again.", "reason", receipt.RevertReason)
		return Outcome{}, false, nil
	}
	if entry.Status == journal.StatusFailed {
		// The completion needs an in-flight entry to move from.
		if _, err := e.journal.RecordStart(ctx, journal.Record{ID: a.ID, RunID: e.opts.RunID}); err != nil {
			return Outcome{}, true, fmt.Errorf("journaling start of %s: %w", a.Key(), err)
		}
		e.opts.Metrics.JournalWrite(string(journal.StatusInFlight))
	}
	out, err := e.complete(ctx, a, receipt, ModeRecovered)
	return out, true, err
}

type prepared struct {
	deploy *network.DeployRequest
	call   *network.CallRequest
}

func (e *Executor) prepare(ctx context.Context, a *action.Action, results *Results) (prepared, error) {
	key := a.ID.CorrelationKey()
	switch {
	case a.Deploy != nil:
		d := a.Deploy
		args, err := resolveArgs(d.Args, results)
		if err != nil {
			return prepared{}, err
		}
		libs, err := resolveLibraries(d, results)
		if err != nil {
			return prepared{}, err
		}
		code, err := e.source.Bytecode(ctx, d.ArtifactName())
		if err != nil {
			return prepared{}, err
		}
		return prepared{deploy: &network.DeployRequest{
			Artifact:       d.ArtifactName(),
			Bytecode:       code,
			Args:           args,
			Libraries:      libs,
			CorrelationKey: key,
		}}, nil
	case a.Call != nil:
		target, err := resolveAddress(a.Call.Target, results)
		if err != nil {
			return prepared{}, err
		}
		args, err := resolveArgs(a.Call.Args, results)
		if err != nil {
			return prepared{}, err
		}
		return prepared{call: &network.CallRequest{
			Address:        target,
			Function:       a.Call.Function,
			Args:           args,
			CorrelationKey: key,
		}}, nil
	default:
		return prepared{}, fmt.Errorf("action %s has neither a deploy nor a call", a.Key())
	}
}

func (e *Executor) submit(ctx context.Context, a *action.Action, results *Results) (Outcome, error) {
	logger := ctxlog.FromContext(ctx)

	req, err := e.prepare(ctx, a, results)
	if err != nil {
		return e.fail(ctx, a, err)
	}

	if _, err := e.journal.RecordStart(ctx, journal.Record{ID: a.ID, RunID: e.opts.RunID}); err != nil {
		if errors.Is(err, journal.ErrAlreadyCompleted) {
			// Another process finished it between our lookup and now.
			entry, lerr := e.journal.Lookup(ctx, a.ID)
			if lerr == nil {
				return Outcome{Result: entry.Result, ReceiptRef: entry.ReceiptRef, Mode: ModeReused}, nil
			}
		}
		return Outcome{}, fmt.Errorf("journaling start of %s: %w", a.Key(), err)
	}
	e.opts.Metrics.JournalWrite(string(journal.StatusInFlight))

	logger.Info("Submitting action.", "what", a.Describe())
	e.opts.Metrics.Submitted(string(a.Kind()))
	sctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	receipt, err := e.send(sctx, req)
	cancel()

	mode := ModeExecuted
	if err != nil && !errors.Is(err, network.ErrReverted) {
		// The request may have landed anyway.
		logger.Warn("Submission outcome unknown; re-querying network.", "error", err)
		r, found, lerr := e.lookup(ctx, a)
		switch {
		case lerr != nil:
			err = errors.Join(err, fmt.Errorf("re-query: %w", lerr))
		case found && r.Reverted:
			err = r.Err()
		case found:
			receipt, err, mode = r, nil, ModeRecovered
		}
	}
	if err != nil {
		return e.fail(ctx, a, err)
	}
	return e.complete(ctx, a, receipt, mode)
}

func (e *Executor) send(ctx context.Context, req prepared) (network.Receipt, error) {
	if req.deploy != nil {
		addr, receipt, err := e.network.Deploy(ctx, *req.deploy)
		if err != nil {
			return receipt, err
		}
		receipt.ContractAddress = addr
		return receipt, nil
	}
	ret, receipt, err := e.network.Call(ctx, *req.call)
	if err != nil {
		return receipt, err
	}
	receipt.ReturnData = ret
	return receipt, nil
}

// lookup queries the network on a context that survives run cancellation,
// so an aborting run still settles what it started.
func (e *Executor) lookup(ctx context.Context, a *action.Action) (network.Receipt, bool, error) {
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.Timeout)
	defer cancel()
	return e.network.Lookup(lctx, a.ID.CorrelationKey())
}

func (e *Executor) complete(ctx context.Context, a *action.Action, receipt network.Receipt, mode Mode) (Outcome, error) {
	result, err := resultOf(a, receipt)
	if err != nil {
		return e.fail(ctx, a, err)
	}
	ref := receipt.TxHash.Hex()
	_, err = e.journal.RecordCompletion(context.WithoutCancel(ctx), journal.Record{
		ID:         a.ID,
		RunID:      e.opts.RunID,
		Result:     result,
		ReceiptRef: ref,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("journaling completion of %s: %w", a.Key(), err)
	}
	e.opts.Metrics.JournalWrite(string(journal.StatusCompleted))
	ctxlog.FromContext(ctx).Info("Action completed.", "result", result, "mode", mode.String(), "receipt", ref)
	return Outcome{Result: result, ReceiptRef: ref, Mode: mode}, nil
}

func (e *Executor) fail(ctx context.Context, a *action.Action, cause error) (Outcome, error) {
	_, jerr := e.journal.RecordFailure(context.WithoutCancel(ctx), journal.Record{
		ID:    a.ID,
		RunID: e.opts.RunID,
		Error: cause.Error(),
	})
	if jerr != nil {
		return Outcome{}, fmt.Errorf("journaling failure of %s (%v): %w", a.Key(), cause, jerr)
	}
	e.opts.Metrics.JournalWrite(string(journal.StatusFailed))
	ctxlog.FromContext(ctx).Error("Action failed.", "error", cause)
	return Outcome{}, &ActionExecutionError{ID: a.ID, Kind: a.Kind(), Cause: cause}
}

func resultOf(a *action.Action, r network.Receipt) (string, error) {
	if a.Deploy != nil {
		if r.ContractAddress == (common.Address{}) {
			return "", errors.New("receipt carries no contract address")
		}
		return r.ContractAddress.Hex(), nil
	}
	return hexutil.Encode(r.ReturnData), nil
}
