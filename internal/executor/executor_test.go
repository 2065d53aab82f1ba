package executor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/specialistvlad/deploygrid/internal/journal"
	"github.com/specialistvlad/deploygrid/internal/journal/memjournal"
	"github.com/specialistvlad/deploygrid/internal/network"
	"github.com/specialistvlad/deploygrid/internal/network/simnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type fixture struct {
	journal *memjournal.Journal
	sim     *simnet.Network
	net     *recorder
	exec    *Executor
}

func newFixture(opts ...simnet.Option) *fixture {
	j := memjournal.New()
	sim := simnet.New(opts...)
	rec := &recorder{Network: sim}
	return &fixture{
		journal: j,
		sim:     sim,
		net:     rec,
		exec:    New(j, rec, artifact.StubSource{}, Options{RunID: "run-1", Timeout: time.Second}),
	}
}

func TestExecuteDeploy(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := newDeploy("Router", 0)

	out, err := f.exec.Execute(ctx, a, NewResults())
	require.NoError(t, err)
	assert.Equal(t, ModeExecuted, out.Mode)
	assert.Equal(t, crypto.CreateAddress(simnet.DefaultDeployer, 0).Hex(), out.Result)

	entry, err := f.journal.Lookup(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusCompleted, entry.Status)
	assert.Equal(t, out.Result, entry.Result)
	assert.Equal(t, out.ReceiptRef, entry.ReceiptRef)
	assert.Equal(t, "run-1", entry.RunID)

	require.Len(t, f.net.deploys, 1)
	assert.Equal(t, a.ID.CorrelationKey(), f.net.deploys[0].CorrelationKey)
	assert.Equal(t, "Router", f.net.deploys[0].Artifact)
}

func TestExecuteReusesCompletedEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := newDeploy("Router", 0)

	first, err := f.exec.Execute(ctx, a, NewResults())
	require.NoError(t, err)
	second, err := f.exec.Execute(ctx, a, NewResults())
	require.NoError(t, err)

	assert.Equal(t, ModeReused, second.Mode)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, 1, f.sim.SubmissionCount())
}

func TestExecuteResolvesArguments(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	results := NewResults()
	run := func(a *action.Action) Outcome {
		t.Helper()
		out, err := f.exec.Execute(ctx, a, results)
		require.NoError(t, err)
		results.Set(a.Key(), out.Result)
		return out
	}

	store := newDeploy("RoleStore", 0)
	lib := newDeploy("MarketUtils", 1)
	lib.Deploy.Kind = artifact.KindLibrary
	run(store)
	run(lib)

	factory := newDeploy("PoolFactory", 2)
	factory.Deploy.Args = []artifact.Arg{
		artifact.ActionResult(store.ID),
		artifact.Literal(cty.NumberIntVal(30)),
		artifact.List(artifact.Literal(cty.StringVal("x")), artifact.ActionResult(store.ID)),
	}
	factory.Deploy.Libraries = map[string]actionid.ID{"MarketUtils": lib.ID}
	run(factory)

	storeAddr, _ := results.Get(store.Key())
	libAddr, _ := results.Get(lib.Key())
	require.Len(t, f.net.deploys, 3)
	req := f.net.deploys[2]
	require.Len(t, req.Args, 3)

	var addr string
	require.NoError(t, json.Unmarshal(req.Args[0], &addr))
	assert.Equal(t, storeAddr, addr)
	assert.JSONEq(t, `30`, string(req.Args[1]))
	assert.JSONEq(t, `["x","`+storeAddr+`"]`, string(req.Args[2]))
	assert.Equal(t, libAddr, req.Libraries["MarketUtils"].Hex())

	grant := newCall("grantRole1", 3, store.ID, "grantRole(address,bytes32)",
		artifact.ActionResult(factory.ID), artifact.Literal(cty.StringVal("0x01")))
	out := run(grant)
	assert.Equal(t, "0x", out.Result)
	require.Len(t, f.net.calls, 1)
	assert.Equal(t, storeAddr, f.net.calls[0].Address.Hex())
	assert.Equal(t, "grantRole(address,bytes32)", f.net.calls[0].Function)
}

func TestExecuteMissingDependencyResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	b := newDeploy("B", 1, deployID("A"))

	_, err := f.exec.Execute(ctx, b, NewResults())
	var aee *ActionExecutionError
	require.ErrorAs(t, err, &aee)
	assert.Equal(t, b.ID, aee.ID)
	assert.ErrorContains(t, err, "result of M#A is not available")
	assert.Equal(t, 0, f.sim.SubmissionCount())

	entry, lerr := f.journal.Lookup(ctx, b.ID)
	require.NoError(t, lerr)
	assert.Equal(t, journal.StatusFailed, entry.Status)
}

func TestExecuteMissingBytecode(t *testing.T) {
	ctx := context.Background()
	j := memjournal.New()
	sim := simnet.New()
	exec := New(j, sim, missingSource{}, Options{})

	_, err := exec.Execute(ctx, newDeploy("Ghost", 0), NewResults())
	require.ErrorIs(t, err, artifact.ErrNotFound)
	var aee *ActionExecutionError
	assert.ErrorAs(t, err, &aee)
	assert.Equal(t, 0, sim.SubmissionCount())
}

func TestExecuteRecoversInFlightSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := newDeploy("Router", 0)

	// A crashed run: journaled in flight, submission landed, never confirmed.
	_, err := f.journal.RecordStart(ctx, journal.Record{ID: a.ID, RunID: "run-0"})
	require.NoError(t, err)
	landed, _, err := f.sim.Deploy(ctx, network.DeployRequest{Bytecode: "0x60", CorrelationKey: a.ID.CorrelationKey()})
	require.NoError(t, err)

	out, err := f.exec.Execute(ctx, a, NewResults())
	require.NoError(t, err)
	assert.Equal(t, ModeRecovered, out.Mode)
	assert.Equal(t, landed.Hex(), out.Result)
	assert.Equal(t, 1, f.sim.SubmissionCount(), "no second submission")

	entry, err := f.journal.Lookup(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, journal.StatusCompleted, entry.Status)
}

func TestExecuteResubmitsInFlightThatNeverLanded(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := newDeploy("Router", 0)
	_, err := f.journal.RecordStart(ctx, journal.Record{ID: a.ID})
	require.NoError(t, err)

	out, err := f.exec.Execute(ctx, a, NewResults())
	require.NoError(t, err)
	assert.Equal(t, ModeExecuted, out.Mode)
	assert.Equal(t, 1, f.sim.SubmissionCount())

	entry, _ := f.journal.Lookup(ctx, a.ID)
	assert.Equal(t, 2, entry.Attempts)
}

func TestExecuteUnknownOutcome(t *testing.T) {
	tests := []struct {
		name  string
		fault simnet.Fault
	}{
		{"timeout after landing", simnet.FaultHang},
		{"lost confirmation", simnet.FaultDropConfirmation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			j := memjournal.New()
			sim := simnet.New()
			exec := New(j, sim, artifact.StubSource{}, Options{Timeout: 30 * time.Millisecond})
			a := newDeploy("Slow", 0)
			sim.Inject(a.ID.CorrelationKey(), tc.fault)

			out, err := exec.Execute(ctx, a, NewResults())
			require.NoError(t, err)
			assert.Equal(t, ModeRecovered, out.Mode)
			assert.Equal(t, crypto.CreateAddress(simnet.DefaultDeployer, 0).Hex(), out.Result)
			assert.Equal(t, 1, sim.SubmissionCount())

			entry, _ := j.Lookup(ctx, a.ID)
			assert.Equal(t, journal.StatusCompleted, entry.Status)
		})
	}
}

func TestExecuteFailures(t *testing.T) {
	t.Run("lost request fails and a rerun retries it", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		a := newDeploy("Flaky", 0)
		f.sim.Inject(a.ID.CorrelationKey(), simnet.FaultTransport)

		_, err := f.exec.Execute(ctx, a, NewResults())
		var aee *ActionExecutionError
		require.ErrorAs(t, err, &aee)
		assert.ErrorIs(t, err, network.ErrTransport)

		entry, _ := f.journal.Lookup(ctx, a.ID)
		assert.Equal(t, journal.StatusFailed, entry.Status)
		assert.Contains(t, entry.Error, "connection reset")

		out, err := f.exec.Execute(ctx, a, NewResults())
		require.NoError(t, err)
		assert.Equal(t, ModeExecuted, out.Mode)
		assert.Equal(t, 2, f.sim.SubmissionCount())
	})

	t.Run("revert", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		a := newDeploy("Bad", 0)
		f.sim.Inject(a.ID.CorrelationKey(), simnet.FaultRevert)

		_, err := f.exec.Execute(ctx, a, NewResults())
		assert.ErrorIs(t, err, network.ErrReverted)

		// The reverted receipt does not block a retry.
		out, err := f.exec.Execute(ctx, a, NewResults())
		require.NoError(t, err)
		assert.Equal(t, ModeExecuted, out.Mode)
	})

	t.Run("call on missing code reverts", func(t *testing.T) {
		ctx := context.Background()
		f := newFixture()
		results := NewResults()
		results.Set("M#Target", "0x00000000000000000000000000000000000000aa")
		c := newCall("poke", 1, deployID("Target"), "poke()")

		_, err := f.exec.Execute(ctx, c, results)
		assert.ErrorIs(t, err, network.ErrReverted)
		assert.ErrorContains(t, err, "no code at")
	})
}

func TestExecuteKindMismatchIsCorruption(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := newDeploy("Router", 0)
	_, err := f.journal.RecordFailure(ctx, journal.Record{ID: callID("Router"), Error: "x"})
	require.NoError(t, err)

	_, err = f.exec.Execute(ctx, a, NewResults())
	assert.True(t, journal.IsCorruption(err))
}
