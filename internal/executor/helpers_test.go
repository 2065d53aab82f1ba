package executor

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/specialistvlad/deploygrid/internal/action"
	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/specialistvlad/deploygrid/internal/dag"
	"github.com/specialistvlad/deploygrid/internal/network"
	"github.com/stretchr/testify/require"
)

func deployID(name string) actionid.ID {
	return actionid.ID{Module: "M", Kind: actionid.KindDeploy, Target: name, Tag: name}
}

func callID(tag string) actionid.ID {
	return actionid.ID{Module: "M", Kind: actionid.KindCall, Tag: tag}
}

// newDeploy declares a contract whose constructor takes the results of deps.
func newDeploy(name string, order int, deps ...actionid.ID) *action.Action {
	d := &artifact.Descriptor{Name: name, Module: "M", Kind: artifact.KindContract}
	for _, dep := range deps {
		d.Args = append(d.Args, artifact.ActionResult(dep))
	}
	a := &action.Action{ID: deployID(name), Deploy: d, Order: order}
	for _, dep := range d.Dependencies() {
		a.AddDependency(dep)
	}
	return a
}

func newCall(tag string, order int, target actionid.ID, fn string, args ...artifact.Arg) *action.Action {
	a := &action.Action{
		ID:    callID(tag),
		Call:  &action.Call{Target: target, Function: fn, Args: args},
		Order: order,
	}
	a.AddDependency(target)
	for _, arg := range args {
		for _, dep := range arg.Dependencies() {
			a.AddDependency(dep)
		}
	}
	return a
}

func schedule(t *testing.T, actions ...*action.Action) *dag.Plan {
	t.Helper()
	plan, err := dag.Schedule(actions)
	require.NoError(t, err)
	return plan
}

// recorder wraps a network and keeps every request it forwards.
type recorder struct {
	network.Network
	mu      sync.Mutex
	deploys []network.DeployRequest
	calls   []network.CallRequest
}

func (r *recorder) Deploy(ctx context.Context, req network.DeployRequest) (common.Address, network.Receipt, error) {
	r.mu.Lock()
	r.deploys = append(r.deploys, req)
	r.mu.Unlock()
	return r.Network.Deploy(ctx, req)
}

func (r *recorder) Call(ctx context.Context, req network.CallRequest) (hexutil.Bytes, network.Receipt, error) {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.mu.Unlock()
	return r.Network.Call(ctx, req)
}

// missingSource has no bytecode for anything.
type missingSource struct{}

func (missingSource) Bytecode(_ context.Context, name string) (string, error) {
	return "", &artifact.NotFoundError{Name: name, Location: "artifacts/"}
}

var _ network.Network = (*recorder)(nil)
