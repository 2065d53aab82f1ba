package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/app"
	"github.com/specialistvlad/deploygrid/internal/executor"
	"github.com/specialistvlad/deploygrid/internal/network"
	"github.com/specialistvlad/deploygrid/internal/network/simnet"
	"github.com/specialistvlad/deploygrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

// recorder keeps every request that reaches the simulated chain.
type recorder struct {
	*simnet.Network

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

func (r *recorder) deployed() []network.DeployRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]network.DeployRequest(nil), r.deploys...)
}

func (r *recorder) called() []network.CallRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]network.CallRequest(nil), r.calls...)
}

// harness is one deployment workspace: module definitions on disk, a file
// journal and a simulated chain that outlives individual runs, the way a
// real chain outlives the deploying process.
type harness struct {
	t   *testing.T
	dir string
	net *recorder
}

func newHarness(t *testing.T, files map[string]string) *harness {
	t.Helper()
	return &harness{
		t:   t,
		dir: testutil.WriteFiles(t, files),
		net: &recorder{Network: simnet.New()},
	}
}

func (h *harness) journalPath() string {
	return filepath.Join(h.dir, "state", "journal.jsonl")
}

func (h *harness) config(module string) app.Config {
	return app.Config{
		Command:        app.CommandDeploy,
		ModulesPath:    filepath.Join(h.dir, "modules"),
		Module:         module,
		ParamsPath:     filepath.Join(h.dir, "params.yaml"),
		JournalBackend: app.JournalFile,
		JournalPath:    h.journalPath(),
		Network:        app.NetworkSim,
		Workers:        4,
		ActionTimeout:  5 * time.Second,
		LogFormat:      "text",
		LogLevel:       "debug",
	}
}

// deploy runs one deploy of module and returns its report. Mutators adjust
// the config before validation.
func (h *harness) deploy(module string, mutate ...func(*app.Config)) (*executor.Report, string, error) {
	h.t.Helper()

	cfg := h.config(module)
	for _, m := range mutate {
		m(&cfg)
	}
	validated, err := app.NewConfig(cfg)
	require.NoError(h.t, err)

	out := &testutil.SafeBuffer{}
	a := app.NewApp(out, validated, app.WithNetwork(h.net))
	h.t.Cleanup(func() {
		if os.Getenv("DEPLOYGRID_TEST_LOGS") == "true" {
			h.t.Logf("--- Full Output for %s ---\n%s", h.t.Name(), out.String())
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = a.Run(ctx)
	return a.Report(), out.String(), err
}

func resume(c *app.Config) { c.Resume = true }

func (h *harness) addresses() map[string]string {
	h.t.Helper()
	data, err := os.ReadFile(filepath.Join(h.dir, "state", app.AddressesFile))
	require.NoError(h.t, err)
	var out map[string]string
	require.NoError(h.t, json.Unmarshal(data, &out))
	return out
}

// keyOf is the correlation key of a canonical action id.
func keyOf(t *testing.T, id string) string {
	t.Helper()
	parsed, err := actionid.Parse(id)
	require.NoError(t, err)
	return parsed.CorrelationKey()
}

// jsonString decodes a JSON string argument.
func jsonString(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &s))
	return s
}
