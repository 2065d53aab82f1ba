package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/deploygrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

const chainParams = "label: chain-v1\n"

// workspace is a temp dir holding modules/, params.yaml and state/.
type workspace struct {
	dir string
}

func newWorkspace(t *testing.T, hcl string) workspace {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{
		"modules/main.hcl": hcl,
		"params.yaml":      chainParams,
	})
	return workspace{dir: dir}
}

func (w workspace) journalPath() string {
	return filepath.Join(w.dir, "state", "journal.jsonl")
}

func (w workspace) config(module string) Config {
	return Config{
		Command:        CommandDeploy,
		ModulesPath:    filepath.Join(w.dir, "modules"),
		Module:         module,
		ParamsPath:     filepath.Join(w.dir, "params.yaml"),
		JournalBackend: JournalFile,
		JournalPath:    w.journalPath(),
		Network:        NetworkSim,
		Workers:        2,
		ActionTimeout:  5 * time.Second,
		LogFormat:      "text",
		LogLevel:       "debug",
	}
}

// setupAppTest creates a new app instance writing into a buffer.
func setupAppTest(t *testing.T, cfg Config, opts ...Option) (*App, *testutil.SafeBuffer) {
	t.Helper()

	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &testutil.SafeBuffer{}
	a := NewApp(out, validated, opts...)

	t.Cleanup(func() {
		if os.Getenv("DEPLOYGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Output for %s ---\n%s", t.Name(), out.String())
		}
	})
	return a, out
}

func runApp(t *testing.T, cfg Config, opts ...Option) (*App, *testutil.SafeBuffer, error) {
	t.Helper()
	a, out := setupAppTest(t, cfg, opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a, out, a.Run(ctx)
}
