package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/specialistvlad/deploygrid/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, environ map[string]string, args ...string) (*app.Config, bool, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	if environ == nil {
		environ = map[string]string{}
	}
	cfg, exit, err := ParseEnv(args, out, environ)
	return cfg, exit, out.String(), err
}

func TestParse_Deploy(t *testing.T) {
	cfg, exit, _, err := parse(t, nil,
		"deploy", "--modules-path", "defs", "--journal", "state/j.jsonl",
		"--workers", "1", "--action-timeout", "30s", "--resume", "ExchangeRouter")
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, app.CommandDeploy, cfg.Command)
	assert.Equal(t, "ExchangeRouter", cfg.Module)
	assert.Equal(t, "defs", cfg.ModulesPath)
	assert.Equal(t, "state/j.jsonl", cfg.JournalPath)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.ActionTimeout)
	assert.True(t, cfg.Resume)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, app.NetworkSim, cfg.Network)
}

func TestParse_DeployIsTheDefaultCommand(t *testing.T) {
	cfg, _, _, err := parse(t, nil, "--module", "Router", "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, app.CommandDeploy, cfg.Command)
	assert.Equal(t, "Router", cfg.Module)
	assert.True(t, cfg.DryRun)
}

func TestParse_EnvironmentDefaults(t *testing.T) {
	environ := map[string]string{
		"DEPLOYGRID_MODULE":          "Router",
		"DEPLOYGRID_JOURNAL_BACKEND": "redis",
		"DEPLOYGRID_REDIS_URL":       "redis://localhost:6379/0",
		"DEPLOYGRID_WORKERS":         "6",
	}

	cfg, _, _, err := parse(t, environ, "deploy")
	require.NoError(t, err)
	assert.Equal(t, "Router", cfg.Module)
	assert.Equal(t, app.JournalRedis, cfg.JournalBackend)
	assert.Equal(t, 6, cfg.Workers)

	cfg, _, _, err = parse(t, environ, "deploy", "--workers", "2", "--journal-backend", "memory")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers, "flags win over the environment")
	assert.Equal(t, app.JournalMemory, cfg.JournalBackend)
}

func TestParse_Status(t *testing.T) {
	cfg, _, _, err := parse(t, nil, "status", "--compact")
	require.NoError(t, err)
	assert.Equal(t, app.CommandStatus, cfg.Command)
	assert.True(t, cfg.Compact)
}

func TestParse_Relay(t *testing.T) {
	cfg, _, _, err := parse(t, nil, "relay", "--relay-addr", "127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, app.CommandRelay, cfg.Command)
	assert.Equal(t, "127.0.0.1:9000", cfg.RelayAddr)
}

func TestParse_UsageExitsCleanly(t *testing.T) {
	for _, args := range [][]string{nil, {"help"}, {"-h"}, {"deploy", "--help"}} {
		cfg, exit, out, err := parse(t, nil, args...)
		require.NoError(t, err, args)
		assert.True(t, exit, args)
		assert.Nil(t, cfg)
		assert.Contains(t, out, "Usage:")
	}
}

func TestParse_UsageErrors(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		args    []string
		wantErr string
	}{
		{"unknown flag", nil, []string{"deploy", "--bogus"}, "flag provided but not defined: -bogus"},
		{"bad log format", nil, []string{"deploy", "-m", "X", "--log-format", "xml"}, "invalid log-format"},
		{"bad log level", nil, []string{"deploy", "-m", "X", "--log-level", "loud"}, "invalid log-level"},
		{"module twice", nil, []string{"deploy", "-m", "X", "Y"}, "unexpected arguments: Y"},
		{"arguments to status", nil, []string{"status", "X"}, "unexpected arguments: X"},
		{"missing module", nil, []string{"deploy", "--resume"}, "module is a required"},
		{"gateway without url", nil, []string{"deploy", "-m", "X", "--network", "gateway"}, "needs a gateway url"},
		{"bad environment", map[string]string{"DEPLOYGRID_WORKERS": "lots"}, []string{"deploy"}, "failed to parse environment"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, exit, _, err := parse(t, tc.environ, tc.args...)
			assert.Nil(t, cfg)
			assert.False(t, exit)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantErr)
		})
	}
}

func TestParse_LowercasesLogSettings(t *testing.T) {
	cfg, _, _, err := parse(t, nil, "deploy", "-m", "X", "--log-format", "JSON", "--log-level", "DEBUG")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}
