package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/deploygrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

const usageText = `
deploygrid - Deploys a graph of interdependent contracts and libraries, exactly once.

Usage:
  deploygrid deploy [options] [MODULE]
  deploygrid status [options]
  deploygrid relay  [options]

Commands:
  deploy   Build the plan of MODULE and execute it, resuming from the journal.
  status   Print the journal entries.
  relay    Serve a simulated network over the gateway protocol.

Every option also reads a DEPLOYGRID_* environment variable, e.g.
DEPLOYGRID_JOURNAL_BACKEND=redis. Flags win over the environment.

Options:
`

// Parse processes command-line arguments against the process environment.
// It returns a populated Config, a boolean indicating if the program should
// exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return ParseEnv(args, output, nil)
}

// ParseEnv is Parse with an explicit environment. A nil environ reads the
// process environment.
func ParseEnv(args []string, output io.Writer, environ map[string]string) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	defaults, err := app.LoadEnv(environ)
	if err != nil {
		return nil, false, usageError("%v", err)
	}

	command := app.CommandDeploy
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case app.CommandDeploy, app.CommandStatus, app.CommandRelay:
			command = args[0]
			args = args[1:]
		case "help":
			fmt.Fprint(output, usageText)
			return nil, true, nil
		}
	}

	flagSet := flag.NewFlagSet("deploygrid "+command, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	cfg := defaults
	cfg.Command = command
	flagSet.StringVar(&cfg.Module, "module", cfg.Module, "Root module id to deploy.")
	flagSet.StringVar(&cfg.Module, "m", cfg.Module, "Root module id to deploy (shorthand).")
	flagSet.StringVar(&cfg.ModulesPath, "modules-path", cfg.ModulesPath, "Directory or file holding .hcl and .yaml module definitions.")
	flagSet.StringVar(&cfg.ParamsPath, "params", cfg.ParamsPath, "YAML file supplying param.* values.")
	flagSet.StringVar(&cfg.ArtifactsPath, "artifacts", cfg.ArtifactsPath, "Directory of compiled artifact JSON files. Required with --network gateway.")
	flagSet.StringVar(&cfg.ExportPath, "export", cfg.ExportPath, "Where to write deployed_addresses.json. Defaults to the file journal's directory.")
	flagSet.StringVar(&cfg.JournalBackend, "journal-backend", cfg.JournalBackend, "Journal backend. Options: 'file', 'redis', 'memory'.")
	flagSet.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "Path of the file journal.")
	flagSet.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL of the redis journal, e.g. redis://localhost:6379/0.")
	flagSet.StringVar(&cfg.JournalNamespace, "journal-namespace", cfg.JournalNamespace, "Namespace separating deployments in one Redis.")
	flagSet.StringVar(&cfg.Network, "network", cfg.Network, "Network to deploy to. Options: 'sim', 'gateway'.")
	flagSet.StringVar(&cfg.GatewayURL, "gateway-url", cfg.GatewayURL, "Base URL of the relayer gateway.")
	flagSet.StringVar(&cfg.GatewayToken, "gateway-token", cfg.GatewayToken, "Bearer token sent to the relayer gateway.")
	flagSet.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent workers. 1 executes strictly in plan order.")
	flagSet.DurationVar(&cfg.ActionTimeout, "action-timeout", cfg.ActionTimeout, "Time allowed for one submission before the network is re-queried.")
	flagSet.BoolVar(&cfg.Resume, "resume", cfg.Resume, "Continue an existing, non-empty journal.")
	flagSet.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Print the plan and the journal decision per action, then exit.")
	flagSet.BoolVar(&cfg.Compact, "compact", cfg.Compact, "Rewrite the file journal keeping one record per action (status).")
	flagSet.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log output format. Options: 'text' or 'json'.")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.IntVar(&cfg.HealthcheckPort, "healthcheck-port", cfg.HealthcheckPort, "Port for the ops HTTP server (/health, /metrics, /journal). 0 is disabled.")
	flagSet.StringVar(&cfg.RelayAddr, "relay-addr", cfg.RelayAddr, "Listen address of the relay command.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%v", err)
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	if flagSet.NArg() > 0 {
		if command != app.CommandDeploy || cfg.Module != "" || flagSet.NArg() > 1 {
			return nil, false, usageError("unexpected arguments: %s", strings.Join(flagSet.Args(), " "))
		}
		cfg.Module = flagSet.Arg(0)
	}

	if len(args) == 0 && command == app.CommandDeploy && cfg.Module == "" {
		slog.Debug("Nothing to deploy, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, usageError("%v", err)
	}

	slog.Debug("CLI parser finished successfully.", "command", config.Command)
	return config, false, nil
}
