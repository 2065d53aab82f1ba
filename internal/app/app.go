package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/specialistvlad/deploygrid/internal/config"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/executor"
	"github.com/specialistvlad/deploygrid/internal/hcl_adapter"
	"github.com/specialistvlad/deploygrid/internal/journal"
	"github.com/specialistvlad/deploygrid/internal/metrics"
	"github.com/specialistvlad/deploygrid/internal/network"
	"github.com/specialistvlad/deploygrid/internal/yaml_adapter"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	runID   string
	metrics *metrics.Collector

	loader  config.Loader
	network network.Network
	journal journal.Journal
	source  artifact.Source

	// ownsJournal is set when the journal was opened by the app and must
	// be closed by it.
	ownsJournal bool
	ops         *opsServer
	// report is the outcome of the last deploy.
	report *executor.Report
}

// Option customizes an App. Options exist for tests and embedding; the CLI
// uses none of them.
type Option func(*App)

// WithLoader replaces the default HCL and YAML loaders.
func WithLoader(l config.Loader) Option {
	return func(a *App) { a.loader = l }
}

// WithNetwork replaces the network chosen by Config.Network.
func WithNetwork(n network.Network) Option {
	return func(a *App) { a.network = n }
}

// WithJournal replaces the journal chosen by Config.JournalBackend. The app
// does not close it.
func WithJournal(j journal.Journal) Option {
	return func(a *App) { a.journal = j }
}

// WithSource replaces the bytecode source chosen by Config.ArtifactsPath.
func WithSource(s artifact.Source) Option {
	return func(a *App) { a.source = s }
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(a *App) { a.runID = id }
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger and metrics registry. Journals, networks and
// servers are opened by Run.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		metrics: metrics.NewCollector(),
		loader:  config.Multi(hcl_adapter.NewLoader(), yaml_adapter.NewLoader()),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.runID == "" {
		a.runID = uuid.NewString()
	}
	return a
}

// RunID returns the id written into every journal record of this run.
func (a *App) RunID() string { return a.runID }

// Report returns the report of the last deploy, or nil.
func (a *App) Report() *executor.Report { return a.report }

// Metrics returns the app's metrics collector.
func (a *App) Metrics() *metrics.Collector { return a.metrics }

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command, "run_id", a.runID)
	defer a.logger.Debug("App.Run method finished.")

	switch a.config.Command {
	case CommandDeploy, "":
		return a.withJournal(ctx, a.deploy)
	case CommandStatus:
		return a.withJournal(ctx, a.status)
	case CommandRelay:
		return a.relay(ctx)
	default:
		return fmt.Errorf("unknown command %q", a.config.Command)
	}
}

// withJournal opens the journal for the duration of fn.
func (a *App) withJournal(ctx context.Context, fn func(context.Context) error) error {
	if err := a.openJournal(ctx); err != nil {
		return err
	}
	defer func() {
		if err := a.closeJournal(); err != nil {
			a.logger.Error("Closing journal failed.", "error", err)
		}
	}()
	return fn(ctx)
}
