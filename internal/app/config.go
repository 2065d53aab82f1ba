package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Commands understood by App.
const (
	CommandDeploy = "deploy"
	CommandStatus = "status"
	CommandRelay  = "relay"
)

// Journal backends.
const (
	JournalFile   = "file"
	JournalRedis  = "redis"
	JournalMemory = "memory"
)

// Network implementations.
const (
	NetworkSim     = "sim"
	NetworkGateway = "gateway"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "DEPLOYGRID_"

// Config holds all the necessary configuration for an App instance to run.
// Fields with an env tag take their default from the environment; flags
// override them.
type Config struct {
	Command string

	ModulesPath   string `env:"MODULES_PATH" envDefault:"modules"` // hcl and yaml files
	Module        string `env:"MODULE"`
	ParamsPath    string `env:"PARAMS"`
	ArtifactsPath string `env:"ARTIFACTS"`
	// ExportPath receives deployed_addresses.json. Empty means next to a
	// file journal, and no export for the other backends.
	ExportPath string `env:"EXPORT"`

	JournalBackend   string `env:"JOURNAL_BACKEND" envDefault:"file"`
	JournalPath      string `env:"JOURNAL" envDefault:".deploygrid/journal.jsonl"`
	RedisURL         string `env:"REDIS_URL"`
	JournalNamespace string `env:"JOURNAL_NAMESPACE" envDefault:"default"`

	Network      string `env:"NETWORK" envDefault:"sim"`
	GatewayURL   string `env:"GATEWAY_URL"`
	GatewayToken string `env:"GATEWAY_TOKEN"`

	Workers       int           `env:"WORKERS" envDefault:"4"`
	ActionTimeout time.Duration `env:"ACTION_TIMEOUT" envDefault:"2m"`
	Resume        bool
	DryRun        bool
	Compact       bool

	LogFormat       string `env:"LOG_FORMAT" envDefault:"text"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	HealthcheckPort int    `env:"HEALTHCHECK_PORT" envDefault:"0"`
	RelayAddr       string `env:"RELAY_ADDR" envDefault:":8545"`
}

// LoadEnv returns a Config populated from the environment. A nil environ
// reads the process environment.
func LoadEnv(environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Command == "" {
		cfg.Command = CommandDeploy
	}

	switch cfg.Command {
	case CommandDeploy:
		if cfg.Module == "" {
			return nil, errors.New("module is a required configuration field and cannot be empty")
		}
		if cfg.ModulesPath == "" {
			return nil, errors.New("modules path is a required configuration field and cannot be empty")
		}
	case CommandStatus, CommandRelay:
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	switch cfg.JournalBackend {
	case JournalFile:
		if cfg.JournalPath == "" && cfg.Command != CommandRelay {
			return nil, errors.New("the file journal needs a journal path")
		}
	case JournalRedis:
		if cfg.RedisURL == "" && cfg.Command != CommandRelay {
			return nil, errors.New("the redis journal needs a redis url")
		}
	case JournalMemory:
	default:
		return nil, fmt.Errorf("invalid journal backend %q: must be 'file', 'redis' or 'memory'", cfg.JournalBackend)
	}
	if cfg.Compact && cfg.JournalBackend != JournalFile {
		return nil, errors.New("compact is only supported by the file journal")
	}

	switch cfg.Network {
	case NetworkSim:
	case NetworkGateway:
		if cfg.GatewayURL == "" {
			return nil, errors.New("the gateway network needs a gateway url")
		}
	default:
		return nil, fmt.Errorf("invalid network %q: must be 'sim' or 'gateway'", cfg.Network)
	}
	if cfg.Command == CommandRelay && cfg.Network != NetworkSim {
		return nil, errors.New("relay only serves the simulated network")
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.ActionTimeout <= 0 {
		return nil, fmt.Errorf("action timeout must be positive, got %s", cfg.ActionTimeout)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port: %d", cfg.HealthcheckPort)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return &cfg, nil
}
