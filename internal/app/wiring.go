package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/specialistvlad/deploygrid/internal/actionid"
	"github.com/specialistvlad/deploygrid/internal/artifact"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/dag"
	"github.com/specialistvlad/deploygrid/internal/journal"
	"github.com/specialistvlad/deploygrid/internal/journal/filejournal"
	"github.com/specialistvlad/deploygrid/internal/journal/memjournal"
	"github.com/specialistvlad/deploygrid/internal/journal/redisjournal"
	"github.com/specialistvlad/deploygrid/internal/network/gateway"
	"github.com/specialistvlad/deploygrid/internal/network/simnet"
)

// openJournal opens the configured journal unless one was injected.
func (a *App) openJournal(ctx context.Context) error {
	if a.journal != nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	switch a.config.JournalBackend {
	case JournalFile:
		j, err := filejournal.Open(ctx, a.config.JournalPath)
		if err != nil {
			return err
		}
		a.journal = j
		logger.Debug("File journal opened.", "path", a.config.JournalPath)
	case JournalRedis:
		j, err := redisjournal.Dial(ctx, a.config.RedisURL, redisjournal.Options{Namespace: a.config.JournalNamespace})
		if err != nil {
			return err
		}
		a.journal = j
		logger.Debug("Redis journal opened.", "key", j.Key())
	case JournalMemory:
		a.journal = memjournal.New()
		logger.Warn("Using the in-memory journal; nothing will survive this process.")
	default:
		return fmt.Errorf("unknown journal backend %q", a.config.JournalBackend)
	}
	a.ownsJournal = true
	return nil
}

func (a *App) closeJournal() error {
	if a.journal == nil || !a.ownsJournal {
		return nil
	}
	err := a.journal.Close()
	a.journal = nil
	a.ownsJournal = false
	return err
}

// openNetwork picks the network primitive unless one was injected. The
// source must be open: a fresh simulator is seeded with the code of every
// deploy of plan the journal holds as completed.
func (a *App) openNetwork(ctx context.Context, plan *dag.Plan) error {
	if a.network != nil {
		return nil
	}
	logger := ctxlog.FromContext(ctx)

	switch a.config.Network {
	case NetworkSim:
		nonce, err := a.usedNonces(ctx)
		if err != nil {
			return err
		}
		opts, err := a.journaledCode(ctx, plan)
		if err != nil {
			return err
		}
		a.network = simnet.New(append(opts, simnet.WithNonce(nonce))...)
		logger.Info("Deploying to the simulated network.", "start_nonce", nonce, "restored_deploys", len(opts))
	case NetworkGateway:
		opts := []gateway.Option{}
		if a.config.GatewayToken != "" {
			opts = append(opts, gateway.WithToken(a.config.GatewayToken))
		}
		c, err := gateway.New(a.config.GatewayURL, opts...)
		if err != nil {
			return err
		}
		a.network = c
		logger.Info("Deploying through the relayer gateway.", "url", a.config.GatewayURL)
	default:
		return fmt.Errorf("unknown network %q", a.config.Network)
	}
	return nil
}

// usedNonces counts every submission the journal knows about. A fresh
// simulator starts past them so resumed runs never hand out an address
// twice.
func (a *App) usedNonces(ctx context.Context) (uint64, error) {
	entries, err := a.journal.Entries(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading journal: %w", err)
	}
	var n uint64
	for _, e := range entries {
		n += uint64(e.Attempts)
	}
	return n, nil
}

// journaledCode returns one simnet.WithCode option per completed deploy of
// plan, so calls and library links to journaled addresses find code.
func (a *App) journaledCode(ctx context.Context, plan *dag.Plan) ([]simnet.Option, error) {
	entries, err := a.journal.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	var opts []simnet.Option
	for _, e := range entries {
		if e.Status != journal.StatusCompleted || e.Kind != actionid.KindDeploy || e.Result == "" {
			continue
		}
		act, ok := plan.Action(e.ActionID)
		if !ok || act.Deploy == nil {
			continue
		}
		code, err := a.source.Bytecode(ctx, act.Deploy.ArtifactName())
		if err != nil {
			return nil, err
		}
		opts = append(opts, simnet.WithCode(common.HexToAddress(e.Result), code))
	}
	return opts, nil
}

// openSource picks where bytecode comes from unless one was injected.
func (a *App) openSource() error {
	if a.source != nil {
		return nil
	}
	switch {
	case a.config.ArtifactsPath != "":
		a.source = artifact.NewDirSource(a.config.ArtifactsPath)
	case a.config.Network == NetworkSim:
		a.source = artifact.StubSource{}
	default:
		return errors.New("deploying through a gateway needs compiled artifacts; set --artifacts")
	}
	return nil
}
