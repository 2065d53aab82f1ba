package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/deploygrid/internal/ctxlog"
	"github.com/specialistvlad/deploygrid/internal/network/gateway"
	"github.com/specialistvlad/deploygrid/internal/network/simnet"
)

// relay serves a simulated network over the gateway protocol until ctx is
// done. It lets a gateway deploy be rehearsed end to end without a chain.
func (a *App) relay(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	n := a.network
	if n == nil {
		n = simnet.New()
	}
	srv := &http.Server{
		Handler:           gateway.NewServer(n, a.logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", a.config.RelayAddr)
	if err != nil {
		return fmt.Errorf("relay: listen on %s: %w", a.config.RelayAddr, err)
	}

	if a.config.HealthcheckPort > 0 {
		a.startOpsServer(ctx, a.config.HealthcheckPort)
		defer func() {
			if err := a.closeOpsServer(ctx); err != nil {
				logger.Error("Ops server shutdown failed.", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("Relay listening.", "address", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	logger.Info("Relay shutting down.")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("relay: shutdown: %w", err)
	}
	return nil
}
