package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/deploygrid/internal/ctxlog"
)

// opsServer serves health, metrics and the journal while a deploy runs.
type opsServer struct {
	router *gin.Engine
	server *http.Server
}

// opsHandler builds the ops routes.
func (a *App) opsHandler() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(a.logger))

	router.GET("/health", a.handleHealth)
	router.GET("/metrics", gin.WrapH(a.metrics.Handler()))
	router.GET("/journal", a.handleJournal)
	return router
}

func (a *App) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK\n")
}

func (a *App) handleJournal(c *gin.Context) {
	if a.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal is not open"})
		return
	}
	entries, err := a.journal.Entries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": a.runID, "entries": entries})
}

// startOpsServer initializes and runs the ops HTTP server in the background.
func (a *App) startOpsServer(ctx context.Context, port int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Configuring ops server.")

	router := a.opsHandler()
	addr := fmt.Sprintf(":%d", port)
	a.ops = &opsServer{
		router: router,
		server: &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second},
	}

	go func(srv *http.Server) {
		logger.Info("🩺 Ops server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ops server failed unexpectedly", "error", err)
		}
	}(a.ops.server)
}

func (a *App) closeOpsServer(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if a.ops == nil {
		logger.Debug("Ops server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down ops server...")
	err := a.ops.server.Shutdown(ctx)
	a.ops = nil
	return err
}

// requestLogger is a middleware for request logging.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP())
	}
}
