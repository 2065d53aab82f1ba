package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/deploygrid/internal/network"
)

// Server exposes a network.Network over the relayer protocol.
type Server struct {
	router  *gin.Engine
	network network.Network
	logger  *slog.Logger
}

// NewServer wraps n.
func NewServer(n network.Network, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	s := &Server{router: router, network: n, logger: logger}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/v1")
	{
		v1.POST("/deploy", s.handleDeploy)
		v1.POST("/call", s.handleCall)
		v1.GET("/receipts/:key", s.handleReceipt)
	}
}

func (s *Server) handleDeploy(c *gin.Context) {
	var req network.DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	addr, receipt, err := s.network.Deploy(c.Request.Context(), req)
	if err != nil {
		s.fail(c, receipt, err)
		return
	}
	c.JSON(http.StatusOK, DeployResponse{Address: addr, Receipt: receipt})
}

func (s *Server) handleCall(c *gin.Context) {
	var req network.CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	ret, receipt, err := s.network.Call(c.Request.Context(), req)
	if err != nil {
		s.fail(c, receipt, err)
		return
	}
	c.JSON(http.StatusOK, CallResponse{ReturnData: ret, Receipt: receipt})
}

func (s *Server) handleReceipt(c *gin.Context) {
	receipt, ok, err := s.network.Lookup(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.fail(c, network.Receipt{}, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "receipt not found"})
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (s *Server) fail(c *gin.Context, receipt network.Receipt, err error) {
	switch {
	case errors.Is(err, network.ErrReverted):
		resp := ErrorResponse{Error: err.Error()}
		if receipt.Reverted {
			resp.Receipt = &receipt
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
	case errors.Is(err, network.ErrTransport):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
	default:
		s.logger.Error("Relayer request failed.", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Relayer request.",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
