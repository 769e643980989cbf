// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server wires the relay handler into an HTTP server: routing,
// CORS, request logging, body limits and lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/pdiddy/convert-relay/internal/relay"
	"github.com/pdiddy/convert-relay/pkg/types"
)

// Server owns the HTTP listener for the relay.
type Server struct {
	cfg    types.RelayConfig
	http   *http.Server
	logger *slog.Logger
}

// New builds a Server whose routes are served by h.
func New(cfg types.RelayConfig, h *relay.Handler, logger *slog.Logger) *Server {
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              addr,
			Handler:           Handler(cfg, h, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       5 * time.Minute,
			WriteTimeout:      cfg.Provider.Timeout + time.Minute,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.http.Addr }

// Start listens and serves until Shutdown is called. It returns nil after a
// clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("convert relay listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.http.Shutdown(ctx)
}

// Handler returns the full middleware chain: CORS → gin (recovery, logging,
// body limit) → routes.
func Handler(cfg types.RelayConfig, h *relay.Handler, logger *slog.Logger) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.MaxMultipartMemory = cfg.Upload.MaxBytes

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.POST("/convert", limitBody(cfg.Upload.MaxBytes), h.Convert)

	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
	}).Handler(engine)
}

// limitBody caps the request body; the handler maps overflow to 413.
func limitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("http request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
