// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

// Package httpapi exposes the directory over HTTP: credential operations
// (login, password reset) and user record maintenance, with role-based
// access control on the protected routes.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/rosterd/rosterd/internal/access"
	"github.com/rosterd/rosterd/internal/auth"
	"github.com/rosterd/rosterd/internal/observability"
)

// Server serves the directory API.
type Server struct {
	addr    string
	logger  *slog.Logger
	metrics *observability.Metrics
	service *auth.Service
	tokens  *auth.TokenService

	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
	running    atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics wires request and credential counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer creates a directory API server listening on addr.
func NewServer(addr string, service *auth.Service, tokens *auth.TokenService, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, oops.Code("HTTPAPI_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if tokens == nil {
		return nil, oops.Code("HTTPAPI_NIL_DEPENDENCY").Errorf("token service is required")
	}

	s := &Server{
		addr:    addr,
		logger:  slog.Default(),
		service: service,
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestID(), requestLogger(s.logger), s.countRequests(), gin.Recovery())
	s.engine = engine
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	users := s.engine.Group("/v1/users")

	users.POST("", s.handleRegister)
	users.POST("/login", s.handleLogin)
	users.POST("/reset", s.handleReset)
	users.GET("/reset/:token", s.handleResetProbe)

	// Listing requires any valid session; the single-user view degrades
	// for anonymous callers instead.
	users.GET("", access.Require(s.tokens), s.handleList)
	users.GET("/:id", access.Optional(s.tokens), s.handleGet)
	users.PUT("/:id", access.Require(s.tokens, string(auth.RoleRoot), access.Self), s.handleUpdate)
	users.DELETE("/:id", access.Require(s.tokens, string(auth.RoleRoot)), s.handleDelete)
}

// Handler returns the underlying HTTP handler. Tests drive it directly
// without binding a listener.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the bound listener address, or the configured address if
// the server has not started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Start binds the listener and serves in the background. The returned
// channel receives at most one error if the server exits unexpectedly.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.
			Code("HTTPAPI_ALREADY_RUNNING").
			Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)

		return nil, oops.
			Code("HTTPAPI_LISTEN_FAILED").
			With("addr", s.addr).
			Wrapf(err, "listening on %s", s.addr)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("api server listening", "addr", s.Addr())

		if serveErr := s.httpServer.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- oops.
				Code("HTTPAPI_SERVE_FAILED").
				Wrapf(serveErr, "serving directory api")
		}

		close(errCh)
	}()

	return errCh, nil
}

// Stop gracefully shuts the server down. Stopping a stopped server is a
// no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.
			Code("HTTPAPI_SHUTDOWN_FAILED").
			Wrapf(err, "shutting down api server")
	}

	s.logger.Info("api server stopped")

	return nil
}
