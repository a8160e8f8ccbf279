// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rosterd Contributors

// Package observability provides Prometheus metrics and health endpoints.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// Metrics holds the counters exported by rosterd.
type Metrics struct {
	// LoginsTotal counts login attempts by outcome.
	LoginsTotal *prometheus.CounterVec

	// PasswordResetsTotal counts reset operations by phase and outcome.
	PasswordResetsTotal *prometheus.CounterVec

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the rosterd metric set.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterd_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"status"}),
		PasswordResetsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterd_password_resets_total",
			Help: "Password reset operations by phase and outcome.",
		}, []string{"phase", "status"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rosterd_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "path", "status"}),
	}

	reg.MustRegister(m.LoginsTotal, m.PasswordResetsTotal, m.HTTPRequestsTotal)

	return m
}

// ReadinessChecker reports whether the service can take traffic.
type ReadinessChecker func(ctx context.Context) error

// Server exposes /metrics and health endpoints on a dedicated listener.
type Server struct {
	addr    string
	logger  *slog.Logger
	reg     *prometheus.Registry
	metrics *Metrics
	ready   ReadinessChecker

	httpServer *http.Server
	listener   net.Listener
	running    atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithReadinessChecker sets the readiness probe callback. Without one the
// readiness endpoint always reports ready.
func WithReadinessChecker(check ReadinessChecker) Option {
	return func(s *Server) {
		s.ready = check
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an observability server listening on addr.
func NewServer(addr string, opts ...Option) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		addr:    addr,
		logger:  slog.Default(),
		reg:     reg,
		metrics: NewMetrics(reg),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Metrics returns the registered metric set.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Addr returns the bound listener address, or the configured address if the
// server has not started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.addr
}

// Start binds the listener and serves in the background. The returned channel
// receives at most one error if the server exits unexpectedly.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.
			Code("OBSERVABILITY_ALREADY_RUNNING").
			Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)

		return nil, oops.
			Code("OBSERVABILITY_LISTEN_FAILED").
			With("addr", s.addr).
			Wrapf(err, "listening on %s", s.addr)
	}

	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("observability server listening", "addr", s.Addr())

		if serveErr := s.httpServer.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- oops.
				Code("OBSERVABILITY_SERVE_FAILED").
				Wrapf(serveErr, "serving observability endpoints")
		}

		close(errCh)
	}()

	return errCh, nil
}

// Stop gracefully shuts the server down. Stopping a stopped server is a no-op.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.
			Code("OBSERVABILITY_SHUTDOWN_FAILED").
			Wrapf(err, "shutting down observability server")
	}

	s.logger.Info("observability server stopped")

	return nil
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, "not ready")

			return
		}
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}
