// Package server exposes the routing subsystem over HTTP: selection,
// rule administration, organization health, circuit states, and
// Prometheus metrics.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/modelmux/modelmux/internal/health"
	"github.com/modelmux/modelmux/internal/routing"
)

// Server is the status and administration HTTP server.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// New creates a server with handlers wired to the engine and monitor.
// registry may be nil to disable the /metrics endpoint.
func New(
	addr string,
	engine *routing.Engine,
	monitor *health.Monitor,
	registry *prometheus.Registry,
	timeout time.Duration,
	logger zerolog.Logger,
) *Server {
	h := &handlers{
		engine:  engine,
		monitor: monitor,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /orgs/{org}/health", h.orgHealth)
	mux.HandleFunc("POST /orgs/{org}/select", h.selectProvider)
	mux.HandleFunc("POST /orgs/{org}/rules", h.createRule)
	mux.HandleFunc("GET /breakers", h.breakerStates)
	if registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: timeout,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// ListenAndServe starts the server (blocks).
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
