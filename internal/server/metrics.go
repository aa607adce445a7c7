package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/teemow/meetwise/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = ":9090"

	// DefaultShutdownTimeout bounds graceful shutdown of every server.
	DefaultShutdownTimeout = 30 * time.Second

	metricsReadHeaderTimeout = 10 * time.Second
	metricsWriteTimeout      = 10 * time.Second
	metricsIdleTimeout       = 60 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the listen address, ":9090" when empty.
	Addr string

	// InstrumentationProvider must be enabled and use the Prometheus exporter.
	InstrumentationProvider *instrumentation.Provider

	Logger *slog.Logger
}

// MetricsServer serves Prometheus metrics on a dedicated port, away from the
// bearer-protected MCP endpoint.
type MetricsServer struct {
	scrape     http.Handler
	addr       string
	logger     *slog.Logger
	httpServer *http.Server
}

// NewMetricsServer checks that the provider can be scraped and prepares a
// server for /metrics and /healthz.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	p := config.InstrumentationProvider
	switch {
	case p == nil:
		return nil, errors.New("instrumentation provider is required for metrics server")
	case !p.Enabled():
		return nil, errors.New("instrumentation provider is not enabled")
	case p.PrometheusHandler() == nil:
		return nil, errors.New("instrumentation provider does not use the prometheus exporter")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MetricsServer{
		scrape: p.PrometheusHandler(),
		addr:   addr,
		logger: logger.With("component", "metrics"),
	}, nil
}

// Handler returns the mux served by Start.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.scrape)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start listens on the configured address and blocks until Shutdown.
func (s *MetricsServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: metricsReadHeaderTimeout,
		WriteTimeout:      metricsWriteTimeout,
		IdleTimeout:       metricsIdleTimeout,
	}
	s.logger.Info("starting metrics server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server. It is a no-op before Start.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *MetricsServer) Addr() string {
	return s.addr
}
