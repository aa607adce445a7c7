package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/meetwise/internal/google"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/onboarding"
	"github.com/teemow/meetwise/internal/resources"
	"github.com/teemow/meetwise/internal/server"
	"github.com/teemow/meetwise/internal/tools/account_tools"
	"github.com/teemow/meetwise/internal/tools/calendar_tools"
)

// Supported transports.
const (
	transportStdio = "stdio"
	transportHTTP  = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	transport      string
	httpAddr       string
	yolo           bool
	withOnboarding bool
	metrics        MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server to expose the scheduling
tools to AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP on --http-addr, protected by the
    configured auth token

By default the server runs in read-only mode: events can be created but not
updated or deleted. Use --yolo to enable the write tools.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.httpAddr == "" {
				opts.httpAddr = cfg.Listen
			}
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "HTTP server address (for streamable-http transport, defaults to the configured listen address)")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (update and delete events)")
	cmd.Flags().BoolVar(&opts.withOnboarding, "with-onboarding", false, "Also serve the calendar sharing web flow on the configured onboarding address")
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", false, "Serve Prometheus metrics (ignored for stdio)")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	return cmd
}

func runServe(opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !opts.metrics.Enabled && os.Getenv("METRICS_ENABLED") == "true" {
		opts.metrics.Enabled = true
	}
	if addr := os.Getenv("METRICS_ADDR"); addr != "" && opts.metrics.Addr == server.DefaultMetricsAddr {
		opts.metrics.Addr = addr
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	eng, err := newEngine(shutdownCtx, cfg, provider.Metrics(), logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Calendar:  eng.calendar,
		Scheduler: eng.scheduler,
		Config:    cfg,
		Metrics:   provider.Metrics(),
		Audit:     instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", "error", err)
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("meetwise", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	readOnly := !opts.yolo
	if readOnly {
		logger.Info("starting in read-only mode (use --yolo to enable update and delete)")
	} else {
		logger.Info("starting with write operations enabled")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	// Background servers report here; the first failure stops serve.
	background := make(chan error, 2)
	var stops []func(context.Context) error

	if opts.transport != transportStdio && opts.metrics.Enabled && provider.Enabled() {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metrics.Addr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go serveBackground("metrics", metricsServer.Start, background)
		stops = append(stops, metricsServer.Shutdown)
	}

	if opts.withOnboarding {
		onboardServer, err := newOnboardingServer(provider.Metrics(), eng.serviceAccount)
		if err != nil {
			return err
		}
		go serveBackground("onboarding", onboardServer.ListenAndServe, background)
		stops = append(stops, onboardServer.Shutdown)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		for _, stop := range stops {
			if err := stop(ctx); err != nil {
				logger.Warn("shutdown failed", "error", err)
			}
		}
	}()

	switch opts.transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, eng, opts.httpAddr, provider, background)
	}
}

func serveBackground(name string, start func() error, errs chan<- error) {
	if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs <- fmt.Errorf("%s server failed: %w", name, err)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, eng *engine, addr string, provider *instrumentation.Provider, background <-chan error) error {
	health := server.NewHealthChecker(sc)
	if eng.redis != nil {
		health.AddCheck("redis", eng.redis.Ping)
	}

	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:      addr,
		AuthToken: cfg.AuthToken,
		Health:    health,
		Metrics:   provider.Metrics(),
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case err := <-background:
		return err
	}

	health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Account",
			register: func() error {
				return account_tools.RegisterAccountTools(mcpSrv, sc)
			},
		},
		{
			name: "Scheduling Resources",
			register: func() error {
				return resources.RegisterSchedulingResources(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}

// parseCommaSeparatedList splits s on commas, trimming blanks.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// onboardingTimeouts mirror the MCP HTTP server.
const (
	onboardingReadHeaderTimeout = 10 * time.Second
	onboardingIdleTimeout       = 120 * time.Second
)

func newOnboardingServer(metrics *instrumentation.Metrics, sa *google.ServiceAccount) (*http.Server, error) {
	redirectURL := strings.TrimSuffix(cfg.Onboarding.URL, "/") + onboarding.CallbackPath
	oauthConf, err := google.LoadWebClientConfig(cfg.Onboarding.ClientSecretFile, redirectURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load onboarding client secret: %w", err)
	}
	handler, err := onboarding.New(onboarding.Options{
		OAuth:               oauthConf,
		ServiceAccountEmail: sa.Email(),
		Metrics:             metrics,
		Logger:              logger,
		SecureCookies:       strings.HasPrefix(cfg.Onboarding.URL, "https://"),
	})
	if err != nil {
		return nil, err
	}
	logger.Info("onboarding flow enabled", "addr", cfg.Onboarding.Listen, "url", cfg.Onboarding.URL)
	return &http.Server{
		Addr:              cfg.Onboarding.Listen,
		Handler:           handler.Router(),
		ReadHeaderTimeout: onboardingReadHeaderTimeout,
		IdleTimeout:       onboardingIdleTimeout,
	}, nil
}
