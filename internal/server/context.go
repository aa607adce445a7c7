package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/teemow/meetwise/internal/calendar"
	"github.com/teemow/meetwise/internal/config"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/scheduling"
)

// Options are the dependencies of a ServerContext.
type Options struct {
	Calendar  *calendar.Client
	Scheduler *scheduling.Service
	Config    *config.Config
	Metrics   *instrumentation.Metrics
	Audit     *instrumentation.AuditLogger
	Logger    *slog.Logger
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context. Calendar and Scheduler are
// required; a nil Config means defaults.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Calendar == nil {
		return nil, errors.New("calendar client is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("scheduling service is required")
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{ctx: shutdownCtx, cancel: cancel, opts: opts}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Calendar returns the Google Calendar client.
func (sc *ServerContext) Calendar() *calendar.Client {
	return sc.opts.Calendar
}

// Scheduler returns the scheduling service.
func (sc *ServerContext) Scheduler() *scheduling.Service {
	return sc.opts.Scheduler
}

// Config returns the active configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.opts.Config
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.opts.Metrics
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.opts.Audit
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.opts.Logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
