package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/logging"
)

// MCPEndpoint is the path of the streamable HTTP endpoint.
const MCPEndpoint = "/mcp"

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	Addr string

	// AuthToken is the static bearer token clients must present on /mcp.
	AuthToken string

	Health  *HealthChecker
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// HTTPServer exposes an MCP server over streamable HTTP.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	config     HTTPServerConfig
	httpServer *http.Server
	logger     *slog.Logger
}

// NewHTTPServer wraps mcpServer. An auth token is required: the endpoint can
// create and delete events on every shared calendar.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, errors.New("mcp server is required")
	}
	if config.AuthToken == "" {
		return nil, errors.New("auth token is required for the HTTP transport")
	}
	if config.Health == nil {
		config.Health = NewHealthChecker(nil)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPServer{mcpServer: mcpServer, config: config, logger: logger.With("component", "http")}, nil
}

// Handler returns the routes: the MCP endpoint and the health probes.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.config.Health.RegisterHealthEndpoints(mux)

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpoint),
	)
	mux.Handle(MCPEndpoint, BearerAuth(s.config.AuthToken, s.logger, streamable))

	return instrumentHTTP(s.config.Metrics, mux)
}

// Start listens on the configured address and blocks until shutdown.
func (s *HTTPServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.logger.Info("starting MCP HTTP server", "addr", s.config.Addr, "endpoint", MCPEndpoint)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// BearerAuth rejects requests that do not carry "Authorization: Bearer <token>".
func BearerAuth(token string, logger *slog.Logger, next http.Handler) http.Handler {
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			logger.Warn("rejected unauthenticated request",
				"path", r.URL.Path, "remote", r.RemoteAddr, "token", logging.SanitizeToken(got))
			w.Header().Set("WWW-Authenticate", `Bearer realm="meetwise"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func instrumentHTTP(m *instrumentation.Metrics, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent event streams working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
