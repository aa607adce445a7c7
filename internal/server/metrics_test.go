package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetwise/internal/instrumentation"
)

func newProvider(t *testing.T, cfg instrumentation.Config) *instrumentation.Provider {
	t.Helper()
	cfg.ServiceName = "meetwise-test"
	p, err := instrumentation.NewProvider(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}

func prometheusProvider(t *testing.T) *instrumentation.Provider {
	return newProvider(t, instrumentation.Config{
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
}

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		provider    func(t *testing.T) *instrumentation.Provider
		addr        string
		wantAddr    string
		errContains string
	}{
		{name: "explicit addr", provider: prometheusProvider, addr: ":9191", wantAddr: ":9191"},
		{name: "default addr", provider: prometheusProvider, wantAddr: DefaultMetricsAddr},
		{
			name:        "nil provider",
			provider:    func(*testing.T) *instrumentation.Provider { return nil },
			errContains: "instrumentation provider is required",
		},
		{
			name: "stdout exporter",
			provider: func(t *testing.T) *instrumentation.Provider {
				return newProvider(t, instrumentation.Config{
					Enabled:         true,
					MetricsExporter: instrumentation.ExporterStdout,
					TracingExporter: instrumentation.ExporterNone,
				})
			},
			errContains: "prometheus exporter",
		},
		{
			name: "disabled provider",
			provider: func(t *testing.T) *instrumentation.Provider {
				return newProvider(t, instrumentation.Config{Enabled: false})
			},
			errContains: "not enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewMetricsServer(MetricsServerConfig{
				Addr:                    tt.addr,
				InstrumentationProvider: tt.provider(t),
			})
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, srv.Addr())
		})
	}
}

func TestMetricsServer_ServesDomainMetrics(t *testing.T) {
	provider := prometheusProvider(t)
	srv, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: provider})
	require.NoError(t, err)

	provider.Metrics().RecordSlotSearch(context.Background(), instrumentation.StatusSuccess, 4)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "slot_candidates_found")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{InstrumentationProvider: prometheusProvider(t)})
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
