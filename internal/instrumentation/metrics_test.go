package instrumentation

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s is not an int64 sum", m.Name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_EngineCounters(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordSlotSearch(ctx, StatusSuccess, 3)
	m.RecordSlotSearch(ctx, StatusError, 0)
	m.RecordConflictScan(ctx, StatusSuccess, 4)
	m.RecordConflictScan(ctx, StatusSuccess, 0)
	m.RecordOnboarding(ctx, OnboardingRequired)
	m.RecordCacheLookup(ctx, CacheHit)
	m.RecordCacheLookup(ctx, CacheMiss)

	got := collect(t, reader)

	checks := map[string]int64{
		"slot_searches_total":           2,
		"conflict_scans_total":          2,
		"conflict_pairs_detected_total": 4,
		"onboarding_total":              1,
		"busy_cache_lookups_total":      2,
	}
	for name, want := range checks {
		metric, ok := got[name]
		if !ok {
			t.Errorf("metric %s not recorded", name)
			continue
		}
		if total := counterTotal(t, metric); total != want {
			t.Errorf("%s = %d, want %d", name, total, want)
		}
	}

	hist, ok := got["slot_candidates_found"].Data.(metricdata.Histogram[int64])
	if !ok || len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Errorf("expected a single slot_candidates_found observation, got %+v", got["slot_candidates_found"].Data)
	}
}

func TestMetrics_ToolInvocationLabels(t *testing.T) {
	tests := []struct {
		name       string
		detailed   bool
		wantDomain bool
	}{
		{"default labels", false, false},
		{"detailed labels", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader := newTestMetrics(t, tt.detailed)
			m.RecordToolInvocation(context.Background(), "calendar_find_meeting_slots", StatusSuccess, "alice@example.com", 50*time.Millisecond)

			got := collect(t, reader)
			sum := got["mcp_tool_invocations_total"].Data.(metricdata.Sum[int64])
			if len(sum.DataPoints) != 1 {
				t.Fatalf("expected one data point, got %d", len(sum.DataPoints))
			}
			_, hasDomain := sum.DataPoints[0].Attributes.Value(attrDomain)
			if hasDomain != tt.wantDomain {
				t.Errorf("domain label present = %v, want %v", hasDomain, tt.wantDomain)
			}
		})
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordHTTPRequest(ctx, "GET", "/mcp", 200, time.Millisecond)
	m.RecordCalendarOperation(ctx, OperationList, StatusSuccess, time.Millisecond)
	m.RecordToolInvocation(ctx, "validate", StatusSuccess, "", time.Millisecond)
	m.RecordSlotSearch(ctx, StatusSuccess, 1)
	m.RecordConflictScan(ctx, StatusSuccess, 1)
	m.RecordOnboarding(ctx, OnboardingCompleted)
	m.RecordCacheLookup(ctx, CacheHit)

	empty := &Metrics{}
	empty.RecordCalendarOperation(ctx, OperationFreeBusy, StatusError, time.Millisecond)
}
