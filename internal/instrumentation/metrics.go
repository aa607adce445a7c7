package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrTool      = "tool"
	attrDomain    = "domain"
)

// Metrics provides methods for recording observability metrics. The zero
// value is a valid no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	calendarOpsTotal   metric.Int64Counter
	calendarOpDuration metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	slotSearchesTotal metric.Int64Counter
	slotCandidates    metric.Int64Histogram
	conflictScans     metric.Int64Counter
	conflictPairs     metric.Int64Counter
	onboardingTotal   metric.Int64Counter
	cacheLookups      metric.Int64Counter

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

var durationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	counters := []struct {
		target *metric.Int64Counter
		name   string
		desc   string
		unit   string
	}{
		{&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}"},
		{&m.calendarOpsTotal, "calendar_api_operations_total", "Total number of Google Calendar API operations", "{operation}"},
		{&m.toolInvocationsTotal, "mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}"},
		{&m.slotSearchesTotal, "slot_searches_total", "Total number of meeting slot searches", "{search}"},
		{&m.conflictScans, "conflict_scans_total", "Total number of conflict scans", "{scan}"},
		{&m.conflictPairs, "conflict_pairs_detected_total", "Total number of cross-owner conflict pairs reported", "{pair}"},
		{&m.onboardingTotal, "onboarding_total", "Onboarding flow outcomes and onboarding-required answers", "{event}"},
		{&m.cacheLookups, "busy_cache_lookups_total", "Free/busy cache lookups by result", "{lookup}"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
		*c.target = counter
	}

	histograms := []struct {
		target  *metric.Float64Histogram
		name    string
		desc    string
		buckets []float64
	}{
		{&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds",
			[]float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}},
		{&m.calendarOpDuration, "calendar_api_operation_duration_seconds", "Google Calendar API operation duration in seconds", durationBuckets},
		{&m.toolDuration, "mcp_tool_duration_seconds", "MCP tool execution duration in seconds", durationBuckets},
	}
	for _, h := range histograms {
		hist, err := meter.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(h.buckets...),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s histogram: %w", h.name, err)
		}
		*h.target = hist
	}

	var err error
	m.slotCandidates, err = meter.Int64Histogram("slot_candidates_found",
		metric.WithDescription("Number of slot candidates returned per search"),
		metric.WithUnit("{slot}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot_candidates_found histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCalendarOperation records a Google Calendar API call.
// operation is one of the Operation* constants.
func (m *Metrics) RecordCalendarOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.calendarOpsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.calendarOpsTotal.Add(ctx, 1, attrs)
	m.calendarOpDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records an MCP tool invocation. The owner's email
// domain is attached only when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, owner string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	kv := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && owner != "" {
		kv = append(kv, attribute.String(attrDomain, ExtractUserDomain(owner)))
	}
	attrs := metric.WithAttributes(kv...)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSlotSearch records one slot search and how many candidates it produced.
func (m *Metrics) RecordSlotSearch(ctx context.Context, result string, found int) {
	if m == nil || m.slotSearchesTotal == nil {
		return
	}
	m.slotSearchesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
	if result == StatusSuccess {
		m.slotCandidates.Record(ctx, int64(found))
	}
}

// RecordConflictScan records one conflict scan and the number of pairs reported.
func (m *Metrics) RecordConflictScan(ctx context.Context, result string, pairs int) {
	if m == nil || m.conflictScans == nil {
		return
	}
	m.conflictScans.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
	if pairs > 0 {
		m.conflictPairs.Add(ctx, int64(pairs))
	}
}

// RecordOnboarding records an onboarding outcome: OnboardingRequired,
// OnboardingCompleted or OnboardingFailed.
func (m *Metrics) RecordOnboarding(ctx context.Context, result string) {
	if m == nil || m.onboardingTotal == nil {
		return
	}
	m.onboardingTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordCacheLookup records a free/busy cache lookup: CacheHit, CacheMiss or CacheError.
func (m *Metrics) RecordCacheLookup(ctx context.Context, result string) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
