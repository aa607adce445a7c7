// Package instrumentation provides OpenTelemetry metrics and tracing for the
// meetwise MCP server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Calendar API Metrics:
//   - calendar_api_operations_total: Counter of Calendar API calls by operation and status
//   - calendar_api_operation_duration_seconds: Histogram of Calendar API call durations
//
// Scheduling Engine Metrics:
//   - slot_searches_total: Counter of slot searches by result
//   - slot_candidates_found: Histogram of candidates returned per search
//   - conflict_scans_total: Counter of conflict scans by result
//   - conflict_pairs_detected_total: Counter of cross-owner conflict pairs reported
//   - onboarding_total: Counter of onboarding attempts and onboarding-required answers
//   - busy_cache_lookups_total: Counter of free/busy cache lookups by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for MCP tool invocations (tool.<name>), Calendar API calls
// (calendar.<operation>) and engine runs (engine.find_slots, engine.find_conflicts).
//
// # Configuration
//
// Instrumentation is configured through environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: meetwise)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordSlotSearch(ctx, instrumentation.StatusSuccess, 3)
package instrumentation
