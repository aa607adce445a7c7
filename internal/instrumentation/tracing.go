package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name used for all meetwise spans.
const TracerName = "github.com/teemow/meetwise"

// Span attribute keys.
const (
	SpanAttrTool      = "mcp.tool"
	SpanAttrOperation = "calendar.operation"
	SpanAttrOwner     = "calendar.owner_domain"
	SpanAttrOwners    = "calendar.owners"
	SpanAttrEvents    = "engine.events"
	SpanAttrBlocks    = "engine.busy_blocks"
	SpanAttrResults   = "engine.results"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a server span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...)
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartCalendarSpan starts a client span for a Calendar API call made on behalf of owner.
// Only the owner's domain is recorded.
func StartCalendarSpan(ctx context.Context, operation, owner string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "calendar."+operation,
		trace.WithAttributes(
			attribute.String(SpanAttrOperation, operation),
			attribute.String(SpanAttrOwner, ExtractUserDomain(owner)),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID of the span in ctx, or "".
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
