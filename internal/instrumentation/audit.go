package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures one MCP tool call for audit logging.
//
// Owner is the calendar owner the tool acted on and is PII. It is only logged
// in full when the audit logger is configured to include PII.
type ToolInvocation struct {
	Tool      string
	Owner     string
	Operation string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

// WithOwner sets the calendar owner.
func (ti *ToolInvocation) WithOwner(owner string) *ToolInvocation {
	ti.Owner = owner
	return ti
}

// WithOperation sets the Calendar operation type.
func (ti *ToolInvocation) WithOperation(operation string) *ToolInvocation {
	ti.Operation = operation
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
		ti.SpanID = sc.SpanID().String()
	}
	return ti
}

// Complete marks the invocation as finished.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// attrs returns the log attributes, with either the full owner or only the domain.
func (ti *ToolInvocation) attrs(includePII bool) []any {
	args := []any{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Owner != "" {
		if includePII {
			args = append(args, slog.String("owner", ti.Owner))
		} else {
			args = append(args, slog.String("owner_domain", ExtractUserDomain(ti.Owner)))
		}
	}
	if ti.Operation != "" {
		args = append(args, slog.String("operation", ti.Operation))
	}
	if ti.TraceID != "" {
		args = append(args, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		args = append(args, slog.String("error", ti.Error))
	}
	return args
}

// AuditLogger writes one structured record per tool invocation.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger from config.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With("component", "audit"),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs ti at info level on success and warn level on failure.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	if ti.Success {
		al.logger.Info("tool_executed", ti.attrs(al.includePII)...)
	} else {
		al.logger.Warn("tool_failed", ti.attrs(al.includePII)...)
	}
}
