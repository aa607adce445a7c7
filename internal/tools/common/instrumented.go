package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return InstrumentedToolHandlerWithOperation(toolName, "", sc, handler)
}

// InstrumentedToolHandlerWithOperation is like InstrumentedToolHandler but
// also records the Calendar operation the tool performs in the audit log and
// span.
func InstrumentedToolHandlerWithOperation(toolName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner := OwnerFromArgs(request.GetArguments())

		var attrs []attribute.KeyValue
		if operation != "" {
			attrs = append(attrs, attribute.String(instrumentation.SpanAttrOperation, operation))
		}
		if owner != "" {
			attrs = append(attrs, attribute.String(instrumentation.SpanAttrOwner, instrumentation.ExtractUserDomain(owner)))
		}
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithOperation(operation).
			WithOwner(owner)

		result, err := handler(ctx, request)

		switch {
		case err != nil:
			invocation.Complete(false, err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			resultErr := errors.New(resultText(result))
			invocation.Complete(false, resultErr)
			instrumentation.SetSpanError(span, resultErr)
		default:
			invocation.Complete(true, nil)
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), owner, time.Since(start))
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}

func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			return tc.Text
		}
	}
	return "tool returned an error"
}
