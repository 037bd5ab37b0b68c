package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
	"github.com/hongsw/aligo-sms-mcp-server/internal/server"
)

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type invocationKey struct{}

var errToolResult = errors.New("tool returned an error result")

// SetErrorKind attaches a failure kind to the audit record of the running
// tool call. It is a no-op outside InstrumentedToolHandler.
func SetErrorKind(ctx context.Context, kind string) {
	if ti, ok := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation); ok && kind != "" {
		ti.WithErrorKind(kind)
	}
}

// InstrumentedToolHandler wraps a tool handler with a tool span, metrics and
// audit logging. provider names the downstream service the tool calls.
//
// Usage:
//
//	s.AddTool(tool, common.InstrumentedToolHandler("send-sms", instrumentation.ProviderAligo, sc, handler))
func InstrumentedToolHandler(toolName, provider string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		recipient := RecipientFromArgs(args)

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, instrumentation.ReadOnlyAttr(sc.ReadOnly()))
		if recipient != "" {
			span.SetAttributes(instrumentation.ReceiversAttr(recipient))
		}
		defer span.End()

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithProvider(provider).
			WithReceivers(recipient)
		ctx = context.WithValue(ctx, invocationKey{}, invocation)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		switch {
		case err != nil:
			invocation.Complete(false, err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			invocation.Complete(false, nil)
			instrumentation.SetSpanError(span, errToolResult)
		default:
			invocation.Complete(true, nil)
			instrumentation.SetSpanSuccess(span)
		}

		if metrics != nil {
			metrics.RecordToolInvocationWithReceivers(ctx, toolName, invocation.Status(), recipient, duration)
		}
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}
