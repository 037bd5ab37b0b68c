package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span created here.
const TracerName = "github.com/hongsw/aligo-sms-mcp-server"

// Span attribute keys.
const (
	SpanAttrTool        = "mcp.tool"
	SpanAttrReadOnly    = "mcp.read_only"
	SpanAttrProvider    = "provider.name"
	SpanAttrOperation   = "provider.operation"
	SpanAttrMessageKind = "sms.kind"
	SpanAttrTestMode    = "sms.test_mode"

	// SpanAttrReceivers holds the bucketed receiver count, never the numbers.
	SpanAttrReceivers = "sms.receivers"
)

// ReadOnlyAttr marks a span produced while sending is disabled.
func ReadOnlyAttr(readOnly bool) attribute.KeyValue {
	return attribute.Bool(SpanAttrReadOnly, readOnly)
}

// MessageKindAttr records SMS, LMS or MMS.
func MessageKindAttr(kind string) attribute.KeyValue {
	return attribute.String(SpanAttrMessageKind, kind)
}

func TestModeAttr(on bool) attribute.KeyValue {
	return attribute.Bool(SpanAttrTestMode, on)
}

// ReceiversAttr records how many receivers a send addressed, bucketed.
func ReceiversAttr(receivers string) attribute.KeyValue {
	return attribute.String(SpanAttrReceivers, ReceiverCountBucket(receivers))
}

// StartToolSpan starts a server span named tool.<name> for an MCP tool call.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, "tool."+toolName, trace.SpanKindServer,
		append([]attribute.KeyValue{attribute.String(SpanAttrTool, toolName)}, attrs...))
}

// StartProviderSpan starts a client span named provider.<provider>.<operation>
// for an outbound gateway or relay call.
func StartProviderSpan(ctx context.Context, provider, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, "provider."+provider+"."+operation, trace.SpanKindClient,
		append([]attribute.KeyValue{
			attribute.String(SpanAttrProvider, provider),
			attribute.String(SpanAttrOperation, operation),
		}, attrs...))
}

func start(ctx context.Context, name string, kind trace.SpanKind, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(kind),
	)
}

// SetSpanError records err on span and marks it failed. A nil err is ignored.
func SetSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
