package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/hongsw/aligo-sms-mcp-server/internal/logging"
)

// ToolInvocation captures one MCP tool call for audit logging.
//
// Receivers holds phone numbers or an email address, which are PII. Unless the
// audit logger is configured with IncludePII they are only logged masked.
type ToolInvocation struct {
	Tool string

	// Receivers is the raw destination (phone list or email address)
	Receivers string

	// Provider and Outcome describe the downstream call
	Provider  string
	ErrorKind string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithReceivers sets the destination of the call.
func (ti *ToolInvocation) WithReceivers(receivers string) *ToolInvocation {
	ti.Receivers = receivers
	return ti
}

// WithProvider sets the downstream provider name.
func (ti *ToolInvocation) WithProvider(provider string) *ToolInvocation {
	ti.Provider = provider
	return ti
}

// WithErrorKind records the dispatch failure classification.
func (ti *ToolInvocation) WithErrorKind(kind string) *ToolInvocation {
	ti.ErrorKind = kind
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// maskedReceivers returns the destination in a form safe for general logs.
func (ti *ToolInvocation) maskedReceivers() string {
	if ti.Receivers == "" {
		return ""
	}
	if ExtractUserDomain(ti.Receivers) != "unknown" {
		return logging.AnonymizeEmail(ti.Receivers)
	}
	return logging.MaskPhone(ti.Receivers)
}

// LogAttrs returns slog attributes for the invocation. With includePII the
// raw destination is logged, otherwise a masked form.
func (ti *ToolInvocation) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.Receivers != "" {
		dest := ti.maskedReceivers()
		if includePII {
			dest = ti.Receivers
		}
		attrs = append(attrs,
			slog.String("receivers", dest),
			slog.String("receiver_count", ReceiverCountBucket(ti.Receivers)))
	}
	if ti.Provider != "" {
		attrs = append(attrs, slog.String("provider", ti.Provider))
	}
	if ti.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", ti.ErrorKind))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" && includePII {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// AuditLogger writes one structured record per tool invocation.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger that masks PII.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs tool_executed on success and tool_failed otherwise.
// A nil AuditLogger is a no-op.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled || ti == nil {
		return
	}

	attrs := ti.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
