// Package instrumentation provides OpenTelemetry instrumentation for the
// aligo-sms-mcp server.
//
// Every send is observable as metrics, a tool span with a child gateway or
// relay span, and one audit record with masked receivers. Metrics are
// scraped from the dedicated metrics port or pushed over OTLP.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Provider Metrics:
//   - provider_api_operations_total: Counter of provider calls by provider, operation, status
//   - provider_api_operation_duration_seconds: Histogram of provider call durations
//   - sms_dispatch_outcomes_total: Counter of dispatch outcomes by failure kind and result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// Phone numbers and email addresses are never used as label values.
//
// # Tracing
//
// Spans are created for:
//   - MCP tool invocations (tool.<name>)
//   - Provider calls (provider.<provider>.<operation>)
//
// # Configuration
//
// DefaultConfig reads these environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: aligo-sms-mcp)
//   - OTEL_EXPORTER_OTLP_INSECURE: Disable TLS towards the collector (default: false)
//   - METRICS_DETAILED_LABELS: Add a bucketed receiver count label to tool metrics
//   - AUDIT_LOGGING_ENABLED: Emit audit records (default: true)
//   - AUDIT_LOGGING_INCLUDE_PII: Log raw receivers in audit records (default: false)
//   - K8S_NAMESPACE / POD_NAMESPACE, K8S_POD_NAME / HOSTNAME: resource attributes
//
// The stdout exporters write to stderr, since stdout carries the stdio transport.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordProviderOperation(ctx, instrumentation.ProviderAligo,
//		instrumentation.OperationSend, instrumentation.StatusSuccess, time.Since(start))
//	metrics.RecordToolInvocation(ctx, "send-sms", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
