// Package server holds the runtime pieces shared by the MCP transports.
//
// ServerContext carries the gateway and relay clients, the read-only flag,
// and the optional metrics and audit logger used by instrumented tool
// handlers. It is created once at startup and shut down on exit.
//
// HTTPServer mounts the streamable HTTP transport at /mcp on a chi router
// together with the Kubernetes probe endpoints:
//
//   - /healthz: liveness
//   - /readyz: readiness, failing while gateway credentials are missing
//   - /healthz/detailed: uptime, read-only and test-mode flags
//
// MetricsServer exposes /metrics for Prometheus on a separate port.
package server
