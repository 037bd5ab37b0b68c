package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

// Probe status values.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusMissing      = "missing"
	healthStatusDisabled     = "disabled"
)

// HealthChecker serves the Kubernetes probe endpoints. A nil server context
// is treated as healthy and configured.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a new HealthChecker.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// isServerShuttingDown returns false when serverContext is nil.
func (h *HealthChecker) isServerShuttingDown() bool {
	return h.serverContext != nil && h.serverContext.IsShutdown()
}

// smsConfigured returns true when serverContext is nil.
func (h *HealthChecker) smsConfigured() bool {
	return h.serverContext == nil || h.serverContext.SMSClient().Configured()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse provides comprehensive health information.
type DetailedHealthResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	ReadOnly bool   `json:"readOnly"`
	TestMode bool   `json:"testMode"`
	SMS      string `json:"sms"`
	Email    string `json:"email"`
}

// LivenessHandler serves /healthz. It only reports that the process answers.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// readinessCheck is one named condition of /readyz.
type readinessCheck struct {
	name   string
	failed string
	ok     func() bool
}

func (h *HealthChecker) readinessChecks() []readinessCheck {
	return []readinessCheck{
		{name: "ready", failed: healthStatusNotReady, ok: h.ready.Load},
		{name: "shutdown", failed: healthStatusShuttingDown, ok: func() bool { return !h.isServerShuttingDown() }},
		{name: "sms_credentials", failed: healthStatusMissing, ok: h.smsConfigured},
	}
}

// ReadinessHandler serves /readyz. It answers 503 while any check fails,
// including when the gateway credentials are missing.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := HealthResponse{Status: healthStatusOK, Checks: map[string]string{}}
		status := http.StatusOK

		for _, c := range h.readinessChecks() {
			if c.ok() {
				response.Checks[c.name] = healthStatusOK
				continue
			}
			response.Checks[c.name] = c.failed
			response.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, response)
	})
}

// DetailedHealthHandler returns an HTTP handler for the /healthz/detailed endpoint.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
			SMS:    healthStatusOK,
			Email:  healthStatusDisabled,
		}

		if sc := h.serverContext; sc != nil {
			response.ReadOnly = sc.ReadOnly()
			response.TestMode = sc.SMSClient().TestMode()
			if !sc.SMSClient().Configured() {
				response.SMS = healthStatusMissing
			}
			if email := sc.EmailClient(); email != nil && email.Configured() {
				response.Email = healthStatusOK
			}
		}

		status := http.StatusOK
		switch {
		case !h.ready.Load():
			response.Status = healthStatusNotReady
			status = http.StatusServiceUnavailable
		case h.isServerShuttingDown():
			response.Status = healthStatusShuttingDown
			status = http.StatusServiceUnavailable
		}

		writeJSON(w, status, response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given router.
func (h *HealthChecker) RegisterHealthEndpoints(r chi.Router) {
	r.Method(http.MethodGet, "/healthz", h.LivenessHandler())
	r.Method(http.MethodGet, "/readyz", h.ReadinessHandler())
	r.Method(http.MethodGet, "/healthz/detailed", h.DetailedHealthHandler())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
