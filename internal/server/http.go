package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is mounted.
const MCPEndpointPath = "/mcp"

// HTTPServer serves the MCP streamable HTTP transport next to the health
// endpoints.
type HTTPServer struct {
	mcpServer *mcpserver.MCPServer
	health    *HealthChecker
	metrics   *instrumentation.Metrics
	logger    *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
}

// NewHTTPServer creates an HTTPServer for mcpSrv. sc may be nil in tests.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext) *HTTPServer {
	logger := slog.Default()
	if sc != nil {
		logger = sc.Logger()
	}
	return &HTTPServer{
		mcpServer: mcpSrv,
		health:    NewHealthChecker(sc),
		logger:    logger,
	}
}

// SetMetrics enables HTTP request metrics.
func (s *HTTPServer) SetMetrics(m *instrumentation.Metrics) {
	s.metrics = m
}

// HealthChecker returns the health checker backing the probe endpoints.
func (s *HTTPServer) HealthChecker() *HealthChecker {
	return s.health
}

// Handler builds the router.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	s.health.RegisterHealthEndpoints(r)

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpointPath),
	)
	r.Handle(MCPEndpointPath, streamable)

	return r
}

// instrument records one http_requests_total sample per request, labelled
// with the matched route pattern.
func (s *HTTPServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, path, status, time.Since(start))
	})
}

// Start listens on addr and blocks until the server stops.
func (s *HTTPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln and blocks until the server stops.
func (s *HTTPServer) Serve(ln net.Listener) error {
	// No WriteTimeout: a send can legitimately take as long as the gateway timeout.
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", "addr", ln.Addr().String(), "endpoint", MCPEndpointPath)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server not ready and drains open requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}
