package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hongsw/aligo-sms-mcp-server/internal/aligo"
	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
	"github.com/hongsw/aligo-sms-mcp-server/internal/relay"
)

// Options configures a ServerContext.
type Options struct {
	// SMS is the gateway client used by send-sms. Required.
	SMS *aligo.Client

	// Email is the relay client used by send-email. Optional.
	Email *relay.Client

	// ReadOnly registers the send tools but makes them refuse to send.
	ReadOnly bool

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// ServerContext holds the dependencies shared by all tool handlers.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	sms         *aligo.Client
	email       *relay.Client
	readOnly    bool
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.SMS == nil {
		return nil, errors.New("sms client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		sms:      opts.SMS,
		email:    opts.Email,
		readOnly: opts.ReadOnly,
		logger:   opts.Logger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// SMSClient returns the gateway client.
func (sc *ServerContext) SMSClient() *aligo.Client {
	return sc.sms
}

// EmailClient returns the relay client, or nil when none was configured.
func (sc *ServerContext) EmailClient() *relay.Client {
	return sc.email
}

// ReadOnly reports whether send operations are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// SetMetrics sets the metrics recorder used by instrumented tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used by instrumented tool handlers.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
