package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/hongsw/aligo-sms-mcp-server/internal/aligo"
	"github.com/hongsw/aligo-sms-mcp-server/internal/config"
	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
	"github.com/hongsw/aligo-sms-mcp-server/internal/logging"
	"github.com/hongsw/aligo-sms-mcp-server/internal/relay"
	"github.com/hongsw/aligo-sms-mcp-server/internal/server"
	"github.com/hongsw/aligo-sms-mcp-server/internal/tools/email_tools"
	"github.com/hongsw/aligo-sms-mcp-server/internal/tools/sms_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// serveOptions holds the serve command flags.
type serveOptions struct {
	transport      string
	httpAddr       string
	debug          bool
	jsonLogs       bool
	configPath     string
	readOnly       bool
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP on --http-addr, with /mcp, /healthz and /readyz

Logs are written to stderr. The stdio transport owns stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-enabled") {
				if v := os.Getenv("METRICS_ENABLED"); v != "" {
					opts.metricsEnabled = config.ParseFlag(v)
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if v := os.Getenv("METRICS_ADDR"); v != "" {
					opts.metricsAddr = v
				}
			}
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging (also DEBUG=true)")
	cmd.Flags().BoolVar(&opts.jsonLogs, "log-json", false, "Write logs as JSON instead of text")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the rc file (default: ~/"+config.RCFileName+")")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Register the send tools but refuse to send")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", false, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(parent context.Context, opts serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	shutdownCtx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(logging.Options{Debug: opts.debug || cfg.Debug, JSON: opts.jsonLogs})
	slog.SetDefault(logger)

	if cfg.Source != "" {
		logger.Debug("configuration loaded", "source", cfg.Source)
	}
	if err := cfg.Validate(); err != nil {
		logger.Warn("send-sms will reject every call until credentials are set", logging.Err(err))
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	serverContext, err := newServerContext(shutdownCtx, cfg, opts.readOnly, logger, provider.Metrics())
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() { _ = serverContext.Shutdown() }()

	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	if opts.metricsEnabled {
		metricsServer, err := startMetricsServer(opts.metricsAddr, provider, logger)
		if err != nil {
			logger.Warn("metrics server disabled", logging.Err(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := metricsServer.Shutdown(ctx); err != nil {
					logger.Warn("metrics server shutdown failed", logging.Err(err))
				}
			}()
		}
	}

	mcpSrv := newMCPServer()
	if err := registerAllTools(mcpSrv, serverContext, opts.readOnly); err != nil {
		return err
	}

	logger.Info("starting aligo-sms-mcp",
		"version", version,
		"transport", opts.transport,
		"read_only", opts.readOnly,
		"test_mode", cfg.Aligo.TestMode)

	switch opts.transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts.httpAddr, provider, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}
}

// newServerContext builds the gateway and relay clients from cfg.
func newServerContext(ctx context.Context, cfg *config.Config, readOnly bool, logger *slog.Logger, metrics *instrumentation.Metrics) (*server.ServerContext, error) {
	sms := aligo.NewClient(aligo.Config{
		Credentials: cfg.Credentials(),
		BaseURL:     cfg.Aligo.BaseURL,
		Timeout:     cfg.Aligo.Timeout,
		Logger:      logger,
		Recorder:    metrics,
	})

	email := relay.NewClient(cfg.Relay.APIKey, cfg.Relay.BaseURL,
		relay.WithLogger(logging.WithService(logger, instrumentation.ProviderRelay)),
		relay.WithRecorder(metrics),
	)

	return server.NewServerContext(ctx, server.Options{
		SMS:      sms,
		Email:    email,
		ReadOnly: readOnly,
		Logger:   logger,
	})
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("aligo-sms-mcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, err
	}

	go func() {
		if err := metricsServer.Start(); err != nil {
			logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	if err := mcpserver.ServeStdio(mcpSrv); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers every tool group on mcpSrv.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{
			name: "SMS",
			register: func() error {
				return sms_tools.RegisterSMSTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Email",
			register: func() error {
				return email_tools.RegisterEmailTools(mcpSrv, sc, readOnly)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, addr string, provider *instrumentation.Provider, logger *slog.Logger) error {
	httpServer := server.NewHTTPServer(mcpSrv, sc)
	if provider.Enabled() {
		httpServer.SetMetrics(provider.Metrics())
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
