package server

import (
	"context"
	"testing"

	"github.com/hongsw/aligo-sms-mcp-server/internal/aligo"
	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
	"github.com/hongsw/aligo-sms-mcp-server/internal/relay"
)

func newTestServerContext(t *testing.T, creds aligo.Credentials, email *relay.Client, readOnly bool) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), Options{
		SMS:      aligo.NewClient(aligo.Config{Credentials: creds}),
		Email:    email,
		ReadOnly: readOnly,
	})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func validCreds() aligo.Credentials {
	return aligo.Credentials{APIKey: "key", UserID: "user", TestMode: true}
}

func createTestProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	return createProvider(t, instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
}

func createProvider(t *testing.T, cfg instrumentation.Config) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test provider: %v", err)
	}
	t.Cleanup(func() {
		_ = provider.Shutdown(ctx)
	})
	return provider
}
