package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
)

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func toolStatuses(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "mcp_tool_invocations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, p := range sum.DataPoints {
				status, _ := p.Attributes.Value("status")
				out[status.AsString()] += p.Value
			}
		}
	}
	return out
}

func TestInstrumentedToolHandler_NoInstrumentation(t *testing.T) {
	sc := newServerContext(t)

	called := false
	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		called = true
		return mcp.NewToolResultText("success"), nil
	}

	result, err := InstrumentedToolHandler("send-sms", instrumentation.ProviderAligo, sc, handler)(
		context.Background(), callRequest(nil))

	require.NoError(t, err)
	assert.True(t, called)
	assert.NotNil(t, result)
}

func TestInstrumentedToolHandler_RecordsMetricsAndAudit(t *testing.T) {
	sc := newServerContext(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)
	sc.SetMetrics(metrics)

	var buf bytes.Buffer
	sc.SetAuditLogger(instrumentation.NewAuditLogger(
		slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))

	ok := InstrumentedToolHandler("send-sms", instrumentation.ProviderAligo, sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("sent"), nil
		})
	failed := InstrumentedToolHandler("send-sms", instrumentation.ProviderAligo, sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			SetErrorKind(ctx, "TransportError")
			return mcp.NewToolResultError("boom"), nil
		})

	args := map[string]interface{}{"receiver": "01011112222"}
	_, err = ok(context.Background(), callRequest(args))
	require.NoError(t, err)
	_, err = failed(context.Background(), callRequest(args))
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{"success": 1, "error": 1}, toolStatuses(t, reader))

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	require.NoError(t, dec.Decode(&first))
	require.NoError(t, dec.Decode(&second))

	assert.Equal(t, "tool_executed", first["msg"])
	assert.Equal(t, "*******2222", first["receivers"])
	assert.Equal(t, instrumentation.ProviderAligo, first["provider"])

	assert.Equal(t, "tool_failed", second["msg"])
	assert.Equal(t, "TransportError", second["error_kind"])
	assert.NotContains(t, buf.String(), "01011112222")
}

func TestInstrumentedToolHandler_GoError(t *testing.T) {
	sc := newServerContext(t)
	var buf bytes.Buffer
	sc.SetAuditLogger(instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil))))

	wantErr := errors.New("handler failed")
	_, err := InstrumentedToolHandler("send-email", instrumentation.ProviderRelay, sc,
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return nil, wantErr
		})(context.Background(), callRequest(map[string]interface{}{"email": "jane@example.com"}))

	assert.ErrorIs(t, err, wantErr)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "tool_failed", entry["msg"])
	assert.Equal(t, "handler failed", entry["error"])
	assert.NotContains(t, buf.String(), "jane@example.com")
}

func TestSetErrorKind_OutsideHandler(t *testing.T) {
	SetErrorKind(context.Background(), "ValidationError")
}
