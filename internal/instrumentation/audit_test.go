package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestToolInvocation_Complete(t *testing.T) {
	ti := NewToolInvocation("send-sms")
	time.Sleep(time.Millisecond)
	ti.Complete(true, nil)

	assert.True(t, ti.Success)
	assert.Empty(t, ti.Error)
	assert.Greater(t, ti.Duration, time.Duration(0))
	assert.Equal(t, StatusSuccess, ti.Status())

	ti = NewToolInvocation("send-sms").Complete(false, errors.New("boom"))
	assert.Equal(t, "boom", ti.Error)
	assert.Equal(t, StatusError, ti.Status())
}

func TestToolInvocation_LogAttrs_MasksPhones(t *testing.T) {
	ti := NewToolInvocation("send-sms").
		WithReceivers("01011112222").
		WithProvider(ProviderAligo).
		WithErrorKind("TransportError").
		Complete(false, errors.New("timeout"))

	attrs := map[string]string{}
	for _, a := range ti.LogAttrs(false) {
		attrs[a.Key] = a.Value.String()
	}

	assert.Equal(t, "*******2222", attrs["receivers"])
	assert.Equal(t, "1", attrs["receiver_count"])
	assert.Equal(t, ProviderAligo, attrs["provider"])
	assert.Equal(t, "TransportError", attrs["error_kind"])
	assert.Equal(t, "timeout", attrs["error"])
}

func TestToolInvocation_LogAttrs_HashesEmail(t *testing.T) {
	ti := NewToolInvocation("send-email").WithReceivers("jane@example.com").Complete(true, nil)

	for _, a := range ti.LogAttrs(false) {
		if a.Key == "receivers" {
			assert.NotContains(t, a.Value.String(), "jane")
			assert.Contains(t, a.Value.String(), "user:")
		}
	}
}

func TestToolInvocation_LogAttrs_IncludePII(t *testing.T) {
	ti := NewToolInvocation("send-sms").WithReceivers("01011112222").Complete(true, nil)

	for _, a := range ti.LogAttrs(true) {
		if a.Key == "receivers" {
			assert.Equal(t, "01011112222", a.Value.String())
		}
	}
}

func TestToolInvocation_LogAttrs_MinimalFields(t *testing.T) {
	ti := NewToolInvocation("send-sms").Complete(true, nil)
	assert.Len(t, ti.LogAttrs(false), 3)
}

func TestToolInvocation_WithSpanContext_NoSpan(t *testing.T) {
	ti := NewToolInvocation("send-sms").WithSpanContext(context.Background())
	assert.Empty(t, ti.TraceID)
	assert.Empty(t, ti.SpanID)
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		NewAuditLogger(newJSONLogger(&buf)).LogToolInvocation(
			NewToolInvocation("send-sms").WithReceivers("01011112222").Complete(true, nil))

		entry := decodeEntry(t, &buf)
		assert.Equal(t, "tool_executed", entry["msg"])
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "audit", entry["component"])
		assert.Equal(t, "*******2222", entry["receivers"])
	})

	t.Run("failure", func(t *testing.T) {
		var buf bytes.Buffer
		NewAuditLogger(newJSONLogger(&buf)).LogToolInvocation(
			NewToolInvocation("send-sms").Complete(false, errors.New("boom")))

		entry := decodeEntry(t, &buf)
		assert.Equal(t, "tool_failed", entry["msg"])
		assert.Equal(t, "WARN", entry["level"])
	})

	t.Run("disabled", func(t *testing.T) {
		var buf bytes.Buffer
		NewAuditLoggerWithConfig(newJSONLogger(&buf), AuditLoggingConfig{Enabled: false}).
			LogToolInvocation(NewToolInvocation("send-sms").Complete(true, nil))
		assert.Zero(t, buf.Len())
	})

	t.Run("nil logger", func(t *testing.T) {
		var al *AuditLogger
		al.LogToolInvocation(NewToolInvocation("send-sms"))
	})
}
