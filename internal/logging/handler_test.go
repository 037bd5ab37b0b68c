package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Output: &buf})

	logger.Info("message dispatched", Status(StatusSuccess))

	out := buf.String()
	if !strings.Contains(out, "message dispatched") {
		t.Errorf("output %q does not contain message", out)
	}
	if !strings.Contains(out, StatusSuccess) {
		t.Errorf("output %q does not contain status attribute", out)
	}
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf}).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message written at info level: %q", buf.String())
	}

	buf.Reset()
	New(Options{Output: &buf, Debug: true}).Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug message missing at debug level: %q", buf.String())
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf, JSON: true}).Info("hello", Tool("send-sms"))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry[KeyTool] != "send-sms" {
		t.Errorf("tool = %v, want send-sms", entry[KeyTool])
	}
}
