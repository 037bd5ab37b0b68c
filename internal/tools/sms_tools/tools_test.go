package sms_tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongsw/aligo-sms-mcp-server/internal/aligo"
	"github.com/hongsw/aligo-sms-mcp-server/internal/server"
)

type gateway struct {
	*httptest.Server
	calls atomic.Int32
	form  atomic.Value
}

func newGateway(t *testing.T, status int, body string) *gateway {
	t.Helper()
	g := &gateway{}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.calls.Add(1)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			_ = r.ParseForm()
		}
		g.form.Store(r.PostForm)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(g.Close)
	return g
}

func (g *gateway) lastForm() url.Values {
	v, _ := g.form.Load().(url.Values)
	return v
}

func setup(t *testing.T, baseURL string, readOnly bool) *mcpserver.MCPServer {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Options{
		SMS: aligo.NewClient(aligo.Config{
			Credentials: aligo.Credentials{APIKey: "secret-key", UserID: "tester", TestMode: true},
			BaseURL:     baseURL,
		}),
		ReadOnly: readOnly,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test-server", "1.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterSMSTools(s, sc, readOnly))
	return s
}

func call(t *testing.T, s *mcpserver.MCPServer, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	tool, ok := s.ListTools()[ToolSendSMS]
	require.True(t, ok, "send-sms not registered")

	req := mcp.CallToolRequest{}
	req.Params.Name = ToolSendSMS
	req.Params.Arguments = args

	result, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func texts(t *testing.T, result *mcp.CallToolResult) []string {
	t.Helper()
	var out []string
	for _, c := range result.Content {
		tc, ok := c.(mcp.TextContent)
		require.True(t, ok, "unexpected content %T", c)
		out = append(out, tc.Text)
	}
	return out
}

func envelope(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	parts := texts(t, result)
	require.Len(t, parts, 2)
	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(parts[1]), &env))
	return env
}

func TestRegisterSMSTools_Schema(t *testing.T) {
	s := setup(t, "http://127.0.0.1:1", false)

	tool, ok := s.ListTools()[ToolSendSMS]
	require.True(t, ok)

	schema := tool.Tool.InputSchema
	assert.ElementsMatch(t, []string{"sender", "receiver", "message"}, schema.Required)
	for _, name := range []string{"msg_type", "title", "schedule_date", "schedule_time", "destination", "image_path"} {
		assert.Contains(t, schema.Properties, name)
	}
}

func TestRegisterSMSTools_AttachmentTypesDocumented(t *testing.T) {
	s := setup(t, "http://127.0.0.1:1", false)

	prop, ok := s.ListTools()[ToolSendSMS].Tool.InputSchema.Properties["image_path"].(map[string]any)
	require.True(t, ok)
	desc, _ := prop["description"].(string)

	labels := map[string]string{
		".jpg": "JPEG", ".png": "PNG", ".gif": "GIF", ".bmp": "BMP",
		".pdf": "PDF", ".doc": "DOC", ".docx": "DOCX",
	}
	for ext, label := range labels {
		assert.NotEqual(t, "application/octet-stream", aligo.AttachmentContentType("file"+ext), ext)
		assert.Contains(t, desc, label, ext)
	}
}

func TestSendSMS_Success(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"result_code":"1","message":"success","msg_id":"123"}`)
	s := setup(t, g.URL, false)

	result := call(t, s, map[string]interface{}{
		"sender":   "0212345678",
		"receiver": "01011112222",
		"message":  "hello",
	})

	assert.False(t, result.IsError)
	assert.Equal(t, "Message sent successfully (message ID: 123)", texts(t, result)[0])

	env := envelope(t, result)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, "succeeded", env["state"])

	form := g.lastForm()
	assert.Equal(t, "hello", form.Get("msg"))
	assert.Equal(t, "SMS", form.Get("msg_type"))
	assert.Equal(t, "Y", form.Get("testmode_yn"))
	assert.Equal(t, int32(1), g.calls.Load())
}

func TestSendSMS_NumericArguments(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"msg_id":"n"}`)
	s := setup(t, g.URL, false)

	result := call(t, s, map[string]interface{}{
		"sender":        "0212345678",
		"receiver":      "01011112222",
		"message":       "later",
		"schedule_date": float64(20251231),
		"schedule_time": "0930",
	})

	require.False(t, result.IsError, texts(t, result)[0])
	assert.Equal(t, "20251231", g.lastForm().Get("rdate"))
	assert.Equal(t, "0930", g.lastForm().Get("rtime"))
}

func TestSendSMS_ValidationFailureMakesNoCall(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing sender", map[string]interface{}{"receiver": "010", "message": "hi"}},
		{"lms without title", map[string]interface{}{"sender": "02", "receiver": "010", "message": "hi", "msg_type": "LMS"}},
		{"bad schedule date", map[string]interface{}{"sender": "02", "receiver": "010", "message": "hi", "schedule_date": "2025-12-31"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t, http.StatusOK, `{"msg_id":"x"}`)
			s := setup(t, g.URL, false)

			result := call(t, s, tt.args)

			assert.True(t, result.IsError)
			env := envelope(t, result)
			assert.Equal(t, "rejected", env["state"])
			assert.Equal(t, string(aligo.ValidationError), env["errorKind"])
			assert.Contains(t, texts(t, result)[0], "Failed to send message (ValidationError)")
			assert.Equal(t, int32(0), g.calls.Load())
		})
	}
}

func TestSendSMS_MMSWithAttachment(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"msg_id":"mms"}`)
	s := setup(t, g.URL, false)

	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nxx"), 0o600))

	result := call(t, s, map[string]interface{}{
		"sender":     "0212345678",
		"receiver":   "01011112222",
		"message":    "look",
		"msg_type":   "MMS",
		"title":      "Photo",
		"image_path": path,
	})

	require.False(t, result.IsError, texts(t, result)[0])
	assert.Equal(t, "MMS", g.lastForm().Get("msg_type"))
}

func TestSendSMS_MMSMissingAttachment(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"msg_id":"x"}`)
	s := setup(t, g.URL, false)

	result := call(t, s, map[string]interface{}{
		"sender":     "0212345678",
		"receiver":   "01011112222",
		"message":    "look",
		"msg_type":   "MMS",
		"title":      "Photo",
		"image_path": filepath.Join(t.TempDir(), "missing.png"),
	})

	assert.True(t, result.IsError)
	assert.Equal(t, string(aligo.AttachmentNotFound), envelope(t, result)["errorKind"])
	assert.Equal(t, int32(0), g.calls.Load())
}

func TestSendSMS_ProviderError(t *testing.T) {
	g := newGateway(t, http.StatusInternalServerError, "gateway down")
	s := setup(t, g.URL, false)

	result := call(t, s, map[string]interface{}{
		"sender":   "0212345678",
		"receiver": "01011112222",
		"message":  "hello",
	})

	assert.True(t, result.IsError)
	env := envelope(t, result)
	assert.Equal(t, "failed", env["state"])
	assert.Equal(t, string(aligo.ProviderError), env["errorKind"])
	assert.Equal(t, float64(http.StatusInternalServerError), env["statusCode"])
	assert.Contains(t, texts(t, result)[0], "gateway down")
	for _, text := range texts(t, result) {
		assert.NotContains(t, text, "secret-key")
	}
}

func TestSendSMS_ReadOnly(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"msg_id":"x"}`)
	s := setup(t, g.URL, true)

	result := call(t, s, map[string]interface{}{
		"sender":   "0212345678",
		"receiver": "01011112222",
		"message":  "hello",
	})

	assert.True(t, result.IsError)
	assert.Contains(t, texts(t, result)[0], "read-only")
	assert.Equal(t, int32(0), g.calls.Load())
}

func TestRequestFromArgs_KeepsBodyWhitespace(t *testing.T) {
	req, err := requestFromArgs(map[string]interface{}{
		"sender":  " 0212345678 ",
		"message": "  indented\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "0212345678", req.Sender)
	assert.Equal(t, "  indented\n", req.Body)
	assert.Equal(t, aligo.MessageKind(""), req.Kind)
}

func TestSendSMS_ReceiverArray(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"msg_id":"multi"}`)
	s := setup(t, g.URL, false)

	result := call(t, s, map[string]interface{}{
		"sender":   "0212345678",
		"receiver": []interface{}{"01011112222", "01033334444"},
		"message":  "hello all",
	})

	require.False(t, result.IsError, texts(t, result)[0])
	assert.Equal(t, "01011112222,01033334444", g.lastForm().Get("receiver"))
}

func TestSendSMS_InvalidReceiverArray(t *testing.T) {
	g := newGateway(t, http.StatusOK, `{"msg_id":"x"}`)
	s := setup(t, g.URL, false)

	result := call(t, s, map[string]interface{}{
		"sender":   "0212345678",
		"receiver": []interface{}{"01011112222", 42},
		"message":  "hello",
	})

	assert.True(t, result.IsError)
	env := envelope(t, result)
	assert.Equal(t, "rejected", env["state"])
	assert.Equal(t, "receiver[1] must be a string", env["errorMessage"])
	assert.Equal(t, int32(0), g.calls.Load())
}
