package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureJSON returns a JSON logger and a func decoding its last line.
func captureJSON(t *testing.T) (*slog.Logger, func() map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	return logger, func() map[string]any {
		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		var entry map[string]any
		require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
		return entry
	}
}

func TestWithOperationAndService(t *testing.T) {
	logger, last := captureJSON(t)

	WithOperation(WithService(logger, "aligo"), "aligo.send").Info("dispatch")

	entry := last()
	assert.Equal(t, "aligo", entry[KeyService])
	assert.Equal(t, "aligo.send", entry[KeyOperation])
}

func TestErr(t *testing.T) {
	logger, last := captureJSON(t)

	logger.Info("failed", Err(errors.New("gateway timeout")))
	assert.Equal(t, "gateway timeout", last()[KeyError])

	logger.Info("ok", Err(nil))
	_, present := last()[KeyError]
	assert.False(t, present, "nil error must not add an attribute")
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"01012345678", "*******5678"},
		{"01011112222, 01033334444", "*******2222,*******4444"},
		{"123", "***"},
		{"1234", "****"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskPhone(tt.in))
		})
	}
}

func TestReceiver(t *testing.T) {
	logger, last := captureJSON(t)

	logger.Info("sent", Receiver("01012345678,01099998888"), Status(StatusSuccess))

	entry := last()
	assert.Equal(t, "*******5678,*******8888", entry[KeyReceiver])
	assert.Equal(t, StatusSuccess, entry[KeyStatus])
}

func TestAnonymizeEmail(t *testing.T) {
	assert.Empty(t, AnonymizeEmail(""))

	hash := AnonymizeEmail("jane@example.com")
	assert.Len(t, hash, len("user:")+16)
	assert.Regexp(t, `^user:[0-9a-f]{16}$`, hash)

	assert.Equal(t, hash, AnonymizeEmail(" Jane@Example.com "), "case and padding must not change the hash")
	assert.NotEqual(t, hash, AnonymizeEmail("john@example.com"))
}

func TestUserHash(t *testing.T) {
	attr := UserHash("jane@example.com")
	assert.Equal(t, KeyUserHash, attr.Key)
	assert.Equal(t, AnonymizeEmail("jane@example.com"), attr.Value.String())
}

func TestSanitizeToken(t *testing.T) {
	assert.Equal(t, "<empty>", SanitizeToken(""))
	assert.Equal(t, "[token:6 chars]", SanitizeToken("abc123"))
	assert.NotContains(t, SanitizeToken("secret-api-key"), "secret")
}
