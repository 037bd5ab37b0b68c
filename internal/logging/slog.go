package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Attribute keys shared by every log line.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyUserHash  = "user_hash"
	KeyReceiver  = "receiver"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
)

// Status values. The instrumentation package has its own copy because it
// imports this one.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithService returns a logger with the service attribute set.
func WithService(logger *slog.Logger, service string) *slog.Logger {
	return logger.With(slog.String(KeyService, service))
}

func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns the error attribute. A nil err yields an empty group, which
// handlers drop, so Err(maybeNil) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// MaskPhone hides all but the last four digits of each number in a
// comma-separated receiver list, e.g. "01012345678" becomes "*******5678".
func MaskPhone(receivers string) string {
	if receivers == "" {
		return ""
	}
	parts := strings.Split(receivers, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) <= 4 {
			parts[i] = strings.Repeat("*", len(p))
			continue
		}
		parts[i] = strings.Repeat("*", len(p)-4) + p[len(p)-4:]
	}
	return strings.Join(parts, ",")
}

// Receiver returns the masked receiver list as an attribute.
func Receiver(receivers string) slog.Attr {
	return slog.String(KeyReceiver, MaskPhone(receivers))
}

// AnonymizeEmail hashes an address so log lines can be correlated without
// exposing it.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns the anonymized address as an attribute.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken describes a credential by length only.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
