package aligo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// State is the terminal state of a single send.
type State string

const (
	StateRejected  State = "rejected"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// maxSummaryText caps how much of a plain-text response is echoed in a summary.
const maxSummaryText = 200

// Outcome is the uniform result of a send. For a ProviderError, Raw holds the
// gateway's response body unmodified.
type Outcome struct {
	SummaryText  string      `json:"summaryText"`
	Success      bool        `json:"success"`
	State        State       `json:"state"`
	Raw          any         `json:"raw,omitempty"`
	ErrorKind    FailureKind `json:"errorKind,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	StatusCode   int         `json:"statusCode,omitempty"`
}

// JSON renders the outcome as indented JSON.
func (o *Outcome) JSON() string {
	b, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"summaryText":%q,"success":%t}`, o.SummaryText, o.Success)
	}
	return string(b)
}

// ToOutcome maps a gateway payload or a failure onto an Outcome.
// Errors that are not a *DispatchError are treated as transport failures.
func ToOutcome(raw any, err error) *Outcome {
	if err == nil {
		o := &Outcome{Success: true, State: StateSucceeded, Raw: raw}
		o.SummaryText = Describe(o)
		return o
	}

	var de *DispatchError
	if !errors.As(err, &de) {
		de = newDispatchError(TransportError, "dispatch", err)
	}

	o := &Outcome{
		State:        StateFailed,
		ErrorKind:    de.Kind,
		ErrorMessage: failureMessage(de),
		StatusCode:   de.StatusCode,
	}
	switch de.Kind {
	case ValidationError:
		o.State = StateRejected
	case ProviderError:
		if de.Body != "" {
			o.Raw = de.Body
		}
	}
	o.SummaryText = Describe(o)
	return o
}

// Describe returns the one-line human-readable summary for o.
func Describe(o *Outcome) string {
	if o == nil {
		return "No result"
	}
	if !o.Success {
		return fmt.Sprintf("Failed to send message (%s): %s", o.ErrorKind, o.ErrorMessage)
	}

	switch raw := o.Raw.(type) {
	case map[string]any:
		if id := stringField(raw, "msg_id"); id != "" {
			return fmt.Sprintf("Message sent successfully (message ID: %s)", id)
		}
		if msg := stringField(raw, "message"); msg != "" {
			return "Message sent successfully: " + msg
		}
	case string:
		if text := strings.TrimSpace(raw); text != "" {
			return "Message sent successfully: " + truncate(text, maxSummaryText)
		}
	}
	return "Message sent successfully"
}

func failureMessage(de *DispatchError) string {
	msg := "unknown error"
	if de.Err != nil {
		msg = de.Err.Error()
	}
	if de.Kind == ProviderError && de.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, truncate(strings.TrimSpace(de.Body), maxSummaryText))
	}
	return msg
}

// stringField reads a scalar field from a decoded JSON object.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
