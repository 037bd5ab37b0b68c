package aligo

import (
	"fmt"
	"net/url"
)

// MessageKind is the gateway's message subtype.
type MessageKind string

const (
	// KindSMS is a plain short message (up to 90 bytes on the handset).
	KindSMS MessageKind = "SMS"

	// KindLMS is a long-form text message. A title is required.
	KindLMS MessageKind = "LMS"

	// KindMMS is a multimedia message carrying one attachment. A title is required.
	KindMMS MessageKind = "MMS"
)

// RequiresTitle reports whether the gateway rejects this kind without a title.
func (k MessageKind) RequiresTitle() bool {
	return k == KindLMS || k == KindMMS
}

// Valid reports whether k is one of the known kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindSMS, KindLMS, KindMMS:
		return true
	}
	return false
}

// MessageRequest is a caller's request to send one message.
type MessageRequest struct {
	// Sender is the originating number registered with the gateway account
	Sender string

	// Receiver is a single number or a comma-separated list of numbers
	Receiver string

	// Body is the message text (1-2000 characters)
	Body string

	// Kind defaults to KindSMS when empty
	Kind MessageKind

	// Title is required for LMS and MMS (max 44 characters)
	Title string

	// ScheduleDate is the reservation date in YYYYMMDD format
	ScheduleDate string

	// ScheduleTime is the reservation time in HHMM format
	ScheduleTime string

	// DestinationList names recipients, e.g. "01011112222|Kim,01033334444|Lee"
	DestinationList string

	// AttachmentPath is the image or document sent with an MMS
	AttachmentPath string
}

// Credentials identify the gateway account. They are read-only for the lifetime
// of a Client.
type Credentials struct {
	APIKey   string
	UserID   string
	TestMode bool
}

// String never includes the API key.
func (c Credentials) String() string {
	return fmt.Sprintf("aligo account %q (test mode: %t)", c.UserID, c.TestMode)
}

// Field is one name/value pair of the gateway's form.
type Field struct {
	Name  string
	Value string
}

// NormalizedFields is a validated request in the gateway's vocabulary.
// Fields are kept in a stable order so encoded bodies are deterministic apart
// from the multipart boundary.
type NormalizedFields struct {
	Kind           MessageKind
	Fields         []Field
	AttachmentPath string
}

// Get returns the value of the named field and whether it is present.
func (n *NormalizedFields) Get(name string) (string, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns the fields as url.Values.
func (n *NormalizedFields) Values() url.Values {
	v := make(url.Values, len(n.Fields))
	for _, f := range n.Fields {
		v.Add(f.Name, f.Value)
	}
	return v
}

// HasAttachment reports whether the fields must travel as multipart.
func (n *NormalizedFields) HasAttachment() bool {
	return n.Kind == KindMMS && n.AttachmentPath != ""
}

// EncodedPayload is a transport-ready request body.
type EncodedPayload struct {
	ContentType string
	Body        []byte
}

// ContentLength is the exact byte length of the body.
func (p *EncodedPayload) ContentLength() int64 {
	return int64(len(p.Body))
}

// FailureKind classifies why a dispatch did not succeed.
type FailureKind string

const (
	// ValidationError means the caller's input was rejected. No network call was made.
	ValidationError FailureKind = "ValidationError"

	// AttachmentNotFound means the MMS attachment was missing or unreadable.
	// No network call was made.
	AttachmentNotFound FailureKind = "AttachmentNotFound"

	// TransportError means no response was received (DNS, connect, timeout, cancel).
	TransportError FailureKind = "TransportError"

	// ProviderError means the gateway answered with a non-2xx status.
	ProviderError FailureKind = "ProviderError"

	// ParseError means the response could not be read.
	// A body that is not JSON is not a ParseError; it is passed through as text.
	ParseError FailureKind = "ParseError"
)

// DispatchError represents an error that occurred while sending a message
type DispatchError struct {
	// Kind classifies the failure
	Kind FailureKind

	// Op is the stage that failed (e.g., "normalize", "encode", "dispatch")
	Op string

	// StatusCode is the HTTP status for ProviderError, otherwise zero
	StatusCode int

	// Body is the gateway's response body for ProviderError
	Body string

	// Err is the underlying error
	Err error
}

// Error implements the error interface
func (e *DispatchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("aligo %s: %s (status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("aligo %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *DispatchError) Unwrap() error {
	return e.Err
}

func newDispatchError(kind FailureKind, op string, err error) *DispatchError {
	return &DispatchError{Kind: kind, Op: op, Err: err}
}
