// Package relay sends short emails through the garak relay service
// (https://garak.wwwai.site). Accounts and API keys are created with
// `npx hi-garak`.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
	"github.com/hongsw/aligo-sms-mcp-server/internal/logging"
)

const (
	// DefaultBaseURL is the relay host used when none is configured.
	DefaultBaseURL = "https://garak.wwwai.site"

	// MaxBodyLength is the longest body the relay accepts, in characters.
	MaxBodyLength = 200

	sendPath       = "/api/send"
	defaultTimeout = 30 * time.Second
)

// ErrMissingAPIKey is returned when no GARAK_API_KEY is configured.
var ErrMissingAPIKey = errors.New("no relay API key configured; create one with `npx hi-garak` and set GARAK_API_KEY")

// Recorder receives one observation per relay call.
type Recorder interface {
	RecordProviderOperation(ctx context.Context, provider, operation, status string, duration time.Duration)
}

// Client posts messages to the relay.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     logging.Logger
	recorder   Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l logging.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(cl *Client) { cl.recorder = r }
}

// NewClient creates a Client. An empty baseURL selects DefaultBaseURL.
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		apiKey:     apiKey,
		endpoint:   baseURL + sendPath,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type sendRequest struct {
	Email string `json:"email"`
	Body  string `json:"body"`
}

// Response is the relay's reply.
type Response struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RelayError is returned when the relay rejects a message.
type RelayError struct {
	StatusCode int
	Message    string
	Reason     string
}

func (e *RelayError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "relay rejected the message"
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return msg
}

// Validate checks the address and body before anything is sent.
func Validate(email, body string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address %q", email)
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return fmt.Errorf("body must be at most %d characters", MaxBodyLength)
	}
	return nil
}

// Send relays body to email.
func (c *Client) Send(ctx context.Context, email, body string) (resp *Response, err error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}
	if err := Validate(email, body); err != nil {
		return nil, err
	}

	ctx, span := instrumentation.StartProviderSpan(ctx, instrumentation.ProviderRelay, instrumentation.OperationSend)
	defer span.End()

	start := time.Now()
	defer func() {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		if c.recorder != nil {
			c.recorder.RecordProviderOperation(ctx, instrumentation.ProviderRelay, instrumentation.OperationSend, status, time.Since(start))
		}
	}()

	payload, err := json.Marshal(sendRequest{Email: email, Body: body})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("relaying email",
		logging.UserHash(email),
		"api_key", logging.SanitizeToken(c.apiKey))

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http post: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			return nil, &RelayError{StatusCode: httpResp.StatusCode, Reason: strings.TrimSpace(string(raw))}
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if out.Error != "" || httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &RelayError{StatusCode: httpResp.StatusCode, Message: out.Message, Reason: out.Error}
	}

	c.logger.Info("email relayed", logging.UserHash(email))
	return &out, nil
}
