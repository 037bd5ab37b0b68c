package aligo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hongsw/aligo-sms-mcp-server/internal/instrumentation"
	"github.com/hongsw/aligo-sms-mcp-server/internal/logging"
)

const (
	// DefaultBaseURL is the gateway's API host.
	DefaultBaseURL = "https://apis.aligo.in"

	// DefaultTimeout bounds a single send.
	DefaultTimeout = 30 * time.Second

	sendPath = "/send/"

	// maxResponseBytes caps a response body. A larger successful response is a ParseError.
	maxResponseBytes = 1 << 20
)

// Recorder receives one observation per gateway call.
// *instrumentation.Metrics satisfies it.
type Recorder interface {
	RecordProviderOperation(ctx context.Context, provider, operation, status string, duration time.Duration)
	RecordDispatchOutcome(ctx context.Context, kind, result string)
}

// Config configures a Client.
type Config struct {
	Credentials Credentials

	// BaseURL defaults to DefaultBaseURL
	BaseURL string

	// Timeout defaults to DefaultTimeout. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the client used for the POST
	HTTPClient *http.Client

	// Logger defaults to slog.Default()
	Logger *slog.Logger

	// Recorder is optional
	Recorder Recorder
}

// Client sends messages through the gateway. It holds only immutable
// configuration and is safe for concurrent use.
type Client struct {
	creds    Credentials
	endpoint string
	http     *http.Client
	logger   *slog.Logger
	recorder Recorder

	maxResponse int64
}

// NewClient creates a Client from cfg, filling in defaults.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		creds:    cfg.Credentials,
		endpoint: baseURL + sendPath,
		http:     httpClient,
		logger:   logging.WithService(logger, "aligo"),
		recorder: cfg.Recorder,

		maxResponse: maxResponseBytes,
	}
}

// TestMode reports whether sends are simulated by the gateway.
func (c *Client) TestMode() bool {
	return c.creds.TestMode
}

// Configured reports whether an API key and account id are present.
func (c *Client) Configured() bool {
	return c.creds.APIKey != "" && c.creds.UserID != ""
}

// Send validates, encodes and dispatches req. It never returns an error:
// failures are reported through the returned Outcome.
func (c *Client) Send(ctx context.Context, req MessageRequest) *Outcome {
	requestID := uuid.NewString()
	logger := logging.WithOperation(c.logger, "aligo.send").With(
		slog.String("request_id", requestID),
		slog.String("msg_type", string(normalizeKind(req.Kind))),
		logging.Receiver(req.Receiver),
	)

	raw, err := c.send(ctx, req)
	outcome := ToOutcome(raw, err)

	if c.recorder != nil {
		kind := string(outcome.ErrorKind)
		if kind == "" {
			kind = "none"
		}
		c.recorder.RecordDispatchOutcome(ctx, kind, string(outcome.State))
	}

	if outcome.Success {
		logger.Info("message dispatched", logging.Status(logging.StatusSuccess))
	} else {
		logger.Warn("message dispatch failed",
			logging.Status(string(outcome.State)),
			slog.String("error_kind", string(outcome.ErrorKind)),
			logging.Err(err))
	}
	return outcome
}

func (c *Client) send(ctx context.Context, req MessageRequest) (any, error) {
	fields, err := Normalize(req, c.creds)
	if err != nil {
		return nil, err
	}

	payload, err := Encode(fields)
	if err != nil {
		return nil, err
	}

	return c.dispatch(ctx, payload,
		instrumentation.MessageKindAttr(string(fields.Kind)),
		instrumentation.TestModeAttr(c.creds.TestMode),
		instrumentation.ReceiversAttr(req.Receiver))
}

// dispatch performs exactly one POST. There is no retry.
func (c *Client) dispatch(ctx context.Context, payload *EncodedPayload, attrs ...attribute.KeyValue) (raw any, err error) {
	ctx, span := instrumentation.StartProviderSpan(ctx, instrumentation.ProviderAligo, instrumentation.OperationSend,
		append(attrs,
			attribute.String("http.request.content_type", payload.ContentType),
			attribute.Int64("http.request.body.size", payload.ContentLength()))...)
	defer span.End()

	start := time.Now()
	defer func() {
		status := logging.StatusSuccess
		if err != nil {
			status = logging.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		if c.recorder != nil {
			c.recorder.RecordProviderOperation(ctx, instrumentation.ProviderAligo, instrumentation.OperationSend, status, time.Since(start))
		}
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload.Body))
	if err != nil {
		return nil, newDispatchError(TransportError, "dispatch", err)
	}
	httpReq.Header.Set("Content-Type", payload.ContentType)
	httpReq.ContentLength = payload.ContentLength()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, newDispatchError(TransportError, "dispatch", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponse+1))
	if err != nil {
		return nil, newDispatchError(ParseError, "dispatch", fmt.Errorf("reading response: %w", err))
	}
	overflow := int64(len(body)) > c.maxResponse
	if overflow {
		body = body[:c.maxResponse]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DispatchError{
			Kind:       ProviderError,
			Op:         "dispatch",
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("gateway responded %s", resp.Status),
		}
	}
	if overflow {
		return nil, newDispatchError(ParseError, "dispatch", fmt.Errorf("response exceeds %d bytes", c.maxResponse))
	}

	return decodeResponse(body), nil
}

// decodeResponse parses a JSON body, falling back to the raw text.
// Gateway status codes embedded in the JSON are passed through uninspected.
func decodeResponse(body []byte) any {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return string(body)
	}
	return v
}
