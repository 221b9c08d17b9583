package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/toolproxy/pkg/config"
	"mercator-hq/toolproxy/pkg/telemetry/tracing"
)

// Request modes reported to the Recorder.
const (
	ModeComplete = "complete"
	ModeStream   = "stream"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeSuccess     = "success"
	OutcomeStatus      = "backend_status"
	OutcomeUnreachable = "unreachable"
	OutcomeTimeout     = "timeout"
	OutcomeParseError  = "parse_error"
	OutcomeCanceled    = "canceled"
)

// Recorder receives backend request observations.
type Recorder interface {
	RecordBackendRequest(mode, outcome string, duration time.Duration)
	RecordStreamBytes(n int)
}

type nopRecorder struct{}

func (nopRecorder) RecordBackendRequest(string, string, time.Duration) {}
func (nopRecorder) RecordStreamBytes(int)                              {}

// Response is a non-streaming backend reply, relayed as received.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client forwards chat completion requests to the inference server. It is
// safe for concurrent use; every request builds its own headers and the
// pooled transport keeps no cookies.
type Client struct {
	cfg       config.BackendConfig
	http      *http.Client
	chatURL   string
	modelsURL string
	logger    *slog.Logger
	recorder  Recorder
	tracer    trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithTracer sets the tracer used for client spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithHTTPClient replaces the pooled HTTP client. Its Timeout must be zero;
// deadlines are applied per request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a backend client for cfg.
func NewClient(cfg config.BackendConfig, opts ...Option) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		cfg:       cfg,
		chatURL:   base + cfg.ChatPath,
		modelsURL: base + cfg.ModelsPath,
		logger:    slog.Default(),
		recorder:  nopRecorder{},
		tracer:    noop.NewTracerProvider().Tracer(""),
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        cfg.MaxIdleConns,
				MaxIdleConnsPerHost: cfg.MaxIdleConns,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChatURL returns the completion endpoint.
func (c *Client) ChatURL() string { return c.chatURL }

// ModelsURL returns the model listing endpoint probed for health.
func (c *Client) ModelsURL() string { return c.modelsURL }

// Complete performs a single request/response exchange bounded by the
// configured request timeout. Non-2xx replies are returned, not treated as
// errors.
func (c *Client) Complete(ctx context.Context, body []byte) (resp *Response, err error) {
	start := time.Now()
	ctx, span := c.startSpan(ctx, ModeComplete)
	defer func() { endSpan(span, resp, err) }()
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, c.chatURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Connection", "close")
	req.Close = true

	c.logger.DebugContext(ctx, "forwarding completion request", "url", c.chatURL, "bytes", len(body))

	httpResp, err := c.http.Do(req)
	if err != nil {
		err = c.classify(parent, ctx, err)
		c.recorder.RecordBackendRequest(ModeComplete, outcomeOf(err), time.Since(start))
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		err = c.classify(parent, ctx, err)
		c.recorder.RecordBackendRequest(ModeComplete, outcomeOf(err), time.Since(start))
		return nil, err
	}

	out := &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        data,
	}

	if isSuccess(httpResp.StatusCode) && !json.Valid(data) {
		err := &ParseError{URL: c.chatURL, RawResponse: truncate(data, 512), Cause: json.Unmarshal(data, new(any))}
		c.recorder.RecordBackendRequest(ModeComplete, OutcomeParseError, time.Since(start))
		return nil, err
	}

	outcome := OutcomeSuccess
	if !isSuccess(httpResp.StatusCode) {
		outcome = OutcomeStatus
		c.logger.WarnContext(ctx, "backend returned error status", "status", httpResp.StatusCode)
	}
	c.recorder.RecordBackendRequest(ModeComplete, outcome, time.Since(start))
	return out, nil
}

// ProbeModels issues GET <models_path> bounded by the health timeout and
// reports whether the backend answered with a 2xx status.
func (c *Client) ProbeModels(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelsURL, nil)
	if err != nil {
		return &RequestError{Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &TimeoutError{URL: c.modelsURL, Timeout: c.cfg.HealthTimeout}
		}
		return &UnreachableError{URL: c.modelsURL, Cause: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("backend models endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) newRequest(ctx context.Context, url string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	tracing.Inject(ctx, req.Header)
	return req, nil
}

func (c *Client) startSpan(ctx context.Context, mode string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, "backend."+mode,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(tracing.AttrBackendMode, mode),
			attribute.String("url.full", c.chatURL),
		),
	)
}

// endSpan closes a Complete span. Non-2xx replies are recorded as errors
// on the span but are not Go errors.
func endSpan(span trace.Span, resp *Response, err error) {
	defer span.End()
	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		if !isSuccess(resp.StatusCode) {
			err = fmt.Errorf("backend returned status %d", resp.StatusCode)
		}
	}
	tracing.SetError(span, err)
}

// classify maps a transport error to a typed error. A caller cancellation
// is returned as the context error; only the request's own deadline is a
// TimeoutError.
func (c *Client) classify(parent, ctx context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return parent.Err()
	case ctx.Err() != nil:
		return &TimeoutError{URL: c.chatURL, Timeout: c.cfg.RequestTimeout}
	default:
		return &UnreachableError{URL: c.chatURL, Cause: err}
	}
}

func outcomeOf(err error) string {
	var (
		timeout *TimeoutError
		parse   *ParseError
	)
	switch {
	case errors.As(err, &timeout):
		return OutcomeTimeout
	case errors.As(err, &parse):
		return OutcomeParseError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeUnreachable
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
