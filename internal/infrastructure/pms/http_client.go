package pms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum accepted vendor response body (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Request is one logical outbound call
type Request struct {
	// Operation names the call in logs and metrics (e.g. "fetch_bookings")
	Operation string
	Method    string
	// Path is appended to the client's base URL
	Path   string
	Query  url.Values
	Header http.Header
	// Body is JSON-encoded when set; RawBody is sent verbatim otherwise
	Body        any
	RawBody     []byte
	ContentType string
	// AcceptAnyStatus returns non-2xx responses instead of raising HTTP_<status>
	AcceptAnyStatus bool
}

// Response is a fully read vendor response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsJSON reports whether the response declares a JSON content type
func (r *Response) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// Decode unmarshals a JSON response into v
func (r *Response) Decode(v any) error {
	if !r.IsJSON() {
		return integration.NewInvalidResponseError(
			fmt.Sprintf("expected JSON response, got %q", r.Header.Get("Content-Type")), nil)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return integration.NewInvalidResponseError("malformed JSON response", err)
	}
	return nil
}

// Text returns the raw body
func (r *Response) Text() string {
	return string(r.Body)
}

// ClientOptions configures a Client
type ClientOptions struct {
	Provider    integration.ProviderKey
	BaseURL     string
	Auth        AuthConfig
	Header      http.Header
	Timeout     time.Duration
	Retry       RetryOptions
	RateLimiter *RateLimiter
	Metrics     *ClientMetrics
	HTTPClient  *http.Client
	Logger      *zap.Logger
	// Sleep replaces the backoff wait; tests inject a recorder
	Sleep SleepFunc
}

// Client is the resilient HTTP client shared by every vendor adapter.
// It enforces a per-attempt timeout, classifies failures into IntegrationErrors and
// retries network failures and retryable statuses with capped exponential backoff.
type Client struct {
	provider   integration.ProviderKey
	baseURL    string
	auth       AuthConfig
	header     http.Header
	timeout    time.Duration
	limiter    *RateLimiter
	httpClient *http.Client
	logger     *zap.Logger
	retrier    *Retrier
}

// NewClient creates a resilient client
func NewClient(opts ClientOptions) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeoutSeconds * time.Second
	}
	opts.Retry.normalize()
	logger := opts.Logger.With(zap.String("provider", string(opts.Provider)))
	return &Client{
		provider:   opts.Provider,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		auth:       opts.Auth,
		header:     opts.Header.Clone(),
		timeout:    opts.Timeout,
		limiter:    opts.RateLimiter,
		httpClient: opts.HTTPClient,
		logger:     logger,
		retrier: &Retrier{
			provider: opts.Provider,
			opts:     opts.Retry,
			sleep:    opts.Sleep,
			metrics:  opts.Metrics,
			logger:   logger,
		},
	}
}

// Do sends req, retrying per the client's policy
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, span := telemetry.StartSpan(ctx, "pms.http."+req.Operation,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("pms.provider", string(c.provider)),
	)
	defer span.End()

	var resp *Response
	err := c.retrier.Run(ctx, req.Operation, func(ctx context.Context) error {
		r, err := c.send(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, c.isRetryable)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

// DoOnce sends req exactly once; callers that own their retry policy use it
func (c *Client) DoOnce(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := c.send(ctx, req)
	c.retrier.metrics.observeAttempt(c.provider, req.Operation, err, time.Since(start))
	if err != nil {
		c.retrier.metrics.observeFailure(c.provider, req.Operation, err)
		return nil, err
	}
	return resp, nil
}

// isRetryable retries transport failures and configured statuses, never timeouts
func (c *Client) isRetryable(err *integration.IntegrationError) bool {
	if err.Code == integration.CodeNetworkError {
		return true
	}
	if status, ok := integration.HTTPStatusFromCode(err.Code); ok {
		return c.retrier.opts.IsRetryableStatus(status)
	}
	return false
}

// send performs one attempt bounded by the per-attempt timeout
func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, integration.WrapIntegrationError(integration.CodeInvalidPayload,
			"failed to encode request body", http.StatusBadRequest, err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, method, c.url(req), body)
	if err != nil {
		return nil, integration.WrapIntegrationError(integration.CodeInvalidPayload,
			"failed to build request", http.StatusBadRequest, err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	c.auth.Apply(httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: data}
	if !req.AcceptAnyStatus && (httpResp.StatusCode < 200 || httpResp.StatusCode >= 300) {
		return nil, integration.NewHTTPError(httpResp.StatusCode, strings.TrimSpace(string(data)))
	}
	if resp.IsJSON() && len(data) > 0 && !json.Valid(data) {
		return nil, integration.NewInvalidResponseError("malformed JSON response", nil)
	}
	return resp, nil
}

func (c *Client) url(req Request) string {
	u := c.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}

func encodeBody(req Request) (io.Reader, string, error) {
	switch {
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", err
		}
		ct := req.ContentType
		if ct == "" {
			ct = "application/json"
		}
		return bytes.NewReader(data), ct, nil
	case req.RawBody != nil:
		return bytes.NewReader(req.RawBody), req.ContentType, nil
	default:
		return nil, "", nil
	}
}

// classifyTransportError maps a failed round trip to TIMEOUT, CANCELED or NETWORK_ERROR.
// parent is the caller's context, not the per-attempt one.
func classifyTransportError(parent context.Context, err error) *integration.IntegrationError {
	if errors.Is(parent.Err(), context.Canceled) {
		return integration.NewCanceledError(parent.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return integration.NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return integration.NewTimeoutError(err)
	}
	return integration.NewNetworkError(err)
}

// ---------------------------------------------------------------------------
// Retrier
// ---------------------------------------------------------------------------

// Retrier runs an operation up to MaxRetries+1 times, sleeping the backoff delay
// between attempts while the failure is retryable.
type Retrier struct {
	provider integration.ProviderKey
	opts     RetryOptions
	sleep    SleepFunc
	metrics  *ClientMetrics
	logger   *zap.Logger
}

// NewRetrier creates a Retrier for callers that are not HTTP-shaped
func NewRetrier(provider integration.ProviderKey, opts RetryOptions, sleep SleepFunc, metrics *ClientMetrics, logger *zap.Logger) *Retrier {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.normalize()
	return &Retrier{provider: provider, opts: opts, sleep: sleep, metrics: metrics, logger: logger}
}

// Run calls fn until it succeeds, fails with a non-retryable error, or attempts run out.
// Exhaustion raises MAX_RETRIES_EXCEEDED wrapping the last error.
func (r *Retrier) Run(ctx context.Context, op string, fn func(ctx context.Context) error, retryable func(*integration.IntegrationError) bool) error {
	sleep := r.sleep
	if sleep == nil {
		sleep = contextSleep
	}
	bo := r.opts.NewBackOff()
	attempts := r.opts.MaxRetries + 1

	var last *integration.IntegrationError
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return integration.Wrap(err, integration.CodeCanceled, "operation canceled")
		}

		start := time.Now()
		err := fn(ctx)
		r.metrics.observeAttempt(r.provider, op, err, time.Since(start))
		if err == nil {
			return nil
		}

		ie := integration.Wrap(err, integration.CodeNetworkError, "request failed")
		if !retryable(ie) {
			r.metrics.observeFailure(r.provider, op, ie)
			return ie
		}
		last = ie
		if attempt == attempts-1 {
			break
		}

		delay := bo.NextBackOff()
		r.logger.Warn("PMS request failed, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.String("code", ie.Code),
		)
		r.metrics.observeRetry(r.provider, op)
		if err := sleep(ctx, delay); err != nil {
			return integration.Wrap(err, integration.CodeCanceled, "operation canceled")
		}
	}

	final := integration.WrapIntegrationError(
		integration.CodeMaxRetriesExceeded,
		fmt.Sprintf("%s failed after %d attempts", op, attempts),
		last.StatusCode,
		last,
	)
	r.metrics.observeFailure(r.provider, op, final)
	r.logger.Error("PMS request exhausted retries",
		zap.String("operation", op),
		zap.Int("attempts", attempts),
		zap.Error(last),
	)
	return final
}
