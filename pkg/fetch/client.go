package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/myastroboard/astroboard/pkg/errors"
	"github.com/myastroboard/astroboard/pkg/httputil"
	"github.com/myastroboard/astroboard/pkg/observability"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 32 << 20

// Client issues requests against one API origin.
// It holds no mutable state between calls and is safe for concurrent use.
type Client struct {
	baseURL        string
	http           *http.Client
	headers        map[string]string
	cookies        []*http.Cookie
	logger         *log.Logger
	rand           httputil.RandSource
	sleep          func(ctx context.Context, d time.Duration) error
	onUnauthorized func(ctx context.Context, endpoint string)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport. Attempt deadlines come from the
// retry policy, so the client's own Timeout should normally be zero.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger for attempt, retry and authorization events.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHeaders adds default headers sent with every request.
// Per-request headers override them.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithCookies attaches cookies (typically a session) to every request.
func WithCookies(cookies ...*http.Cookie) Option {
	return func(c *Client) {
		c.cookies = append(c.cookies, cookies...)
	}
}

// WithRandSource sets the jitter source.
func WithRandSource(r httputil.RandSource) Option {
	return func(c *Client) { c.rand = r }
}

// WithSleep replaces the backoff sleeper. Tests use it to run retries in
// simulated time.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithUnauthorized registers the hook run on every terminal 401.
// 403 responses never invoke it.
func WithUnauthorized(fn func(ctx context.Context, endpoint string)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// NewHTTPClient returns the default transport. It has no overall timeout;
// each attempt is bounded by the retry policy instead.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewClient creates a client for the API served at baseURL
// (for example "http://localhost:5000").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateBaseURL(baseURL); err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    NewHTTPClient(),
		headers: map[string]string{},
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API origin without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Request describes one HTTP call apart from its path. It is never
// modified by the client; each attempt builds a fresh *http.Request from it.
type Request struct {
	Method string      // defaults to GET
	Header http.Header // merged over the client's default headers
	Body   []byte      // sent as application/json unless Header says otherwise
}

// JSONRequest marshals v into a request body for method.
func JSONRequest(method string, v any) (Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Request{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "encode request body")
	}
	return Request{Method: method, Body: body}, nil
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Endpoint   string // absolute URL requested
	RequestID  string // X-Request-ID shared by every attempt of the call
	Attempts   int    // round trips made by the call
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Cookies parses the Set-Cookie headers of the response.
func (r *Response) Cookies() []*http.Cookie {
	return (&http.Response{Header: r.Header}).Cookies()
}

// Payload classifies the body. It does not check the status code.
func (r *Response) Payload() (*Payload, error) {
	p, err := parsePayload(r.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "invalid JSON from %s", r.Endpoint).WithEndpoint(r.Endpoint)
	}
	return p, nil
}

// FetchWithRetry performs the request with bounded retry.
//
// Transport failures and per-attempt timeouts are retried with reason
// network; 429 and 5xx statuses with reason http; 2xx payloads approved
// by policy.ShouldRetryData with reason data. Any other status ends the
// call after that attempt. When attempts run out, the last response is
// returned with a nil error for the http and data reasons, and the last
// error is returned for the network reason. If ctx is cancelled, the
// in-flight attempt and any backoff sleep stop and ctx.Err() is returned.
func (c *Client) FetchWithRetry(ctx context.Context, path string, req Request, policy RetryPolicy) (*Response, error) {
	if err := errors.ValidateAPIPath(path); err != nil {
		return nil, err
	}
	endpoint := c.baseURL + path
	requestID := uuid.NewString()
	policy = policy.Normalized()

	retrier := &httputil.Retrier{
		Policy: policy.engine(),
		Rand:   c.rand,
		Sleep:  c.sleep,
		OnRetry: func(e httputil.Event) {
			ev := RetryEvent{
				Reason:      e.Reason,
				Attempt:     e.Attempt,
				MaxAttempts: e.MaxAttempts,
				Wait:        e.Wait,
			}
			if p, ok := e.Data.(*Payload); ok {
				ev.Data = p
			} else {
				ev.Err = e.Err
			}
			c.logger.Debug("retrying", "endpoint", endpoint, "reason", ev.Reason,
				"attempt", ev.Attempt, "max", ev.MaxAttempts, "wait", ev.Wait)
			observability.Retry().OnRetry(ctx, path, string(ev.Reason), ev.Attempt, ev.MaxAttempts, ev.Wait)
			if policy.OnRetry != nil {
				policy.OnRetry(ev)
			}
		},
	}

	var last *Response
	attempts := 0
	err := retrier.Do(ctx, func(actx context.Context, attempt int) error {
		attempts = attempt
		resp, err := c.roundTrip(actx, path, endpoint, req, requestID, attempt)
		if err != nil {
			last = nil
			return err
		}
		last = resp
		return classify(resp, policy)
	})

	if err == nil {
		last.Attempts = attempts
		c.terminal(ctx, path, last)
		return last, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && err == ctxErr {
		return nil, err
	}

	reason := httputil.ReasonOf(err)
	if reason != "" {
		c.logger.Debug("attempts exhausted", "endpoint", endpoint, "reason", reason, "attempts", attempts)
		observability.Retry().OnExhausted(ctx, path, string(reason), attempts)
	}
	if (reason == ReasonHTTP || reason == ReasonData) && last != nil {
		last.Attempts = attempts
		return last, nil
	}
	return nil, unwrapRetryable(err)
}

// classify maps a response to the retry decision for its attempt.
func classify(resp *Response, policy RetryPolicy) error {
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return httputil.Retryable(ReasonHTTP, errors.FromStatus(resp.StatusCode, resp.Status, resp.Endpoint, ""))
	}
	if !resp.OK() || policy.ShouldRetryData == nil {
		return nil
	}
	payload, err := parsePayload(resp.Body)
	if err != nil || !policy.shouldRetry(payload) {
		return nil
	}
	return &httputil.RetryableError{
		Reason: ReasonData,
		Err:    errors.New(errors.ErrCodePending, "%s", payload.String()).WithEndpoint(resp.Endpoint),
		Data:   payload,
	}
}

func unwrapRetryable(err error) error {
	if re, ok := err.(*httputil.RetryableError); ok {
		return re.Err
	}
	return err
}

// terminal reports authentication outcomes of the final response.
func (c *Client) terminal(ctx context.Context, path string, resp *Response) {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.logger.Debug("unauthorized", "endpoint", resp.Endpoint)
		observability.Retry().OnAuthFailure(ctx, path, resp.StatusCode)
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, resp.Endpoint)
		}
	case http.StatusForbidden:
		c.logger.Warn("access forbidden", "endpoint", resp.Endpoint, "request_id", resp.RequestID)
		observability.Retry().OnAuthFailure(ctx, path, resp.StatusCode)
	}
}

func (c *Client) roundTrip(ctx context.Context, path, endpoint string, spec Request, requestID string, attempt int) (*Response, error) {
	httpReq, err := c.newRequest(ctx, endpoint, spec, requestID)
	if err != nil {
		return nil, err
	}
	host := httpReq.URL.Host
	method := httpReq.Method

	observability.HTTP().OnRequest(ctx, method, host, path)
	c.logger.Debug("request", "method", method, "endpoint", endpoint, "attempt", attempt)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		return nil, httputil.Retryable(ReasonNetwork, networkError(err, endpoint))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		return nil, httputil.Retryable(ReasonNetwork, networkError(err, endpoint))
	}
	elapsed := time.Since(start)
	observability.HTTP().OnResponse(ctx, method, host, path, resp.StatusCode, elapsed)
	c.logger.Debug("response", "endpoint", endpoint, "status", resp.StatusCode, "elapsed", elapsed)

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
		Endpoint:   endpoint,
		RequestID:  requestID,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string, spec Request, requestID string) (*http.Request, error) {
	var body io.Reader
	if spec.Body != nil {
		body = bytes.NewReader(spec.Body)
	}
	req, err := http.NewRequestWithContext(ctx, spec.method(), endpoint, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", endpoint).WithEndpoint(endpoint)
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range spec.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if spec.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID)
	injectTraceparent(ctx, req)
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	return req, nil
}

func networkError(err error, endpoint string) error {
	if errors.IsTimeout(err) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "request to %s timed out", endpoint).WithEndpoint(endpoint)
	}
	return errors.Wrap(errors.ErrCodeNetwork, err, "request to %s failed", endpoint).WithEndpoint(endpoint)
}
