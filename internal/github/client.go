// Package github is a thin client for the GitHub REST and Git Data APIs used
// by the console e2e suite: repository lifecycle, source imports, response
// polling and folder deletion through low-level tree rewrites.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moolen/hac-console/internal/config"
	"github.com/moolen/hac-console/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	acceptHeader     = "application/vnd.github+json"
	apiVersionHeader = "X-GitHub-Api-Version"
)

// RequestOptions configures a single request. Zero values mean "absent":
// a nil Body sends no body and nil Headers sends only the fixed GitHub
// header set.
type RequestOptions struct {
	// Body is JSON-encoded when non-nil
	Body any
	// Headers are applied over the fixed header set
	Headers http.Header
	// Query is appended to the URL
	Query url.Values
	// FailOnStatusCode turns responses with status >= 400 into *StatusError
	FailOnStatusCode bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// StatusError is returned for status >= 400 when FailOnStatusCode is set.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// Client talks to the GitHub REST API. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	org        string
	apiVersion string
	branch     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *Metrics
	tracer     trace.Tracer
	importPoll PollOptions
	logger     *logging.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped
// with bearer-token authentication.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithImportPoll overrides the poll settings used by ImportRepository.
func WithImportPoll(opts PollOptions) Option {
	return func(c *Client) {
		c.importPoll = opts
	}
}

// NewClient creates a client from cfg.
func NewClient(cfg config.GitHubConfig, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(cfg.APIURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL: %w", err)
	}

	burst := int(cfg.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL:    base,
		org:        cfg.Org,
		apiVersion: cfg.APIVersion,
		branch:     cfg.Branch,
		timeout:    cfg.RequestTimeout,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		tracer:     otel.GetTracerProvider().Tracer("hac-console/github"),
		importPoll: PollOptions{Interval: 5 * time.Second, MaxAttempts: 20},
		logger:     logging.GetLogger("github"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.Token == "" {
		c.logger.Warn("No GitHub token configured, requests are unauthenticated")
	} else {
		base := c.httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.httpClient
		hc.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"}),
			Base:   base,
		}
		c.httpClient = &hc
	}

	return c, nil
}

// Org returns the organisation repositories are created in.
func (c *Client) Org() string {
	return c.org
}

// Request issues an authenticated request. rawURL may be absolute or
// relative to the API base URL. The status code is not interpreted unless
// opts.FailOnStatusCode is set; callers own error handling otherwise.
func (c *Client) Request(ctx context.Context, method, rawURL string, opts RequestOptions) (*Response, error) {
	target, err := c.resolve(rawURL, opts.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if opts.Body != nil {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	ctx, span := c.tracer.Start(ctx, "github "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", target),
		))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set(apiVersionHeader, c.apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range opts.Headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(method, "error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read body: %w", method, target, err)
	}

	elapsed := time.Since(start)
	c.metrics.observe(method, strconv.Itoa(resp.StatusCode), elapsed)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	c.logger.WithContext(ctx).DebugWithFields("request finished",
		logging.Field("method", method),
		logging.Field("url", target),
		logging.Field("status", resp.StatusCode),
		logging.Field("duration_ms", elapsed.Milliseconds()),
	)

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}

	if opts.FailOnStatusCode && resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, resp.Status)
		return out, &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}
	return out, nil
}

// requestJSON issues a request that must succeed and decodes the body into
// out when out is non-nil.
func (c *Client) requestJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Request(ctx, method, path, RequestOptions{
		Body:             body,
		FailOnStatusCode: true,
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.DecodeJSON(out)
}

func (c *Client) resolve(rawURL string, query url.Values) (string, error) {
	var u *url.URL
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
		}
		u = parsed
	} else {
		ref, err := url.Parse(strings.TrimLeft(rawURL, "/"))
		if err != nil {
			return "", fmt.Errorf("invalid path %q: %w", rawURL, err)
		}
		base := *c.baseURL
		base.Path = strings.TrimRight(base.Path, "/") + "/"
		u = base.ResolveReference(ref)
	}

	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
