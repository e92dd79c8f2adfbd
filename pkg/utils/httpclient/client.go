package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/argus/pkg/utils/logging"
	"github.com/secmon-lab/argus/pkg/utils/safe"
)

// ErrNoContent is returned for a successful response with an empty body,
// instead of attempting to parse empty JSON.
var ErrNoContent = goerr.New("no content in response")

// ErrRetryExhausted marks a request that kept failing with transient errors
// until no retry attempts were left. Callers can match it with errors.Is to
// switch to a fallback provider.
var ErrRetryExhausted = goerr.New("retry attempts exhausted")

const (
	defaultMaxRetries    = 2
	defaultTimeout       = 15 * time.Second
	defaultBackoffBase   = 250 * time.Millisecond
	defaultBackoffJitter = 200 * time.Millisecond
)

// Client performs JSON-over-HTTP requests with a per-call timeout and
// capped exponential backoff retry for transient upstream failures
// (HTTP 429, 5xx, and network/timeout errors). All other non-2xx statuses
// fail immediately with the status code and response body text.
type Client struct {
	http          *http.Client
	maxRetries    int
	timeout       time.Duration
	backoffBase   time.Duration
	backoffJitter time.Duration
}

type Option func(*Client)

// WithMaxRetries sets the number of additional attempts after the first one.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithBackoff sets the backoff tuning. The delay before retry n (0-indexed)
// is 2^n * base plus a uniform random fraction of jitter.
func WithBackoff(base, jitter time.Duration) Option {
	return func(c *Client) {
		c.backoffBase = base
		c.backoffJitter = jitter
	}
}

// WithHTTPClient replaces the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		http:          &http.Client{},
		maxRetries:    defaultMaxRetries,
		timeout:       defaultTimeout,
		backoffBase:   defaultBackoffBase,
		backoffJitter: defaultBackoffJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestConfig struct {
	headers map[string]string
	body    any
	hasBody bool
}

type RequestOption func(*requestConfig)

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(cfg *requestConfig) {
		if cfg.headers == nil {
			cfg.headers = map[string]string{}
		}
		cfg.headers[key] = value
	}
}

// WithBody sets a JSON request body.
func WithBody(body any) RequestOption {
	return func(cfg *requestConfig) {
		cfg.body = body
		cfg.hasBody = true
	}
}

// Request performs one logical JSON request, retrying transient failures.
// It returns the raw response body, or ErrNoContent for an empty 2xx body.
func (c *Client) Request(ctx context.Context, method, url string, opts ...RequestOption) ([]byte, error) {
	var cfg requestConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var payload []byte
	if cfg.hasBody {
		raw, err := json.Marshal(cfg.body)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal request body", goerr.V("url", url))
		}
		payload = raw
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt - 1)
			logging.From(ctx).Warn("retrying request",
				"url", url,
				"attempt", attempt,
				"max_retries", c.maxRetries,
				"delay", delay,
			)
			select {
			case <-ctx.Done():
				return nil, goerr.Wrap(ctx.Err(), "request canceled while waiting for retry", goerr.V("url", url))
			case <-time.After(delay):
			}
		}

		body, retryable, err := c.doAttempt(ctx, method, url, payload, cfg.headers)
		if err == nil || errors.Is(err, ErrNoContent) {
			return body, err
		}
		if !retryable {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, goerr.Wrap(err, "request canceled", goerr.V("url", url))
		}
		lastErr = err
	}

	return nil, goerr.Wrap(errors.Join(ErrRetryExhausted, lastErr), "request failed after all retry attempts",
		goerr.V("url", url),
		goerr.V("attempts", c.maxRetries+1),
	)
}

// doAttempt issues a single HTTP request with the per-attempt timeout.
// The bool result reports whether the failure is retryable.
func (c *Client) doAttempt(ctx context.Context, method, url string, payload []byte, headers map[string]string) ([]byte, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, url, reader)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to build request", goerr.V("url", url))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network errors and per-attempt timeouts are equivalent here.
		return nil, true, goerr.Wrap(err, "request failed", goerr.V("url", url))
	}
	defer safe.Close(ctx, resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, goerr.Wrap(err, "failed to read response body", goerr.V("url", url))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, goerr.New("transient upstream error",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)),
		)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, goerr.New("unexpected response status",
			goerr.V("url", url),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)),
		)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false, goerr.Wrap(ErrNoContent, "empty response body", goerr.V("url", url))
	}

	return body, false, nil
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := (1 << attempt) * c.backoffBase
	if c.backoffJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(c.backoffJitter)))
	}
	return delay
}

// Get performs a GET request and decodes the JSON response into T.
func Get[T any](ctx context.Context, c *Client, url string, opts ...RequestOption) (*T, error) {
	return decode[T](c.Request(ctx, http.MethodGet, url, opts...))
}

// Post performs a POST request with a JSON body and decodes the response into T.
func Post[T any](ctx context.Context, c *Client, url string, body any, opts ...RequestOption) (*T, error) {
	opts = append(opts, WithBody(body))
	return decode[T](c.Request(ctx, http.MethodPost, url, opts...))
}

func decode[T any](raw []byte, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, goerr.Wrap(err, "failed to decode response", goerr.V("body", string(raw)))
	}
	return &v, nil
}
