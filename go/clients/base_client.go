package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRequestTimeout = 45 * time.Second
	DefaultWakeDelay      = 30 * time.Second
	DefaultProbeTimeout   = 5 * time.Second
)

// BaseClient talks to a backend that may be asleep. A first attempt that looks
// like a cold start is retried exactly once after a fixed wake delay.
type BaseClient struct {
	baseURL string
	client  *http.Client
	headers map[string]string

	timeout      time.Duration
	wakeDelay    time.Duration
	probeTimeout time.Duration
	clock        clockwork.Clock
}

// Option configures a BaseClient
type Option func(*BaseClient)

// WithHTTPClient swaps the underlying http.Client, e.g. for a caching transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *BaseClient) { c.client = hc }
}

// WithTimeout sets the per-attempt request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *BaseClient) { c.timeout = d }
}

// WithWakeDelay sets how long to wait for a sleeping backend before the retry
func WithWakeDelay(d time.Duration) Option {
	return func(c *BaseClient) { c.wakeDelay = d }
}

// WithProbeTimeout sets the timeout used by IsAwake
func WithProbeTimeout(d time.Duration) Option {
	return func(c *BaseClient) { c.probeTimeout = d }
}

// WithClock injects the clock used for the wake delay
func WithClock(clock clockwork.Clock) Option {
	return func(c *BaseClient) { c.clock = clock }
}

func NewBaseClient(baseURL string, opts ...Option) *BaseClient {
	c := &BaseClient{
		baseURL:      baseURL,
		client:       &http.Client{},
		headers:      make(map[string]string),
		timeout:      DefaultRequestTimeout,
		wakeDelay:    DefaultWakeDelay,
		probeTimeout: DefaultProbeTimeout,
		clock:        clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *BaseClient) BaseURL() string {
	return c.baseURL
}

func (c *BaseClient) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *BaseClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// MakeRequest performs the request with the wake/retry cycle. The body is
// buffered so it can be replayed on the retry.
func (c *BaseClient) MakeRequest(ctx context.Context, method, endpoint string, body io.Reader) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}
	return c.do(ctx, method, endpoint, payload, true)
}

func (c *BaseClient) do(ctx context.Context, method, endpoint string, payload []byte, allowRetry bool) ([]byte, error) {
	log.Debug().Str("method", method).Str("endpoint", endpoint).Bool("retry", !allowRetry).Msg("fetching")

	responseBody, err := c.attempt(ctx, method, endpoint, payload, c.timeout)
	if err == nil {
		log.Debug().Str("endpoint", endpoint).Msg("fetch succeeded")
		return responseBody, nil
	}

	if !allowRetry || ctx.Err() != nil || !IsAsleep(err) {
		return nil, err
	}

	log.Warn().
		Err(err).
		Str("endpoint", endpoint).
		Dur("wake_delay", c.wakeDelay).
		Msg("backend appears to be asleep, waiting before retry")

	timer := c.clock.NewTimer(c.wakeDelay)
	defer timer.Stop()
	select {
	case <-timer.Chan():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return c.do(ctx, method, endpoint, payload, false)
}

func (c *BaseClient) attempt(ctx context.Context, method, endpoint string, payload []byte, timeout time.Duration) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.classify(ctx, attemptCtx, endpoint, timeout, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classify(ctx, attemptCtx, endpoint, timeout, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(responseBody)}
	}

	return responseBody, nil
}

func (c *BaseClient) classify(parent, attemptCtx context.Context, endpoint string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Endpoint: endpoint, Timeout: timeout}
	}
	return &NetworkError{Endpoint: endpoint, Err: err}
}

func (c *BaseClient) Get(ctx context.Context, endpoint string) ([]byte, error) {
	return c.MakeRequest(ctx, http.MethodGet, endpoint, nil)
}

func (c *BaseClient) Post(ctx context.Context, endpoint string, body io.Reader) ([]byte, error) {
	return c.MakeRequest(ctx, http.MethodPost, endpoint, body)
}

func (c *BaseClient) Put(ctx context.Context, endpoint string, body io.Reader) ([]byte, error) {
	return c.MakeRequest(ctx, http.MethodPut, endpoint, body)
}

// SendJSON encodes in as the request body and decodes the response into T
func SendJSON[T any](ctx context.Context, c *BaseClient, method, endpoint string, in any) (T, error) {
	var out T
	payload, err := json.Marshal(in)
	if err != nil {
		return out, fmt.Errorf("failed to marshal request: %w", err)
	}
	body, err := c.MakeRequest(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return out, err
	}
	return decode[T](endpoint, body)
}

// FetchJSON performs a GET and decodes the body into T
func FetchJSON[T any](ctx context.Context, c *BaseClient, endpoint string) (T, error) {
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](endpoint, body)
}

func decode[T any](endpoint string, body []byte) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, &DecodeError{Endpoint: endpoint, Err: err}
	}
	return out, nil
}
