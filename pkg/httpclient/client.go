package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/richxcame/fraudshield/pkg/resilience"
	"go.uber.org/zap"
)

// Client is a small JSON client for calling verification providers
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig *resilience.RetryConfig
	breaker     *resilience.CircuitBreaker
}

// Option configures a Client
type Option func(*Client)

// HTTPError is returned for non-2xx responses
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a client for baseURL. An optional timeout overrides the 30s default.
func NewClient(baseURL string, timeout ...time.Duration) *Client {
	t := 30 * time.Second
	if len(timeout) > 0 && timeout[0] > 0 {
		t = timeout[0]
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: t,
		},
	}
}

// WithRetry enables retries with the given policy
func WithRetry(config resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retryConfig = &config
	}
}

// WithDefaultRetry enables retries for 5xx, 429 and transport errors
func WithDefaultRetry() Option {
	return func(c *Client) {
		config := resilience.DefaultRetryConfig()
		config.RetryableChecker = isHTTPRetryable
		c.retryConfig = &config
	}
}

// WithBreaker routes every attempt through breaker
func WithBreaker(breaker *resilience.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = breaker
	}
}

// With applies options and returns the client
func (c *Client) With(opts ...Option) *Client {
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, headers)
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, body, headers)
}

// PostWithIdempotency performs a POST carrying an Idempotency-Key header
func (c *Client) PostWithIdempotency(ctx context.Context, path string, body interface{}, headers map[string]string, idempotencyKey string) ([]byte, error) {
	merged := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		merged[k] = v
	}
	if idempotencyKey != "" {
		merged["Idempotency-Key"] = idempotencyKey
	}
	return c.do(ctx, http.MethodPost, path, body, merged)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	op := func(ctx context.Context) (interface{}, error) {
		return c.send(ctx, method, path, payload, headers)
	}

	var (
		result interface{}
		err    error
	)
	switch {
	case c.retryConfig != nil && c.breaker != nil:
		result, err = resilience.RetryWithBreaker(ctx, *c.retryConfig, c.breaker, op)
	case c.retryConfig != nil:
		result, err = resilience.Retry(ctx, *c.retryConfig, op)
	case c.breaker != nil:
		result, err = c.breaker.Execute(ctx, op)
	default:
		result, err = op(ctx)
	}
	if err != nil {
		return nil, err
	}

	data, _ := result.([]byte)
	return data, nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, headers map[string]string) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WithContext(ctx).Debug("provider returned error status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// isHTTPRetryable retries 5xx and 429 responses and transport failures
func isHTTPRetryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return resilience.IsRetryableHTTPStatus(httpErr.StatusCode)
	}
	return true
}
