package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/richxcame/fraudshield/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Timeout(t *testing.T) {
	c := NewClient("https://api.payshap.co.za/v1")
	assert.Equal(t, "https://api.payshap.co.za/v1", c.baseURL)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)

	c = NewClient("https://api.ozow.com", 5*time.Second)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

func TestWithDefaultRetry(t *testing.T) {
	c := NewClient("https://api.stitch.money").With(WithDefaultRetry())
	require.NotNil(t, c.retryConfig)
	assert.NotNil(t, c.retryConfig.RetryableChecker)
}

func TestClient_GetSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/PAY-1", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"completed"}`))
	}))
	defer server.Close()

	body, err := NewClient(server.URL).Get(context.Background(), "/payments/PAY-1",
		map[string]string{"Authorization": "Bearer key"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"completed"}`, string(body))
}

func TestClient_PostEncodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "REF-9", payload["reference"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Post(context.Background(), "/verify", map[string]string{"reference": "REF-9"}, nil)
	assert.NoError(t, err)
}

func TestClient_PostWithIdempotency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	headers := map[string]string{"Authorization": "Bearer token"}
	_, err := NewClient(server.URL).PostWithIdempotency(context.Background(), "/verify", nil, headers, "key-123")

	require.NoError(t, err)
	_, mutated := headers["Idempotency-Key"]
	assert.False(t, mutated)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such payment"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Get(context.Background(), "/payments/x", nil)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "HTTP 404: no such payment", httpErr.Error())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := NewClient(server.URL).With(WithRetry(resilience.RetryConfig{
		MaxAttempts:      3,
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       5 * time.Millisecond,
		RetryableChecker: isHTTPRetryable,
	}))

	body, err := c.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(server.URL).With(WithRetry(resilience.RetryConfig{
		MaxAttempts:      3,
		InitialBackoff:   time.Millisecond,
		RetryableChecker: isHTTPRetryable,
	}))

	_, err := c.Get(context.Background(), "/", nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL).Get(ctx, "/slow", nil)
	assert.Error(t, err)
}

func TestIsHTTPRetryable(t *testing.T) {
	assert.True(t, isHTTPRetryable(&HTTPError{StatusCode: 502}))
	assert.True(t, isHTTPRetryable(&HTTPError{StatusCode: 429}))
	assert.False(t, isHTTPRetryable(&HTTPError{StatusCode: 403}))
	assert.True(t, isHTTPRetryable(context.DeadlineExceeded))
}

func TestClient_RetriesStopWhenBreakerOpens(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	breaker := resilience.NewCircuitBreaker(resilience.For(resilience.KindLookup, "whois-client-test", resilience.Tuning{FailureThreshold: 2}))
	c := NewClient(server.URL).With(
		WithRetry(resilience.RetryConfig{
			MaxAttempts:      5,
			InitialBackoff:   time.Millisecond,
			MaxBackoff:       5 * time.Millisecond,
			RetryableChecker: isHTTPRetryable,
		}),
		WithBreaker(breaker),
	)

	_, err := c.Get(context.Background(), "/sars-gov.co.za", nil)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// later calls fail fast without reaching the server
	_, err = c.Get(context.Background(), "/fnb.co.za", nil)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
