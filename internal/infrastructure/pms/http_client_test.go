package pms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prohotelai/AI-HOTEL-ASSISTANT-sub002/internal/domain/integration"
)

// sleepRecorder captures backoff delays instead of waiting
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// statusSequence answers with the given statuses in order, then 200
func statusSequence(statuses ...int) (http.HandlerFunc, *int32) {
	var calls int32
	return func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) <= len(statuses) {
			writeJSON(w, statuses[n-1], `{"error":"boom"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"ok":true}`)
	}, &calls
}

func newTestClient(t *testing.T, baseURL string, sleep SleepFunc, opts ...func(*ClientOptions)) *Client {
	t.Helper()
	o := ClientOptions{
		Provider: integration.ProviderMews,
		BaseURL:  baseURL,
		Timeout:  2 * time.Second,
		Retry:    DefaultRetryOptions(),
		Sleep:    sleep,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return NewClient(o)
}

func TestClient_Do_RetriesRetryableStatusThenSucceeds(t *testing.T) {
	handler, calls := statusSequence(http.StatusServiceUnavailable, http.StatusServiceUnavailable)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	rec := &sleepRecorder{}
	client := newTestClient(t, srv.URL, rec.Sleep)

	resp, err := client.Do(context.Background(), Request{Operation: "fetch", Path: "/x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))

	delays := rec.Delays()
	require.Len(t, delays, 2)
	assert.InDelta(t, float64(500*time.Millisecond), float64(delays[0]), float64(time.Millisecond))
	assert.InDelta(t, float64(time.Second), float64(delays[1]), float64(time.Millisecond))
}

func TestClient_Do_NonRetryableStatusFailsOnce(t *testing.T) {
	handler, calls := statusSequence(http.StatusNotFound)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	rec := &sleepRecorder{}
	client := newTestClient(t, srv.URL, rec.Sleep)

	_, err := client.Do(context.Background(), Request{Operation: "fetch", Path: "/x"})
	require.Error(t, err)
	ie, ok := integration.AsIntegrationError(err)
	require.True(t, ok)
	assert.Equal(t, "HTTP_404", ie.Code)
	assert.Equal(t, http.StatusNotFound, ie.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Empty(t, rec.Delays())
}

func TestClient_Do_ExhaustedRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusBadGateway, `{}`)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	rec := &sleepRecorder{}
	client := newTestClient(t, srv.URL, rec.Sleep, func(o *ClientOptions) {
		o.Logger = zap.New(core)
	})

	_, err := client.Do(context.Background(), Request{Operation: "fetch", Path: "/x"})
	require.Error(t, err)
	ie, ok := integration.AsIntegrationError(err)
	require.True(t, ok)
	assert.Equal(t, integration.CodeMaxRetriesExceeded, ie.Code)
	assert.Equal(t, http.StatusBadGateway, ie.StatusCode)
	assert.True(t, integration.IsCode(err, "HTTP_502"))
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Len(t, rec.Delays(), 3)
	assert.Equal(t, 3, logs.FilterMessage("PMS request failed, retrying").Len())
	assert.Equal(t, 1, logs.FilterMessage("PMS request exhausted retries").Len())
}

func TestClient_Do_TimeoutIsNotRetried(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	rec := &sleepRecorder{}
	client := newTestClient(t, srv.URL, rec.Sleep, func(o *ClientOptions) {
		o.Timeout = 50 * time.Millisecond
	})

	_, err := client.Do(context.Background(), Request{Operation: "fetch", Path: "/slow"})
	require.Error(t, err)
	assert.Equal(t, integration.CodeTimeout, integration.CodeOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, rec.Delays())
}

func TestClient_Do_NetworkErrorIsRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	rec := &sleepRecorder{}
	client := newTestClient(t, url, rec.Sleep, func(o *ClientOptions) {
		o.Retry.MaxRetries = 1
	})

	_, err := client.Do(context.Background(), Request{Operation: "fetch", Path: "/x"})
	require.Error(t, err)
	assert.Equal(t, integration.CodeMaxRetriesExceeded, integration.CodeOf(err))
	assert.True(t, integration.IsCode(err, integration.CodeNetworkError))
	assert.Len(t, rec.Delays(), 1)
}

func TestClient_Do_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(t, srv.URL, (&sleepRecorder{}).Sleep)
	_, err := client.Do(ctx, Request{Operation: "fetch", Path: "/x"})
	require.Error(t, err)
	assert.Equal(t, integration.CodeCanceled, integration.CodeOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_Do_SendsAuthAndHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil, func(o *ClientOptions) {
		o.Auth = AuthConfig{Scheme: AuthAPIKey, APIKey: "secret", APIKeyHeader: "X-Api-Key"}
	})
	_, err := client.Do(context.Background(), Request{
		Operation: "create",
		Method:    http.MethodPost,
		Path:      "/x",
		Header:    http.Header{"X-Correlation-Id": {"sync-1"}},
		Body:      map[string]string{"a": "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Get("X-Api-Key"))
	assert.Equal(t, "sync-1", got.Get("X-Correlation-Id"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
}

func TestClient_Do_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"broken":`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, (&sleepRecorder{}).Sleep)
	_, err := client.Do(context.Background(), Request{Operation: "fetch", Path: "/x"})
	require.Error(t, err)
	assert.Equal(t, integration.CodeInvalidResponse, integration.CodeOf(err))
}

func TestClient_Metrics(t *testing.T) {
	handler, _ := statusSequence(http.StatusServiceUnavailable)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	metrics := NewClientMetrics()
	client := newTestClient(t, srv.URL, (&sleepRecorder{}).Sleep, func(o *ClientOptions) {
		o.Metrics = metrics
	})

	_, err := client.Do(context.Background(), Request{Operation: "fetch", Path: "/x"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Attempts.WithLabelValues("mews", "fetch", "HTTP_503")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Attempts.WithLabelValues("mews", "fetch", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Retries.WithLabelValues("mews", "fetch")))
}

func TestClassifyTransportError(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, integration.CodeCanceled, classifyTransportError(canceled, errors.New("x")).Code)
	assert.Equal(t, integration.CodeTimeout, classifyTransportError(context.Background(), context.DeadlineExceeded).Code)
	assert.Equal(t, integration.CodeNetworkError, classifyTransportError(context.Background(), errors.New("connection refused")).Code)
}
