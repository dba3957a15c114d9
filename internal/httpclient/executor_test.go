package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/internal/rate"
	mderrors "github.com/Checker-Finance/marketdata/pkg/errors"
)

func newExec(retryMax int, client *http.Client) *Executor {
	return New(zap.NewNop(), nil, client, retryMax, "test", nil)
}

// countingHandler returns a handler whose response alternates based on a call counter.
// For calls <= failCount it returns failStatus; afterwards it returns 200 with body.
func countingHandler(failCount int, failStatus int, successBody []byte) (http.Handler, *atomic.Int32) {
	var n atomic.Int32
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if int(n.Add(1)) <= failCount {
			w.WriteHeader(failStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(successBody)
	}), &n
}

// ─── Basic success ────────────────────────────────────────────────────────────

func TestGet_SuccessFirstAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Apikey k", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"USD":1}`))
	}))
	defer srv.Close()

	exec := newExec(0, srv.Client())
	body, err := exec.Get(context.Background(), srv.URL, "price", http.Header{"Authorization": {"Apikey k"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"USD":1}`, string(body))
}

// ─── No retry by default ─────────────────────────────────────────────────────

func TestGet_ZeroRetriesPropagatesServerError(t *testing.T) {
	h, count := countingHandler(1, http.StatusServiceUnavailable, []byte(`{}`))
	srv := httptest.NewServer(h)
	defer srv.Close()

	exec := newExec(0, srv.Client())
	_, err := exec.Get(context.Background(), srv.URL, "price", nil)
	require.Error(t, err)
	assert.True(t, mderrors.IsUpstream(err))
	assert.ErrorIs(t, err, mderrors.ErrProviderUnavailable)
	assert.EqualValues(t, 1, count.Load(), "retryMax=0 means exactly one attempt")
}

func TestGet_ZeroRetriesPropagatesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	exec := newExec(0, &http.Client{Timeout: time.Second})
	_, err := exec.Get(context.Background(), url, "price", nil)
	require.Error(t, err)
	assert.True(t, mderrors.IsTransport(err))
}

// ─── Opt-in retries ──────────────────────────────────────────────────────────

func TestGet_Retries5xxThenSucceeds(t *testing.T) {
	h, count := countingHandler(1, http.StatusBadGateway, []byte(`{"v":1}`))
	srv := httptest.NewServer(h)
	defer srv.Close()

	exec := newExec(2, srv.Client())
	body, err := exec.Get(context.Background(), srv.URL, "price", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count.Load())
	assert.JSONEq(t, `{"v":1}`, string(body))
}

func TestGet_ExhaustAllRetries(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	exec := newExec(2, srv.Client())
	_, err := exec.Get(context.Background(), srv.URL, "price", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.True(t, mderrors.IsUpstream(err))
	assert.EqualValues(t, 3, count.Load(), "retryMax=2 means 3 total attempts")
}

func TestGet_RetryStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	exec := newExec(5, srv.Client())
	_, err := exec.Get(ctx, srv.URL, "price", nil)
	require.Error(t, err)
	assert.True(t, mderrors.IsTransport(err))
}

// ─── 4xx: no retry ────────────────────────────────────────────────────────────

func TestGet_4xxNotRetried(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer srv.Close()

	exec := newExec(2, srv.Client())
	_, err := exec.Get(context.Background(), srv.URL, "price", nil)
	require.Error(t, err)
	assert.True(t, mderrors.IsRateLimited(err))
	assert.Contains(t, err.Error(), "slow down")
	assert.EqualValues(t, 1, count.Load(), "4xx must not be retried")
}

func TestGet_CustomErrorHandlerCalled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"INVALID"}`))
	}))
	defer srv.Close()

	exec := New(zap.NewNop(), nil, srv.Client(), 0, "test", func(endpoint string, status int, body []byte) error {
		return fmt.Errorf("%s %d: %s", endpoint, status, body)
	})

	_, err := exec.Get(context.Background(), srv.URL, "histoday", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "histoday 422")
	assert.Contains(t, err.Error(), "INVALID")
}

// ─── Rate limiting ───────────────────────────────────────────────────────────

func TestGet_RateLimitWaitCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	mgr := rate.NewManager(rate.Config{RequestsPerSecond: 1, Burst: 1}, nil)
	exec := New(zap.NewNop(), mgr, srv.Client(), 0, "test", nil)

	_, err := exec.Get(context.Background(), srv.URL, "price", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = exec.Get(ctx, srv.URL, "price", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
}

func TestGet_RetriesAreRateLimited(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	mgr := rate.NewManager(rate.Config{RequestsPerSecond: 1, Burst: 1}, nil)
	exec := New(zap.NewNop(), mgr, srv.Client(), 3, "test", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	_, err := exec.Get(ctx, srv.URL, "price", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	assert.EqualValues(t, 1, count.Load(), "retry must wait for a fresh token")
}
