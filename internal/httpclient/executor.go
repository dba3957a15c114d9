package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/internal/metrics"
	"github.com/Checker-Finance/marketdata/internal/rate"
	mderrors "github.com/Checker-Finance/marketdata/pkg/errors"
	"github.com/Checker-Finance/marketdata/pkg/logger"
)

// Backoff returns the retry sleep duration for the given attempt number.
func Backoff(attempt int) time.Duration {
	switch attempt {
	case 0:
		return 100 * time.Millisecond
	case 1:
		return 250 * time.Millisecond
	default:
		return 500 * time.Millisecond
	}
}

// ErrorHandler turns a 4xx response into a provider-specific error.
type ErrorHandler func(endpoint string, status int, body []byte) error

// Executor runs rate-limited GET requests against one provider.
// With retryMax 0 (the default wiring) every failure propagates on the first attempt.
type Executor struct {
	logger       *zap.Logger
	rateMgr      *rate.Manager
	http         *http.Client
	retryMax     int
	provider     string
	errorHandler ErrorHandler
}

// New creates an Executor. errorHandler is called on 4xx responses; if nil an
// UpstreamError with the raw body is returned. rateMgr may be nil.
func New(
	log *zap.Logger,
	rateMgr *rate.Manager,
	httpClient *http.Client,
	retryMax int,
	provider string,
	errorHandler ErrorHandler,
) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Executor{
		logger:       logger.OrNop(log),
		rateMgr:      rateMgr,
		http:         httpClient,
		retryMax:     retryMax,
		provider:     provider,
		errorHandler: errorHandler,
	}
}

// Provider returns the provider tag used in logs, metrics and errors.
func (e *Executor) Provider() string { return e.provider }

// Get performs GET url and returns the body of a 2xx response.
// endpoint is a low-cardinality label for metrics and errors.
// Every attempt, retries included, takes a rate-limit token.
func (e *Executor) Get(ctx context.Context, url, endpoint string, header http.Header) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(Backoff(attempt - 1)):
			case <-ctx.Done():
				return nil, mderrors.NewTransportError(e.provider, url, ctx.Err())
			}
		}
		if e.rateMgr != nil {
			if err := e.rateMgr.Wait(ctx, e.provider); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		body, status, err := e.do(ctx, url, endpoint, header)
		if err != nil {
			lastErr = mderrors.NewTransportError(e.provider, url, err)
			e.logger.Warn(e.provider+".http_failed",
				zap.String("url", url),
				zap.Error(err),
				zap.Int("attempt", attempt))
			continue
		}

		if status >= 500 {
			e.logger.Warn(e.provider+".server_error",
				zap.Int("status", status),
				zap.String("url", url),
				zap.Int("attempt", attempt))
			lastErr = mderrors.NewUpstreamError(e.provider, endpoint, status, http.StatusText(status))
			continue
		}

		if status >= 400 {
			if e.errorHandler != nil {
				return nil, e.errorHandler(endpoint, status, body)
			}
			return nil, mderrors.NewUpstreamError(e.provider, endpoint, status, string(body))
		}

		return body, nil
	}

	if e.retryMax == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%s request failed after %d attempts: %w", e.provider, e.retryMax+1, lastErr)
}

func (e *Executor) do(ctx context.Context, url, endpoint string, header http.Header) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := e.http.Do(req)
	metrics.ObserveDuration(metrics.UpstreamRequestDuration, start, e.provider, endpoint)
	if err != nil {
		metrics.IncUpstreamRequest(e.provider, endpoint, "transport_error")
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	metrics.IncUpstreamRequest(e.provider, endpoint, strconv.Itoa(resp.StatusCode))
	if err != nil {
		return nil, resp.StatusCode, err
	}

	e.logger.Debug(e.provider+".http_done",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return body, resp.StatusCode, nil
}
