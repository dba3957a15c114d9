package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Checker-Finance/marketdata/internal/metrics"
	"github.com/Checker-Finance/marketdata/pkg/cache"
	mderrors "github.com/Checker-Finance/marketdata/pkg/errors"
	"github.com/Checker-Finance/marketdata/pkg/logger"
)

// BodyCheck inspects a 2xx body and returns an error for provider error
// envelopes. Bodies that fail the check are never cached.
type BodyCheck func(endpoint string, body []byte) error

// FetchTimeout bounds a shared upstream fetch. The fetch is detached from the
// caller that started it, so it needs its own deadline.
const FetchTimeout = 30 * time.Second

// Request describes one cached GET.
type Request struct {
	URL      string // also the cache key
	Endpoint string
	TTL      time.Duration
	Header   http.Header
	Check    BodyCheck
}

// CachedGetter fronts an Executor with a response cache keyed by full URL.
type CachedGetter struct {
	exec   *Executor
	store  cache.Store
	logger *zap.Logger
	group  singleflight.Group
}

// NewCached wraps exec with store. A nil store disables caching.
func NewCached(log *zap.Logger, exec *Executor, store cache.Store) *CachedGetter {
	return &CachedGetter{
		exec:   exec,
		store:  store,
		logger: logger.OrNop(log),
	}
}

// Provider returns the provider of the wrapped executor.
func (c *CachedGetter) Provider() string { return c.exec.Provider() }

// GetJSON serves req from cache or upstream and decodes the body into out.
func (c *CachedGetter) GetJSON(ctx context.Context, req Request, out any) error {
	if body, ok := c.lookup(ctx, req.URL); ok {
		if err := json.Unmarshal(body, out); err == nil {
			return nil
		}
		c.logger.Warn("cache.corrupt_entry", zap.String("key", req.URL))
		_ = c.store.Delete(ctx, req.URL)
	}

	// One caller canceling must not fail the others waiting on the same key.
	ch := c.group.DoChan(req.URL, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()
		return c.fetch(fctx, req)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return mderrors.NewTransportError(c.exec.Provider(), req.URL, ctx.Err())
	}
	if res.Err != nil {
		return res.Err
	}
	if res.Shared {
		c.logger.Debug("cache.fetch_shared", zap.String("key", req.URL))
	}

	if err := json.Unmarshal(res.Val.([]byte), out); err != nil {
		return mderrors.NewTransportError(c.exec.Provider(), req.URL, fmt.Errorf("decode failed: %w", err))
	}
	return nil
}

func (c *CachedGetter) lookup(ctx context.Context, key string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	body, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.IncCache(c.store.Name(), "error")
		c.logger.Warn("cache.get_failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case !ok:
		metrics.IncCache(c.store.Name(), "miss")
		return nil, false
	}
	metrics.IncCache(c.store.Name(), "hit")
	c.logger.Debug("cache.hit", zap.String("key", key))
	return body, true
}

func (c *CachedGetter) fetch(ctx context.Context, req Request) ([]byte, error) {
	body, err := c.exec.Get(ctx, req.URL, req.Endpoint, req.Header)
	if err != nil {
		return nil, err
	}
	if req.Check != nil {
		if err := req.Check(req.Endpoint, body); err != nil {
			c.logger.Warn(c.exec.Provider()+".upstream_error",
				zap.String("endpoint", req.Endpoint),
				zap.Error(err))
			return nil, err
		}
	}
	if !json.Valid(body) {
		return nil, mderrors.NewTransportError(c.exec.Provider(), req.URL, fmt.Errorf("decode failed: malformed JSON body"))
	}

	if c.store != nil {
		if err := c.store.Set(ctx, req.URL, body, req.TTL); err != nil {
			c.logger.Warn("cache.set_failed", zap.String("key", req.URL), zap.Error(err))
		}
	}
	return body, nil
}
