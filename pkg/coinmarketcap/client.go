// Package coinmarketcap reads the CoinMarketCap v1 ticker, the market-cap
// ranking used to order the CryptoCompare catalog.
package coinmarketcap

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/internal/httpclient"
	"github.com/Checker-Finance/marketdata/internal/rate"
	"github.com/Checker-Finance/marketdata/pkg/cache"
	mderrors "github.com/Checker-Finance/marketdata/pkg/errors"
	"github.com/Checker-Finance/marketdata/pkg/logger"
	"github.com/Checker-Finance/marketdata/pkg/model"
)

const (
	Provider = "coinmarketcap"

	DefaultBaseURL = "https://api.coinmarketcap.com"
	DefaultTTL     = 24 * time.Hour

	tickerEndpoint = "v1/ticker"
)

// Client fetches the CoinMarketCap ticker through the response cache.
type Client struct {
	logger  *zap.Logger
	getter  *httpclient.CachedGetter
	baseURL string
	apiKey  string
	keyFn   func(context.Context) string
	ttl     time.Duration

	httpClient *http.Client
	store      cache.Store
	rateMgr    *rate.Manager
	retryMax   int
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithAPIKey sends key in the X-CMC_PRO_API_KEY header.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithAPIKeyFunc resolves the key on every request. It takes precedence over WithAPIKey.
func WithAPIKeyFunc(fn func(context.Context) string) Option {
	return func(c *Client) { c.keyFn = fn }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithCache(store cache.Store) Option {
	return func(c *Client) { c.store = store }
}

// WithRateLimit throttles requests; rps <= 0 disables throttling.
func WithRateLimit(rps, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.rateMgr = rate.NewManager(rate.Config{RequestsPerSecond: rps, Burst: burst}, nil)
	}
}

func WithRetries(n int) Option {
	return func(c *Client) { c.retryMax = n }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewClient constructs a CoinMarketCap client.
func NewClient(log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		logger:  logger.OrNop(log),
		baseURL: DefaultBaseURL,
		ttl:     DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	exec := httpclient.New(c.logger, c.rateMgr, c.httpClient, c.retryMax, Provider, func(endpoint string, status int, body []byte) error {
		msg := errorMessage(body)
		if msg == "" {
			msg = string(body)
		}
		c.logger.Warn(Provider+".client_error",
			zap.Int("status", status),
			zap.String("message", msg))
		return mderrors.NewUpstreamError(Provider, endpoint, status, msg)
	})
	c.getter = httpclient.NewCached(c.logger, exec, c.store)
	return c
}

// errorMessage extracts the message of {"error": "..."} (v1) or
// {"status": {"error_message": "..."}} (pro API) bodies.
func errorMessage(body []byte) string {
	var probe struct {
		Error  string `json:"error"`
		Status struct {
			ErrorCode    int    `json:"error_code"`
			ErrorMessage string `json:"error_message"`
		} `json:"status"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	if probe.Error != "" {
		return probe.Error
	}
	if probe.Status.ErrorCode != 0 {
		return probe.Status.ErrorMessage
	}
	return ""
}

// checkBody rejects error-shaped 200 bodies. A healthy ticker is a JSON array.
func checkBody(endpoint string, body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	msg := errorMessage(body)
	if msg == "" {
		msg = "unexpected object response"
	}
	return mderrors.NewUpstreamError(Provider, endpoint, http.StatusOK, msg)
}

// Ticker returns every listed coin in provider (rank) order.
func (c *Client) Ticker(ctx context.Context) ([]model.MarketCapTicker, error) {
	var header http.Header
	if key := c.key(ctx); key != "" {
		header = http.Header{"X-CMC_PRO_API_KEY": {key}}
	}

	var out []model.MarketCapTicker
	err := c.getter.GetJSON(ctx, httpclient.Request{
		URL:      c.baseURL + "/" + tickerEndpoint + "?limit=0",
		Endpoint: tickerEndpoint,
		TTL:      c.ttl,
		Header:   header,
		Check:    checkBody,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Listing returns the ticker keyed by CoinMarketCap id. The first entry wins
// when an id repeats.
func (c *Client) Listing(ctx context.Context) (map[string]model.MarketCapTicker, error) {
	tickers, err := c.Ticker(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.MarketCapTicker, len(tickers))
	for _, t := range tickers {
		if _, seen := out[t.ID]; !seen {
			out[t.ID] = t
		}
	}
	return out, nil
}

func (c *Client) key(ctx context.Context) string {
	if c.keyFn != nil {
		return c.keyFn(ctx)
	}
	return c.apiKey
}
