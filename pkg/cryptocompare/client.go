// Package cryptocompare is a cached client for the CryptoCompare min-api.
//
// Each call maps onto one GET request, cached under the full request URL.
// Error envelopes ({"Response":"Error","Message":...}) surface as
// *errors.UpstreamError carrying the provider message verbatim.
package cryptocompare

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
)

const (
	// Provider tags logs, metrics and errors.
	Provider = "cryptocompare"

	DefaultBaseURL = "https://min-api.cryptocompare.com/data/"

	DefaultTTL = 24 * time.Hour
	LongTTL    = 7 * DefaultTTL
)

// Client issues cached requests against the CryptoCompare API.
type Client struct {
	logger     *zap.Logger
	getter     *httpclient.CachedGetter
	baseURL    string
	apiKey     string
	keyFn      func(context.Context) string
	defaultTTL time.Duration
	longTTL    time.Duration

	httpClient *http.Client
	store      cache.Store
	rateMgr    *rate.Manager
	retryMax   int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root. A trailing slash is added if missing.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithAPIKey sends key as "authorization: Apikey <key>".
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithAPIKeyFunc resolves the key on every request, so a rotated key is
// picked up without a restart. It takes precedence over WithAPIKey.
func WithAPIKeyFunc(fn func(context.Context) string) Option {
	return func(c *Client) { c.keyFn = fn }
}

// WithHTTPClient replaces the default 30s-timeout http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCache sets the response cache. Without it responses are not cached.
func WithCache(store cache.Store) Option {
	return func(c *Client) { c.store = store }
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
// rps <= 0 leaves requests unthrottled.
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

// WithRetries enables up to n retries on transport errors and 5xx. Default 0.
func WithRetries(n int) Option {
	return func(c *Client) { c.retryMax = n }
}

// WithTTL overrides the default (one day) and long (one week) cache TTLs.
func WithTTL(def, long time.Duration) Option {
	return func(c *Client) {
		if def > 0 {
			c.defaultTTL = def
		}
		if long > 0 {
			c.longTTL = long
		}
	}
}

// NewClient constructs a CryptoCompare client.
func NewClient(log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		logger:     logger.OrNop(log),
		baseURL:    DefaultBaseURL,
		defaultTTL: DefaultTTL,
		longTTL:    LongTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	exec := httpclient.New(c.logger, c.rateMgr, c.httpClient, c.retryMax, Provider, func(endpoint string, status int, body []byte) error {
		msg := envelopeMessage(body)
		if msg == "" {
			msg = string(body)
		}
		c.logger.Warn(Provider+".client_error",
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
			zap.String("message", msg))
		return mderrors.NewUpstreamError(Provider, endpoint, status, msg)
	})
	c.getter = httpclient.NewCached(c.logger, exec, c.store)
	return c
}

// envelope is the error shape CryptoCompare returns with HTTP 200.
type envelope struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
}

func envelopeMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}

// checkEnvelope rejects bodies whose Response field is "Error".
func checkEnvelope(endpoint string, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// arrays and scalars carry no envelope
		return nil
	}
	if env.Response == "Error" {
		return mderrors.NewUpstreamError(Provider, endpoint, http.StatusOK, env.Message)
	}
	return nil
}

// fetch runs one cached GET of endpoint with q and decodes into out.
func (c *Client) fetch(ctx context.Context, endpoint string, q *query, ttl time.Duration, out any) error {
	var header http.Header
	if key := c.key(ctx); key != "" {
		header = http.Header{"Authorization": {"Apikey " + key}}
	}
	return c.getter.GetJSON(ctx, httpclient.Request{
		URL:      c.baseURL + endpoint + q.String(),
		Endpoint: endpoint,
		TTL:      ttl,
		Header:   header,
		Check:    checkEnvelope,
	}, out)
}

func (c *Client) key(ctx context.Context) string {
	if c.keyFn != nil {
		return c.keyFn(ctx)
	}
	return c.apiKey
}
