package cryptocompare

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	mderrors "github.com/Checker-Finance/marketdata/pkg/errors"
	"github.com/Checker-Finance/marketdata/pkg/model"
)

// PriceOptions are the optional parameters shared by the price endpoints.
type PriceOptions struct {
	// Exchanges restricts the price source (e=); empty means the CCCAGG index.
	Exchanges []string
	// DisableConversion sends tryConversion=false.
	DisableConversion bool
}

func (o PriceOptions) apply(q *query) *query {
	return q.optList("e", o.Exchanges).flag("tryConversion", o.DisableConversion, "false")
}

// HistoOptions are the optional parameters of the histo* endpoints.
type HistoOptions struct {
	Exchange string
	// Limit caps the number of candles. Ignored when AllData is set.
	Limit int
	// AllData requests the full history (allData=true). Not supported by histominute.
	AllData           bool
	Aggregate         int
	To                time.Time // toTs
	DisableConversion bool
}

// CCCAGG is the aggregate index used when no exchange is given.
const CCCAGG = "CCCAGG"

func requireSymbol(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return mderrors.NewValidationError(field, "symbol is required")
	}
	return nil
}

func requireSymbols(field string, vs []string) error {
	if len(vs) == 0 {
		return mderrors.NewValidationError(field, "at least one symbol is required")
	}
	for _, v := range vs {
		if err := requireSymbol(field, v); err != nil {
			return err
		}
	}
	return nil
}

// CoinList returns the full coin catalog keyed by symbol. Cached for the long TTL.
func (c *Client) CoinList(ctx context.Context) (map[string]model.Coin, error) {
	var resp struct {
		Data map[string]model.Coin `json:"Data"`
	}
	if err := c.fetch(ctx, "all/coinlist", newQuery(), c.longTTL, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ExchangeList returns every exchange with its traded pairs. Each exchange is
// reachable under its original key and its upper-cased key.
func (c *Client) ExchangeList(ctx context.Context) (model.Exchanges, error) {
	var resp model.Exchanges
	if err := c.fetch(ctx, "all/exchanges", newQuery(), c.defaultTTL, &resp); err != nil {
		return nil, err
	}

	out := make(model.Exchanges, len(resp)*2)
	for name, pairs := range resp {
		out[name] = pairs
	}
	for name, pairs := range resp {
		upper := strings.ToUpper(name)
		if _, taken := out[upper]; !taken {
			out[upper] = pairs
		}
	}
	return out, nil
}

// Price returns the current price of fsym in each of tsyms.
func (c *Client) Price(ctx context.Context, fsym string, tsyms []string, opts PriceOptions) (map[string]decimal.Decimal, error) {
	if err := requireSymbol("fsym", fsym); err != nil {
		return nil, err
	}
	if err := requireSymbols("tsyms", tsyms); err != nil {
		return nil, err
	}

	q := opts.apply(newQuery().set("fsym", fsym).list("tsyms", tsyms))
	var resp map[string]decimal.Decimal
	if err := c.fetch(ctx, "price", q, c.defaultTTL, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PriceMulti returns prices for every fsyms × tsyms pair, keyed fsym -> tsym.
func (c *Client) PriceMulti(ctx context.Context, fsyms, tsyms []string, opts PriceOptions) (map[string]map[string]decimal.Decimal, error) {
	if err := requireSymbols("fsyms", fsyms); err != nil {
		return nil, err
	}
	if err := requireSymbols("tsyms", tsyms); err != nil {
		return nil, err
	}

	q := opts.apply(newQuery().list("fsyms", fsyms).list("tsyms", tsyms))
	var resp map[string]map[string]decimal.Decimal
	if err := c.fetch(ctx, "pricemulti", q, c.defaultTTL, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PriceFull returns the RAW market data block for every pair; DISPLAY is dropped.
func (c *Client) PriceFull(ctx context.Context, fsyms, tsyms []string, opts PriceOptions) (map[string]map[string]model.PriceFull, error) {
	if err := requireSymbols("fsyms", fsyms); err != nil {
		return nil, err
	}
	if err := requireSymbols("tsyms", tsyms); err != nil {
		return nil, err
	}

	q := opts.apply(newQuery().list("fsyms", fsyms).list("tsyms", tsyms))
	var resp struct {
		RAW map[string]map[string]model.PriceFull `json:"RAW"`
	}
	if err := c.fetch(ctx, "pricemultifull", q, c.defaultTTL, &resp); err != nil {
		return nil, err
	}
	return resp.RAW, nil
}

// PriceHistorical returns the price of fsym at a point in time. The provider
// nests the answer under fsym; that layer is removed. Cached for the long TTL.
func (c *Client) PriceHistorical(ctx context.Context, fsym string, tsyms []string, at time.Time, opts PriceOptions) (map[string]decimal.Decimal, error) {
	if err := requireSymbol("fsym", fsym); err != nil {
		return nil, err
	}
	if err := requireSymbols("tsyms", tsyms); err != nil {
		return nil, err
	}
	if at.IsZero() {
		return nil, mderrors.NewValidationError("timestamp", "must be set")
	}

	q := opts.apply(newQuery().set("fsym", fsym).list("tsyms", tsyms).optTime("ts", at))
	var resp map[string]map[string]decimal.Decimal
	if err := c.fetch(ctx, "pricehistorical", q, c.longTTL, &resp); err != nil {
		return nil, err
	}
	if prices, ok := resp[fsym]; ok {
		return prices, nil
	}
	return resp[strings.ToUpper(fsym)], nil
}

// GenerateAvg returns the volume-weighted average for fsym/tsym across exchanges.
func (c *Client) GenerateAvg(ctx context.Context, fsym, tsym string, exchanges []string, disableConversion bool) (model.PriceFull, error) {
	if err := requireSymbol("fsym", fsym); err != nil {
		return model.PriceFull{}, err
	}
	if err := requireSymbol("tsym", tsym); err != nil {
		return model.PriceFull{}, err
	}
	if err := requireSymbols("e", exchanges); err != nil {
		return model.PriceFull{}, err
	}

	q := newQuery().set("fsym", fsym).set("tsym", tsym).list("e", exchanges).
		flag("tryConversion", disableConversion, "false")
	var resp struct {
		RAW model.PriceFull `json:"RAW"`
	}
	if err := c.fetch(ctx, "generateAvg", q, c.defaultTTL, &resp); err != nil {
		return model.PriceFull{}, err
	}
	return resp.RAW, nil
}

// TopPairs returns the highest-volume pairs for fsym. limit 0 uses the provider default.
func (c *Client) TopPairs(ctx context.Context, fsym string, limit int) ([]model.TopPair, error) {
	if err := requireSymbol("fsym", fsym); err != nil {
		return nil, err
	}

	q := newQuery().set("fsym", fsym).optInt("limit", limit)
	var resp struct {
		Data []model.TopPair `json:"Data"`
	}
	if err := c.fetch(ctx, "top/pairs", q, c.defaultTTL, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// TopExchanges returns the highest-volume exchanges for fsym/tsym.
func (c *Client) TopExchanges(ctx context.Context, fsym, tsym string, limit int) ([]model.TopExchange, error) {
	if err := requireSymbol("fsym", fsym); err != nil {
		return nil, err
	}
	if err := requireSymbol("tsym", tsym); err != nil {
		return nil, err
	}

	q := newQuery().set("fsym", fsym).set("tsym", tsym).optInt("limit", limit)
	var resp struct {
		Data []model.TopExchange `json:"Data"`
	}
	if err := c.fetch(ctx, "top/exchanges", q, c.defaultTTL, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// HistoDay returns daily candles.
func (c *Client) HistoDay(ctx context.Context, fsym, tsym string, opts HistoOptions) ([]model.OHLCV, error) {
	return c.histo(ctx, "histoday", fsym, tsym, opts)
}

// HistoHour returns hourly candles. Exchange CCCAGG is the server default and is not sent.
func (c *Client) HistoHour(ctx context.Context, fsym, tsym string, opts HistoOptions) ([]model.OHLCV, error) {
	if strings.EqualFold(opts.Exchange, CCCAGG) {
		opts.Exchange = ""
	}
	return c.histo(ctx, "histohour", fsym, tsym, opts)
}

// HistoMinute returns minute candles. AllData is not available for this resolution.
func (c *Client) HistoMinute(ctx context.Context, fsym, tsym string, opts HistoOptions) ([]model.OHLCV, error) {
	opts.AllData = false
	return c.histo(ctx, "histominute", fsym, tsym, opts)
}

func (c *Client) histo(ctx context.Context, endpoint, fsym, tsym string, opts HistoOptions) ([]model.OHLCV, error) {
	if err := requireSymbol("fsym", fsym); err != nil {
		return nil, err
	}
	if err := requireSymbol("tsym", tsym); err != nil {
		return nil, err
	}

	q := newQuery().set("fsym", fsym).set("tsym", tsym).optString("e", opts.Exchange)
	if opts.AllData {
		q.set("allData", "true")
	} else {
		q.optInt("limit", opts.Limit)
	}
	q.flag("tryConversion", opts.DisableConversion, "false").
		optInt("aggregate", opts.Aggregate).
		optTime("toTs", opts.To)

	var resp struct {
		Data []model.OHLCV `json:"Data"`
	}
	if err := c.fetch(ctx, endpoint, q, c.defaultTTL, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
