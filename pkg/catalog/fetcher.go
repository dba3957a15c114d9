package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Checker-Finance/marketdata/pkg/model"
)

// CoinSource yields the CryptoCompare coin catalog keyed by its native key.
type CoinSource interface {
	CoinList(ctx context.Context) (map[string]model.Coin, error)
}

// TickerSource yields the CoinMarketCap ticker in provider order.
type TickerSource interface {
	Ticker(ctx context.Context) ([]model.MarketCapTicker, error)
}

// Catalogs holds both raw catalogs of one fetch.
type Catalogs struct {
	Coins   map[string]model.Coin
	Tickers []model.MarketCapTicker
}

// TickersByID returns the ticker keyed by CoinMarketCap id.
// The first entry wins when an id repeats.
func (c Catalogs) TickersByID() map[string]model.MarketCapTicker {
	out := make(map[string]model.MarketCapTicker, len(c.Tickers))
	for _, t := range c.Tickers {
		if _, seen := out[t.ID]; !seen {
			out[t.ID] = t
		}
	}
	return out
}

// Fetcher loads both catalogs. Caching and TTLs belong to the sources.
type Fetcher struct {
	coins   CoinSource
	tickers TickerSource
}

func NewFetcher(coins CoinSource, tickers TickerSource) *Fetcher {
	return &Fetcher{coins: coins, tickers: tickers}
}

// Fetch requests both catalogs concurrently. Either failure fails the fetch
// and the other result is discarded.
func (f *Fetcher) Fetch(ctx context.Context) (Catalogs, error) {
	var out Catalogs

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		coins, err := f.coins.CoinList(gctx)
		if err != nil {
			return fmt.Errorf("fetch coin list: %w", err)
		}
		out.Coins = coins
		return nil
	})
	g.Go(func() error {
		tickers, err := f.tickers.Ticker(gctx)
		if err != nil {
			return fmt.Errorf("fetch ticker: %w", err)
		}
		out.Tickers = tickers
		return nil
	})

	if err := g.Wait(); err != nil {
		return Catalogs{}, err
	}
	return out, nil
}
