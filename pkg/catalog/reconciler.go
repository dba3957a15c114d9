// Package catalog cross-references the CryptoCompare coin catalog with the
// CoinMarketCap ticker and orders the matches by market-cap rank.
package catalog

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/internal/metrics"
	mderrors "github.com/Checker-Finance/marketdata/pkg/errors"
	"github.com/Checker-Finance/marketdata/pkg/logger"
	"github.com/Checker-Finance/marketdata/pkg/model"
)

// Reconciler produces the reconciled, rank-ordered coin list.
type Reconciler struct {
	fetcher *Fetcher
	logger  *zap.Logger
}

func NewReconciler(log *zap.Logger, fetcher *Fetcher) *Reconciler {
	return &Reconciler{fetcher: fetcher, logger: logger.OrNop(log)}
}

// Reconcile fetches both catalogs and merges them. Any fetch or rank parse
// error fails the whole call; no partial list is returned.
func (r *Reconciler) Reconcile(ctx context.Context) ([]model.ReconciledCoin, error) {
	start := time.Now()

	cats, err := r.fetcher.Fetch(ctx)
	if err != nil {
		metrics.IncReconcile("error")
		r.logger.Warn("catalog.fetch_failed", zap.Error(err))
		return nil, err
	}

	out, err := Merge(cats.Coins, cats.Tickers)
	if err != nil {
		metrics.IncReconcile("error")
		r.logger.Error("catalog.merge_failed", zap.Error(err))
		return nil, err
	}

	metrics.IncReconcile("ok")
	metrics.ReconciledCoins.Set(float64(len(out)))
	r.logger.Info("catalog.reconciled",
		zap.Int("coins", len(cats.Coins)),
		zap.Int("tickers", len(cats.Tickers)),
		zap.Int("matched", len(out)),
		zap.Duration("duration", time.Since(start)))
	return out, nil
}

// Merge joins coins against tickers. Coins are visited in key order; each
// takes the first ticker, in slice order, whose normalized symbol equals the
// coin's Name. Unmatched coins are dropped and the result is stably sorted by
// ascending rank.
func Merge(coins map[string]model.Coin, tickers []model.MarketCapTicker) ([]model.ReconciledCoin, error) {
	keys := make([]string, 0, len(coins))
	for k := range coins {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	normalized := make([]string, len(tickers))
	for i, t := range tickers {
		normalized[i] = NormalizedSymbol(t)
	}

	out := make([]model.ReconciledCoin, 0, len(tickers))
	for _, k := range keys {
		coin := coins[k]
		idx := slices.Index(normalized, coin.Name)
		if idx < 0 {
			continue
		}
		t := tickers[idx]
		rank, err := strconv.Atoi(t.Rank)
		if err != nil {
			return nil, mderrors.NewParseError("rank", t.Rank, err)
		}
		out = append(out, model.ReconciledCoin{Coin: coin, CrossRefID: t.ID, Rank: rank})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}
