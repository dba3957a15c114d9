package api

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/pkg/cryptocompare"
	mderrors "github.com/Checker-Finance/marketdata/pkg/errors"
	"github.com/Checker-Finance/marketdata/pkg/logger"
	"github.com/Checker-Finance/marketdata/pkg/model"
)

// MarketData is the CryptoCompare surface served over HTTP.
type MarketData interface {
	CoinList(ctx context.Context) (map[string]model.Coin, error)
	ExchangeList(ctx context.Context) (model.Exchanges, error)
	Price(ctx context.Context, fsym string, tsyms []string, opts cryptocompare.PriceOptions) (map[string]decimal.Decimal, error)
	PriceMulti(ctx context.Context, fsyms, tsyms []string, opts cryptocompare.PriceOptions) (map[string]map[string]decimal.Decimal, error)
	PriceFull(ctx context.Context, fsyms, tsyms []string, opts cryptocompare.PriceOptions) (map[string]map[string]model.PriceFull, error)
	PriceHistorical(ctx context.Context, fsym string, tsyms []string, at time.Time, opts cryptocompare.PriceOptions) (map[string]decimal.Decimal, error)
	GenerateAvg(ctx context.Context, fsym, tsym string, exchanges []string, disableConversion bool) (model.PriceFull, error)
	TopPairs(ctx context.Context, fsym string, limit int) ([]model.TopPair, error)
	TopExchanges(ctx context.Context, fsym, tsym string, limit int) ([]model.TopExchange, error)
	HistoDay(ctx context.Context, fsym, tsym string, opts cryptocompare.HistoOptions) ([]model.OHLCV, error)
	HistoHour(ctx context.Context, fsym, tsym string, opts cryptocompare.HistoOptions) ([]model.OHLCV, error)
	HistoMinute(ctx context.Context, fsym, tsym string, opts cryptocompare.HistoOptions) ([]model.OHLCV, error)
}

// Catalog serves the reconciled coin list. Latest returns the list cached by
// the background refresher; Reconcile computes one on demand.
type Catalog interface {
	Latest() ([]model.ReconciledCoin, time.Time)
	Reconcile(ctx context.Context) ([]model.ReconciledCoin, error)
}

// MarketDataHandler handles the read-only market data API.
type MarketDataHandler struct {
	logger  *zap.Logger
	market  MarketData
	catalog Catalog
}

func NewMarketDataHandler(log *zap.Logger, market MarketData, catalog Catalog) *MarketDataHandler {
	return &MarketDataHandler{
		logger:  logger.OrNop(log),
		market:  market,
		catalog: catalog,
	}
}

// Coins returns the reconciled catalog, optionally truncated by ?limit.
func (h *MarketDataHandler) Coins(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return h.fail(c, "coins", err)
	}

	coins, refreshed := h.catalog.Latest()
	// zero time: the refresher has not completed a cycle yet
	if refreshed.IsZero() {
		if coins, err = h.catalog.Reconcile(c.Context()); err != nil {
			return h.fail(c, "coins", err)
		}
		refreshed = time.Now().UTC()
	}
	if limit > 0 && limit < len(coins) {
		coins = coins[:limit]
	}

	return c.JSON(fiber.Map{
		"refreshedAt": refreshed,
		"count":       len(coins),
		"coins":       coins,
	})
}

func (h *MarketDataHandler) AllCoins(c *fiber.Ctx) error {
	coins, err := h.market.CoinList(c.Context())
	if err != nil {
		return h.fail(c, "coinlist", err)
	}
	return c.JSON(coins)
}

func (h *MarketDataHandler) Exchanges(c *fiber.Ctx) error {
	ex, err := h.market.ExchangeList(c.Context())
	if err != nil {
		return h.fail(c, "exchanges", err)
	}
	return c.JSON(ex)
}

func (h *MarketDataHandler) Price(c *fiber.Ctx) error {
	prices, err := h.market.Price(c.Context(), c.Query("fsym"), queryList(c, "tsyms"), priceOptions(c))
	if err != nil {
		return h.fail(c, "price", err)
	}
	return c.JSON(prices)
}

func (h *MarketDataHandler) PriceMulti(c *fiber.Ctx) error {
	prices, err := h.market.PriceMulti(c.Context(), queryList(c, "fsyms"), queryList(c, "tsyms"), priceOptions(c))
	if err != nil {
		return h.fail(c, "pricemulti", err)
	}
	return c.JSON(prices)
}

func (h *MarketDataHandler) PriceFull(c *fiber.Ctx) error {
	prices, err := h.market.PriceFull(c.Context(), queryList(c, "fsyms"), queryList(c, "tsyms"), priceOptions(c))
	if err != nil {
		return h.fail(c, "pricefull", err)
	}
	return c.JSON(prices)
}

// PriceHistorical expects ?ts as unix seconds.
func (h *MarketDataHandler) PriceHistorical(c *fiber.Ctx) error {
	at, err := queryTime(c, "ts")
	if err != nil {
		return h.fail(c, "pricehistorical", err)
	}
	prices, err := h.market.PriceHistorical(c.Context(), c.Query("fsym"), queryList(c, "tsyms"), at, priceOptions(c))
	if err != nil {
		return h.fail(c, "pricehistorical", err)
	}
	return c.JSON(prices)
}

func (h *MarketDataHandler) GenerateAvg(c *fiber.Ctx) error {
	avg, err := h.market.GenerateAvg(c.Context(), c.Query("fsym"), c.Query("tsym"), queryList(c, "e"), disableConversion(c))
	if err != nil {
		return h.fail(c, "generateavg", err)
	}
	return c.JSON(avg)
}

func (h *MarketDataHandler) TopPairs(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return h.fail(c, "top_pairs", err)
	}
	pairs, err := h.market.TopPairs(c.Context(), c.Query("fsym"), limit)
	if err != nil {
		return h.fail(c, "top_pairs", err)
	}
	return c.JSON(pairs)
}

func (h *MarketDataHandler) TopExchanges(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return h.fail(c, "top_exchanges", err)
	}
	ex, err := h.market.TopExchanges(c.Context(), c.Query("fsym"), c.Query("tsym"), limit)
	if err != nil {
		return h.fail(c, "top_exchanges", err)
	}
	return c.JSON(ex)
}

// Histo serves /histo/:period where period is day, hour or minute.
func (h *MarketDataHandler) Histo(c *fiber.Ctx) error {
	period := c.Params("period")
	opts, err := histoOptions(c)
	if err != nil {
		return h.fail(c, "histo", err)
	}

	fsym, tsym := c.Query("fsym"), c.Query("tsym")
	var candles []model.OHLCV
	switch period {
	case "day":
		candles, err = h.market.HistoDay(c.Context(), fsym, tsym, opts)
	case "hour":
		candles, err = h.market.HistoHour(c.Context(), fsym, tsym, opts)
	case "minute":
		candles, err = h.market.HistoMinute(c.Context(), fsym, tsym, opts)
	default:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown period " + period})
	}
	if err != nil {
		return h.fail(c, "histo_"+period, err)
	}
	return c.JSON(candles)
}

// fail maps err onto an HTTP status: 400 for bad input, 502 for upstream
// and transport failures, 500 otherwise.
func (h *MarketDataHandler) fail(c *fiber.Ctx, op string, err error) error {
	code := StatusFor(err)
	if code >= fiber.StatusInternalServerError {
		h.logger.Error("api."+op+".failed", zap.Error(err))
	} else {
		h.logger.Debug("api."+op+".rejected", zap.Error(err))
	}

	body := fiber.Map{"error": err.Error()}
	var upstream *mderrors.UpstreamError
	if mderrors.As(err, &upstream) {
		body["error"] = upstream.Message
		body["provider"] = upstream.Provider
	}
	return c.Status(code).JSON(body)
}

// StatusFor returns the HTTP status reported for err.
func StatusFor(err error) int {
	switch {
	case mderrors.IsValidation(err):
		return fiber.StatusBadRequest
	case mderrors.IsUpstream(err), mderrors.IsTransport(err):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func queryList(c *fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, mderrors.NewValidationError(key, "must be a non-negative integer")
	}
	return n, nil
}

func queryTime(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	sec, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, mderrors.NewValidationError(key, "must be unix seconds")
	}
	return time.Unix(sec, 0).UTC(), nil
}

func disableConversion(c *fiber.Ctx) bool {
	return c.Query("tryConversion") == "false"
}

func priceOptions(c *fiber.Ctx) cryptocompare.PriceOptions {
	return cryptocompare.PriceOptions{
		Exchanges:         queryList(c, "e"),
		DisableConversion: disableConversion(c),
	}
}

func histoOptions(c *fiber.Ctx) (cryptocompare.HistoOptions, error) {
	opts := cryptocompare.HistoOptions{
		Exchange:          c.Query("e"),
		AllData:           c.QueryBool("allData"),
		DisableConversion: disableConversion(c),
	}
	var err error
	if opts.Limit, err = queryInt(c, "limit"); err != nil {
		return opts, err
	}
	if opts.Aggregate, err = queryInt(c, "aggregate"); err != nil {
		return opts, err
	}
	if opts.To, err = queryTime(c, "toTs"); err != nil {
		return opts, err
	}
	return opts, nil
}
