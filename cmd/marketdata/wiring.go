package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	internalsecrets "github.com/Checker-Finance/marketdata/internal/secrets"
	"github.com/Checker-Finance/marketdata/pkg/cache"
	"github.com/Checker-Finance/marketdata/pkg/catalog"
	"github.com/Checker-Finance/marketdata/pkg/coinmarketcap"
	"github.com/Checker-Finance/marketdata/pkg/config"
	"github.com/Checker-Finance/marketdata/pkg/cryptocompare"
	"github.com/Checker-Finance/marketdata/pkg/secrets"
	"github.com/Checker-Finance/marketdata/pkg/utils"
)

// deps are the collaborators shared by every command.
type deps struct {
	store      cache.Store
	cc         *cryptocompare.Client
	cmc        *coinmarketcap.Client
	reconciler *catalog.Reconciler
}

func (d *deps) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
}

func buildDeps(ctx context.Context, cfg *config.Config, log *zap.Logger) (*deps, error) {
	ccKey, cmcKey := keyOptions(ctx, cfg, log)

	store, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hc := &http.Client{Timeout: cfg.RequestTimeout}

	cc := cryptocompare.NewClient(log,
		cryptocompare.WithBaseURL(cfg.CryptoCompareURL),
		ccKey,
		cryptocompare.WithHTTPClient(hc),
		cryptocompare.WithCache(store),
		cryptocompare.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		cryptocompare.WithRetries(cfg.RetryMax),
		cryptocompare.WithTTL(cfg.CacheDefaultTTL, cfg.CacheLongTTL),
	)
	cmc := coinmarketcap.NewClient(log,
		coinmarketcap.WithBaseURL(cfg.CoinMarketCapURL),
		cmcKey,
		coinmarketcap.WithHTTPClient(hc),
		coinmarketcap.WithCache(store),
		coinmarketcap.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		coinmarketcap.WithRetries(cfg.RetryMax),
		coinmarketcap.WithTTL(cfg.CacheDefaultTTL),
	)

	log.Info("marketdata.clients_ready",
		zap.String("cache", store.Name()),
		zap.Bool("aws_secrets", cfg.AWSSecretName != ""),
		zap.Int("retry_max", cfg.RetryMax))

	return &deps{
		store:      store,
		cc:         cc,
		cmc:        cmc,
		reconciler: catalog.NewReconciler(log, catalog.NewFetcher(cc, cmc)),
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return cache.NewMemory(cfg.CacheCleanupFreq), nil
	case "redis":
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPass,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// keyOptions prefers AWS Secrets Manager when a secret name is configured.
// The resolver stays attached to the clients and re-reads the secret once its
// cached copy expires; the environment keys cover any read failure.
func keyOptions(ctx context.Context, cfg *config.Config, log *zap.Logger) (cryptocompare.Option, coinmarketcap.Option) {
	fallback := internalsecrets.APIKeys{
		CryptoCompare: cfg.CryptoCompareAPIKey,
		CoinMarketCap: cfg.CoinMarketCapAPIKey,
	}
	static := func() (cryptocompare.Option, coinmarketcap.Option) {
		log.Info("marketdata.static_api_keys",
			zap.String("cryptocompare_key", utils.MaskKey(fallback.CryptoCompare)),
			zap.String("coinmarketcap_key", utils.MaskKey(fallback.CoinMarketCap)))
		return cryptocompare.WithAPIKey(fallback.CryptoCompare), coinmarketcap.WithAPIKey(fallback.CoinMarketCap)
	}
	if cfg.AWSSecretName == "" {
		return static()
	}

	provider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
	if err != nil {
		log.Warn("aws.provider_init_failed", zap.Error(err))
		return static()
	}
	resolver := internalsecrets.NewKeyResolver(log, cfg.AWSSecretName, provider, fallback, 0)
	log.Info("marketdata.resolved_api_keys",
		zap.String("cryptocompare_key", utils.MaskKey(resolver.CryptoCompare(ctx))),
		zap.String("coinmarketcap_key", utils.MaskKey(resolver.CoinMarketCap(ctx))))
	return cryptocompare.WithAPIKeyFunc(resolver.CryptoCompare), coinmarketcap.WithAPIKeyFunc(resolver.CoinMarketCap)
}
