package secrets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/marketdata/pkg/cache"
	"github.com/Checker-Finance/marketdata/pkg/logger"
	pkgsecrets "github.com/Checker-Finance/marketdata/pkg/secrets"
)

// Secret keys holding the provider API keys.
const (
	CryptoCompareKey  = "cryptocompare_api_key"
	CoinMarketCapKey  = "coinmarketcap_api_key"
	DefaultResolveTTL = time.Hour
	// FailureTTL is how long the fallback keys are served after a failed read
	// before the secret is tried again.
	FailureTTL = time.Minute
)

// APIKeys are the upstream provider credentials.
type APIKeys struct {
	CryptoCompare string
	CoinMarketCap string
}

// KeyResolver reads provider API keys from one secret, caching the result
// locally to reduce API calls. Keys missing from the secret fall back to the
// statically configured ones. The clients ask for a key on every request, so a
// rotated secret is picked up once the cached entry expires.
type KeyResolver struct {
	logger     *zap.Logger
	secretName string
	provider   pkgsecrets.Provider
	fallback   APIKeys
	cache      *cache.TTL[APIKeys]
}

// NewKeyResolver constructs a resolver for secretName. ttl <= 0 uses DefaultResolveTTL.
func NewKeyResolver(log *zap.Logger, secretName string, provider pkgsecrets.Provider, fallback APIKeys, ttl time.Duration) *KeyResolver {
	if ttl <= 0 {
		ttl = DefaultResolveTTL
	}
	return &KeyResolver{
		logger:     logger.OrNop(log),
		secretName: secretName,
		provider:   provider,
		fallback:   fallback,
		cache:      cache.NewTTL[APIKeys](ttl),
	}
}

// Resolve returns the provider API keys.
func (r *KeyResolver) Resolve(ctx context.Context) (APIKeys, error) {
	if keys, ok := r.cache.Get(r.secretName); ok {
		return keys, nil
	}

	secret, err := r.provider.GetSecret(ctx, r.secretName)
	if err != nil {
		r.logger.Warn("aws.secret_fetch_failed",
			zap.String("key", r.secretName),
			zap.Error(err))
		return APIKeys{}, fmt.Errorf("resolve api keys: %w", err)
	}

	keys := r.fallback
	if v := secret[CryptoCompareKey]; v != "" {
		keys.CryptoCompare = v
	}
	if v := secret[CoinMarketCapKey]; v != "" {
		keys.CoinMarketCap = v
	}
	r.cache.Put(r.secretName, keys)

	r.logger.Info("aws.api_keys_resolved",
		zap.String("secret", r.secretName),
		zap.Bool("cryptocompare", keys.CryptoCompare != ""),
		zap.Bool("coinmarketcap", keys.CoinMarketCap != ""),
	)
	return keys, nil
}

// CryptoCompare returns the CryptoCompare key, or the fallback when the secret
// cannot be read.
func (r *KeyResolver) CryptoCompare(ctx context.Context) string {
	return r.keysOrFallback(ctx).CryptoCompare
}

// CoinMarketCap returns the CoinMarketCap key, or the fallback when the secret
// cannot be read.
func (r *KeyResolver) CoinMarketCap(ctx context.Context) string {
	return r.keysOrFallback(ctx).CoinMarketCap
}

func (r *KeyResolver) keysOrFallback(ctx context.Context) APIKeys {
	keys, err := r.Resolve(ctx)
	if err != nil {
		r.cache.PutFor(r.secretName, r.fallback, FailureTTL)
		return r.fallback
	}
	return keys
}
