package config

import (
	"time"

	"github.com/joho/godotenv"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// Config holds the runtime configuration for the marketdata service and CLI.
type Config struct {
	ServiceName string // e.g. "marketdata"
	Env         string // "dev", "uat", "prod"
	LogLevel    string
	Port        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	CryptoCompareURL    string
	CryptoCompareAPIKey string
	CoinMarketCapURL    string
	CoinMarketCapAPIKey string

	RequestTimeout time.Duration
	RetryMax       int // 0 = failures propagate immediately
	RateLimitRPS   int
	RateLimitBurst int

	CacheBackend     string // "memory" | "redis"
	CacheDefaultTTL  time.Duration
	CacheLongTTL     time.Duration
	CacheCleanupFreq time.Duration
	RedisAddr        string
	RedisDB          int
	RedisPass        string

	// Optional collaborators; empty disables them.
	DatabaseURL   string
	NATSURL       string
	AWSRegion     string
	AWSSecretName string // secret holding provider API keys

	PGMaxConns        int
	PGMinConns        int
	PGMaxConnLifetime time.Duration

	CatalogRefreshInterval time.Duration
	CatalogSubject         string
	CatalogStream          string
	SnapshotTable          string
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	return &Config{
		ServiceName: GetEnv("SERVICE_NAME", "marketdata"),
		Env:         GetEnv("ENV", "dev"),
		LogLevel:    GetEnv("LOG_LEVEL", "info"),
		Port:        GetEnvInt("MARKETDATA_PORT", 9020),

		HTTPReadTimeout:  GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		HTTPIdleTimeout:  GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:    GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),

		CryptoCompareURL:    GetEnv("CRYPTOCOMPARE_URL", "https://min-api.cryptocompare.com/data/"),
		CryptoCompareAPIKey: GetEnv("CRYPTOCOMPARE_API_KEY", ""),
		CoinMarketCapURL:    GetEnv("COINMARKETCAP_URL", "https://api.coinmarketcap.com"),
		CoinMarketCapAPIKey: GetEnv("COINMARKETCAP_API_KEY", ""),

		RequestTimeout: GetEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		RetryMax:       GetEnvInt("RETRY_MAX", 0),
		RateLimitRPS:   GetEnvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: GetEnvInt("RATE_LIMIT_BURST", 40),

		CacheBackend:     GetEnv("CACHE_BACKEND", "memory"),
		CacheDefaultTTL:  GetEnvDuration("CACHE_DEFAULT_TTL", Day),
		CacheLongTTL:     GetEnvDuration("CACHE_LONG_TTL", Week),
		CacheCleanupFreq: GetEnvDuration("CACHE_CLEANUP_FREQ", 10*time.Minute),
		RedisAddr:        GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:          GetEnvInt("REDIS_DB", 0),
		RedisPass:        GetEnv("REDIS_PASS", ""),

		DatabaseURL:   GetEnv("DATABASE_URL", ""),
		NATSURL:       GetEnv("NATS_URL", ""),
		AWSRegion:     GetEnv("AWS_REGION", "us-east-2"),
		AWSSecretName: GetEnv("AWS_SECRET_NAME", ""),

		PGMaxConns:        GetEnvInt("PG_MAX_CONNS", 4),
		PGMinConns:        GetEnvInt("PG_MIN_CONNS", 1),
		PGMaxConnLifetime: GetEnvDuration("PG_MAX_CONN_LIFETIME", 30*time.Minute),

		CatalogRefreshInterval: GetEnvDuration("CATALOG_REFRESH_INTERVAL", 6*time.Hour),
		CatalogSubject:         GetEnv("CATALOG_SUBJECT", "evt.marketdata.catalog.reconciled.v1"),
		CatalogStream:          GetEnv("CATALOG_STREAM", "MARKETDATA_EVENTS"),
		SnapshotTable:          GetEnv("SNAPSHOT_TABLE", "reference.coin_crossref"),
	}
}
