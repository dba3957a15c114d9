package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisFromClient(rdb, ""), mr
}

func TestRedis_SetGet(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	require.NoError(t, r.Set(ctx, "https://x/price?fsym=BTC", []byte(`{"USD":1}`), time.Hour))

	// stored under the namespace prefix
	raw, err := mr.Get(DefaultPrefix + "https://x/price?fsym=BTC")
	require.NoError(t, err)
	assert.Equal(t, `{"USD":1}`, raw)

	v, ok, err := r.Get(ctx, "https://x/price?fsym=BTC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"USD":1}`, string(v))
}

func TestRedis_MissIsNotError(t *testing.T) {
	r, _ := newTestRedis(t)

	v, ok, err := r.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestRedis_TTL(t *testing.T) {
	ctx := context.Background()
	r, mr := newTestRedis(t)

	require.NoError(t, r.Set(ctx, "k", []byte("v"), 24*time.Hour))
	assert.Equal(t, 24*time.Hour, mr.TTL(DefaultPrefix+"k"))

	mr.FastForward(25 * time.Hour)
	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_Delete(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRedis(t)

	require.NoError(t, r.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, r.Delete(ctx, "k"))

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_HealthCheck(t *testing.T) {
	r, mr := newTestRedis(t)
	require.NoError(t, r.HealthCheck(context.Background()))

	mr.Close()
	err := r.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestRedis_HealthCheckNilClient(t *testing.T) {
	r := &Redis{}
	err := r.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis not initialized")
}

func TestNewRedis_PingFailure(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisOptions{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestNewRedis_CustomPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	r, err := NewRedis(context.Background(), RedisOptions{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	require.NoError(t, r.Set(context.Background(), "k", []byte("v"), 0))
	assert.True(t, mr.Exists("test:k"))
	assert.Equal(t, "redis", r.Name())
}
