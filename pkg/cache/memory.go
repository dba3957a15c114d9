package cache

import (
	"context"
	"sync"
	"time"
)

type item[T any] struct {
	value      T
	expiration time.Time // zero = never
}

func (i item[T]) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// TTL is a thread-safe in-memory cache with per-entry expiry.
type TTL[T any] struct {
	mu   sync.RWMutex
	data map[string]item[T]
	ttl  time.Duration
	now  func() time.Time
}

// NewTTL creates a cache whose Put uses defaultTTL.
func NewTTL[T any](defaultTTL time.Duration) *TTL[T] {
	return &TTL[T]{
		data: make(map[string]item[T]),
		ttl:  defaultTTL,
		now:  time.Now,
	}
}

// Get returns a cached value if present and not expired.
func (c *TTL[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	it, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	if it.expired(c.now()) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		var zero T
		return zero, false
	}
	return it.value, true
}

// Put inserts or overwrites an entry with the default TTL.
func (c *TTL[T]) Put(key string, value T) {
	c.PutFor(key, value, c.ttl)
}

// PutFor inserts or overwrites an entry with an explicit TTL.
func (c *TTL[T]) PutFor(key string, value T, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = item[T]{value: value, expiration: exp}
	c.mu.Unlock()
}

// Bust deletes a single entry.
func (c *TTL[T]) Bust(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (c *TTL[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// StartCleaner periodically removes expired entries until stop is closed.
func (c *TTL[T]) StartCleaner(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-stop:
			return
		}
	}
}

func (c *TTL[T]) cleanupExpired() {
	now := c.now()
	c.mu.Lock()
	for k, v := range c.data {
		if v.expired(now) {
			delete(c.data, k)
		}
	}
	c.mu.Unlock()
}

// Memory is the in-process Store backend.
type Memory struct {
	*TTL[[]byte]
	stop chan struct{}
	once sync.Once
}

// NewMemory creates an in-memory Store. A positive cleanupEvery starts a janitor
// goroutine that is stopped by Close.
func NewMemory(cleanupEvery time.Duration) *Memory {
	m := &Memory{TTL: NewTTL[[]byte](0), stop: make(chan struct{})}
	if cleanupEvery > 0 {
		go m.StartCleaner(cleanupEvery, m.stop)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.TTL.Get(key)
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.PutFor(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.Bust(key)
	return nil
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}
