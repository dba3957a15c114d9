package rate

import (
	"context"
	"sync"
	"time"
)

// Config defines rate limiting parameters for one provider.
type Config struct {
	RequestsPerSecond int
	Burst             int
}

// Limiter implements a token bucket rate limiter.
type Limiter struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
	rate   float64
	burst  float64
}

// New creates a new limiter with a full bucket.
func New(cfg Config) *Limiter {
	return &Limiter{
		tokens: float64(cfg.Burst),
		last:   time.Now(),
		rate:   float64(cfg.RequestsPerSecond),
		burst:  float64(cfg.Burst),
	}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	l.last = now
	if l.tokens > l.burst {
		l.tokens = l.burst
	}

	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// Wait blocks until a token becomes available or context is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}
		select {
		case <-time.After(20 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Manager holds one limiter per provider. Providers without an explicit
// override share the defaults but still get their own bucket.
type Manager struct {
	mu        sync.RWMutex
	limiters  map[string]*Limiter
	defaults  Config
	overrides map[string]Config
}

func NewManager(defaults Config, overrides map[string]Config) *Manager {
	return &Manager{
		limiters:  make(map[string]*Limiter),
		defaults:  defaults,
		overrides: overrides,
	}
}

func (m *Manager) GetLimiter(provider string) *Limiter {
	m.mu.RLock()
	if lim, ok := m.limiters[provider]; ok {
		m.mu.RUnlock()
		return lim
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if lim, ok := m.limiters[provider]; ok {
		return lim
	}
	cfg := m.defaults
	if o, ok := m.overrides[provider]; ok {
		cfg = o
	}
	lim := New(cfg)
	m.limiters[provider] = lim
	return lim
}

// Wait ensures rate limit compliance for a given provider.
func (m *Manager) Wait(ctx context.Context, provider string) error {
	return m.GetLimiter(provider).Wait(ctx)
}
