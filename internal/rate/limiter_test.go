package rate

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 10, Burst: 5})

	// Should allow up to burst count immediately
	allowed := 0
	for i := 0; i < 10; i++ {
		if lim.Allow() {
			allowed++
		}
	}

	if allowed != 5 {
		t.Errorf("expected 5 allowed from burst, got %d", allowed)
	}
}

func TestLimiter_Refill(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 100, Burst: 2})

	for lim.Allow() {
	}

	time.Sleep(50 * time.Millisecond)

	if !lim.Allow() {
		t.Error("expected token to be available after refill period")
	}
}

func TestLimiter_BurstCap(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 1000, Burst: 3})

	// Even after a long sleep, tokens should not exceed burst
	time.Sleep(100 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if lim.Allow() {
			allowed++
		}
	}

	if allowed > 3 {
		t.Errorf("burst cap exceeded: got %d allowed, want <= 3", allowed)
	}
}

func TestLimiter_Wait_ContextCanceled(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 1, Burst: 1})
	lim.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := lim.Wait(ctx); err == nil {
		t.Fatal("expected context error, got nil")
	}
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	lim := New(Config{RequestsPerSecond: 1000, Burst: 100})

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lim.Allow() {
				mu.Lock()
				total++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if total == 0 {
		t.Error("expected some requests to be allowed")
	}
	if total > 100 {
		t.Errorf("allowed more than burst: %d", total)
	}
}

func TestManager_PerProviderBuckets(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 10, Burst: 5}, nil)

	l1 := mgr.GetLimiter("cryptocompare")
	l2 := mgr.GetLimiter("cryptocompare")
	l3 := mgr.GetLimiter("coinmarketcap")

	if l1 != l2 {
		t.Error("same provider should return the same limiter instance")
	}
	if l1 == l3 {
		t.Error("different providers should return different limiter instances")
	}
}

func TestManager_Override(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 10, Burst: 5}, map[string]Config{
		"coinmarketcap": {RequestsPerSecond: 1, Burst: 1},
	})

	lim := mgr.GetLimiter("coinmarketcap")
	if !lim.Allow() {
		t.Fatal("expected first token")
	}
	if lim.Allow() {
		t.Error("override burst of 1 should block the second call")
	}
}

func TestManager_Wait(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 100, Burst: 5}, nil)

	if err := mgr.Wait(context.Background(), "cryptocompare"); err != nil {
		t.Fatalf("expected Wait to succeed, got: %v", err)
	}
}

func TestManager_ConcurrentGetLimiter(t *testing.T) {
	mgr := NewManager(Config{RequestsPerSecond: 10, Burst: 5}, nil)

	var wg sync.WaitGroup
	limiters := make([]*Limiter, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			limiters[idx] = mgr.GetLimiter("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < 20; i++ {
		if limiters[i] != limiters[0] {
			t.Fatalf("limiter at index %d differs from index 0", i)
		}
	}
}
