package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCache_SetGet(t *testing.T) {
	clock := newFakeClock()
	c := New[string](WithClock(clock.Now))

	c.Set("a", "1", time.Minute)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_ExpiresAtBoundary(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithClock(clock.Now))

	c.Set("k", 7, 10*time.Second)

	clock.Advance(10*time.Second - time.Nanosecond)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 7, v)

	clock.Advance(time.Nanosecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is evicted on read")
}

func TestCache_ZeroTTLIsImmediatelyAbsent(t *testing.T) {
	c := New[int](WithClock(newFakeClock().Now))
	c.Set("k", 1, 0)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_SetReplacesExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New[string](WithClock(clock.Now))

	c.Set("k", "old", time.Second)
	c.Set("k", "new", time.Hour)

	clock.Advance(time.Minute)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestCache_Delete(t *testing.T) {
	c := New[string]()
	c.Set("k", "v", time.Hour)
	c.Delete("k")
	c.Delete("never-set")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_Keys(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithClock(clock.Now))

	c.Set("proxy:1", 1, time.Hour)
	c.Set("proxy:2", 2, time.Hour)
	c.Set("session:1", 3, time.Hour)
	c.Set("proxy:stale", 4, time.Second)
	clock.Advance(time.Second)

	all := c.Keys("*")
	sort.Strings(all)
	assert.Equal(t, []string{"proxy:1", "proxy:2", "session:1"}, all)

	proxies := c.Keys("proxy*")
	sort.Strings(proxies)
	assert.Equal(t, []string{"proxy:1", "proxy:2"}, proxies)

	// '*' is stripped, not matched as a glob.
	ones := c.Keys("*:1")
	sort.Strings(ones)
	assert.Equal(t, []string{"proxy:1", "session:1"}, ones)

	assert.Empty(t, c.Keys("nothing"))
}

func TestCache_KeysOnlyReturnsLiveMatches(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithClock(clock.Now))

	for i := range 50 {
		ttl := time.Duration(i%5) * time.Second
		c.Set(fmt.Sprintf("key-%d", i), i, ttl)
	}
	clock.Advance(2 * time.Second)

	for _, pattern := range []string{"*", "key-1", "*-2*", "3"} {
		for _, key := range c.Keys(pattern) {
			_, ok := c.Get(key)
			assert.True(t, ok, "key %s returned for %q must be live", key, pattern)
		}
	}
}

func TestCache_SweepRemovesUnreadEntries(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithClock(clock.Now))

	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	assert.Equal(t, 2, c.Len())

	clock.Advance(5 * time.Second)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"long"}, c.Keys("*"))
}

func TestCache_BackgroundSweep(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithClock(clock.Now), WithSweepInterval(5*time.Millisecond))

	c.Set("gone", 1, time.Second)
	clock.Advance(time.Minute)

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestCache_Lifecycle(t *testing.T) {
	c := New[int](WithSweepInterval(time.Millisecond))

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyStarted)

	c.Stop()
	c.Stop()
	assert.ErrorIs(t, c.Start(context.Background()), ErrStopped)

	// The cache stays usable for reads and writes after Stop.
	c.Set("k", 1, time.Hour)
	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestCache_StopWithoutStart(t *testing.T) {
	c := New[int]()
	assert.NotPanics(t, c.Stop)
}

func TestCache_ContextCancelEndsSweep(t *testing.T) {
	c := New[int](WithSweepInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, c.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[int]()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := range 200 {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, worker, time.Minute)
				c.Get(key)
				c.Keys("k*")
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, c.Keys("*"), 10)
}
