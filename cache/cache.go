// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultSweepInterval is how often the background sweep runs by default.
	DefaultSweepInterval = 10 * time.Second
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a TTL-keyed store with lazy eviction on read and an optional
// periodic sweep. The zero value is not usable; create one with New.
type Cache[V any] struct {
	mu            sync.Mutex
	entries       map[string]entry[V]
	sweepInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger

	lifecycle sync.Mutex
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	sweepInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// WithSweepInterval sets how often expired entries are removed in the background.
// Non-positive values keep the default.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates an empty cache. The background sweep does not run until Start is called.
func New[V any](opts ...Option) *Cache[V] {
	o := &options{
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Cache[V]{
		entries:       make(map[string]entry[V]),
		sweepInterval: o.sweepInterval,
		now:           o.now,
		logger:        o.logger.With("component", "expiring-cache"),
	}
}

// Set stores value under key, replacing any previous entry and its expiry.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	expiresAt := c.now().Add(ttl)
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Get returns the value stored under key. Expired entries are deleted and
// reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if expired(e, now) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Keys returns the live keys matching pattern. "*" matches every key; any
// other pattern has its '*' characters removed and is used as a substring
// filter. This is not glob matching.
func (c *Cache[V]) Keys(pattern string) []string {
	matchAll := pattern == "*"
	needle := strings.ReplaceAll(pattern, "*", "")
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key, e := range c.entries {
		if expired(e, now) {
			continue
		}
		if matchAll || strings.Contains(key, needle) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Len returns the number of stored entries, including expired entries the
// sweep has not removed yet.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if expired(e, now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Start launches the background sweep. It may be called at most once per
// cache; the sweep runs until Stop is called or ctx is done.
func (c *Cache[V]) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.stopped {
		return ErrStopped
	}
	if c.started {
		return ErrAlreadyStarted
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.started = true

	go c.sweepLoop(sweepCtx, c.done)
	return nil
}

// Stop cancels the background sweep and waits for it to exit. It is safe to
// call Stop more than once, or without a prior Start.
func (c *Cache[V]) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	if !c.started {
		return
	}
	c.cancel()
	<-c.done
}

func (c *Cache[V]) sweepLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				c.logger.Debug("swept expired entries", "removed", removed)
			}
		}
	}
}

func expired[V any](e entry[V], now time.Time) bool {
	return !now.Before(e.expiresAt)
}
