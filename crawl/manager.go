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

package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/core"
)

// Manager turns an event description into search keywords and crawls every
// enabled platform for them concurrently.
type Manager struct {
	extractor   ai.KeywordExtractor
	crawler     Crawler
	pool        *ants.Pool
	platforms   []core.Platform
	cookies     map[core.Platform]string
	headless    bool
	comments    bool
	maxKeywords int
	retry       backoff
	logger      *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// WithPoolSize sets how many platforms are crawled at once.
// Default is one worker per platform.
func WithPoolSize(size int) Option {
	return func(m *Manager) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if m.pool != nil {
			m.pool.Release()
		}
		m.pool = pool
		return nil
	}
}

// WithPlatforms restricts crawling to the given platforms.
func WithPlatforms(platforms ...core.Platform) Option {
	return func(m *Manager) error {
		for _, platform := range platforms {
			if err := core.ValidatePlatform(platform); err != nil {
				return err
			}
		}
		selected := make([]core.Platform, 0, len(platforms))
		for _, candidate := range core.AllPlatforms {
			if slices.Contains(platforms, candidate) {
				selected = append(selected, candidate)
			}
		}
		m.platforms = selected
		return nil
	}
}

// WithCookies sets the login cookies passed to each platform's crawl.
func WithCookies(cookies map[core.Platform]string) Option {
	return func(m *Manager) error {
		m.cookies = maps.Clone(cookies)
		return nil
	}
}

// WithHeadless controls whether crawlers run their browser headless.
// Default is true.
func WithHeadless(headless bool) Option {
	return func(m *Manager) error {
		m.headless = headless
		return nil
	}
}

// WithComments controls comment collection for weibo and bilibili. Zhihu
// comments are never requested. Default is true.
func WithComments(enabled bool) Option {
	return func(m *Manager) error {
		m.comments = enabled
		return nil
	}
}

// WithMaxKeywords sets how many keywords to extract. Non-positive values
// defer to the extractor's configured default.
func WithMaxKeywords(n int) Option {
	return func(m *Manager) error {
		m.maxKeywords = n
		return nil
	}
}

// WithRetry retries a failed platform crawl up to attempts times in total,
// doubling delay between attempts. Default is a single attempt.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(m *Manager) error {
		if attempts < 1 {
			return ErrInvalidMaxAttempts
		}
		m.retry = backoff{attempts: attempts, delay: delay}
		return nil
	}
}

// NewManager creates a crawl manager.
func NewManager(extractor ai.KeywordExtractor, crawler Crawler, opts ...Option) (*Manager, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if crawler == nil {
		return nil, ErrCrawlerRequired
	}

	pool, err := ants.NewPool(len(core.AllPlatforms))
	if err != nil {
		return nil, err
	}

	m := &Manager{
		extractor: extractor,
		crawler:   crawler,
		pool:      pool,
		platforms: slices.Clone(core.AllPlatforms),
		cookies:   map[core.Platform]string{},
		headless:  true,
		comments:  true,
		retry:     backoff{attempts: 1},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(m); optErr != nil {
			m.Release()
			return nil, optErr
		}
	}
	m.logger = m.logger.With("component", "crawl-manager")
	return m, nil
}

// Release frees the worker pool.
func (m *Manager) Release() {
	if m.pool != nil {
		m.pool.Release()
	}
}

// Report describes one crawl run.
type Report struct {
	Keywords []string
	Requests []core.CrawlRequest
	// Failed maps each platform whose crawl did not succeed to its error.
	Failed map[core.Platform]error
}

// Succeeded returns the platforms that crawled without error, in fixed order.
func (r *Report) Succeeded() []core.Platform {
	var ok []core.Platform
	for _, req := range r.Requests {
		if _, failed := r.Failed[req.Platform]; !failed {
			ok = append(ok, req.Platform)
		}
	}
	return ok
}

// Err joins the per-platform failures, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, platform := range core.AllPlatforms {
		if err, ok := r.Failed[platform]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Requests builds one search request per enabled platform for keywords.
func (m *Manager) Requests(keywords []string) []core.CrawlRequest {
	requests := make([]core.CrawlRequest, 0, len(m.platforms))
	for _, platform := range m.platforms {
		requests = append(requests, core.CrawlRequest{
			Platform:       platform,
			Mode:           core.CrawlModeSearch,
			Keywords:       slices.Clone(keywords),
			Cookies:        m.cookies[platform],
			Headless:       m.headless,
			EnableComments: m.comments && platform != core.PlatformZhihu,
		})
	}
	return requests
}

// Run extracts keywords for event and crawls every enabled platform with
// them. A failing platform never stops the others; failures are reported in
// Report.Failed. The error is non-nil only for a blank event, an empty
// keyword set, or a done ctx.
func (m *Manager) Run(ctx context.Context, event string) (*Report, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return nil, ErrEventRequired
	}

	keywords := m.extractor.ExtractKeywords(ctx, event, m.maxKeywords)
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	m.logger.Info("keywords extracted", "keywords", keywords)

	report := &Report{
		Keywords: keywords,
		Requests: m.Requests(keywords),
		Failed:   make(map[core.Platform]error),
	}

	var mu sync.Mutex
	fail := func(platform core.Platform, err error) {
		mu.Lock()
		report.Failed[platform] = err
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for _, req := range report.Requests {
		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("%w: %s: panic: %v", ErrCrawlFailed, req.Platform, r)
					m.logger.Error("crawl branch panicked", "platform", req.Platform, "error", err)
					fail(req.Platform, err)
				}
			}()

			err := m.retry.run(ctx, func(attempt int) error {
				err := m.crawler.Crawl(ctx, req)
				if err != nil && attempt < m.retry.attempts && ctx.Err() == nil {
					m.logger.Warn("platform crawl attempt failed, retrying",
						"platform", req.Platform,
						"attempt", attempt,
						"max_attempts", m.retry.attempts,
						"error", err)
				}
				return err
			})
			if err != nil {
				m.logger.Error("platform crawl failed", "platform", req.Platform, "error", err)
				fail(req.Platform, err)
				return
			}
			m.logger.Info("platform crawl complete", "platform", req.Platform)
		})
		if err != nil {
			wg.Done()
			fail(req.Platform, fmt.Errorf("%w: %s: %w", ErrCrawlFailed, req.Platform, err))
		}
	}
	wg.Wait()

	m.logger.Info("crawl finished",
		"platforms", len(report.Requests),
		"failed", len(report.Failed))
	return report, ctx.Err()
}
