package crawl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/eventsift/ai/mock"
	"github.com/poiesic/eventsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCrawler struct {
	mu       sync.Mutex
	requests []core.CrawlRequest
	crawl    func(req core.CrawlRequest) error
}

func (f *fakeCrawler) Crawl(ctx context.Context, req core.CrawlRequest) error {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	fn := f.crawl
	f.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return nil
}

func (f *fakeCrawler) byPlatform() map[core.Platform][]core.CrawlRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[core.Platform][]core.CrawlRequest)
	for _, req := range f.requests {
		out[req.Platform] = append(out[req.Platform], req)
	}
	return out
}

func newTestManager(t *testing.T, crawler Crawler, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(mock.NewMockKeywordExtractor(), crawler, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Release)
	return m
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(nil, &fakeCrawler{})
	assert.ErrorIs(t, err, ErrExtractorRequired)

	_, err = NewManager(mock.NewMockKeywordExtractor(), nil)
	assert.ErrorIs(t, err, ErrCrawlerRequired)

	_, err = NewManager(mock.NewMockKeywordExtractor(), &fakeCrawler{}, WithPlatforms("douyin"))
	assert.ErrorIs(t, err, core.ErrUnknownPlatform)

	_, err = NewManager(mock.NewMockKeywordExtractor(), &fakeCrawler{}, WithRetry(0, time.Second))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestManager_Requests(t *testing.T) {
	m := newTestManager(t, &fakeCrawler{}, WithCookies(map[core.Platform]string{
		core.PlatformWeibo: "SUB=w",
		core.PlatformZhihu: "z_c0=z",
	}))

	requests := m.Requests([]string{"k1", "k2"})
	require.Len(t, requests, 3)

	assert.Equal(t, core.CrawlRequest{
		Platform:       core.PlatformWeibo,
		Mode:           core.CrawlModeSearch,
		Keywords:       []string{"k1", "k2"},
		Cookies:        "SUB=w",
		Headless:       true,
		EnableComments: true,
	}, requests[0])
	assert.Equal(t, core.PlatformBilibili, requests[1].Platform)
	assert.Empty(t, requests[1].Cookies)
	assert.True(t, requests[1].EnableComments)
	assert.Equal(t, core.PlatformZhihu, requests[2].Platform)
	assert.False(t, requests[2].EnableComments)

	// Each request owns its keyword slice.
	requests[0].Keywords[0] = "changed"
	assert.Equal(t, "k1", requests[1].Keywords[0])
}

func TestManager_Run(t *testing.T) {
	crawler := &fakeCrawler{}
	m := newTestManager(t, crawler, WithHeadless(false), WithComments(false))

	report, err := m.Run(context.Background(), "concert cancelled tonight")
	require.NoError(t, err)

	assert.Equal(t, []string{"concert", "cancelled", "tonight"}, report.Keywords)
	assert.Empty(t, report.Failed)
	assert.NoError(t, report.Err())
	assert.Equal(t, core.AllPlatforms, report.Succeeded())

	calls := crawler.byPlatform()
	require.Len(t, calls, 3)
	for platform, reqs := range calls {
		require.Len(t, reqs, 1, platform)
		assert.Equal(t, core.CrawlModeSearch, reqs[0].Mode)
		assert.Equal(t, report.Keywords, reqs[0].Keywords)
		assert.False(t, reqs[0].Headless)
		assert.False(t, reqs[0].EnableComments)
	}
}

func TestManager_RunIsolatesFailures(t *testing.T) {
	blocked := errors.New("account blocked")
	crawler := &fakeCrawler{crawl: func(req core.CrawlRequest) error {
		switch req.Platform {
		case core.PlatformBilibili:
			return blocked
		case core.PlatformZhihu:
			panic("browser crashed")
		}
		return nil
	}}
	m := newTestManager(t, crawler, WithPoolSize(1))

	report, err := m.Run(context.Background(), "event words")
	require.NoError(t, err)

	assert.Equal(t, []core.Platform{core.PlatformWeibo}, report.Succeeded())
	require.Len(t, report.Failed, 2)
	assert.ErrorIs(t, report.Failed[core.PlatformBilibili], blocked)
	assert.ErrorIs(t, report.Failed[core.PlatformZhihu], ErrCrawlFailed)
	assert.Contains(t, report.Err().Error(), "browser crashed")
	assert.ErrorIs(t, report.Err(), blocked)
}

func TestManager_RunRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	crawler := &fakeCrawler{crawl: func(req core.CrawlRequest) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return errors.New("captcha")
		}
		return nil
	}}
	m := newTestManager(t, crawler, WithPlatforms(core.PlatformWeibo), WithRetry(3, time.Millisecond))

	report, err := m.Run(context.Background(), "event")
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 3, attempts)
}

func TestManager_RunErrors(t *testing.T) {
	m := newTestManager(t, &fakeCrawler{})

	_, err := m.Run(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEventRequired)

	empty := mock.NewMockKeywordExtractor()
	empty.ExtractKeywordsFunc = func(ctx context.Context, description string, max int) []string { return nil }
	m2, err := NewManager(empty, &fakeCrawler{})
	require.NoError(t, err)
	defer m2.Release()
	_, err = m2.Run(context.Background(), "event")
	assert.ErrorIs(t, err, ErrNoKeywords)
}

func TestManager_RunPassesMaxKeywords(t *testing.T) {
	extractor := mock.NewMockKeywordExtractor()
	var gotMax int
	extractor.ExtractKeywordsFunc = func(ctx context.Context, description string, max int) []string {
		gotMax = max
		return []string{"k"}
	}
	m, err := NewManager(extractor, &fakeCrawler{}, WithMaxKeywords(2), WithPlatforms(core.PlatformZhihu))
	require.NoError(t, err)
	defer m.Release()

	report, err := m.Run(context.Background(), "event")
	require.NoError(t, err)
	assert.Equal(t, 2, gotMax)
	assert.Equal(t, 1, extractor.CallCount())
	require.Len(t, report.Requests, 1)
}

func TestDetailFetcher(t *testing.T) {
	_, err := NewDetailFetcher(nil, nil)
	assert.ErrorIs(t, err, ErrCrawlerRequired)

	crawler := &fakeCrawler{}
	fetcher, err := NewDetailFetcher(crawler, map[core.Platform]string{core.PlatformWeibo: "SUB=w"})
	require.NoError(t, err)

	ids := []string{"1", "2"}
	err = fetcher.FetchDetail(context.Background(), core.CrawlRequest{
		Platform:       core.PlatformWeibo,
		Mode:           core.CrawlModeSearch,
		Keywords:       []string{"ignored"},
		IDs:            ids,
		Headless:       true,
		EnableComments: true,
	})
	require.NoError(t, err)

	require.Len(t, crawler.requests, 1)
	req := crawler.requests[0]
	assert.Equal(t, core.CrawlModeDetail, req.Mode)
	assert.Equal(t, "SUB=w", req.Cookies)
	assert.Nil(t, req.Keywords)
	assert.Equal(t, ids, req.IDs)
	ids[0] = "changed"
	assert.Equal(t, "1", req.IDs[0])
}
