package crawl

import (
	"context"
	"slices"

	"github.com/poiesic/eventsift/core"
)

// DetailFetcher re-fetches records in detail mode through a Crawler. It
// satisfies pipeline.DetailFetcher.
type DetailFetcher struct {
	crawler Crawler
	cookies map[core.Platform]string
}

// NewDetailFetcher creates a fetcher that fills in per-platform cookies when
// a request carries none.
func NewDetailFetcher(crawler Crawler, cookies map[core.Platform]string) (*DetailFetcher, error) {
	if crawler == nil {
		return nil, ErrCrawlerRequired
	}
	return &DetailFetcher{crawler: crawler, cookies: cookies}, nil
}

// FetchDetail forces detail mode on req and runs it.
func (d *DetailFetcher) FetchDetail(ctx context.Context, req core.CrawlRequest) error {
	req.Mode = core.CrawlModeDetail
	req.IDs = slices.Clone(req.IDs)
	req.Keywords = nil
	if req.Cookies == "" {
		req.Cookies = d.cookies[req.Platform]
	}
	return d.crawler.Crawl(ctx, req)
}
