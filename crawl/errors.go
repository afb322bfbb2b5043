package crawl

import "errors"

var (
	// ErrCommandRequired is returned when a CommandCrawler has no executable.
	ErrCommandRequired = errors.New("crawler command required")

	// ErrCrawlerRequired is returned when a crawler is not provided.
	ErrCrawlerRequired = errors.New("crawler required")

	// ErrExtractorRequired is returned when a keyword extractor is not provided.
	ErrExtractorRequired = errors.New("keyword extractor required")

	// ErrEventRequired is returned when Run is called with a blank event description.
	ErrEventRequired = errors.New("event description required")

	// ErrNoKeywords is returned when no search keywords could be derived.
	ErrNoKeywords = errors.New("no keywords extracted")

	// ErrCrawlFailed wraps a crawler invocation that did not succeed.
	ErrCrawlFailed = errors.New("crawl failed")

	// ErrInvalidMaxAttempts is returned when retry attempts is not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
