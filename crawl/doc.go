// Package crawl delegates content collection to external crawlers.
//
// Every crawl receives a complete core.CrawlRequest value: platform, mode,
// keywords or ids, cookies, headless and comment switches. Nothing about a
// crawl is configured through shared state, so platform branches can run
// concurrently without interfering.
//
// Manager drives the search phase: it extracts keywords from an event
// description and crawls each enabled platform on a worker pool, collecting
// per-platform failures into a Report. DetailFetcher drives the detail phase
// for the pipeline.
package crawl
