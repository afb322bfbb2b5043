package eventsift

import "errors"

var (
	// ErrCrawlerNotConfigured is returned when a crawler is needed but no
	// crawler command is configured.
	ErrCrawlerNotConfigured = errors.New("crawler command not configured")

	// ErrLedgerDisabled is returned by operations that need the run ledger
	// when the workspace was opened without one.
	ErrLedgerDisabled = errors.New("run ledger disabled")
)
