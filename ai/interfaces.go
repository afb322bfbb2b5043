package ai

import (
	"context"

	"github.com/poiesic/eventsift/core"
)

// Classifier judges whether a content fragment is relevant to an event.
// Implementations must be thread-safe for concurrent use.
type Classifier interface {
	// Judge returns a complete verdict for fragment. Remote and parse failures
	// degrade to JudgeFallback rather than surfacing. The error is non-nil
	// only when ctx is done, in which case the verdict is still populated.
	Judge(ctx context.Context, fragment map[string]any, event string, platform core.Platform) (core.Verdict, error)
}

// KeywordExtractor derives search keywords from an event description.
// Implementations must be thread-safe for concurrent use.
type KeywordExtractor interface {
	// ExtractKeywords returns at most max keywords in priority order.
	// It never fails; the result may come from a degraded tier and may be empty
	// only when the description itself is blank. A non-positive max uses the
	// configured default.
	ExtractKeywords(ctx context.Context, description string, max int) []string
}

// Provider aggregates the model-backed services for convenient
// initialization and lifecycle management.
type Provider interface {
	// Classifier returns the relevance classifier.
	Classifier() Classifier

	// KeywordExtractor returns the keyword extractor.
	KeywordExtractor() KeywordExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
