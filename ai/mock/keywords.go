package mock

import (
	"context"
	"sync"

	"github.com/poiesic/eventsift/ai"
)

// MockKeywordExtractor is a test double for ai.KeywordExtractor.
type MockKeywordExtractor struct {
	// ExtractKeywordsFunc is called by ExtractKeywords if set.
	// If nil, splits the description on whitespace.
	ExtractKeywordsFunc func(ctx context.Context, description string, max int) []string

	mu        sync.Mutex
	callCount int
}

// NewMockKeywordExtractor creates a mock keyword extractor with default behavior.
func NewMockKeywordExtractor() *MockKeywordExtractor {
	return &MockKeywordExtractor{}
}

// ExtractKeywords returns keywords for description.
func (m *MockKeywordExtractor) ExtractKeywords(ctx context.Context, description string, max int) []string {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.ExtractKeywordsFunc != nil {
		return m.ExtractKeywordsFunc(ctx, description, max)
	}
	if max <= 0 {
		max = ai.DefaultMaxKeywords
	}
	return ai.TokenizeKeywords(description, max)
}

// CallCount returns the number of times ExtractKeywords was called.
func (m *MockKeywordExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
