package mock

import (
	"context"
	"sync"

	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/core"
)

// JudgeFunc is the signature of ai.Classifier.Judge.
type JudgeFunc func(ctx context.Context, fragment map[string]any, event string, platform core.Platform) (core.Verdict, error)

// MockClassifier is a test double for ai.Classifier.
// It allows custom behavior injection via WithJudgeFunc.
type MockClassifier struct {
	mu        sync.Mutex
	judgeFunc JudgeFunc
	calls     []core.DedupKey
}

// NewMockClassifier creates a mock classifier with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// WithJudgeFunc sets custom behavior for Judge.
func (m *MockClassifier) WithJudgeFunc(fn JudgeFunc) *MockClassifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.judgeFunc = fn
	return m
}

// Judge records the call and returns the injected verdict, or the keyword
// overlap fallback by default.
func (m *MockClassifier) Judge(ctx context.Context, fragment map[string]any, event string, platform core.Platform) (core.Verdict, error) {
	m.mu.Lock()
	id, _ := core.RecordID(platform, fragment)
	m.calls = append(m.calls, core.DedupKey{Platform: platform, ID: id})
	fn := m.judgeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, fragment, event, platform)
	}

	text, ok := ai.PrepareText(ai.AssembleText(platform, fragment))
	if !ok {
		return ai.TooShortVerdict(), nil
	}
	return ai.JudgeFallback(text, event), nil
}

// CallCount returns the number of times Judge was called.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns the dedup keys of the judged fragments in call order.
func (m *MockClassifier) Calls() []core.DedupKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.DedupKey(nil), m.calls...)
}

// Reset clears recorded calls and custom functions.
func (m *MockClassifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.judgeFunc = nil
}
