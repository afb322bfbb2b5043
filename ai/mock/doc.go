// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Classifier,
// ai.KeywordExtractor, and ai.Provider for use in unit tests. The mocks
// run without a model endpoint and behave deterministically.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	verdict, err := mockProvider.Classifier().Judge(ctx, item, "event", core.PlatformWeibo)
//
//	// Custom behavior injection
//	classifier := mock.NewMockClassifier().
//	    WithJudgeFunc(func(ctx context.Context, item map[string]any, event string, p core.Platform) (core.Verdict, error) {
//	        return core.Verdict{IsRelevant: true, Score: 1}, nil
//	    })
//
//	// Check call counts
//	count := classifier.CallCount()
//
// # Default Behavior
//
//   - MockClassifier: ai.JudgeFallback over the platform's assembled text
//   - MockKeywordExtractor: ai.TokenizeKeywords
//   - MockProvider: Aggregates both
//
// All mocks are safe for concurrent use.
package mock
