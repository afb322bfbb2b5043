package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const event = "concert cancelled"

func newTestProvider(t *testing.T, model *fakeModel, opts ...ai.ConfigOption) *Provider {
	t.Helper()
	cfg := ai.NewConfig(append([]ai.ConfigOption{ai.WithAPIKey("test-key")}, opts...)...)
	p, err := newProvider(cfg, WithModel(model))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func weiboItem(content string) map[string]any {
	return map[string]any{"note_id": "1", "content": content}
}

func TestNewProvider(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewProvider(nil)
		assert.ErrorIs(t, err, ErrConfigRequired)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewProvider(ai.NewConfig(ai.WithModel("")))
		assert.ErrorIs(t, err, ai.ErrInvalidConfig)
	})

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewProvider(ai.NewConfig(), WithLogger(nil))
		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("builds real client", func(t *testing.T) {
		p, err := NewProvider(ai.NewConfig(ai.WithAPIKey("k"), ai.WithBaseURL("http://127.0.0.1:1/v1")))
		require.NoError(t, err)
		assert.NotNil(t, p.Classifier())
		assert.NotNil(t, p.KeywordExtractor())
		assert.NoError(t, p.Close())
	})
}

func TestProvider_NoCredentialUsesFallbacks(t *testing.T) {
	model := &fakeModel{reply: replyWith(`{"is_relevant": true, "score": 1, "reason": "model"}`)}
	p, err := newProvider(ai.NewConfig(), WithModel(model))
	require.NoError(t, err)
	defer p.Close()

	verdict, err := p.Classifier().Judge(context.Background(), weiboItem("tonight the concert cancelled again"), event, core.PlatformWeibo)
	require.NoError(t, err)
	assert.Equal(t, ai.JudgeFallback("tonight the concert cancelled again", event), verdict)

	keywords := p.KeywordExtractor().ExtractKeywords(context.Background(), "a b c d e f g", 3)
	assert.Equal(t, []string{"a", "b", "c"}, keywords)

	assert.Equal(t, 0, model.calls(), "no network call without a credential")
}

func TestClassifier_ModelVerdict(t *testing.T) {
	model := &fakeModel{reply: replyWith("```json\n{\"is_relevant\": true, \"score\": 0.1, \"reason\": \"mentions the show\"}\n```")}
	p := newTestProvider(t, model)

	verdict, err := p.Classifier().Judge(context.Background(), weiboItem("the show tonight will not happen"), event, core.PlatformWeibo)
	require.NoError(t, err)

	// The model's boolean stands even with a low score.
	assert.True(t, verdict.IsRelevant)
	assert.Equal(t, 0.1, verdict.Score)
	assert.Equal(t, "mentions the show", verdict.Reason)

	require.Equal(t, 1, model.calls())
	assert.Contains(t, model.lastPrompt(), event)
	assert.Contains(t, model.lastPrompt(), "the show tonight will not happen")
	assert.Contains(t, model.lastPrompt(), "weibo")
	assert.Equal(t, []string{systemPrompt}, model.system)
}

func TestClassifier_ReplyNormalization(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  core.Verdict
	}{
		{"score clamped high", `{"is_relevant": true, "score": 1.7, "reason": "r"}`, core.Verdict{IsRelevant: true, Score: 1, Reason: "r"}},
		{"score clamped low", `{"is_relevant": false, "score": -2, "reason": "r"}`, core.Verdict{Score: 0, Reason: "r"}},
		{"missing reason", `{"is_relevant": true, "score": 0.8}`, core.Verdict{IsRelevant: true, Score: 0.8, Reason: ai.ReasonMissing}},
		{"missing is_relevant", `{"score": 0.9, "reason": "r"}`, core.Verdict{Score: 0.9, Reason: "r"}},
		{"string fields", `{"is_relevant": "true", "score": "0.6", "reason": "r"}`, core.Verdict{IsRelevant: true, Score: 0.6, Reason: "r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, &fakeModel{reply: replyWith(tt.reply)})
			verdict, err := p.Classifier().Judge(context.Background(), weiboItem("some sufficiently long content"), event, core.PlatformWeibo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict)
		})
	}
}

func TestClassifier_TooShortSkipsModel(t *testing.T) {
	model := &fakeModel{reply: replyWith(`{"is_relevant": true, "score": 1, "reason": "x"}`)}
	p := newTestProvider(t, model)

	for _, item := range []map[string]any{{}, weiboItem("short"), weiboItem("         ")} {
		verdict, err := p.Classifier().Judge(context.Background(), item, event, core.PlatformWeibo)
		require.NoError(t, err)
		assert.Equal(t, ai.TooShortVerdict(), verdict)
	}
	assert.Equal(t, 0, model.calls())
}

func TestClassifier_TruncatesLongText(t *testing.T) {
	model := &fakeModel{reply: replyWith(`{"is_relevant": false, "score": 0, "reason": "x"}`)}
	p := newTestProvider(t, model)

	long := strings.Repeat("x", ai.MaxContentRunes) + "TAIL"
	_, err := p.Classifier().Judge(context.Background(), weiboItem(long), event, core.PlatformWeibo)
	require.NoError(t, err)

	assert.Contains(t, model.lastPrompt(), strings.Repeat("x", ai.MaxContentRunes)+"...")
	assert.NotContains(t, model.lastPrompt(), "TAIL")
}

func TestClassifier_NetworkErrorFallsBack(t *testing.T) {
	model := &fakeModel{reply: func(string) (string, error) {
		return "", errors.New("connection refused")
	}}
	p := newTestProvider(t, model)

	content := "concert cancelled at the stadium"
	verdict, err := p.Classifier().Judge(context.Background(), weiboItem(content), event, core.PlatformWeibo)
	require.NoError(t, err)
	assert.Equal(t, ai.JudgeFallback(content, event), verdict)
	assert.Equal(t, 1, model.calls())
}

func TestClassifier_UnparseableReplyFallsBack(t *testing.T) {
	model := &fakeModel{reply: replyWith("I think it is relevant.")}
	p := newTestProvider(t, model)

	content := "nothing in common with anything"
	verdict, err := p.Classifier().Judge(context.Background(), weiboItem(content), event, core.PlatformWeibo)
	require.NoError(t, err)
	assert.Equal(t, ai.JudgeFallback(content, event), verdict)
	assert.Equal(t, 1, model.calls(), "a malformed reply is not requested again")
}

func TestKeywordExtractor_UnparseableReplySingleCall(t *testing.T) {
	model := &fakeModel{reply: replyWith("no json here")}
	p := newTestProvider(t, model)

	got := p.KeywordExtractor().ExtractKeywords(context.Background(), "演唱会取消，退票", 5)
	assert.Equal(t, []string{"演唱会取消", "退票"}, got)
	assert.Equal(t, 1, model.calls(), "a malformed reply is not requested again")
}

func TestClassifier_ProseWrappedReplyFallsBack(t *testing.T) {
	model := &fakeModel{reply: replyWith(`Sure. {"is_relevant": true, "score": 1, "reason": "model"} Hope that helps.`)}
	p := newTestProvider(t, model)

	content := "weather report for the weekend"
	verdict, err := p.Classifier().Judge(context.Background(), weiboItem(content), event, core.PlatformWeibo)
	require.NoError(t, err)
	assert.Equal(t, ai.JudgeFallback(content, event), verdict)
}

func TestClassifier_MemoizesVerdicts(t *testing.T) {
	model := &fakeModel{reply: replyWith(`{"is_relevant": true, "score": 0.9, "reason": "r"}`)}
	p := newTestProvider(t, model)
	c := p.Classifier()
	ctx := context.Background()

	first, err := c.Judge(ctx, weiboItem("identical content for both calls"), event, core.PlatformWeibo)
	require.NoError(t, err)
	second, err := c.Judge(ctx, weiboItem("identical content for both calls"), event, core.PlatformWeibo)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, model.calls())

	// A different event or platform is a different judgment.
	_, _ = c.Judge(ctx, weiboItem("identical content for both calls"), "another event", core.PlatformWeibo)
	_, _ = c.Judge(ctx, map[string]any{"title": "identical content for both calls"}, event, core.PlatformZhihu)
	assert.Equal(t, 3, model.calls())
}

func TestClassifier_MemoizationDisabled(t *testing.T) {
	model := &fakeModel{reply: replyWith(`{"is_relevant": true, "score": 0.9, "reason": "r"}`)}
	p := newTestProvider(t, model, ai.WithCacheTTL(0))

	for range 2 {
		_, err := p.Classifier().Judge(context.Background(), weiboItem("identical content for both calls"), event, core.PlatformWeibo)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, model.calls())
}

func TestClassifier_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	model := &fakeModel{reply: func(string) (string, error) {
		return "", errors.New("503 service unavailable")
	}}
	p := newTestProvider(t, model)

	for i := range breakerTripAfter + 3 {
		content := fmt.Sprintf("distinct content number %d", i)
		verdict, err := p.Classifier().Judge(context.Background(), weiboItem(content), event, core.PlatformWeibo)
		require.NoError(t, err)
		assert.Equal(t, ai.JudgeFallback(content, event), verdict)
	}
	assert.Equal(t, breakerTripAfter, model.calls(), "open breaker short-circuits further calls")
}

func TestClassifier_CancelledContext(t *testing.T) {
	model := &fakeModel{reply: func(string) (string, error) {
		return "", context.Canceled
	}}
	p := newTestProvider(t, model)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	content := "concert cancelled by the organizers"
	verdict, err := p.Classifier().Judge(ctx, weiboItem(content), event, core.PlatformWeibo)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ai.JudgeFallback(content, event), verdict, "verdict is populated even on cancellation")
}

func TestKeywordExtractor_ModelKeywords(t *testing.T) {
	model := &fakeModel{reply: replyWith("```json\n{\"keywords\": [\"演唱会\", \"取消\", \"演唱会\", \"退票\", \"场馆\"]}\n```")}
	p := newTestProvider(t, model)

	keywords := p.KeywordExtractor().ExtractKeywords(context.Background(), "演唱会取消", 3)
	assert.Equal(t, []string{"演唱会", "取消", "退票"}, keywords)
	assert.Contains(t, model.lastPrompt(), "演唱会取消")
	assert.Contains(t, model.lastPrompt(), "3 most effective")
}

func TestKeywordExtractor_DefaultMax(t *testing.T) {
	model := &fakeModel{reply: replyWith(`{"keywords": ["a", "b", "c", "d"]}`)}
	p := newTestProvider(t, model, ai.WithMaxKeywords(2))

	assert.Equal(t, []string{"a", "b"}, p.KeywordExtractor().ExtractKeywords(context.Background(), "event", 0))
}

func TestKeywordExtractor_Fallbacks(t *testing.T) {
	description := "演唱会取消，退票。场馆"
	want := []string{"演唱会取消", "退票", "场馆"}

	tests := []struct {
		name  string
		reply func(string) (string, error)
	}{
		{"network error", func(string) (string, error) { return "", errors.New("timeout") }},
		{"unparseable", replyWith("keywords: none")},
		{"empty keywords", replyWith(`{"keywords": []}`)},
		{"wrong shape", replyWith(`{"keywords": "a,b"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, &fakeModel{reply: tt.reply})
			got := p.KeywordExtractor().ExtractKeywords(context.Background(), description, 5)
			assert.Equal(t, want, got)
		})
	}
}

func TestKeywordExtractor_Memoizes(t *testing.T) {
	model := &fakeModel{reply: replyWith(`{"keywords": ["a", "b"]}`)}
	p := newTestProvider(t, model)
	e := p.KeywordExtractor()

	first := e.ExtractKeywords(context.Background(), "event", 5)
	first[0] = "mutated"
	second := e.ExtractKeywords(context.Background(), "event", 5)

	assert.Equal(t, []string{"a", "b"}, second, "cached slice is not shared with callers")
	assert.Equal(t, 1, model.calls())
}
