package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/cache"
	"github.com/poiesic/eventsift/core"
)

// Classifier implements ai.Classifier using an OpenAI-compatible chat API.
// Without a chat client every judgment uses ai.JudgeFallback.
type Classifier struct {
	chat   *chatClient
	memo   *cache.Cache[core.Verdict]
	ttl    time.Duration
	logger *slog.Logger
}

func newClassifier(chat *chatClient, memo *cache.Cache[core.Verdict], ttl time.Duration, logger *slog.Logger) *Classifier {
	return &Classifier{
		chat:   chat,
		memo:   memo,
		ttl:    ttl,
		logger: logger.With("component", "openai-classifier"),
	}
}

// Judge returns the relevance verdict for fragment.
func (c *Classifier) Judge(ctx context.Context, fragment map[string]any, event string, platform core.Platform) (core.Verdict, error) {
	text, ok := ai.PrepareText(ai.AssembleText(platform, fragment))
	if !ok {
		return ai.TooShortVerdict(), nil
	}

	if c.chat == nil {
		return ai.JudgeFallback(text, event), nil
	}

	key := memoKey(event, string(platform), text)
	if verdict, ok := c.lookup(key); ok {
		return verdict, nil
	}

	fields, err := c.chat.completeJSON(ctx, buildRelevancePrompt(event, platform, text))
	if err != nil {
		c.logger.Warn("relevance judgment failed, using keyword overlap", "platform", platform, "err", err)
		verdict := ai.JudgeFallback(text, event)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return verdict, ctxErr
		}
		return verdict, nil
	}

	verdict := verdictFrom(fields)
	c.logger.Debug("relevance judgment",
		"platform", platform,
		"is_relevant", verdict.IsRelevant,
		"score", verdict.Score,
		"reason", verdict.Reason)
	c.store(key, verdict)
	return verdict, nil
}

func (c *Classifier) lookup(key string) (core.Verdict, bool) {
	if c.memo == nil {
		return core.Verdict{}, false
	}
	return c.memo.Get(key)
}

func (c *Classifier) store(key string, verdict core.Verdict) {
	if c.memo != nil && c.ttl > 0 {
		c.memo.Set(key, verdict, c.ttl)
	}
}

// verdictFrom reads a verdict out of a parsed model reply. The model's
// boolean is kept as given even when it disagrees with the score.
func verdictFrom(fields map[string]any) core.Verdict {
	isRelevant, _ := ai.Bool(fields["is_relevant"])
	score, _ := ai.Float(fields["score"])

	reason := ai.ReasonMissing
	if r, ok := fields["reason"].(string); ok && strings.TrimSpace(r) != "" {
		reason = r
	}

	return core.Verdict{
		IsRelevant: isRelevant,
		Score:      ai.Clamp(score),
		Reason:     reason,
	}
}

func memoKey(parts ...string) string {
	return fmt.Sprintf("%016x", core.ContentHash(strings.Join(parts, "\x00")))
}
