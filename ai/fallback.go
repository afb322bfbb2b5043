package ai

import (
	"fmt"
	"strings"

	"github.com/poiesic/eventsift/core"
)

const (
	// MinContentRunes is the shortest assembled text worth judging.
	MinContentRunes = 10
	// MaxContentRunes bounds the text sent to the model.
	MaxContentRunes = 1000
	// FallbackThreshold is the overlap score above which the fallback
	// marks content relevant.
	FallbackThreshold = 0.2

	ReasonTooShort = "content too short"
	ReasonMissing  = "no reason provided"
)

var punctuationReplacer = strings.NewReplacer("，", ",", "。", ".")

// AssembleText selects the fields of fragment that carry its text.
func AssembleText(platform core.Platform, fragment map[string]any) string {
	field := func(name string) string {
		return core.Stringify(fragment[name])
	}
	switch platform {
	case core.PlatformWeibo:
		if text := field("content"); text != "" {
			return text
		}
		return field("text")
	case core.PlatformBilibili:
		return field("title") + " " + field("desc")
	default:
		return field("title") + " " + field("content")
	}
}

// PrepareText applies the length guards to assembled text. It returns false
// when the text is too short to judge; otherwise it returns the text,
// truncated to MaxContentRunes with a trailing "..." when longer.
func PrepareText(text string) (string, bool) {
	if len([]rune(strings.TrimSpace(text))) < MinContentRunes {
		return "", false
	}
	runes := []rune(text)
	if len(runes) > MaxContentRunes {
		return string(runes[:MaxContentRunes]) + "...", true
	}
	return text, true
}

// TooShortVerdict is returned for fragments with too little text to judge.
func TooShortVerdict() core.Verdict {
	return core.Verdict{IsRelevant: false, Score: 0, Reason: ReasonTooShort}
}

// JudgeFallback scores content by the share of the event's distinct
// whitespace-separated tokens that also appear in content. It is pure.
func JudgeFallback(content, event string) core.Verdict {
	eventTokens := tokenSet(punctuationReplacer.Replace(event))
	contentTokens := tokenSet(content)

	matched := 0
	for token := range eventTokens {
		if _, ok := contentTokens[token]; ok {
			matched++
		}
	}

	score := 0.0
	if len(eventTokens) > 0 {
		score = float64(matched) / float64(len(eventTokens))
	}
	score = Clamp(score)

	return core.Verdict{
		IsRelevant: score > FallbackThreshold,
		Score:      score,
		Reason:     fmt.Sprintf("keyword overlap: %d/%d", matched, len(eventTokens)),
	}
}

// Clamp bounds a score to [0, 1].
func Clamp(score float64) float64 {
	switch {
	case score != score: // NaN
		return 0
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

// TokenizeKeywords splits description on whitespace and keeps the first max
// tokens. Used when no model credential is configured.
func TokenizeKeywords(description string, max int) []string {
	return limit(strings.Fields(description), max)
}

// SplitKeywords splits description on commas and periods, ASCII or
// full-width, and keeps the first max non-empty pieces.
func SplitKeywords(description string, max int) []string {
	normalized := punctuationReplacer.Replace(description)
	pieces := strings.FieldsFunc(normalized, func(r rune) bool {
		return r == ',' || r == '.'
	})
	keywords := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			keywords = append(keywords, p)
		}
	}
	return limit(keywords, max)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}

func limit(items []string, max int) []string {
	if items == nil {
		items = []string{}
	}
	if max > 0 && len(items) > max {
		return items[:max]
	}
	return items
}
