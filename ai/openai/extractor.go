// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/cache"
)

// KeywordExtractor implements ai.KeywordExtractor using an OpenAI-compatible chat API.
type KeywordExtractor struct {
	chat        *chatClient
	memo        *cache.Cache[[]string]
	ttl         time.Duration
	maxKeywords int
	logger      *slog.Logger
}

func newKeywordExtractor(chat *chatClient, memo *cache.Cache[[]string], ttl time.Duration, maxKeywords int, logger *slog.Logger) *KeywordExtractor {
	return &KeywordExtractor{
		chat:        chat,
		memo:        memo,
		ttl:         ttl,
		maxKeywords: maxKeywords,
		logger:      logger.With("component", "openai-keywords"),
	}
}

// ExtractKeywords returns up to max search keywords for description.
func (e *KeywordExtractor) ExtractKeywords(ctx context.Context, description string, max int) []string {
	if max <= 0 {
		max = e.maxKeywords
	}

	if e.chat == nil {
		return ai.TokenizeKeywords(description, max)
	}

	key := memoKey(description, strconv.Itoa(max))
	if e.memo != nil {
		if keywords, ok := e.memo.Get(key); ok {
			return slices.Clone(keywords)
		}
	}

	fields, err := e.chat.completeJSON(ctx, buildKeywordPrompt(description, max))
	if err != nil {
		e.logger.Warn("keyword extraction failed, splitting description", "err", err)
		return ai.SplitKeywords(description, max)
	}

	keywords := dedupe(ai.Strings(fields["keywords"]))
	if len(keywords) == 0 {
		e.logger.Warn("model returned no keywords, splitting description")
		return ai.SplitKeywords(description, max)
	}
	if len(keywords) > max {
		keywords = keywords[:max]
	}

	e.logger.Debug("extracted keywords", "count", len(keywords), "keywords", strings.Join(keywords, ","))
	if e.memo != nil && e.ttl > 0 {
		e.memo.Set(key, slices.Clone(keywords), e.ttl)
	}
	return keywords
}

func dedupe(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := keywords[:0]
	for _, k := range keywords {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
