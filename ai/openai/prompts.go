package openai

import (
	"fmt"

	"github.com/poiesic/eventsift/core"
)

const systemPrompt = "You are a professional information retrieval and analysis assistant."

const keywordPromptTemplate = `You are an information retrieval expert. Extract the %d most effective search keywords from the trending event description below. The keywords must help find content about this event on social platforms.

Event description:
%s

Requirements:
1. Keywords are short and precise, suitable for searching Weibo, Bilibili and Zhihu.
2. Cover the core elements of the event: people, places, time, type of event.
3. Each keyword is 2 to 10 characters long.
4. Prefer keywords that distinguish this event from others.
5. Use the language of the event description.

Return JSON in exactly this format:
{
    "keywords": ["keyword1", "keyword2", "keyword3"]
}

Return only the JSON, with no other text.`

const relevancePromptTemplate = `You are a content relevance expert. Decide whether the social media content below is related to the given event.

Event description:
%s

Content (from %s):
%s

Requirements:
1. Decide whether the content is directly related, indirectly related, or unrelated to the event.
2. Give a relevance score from 0 to 1; 0.5 or higher counts as related.
3. Briefly explain the decision.

Return JSON in exactly this format:
{
    "is_relevant": true,
    "score": 0.0,
    "reason": "explanation"
}

Return only the JSON, with no other text.`

func buildKeywordPrompt(description string, max int) string {
	return fmt.Sprintf(keywordPromptTemplate, max, description)
}

func buildRelevancePrompt(event string, platform core.Platform, text string) string {
	return fmt.Sprintf(relevancePromptTemplate, event, platform, text)
}
