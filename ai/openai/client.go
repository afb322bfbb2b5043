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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/eventsift/ai"
	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// breakerTripAfter is the number of consecutive failed calls that opens the breaker.
	breakerTripAfter = 5
	// breakerCooldown is how long the breaker stays open before a trial call.
	breakerCooldown = 30 * time.Second
)

// chatClient sends single-prompt chat requests through a circuit breaker.
// It is shared by the classifier and the keyword extractor.
type chatClient struct {
	model       llms.Model
	breaker     *gobreaker.CircuitBreaker
	timeout     time.Duration
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

func newModel(config *ai.Config) (llms.Model, error) {
	return openai.New(
		openai.WithBaseURL(config.BaseURL),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
		openai.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	)
}

func newChatClient(model llms.Model, config *ai.Config, logger *slog.Logger) *chatClient {
	c := &chatClient{
		model:       model,
		timeout:     config.Timeout,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      logger.With("component", "openai-chat"),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not evidence the endpoint is unhealthy.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return c
}

// complete sends prompt with the system message and returns the first
// choice's text.
func (c *chatClient) complete(ctx context.Context, prompt string) (string, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		content := []llms.MessageContent{
			{
				Role:  llms.ChatMessageTypeSystem,
				Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
			},
			{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextPart(prompt)},
			},
		}
		response, err := c.model.GenerateContent(callCtx, content,
			llms.WithTemperature(c.temperature),
			llms.WithMaxTokens(c.maxTokens),
		)
		if err != nil {
			return "", err
		}
		if response == nil || len(response.Choices) < 1 || response.Choices[0] == nil {
			return "", ai.ErrEmptyResponse
		}
		return response.Choices[0].Content, nil
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return out.(string), nil
}

// completeJSON makes one model call and parses the reply. A reply no
// parse strategy accepts is an error; callers fall back rather than call again.
func (c *chatClient) completeJSON(ctx context.Context, prompt string) (map[string]any, error) {
	text, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := ai.ParseResponse(text)
	if !result.OK() {
		c.logger.Warn("error parsing model response", "response", text, "err", result.Err)
		return nil, result.Err
	}
	c.logger.Debug("parsed model response", "strategy", result.Strategy)
	return result.Value, nil
}
