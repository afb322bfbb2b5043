package openai

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an llms.Model returning canned replies.
type fakeModel struct {
	mu      sync.Mutex
	reply   func(prompt string) (string, error)
	prompts []string
	system  []string
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var prompt string
	m.mu.Lock()
	for _, msg := range messages {
		for _, part := range msg.Parts {
			text, ok := part.(llms.TextContent)
			if !ok {
				continue
			}
			switch msg.Role {
			case llms.ChatMessageTypeSystem:
				m.system = append(m.system, text.Text)
			case llms.ChatMessageTypeHuman:
				prompt = text.Text
			}
		}
	}
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	content, err := m.reply(prompt)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func (m *fakeModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *fakeModel) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func replyWith(s string) func(string) (string, error) {
	return func(string) (string, error) { return s, nil }
}
