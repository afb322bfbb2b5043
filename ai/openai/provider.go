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

	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/cache"
	"github.com/poiesic/eventsift/core"
	"github.com/tmc/langchaingo/llms"
)

// Provider implements ai.Provider using an OpenAI-compatible service.
// It owns the memoization caches of its services.
type Provider struct {
	config     *ai.Config
	classifier *Classifier
	extractor  *KeywordExtractor
	verdicts   *cache.Cache[core.Verdict]
	keywords   *cache.Cache[[]string]
	logger     *slog.Logger
}

// Option configures a Provider.
type Option func(*providerOptions) error

type providerOptions struct {
	logger *slog.Logger
	model  llms.Model
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *providerOptions) error {
		if logger == nil {
			return ErrNilLogger
		}
		o.logger = logger
		return nil
	}
}

// WithModel replaces the langchaingo client built from the config, for
// example to reuse a configured client. It is ignored when the config has no
// credential.
func WithModel(model llms.Model) Option {
	return func(o *providerOptions) error {
		o.model = model
		return nil
	}
}

// NewProvider creates a new AI provider backed by an OpenAI-compatible endpoint.
// The config is validated and normalized before use. A config without a
// credential yields a provider whose services always use their fallbacks.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config, opts ...Option) (ai.Provider, error) {
	return newProvider(config, opts...)
}

func newProvider(config *ai.Config, opts ...Option) (*Provider, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := &providerOptions{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	var chat *chatClient
	if config.HasCredential() {
		model := o.model
		if model == nil {
			var err error
			if model, err = newModel(config); err != nil {
				return nil, err
			}
		}
		chat = newChatClient(model, config, o.logger)
	} else {
		o.logger.Info("no model credential configured, using deterministic fallbacks")
	}

	p := &Provider{
		config:   config,
		verdicts: cache.New[core.Verdict](cache.WithLogger(o.logger)),
		keywords: cache.New[[]string](cache.WithLogger(o.logger)),
		logger:   o.logger.With("component", "openai-provider"),
	}
	if err := p.verdicts.Start(context.Background()); err != nil {
		return nil, err
	}
	if err := p.keywords.Start(context.Background()); err != nil {
		p.verdicts.Stop()
		return nil, err
	}
	p.classifier = newClassifier(chat, p.verdicts, config.CacheTTL, o.logger)
	p.extractor = newKeywordExtractor(chat, p.keywords, config.CacheTTL, config.MaxKeywords, o.logger)
	return p, nil
}

// Classifier returns the relevance classifier.
func (p *Provider) Classifier() ai.Classifier {
	return p.classifier
}

// KeywordExtractor returns the keyword extractor.
func (p *Provider) KeywordExtractor() ai.KeywordExtractor {
	return p.extractor
}

// Close stops the memoization caches' background sweeps.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	p.verdicts.Stop()
	p.keywords.Stop()
	return nil
}
