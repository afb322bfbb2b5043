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

// Package eventsift wires the record store, run ledger, model provider,
// pipeline and crawl manager from one configuration.
package eventsift

import (
	"errors"
	"log/slog"
	"os"

	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/ai/openai"
	"github.com/poiesic/eventsift/config"
	"github.com/poiesic/eventsift/crawl"
	"github.com/poiesic/eventsift/pipeline"
	"github.com/poiesic/eventsift/storage"
	"github.com/poiesic/eventsift/storage/badger"
	"github.com/poiesic/eventsift/storage/fsstore"
)

// Workspace owns the long-lived resources behind pipeline and crawl runs.
type Workspace struct {
	cfg      config.File
	store    *fsstore.Store
	ledger   storage.RunLedger
	provider ai.Provider
	logger   *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	noLedger bool
	provider ai.Provider
	getenv   func(string) string
	logger   *slog.Logger
}

// WithoutLedger skips opening the run ledger.
func WithoutLedger() WorkspaceOption {
	return func(o *workspaceOptions) {
		o.noLedger = true
	}
}

// WithProvider uses provider instead of building one from the config.
// The workspace takes ownership and closes it.
func WithProvider(provider ai.Provider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = provider
	}
}

// WithEnv replaces os.Getenv for resolving model settings.
func WithEnv(getenv func(string) string) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.getenv = getenv
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(o *workspaceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open creates a workspace for cfg.
func Open(cfg config.File, opts ...WorkspaceOption) (*Workspace, error) {
	options := &workspaceOptions{
		getenv: os.Getenv,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := fsstore.New(cfg.DataDir, fsstore.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	var ledger storage.RunLedger
	if !options.noLedger {
		ledger, err = badger.OpenRunLedger(cfg.LedgerDir, false)
		if err != nil {
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(cfg.AIConfig(options.getenv), openai.WithLogger(options.logger))
		if err != nil {
			if ledger != nil {
				ledger.Close()
			}
			return nil, err
		}
	}

	return &Workspace{
		cfg:      cfg,
		store:    store,
		ledger:   ledger,
		provider: provider,
		logger:   options.logger,
	}, nil
}

// Close releases the provider and the ledger.
func (w *Workspace) Close() error {
	var errs []error
	if err := w.provider.Close(); err != nil {
		w.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if w.ledger != nil {
		if err := w.ledger.Close(); err != nil {
			w.logger.Error("error closing run ledger", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Config returns the normalized configuration the workspace was opened with.
func (w *Workspace) Config() config.File {
	return w.cfg
}

// Store returns the crawl output store rooted at the data directory.
func (w *Workspace) Store() *fsstore.Store {
	return w.store
}

// Provider returns the model provider backing classification and keyword extraction.
func (w *Workspace) Provider() ai.Provider {
	return w.provider
}

// Ledger returns the run ledger, or ErrLedgerDisabled.
func (w *Workspace) Ledger() (storage.RunLedger, error) {
	if w.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	return w.ledger, nil
}

// NewCrawler builds the configured command crawler.
func (w *Workspace) NewCrawler() (crawl.Crawler, error) {
	if w.cfg.Crawler.Command == "" {
		return nil, ErrCrawlerNotConfigured
	}
	return crawl.NewCommandCrawler(w.cfg.Crawler.Command,
		crawl.WithArgs(w.cfg.Crawler.Args...),
		crawl.WithCommandLogger(w.logger),
	)
}

// NewPipeline creates a pipeline configured from the workspace. When a
// crawler command is configured, relevant weibo records are re-fetched in
// detail mode. opts are applied after the configured defaults.
func (w *Workspace) NewPipeline(opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	base := []pipeline.Option{
		pipeline.WithLogger(w.logger),
		pipeline.WithThrottle(w.cfg.Throttle),
		pipeline.WithRelevanceFilter(w.cfg.EnableRelevanceFilter),
		pipeline.WithVerbose(w.cfg.VerboseRelevanceJudgment),
	}
	if w.ledger != nil {
		base = append(base, pipeline.WithLedger(w.ledger))
	}
	if w.cfg.Crawler.Command != "" {
		crawler, err := w.NewCrawler()
		if err != nil {
			return nil, err
		}
		fetcher, err := crawl.NewDetailFetcher(crawler, w.cfg.CookieMap())
		if err != nil {
			return nil, err
		}
		base = append(base, pipeline.WithDetailFetcher(fetcher))
	}
	return pipeline.New(w.store, w.store, w.provider.Classifier(), append(base, opts...)...)
}

// NewCrawlManager creates a crawl manager driving crawler. A nil crawler
// uses the configured command crawler.
func (w *Workspace) NewCrawlManager(crawler crawl.Crawler, opts ...crawl.Option) (*crawl.Manager, error) {
	if crawler == nil {
		var err error
		if crawler, err = w.NewCrawler(); err != nil {
			return nil, err
		}
	}
	base := []crawl.Option{
		crawl.WithLogger(w.logger),
		crawl.WithCookies(w.cfg.CookieMap()),
		crawl.WithHeadless(w.cfg.Crawler.Headless),
		crawl.WithComments(w.cfg.Crawler.EnableComments),
		crawl.WithMaxKeywords(w.cfg.MaxKeywordsPerEvent),
	}
	return crawl.NewManager(w.provider.KeywordExtractor(), crawler, append(base, opts...)...)
}
