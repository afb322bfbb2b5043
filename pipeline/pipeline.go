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

package pipeline

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/core"
	"github.com/poiesic/eventsift/storage"
)

// DefaultThrottle is the pause between consecutive classifier calls within
// one platform branch.
const DefaultThrottle = 300 * time.Millisecond

// DetailFetcher re-fetches records in full-content form. Implementations
// write their output where the pipeline's RecordSource reads detail-stage
// content.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, req core.CrawlRequest) error
}

// Pipeline orchestrates one relevance-filtering run per call to Run.
// A Pipeline may be reused for sequential runs; Release frees its worker pool.
type Pipeline struct {
	source     storage.RecordSource
	writer     storage.SnapshotWriter
	classifier ai.Classifier
	pool       *ants.Pool
	fetcher    DetailFetcher
	ledger     storage.RunLedger
	progress   io.Writer
	platforms  []core.Platform
	throttle   time.Duration
	filter     bool
	verbose    bool
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets how many platform branches classify concurrently.
// Default is one worker per platform.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithThrottle sets the pause between classifier calls. Zero disables it.
func WithThrottle(d time.Duration) Option {
	return func(p *Pipeline) error {
		if d < 0 {
			d = 0
		}
		p.throttle = d
		return nil
	}
}

// WithRelevanceFilter switches relevance filtering. When disabled every
// classified record is kept. Default is enabled.
func WithRelevanceFilter(enabled bool) Option {
	return func(p *Pipeline) error {
		p.filter = enabled
		return nil
	}
}

// WithVerbose logs the score and reason of each relevant record at Info
// instead of Debug.
func WithVerbose(verbose bool) Option {
	return func(p *Pipeline) error {
		p.verbose = verbose
		return nil
	}
}

// WithDetailFetcher enables the weibo detail re-fetch stage.
func WithDetailFetcher(fetcher DetailFetcher) Option {
	return func(p *Pipeline) error {
		p.fetcher = fetcher
		return nil
	}
}

// WithLedger records each finished run and its verdicts.
func WithLedger(ledger storage.RunLedger) Option {
	return func(p *Pipeline) error {
		p.ledger = ledger
		return nil
	}
}

// WithProgress writes classification progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithPlatforms restricts a run to the given platforms. Persist order stays
// the fixed weibo, bilibili, zhihu order regardless of argument order.
func WithPlatforms(platforms ...core.Platform) Option {
	return func(p *Pipeline) error {
		for _, platform := range platforms {
			if err := core.ValidatePlatform(platform); err != nil {
				return err
			}
		}
		selected := make([]core.Platform, 0, len(platforms))
		for _, candidate := range core.AllPlatforms {
			if slices.Contains(platforms, candidate) {
				selected = append(selected, candidate)
			}
		}
		p.platforms = selected
		return nil
	}
}

// WithClock replaces time.Now for run timestamps and snapshot names.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now != nil {
			p.now = now
		}
		return nil
	}
}

// New creates a pipeline reading from source, judging with classifier and
// writing snapshots with writer.
func New(
	source storage.RecordSource,
	writer storage.SnapshotWriter,
	classifier ai.Classifier,
	opts ...Option,
) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}
	if classifier == nil {
		return nil, ErrClassifierRequired
	}

	pool, err := ants.NewPool(len(core.AllPlatforms))
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		source:     source,
		writer:     writer,
		classifier: classifier,
		pool:       pool,
		platforms:  slices.Clone(core.AllPlatforms),
		throttle:   DefaultThrottle,
		filter:     true,
		now:        time.Now,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "pipeline")

	return p, nil
}

// Release frees the worker pool. The pipeline must not be used afterwards.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
