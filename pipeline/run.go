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
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/eventsift/core"
	"github.com/poiesic/eventsift/storage"
)

// Result describes a finished run.
type Result struct {
	RunID      string
	Event      string
	StartedAt  time.Time
	FinishedAt time.Time

	// Platforms holds per-platform loaded, relevant and failed counts.
	Platforms map[core.Platform]storage.PlatformCounts

	// Verdicts holds every verdict produced, in classify order per platform.
	Verdicts []storage.VerdictEntry

	// Output is the combined relevant sequence as persisted.
	Output []map[string]any

	DetailUpdated int

	// Snapshot is nil when nothing relevant was found or the write failed.
	Snapshot *storage.SnapshotInfo

	// Errors collects every recovered failure: unreadable files, records the
	// classifier failed on, branches that could not complete.
	Errors []error
}

// Relevant returns how many records were persisted.
func (r *Result) Relevant() int {
	return len(r.Output)
}

// Err joins the recovered failures of the run, or returns nil.
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// Run executes all five stages for event. The returned error is non-nil only
// when ctx is done or the snapshot could not be written; in both cases the
// partial result is still returned. Recovered failures are in Result.Errors.
func (p *Pipeline) Run(ctx context.Context, event string) (*Result, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return nil, ErrEventRequired
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Event:     event,
		StartedAt: p.now(),
	}
	logger := p.logger.With("run", result.RunID)
	state := newRunState(event, p.platforms)

	logger.Info("run started", "event", event, "platforms", len(p.platforms), "filter", p.filter)

	p.load(ctx, state, logger)
	if err := ctx.Err(); err != nil {
		return p.finish(result, state), err
	}

	p.classify(ctx, state, logger)
	if err := ctx.Err(); err != nil {
		return p.finish(result, state), err
	}

	result.DetailUpdated = p.enrich(ctx, state, logger)
	if err := ctx.Err(); err != nil {
		return p.finish(result, state), err
	}

	p.mergeComments(ctx, state, logger)
	if err := ctx.Err(); err != nil {
		return p.finish(result, state), err
	}

	persistErr := p.persist(ctx, result, state, logger)
	p.finish(result, state)
	p.recordRun(ctx, result, logger)

	logger.Info("run finished",
		"relevant", result.Relevant(),
		"detail_updated", result.DetailUpdated,
		"errors", len(result.Errors),
		"duration", result.FinishedAt.Sub(result.StartedAt))

	return result, persistErr
}

func (p *Pipeline) finish(result *Result, state *runState) *Result {
	result.FinishedAt = p.now()
	result.Platforms = make(map[core.Platform]storage.PlatformCounts, len(state.platforms))
	result.Verdicts = result.Verdicts[:0]
	for _, ps := range state.platforms {
		result.Platforms[ps.platform] = ps.counts()
		result.Verdicts = append(result.Verdicts, ps.judged...)
	}
	result.Errors = state.errors()
	return result
}

func (p *Pipeline) persist(ctx context.Context, result *Result, state *runState, logger *slog.Logger) error {
	result.Output = collect(state)
	if len(result.Output) == 0 {
		logger.Info("no relevant records, snapshot not written")
		return nil
	}

	info, err := p.writer.WriteSnapshot(ctx, result.Output, p.now())
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPersistFailed, err)
		logger.Error("snapshot write failed", "error", err)
		state.addError(err)
		return err
	}
	result.Snapshot = &info
	logger.Info("snapshot written", "path", info.Path, "records", info.Count)
	return nil
}

// collect builds the persisted sequence: platforms in fixed order, relevant
// ids in classify order, each dedup key at most once.
func collect(state *runState) []map[string]any {
	seen := make(map[core.DedupKey]struct{})
	output := make([]map[string]any, 0)
	for _, ps := range state.platforms {
		for _, id := range ps.relevant {
			key := core.DedupKey{Platform: ps.platform, ID: id}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			record, ok := ps.index[id]
			if !ok {
				continue
			}
			output = append(output, record.Output())
		}
	}
	return output
}

func (p *Pipeline) recordRun(ctx context.Context, result *Result, logger *slog.Logger) {
	if p.ledger == nil {
		return
	}

	summary := &storage.RunSummary{
		ID:            result.RunID,
		Event:         result.Event,
		StartedAt:     result.StartedAt,
		FinishedAt:    result.FinishedAt,
		FilterEnabled: p.filter,
		Platforms:     result.Platforms,
		Relevant:      result.Relevant(),
		DetailUpdated: result.DetailUpdated,
	}
	if result.Snapshot != nil {
		summary.Snapshot = result.Snapshot.Path
	}
	for _, err := range result.Errors {
		summary.Errors = append(summary.Errors, err.Error())
	}

	if err := p.ledger.RecordRun(ctx, summary, result.Verdicts); err != nil {
		logger.Warn("run not recorded in ledger", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
