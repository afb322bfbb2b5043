package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/core"
	"github.com/poiesic/eventsift/storage"
)

const progressInterval = 10

// load reads search-stage content for every platform. First seen wins.
func (p *Pipeline) load(ctx context.Context, state *runState, logger *slog.Logger) {
	for _, ps := range state.platforms {
		if ctx.Err() != nil {
			return
		}

		batches, err := p.source.LoadContents(ctx, ps.platform, storage.StageSearch)
		if err != nil && ctx.Err() == nil {
			logger.Warn("content partially unreadable", "platform", ps.platform, "error", err)
			state.addError(err)
		}

		duplicates, missing := 0, 0
		for _, batch := range batches {
			for _, item := range batch.Items {
				core.StringifyIDs(item)
				record, err := core.NewRecord(ps.platform, item)
				if err != nil {
					missing++
					logger.Debug("item skipped", "platform", ps.platform, "source", batch.Source, "error", err)
					continue
				}
				if !ps.add(record) {
					duplicates++
				}
			}
		}

		logger.Info("records loaded",
			"platform", ps.platform,
			"records", len(ps.order),
			"duplicates", duplicates,
			"missing_id", missing)
	}
}

// classify fans platforms out on the pool and waits for every branch.
func (p *Pipeline) classify(ctx context.Context, state *runState, logger *slog.Logger) {
	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, state.loaded(), progressInterval)
		tracker.Start()
		defer tracker.Finish()
	}

	var wg sync.WaitGroup
	for _, ps := range state.platforms {
		if len(ps.order) == 0 {
			continue
		}

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					branchErr := fmt.Errorf("%w: %s: %v", ErrBranchFailed, ps.platform, r)
					logger.Error("classification branch aborted", "platform", ps.platform, "error", branchErr)
					state.addError(branchErr)
				}
			}()
			p.classifyPlatform(ctx, state, ps, tracker, logger.With("platform", ps.platform))
		})
		if err != nil {
			wg.Done()
			branchErr := fmt.Errorf("%w: %s: %w", ErrBranchFailed, ps.platform, err)
			logger.Error("failed to submit classification branch", "platform", ps.platform, "error", err)
			state.addError(branchErr)
		}
	}
	wg.Wait()

	for _, ps := range state.platforms {
		logger.Info("classification complete",
			"platform", ps.platform,
			"relevant", len(ps.relevant),
			"loaded", len(ps.order),
			"failed", ps.failed)
	}
}

// classifyPlatform judges one platform's records in load order.
func (p *Pipeline) classifyPlatform(ctx context.Context, state *runState, ps *platformState, tracker *ProgressTracker, logger *slog.Logger) {
	for i, record := range ps.order {
		if i > 0 && p.throttle > 0 {
			if err := sleep(ctx, p.throttle); err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}

		verdict, err := p.judge(ctx, record, state.event)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			ps.failed++
			state.addError(fmt.Errorf("%w: %s: %w", ErrRecordFailed, record.Key(), err))
			logger.Warn("classification failed, record skipped", "id", record.ID, "error", err)
			tracker.Record(false)
			continue
		}

		record.Verdict = &verdict
		ps.judged = append(ps.judged, storage.VerdictEntry{
			Platform:    record.Platform,
			ID:          record.ID,
			ContentHash: core.ContentHash(ai.AssembleText(record.Platform, record.Payload)),
			Verdict:     verdict,
		})

		keep := verdict.IsRelevant || !p.filter
		if keep {
			ps.relevant = append(ps.relevant, record.ID)
			level := slog.LevelDebug
			if p.verbose {
				level = slog.LevelInfo
			}
			logger.Log(ctx, level, "record relevant", "id", record.ID, "score", verdict.Score, "reason", verdict.Reason)
		} else {
			logger.Debug("record not relevant", "id", record.ID, "score", verdict.Score)
		}
		tracker.Record(keep)
	}
}

// judge isolates a panicking classifier to the record that triggered it.
func (p *Pipeline) judge(ctx context.Context, record *core.Record, event string) (verdict core.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return p.classifier.Judge(ctx, record.Payload, event, record.Platform)
}

// enrich re-fetches relevant weibo records in detail mode and overwrites
// their content where the detail output differs. Returns the update count.
func (p *Pipeline) enrich(ctx context.Context, state *runState, logger *slog.Logger) int {
	ps := state.state(core.PlatformWeibo)
	if ps == nil || len(ps.relevant) == 0 {
		logger.Info("no relevant weibo records, detail stage skipped")
		return 0
	}
	if p.fetcher == nil {
		logger.Debug("no detail fetcher configured, detail stage skipped")
		return 0
	}

	req := core.CrawlRequest{
		Platform:       core.PlatformWeibo,
		Mode:           core.CrawlModeDetail,
		IDs:            slices.Clone(ps.relevant),
		Headless:       true,
		EnableComments: true,
	}
	logger.Info("fetching weibo detail", "records", len(req.IDs))
	if err := p.fetcher.FetchDetail(ctx, req); err != nil {
		if ctx.Err() == nil {
			logger.Warn("detail fetch failed, detail stage skipped", "error", err)
			state.addError(fmt.Errorf("detail fetch: %w", err))
		}
		return 0
	}

	batches, err := p.source.LoadContents(ctx, core.PlatformWeibo, storage.StageDetail)
	if err != nil && ctx.Err() == nil {
		logger.Warn("detail output partially unreadable", "error", err)
		state.addError(err)
	}
	if len(batches) == 0 {
		logger.Warn("no detail output found, detail stage skipped")
		return 0
	}

	updated := 0
	for _, batch := range batches {
		for _, item := range batch.Items {
			core.StringifyIDs(item)
			id, idErr := core.RecordID(core.PlatformWeibo, item)
			if idErr != nil {
				continue
			}
			content := core.Stringify(item["content"])
			if content == "" {
				continue
			}
			record, ok := ps.index[id]
			if !ok {
				continue
			}
			if core.Stringify(record.Payload["content"]) != content {
				record.Payload["content"] = content
				updated++
				logger.Debug("weibo content updated", "id", id)
			}
		}
	}

	logger.Info("detail stage complete", "updated", updated)
	return updated
}

// mergeComments attaches stored comments to every loaded record. Records
// without comments get an empty, non-nil list.
func (p *Pipeline) mergeComments(ctx context.Context, state *runState, logger *slog.Logger) {
	for _, ps := range state.platforms {
		if ctx.Err() != nil {
			return
		}

		batches, err := p.source.LoadComments(ctx, ps.platform)
		if err != nil && ctx.Err() == nil {
			logger.Warn("comments partially unreadable", "platform", ps.platform, "error", err)
			state.addError(err)
		}

		grouped := make(map[string][]map[string]any)
		total := 0
		for _, batch := range batches {
			for _, comment := range batch.Items {
				core.StringifyIDs(comment)
				id, idErr := core.CommentTargetID(ps.platform, comment)
				if idErr != nil {
					continue
				}
				grouped[id] = append(grouped[id], comment)
				total++
			}
		}

		withComments := 0
		for _, record := range ps.order {
			comments, ok := grouped[record.ID]
			if !ok {
				comments = []map[string]any{}
			} else {
				withComments++
			}
			record.Comments = comments
		}

		logger.Info("comments merged",
			"platform", ps.platform,
			"comments", total,
			"records_with_comments", withComments)
	}
}
