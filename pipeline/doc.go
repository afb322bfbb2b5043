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

// Package pipeline turns crawled platform output into one relevance-filtered
// snapshot for an event.
//
// A run moves through five stages in order:
//
//   - Load: read search-stage content for each platform and deduplicate by
//     (platform, id), first seen wins.
//   - Classify: judge every loaded record against the event. Platforms run
//     concurrently on a worker pool; records within a platform run in load
//     order with a throttle between calls.
//   - Detail: re-fetch relevant weibo records in full-content form and
//     overwrite their text.
//   - Comments: attach stored comments to every loaded record.
//   - Persist: write the relevant records as a timestamped snapshot plus a
//     "latest" copy.
//
// Nothing short of cancellation aborts a run. Per-record and per-branch
// failures are logged and collected in Result.Errors.
//
// Example usage:
//
//	store, _ := fsstore.New("data")
//	p, err := pipeline.New(store, store, provider.Classifier(),
//		pipeline.WithThrottle(300*time.Millisecond),
//		pipeline.WithProgress(os.Stderr),
//	)
//	if err != nil {
//		return err
//	}
//	defer p.Release()
//
//	result, err := p.Run(ctx, "concert cancelled")
package pipeline
