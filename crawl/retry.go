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

package crawl

import (
	"context"
	"time"
)

// backoff re-runs a failed platform crawl. The wait before each retry
// doubles, starting at delay.
type backoff struct {
	attempts int
	delay    time.Duration
}

// run calls crawl with the 1-based attempt number until it succeeds or
// attempts are used up, returning the last error. A done ctx stops it
// between attempts with ctx.Err().
func (b backoff) run(ctx context.Context, crawl func(attempt int) error) error {
	wait := b.delay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := crawl(attempt)
		if err == nil || attempt >= b.attempts {
			return err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}
