package pipeline

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports classification progress across concurrently
// running platform branches. A nil tracker is valid and reports nothing.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	done           int
	relevant       int
	reportInterval int
	lastReported   int
	startTime      time.Time
	now            func() time.Time
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker for total records that writes a
// status line every reportInterval records.
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
		now:            time.Now,
	}
}

// Start resets the counters and the rate clock.
func (p *ProgressTracker) Start() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = p.now()
	p.done = 0
	p.relevant = 0
	p.lastReported = 0
}

// Record counts one judged record.
func (p *ProgressTracker) Record(relevant bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done < p.total {
		p.done++
	}
	if relevant {
		p.relevant++
	}
	if p.done-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.done
	}
}

// Finish prints the final line. Records skipped by cancellation are not
// counted as done.
func (p *ProgressTracker) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.report()
	fmt.Fprintln(p.writer)
}

// Counts returns how many records were judged and how many were relevant.
func (p *ProgressTracker) Counts() (done, relevant int) {
	if p == nil {
		return 0, 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.relevant
}

// report must be called with the lock held.
func (p *ProgressTracker) report() {
	rate := 0.0
	if elapsed := p.now().Sub(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(p.done) / elapsed
	}

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rClassified: %d/%d (%.1f%%), %d relevant - %.1f records/s",
		p.done, p.total, percentage, p.relevant, rate)
}
