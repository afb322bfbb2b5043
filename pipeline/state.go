package pipeline

import (
	"sync"

	"github.com/poiesic/eventsift/core"
	"github.com/poiesic/eventsift/storage"
)

// platformState is the in-memory view of one platform during a run. Only the
// platform's own branch writes to it while classification is in flight.
type platformState struct {
	platform core.Platform
	order    []*core.Record
	index    map[string]*core.Record
	relevant []string
	judged   []storage.VerdictEntry
	failed   int
}

func newPlatformState(platform core.Platform) *platformState {
	return &platformState{
		platform: platform,
		index:    make(map[string]*core.Record),
	}
}

// add stores record unless its id was already seen. Reports whether it was added.
func (s *platformState) add(record *core.Record) bool {
	if _, ok := s.index[record.ID]; ok {
		return false
	}
	s.index[record.ID] = record
	s.order = append(s.order, record)
	return true
}

func (s *platformState) counts() storage.PlatformCounts {
	return storage.PlatformCounts{
		Loaded:   len(s.order),
		Relevant: len(s.relevant),
		Failed:   s.failed,
	}
}

// runState holds everything one Run accumulates.
type runState struct {
	event     string
	platforms []*platformState

	mu   sync.Mutex
	errs []error
}

func newRunState(event string, platforms []core.Platform) *runState {
	r := &runState{event: event}
	for _, platform := range platforms {
		r.platforms = append(r.platforms, newPlatformState(platform))
	}
	return r
}

func (r *runState) addError(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *runState) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *runState) state(platform core.Platform) *platformState {
	for _, s := range r.platforms {
		if s.platform == platform {
			return s
		}
	}
	return nil
}

func (r *runState) loaded() int {
	total := 0
	for _, s := range r.platforms {
		total += len(s.order)
	}
	return total
}
