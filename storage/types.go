package storage

import (
	"time"

	"github.com/poiesic/eventsift/core"
)

// PlatformCounts summarizes one platform's branch of a run.
type PlatformCounts struct {
	Loaded   int `json:"loaded"`
	Relevant int `json:"relevant"`
	Failed   int `json:"failed"`
}

// RunSummary is the ledger entry for one pipeline run.
type RunSummary struct {
	ID            string                           `json:"id"`
	Event         string                           `json:"event"`
	StartedAt     time.Time                        `json:"started_at"`
	FinishedAt    time.Time                        `json:"finished_at"`
	FilterEnabled bool                             `json:"filter_enabled"`
	Platforms     map[core.Platform]PlatformCounts `json:"platforms"`
	Relevant      int                              `json:"relevant"`
	DetailUpdated int                              `json:"detail_updated"`
	Snapshot      string                           `json:"snapshot,omitempty"`
	Errors        []string                         `json:"errors,omitempty"`
}

// VerdictEntry is one record's verdict within a run.
type VerdictEntry struct {
	Platform    core.Platform `json:"platform"`
	ID          string        `json:"id"`
	ContentHash uint64        `json:"content_hash"`
	Verdict     core.Verdict  `json:"verdict"`
}

// Key returns the entry's dedup key.
func (e VerdictEntry) Key() core.DedupKey {
	return core.DedupKey{Platform: e.Platform, ID: e.ID}
}
