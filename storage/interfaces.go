package storage

import (
	"context"
	"time"

	"github.com/poiesic/eventsift/core"
)

// Stage selects which crawler output a content load reads.
type Stage string

const (
	// StageSearch is abbreviated search-result output ("search_contents_*").
	StageSearch Stage = "search"
	// StageDetail is full-content output from a detail re-fetch ("detail_contents_*").
	StageDetail Stage = "detail"
)

// Batch is the normalized contents of one stored file.
type Batch struct {
	// Source identifies the file, for logging.
	Source string
	Items  []map[string]any
}

// RecordSource reads crawler output persisted by an external collaborator.
// Implementations must be thread-safe and support concurrent access.
type RecordSource interface {
	// LoadContents returns the content batches of platform for stage, in a
	// deterministic order. Files that cannot be read or parsed are skipped;
	// their errors are joined into the returned error alongside the batches
	// that were read. A platform with no stored output yields no batches and
	// no error.
	LoadContents(ctx context.Context, platform core.Platform, stage Stage) ([]Batch, error)

	// LoadComments returns the comment batches of platform with the same
	// partial-failure semantics as LoadContents.
	LoadComments(ctx context.Context, platform core.Platform) ([]Batch, error)
}

// SnapshotInfo describes a written snapshot.
type SnapshotInfo struct {
	Path       string
	LatestPath string
	Count      int
}

// SnapshotWriter persists the consolidated relevant-record set.
type SnapshotWriter interface {
	// WriteSnapshot writes records as one snapshot named after at and replaces
	// the "latest" copy with the same content. Both writes replace whole files.
	WriteSnapshot(ctx context.Context, records []map[string]any, at time.Time) (SnapshotInfo, error)
}

// RunLedger records pipeline runs and their verdicts across invocations.
// Implementations must be thread-safe and support concurrent access.
type RunLedger interface {
	// RecordRun stores a finished run with its verdicts. run.ID must be set.
	RecordRun(ctx context.Context, run *RunSummary, verdicts []VerdictEntry) error

	// GetRun retrieves a run by id.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id string) (*RunSummary, error)

	// ListRuns returns up to limit runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]*RunSummary, error)

	// LatestRun returns the most recent run for event, or nil, nil if the
	// event has never been processed.
	LatestRun(ctx context.Context, event string) (*RunSummary, error)

	// RunVerdicts returns the verdicts recorded for a run, ordered by platform then id.
	RunVerdicts(ctx context.Context, id string) ([]VerdictEntry, error)

	// Close releases resources held by the ledger.
	Close() error
}
