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

package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/eventsift/storage"
)

// RunLedger implements storage.RunLedger for BadgerDB.
type RunLedger struct {
	backend     *Backend
	ownsBackend bool
}

var _ storage.RunLedger = (*RunLedger)(nil)

// NewRunLedger creates a ledger on an open backend. Closing the ledger does
// not close the backend.
func NewRunLedger(backend *Backend) *RunLedger {
	return &RunLedger{
		backend: backend,
	}
}

// OpenRunLedger opens a backend at path and returns a ledger that owns it.
//
// Returns storage.RunLedger interface to enforce abstraction.
func OpenRunLedger(path string, inMemory bool) (storage.RunLedger, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return &RunLedger{backend: backend, ownsBackend: true}, nil
}

// Close releases the backend if the ledger opened it.
func (r *RunLedger) Close() error {
	if r.ownsBackend && !r.backend.IsClosed() {
		return r.backend.Close()
	}
	return nil
}

// RecordRun stores the run, its verdicts, and marks it as the event's latest run.
func (r *RunLedger) RecordRun(ctx context.Context, run *storage.RunSummary, verdicts []storage.VerdictEntry) error {
	if run == nil || run.ID == "" {
		return storage.ErrRunIDRequired
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	// Verdict lists can exceed a single transaction, so they go through a
	// write batch before the summary is committed.
	wb := r.backend.db.NewWriteBatch()
	for _, entry := range verdicts {
		if err := wb.Set(makeVerdictKey(run.ID, entry.Key()), storage.MarshalVerdictEntry(entry)); err != nil {
			wb.Cancel()
			return fmt.Errorf("write verdict %s: %w", entry.Key(), err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush verdicts: %w", err)
	}

	value := storage.MarshalRun(run)
	return r.backend.WithTransaction(ctx, func(ctx context.Context, tx *badger.Txn) error {
		runKey := makeRunKey(run.StartedAt, run.ID)
		if err := tx.Set(runKey, value); err != nil {
			return err
		}
		if err := tx.Set(makeRunIDKey(run.ID), runKey); err != nil {
			return err
		}
		return saveLatest(tx, run.Event, run.ID)
	})
}

// GetRun retrieves a run by id.
func (r *RunLedger) GetRun(ctx context.Context, id string) (*storage.RunSummary, error) {
	var run *storage.RunSummary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		run, err = readRunByID(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns up to limit runs, most recent first. A non-positive
// limit returns every run.
func (r *RunLedger) ListRuns(ctx context.Context, limit int) ([]*storage.RunSummary, error) {
	var results []*storage.RunSummary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent runs first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(runPrefix)
		for iter.Seek(makeRunSeekEnd()); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}

			var run *storage.RunSummary
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				run, err = storage.UnmarshalRun(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, run)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// RunVerdicts returns the verdicts recorded for a run.
func (r *RunLedger) RunVerdicts(ctx context.Context, id string) ([]storage.VerdictEntry, error) {
	var entries []storage.VerdictEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialVerdictKey(id)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry storage.VerdictEntry
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalVerdictEntry(val)
				return err
			}); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func readRunByID(tx *badger.Txn, id string) (*storage.RunSummary, error) {
	item, err := tx.Get(makeRunIDKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	runKey, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	item, err = tx.Get(runKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var run *storage.RunSummary
	err = item.Value(func(val []byte) error {
		var err error
		run, err = storage.UnmarshalRun(val)
		return err
	})
	return run, err
}
