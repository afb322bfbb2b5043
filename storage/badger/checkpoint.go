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
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/eventsift/storage"
)

// saveLatest points the event's checkpoint at runID.
func saveLatest(tx *badger.Txn, event, runID string) error {
	return tx.Set(makeLatestKey(event), []byte(runID))
}

// LatestRun retrieves the most recent run recorded for event.
// Returns nil, nil if the event has no runs.
func (r *RunLedger) LatestRun(ctx context.Context, event string) (*storage.RunSummary, error) {
	var run *storage.RunSummary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeLatestKey(event))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		runID, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		run, err = readRunByID(tx, string(runID))
		return err
	}, false)

	return run, err
}
