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

// Package storage defines the storage boundary of eventsift.
//
// Crawler output is owned by external collaborators; the pipeline reads it
// through RecordSource and writes its result through SnapshotWriter. Run
// history lives behind RunLedger.
//
//   - RecordSource: per-platform content and comment batches
//   - SnapshotWriter: timestamped and "latest" relevant-record files
//   - RunLedger: run summaries and per-record verdicts across invocations
//
// Implementations live in subpackages: storage/fsstore for the crawler's
// directory layout and storage/badger for the ledger.
//
// # Schema Normalization
//
// Stored JSON comes in several shapes (a bare array, a wrapper object
// holding the array, a single object). NormalizeItems is the one place
// those shapes are recognized; every reader calls it once per file and
// works with []map[string]any afterwards.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
