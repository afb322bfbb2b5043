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

package storage

import "fmt"

// MarshalRun serializes a RunSummary to bytes.
func MarshalRun(run *RunSummary) []byte {
	buf := make([]byte, RunSummaryMUS.Size(*run))
	RunSummaryMUS.Marshal(*run, buf)
	return buf
}

// UnmarshalRun deserializes a RunSummary from bytes.
func UnmarshalRun(data []byte) (*RunSummary, error) {
	run, _, err := RunSummaryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &run, nil
}

// MarshalVerdictEntry serializes a VerdictEntry to bytes.
func MarshalVerdictEntry(entry VerdictEntry) []byte {
	buf := make([]byte, VerdictEntryMUS.Size(entry))
	VerdictEntryMUS.Marshal(entry, buf)
	return buf
}

// UnmarshalVerdictEntry deserializes a VerdictEntry from bytes.
func UnmarshalVerdictEntry(data []byte) (VerdictEntry, error) {
	entry, _, err := VerdictEntryMUS.Unmarshal(data)
	if err != nil {
		return VerdictEntry{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return entry, nil
}
