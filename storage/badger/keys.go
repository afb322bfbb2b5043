package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/eventsift/core"
)

// Key prefixes for different data types
const (
	runPrefix     = "run:"
	runIDPrefix   = "runid:"
	verdictPrefix = "verd:"
	latestPrefix  = "evtlatest:"
)

// makeRunKey generates the primary key of a run.
// Format: prefix + startedAt (8 bytes) + id, so runs sort by start time.
func makeRunKey(startedAt time.Time, id string) []byte {
	buf := make([]byte, len(runPrefix)+8+len(id))
	offset := copy(buf, runPrefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(startedAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makeRunSeekEnd returns a key after every run key, for reverse iteration.
func makeRunSeekEnd() []byte {
	buf := make([]byte, len(runPrefix)+9)
	offset := copy(buf, runPrefix)
	for i := offset; i < len(buf); i++ {
		buf[i] = 0xFF
	}
	return buf
}

// makeRunIDKey generates the id index key of a run. Its value is the run key.
func makeRunIDKey(id string) []byte {
	return []byte(runIDPrefix + id)
}

// makePartialVerdictKey generates the prefix of every verdict in a run.
func makePartialVerdictKey(runID string) []byte {
	return []byte(verdictPrefix + runID + ":")
}

// makeVerdictKey generates a key for one record's verdict within a run.
// Format: prefix:runID:platform:recordID
func makeVerdictKey(runID string, key core.DedupKey) []byte {
	return append(makePartialVerdictKey(runID), key.String()...)
}

// makeLatestKey generates the key pointing at the most recent run of an event.
func makeLatestKey(event string) []byte {
	return []byte(fmt.Sprintf("%s%016x", latestPrefix, core.ContentHash(event)))
}
