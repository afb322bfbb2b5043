package fsstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/eventsift/storage"
)

const (
	snapshotPrefix = "relevant_data_"
	latestName     = "relevant_data_latest.json"
	timestampFmt   = "20060102_150405"
)

// SnapshotName returns the file name of the snapshot taken at at.
func SnapshotName(at time.Time) string {
	return snapshotPrefix + at.Format(timestampFmt) + ".json"
}

// WriteSnapshot writes records to a timestamped file and replaces the
// latest file with identical content. Each file is written to a temporary
// name and renamed into place.
func (s *Store) WriteSnapshot(ctx context.Context, records []map[string]any, at time.Time) (storage.SnapshotInfo, error) {
	if err := ctx.Err(); err != nil {
		return storage.SnapshotInfo{}, err
	}
	if records == nil {
		records = []map[string]any{}
	}

	data, err := encodeRecords(records)
	if err != nil {
		return storage.SnapshotInfo{}, err
	}

	dir := s.OutputDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return storage.SnapshotInfo{}, fmt.Errorf("create output dir: %w", err)
	}

	info := storage.SnapshotInfo{
		Path:       filepath.Join(dir, SnapshotName(at)),
		LatestPath: filepath.Join(dir, latestName),
		Count:      len(records),
	}
	for _, path := range []string{info.Path, info.LatestPath} {
		if err := writeFileAtomic(path, data); err != nil {
			return storage.SnapshotInfo{}, err
		}
	}

	s.logger.Info("wrote snapshot", "path", info.Path, "records", info.Count)
	return info, nil
}

// encodeRecords renders records as an indented JSON array with non-ASCII
// text and HTML characters left unescaped.
func encodeRecords(records []map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
