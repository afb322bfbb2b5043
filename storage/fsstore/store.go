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

package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/eventsift/core"
	"github.com/poiesic/eventsift/storage"
)

const (
	jsonDir     = "json"
	csvDir      = "csv"
	relevantDir = "relevant"

	commentsPattern = "*comments_*"
)

// Store reads crawler output from a directory tree and writes relevant-record
// snapshots into the same tree:
//
//	<root>/<platform>/json/search_contents_*.json
//	<root>/<platform>/csv/search_contents_*.csv
//	<root>/<platform>/json/*comments_*.json
//	<root>/relevant/relevant_data_<timestamp>.json
type Store struct {
	root   string
	logger *slog.Logger
}

var (
	_ storage.RecordSource   = (*Store)(nil)
	_ storage.SnapshotWriter = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return ErrNilLogger
		}
		s.logger = logger
		return nil
	}
}

// New creates a store rooted at root. The directory need not exist yet.
func New(root string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrRootRequired
	}
	s := &Store{
		root:   root,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "fsstore")
	return s, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// OutputDir returns the directory snapshots are written to.
func (s *Store) OutputDir() string {
	return filepath.Join(s.root, relevantDir)
}

// LoadContents reads the platform's content files for stage. JSON files are
// read before CSV files; within each format files are read in name order.
func (s *Store) LoadContents(ctx context.Context, platform core.Platform, stage storage.Stage) ([]storage.Batch, error) {
	pattern, err := contentsPattern(stage)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, platform, pattern)
}

// LoadComments reads the platform's comment files.
func (s *Store) LoadComments(ctx context.Context, platform core.Platform) ([]storage.Batch, error) {
	return s.load(ctx, platform, commentsPattern)
}

func contentsPattern(stage storage.Stage) (string, error) {
	switch stage {
	case storage.StageSearch, storage.StageDetail:
		return string(stage) + "_contents_*", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStage, string(stage))
}

func (s *Store) load(ctx context.Context, platform core.Platform, pattern string) ([]storage.Batch, error) {
	if err := core.ValidatePlatform(platform); err != nil {
		return nil, err
	}

	var batches []storage.Batch
	var errs []error

	readers := []struct {
		dir  string
		ext  string
		read func(path string) ([]map[string]any, error)
	}{
		{jsonDir, ".json", readJSON},
		{csvDir, ".csv", readCSV},
	}

	for _, r := range readers {
		dir := filepath.Join(s.root, string(platform), r.dir)
		files, err := matchFiles(dir, pattern+r.ext)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", storage.ErrPlatformUnavailable, dir, err))
			continue
		}

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return batches, err
			}
			items, err := r.read(path)
			if err != nil {
				s.logger.Warn("skipping unreadable file", "path", path, "err", err)
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			s.logger.Debug("loaded file", "path", path, "items", len(items))
			batches = append(batches, storage.Batch{Source: path, Items: items})
		}
	}

	return batches, errors.Join(errs...)
}

// matchFiles lists the regular files in dir whose names match pattern, in
// name order. A missing directory yields no files.
func matchFiles(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}
