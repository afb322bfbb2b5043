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

// Package config loads eventsift settings from a YAML file.
//
// Values are layered lowest to highest: built-in defaults, the config file,
// environment variables for the model endpoint, then command-line flags
// applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/eventsift/ai"
	"github.com/poiesic/eventsift/core"
	"gopkg.in/yaml.v3"
)

// PathEnv names the config file when no path is given explicitly.
const PathEnv = "EVENTSIFT_CONFIG"

const (
	DefaultDataDir  = "data"
	DefaultThrottle = 300 * time.Millisecond
	ledgerDirName   = ".ledger"
)

// LLM configures the remote model endpoint. Empty fields fall back to
// environment variables, then to built-in defaults.
type LLM struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Cookies holds per-platform login cookies handed to the crawler.
type Cookies struct {
	Weibo    string `yaml:"weibo"`
	Bilibili string `yaml:"bilibili"`
	Zhihu    string `yaml:"zhihu"`
}

// Crawler configures the external crawler executable.
type Crawler struct {
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"`
	Headless       bool     `yaml:"headless"`
	EnableComments bool     `yaml:"enable_comments"`
	Cookies        Cookies  `yaml:"cookies"`
}

// File is the on-disk configuration.
type File struct {
	LLM                      LLM           `yaml:"llm"`
	MaxKeywordsPerEvent      int           `yaml:"max_keywords_per_event"`
	EnableRelevanceFilter    bool          `yaml:"enable_relevance_filter"`
	VerboseRelevanceJudgment bool          `yaml:"verbose_relevance_judgment"`
	DataDir                  string        `yaml:"data_dir"`
	LedgerDir                string        `yaml:"ledger_dir"`
	Throttle                 time.Duration `yaml:"throttle"`
	Crawler                  Crawler       `yaml:"crawler"`
}

// Default returns the built-in configuration.
func Default() File {
	return File{
		MaxKeywordsPerEvent:      ai.DefaultMaxKeywords,
		EnableRelevanceFilter:    true,
		VerboseRelevanceJudgment: true,
		DataDir:                  DefaultDataDir,
		Throttle:                 DefaultThrottle,
		Crawler: Crawler{
			Headless:       true,
			EnableComments: true,
		},
	}
}

// ResolvePath returns path, or the value of PathEnv when path is blank.
func ResolvePath(path string, getenv func(string) string) string {
	if path = strings.TrimSpace(path); path != "" {
		return path
	}
	if getenv == nil {
		return ""
	}
	return strings.TrimSpace(getenv(PathEnv))
}

// Load reads the config file at path over the defaults. A blank path yields
// the defaults; a named file that does not exist is an error.
func Load(path string) (File, error) {
	cfg := Default()
	if path == "" {
		cfg.Normalize()
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := decode(bytes.NewReader(data), &cfg); err != nil {
		return File{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *File) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Normalize trims paths and fills derived defaults.
func (f *File) Normalize() {
	f.DataDir = strings.TrimSpace(f.DataDir)
	if f.DataDir == "" {
		f.DataDir = DefaultDataDir
	}
	f.LedgerDir = strings.TrimSpace(f.LedgerDir)
	if f.LedgerDir == "" {
		f.LedgerDir = filepath.Join(f.DataDir, ledgerDirName)
	}
	f.Crawler.Command = strings.TrimSpace(f.Crawler.Command)
}

// Validate checks value ranges.
func (f *File) Validate() error {
	var errs []error
	if f.MaxKeywordsPerEvent < 1 {
		errs = append(errs, fmt.Errorf("%w: max_keywords_per_event must be at least 1", ErrInvalidConfig))
	}
	if f.Throttle < 0 {
		errs = append(errs, fmt.Errorf("%w: throttle cannot be negative", ErrInvalidConfig))
	}
	if f.LLM.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: llm.timeout cannot be negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// AIConfig resolves the model configuration: file values first, then the
// environment through ai.ResolveConfig, then defaults.
func (f *File) AIConfig(getenv func(string) string) *ai.Config {
	explicit := &ai.Config{
		APIKey:      f.LLM.APIKey,
		BaseURL:     f.LLM.BaseURL,
		Model:       f.LLM.Model,
		Timeout:     f.LLM.Timeout,
		MaxKeywords: f.MaxKeywordsPerEvent,
	}
	cfg := ai.ResolveConfig(explicit, getenv)
	cfg.Normalize()
	return cfg
}

// CookieMap returns the crawler cookies keyed by platform. Platforms without
// cookies are omitted.
func (f *File) CookieMap() map[core.Platform]string {
	cookies := make(map[core.Platform]string)
	for platform, value := range map[core.Platform]string{
		core.PlatformWeibo:    f.Crawler.Cookies.Weibo,
		core.PlatformBilibili: f.Crawler.Cookies.Bilibili,
		core.PlatformZhihu:    f.Crawler.Cookies.Zhihu,
	} {
		if value = strings.TrimSpace(value); value != "" {
			cookies[platform] = value
		}
	}
	return cookies
}
