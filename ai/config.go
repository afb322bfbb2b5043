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

package ai

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 1000
	DefaultMaxKeywords = 5
	DefaultCacheTTL    = 10 * time.Minute
)

// Environment variables consulted by ResolveConfig, highest precedence first.
var (
	APIKeyEnv  = []string{"OPENAI_API_KEY", "LLM_API_KEY"}
	BaseURLEnv = []string{"LLM_BASE_URL", "OPENAI_BASE_URL"}
	ModelEnv   = []string{"LLM_MODEL", "OPENAI_MODEL"}
)

// Config holds configuration for the remote language model and the services
// built on it.
type Config struct {
	// APIKey is the bearer token for the model endpoint. An empty key is not an
	// error: every service degrades to its deterministic fallback.
	APIKey string

	// BaseURL is the OpenAI-compatible endpoint, e.g. "https://api.openai.com/v1".
	BaseURL string

	// Model is the chat model identifier.
	Model string

	// Timeout bounds a single model request.
	Timeout time.Duration

	// Temperature and MaxTokens are passed with every request.
	Temperature float64
	MaxTokens   int

	// MaxKeywords caps keyword extraction when the caller passes a non-positive max.
	MaxKeywords int

	// CacheTTL is how long verdicts and keyword lists are memoized.
	// Zero disables memoization.
	CacheTTL time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets the model endpoint.
func WithBaseURL(url string) ConfigOption {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithModel sets the chat model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithMaxKeywords sets the default keyword count.
func WithMaxKeywords(n int) ConfigOption {
	return func(c *Config) {
		c.MaxKeywords = n
	}
}

// WithCacheTTL sets how long results are memoized.
func WithCacheTTL(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.CacheTTL = d
	}
}

// DefaultConfig returns a Config with defaults for the public OpenAI endpoint
// and no credential.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Timeout:     DefaultTimeout,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		MaxKeywords: DefaultMaxKeywords,
		CacheTTL:    DefaultCacheTTL,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBaseURL("http://localhost:11434/v1"),
//	    WithModel("qwen2.5:7b"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ResolveConfig layers the sources of model settings. For each of the
// credential, endpoint and model, the explicit value wins, then the first
// non-empty environment variable in precedence order, then the default.
// Zero-valued numeric fields of explicit take their defaults.
// getenv is usually os.Getenv; a nil getenv skips the environment.
func ResolveConfig(explicit *Config, getenv func(string) string) *Config {
	cfg := DefaultConfig()
	if explicit != nil {
		merged := *explicit
		if merged.Timeout <= 0 {
			merged.Timeout = cfg.Timeout
		}
		if merged.Temperature == 0 {
			merged.Temperature = cfg.Temperature
		}
		if merged.MaxTokens <= 0 {
			merged.MaxTokens = cfg.MaxTokens
		}
		if merged.MaxKeywords <= 0 {
			merged.MaxKeywords = cfg.MaxKeywords
		}
		if merged.CacheTTL == 0 {
			merged.CacheTTL = cfg.CacheTTL
		}
		cfg = &merged
	}

	cfg.APIKey = firstNonEmpty(cfg.APIKey, lookup(getenv, APIKeyEnv), "")
	cfg.BaseURL = firstNonEmpty(explicitOr(explicit, func(c *Config) string { return c.BaseURL }),
		lookup(getenv, BaseURLEnv), DefaultBaseURL)
	cfg.Model = firstNonEmpty(explicitOr(explicit, func(c *Config) string { return c.Model }),
		lookup(getenv, ModelEnv), DefaultModel)
	cfg.Normalize()
	return cfg
}

// HasCredential reports whether remote calls should be attempted.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Normalize ensures the configuration is in a canonical form.
func (c *Config) Normalize() {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Model = strings.TrimSpace(c.Model)
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.BaseURL == "" {
		return fmt.Errorf("%w: BaseURL is required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: Model is required", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: Timeout must be positive", ErrInvalidConfig)
	}
	if c.MaxKeywords < 1 {
		return fmt.Errorf("%w: MaxKeywords must be at least 1", ErrInvalidConfig)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("%w: MaxTokens must be at least 1", ErrInvalidConfig)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: CacheTTL must not be negative", ErrInvalidConfig)
	}
	return nil
}

func explicitOr(explicit *Config, field func(*Config) string) string {
	if explicit == nil {
		return ""
	}
	return field(explicit)
}

func lookup(getenv func(string) string, names []string) string {
	if getenv == nil {
		return ""
	}
	for _, name := range names {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
