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

package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/eventsift/core"
)

// CookiesEnv is the environment variable a CommandCrawler uses to hand the
// request's cookies to the crawler process.
const CookiesEnv = "CRAWLER_COOKIES"

// waitDelay bounds how long Crawl waits for output pipes after the process
// is killed.
const waitDelay = 5 * time.Second

// Crawler fetches platform content and stores it where a RecordSource can
// read it. Each call receives its complete configuration in req.
type Crawler interface {
	Crawl(ctx context.Context, req core.CrawlRequest) error
}

// PlatformCode returns the short platform name external crawlers expect.
func PlatformCode(p core.Platform) string {
	switch p {
	case core.PlatformWeibo:
		return "wb"
	case core.PlatformBilibili:
		return "bili"
	default:
		return string(p)
	}
}

// Args renders req as command-line flags.
func Args(req core.CrawlRequest) []string {
	args := []string{
		"--platform", PlatformCode(req.Platform),
		"--type", string(req.Mode),
	}
	if len(req.Keywords) > 0 {
		args = append(args, "--keywords", strings.Join(req.Keywords, ","))
	}
	if len(req.IDs) > 0 {
		args = append(args, "--ids", strings.Join(req.IDs, ","))
	}
	args = append(args,
		"--headless="+strconv.FormatBool(req.Headless),
		"--get-comments="+strconv.FormatBool(req.EnableComments),
	)
	return args
}

// CommandCrawler runs an external crawler executable once per request.
type CommandCrawler struct {
	command string
	args    []string
	env     []string
	dir     string
	logger  *slog.Logger
}

// CommandOption configures a CommandCrawler.
type CommandOption func(*CommandCrawler) error

// WithArgs sets arguments placed before the request flags.
func WithArgs(args ...string) CommandOption {
	return func(c *CommandCrawler) error {
		c.args = slices.Clone(args)
		return nil
	}
}

// WithEnv adds KEY=VALUE pairs to the crawler's environment.
func WithEnv(env ...string) CommandOption {
	return func(c *CommandCrawler) error {
		c.env = append(c.env, env...)
		return nil
	}
}

// WithDir sets the crawler's working directory.
func WithDir(dir string) CommandOption {
	return func(c *CommandCrawler) error {
		c.dir = dir
		return nil
	}
}

// WithCommandLogger sets a custom logger.
// Default is slog.Default().
func WithCommandLogger(logger *slog.Logger) CommandOption {
	return func(c *CommandCrawler) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCommandCrawler creates a crawler that executes command.
func NewCommandCrawler(command string, opts ...CommandOption) (*CommandCrawler, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, ErrCommandRequired
	}

	c := &CommandCrawler{
		command: command,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "command-crawler")
	return c, nil
}

// Crawl runs the crawler for req and waits for it to exit. Its output is
// forwarded to the logger line by line. The process is killed when ctx is done.
func (c *CommandCrawler) Crawl(ctx context.Context, req core.CrawlRequest) error {
	if err := core.ValidateCrawlRequest(req); err != nil {
		return err
	}

	args := append(slices.Clone(c.args), Args(req)...)
	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = c.dir
	cmd.WaitDelay = waitDelay
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Env = append(cmd.Env, CookiesEnv+"="+req.Cookies)

	logger := c.logger.With("platform", req.Platform, "mode", req.Mode)
	stdout := newLineLogger(logger, slog.LevelInfo)
	stderr := newLineLogger(logger, slog.LevelWarn)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Info("starting crawler", "keywords", len(req.Keywords), "ids", len(req.IDs))
	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s: %w", ErrCrawlFailed, req.Platform, ctxErr)
		}
		return fmt.Errorf("%w: %s: %w", ErrCrawlFailed, req.Platform, err)
	}
	logger.Info("crawler finished")
	return nil
}
