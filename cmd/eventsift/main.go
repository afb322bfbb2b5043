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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
)

// eventEnv supplies --event when the flag is omitted.
const eventEnv = "EVENT_DESCRIPTION"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func eventFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "event",
		Aliases:  []string{"e"},
		Usage:    "Description of the event to collect content for",
		EnvVars:  []string{eventEnv},
		Required: true,
	}
}

func platformFlag(usage string) *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   usage,
	}
}

func dataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "data-dir",
		Usage: "Directory holding crawler output (overrides data_dir)",
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "eventsift",
		Usage: "Collect and relevance-filter social media content about an event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default $EVENTSIFT_CONFIG)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "process",
				Usage:  "Classify crawled content and write the relevant snapshot",
				Action: processCommand,
				Flags: []cli.Flag{
					eventFlag(),
					dataDirFlag(),
					platformFlag("Only process these platforms (weibo, bilibili, zhihu)"),
					&cli.BoolFlag{
						Name:  "no-filter",
						Usage: "Keep every record regardless of relevance",
					},
					&cli.BoolFlag{
						Name:  "no-ledger",
						Usage: "Do not record the run in the ledger",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report classification progress on stderr",
					},
				},
			},
			{
				Name:   "crawl",
				Usage:  "Extract keywords for an event and run the crawler on each platform",
				Action: crawlCommand,
				Flags: []cli.Flag{
					eventFlag(),
					platformFlag("Only crawl these platforms (weibo, bilibili, zhihu)"),
					&cli.IntFlag{
						Name:  "retries",
						Usage: "Attempts per platform before giving up",
						Value: 1,
					},
				},
			},
			{
				Name:   "keywords",
				Usage:  "Print the search keywords extracted for an event",
				Action: keywordsCommand,
				Flags: []cli.Flag{
					eventFlag(),
					&cli.IntFlag{
						Name:  "max",
						Usage: "Maximum number of keywords (default max_keywords_per_event)",
					},
				},
			},
			{
				Name:   "judge",
				Usage:  "Judge one piece of text against an event and print the verdict as JSON",
				Action: judgeCommand,
				Flags: []cli.Flag{
					eventFlag(),
					&cli.StringFlag{
						Name:     "platform",
						Aliases:  []string{"p"},
						Usage:    "Platform the text comes from",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "text",
						Aliases:  []string{"t"},
						Usage:    "Text to judge",
						Required: true,
					},
				},
			},
			{
				Name:   "history",
				Usage:  "List recorded pipeline runs",
				Action: historyCommand,
				Flags: []cli.Flag{
					dataDirFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "event",
						Usage: "Only show the latest run for this event",
					},
					&cli.StringFlag{
						Name:  "run",
						Usage: "Show the verdicts of one run",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
