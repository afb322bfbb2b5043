package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/poiesic/eventsift"
	"github.com/poiesic/eventsift/config"
	"github.com/poiesic/eventsift/core"
	"github.com/poiesic/eventsift/crawl"
	"github.com/poiesic/eventsift/pipeline"
	"github.com/poiesic/eventsift/storage"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the config file named by --config or $EVENTSIFT_CONFIG
// and applies command flags over it.
func loadConfig(c *cli.Context) (config.File, error) {
	cfg, err := config.Load(config.ResolvePath(c.String("config"), os.Getenv))
	if err != nil {
		return config.File{}, fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
		cfg.LedgerDir = ""
		cfg.Normalize()
	}
	if c.Bool("no-filter") {
		cfg.EnableRelevanceFilter = false
	}
	return cfg, nil
}

func openWorkspace(c *cli.Context, opts ...eventsift.WorkspaceOption) (*eventsift.Workspace, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	ws, err := eventsift.Open(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	return ws, nil
}

func parsePlatforms(names []string) ([]core.Platform, error) {
	platforms := make([]core.Platform, 0, len(names))
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			platform, err := core.ParsePlatform(part)
			if err != nil {
				return nil, err
			}
			platforms = append(platforms, platform)
		}
	}
	return platforms, nil
}

func processCommand(c *cli.Context) error {
	platforms, err := parsePlatforms(c.StringSlice("platform"))
	if err != nil {
		return err
	}

	var wsOpts []eventsift.WorkspaceOption
	if c.Bool("no-ledger") {
		wsOpts = append(wsOpts, eventsift.WithoutLedger())
	}
	ws, err := openWorkspace(c, wsOpts...)
	if err != nil {
		return err
	}
	defer ws.Close()

	var opts []pipeline.Option
	if len(platforms) > 0 {
		opts = append(opts, pipeline.WithPlatforms(platforms...))
	}
	if c.Bool("progress") {
		opts = append(opts, pipeline.WithProgress(c.App.ErrWriter))
	}
	p, err := ws.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Release()

	result, err := p.Run(c.Context, c.String("event"))
	if result != nil {
		printResult(c, result)
	}
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}
	return nil
}

func printResult(c *cli.Context, result *pipeline.Result) {
	w := c.App.Writer
	fmt.Fprintf(w, "Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Event: %s\n", result.Event)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tLOADED\tRELEVANT\tFAILED")
	for _, platform := range core.AllPlatforms {
		counts, ok := result.Platforms[platform]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", platform, counts.Loaded, counts.Relevant, counts.Failed)
	}
	tw.Flush()

	if result.DetailUpdated > 0 {
		fmt.Fprintf(w, "Detail updated: %d\n", result.DetailUpdated)
	}
	if result.Snapshot != nil {
		fmt.Fprintf(w, "Snapshot: %s (%d records)\n", result.Snapshot.Path, result.Snapshot.Count)
	} else {
		fmt.Fprintln(w, "Snapshot: none written")
	}
	for _, err := range result.Errors {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
	}
}

func crawlCommand(c *cli.Context) error {
	platforms, err := parsePlatforms(c.StringSlice("platform"))
	if err != nil {
		return err
	}

	ws, err := openWorkspace(c, eventsift.WithoutLedger())
	if err != nil {
		return err
	}
	defer ws.Close()

	opts := []crawl.Option{crawl.WithRetry(max(c.Int("retries"), 1), 5*time.Second)}
	if len(platforms) > 0 {
		opts = append(opts, crawl.WithPlatforms(platforms...))
	}
	m, err := ws.NewCrawlManager(nil, opts...)
	if err != nil {
		return fmt.Errorf("failed to create crawl manager: %w", err)
	}
	defer m.Release()

	report, err := m.Run(c.Context, c.String("event"))
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Keywords: %s\n", strings.Join(report.Keywords, ", "))
	for _, req := range report.Requests {
		status := "ok"
		if failure, failed := report.Failed[req.Platform]; failed {
			status = "failed: " + failure.Error()
		}
		fmt.Fprintf(w, "%s: %s\n", req.Platform, status)
	}
	if len(report.Failed) == len(report.Requests) {
		return fmt.Errorf("every platform failed: %w", report.Err())
	}
	return nil
}

func keywordsCommand(c *cli.Context) error {
	ws, err := openWorkspace(c, eventsift.WithoutLedger())
	if err != nil {
		return err
	}
	defer ws.Close()

	keywords := ws.Provider().KeywordExtractor().ExtractKeywords(c.Context, c.String("event"), c.Int("max"))
	for _, keyword := range keywords {
		fmt.Fprintln(c.App.Writer, keyword)
	}
	return nil
}

// fragmentFor places text in the fields the classifier reads for platform.
func fragmentFor(platform core.Platform, text string) map[string]any {
	switch platform {
	case core.PlatformBilibili:
		return map[string]any{"title": text, "desc": ""}
	case core.PlatformZhihu:
		return map[string]any{"title": "", "content": text}
	default:
		return map[string]any{"content": text}
	}
}

func judgeCommand(c *cli.Context) error {
	platform, err := core.ParsePlatform(c.String("platform"))
	if err != nil {
		return err
	}

	ws, err := openWorkspace(c, eventsift.WithoutLedger())
	if err != nil {
		return err
	}
	defer ws.Close()

	verdict, err := ws.Provider().Classifier().Judge(c.Context, fragmentFor(platform, c.String("text")), c.String("event"), platform)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(verdict)
}

func historyCommand(c *cli.Context) error {
	ws, err := openWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	ledger, err := ws.Ledger()
	if err != nil {
		return err
	}

	if id := c.String("run"); id != "" {
		return printVerdicts(c, ledger, id)
	}

	var runs []*storage.RunSummary
	if event := c.String("event"); event != "" {
		run, err := ledger.LatestRun(c.Context, event)
		if err != nil {
			return err
		}
		if run != nil {
			runs = append(runs, run)
		}
	} else {
		runs, err = ledger.ListRuns(c.Context, c.Int("limit"))
		if err != nil {
			return err
		}
	}

	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tRELEVANT\tFILTER\tEVENT")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\n",
			run.ID, run.StartedAt.Local().Format(time.DateTime), run.Relevant, run.FilterEnabled, run.Event)
	}
	return tw.Flush()
}

func printVerdicts(c *cli.Context, ledger storage.RunLedger, id string) error {
	run, err := ledger.GetRun(c.Context, id)
	if err != nil {
		return fmt.Errorf("run %s: %w", id, err)
	}
	verdicts, err := ledger.RunVerdicts(c.Context, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Run: %s\nEvent: %s\n", run.ID, run.Event)
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tID\tRELEVANT\tSCORE\tREASON")
	for _, v := range verdicts {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%.2f\t%s\n", v.Platform, v.ID, v.Verdict.IsRelevant, v.Verdict.Score, v.Verdict.Reason)
	}
	return tw.Flush()
}
