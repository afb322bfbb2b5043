package crawl

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/eventsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	args := Args(core.CrawlRequest{
		Platform:       core.PlatformWeibo,
		Mode:           core.CrawlModeSearch,
		Keywords:       []string{"演唱会", "取消"},
		Headless:       true,
		EnableComments: true,
	})
	assert.Equal(t, []string{
		"--platform", "wb",
		"--type", "search",
		"--keywords", "演唱会,取消",
		"--headless=true",
		"--get-comments=true",
	}, args)

	args = Args(core.CrawlRequest{
		Platform: core.PlatformBilibili,
		Mode:     core.CrawlModeDetail,
		IDs:      []string{"BV1", "BV2"},
	})
	assert.Equal(t, []string{
		"--platform", "bili",
		"--type", "detail",
		"--ids", "BV1,BV2",
		"--headless=false",
		"--get-comments=false",
	}, args)

	assert.Equal(t, "zhihu", PlatformCode(core.PlatformZhihu))
}

func TestNewCommandCrawler(t *testing.T) {
	_, err := NewCommandCrawler(" ")
	assert.ErrorIs(t, err, ErrCommandRequired)

	c, err := NewCommandCrawler("crawler", WithArgs("main.py"), WithCommandLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py"}, c.args)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommandCrawler_PassesRequest(t *testing.T) {
	requireShell(t)
	out := filepath.Join(t.TempDir(), "invocation.txt")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := NewCommandCrawler("sh",
		WithArgs("-c", `echo "$@" > "$OUT"; echo "$CRAWLER_COOKIES" >> "$OUT"; echo crawling; echo oops >&2`, "crawler"),
		WithEnv("OUT="+out),
		WithCommandLogger(logger),
	)
	require.NoError(t, err)

	err = c.Crawl(context.Background(), core.CrawlRequest{
		Platform: core.PlatformZhihu,
		Mode:     core.CrawlModeSearch,
		Keywords: []string{"a", "b"},
		Cookies:  "z_c0=secret",
		Headless: true,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "--platform zhihu --type search --keywords a,b --headless=true --get-comments=false", lines[0])
	assert.Equal(t, "z_c0=secret", lines[1])

	assert.Contains(t, logs.String(), "level=INFO msg=crawling")
	assert.Contains(t, logs.String(), "level=WARN msg=oops")
}

func TestCommandCrawler_Failure(t *testing.T) {
	requireShell(t)
	c, err := NewCommandCrawler("sh", WithArgs("-c", "exit 3", "crawler"))
	require.NoError(t, err)

	err = c.Crawl(context.Background(), core.CrawlRequest{Platform: core.PlatformWeibo, Mode: core.CrawlModeSearch})
	require.ErrorIs(t, err, ErrCrawlFailed)
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestCommandCrawler_InvalidRequest(t *testing.T) {
	c, err := NewCommandCrawler("does-not-matter")
	require.NoError(t, err)

	err = c.Crawl(context.Background(), core.CrawlRequest{Platform: core.PlatformWeibo, Mode: "bulk"})
	assert.ErrorIs(t, err, core.ErrInvalidCrawlMode)

	err = c.Crawl(context.Background(), core.CrawlRequest{Platform: "tieba", Mode: core.CrawlModeSearch})
	assert.ErrorIs(t, err, core.ErrUnknownPlatform)
}

func TestCommandCrawler_Cancelled(t *testing.T) {
	requireShell(t)
	c, err := NewCommandCrawler("sh", WithArgs("-c", "exec sleep 30", "crawler"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = c.Crawl(ctx, core.CrawlRequest{Platform: core.PlatformWeibo, Mode: core.CrawlModeSearch})
	require.ErrorIs(t, err, ErrCrawlFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestLineLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	l := newLineLogger(logger, slog.LevelInfo)

	_, _ = l.Write([]byte("first li"))
	assert.Empty(t, logs.String())

	_, _ = l.Write([]byte("ne\r\n\nsecond\ntrailing"))
	assert.Contains(t, logs.String(), `msg="first line"`)
	assert.Contains(t, logs.String(), "msg=second")
	assert.NotContains(t, logs.String(), "trailing")

	l.Flush()
	assert.Contains(t, logs.String(), "msg=trailing")
	assert.Equal(t, 3, strings.Count(logs.String(), "level=INFO"))
}
