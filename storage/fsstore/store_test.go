package fsstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/eventsift/core"
	"github.com/poiesic/eventsift/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	return s, root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func ids(batches []storage.Batch, field string) []string {
	var out []string
	for _, b := range batches {
		for _, item := range b.Items {
			out = append(out, core.Stringify(item[field]))
		}
	}
	return out
}

func TestNew(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrRootRequired)

	_, err = New("data", WithLogger(nil))
	assert.ErrorIs(t, err, ErrNilLogger)

	s, err := New("data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "relevant"), s.OutputDir())
}

func TestLoadContents_JSONThenCSV(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, filepath.Join(root, "weibo", "json", "search_contents_2025-03-02.json"), `[{"note_id": "3"}]`)
	writeFile(t, filepath.Join(root, "weibo", "json", "search_contents_2025-03-01.json"), `[{"note_id": 1}, {"note_id": "2"}]`)
	writeFile(t, filepath.Join(root, "weibo", "json", "detail_contents_2025-03-01.json"), `[{"note_id": "9"}]`)
	writeFile(t, filepath.Join(root, "weibo", "json", "search_comments_2025-03-01.json"), `[{"note_id": "1", "comment_id": "c"}]`)
	writeFile(t, filepath.Join(root, "weibo", "csv", "search_contents_2025-03-01.csv"), "\xEF\xBB\xBFnote_id,content\n4,from csv\n")

	batches, err := s.LoadContents(context.Background(), core.PlatformWeibo, storage.StageSearch)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(batches, "note_id"))
	assert.True(t, strings.HasSuffix(batches[0].Source, "search_contents_2025-03-01.json"))

	detail, err := s.LoadContents(context.Background(), core.PlatformWeibo, storage.StageDetail)
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, ids(detail, "note_id"))
}

func TestLoadContents_KeepsLargeIDsExact(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, filepath.Join(root, "weibo", "json", "search_contents_1.json"), `[{"note_id": 5012345678901234567}]`)

	batches, err := s.LoadContents(context.Background(), core.PlatformWeibo, storage.StageSearch)
	require.NoError(t, err)
	assert.Equal(t, []string{"5012345678901234567"}, ids(batches, "note_id"))
}

func TestLoadContents_CSVWithBOM(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, filepath.Join(root, "bilibili", "csv", "search_contents_1.csv"),
		"\xEF\xBB\xBFvideo_id,title,desc\nBV1,\"title, with comma\",\nBV2,t2,d2\n")

	batches, err := s.LoadContents(context.Background(), core.PlatformBilibili, storage.StageSearch)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	items := batches[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "BV1", items[0]["video_id"])
	assert.Equal(t, "title, with comma", items[0]["title"])
	_, hasDesc := items[0]["desc"]
	assert.False(t, hasDesc, "empty cells omitted")
	assert.Equal(t, "d2", items[1]["desc"])
}

func TestLoadContents_MissingPlatformDir(t *testing.T) {
	s, _ := newTestStore(t)
	batches, err := s.LoadContents(context.Background(), core.PlatformZhihu, storage.StageSearch)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestLoadContents_MalformedFileSkipped(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, filepath.Join(root, "zhihu", "json", "search_contents_a.json"), `{not json`)
	writeFile(t, filepath.Join(root, "zhihu", "json", "search_contents_b.json"), `"just a string"`)
	writeFile(t, filepath.Join(root, "zhihu", "json", "search_contents_c.json"), `[{"url": "https://zhihu.com/q/1"}]`)

	batches, err := s.LoadContents(context.Background(), core.PlatformZhihu, storage.StageSearch)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)
	assert.ErrorIs(t, err, storage.ErrUnsupportedShape)
	assert.Equal(t, []string{"https://zhihu.com/q/1"}, ids(batches, "url"), "sibling files still load")
}

func TestLoadContents_UnreadablePlatformDir(t *testing.T) {
	s, root := newTestStore(t)
	// A file where the json directory should be cannot be listed.
	writeFile(t, filepath.Join(root, "weibo", "json"), "not a directory")

	batches, err := s.LoadContents(context.Background(), core.PlatformWeibo, storage.StageSearch)
	assert.ErrorIs(t, err, storage.ErrPlatformUnavailable)
	assert.Empty(t, batches)
}

func TestLoadContents_Validation(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.LoadContents(context.Background(), core.PlatformWeibo, storage.Stage("creator"))
	assert.ErrorIs(t, err, ErrUnknownStage)

	_, err = s.LoadContents(context.Background(), core.Platform("douyin"), storage.StageSearch)
	assert.ErrorIs(t, err, core.ErrUnknownPlatform)
}

func TestLoadComments_Shapes(t *testing.T) {
	s, root := newTestStore(t)
	writeFile(t, filepath.Join(root, "weibo", "json", "search_comments_1.json"), `[{"note_id": "1", "comment_id": "a"}]`)
	writeFile(t, filepath.Join(root, "weibo", "json", "detail_comments_1.json"), `{"comments": [{"note_id": "1", "comment_id": "b"}]}`)
	writeFile(t, filepath.Join(root, "weibo", "json", "search_contents_1.json"), `[{"note_id": "1"}]`)

	batches, err := s.LoadComments(context.Background(), core.PlatformWeibo)
	require.NoError(t, err)
	// detail_comments sorts before search_comments.
	assert.Equal(t, []string{"b", "a"}, ids(batches, "comment_id"))
}

func TestWriteSnapshot(t *testing.T) {
	s, root := newTestStore(t)
	at := time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC)
	records := []map[string]any{
		{"note_id": "1", "content": "演唱会取消 <b>", "platform": "weibo", "relevance_id": "1", "comments": []map[string]any{}},
	}

	info, err := s.WriteSnapshot(context.Background(), records, at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "relevant", "relevant_data_20250301_090507.json"), info.Path)
	assert.Equal(t, filepath.Join(root, "relevant", "relevant_data_latest.json"), info.LatestPath)
	assert.Equal(t, 1, info.Count)

	snapshot, err := os.ReadFile(info.Path)
	require.NoError(t, err)
	latest, err := os.ReadFile(info.LatestPath)
	require.NoError(t, err)
	assert.Equal(t, snapshot, latest)

	text := string(latest)
	assert.Contains(t, text, "演唱会取消 <b>", "non-ASCII and HTML left unescaped")
	assert.Contains(t, text, "\n  {\n    \"comments\": []", "two-space indent")

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(latest, &decoded))
	assert.Len(t, decoded, 1)

	entries, err := os.ReadDir(filepath.Join(root, "relevant"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestWriteSnapshot_Deterministic(t *testing.T) {
	s, _ := newTestStore(t)
	records := []map[string]any{
		{"b": "2", "a": "1", "nested": map[string]any{"z": 1, "y": 2}},
	}

	first, err := s.WriteSnapshot(context.Background(), records, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	firstLatest, err := os.ReadFile(first.LatestPath)
	require.NoError(t, err)

	second, err := s.WriteSnapshot(context.Background(), records, time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC))
	require.NoError(t, err)
	secondLatest, err := os.ReadFile(second.LatestPath)
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, firstLatest, secondLatest)
}

func TestWriteSnapshot_CancelledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.WriteSnapshot(ctx, nil, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
