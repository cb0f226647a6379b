package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/ccpace/internal/source"
)

var (
	rangeStart = time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2025, 6, 4, 23, 59, 0, 0, time.UTC)
)

func writeSessions(t testing.TB, n int) []source.DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	files := make([]source.DiscoveredFile, 0, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("s%d.jsonl", i))
		line := fmt.Sprintf(`{"type":"user","userType":"external","timestamp":"2025-06-04T10:%02d:00Z","message":{"role":"user","content":"prompt %d"}}`+"\n", i%60, i)
		if i%5 == 0 {
			line += "not json\n"
		}
		if err := os.WriteFile(path, []byte(line), 0o600); err != nil {
			t.Fatal(err)
		}
		files = append(files, source.DiscoveredFile{Path: path, Project: "p", SessionID: fmt.Sprint(i)})
	}
	return files
}

func TestParseActivities_PreservesOrder(t *testing.T) {
	files := writeSessions(t, 25)
	files = append(files, source.DiscoveredFile{Path: filepath.Join(t.TempDir(), "missing.jsonl")})

	var calls atomic.Int64
	res := ParseActivities(context.Background(), files, rangeStart, rangeEnd, func(current, total int) {
		calls.Add(1)
		if total != len(files) {
			t.Errorf("total = %d, want %d", total, len(files))
		}
	})

	if len(res.Results) != len(files) {
		t.Fatalf("results = %d, want %d", len(res.Results), len(files))
	}
	for i := 0; i < 25; i++ {
		r := res.Results[i]
		want := fmt.Sprintf("prompt %d", i)
		if len(r.Activity.UserPrompts) != 1 || r.Activity.UserPrompts[0] != want {
			t.Errorf("result %d prompts = %v, want [%s]", i, r.Activity.UserPrompts, want)
		}
	}
	if res.ParsedFiles != 25 || res.FileErrors != 1 {
		t.Errorf("parsed=%d fileErrors=%d, want 25 and 1", res.ParsedFiles, res.FileErrors)
	}
	if res.ParseErrors != 5 {
		t.Errorf("ParseErrors = %d, want 5", res.ParseErrors)
	}
	if calls.Load() != int64(len(files)) {
		t.Errorf("progress calls = %d, want %d", calls.Load(), len(files))
	}
}

func TestParseActivities_Cancelled(t *testing.T) {
	files := writeSessions(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := ParseActivities(ctx, files, rangeStart, rangeEnd, nil)
	if res.FileErrors != 3 {
		t.Errorf("FileErrors = %d, want 3", res.FileErrors)
	}
}

func TestParseActivities_Empty(t *testing.T) {
	res := ParseActivities(context.Background(), nil, rangeStart, rangeEnd, nil)
	if len(res.Results) != 0 || res.ParsedFiles != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func BenchmarkParseActivities(b *testing.B) {
	files := writeSessions(b, 200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ParseActivities(context.Background(), files, rangeStart, rangeEnd, nil)
	}
}
