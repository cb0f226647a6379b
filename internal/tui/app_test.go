package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/kvstore"
	"github.com/theirongolddev/ccpace/internal/registry"
	"github.com/theirongolddev/ccpace/internal/shell"
	"github.com/theirongolddev/ccpace/internal/tui/theme"
	"github.com/theirongolddev/ccpace/internal/usage"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

var fixedNow = time.Date(2025, 6, 4, 15, 0, 0, 0, time.UTC)

func intp(v int) *int { return &v }

type stubSource struct {
	snap        usage.Snapshot
	err         error
	interactive []bool
}

func (s *stubSource) Fetch(_ context.Context, interactive bool) (usage.Snapshot, error) {
	s.interactive = append(s.interactive, interactive)
	return s.snap, s.err
}

func newTestApp(t *testing.T, src usage.TextSource, opts ...func(*Options)) App {
	t.Helper()
	o := Options{
		Config: config.DefaultConfig(),
		Source: src,
		Runner: &shell.Recorder{},
		Now:    func() time.Time { return fixedNow },
	}
	o.Config.General.ClaudeDir = t.TempDir()
	for _, fn := range opts {
		fn(&o)
	}
	a := NewApp(o)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m.(App)
}

func send(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleSnapshot() usage.Snapshot {
	return usage.Snapshot{
		Session:   usage.Session{UsedPercent: intp(40), ResetIn: "2h 30m"},
		AllModels: usage.Weekly{UsedPercent: intp(55), ResetsAt: "Sat 3:00 PM"},
		FetchedAt: fixedNow,
	}
}

func TestFetchCmdQuietOnStart(t *testing.T) {
	src := &stubSource{snap: sampleSnapshot()}
	msg := fetchCmd(src, false)()
	got, ok := msg.(snapshotMsg)
	if !ok {
		t.Fatalf("fetchCmd returned %T", msg)
	}
	if got.snap.Session.UsedPercent == nil || *got.snap.Session.UsedPercent != 40 {
		t.Errorf("session used = %v, want 40", got.snap.Session.UsedPercent)
	}
	if len(src.interactive) != 1 || src.interactive[0] {
		t.Errorf("interactive = %v, want [false]", src.interactive)
	}
}

func TestFetchCmdNilSource(t *testing.T) {
	got := fetchCmd(nil, false)().(snapshotMsg)
	if got.snap.Err == "" {
		t.Error("nil source should report an error")
	}
}

func TestApplySnapshotKeepsPreviousReading(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	a, _ = send(t, a, snapshotMsg{snap: sampleSnapshot()})
	if !a.loaded || a.fetching {
		t.Fatalf("loaded=%v fetching=%v after snapshot", a.loaded, a.fetching)
	}

	failure := errors.New("usage: script error")
	a, _ = send(t, a, snapshotMsg{snap: usage.Empty(failure.Error()), err: failure})
	if a.snap.Session.UsedPercent == nil || *a.snap.Session.UsedPercent != 40 {
		t.Errorf("previous reading lost: %+v", a.snap.Session)
	}
	if a.snap.Err != failure.Error() {
		t.Errorf("Err = %q, want %q", a.snap.Err, failure.Error())
	}
}

func TestApplySnapshotFirstFailureShowsError(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	a, _ = send(t, a, snapshotMsg{err: errors.New("boom")})
	if a.snap.Err != "boom" {
		t.Errorf("Err = %q, want boom", a.snap.Err)
	}
	if !strings.Contains(a.View(), "boom") {
		t.Error("error banner missing from view")
	}
}

func TestUsageView(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	a, _ = send(t, a, snapshotMsg{snap: sampleSnapshot()})
	view := a.View()
	for _, want := range []string{"Session", "Weekly", "40%", "55%", "resets in 2h 30m", "[today] → (reset)", "Updated just now"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != 40 {
		t.Errorf("view has %d lines, want 40", lines)
	}
}

func TestLoadingView(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	if !strings.Contains(a.View(), "Reading usage") {
		t.Error("loading view expected before first snapshot")
	}
}

func TestTooNarrow(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	a, _ = send(t, a, tea.WindowSizeMsg{Width: 40, Height: 20})
	if !strings.Contains(a.View(), "too narrow") {
		t.Error("narrow terminal message missing")
	}
}

func TestTabSwitching(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	a, _ = send(t, a, key("2"))
	if a.activeTab != tabToday {
		t.Errorf("activeTab = %d, want %d", a.activeTab, tabToday)
	}
	a, _ = send(t, a, key("tab"))
	if a.activeTab != tabRegistry {
		t.Errorf("activeTab = %d, want %d", a.activeTab, tabRegistry)
	}
	a, _ = send(t, a, key("tab"))
	if a.activeTab != tabUsage {
		t.Errorf("activeTab = %d, want %d", a.activeTab, tabUsage)
	}
}

func TestQuit(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	_, cmd := send(t, a, key("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestRefreshKeyIsInteractive(t *testing.T) {
	src := &stubSource{snap: sampleSnapshot()}
	a := newTestApp(t, src)
	a, _ = send(t, a, snapshotMsg{snap: sampleSnapshot()})

	a, cmd := send(t, a, key("r"))
	if !a.fetching {
		t.Error("r should start a fetch")
	}
	if cmd == nil {
		t.Fatal("r should return a command")
	}
	fetchCmd(src, true)()
	if !src.interactive[len(src.interactive)-1] {
		t.Error("refresh fetch should be interactive")
	}
}

func TestRefreshTickSkipsWhileFetching(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	if !a.fetching {
		t.Fatal("app should start fetching")
	}
	a, cmd := send(t, a, refreshTickMsg{})
	if cmd == nil {
		t.Fatal("tick should reschedule")
	}
	if !a.fetching {
		t.Error("fetching flag cleared by tick")
	}
}

func TestOpenKeyRunsOpen(t *testing.T) {
	rec := &shell.Recorder{}
	a := newTestApp(t, &stubSource{}, func(o *Options) { o.Runner = rec })
	_, cmd := send(t, a, key("o"))
	msg := cmd()
	if f, ok := msg.(flashMsg); !ok || f.err != nil {
		t.Fatalf("open returned %#v", msg)
	}
	if len(rec.Calls) != 1 || strings.Join(rec.Calls[0], " ") != "open "+usage.PageURL {
		t.Errorf("calls = %v", rec.Calls)
	}
}

func TestCopyStandupOnTodayTab(t *testing.T) {
	var copied string
	a := newTestApp(t, &stubSource{}, func(o *Options) {
		o.CopyText = func(s string) error { copied = s; return nil }
	})
	a, _ = send(t, a, key("2"))
	a, _ = send(t, a, summaryCmd(a.opts.Config, nil, fixedNow)())
	if !a.summaryLoaded {
		t.Fatal("summary not loaded")
	}
	_, cmd := send(t, a, key("c"))
	if cmd == nil {
		t.Fatal("c should copy")
	}
	cmd()
	if !strings.Contains(copied, "No Claude Code activity") {
		t.Errorf("copied = %q", copied)
	}
}

func writeRegistry(t *testing.T, dir string) {
	t.Helper()
	data := `{"version":"1","generated_at":"2025-06-01T00:00:00Z","items":[
		{"id":"a","type":"cli","name":"Alpha","description":"first","path":"~/bin/a","created_at":"2025-05-01T00:00:00Z","use_count":0,"tags":[],"execution":{"type":"shell","command":"alpha --go"}},
		{"id":"b","type":"skill","name":"Beta","description":"second","path":"~/skills/b","created_at":"2025-06-01T00:00:00Z","use_count":0,"tags":[],"execution":{"type":"shell","command":"beta"}}
	]}`
	if err := os.WriteFile(filepath.Join(dir, registry.RegistryFile), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRegistryTab(t *testing.T) {
	dir := t.TempDir()
	writeRegistry(t, dir)

	var copied string
	ex := registry.NewExecutor(registry.NewState(kvstore.NewMemory()), nil)
	ex.Runner = &shell.Recorder{}
	ex.CopyText = func(s string) error { copied = s; return nil }
	ex.Now = func() time.Time { return fixedNow }

	a := newTestApp(t, &stubSource{}, func(o *Options) {
		o.Registry = ex
		o.RegistryDir = dir
	})
	a, _ = send(t, a, snapshotMsg{snap: sampleSnapshot()})
	a, _ = send(t, a, key("3"))
	a, _ = send(t, a, registryCmd(ex, dir)())
	if a.registryErr != nil {
		t.Fatal(a.registryErr)
	}
	if len(a.items) != 2 || a.items[0].ID != "b" {
		t.Fatalf("items = %+v, want newest first", a.items)
	}

	a, _ = send(t, a, key("j"))
	if a.cursor != 1 {
		t.Errorf("cursor = %d, want 1", a.cursor)
	}
	a, _ = send(t, a, key("j"))
	if a.cursor != 1 {
		t.Errorf("cursor moved past the end: %d", a.cursor)
	}

	_, cmd := send(t, a, key("enter"))
	msg := cmd().(flashMsg)
	if msg.err != nil || copied != "alpha --go" {
		t.Errorf("run: msg=%+v copied=%q", msg, copied)
	}

	_, cmd = send(t, a, key("f"))
	if f := cmd().(flashMsg); !strings.Contains(f.text, "Added Alpha") {
		t.Errorf("favorite flash = %q", f.text)
	}
	a, _ = send(t, a, registryCmd(ex, dir)())
	if a.items[0].ID != "a" || !a.favs["a"] {
		t.Errorf("favorite should sort first: %+v", a.items)
	}
	if !strings.Contains(a.View(), "★") {
		t.Error("favorite star missing from view")
	}
}

func TestRegistryTabMissingFile(t *testing.T) {
	ex := registry.NewExecutor(registry.NewState(kvstore.NewMemory()), nil)
	msg := registryCmd(ex, t.TempDir())().(registryMsg)
	if !errors.Is(msg.err, registry.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", msg.err)
	}
	if registryCmd(nil, "") != nil {
		t.Error("nil executor should produce no command")
	}
}

func TestFlashClears(t *testing.T) {
	a := newTestApp(t, &stubSource{})
	a, _ = send(t, a, flashMsg{text: "hello"})
	if a.flash != "hello" {
		t.Fatalf("flash = %q", a.flash)
	}
	a, _ = send(t, a, clearFlashMsg{id: a.flashID - 1})
	if a.flash != "hello" {
		t.Error("stale clear removed a newer flash")
	}
	a, _ = send(t, a, clearFlashMsg{id: a.flashID})
	if a.flash != "" {
		t.Error("flash not cleared")
	}
}

func TestSetupApplySaves(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(func() { theme.SetActive("flexoki-dark") })
	v := newSetupValues(config.DefaultConfig())
	v.Source = config.SourceAPI
	v.SessionKey = "  sk-ant-sid01-abc  "
	v.Theme = "tokyo-night"

	cfg, err := v.apply(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClaudeAI.SessionKey != "sk-ant-sid01-abc" {
		t.Errorf("SessionKey = %q", cfg.ClaudeAI.SessionKey)
	}
	loaded, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Usage.Source != config.SourceAPI || loaded.Appearance.Theme != "tokyo-night" {
		t.Errorf("saved config = %+v", loaded)
	}
}

func TestValidateSessionKey(t *testing.T) {
	if validateSessionKey("") != nil {
		t.Error("blank key should be allowed")
	}
	if validateSessionKey("sk-ant-sid01-x") != nil {
		t.Error("valid key rejected")
	}
	if validateSessionKey("nope") == nil {
		t.Error("invalid key accepted")
	}
}
