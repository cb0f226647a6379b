// Package tui provides the interactive Bubble Tea dashboard for ccpace.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/ccpace/internal/activity"
	"github.com/theirongolddev/ccpace/internal/config"
	"github.com/theirongolddev/ccpace/internal/pacing"
	"github.com/theirongolddev/ccpace/internal/registry"
	"github.com/theirongolddev/ccpace/internal/shell"
	"github.com/theirongolddev/ccpace/internal/tui/components"
	"github.com/theirongolddev/ccpace/internal/tui/theme"
	"github.com/theirongolddev/ccpace/internal/usage"
)

const (
	minTerminalWidth = 60
	maxContentWidth  = 120
	fetchTimeout     = 2 * time.Minute
	flashDuration    = 4 * time.Second
)

const (
	tabUsage = iota
	tabToday
	tabRegistry
)

var tabs = []components.Tab{
	{Name: "Usage", Key: "1"},
	{Name: "Today", Key: "2"},
	{Name: "Registry", Key: "3"},
}

// Options wires the app to its data sources.
type Options struct {
	Config config.Config
	Source usage.TextSource
	Runner shell.Runner
	Git    activity.GitChecker

	// Registry is optional; without it the registry tab shows a hint.
	Registry    *registry.Executor
	RegistryDir string

	// NeedSetup shows the first-run form before the dashboard.
	NeedSetup bool

	Now      func() time.Time
	CopyText func(string) error
}

// snapshotMsg carries the result of a usage fetch.
type snapshotMsg struct {
	snap usage.Snapshot
	err  error
}

// summaryMsg carries today's activity summary.
type summaryMsg struct {
	summary activity.Summary
}

// registryMsg carries the loaded registry items.
type registryMsg struct {
	items []registry.Item
	favs  map[string]bool
	err   error
}

// flashMsg shows a transient line in the status bar.
type flashMsg struct {
	text string
	err  error
}

type refreshTickMsg struct{}

type clearFlashMsg struct{ id int }

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Usage
	snap     usage.Snapshot
	loaded   bool
	fetching bool

	// Today
	summary       activity.Summary
	summaryLoaded bool

	// Registry
	items       []registry.Item
	favs        map[string]bool
	registryErr error
	cursor      int

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model
	flash     string
	flashID   int

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool
}

// NewApp creates the dashboard model.
func NewApp(opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CopyText == nil {
		opts.CopyText = clipboard.WriteAll
	}
	if opts.Runner == nil {
		opts.Runner = shell.Exec{}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	a := App{
		opts:      opts,
		spinner:   sp,
		fetching:  true,
		needSetup: opts.NeedSetup,
	}
	if a.needSetup {
		a.setupVals = newSetupValues(opts.Config)
		a.setupForm = newSetupForm(a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.spinner.Tick,
		fetchCmd(a.opts.Source, false),
		summaryCmd(a.opts.Config, a.opts.Git, a.opts.Now()),
		registryCmd(a.opts.Registry, a.opts.RegistryDir),
		refreshTickCmd(a.opts.Config.RefreshInterval()),
	}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(min(msg.Width, 80))
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		return a.updateKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case snapshotMsg:
		a.applySnapshot(msg)
		return a, nil

	case summaryMsg:
		a.summary = msg.summary
		a.summaryLoaded = true
		return a, nil

	case registryMsg:
		a.items, a.favs, a.registryErr = msg.items, msg.favs, msg.err
		a.cursor = min(a.cursor, max(len(a.items)-1, 0))
		return a, nil

	case refreshTickMsg:
		cmds := []tea.Cmd{refreshTickCmd(a.opts.Config.RefreshInterval())}
		if !a.fetching {
			a.fetching = true
			cmds = append(cmds, fetchCmd(a.opts.Source, false))
		}
		return a, tea.Batch(cmds...)

	case flashMsg:
		return a.setFlash(msg)

	case clearFlashMsg:
		if msg.id == a.flashID {
			a.flash = ""
		}
		return a, nil
	}

	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "?":
		a.showHelp = true
		return a, nil
	case "1", "2", "3":
		a.activeTab = int(key[0] - '1')
		return a, nil
	case "tab":
		a.activeTab = (a.activeTab + 1) % len(tabs)
		return a, nil
	case "shift+tab":
		a.activeTab = (a.activeTab + len(tabs) - 1) % len(tabs)
		return a, nil
	case "r":
		var cmds []tea.Cmd
		if !a.fetching {
			a.fetching = true
			cmds = append(cmds, fetchCmd(a.opts.Source, true))
		}
		cmds = append(cmds, summaryCmd(a.opts.Config, a.opts.Git, a.opts.Now()))
		if a.activeTab == tabRegistry {
			cmds = append(cmds, registryCmd(a.opts.Registry, a.opts.RegistryDir))
		}
		return a, tea.Batch(cmds...)
	case "o":
		return a, openCmd(a.opts.Runner, usage.PageURL)
	}

	switch a.activeTab {
	case tabToday:
		if key == "c" {
			return a, copyCmd(a.opts.CopyText, activity.StandupText(a.summary), "Standup copied to clipboard")
		}
	case tabRegistry:
		return a.updateRegistryKey(key)
	}
	return a, nil
}

func (a App) updateRegistryKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "j", "down":
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
	case "g":
		a.cursor = 0
	case "G":
		a.cursor = max(len(a.items)-1, 0)
	case "enter":
		if it, ok := a.selected(); ok {
			return a, runItemCmd(a.opts.Registry, it)
		}
	case "f":
		if it, ok := a.selected(); ok {
			return a, toggleFavoriteCmd(a.opts.Registry, it)
		}
	}
	return a, nil
}

func (a App) selected() (registry.Item, bool) {
	if a.cursor < 0 || a.cursor >= len(a.items) {
		return registry.Item{}, false
	}
	return a.items[a.cursor], true
}

// applySnapshot stores a fetch result. A fetch that returned no windows
// keeps the previous reading and only updates the error.
func (a *App) applySnapshot(msg snapshotMsg) {
	a.fetching = false
	snap := msg.snap
	if msg.err != nil && snap.Err == "" {
		snap.Err = msg.err.Error()
	}
	if !snap.HasData() && a.loaded {
		a.snap.Err = snap.Err
		return
	}
	a.snap = snap
	a.loaded = true
}

func (a App) setFlash(msg flashMsg) (tea.Model, tea.Cmd) {
	a.flashID++
	a.flash = msg.text
	if msg.err != nil {
		a.flash = "Error: " + msg.err.Error()
	}
	id := a.flashID
	cmd := tea.Tick(flashDuration, func(time.Time) tea.Msg { return clearFlashMsg{id: id} })
	if a.activeTab == tabRegistry && msg.err == nil {
		return a, tea.Batch(cmd, registryCmd(a.opts.Registry, a.opts.RegistryDir))
	}
	return a, cmd
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		cfg, err := a.setupVals.apply(a.opts.Config)
		a.opts.Config = cfg
		a.needSetup = false
		a.setupForm = nil
		if err != nil {
			return a.setFlash(flashMsg{err: err})
		}
		return a.setFlash(flashMsg{text: "Saved " + config.ConfigPath()})
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  ccpace needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	if !a.loaded && a.fetching {
		return a.viewLoading()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Padding(1, 3).
		Render(
			lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true).Render("◈ ccpace") +
				lipgloss.NewStyle().Foreground(t.TextMuted).Render(" · Claude usage pacing") +
				"\n\n" + a.spinner.View() +
				lipgloss.NewStyle().Foreground(t.TextMuted).Render(" Reading usage..."),
		)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	rows := [][2]string{
		{"1 2 3 / tab", "switch view"},
		{"r", "refresh (may open the usage page)"},
		{"o", "open the usage page"},
		{"c", "copy standup note (Today)"},
		{"j k / enter", "select and run item (Registry)"},
		{"f", "toggle favorite (Registry)"},
		{"?", "help"},
		{"q", "quit"},
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true).Render("Keys"))
	b.WriteString("\n\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s  %s\n", keyStyle.Render(fmt.Sprintf("%-12s", r[0])), descStyle.Render(r[1]))
	}
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Padding(1, 3).
		Render(strings.TrimRight(b.String(), "\n"))
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.contentWidth()
	now := a.opts.Now()

	header := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true).Render(" ◈ ccpace") +
		lipgloss.NewStyle().Foreground(t.TextMuted).Render("  "+now.Format("03:04 PM")+"  ·  "+now.Format("Mon, Jan 2"))
	if a.fetching {
		header += "  " + a.spinner.View()
	}

	var body string
	switch a.activeTab {
	case tabUsage:
		body = a.viewUsage(w, now)
	case tabToday:
		body = a.viewToday(w)
	case tabRegistry:
		body = a.viewRegistry(w, now)
	}

	right := a.flash
	if right == "" {
		right = "Updated " + updatedText(a.snap.FetchedAt, now)
	}
	status := components.RenderStatusBar(w, "[?]help  [r]efresh  [o]pen  [q]uit", right)

	content := header + "\n" + components.RenderTabBar(tabs, a.activeTab) + "\n\n" + body
	if a.height > 0 {
		content = padHeight(content, a.height-1)
	}
	return content + "\n" + status
}

func updatedText(at, now time.Time) string {
	if at.IsZero() {
		return "never"
	}
	if now.Sub(at) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

// padHeight pads or truncates s to exactly h lines.
func padHeight(s string, h int) string {
	if h <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (a App) viewUsage(w int, now time.Time) string {
	t := theme.Active
	d := usage.BuildDetail(a.snap, now)

	var b strings.Builder
	if d.Err != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(t.Warn).Render(" ⚠ " + d.Err))
		b.WriteString("\n\n")
	}

	barW := max(w-40, 10)
	windows := []struct {
		tl    pacing.Timeline
		used  *int
		reset string
	}{
		{d.Session, a.snap.Session.UsedPercent, resetText("resets in ", a.snap.Session.ResetIn)},
		{d.AllModels, a.snap.AllModels.UsedPercent, resetText("resets ", a.snap.AllModels.ResetsAt)},
		{d.Sonnet, a.snap.Sonnet.UsedPercent, resetText("resets ", a.snap.Sonnet.ResetsAt)},
	}
	for _, win := range windows {
		b.WriteString(" ")
		b.WriteString(components.UsageBar(win.tl.Label, win.used, win.reset, 18, barW))
		b.WriteString("\n")
		b.WriteString(renderPace(win.tl))
		b.WriteString("\n\n")
	}

	b.WriteString(" ")
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextPrimary).Render(d.Calendar))
	b.WriteString("\n ")
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextDim).Render("[today] → (reset)"))
	return b.String()
}

func resetText(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

// renderPace renders the elapsed-vs-used timeline line under a usage bar.
func renderPace(tl pacing.Timeline) string {
	t := theme.Active
	if tl.NoData {
		return "   " + lipgloss.NewStyle().Foreground(t.TextDim).Render("No data")
	}
	status := lipgloss.NewStyle().Foreground(t.StatusColor(tl.Status))
	return "   " + tl.Status.Icon() + " " + status.Render(tl.Bar) + "  " +
		lipgloss.NewStyle().Foreground(t.TextMuted).Render(tl.Detail())
}

func (a App) viewToday(w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	if !a.summaryLoaded {
		return " " + a.spinner.View() + muted.Render(" Scanning sessions...")
	}
	s := a.summary
	if s.Err != "" {
		return lipgloss.NewStyle().Foreground(t.Warn).Render(" ⚠ " + s.Err)
	}
	if len(s.Sessions) == 0 {
		return muted.Render(" No Claude Code activity today. " + activity.ProductivityLevel(0, s.Range))
	}

	var b strings.Builder
	b.WriteString(components.MetricRow([]components.Metric{
		{Label: "Prompts", Value: humanize.Comma(int64(s.TotalPrompts)), Note: activity.ProductivityLevel(s.TotalPrompts, s.Range)},
		{Label: "Sessions", Value: humanize.Comma(int64(len(s.Sessions)))},
		{Label: "Files", Value: humanize.Comma(int64(s.TotalFilesCreated + s.TotalFilesModified)),
			Note: fmt.Sprintf("%d new", s.TotalFilesCreated)},
		{Label: "Lines", Value: humanize.Comma(int64(s.TotalLinesWritten))},
	}, w))
	b.WriteString("\n")

	half := components.LayoutRow(w, 2)
	var proj strings.Builder
	for i, p := range s.Projects {
		if i == 8 {
			fmt.Fprintf(&proj, "+%d more", len(s.Projects)-i)
			break
		}
		proj.WriteString(p)
		proj.WriteString("\n")
	}
	var tools strings.Builder
	for _, tc := range s.TopTools {
		fmt.Fprintf(&tools, "%-12s %s\n", tc.Name, humanize.Comma(int64(tc.Count)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		components.ContentCard("Projects", strings.TrimRight(proj.String(), "\n"), half[0]),
		components.ContentCard("Top tools", strings.TrimRight(tools.String(), "\n"), half[1]),
	))
	b.WriteString("\n")

	hours := components.Sparkline(s.ByHour[:], t.Accent) + "\n" +
		lipgloss.NewStyle().Foreground(t.TextDim).Render(components.HourAxis())
	if peak := activity.MostProductiveHour(s.ByHour); peak != "" {
		hours += "\n" + muted.Render("Peak: "+peak)
	}
	b.WriteString(components.ContentCard("By hour", hours, w))
	b.WriteString("\n")
	b.WriteString(muted.Render(" [c] copy standup note"))
	return b.String()
}

func (a App) viewRegistry(w int, now time.Time) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	if a.opts.Registry == nil {
		return muted.Render(" Registry is not configured.")
	}
	if a.registryErr != nil {
		return lipgloss.NewStyle().Foreground(t.Warn).Render(" ⚠ " + a.registryErr.Error())
	}
	if len(a.items) == 0 {
		return muted.Render(" No items in the registry.")
	}

	visible := max(a.height-8, 5)
	start := 0
	if a.cursor >= visible {
		start = a.cursor - visible + 1
	}
	end := min(start+visible, len(a.items))

	nameW := max(w/3, 16)
	sel := lipgloss.NewStyle().Background(t.Selection).Foreground(t.TextPrimary).Bold(true)
	row := lipgloss.NewStyle().Foreground(t.TextPrimary)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)

	var b strings.Builder
	for i := start; i < end; i++ {
		it := a.items[i]
		star := " "
		if a.favs[it.ID] {
			star = "★"
		}
		line := fmt.Sprintf(" %s %-8s %-*s", star, it.Type, nameW, truncate(it.Name, nameW))
		when := registry.RelativeTimeString(it.LastUsed, now)
		if i == a.cursor {
			b.WriteString(sel.Render(line))
		} else {
			b.WriteString(row.Render(line))
		}
		b.WriteString(" ")
		b.WriteString(dim.Render(truncate(it.Description, max(w-nameW-26, 10))))
		if when != "" {
			b.WriteString(dim.Render("  " + when))
		}
		b.WriteString("\n")
	}
	b.WriteString(muted.Render(fmt.Sprintf(" %d/%d  [enter] run  [f] favorite", a.cursor+1, len(a.items))))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// ─── Commands ───────────────────────────────────────────────────

func refreshTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func fetchCmd(src usage.TextSource, interactive bool) tea.Cmd {
	return func() tea.Msg {
		if src == nil {
			return snapshotMsg{snap: usage.Empty("no usage source configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		snap, err := src.Fetch(ctx, interactive)
		return snapshotMsg{snap: snap, err: err}
	}
}

func summaryCmd(cfg config.Config, git activity.GitChecker, now time.Time) tea.Cmd {
	return func() tea.Msg {
		return summaryMsg{summary: activity.Scan(context.Background(), config.ClaudeDir(cfg), activity.RangeToday, now, git)}
	}
}

func registryCmd(ex *registry.Executor, dir string) tea.Cmd {
	if ex == nil {
		return nil
	}
	return func() tea.Msg {
		reg, err := registry.Load(filepath.Join(dir, registry.RegistryFile))
		if err != nil {
			return registryMsg{err: err}
		}
		ctx := context.Background()
		favs, err := ex.State.Favorites(ctx)
		if err != nil {
			return registryMsg{err: err}
		}
		stats, err := ex.State.Usage(ctx)
		if err != nil {
			return registryMsg{err: err}
		}
		items := registry.SortForDisplay(registry.ApplyUsage(reg.Items, stats), favs)
		return registryMsg{items: items, favs: favs}
	}
}

func runItemCmd(ex *registry.Executor, it registry.Item) tea.Cmd {
	return func() tea.Msg {
		text, err := ex.Execute(context.Background(), it)
		return flashMsg{text: text, err: err}
	}
}

func toggleFavoriteCmd(ex *registry.Executor, it registry.Item) tea.Cmd {
	return func() tea.Msg {
		fav, err := ex.State.ToggleFavorite(context.Background(), it.ID)
		if err != nil {
			return flashMsg{err: err}
		}
		if fav {
			return flashMsg{text: "Added " + it.Name + " to favorites"}
		}
		return flashMsg{text: "Removed " + it.Name + " from favorites"}
	}
}

func openCmd(r shell.Runner, url string) tea.Cmd {
	return func() tea.Msg {
		if _, err := r.Run(context.Background(), "open", url); err != nil {
			return flashMsg{err: err}
		}
		return flashMsg{text: "Opened usage page"}
	}
}

func copyCmd(copyText func(string) error, text, done string) tea.Cmd {
	return func() tea.Msg {
		if err := copyText(text); err != nil {
			return flashMsg{err: err}
		}
		return flashMsg{text: done}
	}
}
