package activity

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/theirongolddev/ccpace/internal/pipeline"
	"github.com/theirongolddev/ccpace/internal/source"
)

// DayKeyLayout formats the keys of Summary.ByDay.
const DayKeyLayout = "2006-01-02"

// TopToolCount is how many tools Summary.TopTools keeps.
const TopToolCount = 6

// Session is one session file's activity plus its project's git status.
type Session struct {
	source.Activity
	Git GitStatus
}

// ToolCount is a tool name with how often it was called.
type ToolCount struct {
	Name  string
	Count int
}

// Summary aggregates every session with prompts in a range.
type Summary struct {
	Label string
	Range Range

	Sessions           []Session // newest first
	TotalPrompts       int
	TotalFilesCreated  int // unique per session
	TotalFilesModified int // unique per session
	TotalLinesWritten  int
	Projects           []string // first-seen order
	TopTools           []ToolCount

	ByDay            map[string]int // DayKeyLayout → prompts
	ByHour           [24]int
	UniqueDaysActive int

	Err string
}

// Scan reads the session files under claudeDir and summarizes the ones
// with user prompts inside r. Files last modified more than a day before
// the range starts are not opened. A nil git checker skips git lookups.
func Scan(ctx context.Context, claudeDir string, r Range, now time.Time, git GitChecker) Summary {
	if git == nil {
		git = NoGit{}
	}
	start, end := RangeBounds(r, now)
	sum := Summary{
		Label: r.Label(),
		Range: r,
		ByDay: make(map[string]int),
	}

	files, err := source.ScanDir(claudeDir)
	if err != nil {
		sum.Err = err.Error()
		return sum
	}
	slog.Debug("scanning sessions", "files", len(files), "projects", source.CountProjects(files), "range", r)

	var (
		cutoff    = start.AddDate(0, 0, -1)
		gitCache  = make(map[string]GitStatus)
		seenProj  = make(map[string]bool)
		toolTotal = make(map[string]int)
		toolOrder []string
	)

	candidates := files[:0:0]
	for _, df := range files {
		if !df.ModTime.Before(cutoff) {
			candidates = append(candidates, df)
		}
	}
	loaded := pipeline.ParseActivities(ctx, candidates, start, end, nil)
	if err := ctx.Err(); err != nil {
		sum.Err = err.Error()
	}
	slog.Debug("parsed sessions", "files", loaded.ParsedFiles, "parse_errors", loaded.ParseErrors, "file_errors", loaded.FileErrors)

	for i, res := range loaded.Results {
		df := candidates[i]
		if res.Err != nil {
			slog.Debug("skipping session", "path", df.Path, "err", res.Err)
			continue
		}
		if !res.InRange || len(res.Activity.UserPrompts) == 0 {
			continue
		}
		act := res.Activity

		st, ok := gitCache[df.ProjectPath]
		if !ok {
			st = git.Check(ctx, df.ProjectPath)
			gitCache[df.ProjectPath] = st
		}
		sum.Sessions = append(sum.Sessions, Session{Activity: act, Git: st})

		prompts := len(act.UserPrompts)
		sum.TotalPrompts += prompts
		sum.TotalFilesCreated += len(unique(act.FilesCreated))
		sum.TotalFilesModified += len(unique(act.FilesModified))
		sum.TotalLinesWritten += act.LinesWritten

		if !seenProj[act.Project] {
			seenProj[act.Project] = true
			sum.Projects = append(sum.Projects, act.Project)
		}

		local := act.Timestamp.In(now.Location())
		sum.ByDay[local.Format(DayKeyLayout)] += prompts
		sum.ByHour[local.Hour()] += prompts

		for _, name := range sortedKeys(act.ToolsUsed) {
			if _, ok := toolTotal[name]; !ok {
				toolOrder = append(toolOrder, name)
			}
			toolTotal[name] += act.ToolsUsed[name]
		}
	}

	sum.UniqueDaysActive = len(sum.ByDay)
	sum.TopTools = topTools(toolOrder, toolTotal, TopToolCount)
	sort.SliceStable(sum.Sessions, func(i, j int) bool {
		return sum.Sessions[i].Timestamp.After(sum.Sessions[j].Timestamp)
	})
	return sum
}

func topTools(order []string, totals map[string]int, n int) []ToolCount {
	out := make([]ToolCount, 0, len(order))
	for _, name := range order {
		out = append(out, ToolCount{Name: name, Count: totals[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// unique returns the distinct values of ss in first-seen order.
func unique(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := ss[:0:0]
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// projectGroup is the sessions of one project, newest first.
type projectGroup struct {
	name     string
	sessions []Session
}

func groupByProject(sessions []Session) []projectGroup {
	idx := make(map[string]int)
	var groups []projectGroup
	for _, s := range sessions {
		i, ok := idx[s.Project]
		if !ok {
			i = len(groups)
			idx[s.Project] = i
			groups = append(groups, projectGroup{name: s.Project})
		}
		groups[i].sessions = append(groups[i].sessions, s)
	}
	return groups
}

func (g projectGroup) prompts() int {
	n := 0
	for _, s := range g.sessions {
		n += len(s.UserPrompts)
	}
	return n
}
