package activity

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/theirongolddev/ccpace/internal/shell"
)

// GitStatus describes a project directory's version control.
type GitStatus struct {
	IsRepo     bool
	HasGitHub  bool
	RemoteName string // e.g. "origin"
	RemoteURL  string // e.g. "git@github.com:user/repo.git"
}

// Symbol is "⑃☁️" for a repo published to GitHub, "⑃" for a local repo and
// "" otherwise.
func (g GitStatus) Symbol() string {
	switch {
	case g.HasGitHub:
		return "⑃☁️"
	case g.IsRepo:
		return "⑃"
	}
	return ""
}

// Label describes the status in words.
func (g GitStatus) Label() string {
	switch {
	case g.HasGitHub:
		return "Git + GitHub"
	case g.IsRepo:
		return "Git (local only)"
	}
	return "No version control"
}

// GitChecker inspects a project directory.
type GitChecker interface {
	Check(ctx context.Context, dir string) GitStatus
}

// GitTimeout bounds each git invocation.
const GitTimeout = 5 * time.Second

// ExecGit checks status by looking for .git and running git remote -v.
type ExecGit struct {
	Runner shell.Runner
}

var remoteLine = regexp.MustCompile(`^(\S+)\s+(\S+)`)

// Check implements GitChecker. A failing git command still reports a repo.
func (g ExecGit) Check(ctx context.Context, dir string) GitStatus {
	var st GitStatus
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return st
	}
	st.IsRepo = true

	r := g.Runner
	if r == nil {
		r = shell.Exec{}
	}
	ctx, cancel := context.WithTimeout(ctx, GitTimeout)
	defer cancel()
	out, err := r.Run(ctx, "git", "-C", dir, "remote", "-v")
	if err != nil {
		return st
	}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if !strings.Contains(line, "github.com") {
			continue
		}
		st.HasGitHub = true
		if m := remoteLine.FindStringSubmatch(line); m != nil {
			st.RemoteName, st.RemoteURL = m[1], m[2]
		}
		break
	}
	return st
}

// NoGit reports every directory as unversioned.
type NoGit struct{}

// Check implements GitChecker.
func (NoGit) Check(context.Context, string) GitStatus { return GitStatus{} }
