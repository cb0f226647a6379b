package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/theirongolddev/ccpace/internal/shell"
)

// terminalApps are probed in order under /Applications.
var terminalApps = []string{"Ghostty", "iTerm", "Terminal"}

// Executor launches registry items on macOS.
type Executor struct {
	Runner shell.Runner
	State  *State
	Logger *slog.Logger

	// CopyText puts text on the clipboard.
	CopyText func(string) error
	// AppExists reports whether /Applications/<name>.app is installed.
	AppExists func(name string) bool
	Now       func() time.Time
}

// NewExecutor returns an Executor that runs commands on the host.
func NewExecutor(state *State, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		Runner:    shell.Exec{},
		State:     state,
		Logger:    logger,
		CopyText:  clipboard.WriteAll,
		AppExists: appInstalled,
		Now:       time.Now,
	}
}

func appInstalled(name string) bool {
	_, err := os.Stat(filepath.Join("/Applications", name+".app"))
	return err == nil
}

// TerminalApp returns the first installed terminal, defaulting to Terminal.
func (e *Executor) TerminalApp() string {
	for _, app := range terminalApps {
		if e.AppExists != nil && e.AppExists(app) {
			return app
		}
	}
	return "Terminal"
}

// Execute launches an item according to its execution type and records the
// use. It returns a short confirmation message.
func (e *Executor) Execute(ctx context.Context, it Item) (string, error) {
	if e.State != nil {
		if _, err := e.State.RecordUse(ctx, it.ID, e.now()); err != nil {
			e.logger().Warn("recording use failed", "item", it.ID, "err", err)
		}
	}

	ex := it.Execution
	switch ex.Type {
	case ExecTerminal:
		if err := e.RunInTerminal(ctx, ex.Command); err != nil {
			return "", err
		}
		return "Launched " + it.Name, nil

	case ExecDeeplink:
		if ex.Deeplink == "" {
			return "", nil
		}
		if _, err := e.Runner.Run(ctx, "open", ex.Deeplink); err != nil {
			return "", fmt.Errorf("registry: opening deeplink: %w", err)
		}
		return "Opened " + it.Name, nil

	case ExecShell:
		if ex.Command == "" {
			return "", nil
		}
		if err := e.CopyText(ex.Command); err != nil {
			return "", fmt.Errorf("registry: copying command: %w", err)
		}
		return "Copied: " + ex.Command, nil

	case ExecOpen:
		if _, err := e.Runner.Run(ctx, "open", ExpandPath(it.Path)); err != nil {
			return "", fmt.Errorf("registry: opening %s: %w", it.Path, err)
		}
		return "Opened " + it.Name, nil
	}
	return "", fmt.Errorf("registry: unknown execution type %q", ex.Type)
}

// RunInTerminal activates the terminal app and types command into it.
func (e *Executor) RunInTerminal(ctx context.Context, command string) error {
	script := fmt.Sprintf(`tell application %s
    activate
end tell
delay 0.3
tell application "System Events"
    keystroke %s
    keystroke return
end tell`, appleString(e.TerminalApp()), appleString(ExpandPath(command)))

	if _, err := shell.Osascript(ctx, e.Runner, script); err != nil {
		return fmt.Errorf("registry: typing into terminal: %w", err)
	}
	return nil
}

// OpenFolderInTerminal changes the terminal to the item's folder.
func (e *Executor) OpenFolderInTerminal(ctx context.Context, itemPath string) error {
	return e.RunInTerminal(ctx, "cd "+shellQuote(FolderPath(itemPath)))
}

// OpenInClaudeCode starts claude in the item's folder.
func (e *Executor) OpenInClaudeCode(ctx context.Context, itemPath string) error {
	return e.RunInTerminal(ctx, "cd "+shellQuote(FolderPath(itemPath))+" && claude")
}

// GitHistory shows the last 20 commits touching the item's file.
func (e *Executor) GitHistory(ctx context.Context, itemPath string) error {
	name := filepath.Base(ExpandPath(itemPath))
	return e.RunInTerminal(ctx, "cd "+shellQuote(FolderPath(itemPath))+
		" && git log --oneline -20 "+shellQuote(name))
}

// OpenInEditor tries VS Code, then Cursor, then the default app, and
// returns the name of the editor that succeeded.
func (e *Executor) OpenInEditor(ctx context.Context, itemPath string) (string, error) {
	p := ExpandPath(itemPath)
	editors := []struct{ cmd, name string }{
		{"code", "VS Code"},
		{"cursor", "Cursor"},
		{"open", "default editor"},
	}
	var errs []error
	for _, ed := range editors {
		if _, err := e.Runner.Run(ctx, ed.cmd, p); err != nil {
			errs = append(errs, err)
			continue
		}
		return ed.name, nil
	}
	return "", fmt.Errorf("registry: no editor could open %s: %w", p, errors.Join(errs...))
}

// OpenDocumentation opens a documentation file with the default app.
func (e *Executor) OpenDocumentation(ctx context.Context, docPath string) error {
	if _, err := e.Runner.Run(ctx, "open", docPath); err != nil {
		return fmt.Errorf("registry: opening %s: %w", docPath, err)
	}
	return nil
}

// GeneratorPath is the script that rebuilds the registry file.
const GeneratorPath = "~/.claude/bin/generate-claude-built-registry"

// Regenerate runs the registry generator through bash.
func (e *Executor) Regenerate(ctx context.Context) error {
	if _, err := e.Runner.Run(ctx, "/bin/bash", "-c", ExpandPath(GeneratorPath)); err != nil {
		return fmt.Errorf("registry: regenerating: %w", err)
	}
	return nil
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// appleString quotes s as an AppleScript string literal.
func appleString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// shellQuote single-quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
