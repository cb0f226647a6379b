package registry

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/theirongolddev/ccpace/internal/shell"
)

// Terminal is a terminal emulator that can be opened at a directory.
type Terminal struct {
	Name     string
	Subtitle string
}

// Terminals lists the supported terminal emulators.
var Terminals = []Terminal{
	{Name: "Terminal", Subtitle: "macOS built-in"},
	{Name: "Ghostty", Subtitle: "GPU-accelerated"},
	{Name: "iTerm", Subtitle: "Feature-rich"},
	{Name: "Warp", Subtitle: "AI-powered"},
}

const finderPathScript = `tell application "Finder"
    try
        if (count of windows) > 0 then
            return POSIX path of (target of front window as alias)
        end if
    end try
end tell
return POSIX path of (path to home folder)`

// FinderPath returns the directory of the front Finder window, or the home
// directory when Finder has no window or osascript fails.
func FinderPath(ctx context.Context, r shell.Runner) string {
	out, err := shell.Osascript(ctx, r, finderPathScript)
	if err != nil || out == "" {
		home, _ := os.UserHomeDir()
		return home
	}
	return out
}

// OpenTerminalAt opens the named terminal with its working directory set to
// dir.
func OpenTerminalAt(ctx context.Context, r shell.Runner, terminal, dir string) error {
	var err error
	switch strings.ToLower(terminal) {
	case "terminal":
		_, err = r.Run(ctx, "open", "-a", "Terminal", dir)
	case "ghostty":
		_, err = r.Run(ctx, "open", "-n", "-a", "Ghostty", "--args", "--working-directory="+dir)
	case "iterm":
		script := fmt.Sprintf(`tell application "iTerm"
    activate
    create window with default profile
    tell current session of current window
        write text "cd " & quoted form of %s
    end tell
end tell`, appleString(dir))
		_, err = shell.Osascript(ctx, r, script)
	case "warp":
		_, err = r.Run(ctx, "open", "-a", "Warp", dir)
	default:
		return fmt.Errorf("registry: unsupported terminal %q", terminal)
	}
	if err != nil {
		return fmt.Errorf("registry: opening %s: %w", terminal, err)
	}
	return nil
}

var usersHome = regexp.MustCompile(`^/Users/[^/]+`)

// ShortPath abbreviates a macOS home directory prefix to "~".
func ShortPath(p string) string {
	return usersHome.ReplaceAllString(p, "~")
}
