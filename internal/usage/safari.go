package usage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/ccpace/internal/shell"
)

// DefaultScriptTimeout bounds a single osascript invocation.
const DefaultScriptTimeout = 60 * time.Second

// Sentinel outputs of the quiet script. Neither is an error.
const (
	outputNoSafari = "NO_SAFARI"
	outputNoTab    = "NO_TAB"
	outputError    = "ERROR:"
)

// extractJS runs inside the usage tab and serializes the three windows. It
// is embedded in an AppleScript string, so it avoids double quotes and
// doubles its backslashes.
const extractJS = `
    (function() {
        try {
            const bodyText = document.body.innerText;
            const sessionMatch = bodyText.match(/Current session[\\s\\S]*?Resets in ([^\\n]+)[\\s\\S]*?(\\d+)% used/i);
            const allModelsMatch = bodyText.match(/All models[\\s\\S]*?Resets ([^\\n]+)[\\s\\S]*?(\\d+)% used/i);
            const sonnetMatch = bodyText.match(/Sonnet only[\\s\\S]*?Resets ([^\\n]+)[\\s\\S]*?(\\d+)% used/i);
            return JSON.stringify({
                currentSession: sessionMatch ? { resetsIn: sessionMatch[1].trim(), percentage: parseInt(sessionMatch[2]) } : null,
                allModels: allModelsMatch ? { resetsAt: allModelsMatch[1].trim(), percentage: parseInt(allModelsMatch[2]) } : null,
                sonnet: sonnetMatch ? { resetsAt: sonnetMatch[1].trim(), percentage: parseInt(sonnetMatch[2]) } : null
            });
        } catch (e) {
            return JSON.stringify({ error: e.message });
        }
    })();
`

const findTab = `
    set foundTab to missing value
    repeat with w in windows
        repeat with t in tabs of w
            if URL of t contains "claude.ai/settings/usage" then
                set foundTab to t
                exit repeat
            end if
        end repeat
        if foundTab is not missing value then exit repeat
    end repeat
`

const runExtract = `
    set jsCode to "` + extractJS + `"
    try
        set result to do JavaScript jsCode in foundTab
        return result
    on error errMsg
        return "ERROR: " & errMsg
    end try
end tell
`

// QuietScript reads an already-open usage tab and never launches Safari or
// opens tabs.
const QuietScript = `
tell application "System Events"
    if not (exists process "Safari") then
        return "NO_SAFARI"
    end if
end tell

tell application "Safari"
` + findTab + `
    if foundTab is missing value then
        return "NO_TAB"
    end if
` + runExtract

// InteractiveScript launches Safari and opens the usage page when needed,
// then waits for it to render.
const InteractiveScript = `
tell application "Safari"
    if not running then
        activate
        delay 1
    end if
` + findTab + `
    if foundTab is missing value then
        if (count of windows) is 0 then
            make new document with properties {URL:"` + PageURL + `"}
            set foundTab to current tab of front window
        else
            tell last window
                set foundTab to make new tab with properties {URL:"` + PageURL + `"}
            end tell
        end if
        delay 3
    end if

    repeat 30 times
        try
            if (do JavaScript "document.readyState" in foundTab) is "complete" then exit repeat
        end try
        delay 0.5
    end repeat
    delay 0.5
` + runExtract

// scriptWindow is one window in the script's JSON payload.
type scriptWindow struct {
	ResetsIn   string `json:"resetsIn"`
	ResetsAt   string `json:"resetsAt"`
	Percentage *int   `json:"percentage"`
}

type scriptPayload struct {
	CurrentSession *scriptWindow `json:"currentSession"`
	AllModels      *scriptWindow `json:"allModels"`
	Sonnet         *scriptWindow `json:"sonnet"`
	Error          string        `json:"error"`
}

// DecodeScriptOutput interprets the trimmed stdout of either script.
func DecodeScriptOutput(out string) (Snapshot, error) {
	out = strings.TrimSpace(out)

	switch {
	case out == outputNoSafari || out == outputNoTab:
		return Empty(""), nil
	case strings.HasPrefix(out, outputError):
		msg := strings.TrimSpace(strings.TrimPrefix(out, outputError))
		return Empty(msg), fmt.Errorf("%w: %s", ErrScript, msg)
	}

	var p scriptPayload
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		preview := out
		if len(preview) > 200 {
			preview = preview[:200]
		}
		msg := "Failed to parse response: " + preview
		return Empty(msg), fmt.Errorf("%w: %s", ErrParse, preview)
	}
	if p.Error != "" {
		return Empty(p.Error), fmt.Errorf("%w: %s", ErrScript, p.Error)
	}

	var s Snapshot
	if w := p.CurrentSession; w != nil {
		s.Session = Session{UsedPercent: checkPercent(w.Percentage), ResetIn: w.ResetsIn}
	}
	if w := p.AllModels; w != nil {
		s.AllModels = Weekly{UsedPercent: checkPercent(w.Percentage), ResetsAt: w.ResetsAt}
	}
	if w := p.Sonnet; w != nil {
		s.Sonnet = Weekly{UsedPercent: checkPercent(w.Percentage), ResetsAt: w.ResetsAt}
	}
	return s, nil
}

// SafariSource scrapes the usage page from Safari through osascript.
type SafariSource struct {
	Runner  shell.Runner
	Timeout time.Duration
	Now     func() time.Time
}

// NewSafariSource returns a SafariSource that runs osascript on the host.
func NewSafariSource(timeout time.Duration) *SafariSource {
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	return &SafariSource{Runner: shell.Exec{}, Timeout: timeout, Now: time.Now}
}

// Fetch implements TextSource.
func (s *SafariSource) Fetch(ctx context.Context, interactive bool) (Snapshot, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	script := QuietScript
	if interactive {
		script = InteractiveScript
	}

	out, err := shell.Osascript(ctx, s.Runner, script)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return failed(fmt.Errorf("usage: osascript timed out after %s", timeout))
		}
		return failed(classifyScriptError(err))
	}

	snap, err := DecodeScriptOutput(out)
	if s.Now != nil {
		snap.FetchedAt = s.Now()
	} else {
		snap.FetchedAt = time.Now()
	}
	return snap, err
}

// classifyScriptError maps well-known osascript failures to sentinels with
// remediation hints.
func classifyScriptError(err error) error {
	msg := err.Error()
	var ee *shell.ExitError
	if errors.As(err, &ee) {
		msg = ee.Stderr + " " + msg
	}
	switch {
	case strings.Contains(msg, "not allowed to send keystrokes"):
		return ErrAccessibility
	case strings.Contains(msg, "JavaScript"):
		return ErrJavaScriptDisabled
	}
	return fmt.Errorf("usage: running osascript: %w", err)
}
