package usage

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Same patterns the in-browser script evaluates against document.body.innerText.
var (
	sessionBlock   = regexp.MustCompile(`(?i)Current session[\s\S]*?Resets in ([^\n]+)[\s\S]*?(\d+)% used`)
	allModelsBlock = regexp.MustCompile(`(?i)All models[\s\S]*?Resets ([^\n]+)[\s\S]*?(\d+)% used`)
	sonnetBlock    = regexp.MustCompile(`(?i)Sonnet only[\s\S]*?Resets ([^\n]+)[\s\S]*?(\d+)% used`)
)

// ParsePageText extracts the three windows from the rendered text of the
// usage page. Windows that are not found stay absent.
func ParsePageText(text string) Snapshot {
	var s Snapshot
	if reset, pct, ok := matchBlock(sessionBlock, text); ok {
		s.Session = Session{UsedPercent: pct, ResetIn: reset}
	}
	if reset, pct, ok := matchBlock(allModelsBlock, text); ok {
		s.AllModels = Weekly{UsedPercent: pct, ResetsAt: reset}
	}
	if reset, pct, ok := matchBlock(sonnetBlock, text); ok {
		s.Sonnet = Weekly{UsedPercent: pct, ResetsAt: reset}
	}
	return s
}

func matchBlock(re *regexp.Regexp, text string) (string, *int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", nil, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", nil, false
	}
	return strings.TrimSpace(m[1]), checkPercent(&n), true
}

// PageTextSource reads a saved copy of the page text from a file, or from
// Stdin when Path is "-".
type PageTextSource struct {
	Path  string
	Stdin io.Reader
	Now   func() time.Time
}

// Fetch implements TextSource. The interactive flag has no effect.
func (p *PageTextSource) Fetch(_ context.Context, _ bool) (Snapshot, error) {
	var (
		data []byte
		err  error
	)
	if p.Path == "-" {
		in := p.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(p.Path)
	}
	if err != nil {
		return failed(fmt.Errorf("usage: reading page text: %w", err))
	}

	snap := ParsePageText(string(data))
	if !snap.HasData() {
		return failed(fmt.Errorf("%w: no usage windows found in page text", ErrParse))
	}
	if p.Now != nil {
		snap.FetchedAt = p.Now()
	} else {
		snap.FetchedAt = time.Now()
	}
	return snap, nil
}
