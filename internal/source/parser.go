// Package source discovers Claude Code JSONL session files and extracts
// per-session activity from them.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxPromptLen caps the stored length of a user prompt, in runes.
const MaxPromptLen = 300

var (
	patTimestamp1 = []byte(`"timestamp":"`)
	patTimestamp2 = []byte(`"timestamp": "`)
	patFence      = []byte("```")
)

// ActivityResult holds the output of parsing a single JSONL file.
type ActivityResult struct {
	Activity    Activity
	InRange     bool // at least one entry fell inside [start, end]
	ParseErrors int
	Err         error
}

// ParseActivity reads a JSONL session file and collects what happened in it.
// Prompts, tools and file edits are gathered from the whole file; the
// Timestamp is the latest entry inside [start, end].
//
// Entry routing by top-level "type" field:
//   - "user", "assistant" → full JSON parse (prompts, tools, files)
//   - everything else     → byte-level timestamp extraction
func ParseActivity(df DiscoveredFile, start, end time.Time) ActivityResult {
	f, err := os.Open(df.Path)
	if err != nil {
		return ActivityResult{Err: err}
	}
	defer func() { _ = f.Close() }()

	act := Activity{
		Project:     df.Project,
		ProjectPath: df.ProjectPath,
		SessionFile: df.Path,
		ToolsUsed:   make(map[string]int),
	}
	var (
		inRange     bool
		parseErrors int
	)

	observe := func(ts time.Time) {
		if ts.Before(start) || ts.After(end) {
			return
		}
		inRange = true
		if ts.After(act.Timestamp) {
			act.Timestamp = ts
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 8*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		switch extractTopLevelType(line) {
		case "user", "assistant":
			var entry RawEntry
			if err := json.Unmarshal(line, &entry); err != nil {
				parseErrors++
				continue
			}
			if ts, ok := entryTime(entry); ok {
				observe(ts)
			}
			collect(&act, entry)

		default:
			if !json.Valid(line) {
				parseErrors++
				continue
			}
			if ts, ok := extractTimestampBytes(line); ok {
				observe(ts)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return ActivityResult{Err: err}
	}

	return ActivityResult{
		Activity:    act,
		InRange:     inRange,
		ParseErrors: parseErrors,
	}
}

func entryTime(e RawEntry) (time.Time, bool) {
	s := e.Timestamp
	if s == "" && e.Message != nil {
		s = e.Message.Timestamp
	}
	if s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func collect(act *Activity, e RawEntry) {
	msg := e.Message
	if msg == nil || len(msg.Content) == 0 {
		return
	}

	switch {
	case e.UserType == "external" && msg.Role == "user":
		for _, text := range promptTexts(msg.Content) {
			if strings.HasPrefix(text, "<system") {
				continue
			}
			if p := truncateRunes(strings.TrimSpace(text), MaxPromptLen); p != "" {
				act.UserPrompts = append(act.UserPrompts, p)
			}
		}

	case msg.Role == "assistant":
		var blocks []RawBlock
		if err := json.Unmarshal(msg.Content, &blocks); err != nil {
			return // plain string reply, nothing to count
		}
		for _, b := range blocks {
			switch b.Type {
			case "tool_use":
				if b.Name == "" {
					continue
				}
				act.ToolsUsed[b.Name]++
				if b.Name != "Write" && b.Name != "Edit" {
					continue
				}
				in := b.FileInput()
				if in.FilePath == "" {
					continue
				}
				if b.Name == "Write" {
					act.FilesCreated = append(act.FilesCreated, in.FilePath)
					act.LinesWritten += countLines(in.Content)
				} else {
					act.FilesModified = append(act.FilesModified, in.FilePath)
					act.LinesWritten += countLines(in.NewString)
				}
			case "text":
				act.CodeBlocks += bytes.Count([]byte(b.Text), patFence) / 2
			}
		}
	}
}

// promptTexts returns the text parts of a user message. Content may be a
// string, or an array mixing strings and {"type":"text"} blocks.
func promptTexts(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []string
	for _, it := range items {
		if err := json.Unmarshal(it, &s); err == nil {
			out = append(out, s)
			continue
		}
		var b RawBlock
		if err := json.Unmarshal(it, &b); err == nil && b.Type == "text" && b.Text != "" {
			out = append(out, b.Text)
		}
	}
	return out
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// typeKey is the byte sequence for a JSON key named "type" (with quotes).
var typeKey = []byte(`"type"`)

// extractTopLevelType finds the top-level "type" field in a JSONL line.
// Tracks brace depth and string boundaries so nested "type" keys are ignored.
// Early-exits once found, making cost O(1) vs line length.
func extractTopLevelType(line []byte) string {
	depth := 0
	for i := 0; i < len(line); {
		switch line[i] {
		case '"':
			if depth == 1 && bytes.HasPrefix(line[i:], typeKey) {
				val, isKey := classifyType(line, i+len(typeKey))
				if isKey {
					return val
				}
			}
			i = skipJSONString(line, i)
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
		default:
			i++
		}
	}
	return ""
}

// classifyType checks whether pos follows a JSON key (expects : then value).
// isKey=false means "type" appeared as a value and the caller should continue.
func classifyType(line []byte, pos int) (val string, isKey bool) {
	i := skipSpaces(line, pos)
	if i >= len(line) || line[i] != ':' {
		return "", false
	}
	i = skipSpaces(line, i+1)
	if i >= len(line) || line[i] != '"' {
		return "", true
	}
	i++

	end := bytes.IndexByte(line[i:], '"')
	if end < 0 || end > 20 {
		return "", true
	}
	v := string(line[i : i+end])
	switch v {
	case "assistant", "user":
		return v, true
	}
	return "", true
}

// skipJSONString advances past a JSON string starting at the opening quote.
//
//nolint:gosec // manual bounds checking throughout
func skipJSONString(line []byte, i int) int {
	i++
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

func skipSpaces(line []byte, i int) int {
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}

// extractTimestampBytes extracts the timestamp field via byte scanning.
func extractTimestampBytes(line []byte) (time.Time, bool) {
	for _, pat := range [][]byte{patTimestamp1, patTimestamp2} {
		idx := bytes.Index(line, pat)
		if idx < 0 {
			continue
		}
		start := idx + len(pat)
		end := bytes.IndexByte(line[start:], '"')
		if end < 0 || end > 40 {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, string(line[start:start+end]))
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	}
	return time.Time{}, false
}
