// Package registry loads the claude-built registry of user-made skills,
// CLIs and shortcuts, tracks favorites and usage, and launches items.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// File names inside the registry directory.
const (
	RegistryFile  = "claude-built-registry.json"
	UsageFile     = "claude-built-usage.json"
	FavoritesFile = "claude-built-favorites.json"
)

// ItemType classifies a registry item.
type ItemType string

const (
	TypeSkill   ItemType = "skill"
	TypeCLI     ItemType = "cli"
	TypeRaycast ItemType = "raycast"
	TypeAlias   ItemType = "alias"
	TypeTool    ItemType = "tool"
)

// ItemTypes lists every item type in display order.
var ItemTypes = []ItemType{TypeSkill, TypeCLI, TypeRaycast, TypeAlias, TypeTool}

// ExecutionType selects how an item is launched.
type ExecutionType string

const (
	ExecTerminal ExecutionType = "terminal"
	ExecDeeplink ExecutionType = "raycast-deeplink"
	ExecShell    ExecutionType = "shell"
	ExecOpen     ExecutionType = "open"
)

// Execution describes how to launch an item.
type Execution struct {
	Type     ExecutionType `json:"type"`
	Command  string        `json:"command,omitempty"`
	Args     []string      `json:"args,omitempty"`
	Deeplink string        `json:"deeplink,omitempty"`
}

// Item is one registry entry.
type Item struct {
	ID          string    `json:"id"`
	Type        ItemType  `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Path        string    `json:"path"`
	Trigger     string    `json:"trigger,omitempty"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at,omitempty"`
	LastUsed    string    `json:"last_used,omitempty"`
	UseCount    int       `json:"use_count"`
	Tags        []string  `json:"tags"`
	Execution   Execution `json:"execution"`
}

// Registry is the generated registry file.
type Registry struct {
	Version     string `json:"version"`
	GeneratedAt string `json:"generated_at"`
	Items       []Item `json:"items"`
}

// ErrNotFound means the registry file does not exist yet.
var ErrNotFound = errors.New("registry: not found (run generate-claude-built-registry first)")

// Dir resolves the registry directory: $PAI_DIR when set, else the
// configured directory, else ~/.claude.
func Dir(configured string) string {
	if d := os.Getenv("PAI_DIR"); d != "" {
		return d
	}
	if configured != "" {
		return ExpandPath(configured)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// Load reads and decodes a registry file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("registry: reading %s: %w", path, err)
	}
	var r Registry
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("registry: parsing %s: %w", path, err)
	}
	return &r, nil
}

// Find returns the item with the given id, or the first item whose name
// matches case-insensitively.
func (r *Registry) Find(idOrName string) (Item, bool) {
	for _, it := range r.Items {
		if it.ID == idOrName {
			return it, true
		}
	}
	for _, it := range r.Items {
		if strings.EqualFold(it.Name, idOrName) {
			return it, true
		}
	}
	return Item{}, false
}

// Modified is UpdatedAt, falling back to CreatedAt. Unparseable values are
// the zero time.
func (it Item) Modified() time.Time {
	s := it.UpdatedAt
	if s == "" {
		s = it.CreatedAt
	}
	return parseTime(s)
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SortByRecency orders items by modification time, newest first, then by
// use count. The input is not modified.
func SortByRecency(items []Item) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Modified(), out[j].Modified()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].UseCount > out[j].UseCount
	})
	return out
}

// SortForDisplay puts favorites first, then orders by modification time.
func SortForDisplay(items []Item, favs map[string]bool) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		fi, fj := favs[out[i].ID], favs[out[j].ID]
		if fi != fj {
			return fi
		}
		return out[i].Modified().After(out[j].Modified())
	})
	return out
}

// Filter keeps items matching filter: "all", "favorites" or an item type.
func Filter(items []Item, filter string, favs map[string]bool) []Item {
	if filter == "" || filter == "all" {
		return items
	}
	var out []Item
	for _, it := range items {
		switch {
		case filter == "favorites" && favs[it.ID]:
			out = append(out, it)
		case string(it.Type) == filter:
			out = append(out, it)
		}
	}
	return out
}

// ValidFilter reports whether filter is accepted by Filter.
func ValidFilter(filter string) bool {
	if filter == "all" || filter == "favorites" {
		return true
	}
	for _, t := range ItemTypes {
		if string(t) == filter {
			return true
		}
	}
	return false
}

// RelativeTime renders how long ago t was, coarsening from minutes to
// months and falling back to the date.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	secs := int(d / time.Second)
	mins := secs / 60
	hours := mins / 60
	days := hours / 24
	weeks := days / 7
	months := days / 30

	switch {
	case secs < 60:
		return "just now"
	case mins < 60:
		return fmt.Sprintf("%dm ago", mins)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	case weeks < 4:
		return fmt.Sprintf("%dw ago", weeks)
	case months < 12:
		return fmt.Sprintf("%dmo ago", months)
	}
	return t.Local().Format("1/2/2006")
}

// RelativeTimeString parses an RFC 3339 timestamp and renders it with
// RelativeTime. Unparseable input renders as "".
func RelativeTimeString(s string, now time.Time) string {
	t := parseTime(s)
	if t.IsZero() {
		return ""
	}
	return RelativeTime(t, now)
}

// ExpandPath replaces every "~" with the home directory.
func ExpandPath(p string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return strings.ReplaceAll(p, "~", home)
}

// FolderPath is the directory containing an item's path.
func FolderPath(p string) string {
	return filepath.Dir(ExpandPath(p))
}

var docFiles = []string{"README.md", "readme.md", "DOCS.md", "docs.md", "DOC.md"}

// FindDocumentation returns the first documentation file next to an item's
// path, or "".
func FindDocumentation(itemPath string) string {
	folder := FolderPath(itemPath)
	for _, name := range docFiles {
		p := filepath.Join(folder, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Markdown renders an item's detail page. Empty lines and fields are
// dropped.
func Markdown(it Item) string {
	cmd := it.Execution.Command
	if cmd == "" {
		cmd = it.Execution.Deeplink
	}
	trigger := ""
	if it.Trigger != "" {
		trigger = "**Trigger:** `" + it.Trigger + "`"
	}
	lines := []string{
		"# " + it.Name,
		"**Type:** " + string(it.Type),
		"**Path:** `" + it.Path + "`",
		trigger,
		"## Description",
		it.Description,
		"## Execution",
		"```",
		cmd,
		"```",
		"**Tags:** " + strings.Join(it.Tags, ", "),
	}
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
