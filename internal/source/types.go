package source

import (
	"encoding/json"
	"time"
)

// RawEntry is the subset of a Claude Code JSONL line used for activity.
type RawEntry struct {
	Type      string      `json:"type"`
	UserType  string      `json:"userType,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Cwd       string      `json:"cwd,omitempty"`
	Message   *RawMessage `json:"message,omitempty"`
}

// RawMessage is the message envelope of a user or assistant entry.
// Content is either a string or an array of blocks.
type RawMessage struct {
	ID        string          `json:"id,omitempty"`
	Role      string          `json:"role"`
	Timestamp string          `json:"timestamp,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
}

// RawBlock is one element of a message content array.
type RawBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// FileInput decodes the file fields of a tool_use input. Inputs of other
// shapes decode to the zero value.
func (b RawBlock) FileInput() RawInput {
	var in RawInput
	if len(b.Input) > 0 {
		_ = json.Unmarshal(b.Input, &in)
	}
	return in
}

// RawInput holds the tool_use input fields that describe file edits.
type RawInput struct {
	FilePath  string `json:"file_path,omitempty"`
	Content   string `json:"content,omitempty"`
	NewString string `json:"new_string,omitempty"`
}

// DiscoveredFile represents a JSONL file found during directory scanning.
type DiscoveredFile struct {
	Path        string
	Project     string // decoded display name (e.g., "gitlore")
	ProjectDir  string // raw directory name
	ProjectPath string // original absolute path (e.g., "/Users/me/gitlore")
	SessionID   string // extracted from filename
	ModTime     time.Time
}

// Activity is what one session file contributed inside a time range.
type Activity struct {
	Project       string
	ProjectPath   string
	SessionFile   string
	Timestamp     time.Time // latest in-range entry
	UserPrompts   []string
	FilesCreated  []string
	FilesModified []string
	ToolsUsed     map[string]int
	CodeBlocks    int
	LinesWritten  int
}
