package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScanDir lists the session files directly under each Claude project
// directory. Hidden project directories are skipped and a missing projects
// directory yields no files.
func ScanDir(claudeDir string) ([]DiscoveredFile, error) {
	root := filepath.Join(claudeDir, "projects")
	projects, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var files []DiscoveredFile
	for _, p := range projects {
		if p.IsDir() && !strings.HasPrefix(p.Name(), ".") {
			files = append(files, scanProject(root, p.Name())...)
		}
	}
	return files, nil
}

// scanProject skips unreadable directories and entries.
func scanProject(root, encoded string) []DiscoveredFile {
	entries, err := os.ReadDir(filepath.Join(root, encoded))
	if err != nil {
		return nil
	}
	var (
		name = decodeProjectName(encoded)
		path = decodeProjectPath(encoded)
		out  []DiscoveredFile
	)
	for _, e := range entries {
		session, ok := strings.CutSuffix(e.Name(), ".jsonl")
		if e.IsDir() || !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, DiscoveredFile{
			Path:        filepath.Join(root, encoded, e.Name()),
			Project:     name,
			ProjectDir:  encoded,
			ProjectPath: path,
			SessionID:   session,
			ModTime:     info.ModTime(),
		})
	}
	return out
}

// projectParents are directory names that usually sit right above a
// project checkout.
var projectParents = map[string]bool{
	"projects": true, "repos": true, "src": true,
	"code": true, "workspace": true, "dev": true,
}

// decodeProjectName turns an encoded directory such as
// "-Users-me-projects-my-cool-project" into "my-cool-project": everything
// after the last known parent, else the last non-empty segment.
func decodeProjectName(encoded string) string {
	parts := strings.Split(encoded, "-")
	for i := len(parts) - 2; i >= 0; i-- {
		if !projectParents[strings.ToLower(parts[i])] {
			continue
		}
		if name := strings.Join(parts[i+1:], "-"); name != "" {
			return name
		}
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return encoded
}

// decodeProjectPath reverses the encoding as far as it can: hyphens inside
// path segments are indistinguishable from separators, so every "-" becomes
// "/".
func decodeProjectPath(encoded string) string {
	return "/" + strings.TrimPrefix(strings.ReplaceAll(encoded, "-", "/"), "/")
}

// CountProjects counts the distinct projects among files.
func CountProjects(files []DiscoveredFile) int {
	seen := make(map[string]bool)
	for _, f := range files {
		seen[f.ProjectDir] = true
	}
	return len(seen)
}
