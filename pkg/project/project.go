// Package project exposes the selected project to the viewer: its
// agent-trace descriptor, a traversal-safe view of its file tree, and
// text file contents.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Storage modes recorded in .agent-trace/config.json.
const (
	StorageLocal  = "local"
	StorageRemote = "remote"
)

// Descriptor is the project endpoint payload.
type Descriptor struct {
	Root          string `json:"root"`
	Storage       string `json:"storage"`
	HasAgentTrace bool   `json:"has_agent_trace"`
}

// TraceConfig is the subset of .agent-trace/config.json the viewer needs.
type TraceConfig struct {
	Storage    string `json:"storage"`
	ServiceURL string `json:"service_url"`
	ProjectID  string `json:"project_id"`
	AuthToken  string `json:"auth_token"`
}

// ErrOutsideRoot is returned when a requested path escapes the project.
var ErrOutsideRoot = errors.New("path outside project root")

// Describe reads the project descriptor. A missing or unreadable trace
// config degrades to local storage with has_agent_trace=false.
func Describe(root string) Descriptor {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	desc := Descriptor{Root: abs, Storage: StorageLocal}
	cfg, err := LoadTraceConfig(abs)
	if err != nil {
		return desc
	}
	desc.HasAgentTrace = true
	if cfg.Storage != "" {
		desc.Storage = cfg.Storage
	}
	return desc
}

// LoadTraceConfig reads .agent-trace/config.json under root.
func LoadTraceConfig(root string) (*TraceConfig, error) {
	data, err := os.ReadFile(filepath.Join(root, ".agent-trace", "config.json"))
	if err != nil {
		return nil, fmt.Errorf("reading trace config: %w", err)
	}
	var cfg TraceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing trace config: %w", err)
	}
	return &cfg, nil
}

// Resolve joins relPath onto root and rejects paths that escape it.
func Resolve(root, relPath string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	full := filepath.Clean(filepath.Join(abs, strings.TrimPrefix(relPath, "/")))
	if full != abs && !strings.HasPrefix(full, abs+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// Entry is one row of a directory listing.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "file" or "dir"
}

// Tree lists the entries directly under root/relPath, sorted by name.
// Dotfiles and .gitignore'd entries are hidden. Paths outside the root
// and non-directories yield an empty listing rather than an error.
func Tree(root, relPath string) []Entry {
	full, err := Resolve(root, relPath)
	if err != nil {
		return nil
	}
	dirents, err := os.ReadDir(full)
	if err != nil {
		return nil
	}

	ignore := readGitignore(root)
	abs, _ := filepath.Abs(root)

	var entries []Entry
	for _, d := range dirents {
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		rel, err := filepath.Rel(abs, filepath.Join(full, name))
		if err != nil || ignored(rel, ignore) {
			continue
		}
		kind := "file"
		if d.IsDir() {
			kind = "dir"
		}
		entries = append(entries, Entry{Name: name, Path: filepath.ToSlash(rel), Type: kind})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// readGitignore loads the root .gitignore as a flat pattern set.
// Matching is deliberately simplified: exact path, path prefix for
// anchored patterns, and path-component match otherwise.
func readGitignore(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns
}

func ignored(rel string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	for _, p := range patterns {
		if anchored, ok := strings.CutPrefix(p, "/"); ok {
			anchored = strings.TrimSuffix(anchored, "/")
			if rel == anchored || strings.HasPrefix(rel, anchored+"/") {
				return true
			}
			continue
		}
		p = strings.TrimSuffix(p, "/")
		if rel == p || strings.HasSuffix(rel, "/"+p) {
			return true
		}
		for _, part := range parts {
			if part == p {
				return true
			}
		}
	}
	return false
}
