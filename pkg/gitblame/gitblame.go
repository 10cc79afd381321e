// Package gitblame turns `git blame --porcelain` output into contiguous
// per-commit line segments. Git remains the external collaborator that
// computes blame; this package only runs it and parses what it prints.
package gitblame

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tracelens/tracelens/pkg/agenttrace"
)

const gitTimeout = 30 * time.Second

// git runs a git command in dir and returns stripped stdout.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// RepoRoot returns the top-level directory of the git repository
// containing dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	return git(ctx, dir, "rev-parse", "--show-toplevel")
}

// Blame runs git blame for the file at relPath under projectRoot and
// returns its grouped segments. The error is non-nil when the project is
// not a git repository or git cannot blame the file; callers degrade to
// an empty segment list.
func Blame(ctx context.Context, projectRoot, relPath string) ([]agenttrace.BlameSegment, error) {
	root, err := RepoRoot(ctx, projectRoot)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}

	full := filepath.Join(projectRoot, relPath)
	fileRel, err := filepath.Rel(root, full)
	if err != nil {
		fileRel = relPath
	}

	raw, err := git(ctx, root, "blame", "--porcelain", fileRel)
	if err != nil {
		return nil, err
	}

	records := ParsePorcelain(raw)
	if len(records) == 0 {
		return nil, fmt.Errorf("no blame data for %s", relPath)
	}
	return GroupSegments(records), nil
}

// Record is one blamed line from porcelain output.
type Record struct {
	CommitSHA  string
	OrigLine   int
	FinalLine  int
	Content    string
	Author     string
	AuthorTime int64
	Summary    string
}

// ParsePorcelain parses `git blame --porcelain` output into per-line
// records. Header fields for a commit appear once, on its first blamed
// line; later lines of the same commit reuse the cached header.
func ParsePorcelain(raw string) []Record {
	lines := strings.Split(raw, "\n")
	var records []Record
	headers := make(map[string]Record)

	i := 0
	for i < len(lines) {
		line := lines[i]
		if line == "" {
			i++
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 3 || !isCommitSHA(parts[0]) {
			i++
			continue
		}
		sha := parts[0]
		origLine, err1 := strconv.Atoi(parts[1])
		finalLine, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			i++
			continue
		}
		i++

		header, seen := headers[sha]
		if !seen {
			header = Record{CommitSHA: sha}
		}
		for i < len(lines) && !strings.HasPrefix(lines[i], "\t") {
			h := lines[i]
			switch {
			case strings.HasPrefix(h, "author "):
				header.Author = h[len("author "):]
			case strings.HasPrefix(h, "author-time "):
				if t, err := strconv.ParseInt(h[len("author-time "):], 10, 64); err == nil {
					header.AuthorTime = t
				}
			case strings.HasPrefix(h, "summary "):
				header.Summary = h[len("summary "):]
			}
			i++
		}
		headers[sha] = header

		var content string
		if i < len(lines) && strings.HasPrefix(lines[i], "\t") {
			content = lines[i][1:]
			i++
		}

		rec := header
		rec.OrigLine = origLine
		rec.FinalLine = finalLine
		rec.Content = content
		records = append(records, rec)
	}
	return records
}

// GroupSegments merges consecutive records that share a commit SHA and
// run on adjacent final lines into blame segments.
func GroupSegments(records []Record) []agenttrace.BlameSegment {
	var segments []agenttrace.BlameSegment
	for _, rec := range records {
		if n := len(segments); n > 0 {
			last := &segments[n-1]
			if last.CommitSHA == rec.CommitSHA && last.EndLine+1 == rec.FinalLine {
				last.EndLine = rec.FinalLine
				continue
			}
		}
		segments = append(segments, agenttrace.BlameSegment{
			StartLine:  rec.FinalLine,
			EndLine:    rec.FinalLine,
			CommitSHA:  rec.CommitSHA,
			Author:     rec.Author,
			AuthorTime: rec.AuthorTime,
			Summary:    rec.Summary,
		})
	}
	return segments
}

func isCommitSHA(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
