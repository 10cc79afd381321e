// Package attrindex resolves line numbers to the blame segment and
// attribution that own them for the currently selected file.
package attrindex

import (
	"github.com/tracelens/tracelens/pkg/agenttrace"
)

// Index performs interval lookup over one file's blame segments and
// attributions. Lookups scan in input order and return the first match,
// which makes the behavior deterministic even for malformed, overlapping
// inputs. The zero value is an empty index.
type Index struct {
	segments     []agenttrace.BlameSegment
	attributions []agenttrace.Attribution
}

// New builds an index over the given segments and attributions. The
// slices are retained, not copied; callers rebuild the index whenever the
// file snapshot changes.
func New(segments []agenttrace.BlameSegment, attributions []agenttrace.Attribution) *Index {
	return &Index{segments: segments, attributions: attributions}
}

// FindSegment returns the first segment whose range contains line, or nil
// when no segment covers it.
func (ix *Index) FindSegment(line int) *agenttrace.BlameSegment {
	for i := range ix.segments {
		if ix.segments[i].Contains(line) {
			return &ix.segments[i]
		}
	}
	return nil
}

// FindAttribution returns the first attribution whose range contains
// line, or nil when no attribution covers it.
func (ix *Index) FindAttribution(line int) *agenttrace.Attribution {
	for i := range ix.attributions {
		if ix.attributions[i].Contains(line) {
			return &ix.attributions[i]
		}
	}
	return nil
}

// Attributions returns the indexed attribution list in input order.
func (ix *Index) Attributions() []agenttrace.Attribution {
	return ix.attributions
}

// Segments returns the indexed segment list in input order.
func (ix *Index) Segments() []agenttrace.BlameSegment {
	return ix.segments
}

// LineOwners maps every line of a file to the index (into the input
// attribution list) of its owning attribution, or -1 when uncovered.
// Whole-file classifiers use this single pass instead of calling
// FindAttribution once per line.
func (ix *Index) LineOwners(totalLines int) []int {
	if totalLines <= 0 {
		return nil
	}
	owners := make([]int, totalLines+1) // 1-based; owners[0] unused
	for line := 1; line <= totalLines; line++ {
		owners[line] = -1
	}
	for i := len(ix.attributions) - 1; i >= 0; i-- {
		a := ix.attributions[i]
		start := max(a.StartLine, 1)
		end := min(a.EndLine, totalLines)
		// Walking the list backwards lets later writes be overwritten by
		// earlier attributions, preserving first-match-wins.
		for line := start; line <= end; line++ {
			owners[line] = i
		}
	}
	return owners
}
