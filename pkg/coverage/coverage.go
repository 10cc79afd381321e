// Package coverage aggregates attribution ranges into line counts,
// percentages, and merged uncovered ranges for one file.
package coverage

import (
	"github.com/tracelens/tracelens/pkg/agenttrace"
)

// Range is a closed interval of line numbers.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// CoveredLineCount counts the distinct line numbers covered by the given
// attributions. Ranges are non-overlapping by contract, but overlapping
// input is counted once per line rather than double-counted.
func CoveredLineCount(attrs []agenttrace.Attribution) int {
	seen := make(map[int]struct{})
	for _, a := range attrs {
		for line := a.StartLine; line <= a.EndLine; line++ {
			seen[line] = struct{}{}
		}
	}
	return len(seen)
}

// UncoveredRanges scans lines 1..totalLines and merges every maximal run
// of lines no attribution covers into a closed range, ascending.
// totalLines <= 0 yields nil.
func UncoveredRanges(totalLines int, attrs []agenttrace.Attribution) []Range {
	if totalLines <= 0 {
		return nil
	}
	covered := make([]bool, totalLines+1) // 1-based
	for _, a := range attrs {
		start := max(a.StartLine, 1)
		end := min(a.EndLine, totalLines)
		for line := start; line <= end; line++ {
			covered[line] = true
		}
	}

	var ranges []Range
	start := 0
	for line := 1; line <= totalLines; line++ {
		if covered[line] {
			if start != 0 {
				ranges = append(ranges, Range{Start: start, End: line - 1})
				start = 0
			}
			continue
		}
		if start == 0 {
			start = line
		}
	}
	if start != 0 {
		ranges = append(ranges, Range{Start: start, End: totalLines})
	}
	return ranges
}

// UncoveredLineCount is the number of lines no attribution covers.
func UncoveredLineCount(totalLines int, attrs []agenttrace.Attribution) int {
	total := 0
	for _, r := range UncoveredRanges(totalLines, attrs) {
		total += r.End - r.Start + 1
	}
	return total
}

// GroupPct converts the covered line count of one group into a
// percentage of the file. A zero-length file is 0%, never a division
// error.
func GroupPct(attrs []agenttrace.Attribution, totalLines int) float64 {
	if totalLines <= 0 {
		return 0
	}
	return 100 * float64(CoveredLineCount(attrs)) / float64(totalLines)
}

// UncoveredPct is the percentage of lines no attribution covers.
func UncoveredPct(totalLines int, attrs []agenttrace.Attribution) float64 {
	if totalLines <= 0 {
		return 0
	}
	return 100 * float64(UncoveredLineCount(totalLines, attrs)) / float64(totalLines)
}
