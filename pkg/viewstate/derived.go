package viewstate

import (
	"github.com/tracelens/tracelens/pkg/agenttrace"
	"github.com/tracelens/tracelens/pkg/attrindex"
	"github.com/tracelens/tracelens/pkg/coverage"
	"github.com/tracelens/tracelens/pkg/grouping"
	"github.com/tracelens/tracelens/pkg/palette"
	"github.com/tracelens/tracelens/pkg/piechart"
)

// UncoveredKey labels the residual pie slice for lines no attribution
// covers.
const UncoveredKey = "__uncovered__"

// Derived bundles every structure recomputed from the snapshot: the
// line index, trace colors, both groupings, uncovered ranges, and the
// by-model pie geometry.
type Derived struct {
	Index        *attrindex.Index
	Colors       map[string]palette.Pair
	TraceGroups  []grouping.Group
	LegendGroups []grouping.Group
	Uncovered    []coverage.Range
	UncoveredPct float64
	Slices       []piechart.Slice
}

// Derived returns the structures derived from the current snapshot.
func (c *Controller) Derived() Derived {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.derived
}

// PinnedTraceKey returns the trace key of the pinned line's
// attribution, used for cross-highlighting every range of the same
// trace, or "" when nothing relevant is pinned.
func (c *Controller) PinnedTraceKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pinnedLine == 0 || !c.toggles.TraceBlame {
		return ""
	}
	return grouping.TraceKeyOf(c.derived.Index.FindAttribution(c.pinnedLine))
}

// recomputeLocked rebuilds the derived structures. Called under the
// lock after every snapshot or toggle transition; cheap enough that
// nothing is memoized.
func (c *Controller) recomputeLocked() {
	attrs := c.snap.Attributions
	total := c.snap.TotalLines()

	d := Derived{
		Index:        attrindex.New(c.snap.Segments, attrs),
		Colors:       palette.BuildColorMap(attrs),
		TraceGroups:  grouping.ByTrace(attrs),
		LegendGroups: grouping.ByLegend(attrs),
		Uncovered:    coverage.UncoveredRanges(total, attrs),
		UncoveredPct: coverage.UncoveredPct(total, attrs),
	}

	inputs := make([]piechart.Input, 0, len(d.LegendGroups)+1)
	for _, g := range d.LegendGroups {
		pct := coverage.GroupPct(g.Attributions, total)
		if pct <= 0 {
			continue
		}
		rep := g.Representative()
		inputs = append(inputs, piechart.Input{
			Key:   g.Key,
			Label: g.Label,
			Pct:   pct,
			Color: palette.ForAttribution(&rep, d.Colors),
		})
	}
	if d.UncoveredPct > 0 {
		inputs = append(inputs, piechart.Input{
			Key:   UncoveredKey,
			Label: agenttrace.LabelUnattributed,
			Pct:   d.UncoveredPct,
			Color: palette.Unattributed,
		})
	}
	d.Slices = piechart.BuildSlices(inputs)

	c.derived = d
}
