// Package grouping buckets attributions two independent ways: by trace
// identity for the per-trace detail view and cross-highlighting, and by
// model/label for the toolbar legend and the by-model pie.
package grouping

import (
	"github.com/tracelens/tracelens/pkg/agenttrace"
)

// Group is an ordered bucket of attributions sharing one key. The
// representative is the first member and supplies shared display
// metadata (label, model id, conversation reference).
type Group struct {
	Key          string
	Label        string
	Attributions []agenttrace.Attribution
}

// Representative returns the first attribution of the group.
func (g Group) Representative() agenttrace.Attribution {
	return g.Attributions[0]
}

// ByTrace groups attributions by trace key (traceId:label, or the
// no-trace sentinel), preserving first-occurrence order.
func ByTrace(attrs []agenttrace.Attribution) []Group {
	return groupBy(attrs,
		agenttrace.Attribution.TraceKey,
		func(a agenttrace.Attribution) string { return a.AttributionLabel },
	)
}

// ByLegend groups attributions by legend key (AI:modelId for AI entries,
// bare label otherwise), collapsing traces that share a model into one
// entry and preserving first-occurrence order.
func ByLegend(attrs []agenttrace.Attribution) []Group {
	return groupBy(attrs,
		agenttrace.Attribution.LegendKey,
		agenttrace.Attribution.LegendLabel,
	)
}

func groupBy(attrs []agenttrace.Attribution, keyFn, labelFn func(agenttrace.Attribution) string) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, a := range attrs {
		key := keyFn(a)
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Label: labelFn(a)})
		}
		groups[i].Attributions = append(groups[i].Attributions, a)
	}
	return groups
}

// TraceKeyOf returns the trace key a pinned line's attribution shares
// with every other range of the same logical origin, or "" for nil.
func TraceKeyOf(a *agenttrace.Attribution) string {
	if a == nil {
		return ""
	}
	return a.TraceKey()
}
