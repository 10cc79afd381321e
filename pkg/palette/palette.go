// Package palette assigns deterministic colors to attribution traces and
// fixed categories for the overlay gutters, legend, and pie chart.
package palette

import (
	"github.com/tracelens/tracelens/pkg/agenttrace"
)

// Pair is a fill color plus a stronger accent used for highlights and
// gutter markers. Values are hex strings consumed by the renderer.
type Pair struct {
	Fill   string `json:"fill"`
	Accent string `json:"accent"`
}

// tracePalette is the fixed 8-entry palette for AI traces, assigned in
// first-seen order and wrapping modulo 8.
var tracePalette = [8]Pair{
	{Fill: "#7c5cff", Accent: "#9d85ff"},
	{Fill: "#00b8a9", Accent: "#3fd6c9"},
	{Fill: "#f28c28", Accent: "#ffac5e"},
	{Fill: "#d6457c", Accent: "#ef6f9f"},
	{Fill: "#3f8efc", Accent: "#72adff"},
	{Fill: "#8fb339", Accent: "#b0d155"},
	{Fill: "#b06ab3", Accent: "#cc8fd0"},
	{Fill: "#e2b714", Accent: "#f5d247"},
}

// Reserved colors. Human, Mixed, and Unattributed never draw from the
// trace palette; DefaultAI covers AI attributions without a trace id.
var (
	Human        = Pair{Fill: "#4a5568", Accent: "#718096"}
	Mixed        = Pair{Fill: "#975a16", Accent: "#b7791f"}
	Unattributed = Pair{Fill: "#2d3748", Accent: "#4a5568"}
	DefaultAI    = Pair{Fill: "#6b46c1", Accent: "#805ad5"}
)

// Size is the number of entries in the trace palette.
const Size = len(tracePalette)

// Entry returns the palette pair at index i mod Size.
func Entry(i int) Pair {
	return tracePalette[((i%Size)+Size)%Size]
}

// BuildColorMap assigns a palette pair to every distinct trace id found
// in the attribution list, in first-occurrence order, wrapping modulo the
// palette size. Only AI-labelled attributions (or unlabeled ones that
// carry a model id) claim palette slots. Re-invoking on the same ordered
// list yields the identical mapping, which keeps colors stable across
// re-renders that do not change the snapshot.
func BuildColorMap(attributions []agenttrace.Attribution) map[string]Pair {
	colors := make(map[string]Pair)
	next := 0
	for _, a := range attributions {
		if a.TraceID == "" {
			continue
		}
		if a.AttributionLabel != agenttrace.LabelAI &&
			!(a.AttributionLabel == "" && a.ModelID != "") {
			continue
		}
		if _, seen := colors[a.TraceID]; seen {
			continue
		}
		colors[a.TraceID] = Entry(next)
		next++
	}
	return colors
}

// ForAttribution resolves the display pair for one attribution against a
// color map built by BuildColorMap. Nil attributions resolve to the
// Unattributed reserved pair.
func ForAttribution(a *agenttrace.Attribution, colors map[string]Pair) Pair {
	if a == nil {
		return Unattributed
	}
	switch a.AttributionLabel {
	case agenttrace.LabelHuman:
		return Human
	case agenttrace.LabelMixed:
		return Mixed
	}
	if a.TraceID != "" {
		if pair, ok := colors[a.TraceID]; ok {
			return pair
		}
	}
	return DefaultAI
}
