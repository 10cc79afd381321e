// Package piechart converts grouped coverage percentages into ordered
// angular slice geometry for the by-model pie.
package piechart

import (
	"github.com/tracelens/tracelens/pkg/palette"
)

// Input is one (label, pct, color) entry for the pie, pre-filtered by the
// caller to pct > 0 and normalized to a total of at most 100.
type Input struct {
	Key   string
	Label string
	Pct   float64
	Color palette.Pair
}

// Slice is one pie slice. Angles are degrees, 0 at the top (12 o'clock),
// increasing clockwise, cumulative across slices.
type Slice struct {
	Key        string       `json:"key"`
	Label      string       `json:"label"`
	Pct        float64      `json:"pct"`
	StartAngle float64      `json:"start_angle"`
	EndAngle   float64      `json:"end_angle"`
	Color      palette.Pair `json:"color"`
}

// BuildSlices lays out the inputs as slices by running cumulative sum of
// pct converted to degrees, in input order. A cumulative total below 100
// leaves a gap rather than being stretched; inputs summing above 100 are
// the caller's bug. Zero inputs yield an empty slice list, which callers
// render as an empty state.
func BuildSlices(inputs []Input) []Slice {
	slices := make([]Slice, 0, len(inputs))
	cum := 0.0
	for _, in := range inputs {
		start := cum / 100 * 360
		cum += in.Pct
		end := cum / 100 * 360
		slices = append(slices, Slice{
			Key:        in.Key,
			Label:      in.Label,
			Pct:        in.Pct,
			StartAngle: start,
			EndAngle:   end,
			Color:      in.Color,
		})
	}
	return slices
}
