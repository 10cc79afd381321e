package piechart_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/palette"
	"github.com/tracelens/tracelens/pkg/piechart"
)

var _ = Describe("BuildSlices", func() {
	It("converts percentages into cumulative clockwise degrees from the top", func() {
		slices := piechart.BuildSlices([]piechart.Input{
			{Key: "a", Label: "A", Pct: 50, Color: palette.Entry(0)},
			{Key: "b", Label: "B", Pct: 25, Color: palette.Entry(1)},
			{Key: "c", Label: "C", Pct: 25, Color: palette.Entry(2)},
		})
		Expect(slices).To(HaveLen(3))
		Expect(slices[0].StartAngle).To(BeNumerically("~", 0.0, 1e-9))
		Expect(slices[0].EndAngle).To(BeNumerically("~", 180.0, 1e-9))
		Expect(slices[1].StartAngle).To(BeNumerically("~", 180.0, 1e-9))
		Expect(slices[1].EndAngle).To(BeNumerically("~", 270.0, 1e-9))
		Expect(slices[2].EndAngle).To(BeNumerically("~", 360.0, 1e-9))
	})

	It("keeps angles monotonic and ends at 360*totalPct/100", func() {
		inputs := []piechart.Input{
			{Key: "a", Pct: 12.5},
			{Key: "b", Pct: 7.25},
			{Key: "c", Pct: 40},
		}
		slices := piechart.BuildSlices(inputs)
		total := 0.0
		prevEnd := 0.0
		for _, s := range slices {
			Expect(s.StartAngle).To(BeNumerically("~", prevEnd, 1e-9))
			Expect(s.EndAngle).To(BeNumerically(">=", s.StartAngle))
			prevEnd = s.EndAngle
			total += s.Pct
		}
		Expect(slices[len(slices)-1].EndAngle).To(BeNumerically("~", 360*total/100, 1e-9))
	})

	It("does not correct totals below 100", func() {
		slices := piechart.BuildSlices([]piechart.Input{{Key: "a", Pct: 40}})
		Expect(slices[0].EndAngle).To(BeNumerically("~", 144.0, 1e-9))
	})

	It("yields an empty list for no groups", func() {
		Expect(piechart.BuildSlices(nil)).To(BeEmpty())
	})

	It("preserves input order and metadata", func() {
		slices := piechart.BuildSlices([]piechart.Input{
			{Key: "b", Label: "Bee", Pct: 10, Color: palette.Human},
			{Key: "a", Label: "Ay", Pct: 10, Color: palette.Mixed},
		})
		Expect(slices[0].Key).To(Equal("b"))
		Expect(slices[0].Color).To(Equal(palette.Human))
		Expect(slices[1].Label).To(Equal("Ay"))
	})
})
