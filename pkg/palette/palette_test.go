package palette_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/agenttrace"
	"github.com/tracelens/tracelens/pkg/palette"
)

func aiAttr(trace string) agenttrace.Attribution {
	return agenttrace.Attribution{
		StartLine:        1,
		EndLine:          1,
		AttributionLabel: agenttrace.LabelAI,
		TraceID:          trace,
	}
}

var _ = Describe("BuildColorMap", func() {
	It("assigns palette entry i mod 8 to the i-th distinct trace id", func() {
		var attrs []agenttrace.Attribution
		for i := 0; i < 11; i++ {
			attrs = append(attrs, aiAttr(fmt.Sprintf("trace-%d", i)))
		}
		colors := palette.BuildColorMap(attrs)
		Expect(colors).To(HaveLen(11))
		for i := 0; i < 11; i++ {
			Expect(colors[fmt.Sprintf("trace-%d", i)]).To(Equal(palette.Entry(i)), "trace-%d", i)
		}
		// Wrap-around: the 9th trace reuses the first slot.
		Expect(colors["trace-8"]).To(Equal(colors["trace-0"]))
	})

	It("is idempotent for the same ordered input", func() {
		attrs := []agenttrace.Attribution{aiAttr("b"), aiAttr("a"), aiAttr("b"), aiAttr("c")}
		Expect(palette.BuildColorMap(attrs)).To(Equal(palette.BuildColorMap(attrs)))
	})

	It("keeps first-occurrence order regardless of repeats", func() {
		attrs := []agenttrace.Attribution{aiAttr("b"), aiAttr("a"), aiAttr("b")}
		colors := palette.BuildColorMap(attrs)
		Expect(colors["b"]).To(Equal(palette.Entry(0)))
		Expect(colors["a"]).To(Equal(palette.Entry(1)))
	})

	It("ignores non-AI attributions and entries without a trace id", func() {
		attrs := []agenttrace.Attribution{
			{StartLine: 1, EndLine: 1, AttributionLabel: agenttrace.LabelHuman, TraceID: "h1"},
			{StartLine: 2, EndLine: 2, AttributionLabel: agenttrace.LabelAI},
			aiAttr("t1"),
		}
		colors := palette.BuildColorMap(attrs)
		Expect(colors).To(HaveLen(1))
		Expect(colors["t1"]).To(Equal(palette.Entry(0)))
	})

	It("admits unlabeled entries that carry a model id", func() {
		attrs := []agenttrace.Attribution{
			{StartLine: 1, EndLine: 1, TraceID: "t1", ModelID: "m"},
		}
		Expect(palette.BuildColorMap(attrs)).To(HaveKey("t1"))
	})
})

var _ = Describe("ForAttribution", func() {
	colors := palette.BuildColorMap([]agenttrace.Attribution{aiAttr("t1")})

	It("uses reserved colors for fixed categories", func() {
		Expect(palette.ForAttribution(nil, colors)).To(Equal(palette.Unattributed))

		human := agenttrace.Attribution{AttributionLabel: agenttrace.LabelHuman}
		Expect(palette.ForAttribution(&human, colors)).To(Equal(palette.Human))

		mixed := agenttrace.Attribution{AttributionLabel: agenttrace.LabelMixed}
		Expect(palette.ForAttribution(&mixed, colors)).To(Equal(palette.Mixed))
	})

	It("resolves traced AI entries from the color map", func() {
		a := aiAttr("t1")
		Expect(palette.ForAttribution(&a, colors)).To(Equal(palette.Entry(0)))
	})

	It("falls back to the default AI pair for untraced AI entries", func() {
		a := agenttrace.Attribution{AttributionLabel: agenttrace.LabelAI}
		Expect(palette.ForAttribution(&a, colors)).To(Equal(palette.DefaultAI))
	})
})
