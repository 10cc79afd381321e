package grouping_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/agenttrace"
	"github.com/tracelens/tracelens/pkg/grouping"
)

var attrs = []agenttrace.Attribution{
	{StartLine: 1, EndLine: 2, AttributionLabel: agenttrace.LabelAI, TraceID: "t1", ModelID: "sonnet-4", ConversationURL: "file://a"},
	{StartLine: 3, EndLine: 4, AttributionLabel: agenttrace.LabelHuman},
	{StartLine: 5, EndLine: 6, AttributionLabel: agenttrace.LabelAI, TraceID: "t2", ModelID: "sonnet-4"},
	{StartLine: 7, EndLine: 8, AttributionLabel: agenttrace.LabelAI, TraceID: "t1", ModelID: "sonnet-4"},
	{StartLine: 9, EndLine: 9, AttributionLabel: agenttrace.LabelMixed, TraceID: "t3"},
}

var _ = Describe("ByTrace", func() {
	It("groups ranges of the same trace and preserves first-occurrence order", func() {
		groups := grouping.ByTrace(attrs)
		Expect(groups).To(HaveLen(4))
		Expect(groups[0].Key).To(Equal("t1:AI"))
		Expect(groups[1].Key).To(Equal("__no_trace__:Human"))
		Expect(groups[2].Key).To(Equal("t2:AI"))
		Expect(groups[3].Key).To(Equal("t3:Mixed"))
		Expect(groups[0].Attributions).To(HaveLen(2))
	})

	It("carries the first member as representative", func() {
		groups := grouping.ByTrace(attrs)
		Expect(groups[0].Representative().ConversationURL).To(Equal("file://a"))
		Expect(groups[0].Representative().StartLine).To(Equal(1))
	})

	It("separates the same trace id under different labels", func() {
		mixed := []agenttrace.Attribution{
			{StartLine: 1, EndLine: 1, AttributionLabel: agenttrace.LabelAI, TraceID: "t"},
			{StartLine: 2, EndLine: 2, AttributionLabel: agenttrace.LabelMixed, TraceID: "t"},
		}
		Expect(grouping.ByTrace(mixed)).To(HaveLen(2))
	})
})

var _ = Describe("ByLegend", func() {
	It("collapses traces sharing a model into one legend entry", func() {
		groups := grouping.ByLegend(attrs)
		Expect(groups).To(HaveLen(3))
		Expect(groups[0].Key).To(Equal("AI:sonnet-4"))
		Expect(groups[0].Label).To(Equal("sonnet-4"))
		Expect(groups[0].Attributions).To(HaveLen(3))
		Expect(groups[1].Key).To(Equal("Human"))
		Expect(groups[2].Key).To(Equal("Mixed"))
	})

	It("labels AI entries without a model by the bare label", func() {
		groups := grouping.ByLegend([]agenttrace.Attribution{
			{StartLine: 1, EndLine: 1, AttributionLabel: agenttrace.LabelAI, TraceID: "t"},
		})
		Expect(groups[0].Key).To(Equal("AI:"))
		Expect(groups[0].Label).To(Equal("AI"))
	})

	It("returns nothing for an empty list", func() {
		Expect(grouping.ByLegend(nil)).To(BeEmpty())
	})
})

var _ = Describe("TraceKeyOf", func() {
	It("is empty for nil and the trace key otherwise", func() {
		Expect(grouping.TraceKeyOf(nil)).To(Equal(""))
		Expect(grouping.TraceKeyOf(&attrs[0])).To(Equal("t1:AI"))
	})
})
