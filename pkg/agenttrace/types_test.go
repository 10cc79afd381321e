package agenttrace_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/agenttrace"
)

var _ = Describe("TraceKey", func() {
	It("combines trace id and label when a trace is present", func() {
		a := agenttrace.Attribution{AttributionLabel: agenttrace.LabelAI, TraceID: "trace-1"}
		Expect(a.TraceKey()).To(Equal("trace-1:AI"))
	})

	It("uses the no-trace sentinel when no trace id is present", func() {
		a := agenttrace.Attribution{AttributionLabel: agenttrace.LabelHuman}
		Expect(a.TraceKey()).To(Equal("__no_trace__:Human"))
	})
})

var _ = Describe("LegendKey", func() {
	It("collapses AI entries by model id", func() {
		a := agenttrace.Attribution{AttributionLabel: agenttrace.LabelAI, TraceID: "t1", ModelID: "sonnet-4"}
		b := agenttrace.Attribution{AttributionLabel: agenttrace.LabelAI, TraceID: "t2", ModelID: "sonnet-4"}
		Expect(a.LegendKey()).To(Equal(b.LegendKey()))
		Expect(a.LegendKey()).To(Equal("AI:sonnet-4"))
	})

	It("uses the bare label for non-AI entries", func() {
		Expect(agenttrace.Attribution{AttributionLabel: agenttrace.LabelMixed}.LegendKey()).To(Equal("Mixed"))
	})

	It("prefers the model id as legend display label", func() {
		a := agenttrace.Attribution{AttributionLabel: agenttrace.LabelAI, ModelID: "opus-4"}
		Expect(a.LegendLabel()).To(Equal("opus-4"))
		Expect(agenttrace.Attribution{AttributionLabel: agenttrace.LabelAI}.LegendLabel()).To(Equal("AI"))
	})
})

var _ = Describe("tolerant field aliasing", func() {
	It("decodes snake_case attribution fields", func() {
		raw := `{"start_line":3,"end_line":7,"attribution_label":"AI","trace_id":"t1","model_id":"m1","conversation_url":"file://x"}`
		var a agenttrace.Attribution
		Expect(json.Unmarshal([]byte(raw), &a)).To(Succeed())
		Expect(a.StartLine).To(Equal(3))
		Expect(a.EndLine).To(Equal(7))
		Expect(a.TraceID).To(Equal("t1"))
		Expect(a.ConversationURL).To(Equal("file://x"))
	})

	It("decodes camelCase attribution fields", func() {
		raw := `{"startLine":3,"endLine":7,"attributionLabel":"Mixed","traceId":"t2","conversationUrl":"https://x"}`
		var a agenttrace.Attribution
		Expect(json.Unmarshal([]byte(raw), &a)).To(Succeed())
		Expect(a.StartLine).To(Equal(3))
		Expect(a.AttributionLabel).To(Equal("Mixed"))
		Expect(a.TraceID).To(Equal("t2"))
		Expect(a.ConversationURL).To(Equal("https://x"))
	})

	It("prefers snake_case when both spellings are present", func() {
		raw := `{"start_line":1,"startLine":9,"end_line":2,"attribution_label":"AI"}`
		var a agenttrace.Attribution
		Expect(json.Unmarshal([]byte(raw), &a)).To(Succeed())
		Expect(a.StartLine).To(Equal(1))
	})

	It("accepts tool as a string or as an object", func() {
		var a agenttrace.Attribution
		Expect(json.Unmarshal([]byte(`{"start_line":1,"end_line":1,"tool":"cursor"}`), &a)).To(Succeed())
		Expect(a.Tool).To(Equal("cursor"))
		Expect(json.Unmarshal([]byte(`{"start_line":1,"end_line":1,"tool":{"name":"claude-code","version":"2.0"}}`), &a)).To(Succeed())
		Expect(a.Tool).To(Equal("claude-code"))
		Expect(json.Unmarshal([]byte(`{"start_line":1,"end_line":1,"tool":null}`), &a)).To(Succeed())
		Expect(a.Tool).To(Equal(""))
	})

	It("decodes blame segments in either spelling", func() {
		var s agenttrace.BlameSegment
		Expect(json.Unmarshal([]byte(`{"start_line":1,"end_line":4,"commit_sha":"abc","author":"al","author_time":1700000000,"summary":"init"}`), &s)).To(Succeed())
		Expect(s.CommitSHA).To(Equal("abc"))
		Expect(s.AuthorTime).To(Equal(int64(1700000000)))

		Expect(json.Unmarshal([]byte(`{"startLine":2,"endLine":5,"commitSha":"def"}`), &s)).To(Succeed())
		Expect(s.StartLine).To(Equal(2))
		Expect(s.CommitSHA).To(Equal("def"))
	})

	It("round-trips through snake_case output", func() {
		a := agenttrace.Attribution{StartLine: 1, EndLine: 2, AttributionLabel: agenttrace.LabelAI, TraceID: "t"}
		out, err := json.Marshal(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(ContainSubstring(`"start_line":1`))
		Expect(string(out)).To(ContainSubstring(`"trace_id":"t"`))

		var back agenttrace.Attribution
		Expect(json.Unmarshal(out, &back)).To(Succeed())
		Expect(back).To(Equal(a))
	})
})
