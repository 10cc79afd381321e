package transcript_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/transcript"
)

var _ = Describe("ParseSpans", func() {
	It("returns plain text as a single text span", func() {
		spans := transcript.ParseSpans("nothing fancy here")
		Expect(spans).To(Equal([]transcript.Span{
			{Kind: transcript.SpanText, Text: "nothing fancy here"},
		}))
	})

	It("recognizes bold and inline code", func() {
		spans := transcript.ParseSpans("run **all** tests with `go test`")
		Expect(spans).To(Equal([]transcript.Span{
			{Kind: transcript.SpanText, Text: "run "},
			{Kind: transcript.SpanBold, Text: "all"},
			{Kind: transcript.SpanText, Text: " tests with "},
			{Kind: transcript.SpanCode, Text: "go test"},
		}))
	})

	It("extracts fenced code blocks with a language hint", func() {
		content := "before\n```go\nfunc main() {}\n```\nafter"
		spans := transcript.ParseSpans(content)
		Expect(spans).To(HaveLen(3))
		Expect(spans[0]).To(Equal(transcript.Span{Kind: transcript.SpanText, Text: "before"}))
		Expect(spans[1]).To(Equal(transcript.Span{Kind: transcript.SpanCodeBlock, Text: "func main() {}", Lang: "go"}))
		Expect(spans[2]).To(Equal(transcript.Span{Kind: transcript.SpanText, Text: "after"}))
	})

	It("treats an unclosed fence as a code block to the end", func() {
		spans := transcript.ParseSpans("```\nno close")
		Expect(spans).To(Equal([]transcript.Span{
			{Kind: transcript.SpanCodeBlock, Text: "no close"},
		}))
	})

	It("keeps unpaired delimiters as literal text", func() {
		spans := transcript.ParseSpans("a ** b ` c")
		Expect(spans).To(HaveLen(1))
		Expect(spans[0].Kind).To(Equal(transcript.SpanText))
		Expect(spans[0].Text).To(Equal("a ** b ` c"))
	})

	It("does not nest: bold inside code stays literal", func() {
		spans := transcript.ParseSpans("`x ** y`")
		Expect(spans).To(Equal([]transcript.Span{
			{Kind: transcript.SpanCode, Text: "x ** y"},
		}))
	})

	It("is empty for empty content", func() {
		Expect(transcript.ParseSpans("")).To(BeNil())
	})
})
