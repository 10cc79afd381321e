package viewcmder

import (
	"context"
	"strings"

	bubbletea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/agenttrace"
	"github.com/tracelens/tracelens/pkg/conversation"
	"github.com/tracelens/tracelens/pkg/transcript"
	"github.com/tracelens/tracelens/pkg/viewstate"
)

func keyRune(r rune) bubbletea.KeyMsg {
	return bubbletea.KeyMsg{Type: bubbletea.KeyRunes, Runes: []rune{r}}
}

var _ = Describe("view TUI", func() {
	var (
		ctrl *viewstate.Controller
		m    *viewModel
	)

	// settle selects a file and applies all three fetch results so the
	// model renders a fully settled snapshot.
	settle := func(path, content string, segs []agenttrace.BlameSegment, attrs []agenttrace.Attribution) {
		gen := ctrl.SelectFile(context.Background(), path)
		ctrl.ApplyFileResult(gen, content, nil)
		ctrl.ApplyBlameResult(gen, segs, nil)
		ctrl.ApplyAttributionResult(gen, attrs, nil)
	}

	BeforeEach(func() {
		ctrl = viewstate.New(nil)
		m = newViewModel(viewParams{
			ctrl:        ctrl,
			projectRoot: "/work/demo",
			theme:       "dark",
		})
		m.width = 120
		m.height = 30
	})

	Describe("key handling", func() {
		It("switches panes on tab", func() {
			Expect(m.focus).To(Equal(focusTree))
			m.Update(bubbletea.KeyMsg{Type: bubbletea.KeyTab})
			Expect(m.focus).To(Equal(focusSource))
			m.Update(bubbletea.KeyMsg{Type: bubbletea.KeyTab})
			Expect(m.focus).To(Equal(focusTree))
		})

		It("toggles overlays with g and t", func() {
			m.Update(keyRune('g'))
			Expect(ctrl.Toggles().GitBlame).To(BeFalse())
			Expect(ctrl.Toggles().TraceBlame).To(BeTrue())

			m.Update(keyRune('t'))
			Expect(ctrl.Toggles().TraceBlame).To(BeFalse())

			m.Update(keyRune('g'))
			Expect(ctrl.Toggles().GitBlame).To(BeTrue())
		})

		It("resizes the conversation panel with [ and ]", func() {
			start := ctrl.PanelWidth()
			m.Update(keyRune(']'))
			Expect(ctrl.PanelWidth()).To(Equal(start + panelDragStep))
			m.Update(keyRune('['))
			Expect(ctrl.PanelWidth()).To(Equal(start))
		})

		It("moves the source cursor and hovers the line", func() {
			settle("main.go", "a\nb\nc\nd\n", nil, nil)
			m.focus = focusSource
			m.line = 1

			m.Update(keyRune('j'))
			Expect(m.line).To(Equal(2))
			m.Update(keyRune('k'))
			m.Update(keyRune('k'))
			Expect(m.line).To(Equal(1))
		})

		It("pins a line on enter in the source pane", func() {
			settle("main.go", "a\nb\nc\n", nil, []agenttrace.Attribution{
				{StartLine: 1, EndLine: 2, AttributionLabel: agenttrace.LabelAI, TraceID: "t1", ModelID: "m1"},
			})
			m.focus = focusSource
			m.line = 2

			m.Update(bubbletea.KeyMsg{Type: bubbletea.KeyEnter})
			Expect(ctrl.PinnedLine()).To(Equal(2))

			m.Update(bubbletea.KeyMsg{Type: bubbletea.KeyEnter})
			Expect(ctrl.PinnedLine()).To(Equal(0))
		})
	})

	Describe("rendering", func() {
		It("renders the header, file path, and legend once settled", func() {
			settle("pkg/app/main.go", "a\nb\nc\nd\ne\n",
				[]agenttrace.BlameSegment{{StartLine: 1, EndLine: 5, CommitSHA: "abc123def", Author: "dev"}},
				[]agenttrace.Attribution{
					{StartLine: 1, EndLine: 3, AttributionLabel: agenttrace.LabelAI, TraceID: "t1", ModelID: "model-a"},
					{StartLine: 4, EndLine: 4, AttributionLabel: agenttrace.LabelHuman},
				})

			out := m.View()
			Expect(out).To(ContainSubstring("tracelens"))
			Expect(out).To(ContainSubstring("pkg/app/main.go"))
			Expect(out).To(ContainSubstring("model-a"))
			Expect(out).To(ContainSubstring("Human"))
			Expect(out).To(ContainSubstring("Unattributed"))
			Expect(out).To(ContainSubstring("abc123d"))
		})

		It("prompts for a file before anything is selected", func() {
			Expect(m.View()).To(ContainSubstring("select a file"))
		})

		It("shows the conversation panel when a transcript is loaded", func() {
			settle("main.go", "a\nb\n", nil, []agenttrace.Attribution{
				{StartLine: 1, EndLine: 2, AttributionLabel: agenttrace.LabelAI, TraceID: "t1", ConversationURL: "conv.txt"},
			})
			token := ctrl.ClickLine(context.Background(), 1)
			Expect(token).NotTo(BeEmpty())
			ctrl.ApplyConversationResult(token, "conv.txt",
				&conversation.Result{Content: "User:\nhello there\nAssistant:\nhi"}, nil)

			out := m.View()
			Expect(out).To(ContainSubstring("conversation"))
			Expect(out).To(ContainSubstring("hello there"))
		})
	})

	Describe("file events", func() {
		It("refreshes the selected file when it changes on disk", func() {
			settle("main.go", "a\n", nil, nil)
			before := ctrl.Snapshot()
			Expect(before.TotalLines()).To(Equal(1))

			m.Update(fileEventMsg{path: "main.go"})
			// A new generation is in flight; the old snapshot content is
			// reset until results settle.
			Expect(ctrl.Snapshot().Path).To(Equal("main.go"))
			Expect(ctrl.OverlaysReady()).To(BeFalse())
		})

		It("ignores changes to unrelated files", func() {
			settle("main.go", "a\n", nil, nil)
			m.Update(fileEventMsg{path: "other.go"})
			Expect(ctrl.OverlaysReady()).To(BeTrue())
		})
	})
})

var _ = Describe("rendering helpers", func() {
	Describe("renderSpans", func() {
		It("styles code blocks on their own lines and flows inline spans", func() {
			spans := []transcript.Span{
				{Kind: transcript.SpanText, Text: "run "},
				{Kind: transcript.SpanCode, Text: "go test"},
				{Kind: transcript.SpanCodeBlock, Text: "x := 1\ny := 2", Lang: "go"},
			}
			lines := renderSpans(spans, 40)
			joined := strings.Join(lines, "\n")
			Expect(joined).To(ContainSubstring("go test"))
			Expect(joined).To(ContainSubstring("x := 1"))
			Expect(joined).To(ContainSubstring("y := 2"))
		})
	})

	Describe("wrapText", func() {
		It("wraps words at the width", func() {
			lines := wrapText("one two three four", 9)
			Expect(lines).To(Equal([]string{"one two", "three", "four"}))
		})

		It("preserves blank lines", func() {
			lines := wrapText("a\n\nb", 10)
			Expect(lines).To(Equal([]string{"a", "", "b"}))
		})
	})

	Describe("shortSHA", func() {
		It("truncates long hashes to seven characters", func() {
			Expect(shortSHA("abc123def456")).To(Equal("abc123d"))
			Expect(shortSHA("abc")).To(Equal("abc"))
		})
	})

	Describe("clampIndex", func() {
		It("clamps into [0, upper]", func() {
			Expect(clampIndex(-3, 10)).To(Equal(0))
			Expect(clampIndex(4, 10)).To(Equal(4))
			Expect(clampIndex(99, 10)).To(Equal(10))
		})
	})

	Describe("fitCell", func() {
		It("pads and truncates to the cell width", func() {
			Expect(fitCell("ab", 4)).To(Equal("ab  "))
			Expect(len([]rune(fitCell("abcdefgh", 4)))).To(Equal(4))
		})
	})
})
