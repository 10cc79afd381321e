package viewcmder

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tracelens/tracelens/pkg/transcript"
	"github.com/tracelens/tracelens/pkg/viewstate"
)

var (
	roleUserStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	roleAsstStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	roleOtherStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	boldSpanStyle  = lipgloss.NewStyle().Bold(true)
	codeSpanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("215")).Background(lipgloss.Color("236"))
	codeBlockStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("235"))
)

// renderConversation renders the pinned line's transcript panel.
func (m *viewModel) renderConversation(conv *viewstate.Conversation, width, height int) []string {
	lines := []string{viewSectionStyle.Render(truncateText("conversation", width))}

	switch {
	case conv.Loading:
		lines = append(lines, viewMutedStyle.Render("loading…"))
	case conv.Err != nil:
		lines = append(lines, viewErrStyle.Render(truncateText(conv.Err.Error(), width)))
	case conv.Result != nil && conv.Result.OpenExternal:
		lines = append(lines, viewMutedStyle.Render("external transcript:"))
		lines = append(lines, truncateText(conv.Result.URL, width))
	default:
		lines = append(lines, m.renderBlocks(conv.Blocks, width)...)
	}

	return padLines(lines, width, height)
}

func (m *viewModel) renderBlocks(blocks []transcript.Block, width int) []string {
	if len(blocks) == 0 {
		return []string{viewMutedStyle.Render("empty transcript")}
	}

	var lines []string
	for i, block := range blocks {
		if i > 0 {
			lines = append(lines, "")
		}
		if block.Format == transcript.FormatRaw {
			// Unrecognized transcripts are usually markdown; glamour
			// handles them better than span styling would.
			lines = append(lines, m.renderMarkdown(block.Content, width)...)
			continue
		}
		lines = append(lines, roleHeading(block.Role))
		lines = append(lines, renderSpans(block.Spans, width)...)
	}
	return lines
}

func roleHeading(role string) string {
	switch role {
	case transcript.RoleUser, transcript.RoleHuman:
		return roleUserStyle.Render("○ " + role)
	case transcript.RoleAssistant, transcript.RoleAI:
		return roleAsstStyle.Render("● " + role)
	default:
		return roleOtherStyle.Render("· " + role)
	}
}

// renderSpans lays typed spans out as wrapped panel lines. Inline spans
// flow together; code blocks break onto their own styled lines.
func renderSpans(spans []transcript.Span, width int) []string {
	var lines []string
	var inline strings.Builder

	flush := func() {
		if inline.Len() == 0 {
			return
		}
		lines = append(lines, wrapText(inline.String(), width)...)
		inline.Reset()
	}

	for _, span := range spans {
		switch span.Kind {
		case transcript.SpanCodeBlock:
			flush()
			for _, codeLine := range strings.Split(span.Text, "\n") {
				lines = append(lines, codeBlockStyle.Render(fitCell("  "+codeLine, width)))
			}
		case transcript.SpanBold:
			inline.WriteString(boldSpanStyle.Render(span.Text))
		case transcript.SpanCode:
			inline.WriteString(codeSpanStyle.Render(span.Text))
		default:
			inline.WriteString(span.Text)
		}
	}
	flush()

	return lines
}

func (m *viewModel) renderMarkdown(content string, width int) []string {
	style := m.theme
	if style != "dark" && style != "light" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width, 20)),
	)
	if err != nil {
		return wrapText(content, width)
	}
	rendered, err := r.Render(content)
	if err != nil {
		return wrapText(content, width)
	}
	return strings.Split(strings.TrimRight(rendered, "\n"), "\n")
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			if current == "" {
				current = word
				continue
			}
			if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
				current += " " + word
				continue
			}
			lines = append(lines, current)
			current = word
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}
