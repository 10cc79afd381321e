package transcript

import (
	"strings"
)

// Span kinds. Renderers escape all text by default and style only these
// typed constructs; markup never travels as opaque strings.
const (
	SpanText      = "text"
	SpanBold      = "bold"
	SpanCode      = "code"
	SpanCodeBlock = "codeblock"
)

// Span is one typed run of block content.
type Span struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
	Lang string `json:"lang,omitempty"`
}

// ParseSpans decomposes block content into typed spans: fenced code
// blocks (```lang ... ```), then inline bold (**...**) and inline code
// (`...`) within the remaining text. Unpaired delimiters are kept as
// literal text. An unclosed fence swallows the rest of the content as a
// code block, matching how half-written transcripts usually end.
func ParseSpans(content string) []Span {
	if content == "" {
		return nil
	}

	var spans []Span
	lines := strings.Split(content, "\n")

	var textBuf []string
	flushText := func() {
		if len(textBuf) == 0 {
			return
		}
		joined := strings.Join(textBuf, "\n")
		textBuf = nil
		spans = append(spans, parseInline(joined)...)
	}

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "```") {
			textBuf = append(textBuf, lines[i])
			i++
			continue
		}

		flushText()
		lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
		var code []string
		i++
		for i < len(lines) && !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			code = append(code, lines[i])
			i++
		}
		if i < len(lines) {
			i++ // consume the closing fence
		}
		spans = append(spans, Span{
			Kind: SpanCodeBlock,
			Text: strings.Join(code, "\n"),
			Lang: lang,
		})
	}
	flushText()
	return spans
}

// parseInline splits a text run on bold and inline-code delimiters.
func parseInline(text string) []Span {
	var spans []Span
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			spans = append(spans, Span{Kind: SpanText, Text: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(text) {
		switch {
		case strings.HasPrefix(text[i:], "**"):
			end := strings.Index(text[i+2:], "**")
			if end < 0 {
				plain.WriteString(text[i:])
				i = len(text)
				continue
			}
			flush()
			spans = append(spans, Span{Kind: SpanBold, Text: text[i+2 : i+2+end]})
			i += 2 + end + 2

		case text[i] == '`':
			end := strings.IndexByte(text[i+1:], '`')
			if end < 0 {
				plain.WriteString(text[i:])
				i = len(text)
				continue
			}
			flush()
			spans = append(spans, Span{Kind: SpanCode, Text: text[i+1 : i+1+end]})
			i += 1 + end + 1

		default:
			plain.WriteByte(text[i])
			i++
		}
	}
	flush()
	return spans
}
