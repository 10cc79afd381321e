// Package transcript parses heterogeneous conversation-transcript text
// into ordered, role-tagged dialogue blocks. Two dialect recognizers are
// tried in order: a line-marker dialect ("User:" / "Assistant:" alone on
// a line), then a tag-delimited dialect (<user>...</user>). The first
// that yields at least one block wins. Text neither recognizer claims
// becomes a single raw block. Block content is decomposed into typed
// inline spans so renderers never interpret opaque markup.
package transcript

import (
	"strings"
)

// Roles a block can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleHuman     = "human"
	RoleAI        = "ai"
	RoleMessage   = "message"
	RoleSystem    = "system"
	RoleRaw       = "raw"
)

// Block formats.
const (
	// FormatDialogue marks blocks produced by a dialect recognizer.
	FormatDialogue = "dialogue"
	// FormatRaw marks the fallback block holding unrecognized text.
	FormatRaw = "raw"
)

// Block is one role-tagged message of a parsed transcript.
type Block struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Format  string `json:"format"`
	Spans   []Span `json:"spans"`
}

// Parse converts raw transcript text into ordered blocks. Empty or
// whitespace-only input yields nil; input no recognizer claims yields a
// single raw block. Parse never fails: the worst outcome is raw text.
func Parse(text string) []Block {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if blocks := parseMarkerDialect(text); len(blocks) > 0 {
		return blocks
	}
	if blocks := parseTagDialect(text); len(blocks) > 0 {
		return blocks
	}
	return []Block{{
		Role:    RoleRaw,
		Content: trimmed,
		Format:  FormatRaw,
		Spans:   ParseSpans(trimmed),
	}}
}

// parseMarkerDialect recognizes the first "user:"/"human:" marker line
// and the first "assistant:" marker line (case-insensitive, alone on a
// line). Each marker's body runs to the next recognized marker or the
// end of text. Blocks with empty trimmed bodies are dropped. Later
// repeats of a marker type are ignored: this dialect has no multi-turn
// support.
func parseMarkerDialect(text string) []Block {
	lines := strings.Split(text, "\n")

	type marker struct {
		line int
		role string
	}
	var markers []marker
	userAt, assistantAt := -1, -1
	for i, line := range lines {
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "user:", "human:":
			if userAt == -1 {
				userAt = i
				markers = append(markers, marker{line: i, role: RoleUser})
			}
		case "assistant:":
			if assistantAt == -1 {
				assistantAt = i
				markers = append(markers, marker{line: i, role: RoleAssistant})
			}
		}
	}
	if len(markers) == 0 {
		return nil
	}

	var blocks []Block
	for i, m := range markers {
		end := len(lines)
		if i+1 < len(markers) {
			end = markers[i+1].line
		}
		body := strings.TrimSpace(strings.Join(lines[m.line+1:end], "\n"))
		if body == "" {
			continue
		}
		blocks = append(blocks, Block{
			Role:    m.role,
			Content: body,
			Format:  FormatDialogue,
			Spans:   ParseSpans(body),
		})
	}
	return blocks
}

// recognizedTags are the opening tag names the tag dialect accepts.
var recognizedTags = map[string]bool{
	RoleUser:      true,
	RoleAssistant: true,
	RoleHuman:     true,
	RoleAI:        true,
	RoleMessage:   true,
	RoleSystem:    true,
}

// parseTagDialect is an explicit scanning parser over three states:
// seeking an opening tag, validating its name, and seeking the matching
// closing tag. Unrecognized tag names advance the scan by one character
// and retry, so arbitrary surrounding text (including stray angle
// brackets) is tolerated. A recognized open tag whose closing tag never
// appears stops the scan; material already parsed is kept.
func parseTagDialect(text string) []Block {
	lower := strings.ToLower(text)
	var blocks []Block

	i := 0
	for i < len(text) {
		lt := strings.IndexByte(lower[i:], '<')
		if lt < 0 {
			break
		}
		i += lt

		// Validate the tag name directly after '<'.
		nameEnd := i + 1
		for nameEnd < len(lower) && isTagNameChar(lower[nameEnd]) {
			nameEnd++
		}
		name := lower[i+1 : nameEnd]
		if !recognizedTags[name] {
			i++
			continue
		}

		openEnd := strings.IndexByte(lower[nameEnd:], '>')
		if openEnd < 0 {
			break
		}
		openContent := text[nameEnd : nameEnd+openEnd]
		bodyStart := nameEnd + openEnd + 1

		closing := "</" + name + ">"
		rel := strings.Index(lower[bodyStart:], closing)
		if rel < 0 {
			break
		}
		bodyEnd := bodyStart + rel

		role := name
		if name == RoleMessage {
			if attr := roleAttribute(openContent); attr != "" {
				role = attr
			}
		}
		body := strings.TrimSpace(text[bodyStart:bodyEnd])
		blocks = append(blocks, Block{
			Role:    role,
			Content: body,
			Format:  FormatDialogue,
			Spans:   ParseSpans(body),
		})

		i = bodyEnd + len(closing)
	}
	return blocks
}

func isTagNameChar(c byte) bool {
	return c >= 'a' && c <= 'z'
}

// roleAttribute extracts a role="..." attribute (quoted or bare, any
// case) from the opening content of a message tag.
func roleAttribute(openContent string) string {
	lower := strings.ToLower(openContent)
	at := strings.Index(lower, "role=")
	if at < 0 {
		return ""
	}
	rest := openContent[at+len("role="):]
	if rest == "" {
		return ""
	}
	if rest[0] == '"' || rest[0] == '\'' {
		quote := rest[0]
		end := strings.IndexByte(rest[1:], quote)
		if end < 0 {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(rest[1 : 1+end]))
	}
	end := strings.IndexAny(rest, " \t\n>")
	if end < 0 {
		end = len(rest)
	}
	return strings.ToLower(strings.TrimSpace(rest[:end]))
}
