// Package agenttrace defines the domain types for per-line provenance:
// git blame segments and agent-trace attributions, as produced by the
// external blame/ledger collaborators and consumed by the viewer core.
package agenttrace

// Attribution labels. The external ledger emits these title-cased.
const (
	LabelAI    = "AI"
	LabelHuman = "Human"
	LabelMixed = "Mixed"

	// LabelUnattributed is a display-only category for lines no
	// attribution range covers. It never appears in ledger output.
	LabelUnattributed = "Unattributed"
)

// NoTraceKey prefixes the trace key of attributions that carry no trace id.
const NoTraceKey = "__no_trace__"

// BlameSegment is a contiguous line range attributed to one commit.
// Segments are produced externally per file, non-overlapping and ordered.
type BlameSegment struct {
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	CommitSHA  string `json:"commit_sha"`
	Author     string `json:"author"`
	AuthorTime int64  `json:"author_time,omitempty"`
	Summary    string `json:"summary"`
}

// Attribution is a contiguous line range attributed to an authorship
// category, optionally tied to a specific AI session trace and model.
// All fields beyond the range and label are optional.
type Attribution struct {
	StartLine           int      `json:"start_line"`
	EndLine             int      `json:"end_line"`
	AttributionLabel    string   `json:"attribution_label"`
	TraceID             string   `json:"trace_id,omitempty"`
	ModelID             string   `json:"model_id,omitempty"`
	ContributorType     string   `json:"contributor_type,omitempty"`
	Timestamp           string   `json:"timestamp,omitempty"`
	Tool                string   `json:"tool,omitempty"`
	CommitSHA           string   `json:"commit_sha,omitempty"`
	ConversationURL     string   `json:"conversation_url,omitempty"`
	ConversationSummary string   `json:"conversation_summary,omitempty"`
	Tier                *int     `json:"tier,omitempty"`
	Confidence          float64  `json:"confidence,omitempty"`
	Signals             []string `json:"signals,omitempty"`
}

// BlameReport is the blame endpoint payload for one file.
type BlameReport struct {
	Path     string         `json:"path"`
	Segments []BlameSegment `json:"segments"`
}

// AttributionReport is the agent-trace blame payload for one file.
type AttributionReport struct {
	File         string        `json:"file"`
	Attributions []Attribution `json:"attributions"`
}

// Contains reports whether the segment's closed range covers line.
func (s BlameSegment) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// Contains reports whether the attribution's closed range covers line.
func (a Attribution) Contains(line int) bool {
	return line >= a.StartLine && line <= a.EndLine
}

// TraceKey derives the grouping identity for ranges that belong to the
// same logical origin: "traceId:label" when a trace id is present,
// "__no_trace__:label" otherwise.
func (a Attribution) TraceKey() string {
	if a.TraceID != "" {
		return a.TraceID + ":" + a.AttributionLabel
	}
	return NoTraceKey + ":" + a.AttributionLabel
}

// LegendKey derives the model-level grouping identity: "AI:modelId" for
// AI-labelled entries (collapsing traces that share a model), the bare
// label for everything else.
func (a Attribution) LegendKey() string {
	if a.AttributionLabel == LabelAI {
		return LabelAI + ":" + a.ModelID
	}
	return a.AttributionLabel
}

// LegendLabel is the display label matching LegendKey: the model id for
// AI entries that carry one, otherwise the attribution label.
func (a Attribution) LegendLabel() string {
	if a.AttributionLabel == LabelAI && a.ModelID != "" {
		return a.ModelID
	}
	return a.AttributionLabel
}
