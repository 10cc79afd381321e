package agenttrace

import (
	"bytes"
	"encoding/json"
)

// The viewer accepts both snake_case (the original backend contract) and
// camelCase field names on the wire. Marshalling always emits snake_case
// via the struct tags in types.go; these decoders only widen what is
// accepted on input.

type blameSegmentAlias struct {
	StartLine   *int    `json:"start_line"`
	StartLineC  *int    `json:"startLine"`
	EndLine     *int    `json:"end_line"`
	EndLineC    *int    `json:"endLine"`
	CommitSHA   *string `json:"commit_sha"`
	CommitSHAC  *string `json:"commitSha"`
	Author      *string `json:"author"`
	AuthorTime  *int64  `json:"author_time"`
	AuthorTimeC *int64  `json:"authorTime"`
	Summary     *string `json:"summary"`
}

// UnmarshalJSON accepts snake_case or camelCase field names; when both
// spellings are present the snake_case one wins.
func (s *BlameSegment) UnmarshalJSON(data []byte) error {
	var alias blameSegmentAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	s.StartLine = pickInt(alias.StartLine, alias.StartLineC)
	s.EndLine = pickInt(alias.EndLine, alias.EndLineC)
	s.CommitSHA = pickString(alias.CommitSHA, alias.CommitSHAC)
	s.Author = pickString(alias.Author, nil)
	s.AuthorTime = pickInt64(alias.AuthorTime, alias.AuthorTimeC)
	s.Summary = pickString(alias.Summary, nil)
	return nil
}

type attributionAlias struct {
	StartLine            *int            `json:"start_line"`
	StartLineC           *int            `json:"startLine"`
	EndLine              *int            `json:"end_line"`
	EndLineC             *int            `json:"endLine"`
	AttributionLabel     *string         `json:"attribution_label"`
	AttributionLabelC    *string         `json:"attributionLabel"`
	TraceID              *string         `json:"trace_id"`
	TraceIDC             *string         `json:"traceId"`
	ModelID              *string         `json:"model_id"`
	ModelIDC             *string         `json:"modelId"`
	ContributorType      *string         `json:"contributor_type"`
	ContributorTypeC     *string         `json:"contributorType"`
	Timestamp            *string         `json:"timestamp"`
	Tool                 json.RawMessage `json:"tool"`
	CommitSHA            *string         `json:"commit_sha"`
	CommitSHAC           *string         `json:"commitSha"`
	ConversationURL      *string         `json:"conversation_url"`
	ConversationURLC     *string         `json:"conversationUrl"`
	ConversationSummary  *string         `json:"conversation_summary"`
	ConversationSummaryC *string         `json:"conversationSummary"`
	Tier                 *int            `json:"tier"`
	Confidence           float64         `json:"confidence"`
	Signals              []string        `json:"signals"`
}

// UnmarshalJSON accepts snake_case or camelCase field names; snake_case
// wins when both are present. The tool field may be a bare string or the
// ledger's {name, version} object, in which case the name is kept.
func (a *Attribution) UnmarshalJSON(data []byte) error {
	var alias attributionAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	a.StartLine = pickInt(alias.StartLine, alias.StartLineC)
	a.EndLine = pickInt(alias.EndLine, alias.EndLineC)
	a.AttributionLabel = pickString(alias.AttributionLabel, alias.AttributionLabelC)
	a.TraceID = pickString(alias.TraceID, alias.TraceIDC)
	a.ModelID = pickString(alias.ModelID, alias.ModelIDC)
	a.ContributorType = pickString(alias.ContributorType, alias.ContributorTypeC)
	a.Timestamp = pickString(alias.Timestamp, nil)
	a.Tool = decodeTool(alias.Tool)
	a.CommitSHA = pickString(alias.CommitSHA, alias.CommitSHAC)
	a.ConversationURL = pickString(alias.ConversationURL, alias.ConversationURLC)
	a.ConversationSummary = pickString(alias.ConversationSummary, alias.ConversationSummaryC)
	a.Tier = alias.Tier
	a.Confidence = alias.Confidence
	a.Signals = alias.Signals
	return nil
}

func decodeTool(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

func pickInt(snake, camel *int) int {
	if snake != nil {
		return *snake
	}
	if camel != nil {
		return *camel
	}
	return 0
}

func pickInt64(snake, camel *int64) int64 {
	if snake != nil {
		return *snake
	}
	if camel != nil {
		return *camel
	}
	return 0
}

func pickString(snake, camel *string) string {
	if snake != nil {
		return *snake
	}
	if camel != nil {
		return *camel
	}
	return ""
}
