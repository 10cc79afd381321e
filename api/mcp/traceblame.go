package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/tracelens/tracelens/pkg/agenttrace"
)

var (
	traceBlameToolName    = "trace_blame"
	traceBlameDescription = "Look up line-level attribution for a file in the viewed project. Returns git blame segments alongside agent-trace attribution ranges, so you can tell which lines were written by a human, an AI agent, or a mix, and which trace produced them."
)

// TraceBlameInput represents the input arguments for the trace_blame tool.
type TraceBlameInput struct {
	Path string `json:"path" jsonschema:"the project-relative path of the file to blame"`
}

// TraceBlameOutput represents the structured output of a blame lookup.
type TraceBlameOutput struct {
	Path         string                   `json:"path"`
	Segments     []agenttrace.BlameSegment `json:"segments"`
	Attributions []agenttrace.Attribution  `json:"attributions"`
}

// handleTraceBlame processes a blame request via MCP.
func (s *Server) handleTraceBlame(ctx context.Context, _ *mcp.CallToolRequest, input TraceBlameInput) (*mcp.CallToolResult, TraceBlameOutput, error) {
	logger := s.config.Logger

	if input.Path == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "path is required"},
			},
		}, TraceBlameOutput{}, nil
	}

	logger.Debug("MCP trace_blame request",
		zap.String("path", input.Path),
	)

	segments, err := s.config.Blame(ctx, input.Path)
	if err != nil {
		logger.Error("failed to run git blame", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to run git blame: %v", err)},
			},
		}, TraceBlameOutput{}, nil
	}

	report, err := s.config.TraceBlame(ctx, input.Path)
	if err != nil {
		logger.Error("failed to run agent-trace blame", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to run agent-trace blame: %v", err)},
			},
		}, TraceBlameOutput{}, nil
	}

	output := TraceBlameOutput{
		Path:         input.Path,
		Segments:     segments,
		Attributions: report.Attributions,
	}
	if output.Segments == nil {
		output.Segments = []agenttrace.BlameSegment{}
	}
	if output.Attributions == nil {
		output.Attributions = []agenttrace.Attribution{}
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal blame output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, TraceBlameOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
