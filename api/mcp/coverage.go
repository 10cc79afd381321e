package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/tracelens/tracelens/pkg/coverage"
	"github.com/tracelens/tracelens/pkg/grouping"
	"github.com/tracelens/tracelens/pkg/project"
)

var (
	fileCoverageToolName    = "file_coverage"
	fileCoverageDescription = "Summarize attribution coverage for a file in the viewed project. Returns the percentage of lines attributed to each model or contributor category plus the uncovered remainder, the same aggregation the viewer's pie chart shows."
)

// FileCoverageInput represents the input arguments for the file_coverage tool.
type FileCoverageInput struct {
	Path string `json:"path" jsonschema:"the project-relative path of the file to summarize"`
}

// GroupCoverage is the coverage of one legend group (model or category).
type GroupCoverage struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Lines int     `json:"lines"`
	Pct   float64 `json:"pct"`
}

// FileCoverageOutput represents the structured output of a coverage summary.
type FileCoverageOutput struct {
	Path            string           `json:"path"`
	TotalLines      int              `json:"total_lines"`
	Groups          []GroupCoverage  `json:"groups"`
	UncoveredLines  int              `json:"uncovered_lines"`
	UncoveredPct    float64          `json:"uncovered_pct"`
	UncoveredRanges []coverage.Range `json:"uncovered_ranges"`
}

// handleFileCoverage processes a coverage summary request via MCP.
func (s *Server) handleFileCoverage(ctx context.Context, _ *mcp.CallToolRequest, input FileCoverageInput) (*mcp.CallToolResult, FileCoverageOutput, error) {
	logger := s.config.Logger

	if input.Path == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "path is required"},
			},
		}, FileCoverageOutput{}, nil
	}

	logger.Debug("MCP file_coverage request",
		zap.String("path", input.Path),
	)

	content, _, err := project.ReadTextFile(s.config.ProjectRoot, input.Path)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to read file: %v", err)},
			},
		}, FileCoverageOutput{}, nil
	}
	totalLines := countLines(content)

	report, err := s.config.TraceBlame(ctx, input.Path)
	if err != nil {
		logger.Error("failed to run agent-trace blame", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to run agent-trace blame: %v", err)},
			},
		}, FileCoverageOutput{}, nil
	}

	groups := grouping.ByLegend(report.Attributions)
	groupCoverage := make([]GroupCoverage, 0, len(groups))
	for _, g := range groups {
		groupCoverage = append(groupCoverage, GroupCoverage{
			Key:   g.Key,
			Label: g.Label,
			Lines: coverage.CoveredLineCount(g.Attributions),
			Pct:   coverage.GroupPct(g.Attributions, totalLines),
		})
	}

	uncoveredRanges := coverage.UncoveredRanges(totalLines, report.Attributions)
	if uncoveredRanges == nil {
		uncoveredRanges = []coverage.Range{}
	}

	output := FileCoverageOutput{
		Path:            input.Path,
		TotalLines:      totalLines,
		Groups:          groupCoverage,
		UncoveredLines:  coverage.UncoveredLineCount(totalLines, report.Attributions),
		UncoveredPct:    coverage.UncoveredPct(totalLines, report.Attributions),
		UncoveredRanges: uncoveredRanges,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal coverage output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, FileCoverageOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

// countLines counts newline-delimited lines, ignoring a trailing newline.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := 1
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' && i != len(content)-1 {
			n++
		}
	}
	return n
}
