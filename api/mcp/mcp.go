// Package mcp provides an MCP (Model Context Protocol) server for the
// tracelens system, exposing attribution blame and coverage tools to
// connected agents.
package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/tracelens/tracelens/pkg/agenttrace"
	"github.com/tracelens/tracelens/pkg/utils"
)

// BlameFunc produces git blame segments for a project-relative path.
type BlameFunc func(ctx context.Context, relPath string) ([]agenttrace.BlameSegment, error)

// TraceBlameFunc produces the attribution report for a project-relative path.
type TraceBlameFunc func(ctx context.Context, relPath string) (*agenttrace.AttributionReport, error)

type Config struct {
	// ProjectRoot is the absolute path of the viewed project.
	ProjectRoot string

	// Blame produces git blame segments for the trace_blame tool.
	Blame BlameFunc

	// TraceBlame produces attributions for both tools.
	TraceBlame TraceBlameFunc

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the blame and coverage tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	// Create the MCP server
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "tracelens",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.ProjectRoot == "" {
		return nil, errors.New("project root is required")
	}
	if c.Blame == nil {
		return nil, errors.New("blame function is required")
	}
	if c.TraceBlame == nil {
		return nil, errors.New("trace blame function is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// Add tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        traceBlameToolName,
		Description: traceBlameDescription,
	}, s.handleTraceBlame)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        fileCoverageToolName,
		Description: fileCoverageDescription,
	}, s.handleFileCoverage)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
