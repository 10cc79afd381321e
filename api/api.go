package api

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apimcp "github.com/tracelens/tracelens/api/mcp"
	"github.com/tracelens/tracelens/pkg/agenttrace"
	"github.com/tracelens/tracelens/pkg/conversation"
	"github.com/tracelens/tracelens/pkg/gitblame"
	"github.com/tracelens/tracelens/pkg/project"
	"github.com/tracelens/tracelens/pkg/traceblame"
)

// BlameFunc produces git blame segments for one file of the project.
type BlameFunc func(ctx context.Context, projectRoot, relPath string) ([]agenttrace.BlameSegment, error)

// TraceBlameFunc produces the agent-trace attribution report for one file.
type TraceBlameFunc func(ctx context.Context, projectRoot, relPath string) (*agenttrace.AttributionReport, error)

// Server is the API server for one project.
type Server struct {
	config   Config
	logger   *zap.Logger
	app      *fiber.App
	resolver *conversation.Resolver

	// blame and traceBlame shell out by default; tests swap them.
	blame      BlameFunc
	traceBlame TraceBlameFunc
}

// NewServer creates a new API server rooted at config.ProjectRoot.
func NewServer(config Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.ProjectRoot == "" {
		return nil, errors.New("project root is required")
	}
	root, err := filepath.Abs(config.ProjectRoot)
	if err != nil {
		return nil, err
	}
	config.ProjectRoot = root

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// A missing trace config is fine: the resolver falls back to local
	// transcript files.
	traceCfg, err := project.LoadTraceConfig(root)
	if err != nil {
		traceCfg = nil
	}

	runner := &traceblame.Runner{Binary: config.AgentTraceBin}
	if runner.Binary == "" {
		runner = traceblame.NewRunner()
	}

	s := &Server{
		config:     config,
		logger:     logger,
		app:        app,
		resolver:   conversation.NewResolver(root, traceCfg),
		blame:      gitblame.Blame,
		traceBlame: runner.Blame,
	}

	app.Get("/api/health", s.handleHealth)
	app.Get("/api/project", s.handleProject)
	app.Get("/api/tree", s.handleTree)
	app.Get("/api/file", s.handleFile)
	app.Get("/api/git-blame", s.handleGitBlame)
	app.Get("/api/agent-trace-blame", s.handleAgentTraceBlame)
	app.Get("/api/conversation", s.handleConversation)

	mcpServer, err := apimcp.NewServer(apimcp.Config{
		ProjectRoot: root,
		Blame:       apimcp.BlameFunc(s.blameSegments),
		TraceBlame:  apimcp.TraceBlameFunc(s.attributions),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))

	return s, nil
}

// blameSegments runs the current blame function against the project root.
func (s *Server) blameSegments(ctx context.Context, relPath string) ([]agenttrace.BlameSegment, error) {
	return s.blame(ctx, s.config.ProjectRoot, relPath)
}

// attributions runs the current trace blame function against the project root.
func (s *Server) attributions(ctx context.Context, relPath string) (*agenttrace.AttributionReport, error) {
	return s.traceBlame(ctx, s.config.ProjectRoot, relPath)
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("project_root", s.config.ProjectRoot),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
