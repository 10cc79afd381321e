package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tracelens/tracelens/pkg/agenttrace"
	"github.com/tracelens/tracelens/pkg/conversation"
	"github.com/tracelens/tracelens/pkg/project"
	"github.com/tracelens/tracelens/pkg/traceblame"
)

// FileResponse is the /api/file payload.
type FileResponse struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	TotalLines  int    `json:"total_lines"`
}

// TreeResponse is the /api/tree payload.
type TreeResponse struct {
	Path    string          `json:"path"`
	Entries []project.Entry `json:"entries"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleProject returns the project descriptor.
func (s *Server) handleProject(c *fiber.Ctx) error {
	return c.JSON(project.Describe(s.config.ProjectRoot))
}

// handleTree lists the directory at ?path= (project root when empty).
func (s *Server) handleTree(c *fiber.Ctx) error {
	relPath := c.Query("path")
	entries := project.Tree(s.config.ProjectRoot, relPath)
	if entries == nil {
		entries = []project.Entry{}
	}
	return c.JSON(TreeResponse{Path: relPath, Entries: entries})
}

// handleFile serves a text file's content with its line count.
func (s *Server) handleFile(c *fiber.Ctx) error {
	relPath := c.Query("path")
	if relPath == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "path parameter required"})
	}

	if _, err := project.Resolve(s.config.ProjectRoot, relPath); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "path outside project root"})
	}

	content, contentType, err := project.ReadTextFile(s.config.ProjectRoot, relPath)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "file not found or not text"})
	}

	return c.JSON(FileResponse{
		Path:        relPath,
		Content:     content,
		ContentType: contentType,
		TotalLines:  countLines(content),
	})
}

// handleGitBlame serves the blame segments for one file.
func (s *Server) handleGitBlame(c *fiber.Ctx) error {
	relPath := c.Query("path")
	if relPath == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "path parameter required"})
	}
	if _, err := project.Resolve(s.config.ProjectRoot, relPath); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "path outside project root"})
	}

	segments, err := s.blame(c.Context(), s.config.ProjectRoot, relPath)
	if err != nil {
		s.logger.Warn("git blame failed",
			zap.String("path", relPath),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "git blame failed"})
	}
	if segments == nil {
		segments = []agenttrace.BlameSegment{}
	}

	return c.JSON(agenttrace.BlameReport{Path: relPath, Segments: segments})
}

// handleAgentTraceBlame serves the attribution report for one file. A
// missing agent-trace CLI maps to 503 so clients can distinguish "not
// installed" from "blame failed".
func (s *Server) handleAgentTraceBlame(c *fiber.Ctx) error {
	relPath := c.Query("path")
	if relPath == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "path parameter required"})
	}
	if _, err := project.Resolve(s.config.ProjectRoot, relPath); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "path outside project root"})
	}

	report, err := s.traceBlame(c.Context(), s.config.ProjectRoot, relPath)
	if err != nil {
		if errors.Is(err, traceblame.ErrUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "agent-trace CLI not available"})
		}
		s.logger.Warn("agent-trace blame failed",
			zap.String("path", relPath),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "agent-trace blame failed"})
	}
	if report.Attributions == nil {
		report.Attributions = []agenttrace.Attribution{}
	}

	return c.JSON(report)
}

// handleConversation resolves a conversation reference from ?url=.
func (s *Server) handleConversation(c *fiber.Ctx) error {
	ref := c.Query("url")
	result, err := s.resolver.Resolve(c.Context(), ref)
	if err != nil {
		switch {
		case errors.Is(err, conversation.ErrBadRequest):
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid conversation reference"})
		case errors.Is(err, conversation.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{Error: "conversation file outside project or home"})
		case errors.Is(err, conversation.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "conversation not found"})
		default:
			s.logger.Warn("conversation resolution failed", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "conversation service unavailable"})
		}
	}
	return c.JSON(result)
}

// countLines counts newline-delimited lines, ignoring a trailing newline.
func countLines(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Split(strings.TrimSuffix(content, "\n"), "\n"))
}
