// Package traceblame obtains per-file AI attributions from the external
// agent-trace CLI. The ledger and its heuristic scoring live entirely in
// that collaborator; this package invokes it and decodes its JSON.
package traceblame

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/tracelens/tracelens/pkg/agenttrace"
)

const blameTimeout = 30 * time.Second

// ErrUnavailable means the agent-trace CLI is not installed.
var ErrUnavailable = errors.New("agent-trace CLI not available")

// Runner invokes the agent-trace CLI for a project root.
type Runner struct {
	// Binary is the executable name or path; defaults to "agent-trace".
	Binary string
}

// NewRunner returns a Runner using the default binary name.
func NewRunner() *Runner {
	return &Runner{Binary: "agent-trace"}
}

// Blame runs `agent-trace blame --json` for the file at relPath under
// projectRoot and decodes the attribution report. ErrUnavailable is
// returned when the CLI cannot be found; other errors mean the CLI ran
// and failed (not a git repo, no ledger data). Callers degrade to an
// empty attribution list.
func (r *Runner) Blame(ctx context.Context, projectRoot, relPath string) (*agenttrace.AttributionReport, error) {
	binary := r.Binary
	if binary == "" {
		binary = "agent-trace"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, blameTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "blame", relPath, "--json")
	cmd.Dir = projectRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("agent-trace blame: %w", err)
	}

	var report agenttrace.AttributionReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("decoding agent-trace output: %w", err)
	}
	if report.File == "" {
		report.File = relPath
	}
	return &report, nil
}
