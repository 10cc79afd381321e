package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/tracelens/tracelens/pkg/agenttrace"
)

var _ = Describe("blame and coverage tools", func() {
	var (
		root   string
		server *Server
		ctx    context.Context

		segments []agenttrace.BlameSegment
		attrs    []agenttrace.Attribution
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		ctx = context.Background()

		Expect(os.WriteFile(filepath.Join(root, "main.go"), []byte("a\nb\nc\nd\ne\n"), 0o644)).To(Succeed())

		segments = []agenttrace.BlameSegment{
			{StartLine: 1, EndLine: 5, CommitSHA: "abc123", Author: "dev"},
		}
		attrs = []agenttrace.Attribution{
			{StartLine: 1, EndLine: 3, AttributionLabel: agenttrace.LabelAI, TraceID: "t1", ModelID: "model-a"},
			{StartLine: 4, EndLine: 4, AttributionLabel: agenttrace.LabelHuman},
		}

		var err error
		server, err = NewServer(Config{
			ProjectRoot: root,
			Blame: func(context.Context, string) ([]agenttrace.BlameSegment, error) {
				return segments, nil
			},
			TraceBlame: func(_ context.Context, relPath string) (*agenttrace.AttributionReport, error) {
				return &agenttrace.AttributionReport{File: relPath, Attributions: attrs}, nil
			},
			Logger: zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("trace_blame", func() {
		It("requires a path", func() {
			result, _, err := server.handleTraceBlame(ctx, nil, TraceBlameInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})

		It("returns segments and attributions for a file", func() {
			result, output, err := server.handleTraceBlame(ctx, nil, TraceBlameInput{Path: "main.go"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Segments).To(HaveLen(1))
			Expect(output.Attributions).To(HaveLen(2))
			Expect(output.Attributions[0].TraceID).To(Equal("t1"))
		})

		It("reports blame failures as tool errors", func() {
			server.config.Blame = func(context.Context, string) ([]agenttrace.BlameSegment, error) {
				return nil, errors.New("not a git repository")
			}
			result, _, err := server.handleTraceBlame(ctx, nil, TraceBlameInput{Path: "main.go"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("file_coverage", func() {
		It("summarizes per-group coverage with the uncovered remainder", func() {
			result, output, err := server.handleFileCoverage(ctx, nil, FileCoverageInput{Path: "main.go"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.TotalLines).To(Equal(5))
			Expect(output.Groups).To(HaveLen(2))
			Expect(output.Groups[0].Label).To(Equal("model-a"))
			Expect(output.Groups[0].Pct).To(BeNumerically("~", 60, 1e-9))
			Expect(output.Groups[1].Label).To(Equal(agenttrace.LabelHuman))
			Expect(output.Groups[1].Pct).To(BeNumerically("~", 20, 1e-9))
			Expect(output.UncoveredLines).To(Equal(1))
			Expect(output.UncoveredPct).To(BeNumerically("~", 20, 1e-9))
		})

		It("reports missing files as tool errors", func() {
			result, _, err := server.handleFileCoverage(ctx, nil, FileCoverageInput{Path: "nope.go"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})
})
