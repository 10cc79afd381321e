package traceblame_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/traceblame"
)

// fakeCLI writes an executable stand-in for the agent-trace binary that
// prints the given JSON and returns its path.
func fakeCLI(dir, output string) string {
	path := filepath.Join(dir, "agent-trace")
	script := "#!/bin/sh\ncat <<'EOF'\n" + output + "\nEOF\n"
	Expect(os.WriteFile(path, []byte(script), 0o755)).To(Succeed())
	return path
}

var _ = Describe("Runner", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("decodes the CLI's attribution report", func() {
		bin := fakeCLI(dir, `{"file":"main.go","attributions":[{"start_line":1,"end_line":4,"attribution_label":"AI","trace_id":"t1","model_id":"m1"}]}`)
		r := &traceblame.Runner{Binary: bin}

		report, err := r.Blame(context.Background(), dir, "main.go")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.File).To(Equal("main.go"))
		Expect(report.Attributions).To(HaveLen(1))
		Expect(report.Attributions[0].TraceID).To(Equal("t1"))
	})

	It("fills in the file path when the CLI omits it", func() {
		bin := fakeCLI(dir, `{"attributions":[]}`)
		r := &traceblame.Runner{Binary: bin}

		report, err := r.Blame(context.Background(), dir, "src/a.go")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.File).To(Equal("src/a.go"))
	})

	It("reports ErrUnavailable when the binary is missing", func() {
		r := &traceblame.Runner{Binary: filepath.Join(dir, "no-such-binary")}
		_, err := r.Blame(context.Background(), dir, "main.go")
		Expect(err).To(MatchError(traceblame.ErrUnavailable))
	})

	It("fails on malformed CLI output", func() {
		bin := fakeCLI(dir, "not json")
		r := &traceblame.Runner{Binary: bin}
		_, err := r.Blame(context.Background(), dir, "main.go")
		Expect(err).To(HaveOccurred())
	})
})
