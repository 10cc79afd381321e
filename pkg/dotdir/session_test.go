package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/dotdir"
)

var _ = Describe("session state", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "session-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns nil when no session exists", func() {
		state, err := m.LoadSessionState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})

	It("round-trips a session", func() {
		saved := &dotdir.SessionState{
			ProjectRoot: "/work/demo",
			LastFile:    "src/main.go",
			GitBlame:    true,
			TraceBlame:  false,
		}
		Expect(m.SaveSession(saved, tmpDir)).To(Succeed())

		loaded, err := m.LoadSessionState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(saved))
	})

	It("rejects a nil session", func() {
		Expect(m.SaveSession(nil, tmpDir)).To(HaveOccurred())
	})

	It("fails on malformed session JSON", func() {
		path := filepath.Join(tmpDir, "session.json")
		Expect(os.WriteFile(path, []byte("{nope"), 0o600)).To(Succeed())

		_, err := m.LoadSessionState(tmpDir)
		Expect(err).To(HaveOccurred())
	})

	It("clears a session", func() {
		saved := &dotdir.SessionState{ProjectRoot: "/work/demo"}
		Expect(m.SaveSession(saved, tmpDir)).To(Succeed())

		Expect(m.ClearSession(tmpDir)).To(Succeed())

		state, err := m.LoadSessionState(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(state).To(BeNil())
	})

	It("treats clearing a missing session as a no-op", func() {
		Expect(m.ClearSession(tmpDir)).To(Succeed())
	})
})
