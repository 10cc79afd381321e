package project_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/project"
)

var _ = Describe("project", func() {
	var root string

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		Expect(os.MkdirAll(filepath.Join(root, "src"), 0o755)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(root, "node_modules", "x"), 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(root, "src", "a.go"), []byte("package src\n"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(root, ".gitignore"), []byte("node_modules/\n# comment\n"), 0o644)).To(Succeed())
	})

	Describe("Describe", func() {
		It("reports no agent trace for a bare project", func() {
			desc := project.Describe(root)
			Expect(desc.HasAgentTrace).To(BeFalse())
			Expect(desc.Storage).To(Equal(project.StorageLocal))
			Expect(desc.Root).To(Equal(root))
		})

		It("reads storage mode from the trace config", func() {
			Expect(os.MkdirAll(filepath.Join(root, ".agent-trace"), 0o755)).To(Succeed())
			cfg := `{"storage":"remote","project_id":"p1","service_url":"https://svc"}`
			Expect(os.WriteFile(filepath.Join(root, ".agent-trace", "config.json"), []byte(cfg), 0o644)).To(Succeed())

			desc := project.Describe(root)
			Expect(desc.HasAgentTrace).To(BeTrue())
			Expect(desc.Storage).To(Equal(project.StorageRemote))
		})

		It("degrades to defaults on malformed config", func() {
			Expect(os.MkdirAll(filepath.Join(root, ".agent-trace"), 0o755)).To(Succeed())
			Expect(os.WriteFile(filepath.Join(root, ".agent-trace", "config.json"), []byte("{oops"), 0o644)).To(Succeed())
			desc := project.Describe(root)
			Expect(desc.HasAgentTrace).To(BeFalse())
			Expect(desc.Storage).To(Equal(project.StorageLocal))
		})
	})

	Describe("Resolve", func() {
		It("rejects traversal outside the root", func() {
			_, err := project.Resolve(root, "../../etc/passwd")
			Expect(err).To(MatchError(project.ErrOutsideRoot))
		})

		It("accepts the root itself and nested paths", func() {
			full, err := project.Resolve(root, "src/a.go")
			Expect(err).NotTo(HaveOccurred())
			Expect(full).To(Equal(filepath.Join(root, "src", "a.go")))

			_, err = project.Resolve(root, "")
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Tree", func() {
		It("lists visible entries sorted by name", func() {
			entries := project.Tree(root, "")
			var names []string
			for _, e := range entries {
				names = append(names, e.Name)
			}
			Expect(names).To(Equal([]string{"main.go", "src"}))
			Expect(entries[0].Type).To(Equal("file"))
			Expect(entries[1].Type).To(Equal("dir"))
		})

		It("hides dotfiles and gitignored entries", func() {
			for _, e := range project.Tree(root, "") {
				Expect(e.Name).NotTo(Equal(".gitignore"))
				Expect(e.Name).NotTo(Equal("node_modules"))
			}
		})

		It("returns nothing for escapes and non-directories", func() {
			Expect(project.Tree(root, "../..")).To(BeEmpty())
			Expect(project.Tree(root, "main.go")).To(BeEmpty())
		})

		It("lists subdirectories with root-relative paths", func() {
			entries := project.Tree(root, "src")
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Path).To(Equal("src/a.go"))
		})
	})

	Describe("ReadTextFile", func() {
		It("serves text files with a content type", func() {
			content, contentType, err := project.ReadTextFile(root, "main.go")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("package main\n"))
			Expect(contentType).To(HavePrefix("text/plain"))
		})

		It("rejects missing, binary, and out-of-root files", func() {
			_, _, err := project.ReadTextFile(root, "missing.go")
			Expect(err).To(MatchError(project.ErrNotText))

			Expect(os.WriteFile(filepath.Join(root, "blob.bin"), []byte{0, 1, 2}, 0o644)).To(Succeed())
			_, _, err = project.ReadTextFile(root, "blob.bin")
			Expect(err).To(MatchError(project.ErrNotText))

			Expect(os.WriteFile(filepath.Join(root, "sneaky.txt"), []byte("a\x00b"), 0o644)).To(Succeed())
			_, _, err = project.ReadTextFile(root, "sneaky.txt")
			Expect(err).To(MatchError(project.ErrNotText))

			_, _, err = project.ReadTextFile(root, "../outside.txt")
			Expect(err).To(MatchError(project.ErrNotText))
		})

		It("labels json content", func() {
			Expect(os.WriteFile(filepath.Join(root, "data.json"), []byte(`{}`), 0o644)).To(Succeed())
			_, contentType, err := project.ReadTextFile(root, "data.json")
			Expect(err).NotTo(HaveOccurred())
			Expect(contentType).To(Equal("application/json"))
		})
	})
})
