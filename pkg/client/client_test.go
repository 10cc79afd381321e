package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelens/tracelens/pkg/client"
)

var _ = Describe("Client", func() {
	var (
		server *httptest.Server
		c      *client.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux := http.NewServeMux()
		mux.HandleFunc("/api/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		})
		mux.HandleFunc("/api/project", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"root":"/work/demo","storage":"local","has_agent_trace":true}`))
		})
		mux.HandleFunc("/api/tree", func(w http.ResponseWriter, req *http.Request) {
			Expect(req.URL.Query().Get("path")).To(Equal("src"))
			w.Write([]byte(`{"path":"src","entries":[{"name":"main.go","path":"src/main.go","type":"file"}]}`))
		})
		mux.HandleFunc("/api/file", func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Query().Get("path") == "missing.go" {
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"error":"file not found"}`))
				return
			}
			w.Write([]byte(`{"path":"main.go","content":"package main\n","total_lines":1}`))
		})
		mux.HandleFunc("/api/git-blame", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"path":"main.go","segments":[{"start_line":1,"end_line":3,"commit_sha":"abc","author":"dev"}]}`))
		})
		mux.HandleFunc("/api/agent-trace-blame", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"file":"main.go","attributions":[{"start_line":1,"end_line":2,"attribution_label":"AI","trace_id":"t1"}]}`))
		})
		mux.HandleFunc("/api/conversation", func(w http.ResponseWriter, req *http.Request) {
			Expect(req.URL.Query().Get("url")).To(Equal("conv-1"))
			w.Write([]byte(`{"content":"User:\nhi"}`))
		})
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)
		c = client.New(server.URL)
	})

	It("answers health checks", func() {
		Expect(c.Health(ctx)).To(Succeed())
	})

	It("fetches the project descriptor", func() {
		p, err := c.Project(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Root).To(Equal("/work/demo"))
		Expect(p.HasAgentTrace).To(BeTrue())
	})

	It("lists directory entries", func() {
		entries, err := c.Tree(ctx, "src")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Path).To(Equal("src/main.go"))
	})

	It("fetches file content", func() {
		content, err := c.FetchFile(ctx, "main.go")
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(Equal("package main\n"))
	})

	It("surfaces server errors with their message", func() {
		_, err := c.FetchFile(ctx, "missing.go")
		Expect(err).To(MatchError(ContainSubstring("file not found")))
	})

	It("fetches blame segments", func() {
		segments, err := c.FetchBlame(ctx, "main.go")
		Expect(err).NotTo(HaveOccurred())
		Expect(segments).To(HaveLen(1))
		Expect(segments[0].CommitSHA).To(Equal("abc"))
	})

	It("fetches attributions through the tolerant decoder", func() {
		attrs, err := c.FetchAttributions(ctx, "main.go")
		Expect(err).NotTo(HaveOccurred())
		Expect(attrs).To(HaveLen(1))
		Expect(attrs[0].TraceID).To(Equal("t1"))
	})

	It("resolves conversation references", func() {
		res, err := c.FetchConversation(ctx, "conv-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Content).To(Equal("User:\nhi"))
	})
})
