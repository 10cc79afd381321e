// Package conversation resolves a conversation reference from an
// attribution into displayable transcript content, an external URL to
// open, or an error state.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tracelens/tracelens/pkg/project"
)

// Result is the conversation endpoint payload: either inline content to
// parse and render, or an instruction to open the reference externally.
type Result struct {
	Content      string `json:"content,omitempty"`
	OpenExternal bool   `json:"open_external,omitempty"`
	URL          string `json:"url,omitempty"`
}

var (
	// ErrBadRequest covers empty or unusable references.
	ErrBadRequest = errors.New("invalid conversation reference")
	// ErrForbidden covers local paths outside the project and home.
	ErrForbidden = errors.New("conversation file outside project or home")
	// ErrNotFound covers missing transcript files and unknown references.
	ErrNotFound = errors.New("conversation not found")
	// ErrUpstream covers remote service failures.
	ErrUpstream = errors.New("conversation service unavailable")
)

// Resolver resolves conversation references for one project root.
type Resolver struct {
	Root   string
	Config *project.TraceConfig // nil means local storage defaults
	Client *http.Client
}

// NewResolver builds a Resolver with a 30s HTTP client.
func NewResolver(root string, cfg *project.TraceConfig) *Resolver {
	return &Resolver{
		Root:   root,
		Config: cfg,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Resolve turns a reference (http(s) URL, file:// URL, or bare path)
// into a Result. External URLs are never fetched: the caller redirects
// instead of rendering, so untrusted content stays out of the viewer.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Result, error) {
	ref = strings.TrimSpace(ref)
	if unescaped, err := url.QueryUnescape(ref); err == nil {
		ref = unescaped
	}
	if ref == "" {
		return nil, ErrBadRequest
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return &Result{OpenExternal: true, URL: ref}, nil
	}

	storage := project.StorageLocal
	if r.Config != nil && r.Config.Storage != "" {
		storage = r.Config.Storage
	}
	switch storage {
	case project.StorageLocal:
		return r.resolveLocal(ref)
	case project.StorageRemote:
		return r.resolveRemote(ctx, ref)
	default:
		return nil, fmt.Errorf("%w: unsupported storage mode %q", ErrBadRequest, storage)
	}
}

// resolveLocal reads a transcript file. Absolute paths are allowed when
// they stay under the project root or the user's home directory (editor
// agents store transcripts under ~); relative paths resolve against the
// project root.
func (r *Resolver) resolveLocal(ref string) (*Result, error) {
	path := strings.TrimPrefix(ref, "file://")
	if path == "" {
		return nil, ErrBadRequest
	}

	var full string
	if filepath.IsAbs(path) {
		full = filepath.Clean(path)
	} else {
		full = filepath.Clean(filepath.Join(r.Root, path))
	}
	if resolved, err := filepath.EvalSymlinks(full); err == nil {
		full = resolved
	}

	if !underDir(full, r.Root) && !underHome(full) {
		return nil, ErrForbidden
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, ErrNotFound
	}
	return &Result{Content: string(data)}, nil
}

// resolveRemote fetches transcript content from the agent-trace service.
func (r *Resolver) resolveRemote(ctx context.Context, ref string) (*Result, error) {
	if r.Config == nil || r.Config.ProjectID == "" || r.Config.AuthToken == "" {
		return nil, fmt.Errorf("%w: remote mode requires project_id and auth token", ErrBadRequest)
	}
	serviceURL := strings.TrimSuffix(r.Config.ServiceURL, "/")
	if serviceURL == "" {
		serviceURL = "http://localhost:5000"
	}

	reqURL := fmt.Sprintf("%s/api/v1/conversations/content?project_id=%s&url=%s",
		serviceURL, url.QueryEscape(r.Config.ProjectID), url.QueryEscape(ref))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	req.Header.Set("Authorization", "Bearer "+r.Config.AuthToken)

	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: service responded %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	var payload struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Content == nil {
		return nil, ErrNotFound
	}
	return &Result{Content: *payload.Content}, nil
}

func underDir(path, dir string) bool {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return path == abs || strings.HasPrefix(path, abs+string(filepath.Separator))
}

func underHome(path string) bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	return underDir(path, home)
}
