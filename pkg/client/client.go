// Package client is the HTTP data source the terminal viewer uses
// against a running tracelens server. It implements
// viewstate.DataSource; the controller supplies the degrade-to-empty
// behavior, so the client reports errors faithfully.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tracelens/tracelens/pkg/agenttrace"
	"github.com/tracelens/tracelens/pkg/conversation"
	"github.com/tracelens/tracelens/pkg/project"
)

// Client talks to the tracelens HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL, e.g. "http://localhost:7161".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FilePayload is the /api/file response.
type FilePayload struct {
	Path       string `json:"path"`
	Content    string `json:"content"`
	TotalLines int    `json:"total_lines"`
}

// TreePayload is the /api/tree response.
type TreePayload struct {
	Path    string          `json:"path"`
	Entries []project.Entry `json:"entries"`
}

// ProjectPayload is the /api/project response.
type ProjectPayload struct {
	Root          string `json:"root"`
	Storage       string `json:"storage"`
	HasAgentTrace bool   `json:"has_agent_trace"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}

func apiError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("server responded %d: %s", status, payload.Error)
	}
	return fmt.Errorf("server responded %d", status)
}

// Project fetches the project descriptor.
func (c *Client) Project(ctx context.Context) (*ProjectPayload, error) {
	var payload ProjectPayload
	if err := c.get(ctx, "/api/project", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Tree lists a directory of the project.
func (c *Client) Tree(ctx context.Context, path string) ([]project.Entry, error) {
	var payload TreePayload
	q := url.Values{}
	if path != "" {
		q.Set("path", path)
	}
	if err := c.get(ctx, "/api/tree", q, &payload); err != nil {
		return nil, err
	}
	return payload.Entries, nil
}

// FetchFile retrieves a file's text content.
func (c *Client) FetchFile(ctx context.Context, path string) (string, error) {
	var payload FilePayload
	if err := c.get(ctx, "/api/file", url.Values{"path": {path}}, &payload); err != nil {
		return "", err
	}
	return payload.Content, nil
}

// FetchBlame retrieves the git blame segments for a file.
func (c *Client) FetchBlame(ctx context.Context, path string) ([]agenttrace.BlameSegment, error) {
	var report agenttrace.BlameReport
	if err := c.get(ctx, "/api/git-blame", url.Values{"path": {path}}, &report); err != nil {
		return nil, err
	}
	return report.Segments, nil
}

// FetchAttributions retrieves the agent-trace attributions for a file.
func (c *Client) FetchAttributions(ctx context.Context, path string) ([]agenttrace.Attribution, error) {
	var report agenttrace.AttributionReport
	if err := c.get(ctx, "/api/agent-trace-blame", url.Values{"path": {path}}, &report); err != nil {
		return nil, err
	}
	return report.Attributions, nil
}

// FetchConversation resolves a conversation reference through the
// server.
func (c *Client) FetchConversation(ctx context.Context, ref string) (*conversation.Result, error) {
	var result conversation.Result
	if err := c.get(ctx, "/api/conversation", url.Values{"url": {ref}}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var payload struct {
		Status string `json:"status"`
	}
	return c.get(ctx, "/api/health", nil, &payload)
}
