// Package api provides the HTTP API server the viewer frontends consume:
// project metadata, file content, git blame segments, agent-trace
// attributions, and conversation transcripts.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":7161")
	ListenAddr string

	// ProjectRoot is the absolute path of the project being viewed.
	ProjectRoot string

	// AgentTraceBin is the agent-trace CLI binary used for attribution
	// blame. Empty means "agent-trace" from PATH.
	AgentTraceBin string
}

// ErrorResponse is the JSON error payload for non-200 responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
