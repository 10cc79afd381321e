package config

const (
	defaultListen        = ":7161"
	defaultAgentTraceBin = "agent-trace"

	defaultClientAPITarget = "http://localhost:7161"

	defaultViewerTheme      = "dark"
	defaultViewerPanelWidth = 320
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. ProjectRoot is
// deliberately empty: commands fall back to the working directory.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen:        defaultListen,
			AgentTraceBin: defaultAgentTraceBin,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Viewer: ViewerConfig{
			Theme:      defaultViewerTheme,
			PanelWidth: defaultViewerPanelWidth,
		},
	}
}
