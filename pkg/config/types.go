package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent tracelens configuration stored as
// config.toml in the .tracelens/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Server  ServerConfig `toml:"server"`
	Client  ClientConfig `toml:"client"`
	Viewer  ViewerConfig `toml:"viewer"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Listen        string `toml:"listen,omitempty"`
	ProjectRoot   string `toml:"project_root,omitempty"`
	AgentTraceBin string `toml:"agent_trace_bin,omitempty"`
}

// ClientConfig holds settings for commands that connect to a running
// tracelens server (e.g. tracelens view). Values are full URLs.
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// ViewerConfig holds terminal viewer settings.
type ViewerConfig struct {
	Theme      string `toml:"theme,omitempty"`
	PanelWidth uint   `toml:"panel_width,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"server.project_root": {
		get: func(c *Config) string { return c.Server.ProjectRoot },
		set: func(c *Config, v string) error { c.Server.ProjectRoot = v; return nil },
	},
	"server.agent_trace_bin": {
		get: func(c *Config) string { return c.Server.AgentTraceBin },
		set: func(c *Config, v string) error { c.Server.AgentTraceBin = v; return nil },
	},
	"client.api_target": {
		get: func(c *Config) string { return c.Client.APITarget },
		set: func(c *Config, v string) error { c.Client.APITarget = v; return nil },
	},
	"viewer.theme": {
		get: func(c *Config) string { return c.Viewer.Theme },
		set: func(c *Config, v string) error { c.Viewer.Theme = v; return nil },
	},
	"viewer.panel_width": {
		get: func(c *Config) string {
			if c.Viewer.PanelWidth == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Viewer.PanelWidth), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for viewer.panel_width: %w", err)
			}
			c.Viewer.PanelWidth = uint(n)
			return nil
		},
	},
}
