// Package tracelenscmder
package tracelenscmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/tracelens/tracelens/cmd/tracelens/config"
	servecmder "github.com/tracelens/tracelens/cmd/tracelens/serve"
	viewcmder "github.com/tracelens/tracelens/cmd/tracelens/view"
	versioncmder "github.com/tracelens/tracelens/cmd/version"
)

const tracelensLongDesc string = `Tracelens shows who wrote every line: git blame and AI agent-trace
attributions overlaid on your source files.

Common workflows:
  tracelens serve      Run the attribution API server for a project
  tracelens view       Open the terminal viewer against a running server
  tracelens config     Manage persistent configuration`

const tracelensShortDesc string = "Tracelens - per-line provenance viewer"

func NewTracelensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracelens",
		Short: tracelensShortDesc,
		Long:  tracelensLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding config.toml (default: ./.tracelens or ~/.tracelens)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(viewcmder.NewViewCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
