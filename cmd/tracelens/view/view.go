// Package viewcmder provides the view command: a terminal viewer for
// per-line provenance overlays against a running tracelens server.
package viewcmder

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/tracelens/tracelens/pkg/client"
	"github.com/tracelens/tracelens/pkg/cliui"
	"github.com/tracelens/tracelens/pkg/config"
	"github.com/tracelens/tracelens/pkg/dotdir"
	"github.com/tracelens/tracelens/pkg/logger"
	"github.com/tracelens/tracelens/pkg/viewstate"
)

type ViewCommander struct {
	apiTarget string
	file      string
	noRestore bool
	debug     bool
	configDir string
	viper     *viper.Viper
}

const viewLongDesc string = `Open the terminal viewer against a running tracelens server.

The viewer overlays git blame and agent-trace attributions on source
files: a file tree on the left, the source with colored provenance
gutters in the middle, and a conversation panel on the right when a
pinned line links to an agent transcript.

Keys:
  tab        switch between tree and source panes
  j/k        move          enter  open file / pin line
  g          toggle git blame overlay
  t          toggle agent-trace overlay
  [ / ]      resize the conversation panel
  q          quit

Examples:
  tracelens view
  tracelens view --api-target http://localhost:7161
  tracelens view --file src/main.go`

const viewShortDesc string = "Open the terminal provenance viewer"

var viewFlags = config.FlagSet{
	config.FlagAPITarget: {
		Name:        "api-target",
		Shorthand:   "a",
		ViperKey:    "client.api_target",
		Description: "Base URL of a running tracelens server",
	},
	config.FlagPanelWidth: {
		Name:        "panel-width",
		ViperKey:    "viewer.panel_width",
		Description: "Initial conversation panel width",
	},
}

func NewViewCmd() *cobra.Command {
	cmder := &ViewCommander{}

	var panelWidth uint

	cmd := &cobra.Command{
		Use:   "view",
		Short: viewShortDesc,
		Long:  viewLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cmder.configDir = configDir
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, viewFlags, []string{
				config.FlagAPITarget,
				config.FlagPanelWidth,
			})
			cmder.viper = v
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, viewFlags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddUintFlag(cmd, viewFlags, config.FlagPanelWidth, &panelWidth)
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "File to open on startup (project-relative)")
	cmd.Flags().BoolVar(&cmder.noRestore, "no-restore", false, "Skip restoring the previous viewer session")

	return cmd
}

func (c *ViewCommander) run(ctx context.Context) error {
	log := logger.NewCLI(c.debug)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tracelens view requires a terminal")
	}

	target := c.viper.GetString("client.api_target")
	api := client.New(target)

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var proj *client.ProjectPayload
	err := cliui.Step(os.Stdout, fmt.Sprintf("connecting to %s", target), func() error {
		if err := api.Health(healthCtx); err != nil {
			return fmt.Errorf("could not reach tracelens server at %s (is `tracelens serve` running?): %w", target, err)
		}
		var err error
		proj, err = api.Project(healthCtx)
		if err != nil {
			return fmt.Errorf("fetching project descriptor: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !proj.HasAgentTrace {
		log.Warn("project has no .agent-trace config; attribution overlay may be empty",
			"root", proj.Root)
	}

	ctrl := viewstate.New(api)
	ctrl.SetPanelWidth(int(c.viper.GetUint("viewer.panel_width")))

	// Restore the previous session when it belongs to the same project.
	initialFile := c.file
	ddm := dotdir.NewManager()
	if !c.noRestore {
		state, err := ddm.LoadSessionState(c.configDir)
		if err != nil {
			log.Debug("could not load session state", "err", err)
		}
		if state != nil && state.ProjectRoot == proj.Root {
			if !state.GitBlame {
				ctrl.ToggleGitBlame()
			}
			if !state.TraceBlame {
				ctrl.ToggleTraceBlame()
			}
			if initialFile == "" {
				initialFile = state.LastFile
			}
		}
	}

	if err := runViewTUI(ctx, viewParams{
		ctrl:        ctrl,
		api:         api,
		projectRoot: proj.Root,
		initialFile: initialFile,
		theme:       c.viper.GetString("viewer.theme"),
	}); err != nil {
		return err
	}

	toggles := ctrl.Toggles()
	state := &dotdir.SessionState{
		ProjectRoot: proj.Root,
		LastFile:    ctrl.Snapshot().Path,
		GitBlame:    toggles.GitBlame,
		TraceBlame:  toggles.TraceBlame,
	}
	if err := ddm.SaveSession(state, c.configDir); err != nil {
		log.Debug("could not save session state", "err", err)
	}

	return nil
}
