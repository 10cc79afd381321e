// Package servecmder provides the serve command running the attribution API server.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tracelens/tracelens/api"
	"github.com/tracelens/tracelens/pkg/config"
	"github.com/tracelens/tracelens/pkg/logger"
)

type ServeCommander struct {
	listen        string
	projectRoot   string
	agentTraceBin string
	debug         bool
	logger        *zap.Logger
	viper         *viper.Viper
}

const serveLongDesc string = `Run the tracelens API server for a project.

The server exposes the project tree, file contents, git blame segments,
agent-trace attributions, and conversation resolution over HTTP, plus an
MCP endpoint at /mcp for agent access.

Examples:
  tracelens serve
  tracelens serve --project-root /work/myrepo
  tracelens serve --listen :7161 --agent-trace-bin /usr/local/bin/agent-trace`

const serveShortDesc string = "Run the tracelens API server"

// serveFlags is the flag registry for the serve command. Names, viper
// keys, and descriptions live here so "tracelens view" can reuse the
// shared ones without drift.
var serveFlags = config.FlagSet{
	config.FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "server.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagProjectRoot: {
		Name:        "project-root",
		Shorthand:   "r",
		ViperKey:    "server.project_root",
		Description: "Project root to serve (default: current directory)",
	},
	config.FlagAgentTraceBin: {
		Name:        "agent-trace-bin",
		ViperKey:    "server.agent_trace_bin",
		Description: "Name or path of the agent-trace CLI binary",
	},
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, serveFlags, []string{
				config.FlagListen,
				config.FlagProjectRoot,
				config.FlagAgentTraceBin,
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
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagProjectRoot, &cmder.projectRoot)
	config.AddStringFlag(cmd, serveFlags, config.FlagAgentTraceBin, &cmder.agentTraceBin)

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	listen := c.viper.GetString("server.listen")
	root := c.viper.GetString("server.project_root")
	bin := c.viper.GetString("server.agent_trace_bin")

	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving project root: %w", err)
		}
		root = cwd
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:    listen,
		ProjectRoot:   root,
		AgentTraceBin: bin,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
