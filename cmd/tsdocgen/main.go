// Command tsdocgen appends docgen registration blocks to React component
// sources, one file at a time, over a whole tree, or as MCP tools.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnana997/tsdocgen/pkg/util"
)

const version = "0.1.0-dev"

// app carries the state shared by all commands.
type app struct {
	logLevel   string
	logFormat  string
	configPath string

	logger *slog.Logger
	config *ProjectConfig
	// logOutput is where logs go; stdout stays free for results.
	logOutput io.Writer
}

func main() {
	if err := newRootCmd(&app{logOutput: os.Stderr}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "tsdocgen",
		Short:        "Generate component documentation for React TypeScript sources",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format (json, text, pretty)")
	flags.StringVar(&a.configPath, "config", "", "project config file (default "+defaultConfigPath+" if present)")

	root.AddCommand(
		newTransformCmd(a),
		newParseCmd(a),
		newBuildCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newSchemaCmd(),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup() error {
	level, err := util.ParseLogLevel(a.logLevel)
	if err != nil {
		return err
	}
	format, err := util.ParseLogFormat(a.logFormat)
	if err != nil {
		return err
	}
	logConfig := util.DefaultLoggerConfig()
	logConfig.Level = level
	logConfig.Format = format
	if a.logOutput != nil {
		logConfig.Output = a.logOutput
	}
	a.logger = util.NewLogger(logConfig)
	util.SetDefault(a.logger)

	cfg, err := loadProjectConfig(a.configPath)
	if err != nil {
		return err
	}
	a.config = cfg
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "tsdocgen %s\n", version)
			return err
		},
	}
}
