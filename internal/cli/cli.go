// Package cli implements the fieldgraph command line interface. It wires
// the cobra commands that compile pipeline definitions (plan), write
// manifests (export), draw the layer graph (render) and emit the Lua
// conversion module (gen).
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mkrawiec/fieldgraph/internal/buildinfo"
)

// Log levels accepted by New and SetLogLevel.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI bundles the dependencies shared by all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI whose logger writes to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
	return &CLI{Logger: logger}
}

// SetLogLevel adjusts the logger verbosity after construction.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand returns the root cobra command with all subcommands attached.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "fieldgraph",
		Short: "Compile image field definitions into tensor layouts and layer graphs",
		Long: `fieldgraph reads a TOML pipeline definition describing image fields and
their layer stacks, resolves the tensor layout of every field and builds
the corresponding computation graph. The compiled plan can be inspected,
exported as a manifest, rendered as a diagram or turned into a Lua
conversion module.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(buildinfo.Template())

	var verbose bool
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
	}

	root.AddCommand(
		c.planCommand(),
		c.exportCommand(),
		c.renderCommand(),
		c.genCommand(),
	)
	return root
}
