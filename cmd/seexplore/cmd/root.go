// Package cmd implements seexplore's command-line interface, mirroring
// the shape of cmd/dwscript/cmd: a cobra root command with persistent
// flags, one file per subcommand.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "seexplore",
	Short: "Explore an exploded graph over a method's control-flow graph",
	Long: `seexplore drives the symbolic-execution core (internal/engine) over a
handful of built-in example methods, the same ones exercised by the
engine's own test suite, and reports what its checkers find.

Building a control-flow graph from real source is out of scope for this
tool — see internal/engine/scenarios for how example methods are
assembled directly from the engine's own types.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML bounds/config file (default: built-in bounds)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "report each scenario's name on stderr as run analyzes it")
}
