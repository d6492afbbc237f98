// Package cli provides the Cobra command structure for the yamlkit tool.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root yamlkit command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "yamlkit",
		Short: "Inspect and reformat YAML streams",
		Long: `yamlkit is a streaming YAML 1.1 processor.

It exposes each stage of the pipeline as a subcommand: the token stream
(tokens), the event stream (events), the composed node graph (graph), and
a full round-trip reformatter (fmt). Input is read from the named file, or
from standard input when no file is given.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newTokensCommand())
	rootCmd.AddCommand(newEventsCommand())
	rootCmd.AddCommand(newGraphCommand())
	rootCmd.AddCommand(newFmtCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}

// readInput returns the content of the first path argument, or of standard
// input when no argument is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, "<stdin>", err
	}
	data, err := os.ReadFile(args[0])
	return data, args[0], err
}
