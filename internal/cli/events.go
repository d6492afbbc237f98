package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/core"
	"github.com/yamlkit/yamlkit/internal/logging"
)

func newEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "events [file]",
		Short: "Print the event stream of a YAML input",
		Long: `Print the event stream of a YAML input in the compact notation used
by the YAML test suite (+STR, +DOC, =VAL, ...).`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEvents,
	}
}

func runEvents(cmd *cobra.Command, args []string) error {
	data, name, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	logger := logging.Default()
	out := cmd.OutOrStdout()

	parser := core.NewParserBytes(data)
	count := 0
	for !parser.Done() {
		var event core.Event
		if err := parser.Parse(&event); err != nil {
			return err
		}
		fmt.Fprintln(out, core.FormatEvent(&event))
		count++
	}

	logger.Debug("parsed", logging.FieldFile, name, logging.FieldEvents, count)
	return nil
}
