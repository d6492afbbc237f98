package cli

import (
	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/core"
	"github.com/yamlkit/yamlkit/internal/logging"
)

type fmtFlags struct {
	indent int
	width  int
}

func newFmtCommand() *cobra.Command {
	flags := &fmtFlags{}

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Reformat a YAML stream",
		Long: `Reformat a YAML stream by running it through the full pipeline:
parse, compose, serialize, emit. Anchors, aliases, tags, and directives
survive the round trip; layout is normalized.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args, flags)
		},
	}

	cmd.Flags().IntVar(&flags.indent, "indent", 2, "spaces per nesting level (2-9)")
	cmd.Flags().IntVar(&flags.width, "width", 80, "preferred line width")

	return cmd
}

func runFmt(cmd *cobra.Command, args []string, flags *fmtFlags) error {
	data, name, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	logger := logging.Default()
	logger.Debug("formatting",
		logging.FieldFile, name,
		logging.FieldIndent, flags.indent,
		logging.FieldWidth, flags.width)

	composer := core.NewComposerBytes(data)
	serializer := core.NewSerializer(cmd.OutOrStdout())
	serializer.Emitter().Indent = flags.indent
	serializer.Emitter().Width = flags.width

	for {
		doc, err := composer.Compose()
		if err != nil {
			return err
		}
		if doc == nil {
			break
		}
		if err := serializer.Serialize(doc); err != nil {
			return err
		}
	}
	return serializer.Close()
}
