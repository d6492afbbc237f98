package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/core"
	"github.com/yamlkit/yamlkit/internal/logging"
)

func newTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream of a YAML input",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTokens,
	}
}

func runTokens(cmd *cobra.Command, args []string) error {
	data, name, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	logger := logging.Default()
	out := cmd.OutOrStdout()

	scanner := core.NewScannerBytes(data)
	count := 0
	for {
		token, err := scanner.Peek()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatToken(token))
		count++
		if token.Type == core.STREAM_END_TOKEN {
			break
		}
		scanner.Skip()
	}

	logger.Debug("scanned", logging.FieldFile, name, logging.FieldTokens, count)
	return nil
}

func formatToken(t *core.Token) string {
	s := fmt.Sprintf("%d:%d\t%v", t.StartMark.Line+1, t.StartMark.Column+1, t.Type)
	switch t.Type {
	case core.VERSION_DIRECTIVE_TOKEN:
		s += fmt.Sprintf(" %d.%d", t.Major, t.Minor)
	case core.TAG_DIRECTIVE_TOKEN:
		s += fmt.Sprintf(" %s %s", t.Value, t.Prefix)
	case core.TAG_TOKEN:
		s += fmt.Sprintf(" %s %s", t.Value, t.Suffix)
	case core.ALIAS_TOKEN, core.ANCHOR_TOKEN, core.SCALAR_TOKEN:
		s += fmt.Sprintf(" %q", t.Value)
	}
	return s
}
