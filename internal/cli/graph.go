package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/core"
	"github.com/yamlkit/yamlkit/internal/logging"
)

func newGraphCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [file]",
		Short: "Print the composed node graph of a YAML input",
		Long: `Compose each document of the input and print its node arena: one line
per node with its id, kind, tag, and payload. Aliases show up as repeated
child ids, so cycles are visible directly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGraph,
	}
}

func runGraph(cmd *cobra.Command, args []string) error {
	data, name, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	logger := logging.Default()
	out := cmd.OutOrStdout()

	composer := core.NewComposerBytes(data)
	count := 0
	for {
		doc, err := composer.Compose()
		if err != nil {
			return err
		}
		if doc == nil {
			break
		}
		if count > 0 {
			fmt.Fprintln(out)
		}
		printDocument(out, doc, count)
		count++
	}

	logger.Debug("composed", logging.FieldFile, name, logging.FieldDocuments, count)
	return nil
}

func printDocument(out io.Writer, doc *core.Document, index int) {
	fmt.Fprintf(out, "document %d (%d nodes)\n", index, len(doc.Nodes))
	if doc.VersionDirective != nil {
		fmt.Fprintf(out, "  %%YAML %d.%d\n", doc.VersionDirective.Major, doc.VersionDirective.Minor)
	}
	for _, dir := range doc.TagDirectives {
		fmt.Fprintf(out, "  %%TAG %s %s\n", dir.Handle, dir.Prefix)
	}
	for id := range doc.Nodes {
		node := &doc.Nodes[id]
		fmt.Fprintf(out, "  %d: %v <%s>", id, node.Kind, node.Tag)
		if node.Anchor != "" {
			fmt.Fprintf(out, " &%s", node.Anchor)
		}
		switch node.Kind {
		case core.SCALAR_NODE:
			fmt.Fprintf(out, " %q", node.Value)
		case core.SEQUENCE_NODE:
			fmt.Fprintf(out, " items=%v", node.Items)
		case core.MAPPING_NODE:
			fmt.Fprint(out, " pairs=[")
			for i, pair := range node.Pairs {
				if i > 0 {
					fmt.Fprint(out, " ")
				}
				fmt.Fprintf(out, "%d:%d", pair.Key, pair.Value)
			}
			fmt.Fprint(out, "]")
		}
		fmt.Fprintln(out)
	}
}
