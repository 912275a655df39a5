package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/pkg/repair"
)

// repairCommand creates the repair command.
func (c *CLI) repairCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "repair [document.json]",
		Short: "Validate and repair flowchart JSON",
		Long: `Validate and repair flowchart JSON into a valid document.

The input may be the canonical document, a positioned export (nodes carrying
"data" objects) or either of those wrapped in single-key objects. Violating
hard bounds (too many nodes, overlong text) is an error; anything else is
fixed: ids are sanitized, dangling edges dropped, missing start or end
nodes assigned and unconnected documents chained.

Reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRepair(cmd, input, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) runRepair(cmd *cobra.Command, input, output string) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := importFile(ctx, cmd, runner, input)
	if err != nil {
		return err
	}
	data, err := documentJSON(res.Document)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	wrote, err := writeOutput(cmd, output, data)
	if err != nil {
		return err
	}

	printReport(res.Report)
	if wrote {
		printDocument(res.Document)
		printFile(output)
	}
	return nil
}

// printReport summarizes what repair changed.
func printReport(r repair.Report) {
	if !r.Changed() {
		printSuccess("Document is valid")
		return
	}
	printSuccess("Repaired document")
	if r.RenamedNodes > 0 {
		printDetail("%d node ids sanitized", r.RenamedNodes)
	}
	if r.DroppedEdges > 0 {
		printDetail("%d edges dropped", r.DroppedEdges)
	}
	if r.GeneratedEdgeIDs > 0 {
		printDetail("%d edge ids generated", r.GeneratedEdgeIDs)
	}
	if r.ForcedStart {
		printDetail("first node made the start node")
	}
	if r.ForcedEnd {
		printDetail("last node made the end node")
	}
	if r.ChainedEdges > 0 {
		printDetail("%d edges added to chain unconnected nodes", r.ChainedEdges)
	}
}
