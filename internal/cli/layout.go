package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/pkg/layout"
)

// layoutCommand creates the layout command for computing positioned layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output      string
		orientation string
	)

	cmd := &cobra.Command{
		Use:   "layout [document.json]",
		Short: "Compute a positioned layout for a document",
		Long: `Compute a positioned layout for a flowchart document.

The input is repaired first, so any JSON the repair command accepts works
here. The output lists every node with its size and position, and every
edge with the sides it attaches to.

Orientations:
  vertical    top to bottom
  horizontal  left to right
  compact     whichever of the two covers the smaller area

Results are cached; pass --cache none to bypass the cache.`,
		Example: `  flowsketch layout ticket.json
  flowsketch layout ticket.json --orientation compact --placer graphviz -o -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runLayout(cmd, input, orientation, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json, stdout for stdin)")
	addLayoutFlags(cmd, &orientation)
	addCacheFlags(cmd)

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, input, orientation, output string) error {
	ctx := cmd.Context()
	o, err := layout.ParseOrientation(orientation)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	doc, err := importFile(ctx, cmd, runner, input)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	res, cached, err := runner.LayoutWithCacheInfo(ctx, doc.Document, o)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	data = append(data, '\n')

	if output == "" {
		output = derivedPath(input, ".layout.json")
	}
	wrote, err := writeOutput(cmd, output, data)
	if err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Laid out %s (%s)", displayName(input), res.RankDir))
	if wrote {
		printFile(output)
		printStats(len(res.Nodes), len(res.Edges), cached)
		printNewline()
		printNextStep("Render", appName+" export "+displayName(input))
	}
	return nil
}

// derivedPath replaces the extension of input with suffix. Standard input
// derives nothing, which writes to stdout.
func derivedPath(input, suffix string) string {
	if input == "" || input == "-" {
		return ""
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}
