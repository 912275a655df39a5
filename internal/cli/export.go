package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/pkg/layout"
	"github.com/matzehuels/flowsketch/pkg/render"
)

// exportCommand creates the export command for rendering documents.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output      string
		format      string
		orientation string
	)

	cmd := &cobra.Command{
		Use:   "export [document.json]",
		Short: "Render a document as SVG, PNG, PDF, DOT or layout JSON",
		Long: `Render a flowchart document.

The document is repaired, laid out and drawn with its own palette.
SVG rendering uses Graphviz; PNG and PDF additionally need rsvg-convert
(librsvg) on the PATH.`,
		Example: `  flowsketch export ticket.json
  flowsketch export ticket.json -f png --orientation horizontal
  cat ticket.json | flowsketch export -f dot -o -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return c.runExport(cmd, input, format, orientation, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatSVG), "output format: "+formatList())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>, stdout for stdin)")
	addLayoutFlags(cmd, &orientation)
	addCacheFlags(cmd)

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, input, format, orientation, output string) error {
	ctx := cmd.Context()
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}
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

	spinner := newSpinnerWithContext(ctx, "Rendering "+string(f)+"...")
	spinner.Start()
	data, err := runner.Export(ctx, doc.Document, o, f)
	spinner.Stop()
	if err != nil {
		return err
	}

	if output == "" {
		output = derivedPath(input, "."+string(f))
	}
	wrote, err := writeOutput(cmd, output, data)
	if err != nil {
		return err
	}
	if wrote {
		printSuccess("Exported %s", displayName(input))
		printFile(output)
	}
	return nil
}

func formatList() string {
	names := make([]string, len(render.Formats))
	for i, f := range render.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
