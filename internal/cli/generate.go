package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowsketch/pkg/pipeline"
)

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output   string
		detail   string
		audience string
		refine   string
	)

	cmd := &cobra.Command{
		Use:   "generate <description>",
		Short: "Draft a flowchart from a description",
		Long: `Draft a flowchart from a plain-language description of a process.

The description is sent to the configured completion provider and the answer
is repaired into a valid document. When the provider is unreachable or its
answer is unusable, a generic starter flowchart is written instead and a
warning explains why. A missing API key is always an error.

With --refine, the description is an instruction applied to an existing
document file.`,
		Example: `  flowsketch generate "How a support ticket gets escalated" -o ticket.json
  flowsketch generate --refine ticket.json "Add an approval step before closing"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if refine != "" {
				return c.runRefine(cmd, refine, text, detail, audience, output)
			}
			return c.runGenerate(cmd, text, detail, audience, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&detail, "detail", pipeline.DefaultDetailLevel, "detail level hint")
	cmd.Flags().StringVar(&audience, "audience", pipeline.DefaultAudience, "audience hint")
	cmd.Flags().StringVar(&refine, "refine", "", "refine this document file instead of drafting a new one")
	addCompletionFlags(cmd)

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, prompt, detail, audience, output string) error {
	ctx := cmd.Context()
	return c.withRunner(ctx, "Drafting flowchart...", func(runner *pipeline.Runner) (*pipeline.Result, error) {
		return runner.Generate(ctx, pipeline.GenerateRequest{Prompt: prompt, DetailLevel: detail, Audience: audience})
	}, cmd, output)
}

func (c *CLI) runRefine(cmd *cobra.Command, input, instruction, detail, audience, output string) error {
	ctx := cmd.Context()
	return c.withRunner(ctx, "Refining flowchart...", func(runner *pipeline.Runner) (*pipeline.Result, error) {
		current, err := importFile(ctx, cmd, runner, input)
		if err != nil {
			return nil, err
		}
		return runner.Refine(ctx, pipeline.RefineRequest{
			Document:    current.Document,
			Instruction: instruction,
			DetailLevel: detail,
			Audience:    audience,
		})
	}, cmd, output)
}

// withRunner runs fn under a spinner and writes the resulting document.
func (c *CLI) withRunner(ctx context.Context, message string, fn func(*pipeline.Runner) (*pipeline.Result, error), cmd *cobra.Command, output string) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, message)
	spinner.Start()
	res, err := fn(runner)
	spinner.Stop()
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

	if res.Fallback {
		printWarning("Used the starter flowchart: %s", res.Note)
	}
	prog.done(fmt.Sprintf("Drew %q", res.Document.Title))
	printDocument(res.Document)
	if wrote {
		printFile(output)
		printNewline()
		printNextStep("Render", appName+" export "+output)
	}
	return nil
}
