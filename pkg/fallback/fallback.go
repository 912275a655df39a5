// Package fallback synthesizes a fixed-template flowchart from a prompt.
//
// The template is used when generation fails for a recoverable reason. It
// always has the same five nodes in a linear flow with one revision loop:
//
//	define -> extract -> model -> review -> final
//	                       ^--------'
//
// The prompt is excerpted into the first node, the detail level into the
// second and the audience into the review step. The palette is picked by
// [palette.ForPrompt].
package fallback

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/palette"
)

// Defaults for blank arguments.
const (
	DefaultDetailLevel = "standard"
	DefaultAudience    = "stakeholders"
)

// maxExcerptRunes is the longest prompt embedded verbatim. Longer prompts
// keep their first excerptRunes runes followed by "...".
const (
	maxExcerptRunes = 120
	excerptRunes    = 117
)

// maxArgRunes bounds the detail level and audience so the notes and details
// they land in stay within the node limits.
const maxArgRunes = 80

// Synthesize returns the fallback document for prompt.
func Synthesize(prompt, detailLevel, audience string) *flowchart.Document {
	prompt = strings.TrimSpace(stripControl(prompt))
	detailLevel = clip(orDefault(detailLevel, DefaultDetailLevel), maxArgRunes)
	audience = clip(orDefault(audience, DefaultAudience), maxArgRunes)

	excerpt := Excerpt(prompt)
	if excerpt == "" {
		excerpt = "No prompt was provided."
	}

	return &flowchart.Document{
		Title:     "Draft workflow",
		Summary:   "A starter workflow drafted from your request. Refine it to match the real process.",
		Rationale: "Generation was unavailable, so this outline follows a define, gather, model, review cycle that fits most processes.",
		Suggestions: []string{
			"Rename each step to match your process",
			"Add the decisions your team actually makes",
			"Split the model step if it covers several activities",
		},
		Palette: palette.ForPrompt(prompt),
		Nodes: []flowchart.Node{
			{ID: "define", Label: "Define the goal", Type: flowchart.NodeStart, Details: "Request: " + excerpt},
			{ID: "extract", Label: "Gather inputs", Type: flowchart.NodeProcess, Details: "Collect the facts, data and constraints the request depends on.", Notes: "Detail level: " + detailLevel},
			{ID: "model", Label: "Draft the flow", Type: flowchart.NodeProcess, Details: "Lay out the steps, owners and hand-offs."},
			{ID: "review", Label: "Review the draft", Type: flowchart.NodeDecision, Details: "Walk through the draft with " + audience + "."},
			{ID: "final", Label: "Publish", Type: flowchart.NodeEnd, Details: "Share the agreed workflow."},
		},
		Edges: []flowchart.Edge{
			{ID: "edge-define-extract-1", Source: "define", Target: "extract"},
			{ID: "edge-extract-model-2", Source: "extract", Target: "model"},
			{ID: "edge-model-review-3", Source: "model", Target: "review"},
			{ID: "edge-review-model-4", Source: "review", Target: "model", Label: "Revise", Condition: "changes requested"},
			{ID: "edge-review-final-5", Source: "review", Target: "final", Label: "Approve", Condition: "approved"},
		},
		SourcePrompt: prompt,
	}
}

// Excerpt shortens prompt to at most 120 runes, ending in "..." when cut.
func Excerpt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= maxExcerptRunes {
		return prompt
	}
	return string(runes[:excerptRunes]) + "..."
}

// Note returns the human-readable explanation attached to a fallback result.
func Note(cause error) string {
	if cause == nil {
		return "Generation was unavailable, so a starter template was used."
	}
	return fmt.Sprintf("Generation failed (%s), so a starter template was used.", errors.UserMessage(cause))
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(stripControl(s)); s == "" {
		return def
	}
	return s
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n]))
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return ' '
		}
		return r
	}, s)
}
