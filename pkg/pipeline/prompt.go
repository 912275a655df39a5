package pipeline

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowsketch/pkg/completion"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
)

// systemPrompt describes the document format to the model.
var systemPrompt = fmt.Sprintf(`You design clear business and engineering flowcharts.
Reply with a single JSON object and nothing else:

{
  "title": string (max %d chars),
  "summary": string (max %d chars),
  "rationale": string explaining the structure (max %d chars),
  "suggestions": up to %d short follow-up ideas (max %d chars each),
  "palette": {"name", "canvas", "panel", "text", "mutedText", "edge", "accent",
              "nodeColors": {"start", "process", "decision", "data", "subprocess", "end", "actor", "document"}}
             with every color as #RRGGBB,
  "nodes": [{"id", "label", "type", "details", "notes"}] (%d to %d nodes),
  "edges": [{"id", "source", "target", "label", "condition"}] (at most %d edges)
}

Rules:
- node type is one of: %s
- ids are short lowercase slugs such as "review-order"
- include at least one start node and one end node
- every edge source and target must be a node id
- decision nodes have one outgoing edge per outcome with a condition
- labels stay under %d characters, details under %d, notes under %d`,
	flowchart.MaxTitleLength, flowchart.MaxSummaryLength, flowchart.MaxRationaleLength,
	flowchart.MaxSuggestions, flowchart.MaxSuggestionLength,
	flowchart.MinNodes, flowchart.MaxNodes, flowchart.MaxEdges,
	nodeTypeList(),
	flowchart.MaxLabelLength, flowchart.MaxDetailsLength, flowchart.MaxNotesLength,
)

func nodeTypeList() string {
	names := make([]string, len(flowchart.NodeTypes))
	for i, t := range flowchart.NodeTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func generateMessage(req GenerateRequest) *completion.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a flowchart for this request:\n%s\n\n", req.Prompt)
	fmt.Fprintf(&b, "Detail level: %s\n", req.DetailLevel)
	fmt.Fprintf(&b, "Audience: %s\n", req.Audience)
	return &completion.Request{
		System:   systemPrompt,
		Messages: []completion.Message{{Role: completion.RoleUser, Content: b.String()}},
		JSON:     true,
	}
}

func refineMessage(req RefineRequest, current []byte) *completion.Request {
	var b strings.Builder
	b.WriteString("Revise this flowchart. Keep ids of unchanged nodes stable.\n\n")
	fmt.Fprintf(&b, "Current flowchart:\n%s\n\n", current)
	fmt.Fprintf(&b, "Instruction:\n%s\n\n", req.Instruction)
	fmt.Fprintf(&b, "Detail level: %s\n", req.DetailLevel)
	fmt.Fprintf(&b, "Audience: %s\n", req.Audience)
	return &completion.Request{
		System:   systemPrompt,
		Messages: []completion.Message{{Role: completion.RoleUser, Content: b.String()}},
		JSON:     true,
	}
}
