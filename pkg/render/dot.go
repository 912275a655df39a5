package render

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/layout"
	"github.com/matzehuels/flowsketch/pkg/palette"
)

const pointsPerInch = 72.0

// shape is the Graphviz look of one node type.
type shape struct {
	name        string
	style       string
	peripheries int
}

var shapes = map[flowchart.NodeType]shape{
	flowchart.NodeStart:      {name: "ellipse", style: "filled"},
	flowchart.NodeProcess:    {name: "box", style: "rounded,filled"},
	flowchart.NodeDecision:   {name: "diamond", style: "filled"},
	flowchart.NodeData:       {name: "parallelogram", style: "filled"},
	flowchart.NodeSubprocess: {name: "box", style: "filled", peripheries: 2},
	flowchart.NodeEnd:        {name: "ellipse", style: "filled", peripheries: 2},
	flowchart.NodeActor:      {name: "hexagon", style: "filled"},
	flowchart.NodeDocument:   {name: "note", style: "filled"},
}

// ToDOT converts a layout into DOT with pinned node positions. p supplies
// every color; an invalid palette falls back to palette.Default.
func ToDOT(res *layout.Result, p palette.Palette) string {
	p = palette.Normalize(p, nil)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  bgcolor=%s;\n", quote(p.Canvas))
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	fmt.Fprintf(&buf, "  node [fixedsize=true, fontname=\"Helvetica\", fontsize=14, fontcolor=%s, color=%s, penwidth=1.5];\n",
		quote(p.Text), quote(p.Edge))
	fmt.Fprintf(&buf, "  edge [fontname=\"Helvetica\", fontsize=12, fontcolor=%s, color=%s, arrowhead=normal];\n",
		quote(p.MutedText), quote(p.Edge))
	buf.WriteString("\n")

	if res == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	top := 0.0
	for _, n := range res.Nodes {
		top = math.Max(top, n.Position.Y+n.Height)
	}
	top += layout.MinOffset

	for _, n := range res.Nodes {
		s, ok := shapes[n.Type]
		if !ok {
			s = shapes[flowchart.NodeProcess]
		}
		cx := n.Position.X + n.Width/2
		cy := top - (n.Position.Y + n.Height/2)

		attrs := []string{
			"label=" + quote(n.Label),
			"shape=" + s.name,
			"style=" + quote(s.style),
			"fillcolor=" + quote(p.NodeColors.For(string(n.Type))),
			"width=" + num(n.Width/pointsPerInch),
			"height=" + num(n.Height/pointsPerInch),
			fmt.Sprintf("pos=\"%s,%s!\"", num(cx), num(cy)),
		}
		if s.peripheries > 0 {
			attrs = append(attrs, "peripheries="+strconv.Itoa(s.peripheries))
		}
		if tip := tooltip(n.Details, n.Notes); tip != "" {
			attrs = append(attrs, "tooltip="+quote(tip))
		}
		if n.Type == flowchart.NodeStart || n.Type == flowchart.NodeEnd {
			attrs = append(attrs, "color="+quote(p.Accent))
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range res.Edges {
		attrs := []string{"id=" + quote(e.ID)}
		if label := edgeLabel(e.Label, e.Condition); label != "" {
			attrs = append(attrs, "label="+quote(label))
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", quote(e.Source), quote(e.Target), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func edgeLabel(label, condition string) string {
	switch {
	case label == "":
		return condition
	case condition == "" || strings.EqualFold(label, condition):
		return label
	default:
		return label + "\n[" + condition + "]"
	}
}

func tooltip(details, notes string) string {
	switch {
	case details == "":
		return notes
	case notes == "":
		return details
	default:
		return details + "\n\n" + notes
	}
}

// quote writes s as a DOT double-quoted string. Non-ASCII passes through
// unescaped since DOT input is UTF-8.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
