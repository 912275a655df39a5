package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// pointsPerInch converts between layout units and Graphviz inches.
const pointsPerInch = 72.0

// plainFormat is Graphviz's plain text output: node centers and sizes in
// inches with the origin at the bottom left.
const plainFormat graphviz.Format = "plain"

// GraphvizPlacer delegates placement to the Graphviz dot engine.
type GraphvizPlacer struct{}

// NewGraphvizPlacer returns a placer backed by go-graphviz.
func NewGraphvizPlacer() *GraphvizPlacer { return &GraphvizPlacer{} }

// Name implements Placer.
func (*GraphvizPlacer) Name() string { return "graphviz" }

// Place implements Placer.
func (*GraphvizPlacer) Place(ctx context.Context, nodes []SizedNode, links []Link, cfg Config) (map[string]Point, error) {
	if len(nodes) == 0 {
		return map[string]Point{}, nil
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.DOT)

	g, err := graphviz.ParseBytes([]byte(placementDOT(nodes, links, cfg)))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, plainFormat, &buf); err != nil {
		return nil, fmt.Errorf("render plain: %w", err)
	}

	centers, err := parsePlain(buf.Bytes())
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if _, ok := centers[n.ID]; !ok {
			return nil, fmt.Errorf("graphviz output has no position for node %q", n.ID)
		}
	}
	return centers, nil
}

// placementDOT builds a DOT graph of fixed-size boxes with the configured
// separations.
func placementDOT(nodes []SizedNode, links []Link, cfg Config) string {
	rankdir := cfg.RankDir
	if rankdir == "" {
		rankdir = TopToBottom
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(cfg.RankSep))
	fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(cfg.NodeSep))
	fmt.Fprintf(&buf, "  pad=\"%s,%s\";\n", inches(cfg.MarginX), inches(cfg.MarginY))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %q [width=%s, height=%s];\n", n.ID, inches(n.Width), inches(n.Height))
	}

	buf.WriteString("\n")
	for _, l := range links {
		fmt.Fprintf(&buf, "  %q -> %q;\n", l.Source, l.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func inches(units float64) string {
	return strconv.FormatFloat(units/pointsPerInch, 'f', 4, 64)
}

// parsePlain extracts node centers from Graphviz plain output, converted to
// layout units with Y growing downward.
func parsePlain(data []byte) (map[string]Point, error) {
	var height float64
	haveGraph := false
	centers := make(map[string]Point)

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := splitPlain(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed graph line: %q", sc.Text())
			}
			h, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("graph height: %w", err)
			}
			height, haveGraph = h, true
		case "node":
			if !haveGraph {
				return nil, fmt.Errorf("node line before graph line")
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("malformed node line: %q", sc.Text())
			}
			x, errX := strconv.ParseFloat(fields[2], 64)
			y, errY := strconv.ParseFloat(fields[3], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("node %q: bad coordinates", fields[1])
			}
			centers[fields[1]] = Point{
				X: x * pointsPerInch,
				Y: (height - y) * pointsPerInch,
			}
		case "stop":
			return centers, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !haveGraph {
		return nil, fmt.Errorf("graphviz output has no graph line")
	}
	return centers, nil
}

// splitPlain splits a plain-format line on spaces. Double-quoted fields may
// contain spaces and backslash escapes; quotes are removed.
func splitPlain(line string) []string {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
		escaped bool
		started bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
			started = true
		case r == ' ' && !inQuote:
			if started {
				fields = append(fields, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		fields = append(fields, cur.String())
	}
	return fields
}
