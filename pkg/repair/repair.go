// Package repair turns untrusted flowchart input into a canonical document.
//
// [Repair] accepts decoded JSON, JSON bytes or any JSON-marshalable value.
// The input is first brought into the canonical object shape by
// [NormalizeShape] and checked against the document schema. Inputs that
// break the schema bounds (node and edge counts, unknown node types,
// missing or oversized fields) are rejected with ErrCodeSchema.
//
// Everything past the schema is repaired rather than rejected:
//
//  1. Node ids are sanitized; collisions get the node's 1-based position
//     appended.
//  2. Edge endpoints are remapped to the sanitized ids. Edges whose
//     endpoints do not resolve are dropped.
//  3. Missing edge ids are generated from the endpoints and position.
//  4. The first node becomes a start node if there is none, the last an
//     end node if there is none.
//  5. A document left without edges is chained in node order.
//  6. The palette is the document's own, else the fallback, else the
//     default, each validated as a whole.
//
// Repair is deterministic and order dependent: the same input always
// produces the same document.
package repair

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/palette"
)

// Defaults applied to blank text fields.
const (
	UntitledTitle = "Untitled flowchart"
)

// maxGeneratedEdgeID leaves room for a collision suffix below
// flowchart.MaxEdgeIDLength.
const maxGeneratedEdgeID = flowchart.MaxEdgeIDLength - 8

// PaletteSource names where the repaired palette came from.
type PaletteSource string

const (
	PaletteFromDocument PaletteSource = "document"
	PaletteFromFallback PaletteSource = "fallback"
	PaletteFromDefault  PaletteSource = "default"
)

// Report summarizes what Repair changed.
type Report struct {
	RenamedNodes     int           `json:"renamedNodes"`
	DroppedEdges     int           `json:"droppedEdges"`
	GeneratedEdgeIDs int           `json:"generatedEdgeIds"`
	ForcedStart      bool          `json:"forcedStart"`
	ForcedEnd        bool          `json:"forcedEnd"`
	ChainedEdges     int           `json:"chainedEdges"`
	Palette          PaletteSource `json:"palette"`
}

// Changed reports whether repair altered the structure of the input.
func (r Report) Changed() bool {
	return r.RenamedNodes > 0 || r.DroppedEdges > 0 || r.ForcedStart || r.ForcedEnd || r.ChainedEdges > 0
}

// Result is a repaired document and the report of its repair.
type Result struct {
	Document *flowchart.Document
	Report   Report
}

type rawDocument struct {
	Title       string          `json:"title"`
	Summary     string          `json:"summary"`
	Rationale   string          `json:"rationale"`
	Suggestions []string        `json:"suggestions"`
	Palette     json.RawMessage `json:"palette"`
	Nodes       []rawNode       `json:"nodes"`
	Edges       []rawEdge       `json:"edges"`
}

type rawNode struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	Details string `json:"details"`
	Notes   string `json:"notes"`
}

type rawEdge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Label     string `json:"label"`
	Condition string `json:"condition"`
}

// Repair validates raw and repairs it into a canonical document carrying
// sourcePrompt. fallbackPalette is used when the input palette is missing
// or invalid; it may be nil.
func Repair(raw any, sourcePrompt string, fallbackPalette any) (*Result, error) {
	value, err := toJSONValue(raw)
	if err != nil {
		return nil, errors.Schema([]string{"/: invalid JSON: " + err.Error()})
	}
	shaped, err := NormalizeShape(value)
	if err != nil {
		return nil, err
	}
	if err := ValidateShape(shaped); err != nil {
		return nil, err
	}

	data, err := json.Marshal(shaped)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode normalized document")
	}
	var in rawDocument
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.Schema([]string{"/: " + err.Error()})
	}

	var report Report
	doc := &flowchart.Document{
		Title:        cleanText(in.Title),
		Summary:      cleanText(in.Summary),
		Rationale:    cleanText(in.Rationale),
		Suggestions:  cleanSuggestions(in.Suggestions),
		SourcePrompt: sourcePrompt,
	}
	if doc.Title == "" {
		doc.Title = UntitledTitle
	}

	nodeIDs, remap := repairNodes(doc, in.Nodes, &report)
	edgeIDs := repairEdges(doc, in.Edges, nodeIDs, remap, &report)
	enforceTerminals(doc, &report)
	if len(doc.Edges) == 0 {
		chainNodes(doc, edgeIDs, &report)
	}
	doc.Palette, report.Palette = repairPalette(in.Palette, fallbackPalette)

	return &Result{Document: doc, Report: report}, nil
}

func repairNodes(doc *flowchart.Document, nodes []rawNode, report *Report) (flowchart.IDSet, map[string]string) {
	ids := flowchart.NewIDSet()
	remap := make(map[string]string, len(nodes))
	doc.Nodes = make([]flowchart.Node, 0, len(nodes))

	for i, n := range nodes {
		pos := i + 1
		id := ids.Claim(flowchart.SanitizeID(n.ID, fmt.Sprintf("node-%d", pos)), pos)
		if id != n.ID {
			report.RenamedNodes++
		}
		if _, seen := remap[n.ID]; !seen {
			remap[n.ID] = id
		}

		label := cleanText(n.Label)
		if label == "" {
			label = fmt.Sprintf("Step %d", pos)
		}
		doc.Nodes = append(doc.Nodes, flowchart.Node{
			ID:      id,
			Label:   label,
			Type:    flowchart.NodeType(n.Type),
			Details: cleanText(n.Details),
			Notes:   cleanText(n.Notes),
		})
	}
	return ids, remap
}

func repairEdges(doc *flowchart.Document, edges []rawEdge, nodeIDs flowchart.IDSet, remap map[string]string, report *Report) flowchart.IDSet {
	ids := flowchart.NewIDSet()
	doc.Edges = make([]flowchart.Edge, 0, len(edges))

	resolve := func(raw string) (string, bool) {
		id, ok := remap[raw]
		if !ok {
			id = flowchart.SanitizeID(raw, "")
		}
		return id, nodeIDs.Has(id)
	}

	for i, e := range edges {
		pos := i + 1
		source, okSource := resolve(e.Source)
		target, okTarget := resolve(e.Target)
		if !okSource || !okTarget {
			report.DroppedEdges++
			continue
		}

		generated := edgeID(source, target, pos)
		id := generated
		if strings.TrimSpace(e.ID) == "" {
			report.GeneratedEdgeIDs++
		} else {
			id = flowchart.SanitizeID(e.ID, generated)
		}

		doc.Edges = append(doc.Edges, flowchart.Edge{
			ID:        ids.Claim(id, pos),
			Source:    source,
			Target:    target,
			Label:     cleanText(e.Label),
			Condition: cleanText(e.Condition),
		})
	}
	return ids
}

func enforceTerminals(doc *flowchart.Document, report *Report) {
	first, last := &doc.Nodes[0], &doc.Nodes[len(doc.Nodes)-1]
	if doc.CountType(flowchart.NodeStart) == 0 {
		first.Type = flowchart.NodeStart
		report.ForcedStart = true
	}
	if doc.CountType(flowchart.NodeEnd) == 0 {
		last.Type = flowchart.NodeEnd
		report.ForcedEnd = true
	}
	// Forcing the end can overwrite the only start when it sat last.
	if doc.CountType(flowchart.NodeStart) == 0 {
		first.Type = flowchart.NodeStart
		report.ForcedStart = true
	}
}

func chainNodes(doc *flowchart.Document, ids flowchart.IDSet, report *Report) {
	for k := 1; k < len(doc.Nodes); k++ {
		a, b := doc.Nodes[k-1].ID, doc.Nodes[k].ID
		doc.Edges = append(doc.Edges, flowchart.Edge{
			ID:     ids.Claim(edgeID(a, b, k), k),
			Source: a,
			Target: b,
		})
		report.ChainedEdges++
	}
}

func repairPalette(raw json.RawMessage, fallback any) (palette.Palette, PaletteSource) {
	own := []byte(raw)
	switch {
	case len(own) > 0 && palette.Valid(own):
		return palette.Normalize(own, nil), PaletteFromDocument
	case fallback != nil && palette.Valid(fallback):
		return palette.Normalize(fallback, nil), PaletteFromFallback
	default:
		return palette.Default(), PaletteFromDefault
	}
}

// edgeID builds the generated id "edge-{source}-{target}-{index}".
func edgeID(source, target string, index int) string {
	id := fmt.Sprintf("edge-%s-%s-%d", source, target, index)
	if len(id) > maxGeneratedEdgeID {
		id = strings.TrimRight(id[:maxGeneratedEdgeID], "-")
	}
	return id
}

// cleanText trims surrounding whitespace and removes control characters
// other than newline and tab.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	if strings.IndexFunc(s, isStrayControl) < 0 {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\r' {
			return '\n'
		}
		if isStrayControl(r) {
			return -1
		}
		return r
	}, s)
}

func isStrayControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t'
}

func cleanSuggestions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = cleanText(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
