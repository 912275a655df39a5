package repair

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/palette"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("decode test input: %v", err)
	}
	return m
}

func mustRepair(t *testing.T, raw any) *Result {
	t.Helper()
	res, err := Repair(raw, "prompt", nil)
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if err := res.Document.Validate(); err != nil {
		t.Fatalf("repaired document invalid: %v", err)
	}
	return res
}

func nodeIDs(doc *flowchart.Document) []string {
	ids := make([]string, len(doc.Nodes))
	for i, n := range doc.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestRepairCanonicalUnchanged(t *testing.T) {
	in := `{
		"title": "Ship a release",
		"summary": "Release flow",
		"rationale": "Keeps deploys safe",
		"suggestions": ["Add rollback"],
		"nodes": [
			{"id": "begin", "label": "Begin", "type": "start", "details": "", "notes": ""},
			{"id": "build", "label": "Build", "type": "process", "details": "CI", "notes": ""},
			{"id": "ok", "label": "Green?", "type": "decision", "details": "", "notes": ""},
			{"id": "done", "label": "Done", "type": "end", "details": "", "notes": ""}
		],
		"edges": [
			{"id": "e1", "source": "begin", "target": "build", "label": "", "condition": ""},
			{"id": "e2", "source": "build", "target": "ok", "label": "", "condition": ""},
			{"id": "e3", "source": "ok", "target": "done", "label": "Yes", "condition": "tests pass"},
			{"id": "e4", "source": "ok", "target": "build", "label": "No", "condition": "tests fail"}
		]
	}`
	res := mustRepair(t, []byte(in))
	doc := res.Document

	if res.Report.Changed() {
		t.Errorf("canonical input reported changes: %+v", res.Report)
	}
	if doc.Nodes[0].Type != flowchart.NodeStart || doc.Nodes[3].Type != flowchart.NodeEnd {
		t.Errorf("terminal types changed: %v, %v", doc.Nodes[0].Type, doc.Nodes[3].Type)
	}
	if doc.Nodes[2].Type != flowchart.NodeDecision {
		t.Errorf("decision type changed to %v", doc.Nodes[2].Type)
	}
	if len(doc.Edges) != 4 || doc.Edges[2].Condition != "tests pass" {
		t.Errorf("edges changed: %+v", doc.Edges)
	}
	if doc.SourcePrompt != "prompt" {
		t.Errorf("SourcePrompt = %q", doc.SourcePrompt)
	}

	// Repairing the output again yields the same document.
	again := mustRepair(t, doc)
	a, _ := flowchart.MarshalDocument(doc)
	b, _ := flowchart.MarshalDocument(again.Document)
	if string(a) != string(b) {
		t.Errorf("repair is not idempotent:\n%s\n---\n%s", a, b)
	}
}

func TestRepairIDCollisions(t *testing.T) {
	in := decode(t, `{
		"nodes": [
			{"id": "step", "label": "One", "type": "start"},
			{"id": "step", "label": "Two", "type": "process"},
			{"id": "Start Node!!", "label": "Three", "type": "process"},
			{"id": "???", "label": "Four", "type": "end"}
		],
		"edges": [
			{"source": "step", "target": "Start Node!!"},
			{"source": "Start Node!!", "target": "???"}
		]
	}`)
	doc := mustRepair(t, in).Document

	want := []string{"step", "step-2", "start-node", "node-4"}
	got := nodeIDs(doc)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("node ids = %v, want %v", got, want)
		}
	}

	// duplicate raw ids remap to the first occurrence
	if doc.Edges[0].Source != "step" || doc.Edges[0].Target != "start-node" {
		t.Errorf("edge 0 = %+v", doc.Edges[0])
	}
	if doc.Edges[1].Target != "node-4" {
		t.Errorf("edge 1 target = %q, want node-4", doc.Edges[1].Target)
	}
	if doc.Edges[0].ID != "edge-step-start-node-1" {
		t.Errorf("generated edge id = %q", doc.Edges[0].ID)
	}
}

func TestRepairDropsDanglingEdges(t *testing.T) {
	in := decode(t, `{
		"nodes": [
			{"id": "a", "label": "A", "type": "start"},
			{"id": "b", "label": "B", "type": "end"}
		],
		"edges": [
			{"source": "a", "target": "ghost"},
			{"source": "A", "target": "b", "id": "Keep Me"},
			{"source": "nobody", "target": "b"}
		]
	}`)
	res := mustRepair(t, in)

	if res.Report.DroppedEdges != 2 {
		t.Errorf("DroppedEdges = %d, want 2", res.Report.DroppedEdges)
	}
	if len(res.Document.Edges) != 1 {
		t.Fatalf("edges = %+v, want one", res.Document.Edges)
	}
	// "A" was never a raw node id; direct sanitization resolves it to "a".
	e := res.Document.Edges[0]
	if e.Source != "a" || e.ID != "keep-me" {
		t.Errorf("kept edge = %+v", e)
	}
}

func TestRepairEdgeIDCollisions(t *testing.T) {
	in := decode(t, `{
		"nodes": [
			{"id": "a", "label": "A", "type": "start"},
			{"id": "b", "label": "B", "type": "end"}
		],
		"edges": [
			{"id": "link", "source": "a", "target": "b"},
			{"id": "LINK", "source": "b", "target": "a"},
			{"id": "  ", "source": "a", "target": "a"}
		]
	}`)
	doc := mustRepair(t, in).Document
	want := []string{"link", "link-2", "edge-a-a-3"}
	for i, e := range doc.Edges {
		if e.ID != want[i] {
			t.Errorf("edge %d id = %q, want %q", i, e.ID, want[i])
		}
	}
}

func TestRepairTerminalEnforcement(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  []flowchart.NodeType
	}{
		{
			name:  "no terminals",
			types: []string{"process", "process", "process"},
			want:  []flowchart.NodeType{"start", "process", "end"},
		},
		{
			name:  "missing end overwrites last",
			types: []string{"start", "decision", "data"},
			want:  []flowchart.NodeType{"start", "decision", "end"},
		},
		{
			name:  "missing start overwrites first",
			types: []string{"actor", "process", "end"},
			want:  []flowchart.NodeType{"start", "process", "end"},
		},
		{
			name:  "only start sat last",
			types: []string{"process", "start"},
			want:  []flowchart.NodeType{"start", "end"},
		},
		{
			name:  "terminals elsewhere kept",
			types: []string{"process", "end", "start", "process"},
			want:  []flowchart.NodeType{"process", "end", "start", "process"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := make([]map[string]any, len(tt.types))
			for i, nt := range tt.types {
				nodes[i] = map[string]any{"id": fmt.Sprintf("n%d", i+1), "label": "x", "type": nt}
			}
			doc := mustRepair(t, map[string]any{"nodes": nodes}).Document
			for i, n := range doc.Nodes {
				if n.Type != tt.want[i] {
					t.Errorf("types = %v, want %v", types(doc), tt.want)
					break
				}
			}
		})
	}
}

func TestRepairChainFallback(t *testing.T) {
	in := decode(t, `{
		"nodes": [
			{"id": "a", "label": "A", "type": "start"},
			{"id": "b", "label": "B", "type": "process"},
			{"id": "c", "label": "C", "type": "end"}
		]
	}`)
	res := mustRepair(t, in)
	edges := res.Document.Edges

	if len(edges) != 2 {
		t.Fatalf("edges = %+v, want 2", edges)
	}
	if edges[0].Source != "a" || edges[0].Target != "b" || edges[1].Source != "b" || edges[1].Target != "c" {
		t.Errorf("chain = %+v, want a->b, b->c", edges)
	}
	if edges[0].ID != "edge-a-b-1" || edges[1].ID != "edge-b-c-2" {
		t.Errorf("chain ids = %q, %q", edges[0].ID, edges[1].ID)
	}
	if res.Report.ChainedEdges != 2 {
		t.Errorf("ChainedEdges = %d", res.Report.ChainedEdges)
	}
}

func TestRepairChainAfterAllDropped(t *testing.T) {
	in := decode(t, `{
		"nodes": [
			{"id": "a", "label": "A", "type": "start"},
			{"id": "b", "label": "B", "type": "end"}
		],
		"edges": [{"source": "x", "target": "y"}]
	}`)
	res := mustRepair(t, in)
	if len(res.Document.Edges) != 1 || res.Report.DroppedEdges != 1 {
		t.Errorf("edges = %+v, report = %+v", res.Document.Edges, res.Report)
	}
}

func TestRepairText(t *testing.T) {
	in := decode(t, `{
		"title": "   ",
		"summary": "  padded  ",
		"suggestions": ["  one ", "", "   "],
		"nodes": [
			{"id": "a", "label": "  ", "type": "start", "details": null},
			{"id": "b", "label": "B\r\nnext\u0007", "type": "end", "notes": " n "}
		]
	}`)
	doc := mustRepair(t, in).Document

	if doc.Title != UntitledTitle {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Summary != "padded" {
		t.Errorf("Summary = %q", doc.Summary)
	}
	if len(doc.Suggestions) != 1 || doc.Suggestions[0] != "one" {
		t.Errorf("Suggestions = %q", doc.Suggestions)
	}
	if doc.Nodes[0].Label != "Step 1" {
		t.Errorf("blank label = %q, want Step 1", doc.Nodes[0].Label)
	}
	if doc.Nodes[1].Label != "B\nnext" {
		t.Errorf("label = %q", doc.Nodes[1].Label)
	}
	if doc.Nodes[1].Notes != "n" {
		t.Errorf("notes = %q", doc.Nodes[1].Notes)
	}
}

func TestRepairSchemaErrors(t *testing.T) {
	node := func(i int) string {
		return fmt.Sprintf(`{"id": "n%d", "label": "N", "type": "process"}`, i)
	}
	nodes := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = node(i)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	edges := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = `{"source": "n0", "target": "n1"}`
		}
		return "[" + strings.Join(parts, ",") + "]"
	}

	tests := []struct {
		name  string
		input string
	}{
		{"one node", `{"nodes": ` + nodes(1) + `}`},
		{"too many nodes", `{"nodes": ` + nodes(36) + `}`},
		{"too many edges", `{"nodes": ` + nodes(2) + `, "edges": ` + edges(91) + `}`},
		{"unknown type", `{"nodes": [{"id": "a", "label": "A", "type": "swimlane"}, ` + node(1) + `]}`},
		{"missing label", `{"nodes": [{"id": "a", "type": "start"}, ` + node(1) + `]}`},
		{"missing id", `{"nodes": [{"label": "A", "type": "start"}, ` + node(1) + `]}`},
		{"empty id", `{"nodes": [{"id": "", "label": "A", "type": "start"}, ` + node(1) + `]}`},
		{"long label", `{"nodes": [{"id": "a", "label": "` + strings.Repeat("x", 121) + `", "type": "start"}, ` + node(1) + `]}`},
		{"long details", `{"nodes": [{"id": "a", "label": "A", "type": "start", "details": "` + strings.Repeat("x", 351) + `"}, ` + node(1) + `]}`},
		{"edge missing target", `{"nodes": ` + nodes(2) + `, "edges": [{"source": "n0"}]}`},
		{"too many suggestions", `{"suggestions": ["a","b","c","d","e","f","g","h","i"], "nodes": ` + nodes(2) + `}`},
		{"nodes not an array", `{"nodes": {"a": 1}}`},
		{"malformed json", `{"nodes": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Repair([]byte(tt.input), "", nil)
			if !errors.Is(err, errors.ErrCodeSchema) {
				t.Errorf("Repair() error = %v, want INVALID_SCHEMA", err)
			}
		})
	}
}

func TestRepairBoundsAccepted(t *testing.T) {
	var parts []string
	for i := 0; i < flowchart.MaxNodes; i++ {
		parts = append(parts, fmt.Sprintf(`{"id": "n%d", "label": "N", "type": "process"}`, i))
	}
	res := mustRepair(t, []byte(`{"nodes": [`+strings.Join(parts, ",")+`]}`))
	if len(res.Document.Nodes) != flowchart.MaxNodes {
		t.Errorf("nodes = %d", len(res.Document.Nodes))
	}
	if len(res.Document.Edges) != flowchart.MaxNodes-1 {
		t.Errorf("chained edges = %d", len(res.Document.Edges))
	}
}

func TestRepairPalette(t *testing.T) {
	ledger := palette.ForPrompt("budget")
	mint := palette.ForPrompt("clinic")

	broken := palette.Default()
	broken.Accent = "not-a-color"

	tests := []struct {
		name     string
		own      any
		fallback any
		want     palette.Palette
		source   PaletteSource
	}{
		{"own palette wins", mint, ledger, mint, PaletteFromDocument},
		{"broken own uses fallback", broken, ledger, ledger, PaletteFromFallback},
		{"missing own uses fallback", nil, ledger, ledger, PaletteFromFallback},
		{"broken own without fallback uses default", broken, nil, palette.Default(), PaletteFromDefault},
		{"broken own and fallback uses default", broken, broken, palette.Default(), PaletteFromDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := map[string]any{
				"nodes": []any{
					map[string]any{"id": "a", "label": "A", "type": "start"},
					map[string]any{"id": "b", "label": "B", "type": "end"},
				},
			}
			if tt.own != nil {
				in["palette"] = tt.own
			}
			res, err := Repair(in, "", tt.fallback)
			if err != nil {
				t.Fatalf("Repair: %v", err)
			}
			if res.Document.Palette != tt.want {
				t.Errorf("palette = %q, want %q", res.Document.Palette.Name, tt.want.Name)
			}
			if res.Report.Palette != tt.source {
				t.Errorf("palette source = %q, want %q", res.Report.Palette, tt.source)
			}
		})
	}
}

func TestRepairInvariantsOnMessyInput(t *testing.T) {
	in := decode(t, `{
		"nodes": [
			{"id": "X", "label": "1", "type": "decision"},
			{"id": "x", "label": "2", "type": "decision"},
			{"id": "x!", "label": "3", "type": "data"},
			{"id": "-", "label": "4", "type": "actor"},
			{"id": "--", "label": "5", "type": "document"}
		],
		"edges": [
			{"source": "X", "target": "x"},
			{"source": "x", "target": "x!"},
			{"source": "-", "target": "--"},
			{"source": "x", "target": "missing"}
		]
	}`)
	doc := mustRepair(t, in).Document

	seen := map[string]bool{}
	for _, id := range nodeIDs(doc) {
		if seen[id] {
			t.Errorf("duplicate id %q in %v", id, nodeIDs(doc))
		}
		seen[id] = true
	}
	for _, e := range doc.Edges {
		if !seen[e.Source] || !seen[e.Target] {
			t.Errorf("edge %+v references unknown node", e)
		}
	}
	if doc.CountType(flowchart.NodeStart) == 0 || doc.CountType(flowchart.NodeEnd) == 0 {
		t.Errorf("terminals missing: %v", types(doc))
	}
}

func types(doc *flowchart.Document) []flowchart.NodeType {
	out := make([]flowchart.NodeType, len(doc.Nodes))
	for i, n := range doc.Nodes {
		out[i] = n.Type
	}
	return out
}
