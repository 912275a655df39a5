package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/layout"
)

const testDocument = `{
  "title": "Approve expenses",
  "sourcePrompt": "How expense claims get approved",
  "nodes": [
    {"id": "submit", "label": "Submit claim", "type": "start"},
    {"id": "review", "label": "Manager review", "type": "decision"},
    {"id": "paid", "label": "Reimbursed", "type": "end"}
  ],
  "edges": [
    {"source": "submit", "target": "review"},
    {"source": "review", "target": "paid", "condition": "approved"},
    {"source": "review", "target": "ghost"}
  ]
}`

// isolate keeps commands away from the user's config, cache and key.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("FLOWSKETCH_COMPLETION__API_KEY", "")
	t.Setenv("FLOWSKETCH_CACHE__BACKEND", "none")

	prev := statusOut
	statusOut = io.Discard
	t.Cleanup(func() { statusOut = prev })
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"generate", "repair", "layout", "export", "inspect", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRepairCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, testDocument, "repair")
	if err != nil {
		t.Fatalf("repair: %v", err)
	}

	var got documentFile
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(got.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3", len(got.Nodes))
	}
	if len(got.Edges) != 2 {
		t.Errorf("edges = %d, want 2 (dangling edge dropped)", len(got.Edges))
	}
	for _, e := range got.Edges {
		if e.ID == "" {
			t.Errorf("edge %s->%s has no id", e.Source, e.Target)
		}
	}
	if got.SourcePrompt != "How expense claims get approved" {
		t.Errorf("sourcePrompt = %q", got.SourcePrompt)
	}
	if got.Suggestions == nil {
		t.Error("suggestions should encode as an empty list")
	}
}

func TestRepairCommandToFile(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "claim.json")
	outPath := filepath.Join(dir, "fixed.json")
	if err := os.WriteFile(in, []byte(testDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "repair", in, "-o", outPath)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want empty when writing a file", out)
	}
	doc, err := flowchartFromFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Approve expenses" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestRepairCommandErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"array", `[1, 2]`, errors.ErrCodeUnsupportedShape},
		{"invalid json", `{"nodes":`, errors.ErrCodeSchema},
		{"too few nodes", `{"nodes":[{"id":"a","label":"A","type":"start"}]}`, errors.ErrCodeSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := run(t, tt.input, "repair")
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}
}

func TestLayoutCommand(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "claim.json")
	if err := os.WriteFile(in, []byte(testDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "", "layout", in, "--orientation", "horizontal"); err != nil {
		t.Fatalf("layout: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "claim.layout.json"))
	if err != nil {
		t.Fatalf("default output missing: %v", err)
	}
	var res layout.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if res.Orientation != layout.Horizontal {
		t.Errorf("orientation = %q, want horizontal", res.Orientation)
	}
	if len(res.Nodes) != 3 || len(res.Edges) != 2 {
		t.Errorf("got %d nodes, %d edges", len(res.Nodes), len(res.Edges))
	}
	for _, n := range res.Nodes {
		if n.SourceSide != layout.SideRight || n.TargetSide != layout.SideLeft {
			t.Errorf("node %s sides = %s/%s, want right/left", n.ID, n.SourceSide, n.TargetSide)
		}
	}
}

func TestLayoutCommandBadOrientation(t *testing.T) {
	isolate(t)
	_, err := run(t, testDocument, "layout", "--orientation", "diagonal")
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidLayout {
		t.Errorf("code = %q, want %q", got, errors.ErrCodeInvalidLayout)
	}
}

func TestExportCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, testDocument, "export", "-f", "dot")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(out, "digraph G {") {
		t.Errorf("output is not DOT:\n%s", out)
	}
	if !strings.Contains(out, "Manager review") {
		t.Error("DOT output should carry node labels")
	}
}

func TestExportCommandUnknownFormat(t *testing.T) {
	isolate(t)
	_, err := run(t, testDocument, "export", "-f", "gif")
	if got := errors.GetCode(err); got != errors.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", got, errors.ErrCodeInvalidInput)
	}
}

func TestGenerateRequiresCredential(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "generate", "Onboard", "a", "new", "hire")
	if got := errors.GetCode(err); got != errors.ErrCodeMissingCredential {
		t.Errorf("code = %q, want %q (%v)", got, errors.ErrCodeMissingCredential, err)
	}
}

func TestInvalidConfig(t *testing.T) {
	isolate(t)
	t.Setenv("FLOWSKETCH_LAYOUT__PLACER", "spring")
	_, err := run(t, testDocument, "repair")
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("err = %v, want invalid config", err)
	}
}

func TestDerivedPath(t *testing.T) {
	tests := []struct {
		input, suffix, want string
	}{
		{"claim.json", ".layout.json", "claim.layout.json"},
		{"dir/claim.json", ".svg", "dir/claim.svg"},
		{"claim", ".png", "claim.png"},
		{"", ".svg", ""},
		{"-", ".svg", ""},
	}
	for _, tt := range tests {
		if got := derivedPath(tt.input, tt.suffix); got != tt.want {
			t.Errorf("derivedPath(%q, %q) = %q, want %q", tt.input, tt.suffix, got, tt.want)
		}
	}
}

func TestDocumentJSONKeepsPrompt(t *testing.T) {
	doc := &flowchart.Document{
		Title: "Two steps",
		Nodes: []flowchart.Node{
			{ID: "a", Label: "A", Type: flowchart.NodeStart},
			{ID: "b", Label: "B", Type: flowchart.NodeEnd},
		},
		SourcePrompt: "two <steps>",
	}
	data, err := documentJSON(doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"sourcePrompt": "two <steps>"`, `"edges": []`, `"suggestions": []`} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("output missing %s:\n%s", want, data)
		}
	}
	if doc.Edges != nil {
		t.Error("documentJSON should not modify its input")
	}
}

func flowchartFromFile(path string) (*documentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f documentFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
