package render

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"testing"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/layout"
	"github.com/matzehuels/flowsketch/pkg/palette"
)

func twoNodeResult() *layout.Result {
	return &layout.Result{
		Orientation: layout.Vertical,
		RankDir:     layout.TopToBottom,
		Placer:      "layered",
		Nodes: []layout.Node{
			{
				Node:     flowchart.Node{ID: "a", Label: `Say "hi"`, Type: flowchart.NodeStart, Details: "first"},
				Width:    200,
				Height:   72,
				Position: layout.Point{X: 20, Y: 20},
			},
			{
				Node:     flowchart.Node{ID: "b", Label: "Café", Type: flowchart.NodeDecision},
				Width:    210,
				Height:   150,
				Position: layout.Point{X: 15, Y: 192},
			},
		},
		Edges: []layout.Edge{
			{Edge: flowchart.Edge{ID: "a-b", Source: "a", Target: "b", Label: "Next", Condition: "ok"}, Marker: layout.ArrowMarker},
		},
	}
}

func TestToDOT(t *testing.T) {
	p := palette.ForPrompt("hospital intake")
	dot := ToDOT(twoNodeResult(), p)

	// top = 192+150+20 = 362; a center y = 362-56, b center y = 362-267
	for _, want := range []string{
		"digraph G {",
		"inputscale=72;",
		`bgcolor="` + p.Canvas + `"`,
		`"a" [label="Say \"hi\"", shape=ellipse`,
		`pos="120,306!"`,
		`"b" [label="Café", shape=diamond`,
		`pos="120,95!"`,
		`fillcolor="` + p.NodeColors.Decision + `"`,
		`tooltip="first"`,
		`"a" -> "b" [id="a-b", label="Next\n[ok]"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTInvalidPaletteFallsBack(t *testing.T) {
	dot := ToDOT(twoNodeResult(), palette.Palette{Name: "broken"})
	if !strings.Contains(dot, palette.Default().Canvas) {
		t.Errorf("invalid palette did not fall back to default:\n%s", dot)
	}
}

func TestToDOTNilResult(t *testing.T) {
	if dot := ToDOT(nil, palette.Default()); !strings.HasSuffix(dot, "}\n") {
		t.Errorf("ToDOT(nil) = %q", dot)
	}
}

func TestEdgeLabel(t *testing.T) {
	tests := []struct{ label, cond, want string }{
		{"", "", ""},
		{"Approve", "", "Approve"},
		{"", "approved", "approved"},
		{"Approve", "approve", "Approve"},
		{"Revise", "changes requested", "Revise\n[changes requested]"},
	}
	for _, tt := range tests {
		if got := edgeLabel(tt.label, tt.cond); got != tt.want {
			t.Errorf("edgeLabel(%q, %q) = %q, want %q", tt.label, tt.cond, got, tt.want)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", `"plain"`},
		{`a "b"`, `"a \"b\""`},
		{`back\slash`, `"back\\slash"`},
		{"two\r\nlines", `"two\nlines"`},
		{"ünï", `"ünï"`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		if got, err := ParseFormat(string(f)); err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %q, %v", f, got, err)
		}
	}
	if got, _ := ParseFormat(""); got != FormatSVG {
		t.Errorf("ParseFormat(\"\") = %q", got)
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseFormat(gif) err = %v", err)
	}
	if FormatSVG.ContentType() != "image/svg+xml" || FormatDOT.ContentType() != "text/vnd.graphviz" {
		t.Error("unexpected content types")
	}
}

func TestExportJSONAndDOT(t *testing.T) {
	ctx := context.Background()
	res := twoNodeResult()

	data, err := Export(ctx, res, palette.Default(), FormatJSON)
	if err != nil {
		t.Fatalf("Export(json): %v", err)
	}
	var back layout.Result
	if err := json.Unmarshal(data, &back); err != nil || len(back.Nodes) != 2 {
		t.Errorf("json export round trip: %v, %+v", err, back)
	}

	data, err = Export(ctx, res, palette.Default(), FormatDOT)
	if err != nil || !bytes.HasPrefix(data, []byte("digraph G {")) {
		t.Errorf("Export(dot) = %q, %v", data, err)
	}

	if _, err := Export(ctx, nil, palette.Default(), FormatSVG); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Export(nil) err = %v", err)
	}
}

func TestSVG(t *testing.T) {
	svg, err := SVG(context.Background(), ToDOT(twoNodeResult(), palette.Default()))
	if err != nil {
		t.Fatalf("SVG: %v", err)
	}
	if !bytes.Contains(svg, []byte(`<svg xmlns="http://www.w3.org/2000/svg"`)) {
		t.Errorf("missing normalized svg header:\n%s", svg)
	}
	if !bytes.Contains(svg, []byte("Café")) {
		t.Error("node label missing from svg")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("no viewBox changed input: %s", got)
	}
}

func TestToPNG(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`)
	png, err := ToPNG(context.Background(), svg, 1)

	if _, lookErr := exec.LookPath(rsvgConvert); lookErr != nil {
		if !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("without librsvg err = %v, want %s", err, errors.ErrCodeUnsupported)
		}
		return
	}
	if err != nil {
		t.Fatalf("ToPNG: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Errorf("output is not a PNG: % x", png[:min(8, len(png))])
	}
}

func TestToPDFCanceled(t *testing.T) {
	if _, err := exec.LookPath(rsvgConvert); err != nil {
		t.Skip("rsvg-convert not installed")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ToPDF(ctx, []byte("<svg/>")); err == nil {
		t.Error("expected an error for a canceled context")
	}
}
