package sizing

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowsketch/pkg/flowchart"
)

func TestLines(t *testing.T) {
	tests := []struct {
		c    Content
		want int
	}{
		{Content{}, 0},
		{Content{Label: "a"}, 1},
		{Content{Label: strings.Repeat("a", 24)}, 1},
		{Content{Label: strings.Repeat("a", 25)}, 2},
		{Content{Label: "a", Details: strings.Repeat("d", 43), Notes: strings.Repeat("n", 44)}, 1 + 2 + 1},
		{Content{Label: strings.Repeat("é", 24)}, 1},
	}
	for _, tt := range tests {
		if got := Lines(tt.c); got != tt.want {
			t.Errorf("Lines(%+v) = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestEstimate(t *testing.T) {
	// 7 lines: 1 label + 6 details (252 runes)
	sevenLines := Content{Label: "Check", Details: strings.Repeat("d", 42*6)}

	tests := []struct {
		name string
		t    flowchart.NodeType
		c    Content
		want Size
	}{
		{"start base", flowchart.NodeStart, Content{Label: "Go"}, Size{200, 72}},
		{"end base", flowchart.NodeEnd, Content{Label: "Done"}, Size{200, 72}},
		{"process base", flowchart.NodeProcess, Content{Label: "Work"}, Size{230, 96}},
		{"subprocess base", flowchart.NodeSubprocess, Content{Label: "Sub"}, Size{240, 100}},
		{"data floor", flowchart.NodeData, Content{Label: "Rows"}, Size{240, 96}},
		{"actor floor", flowchart.NodeActor, Content{Label: "Clerk"}, Size{220, 96}},
		{"document floor", flowchart.NodeDocument, Content{Label: "Memo"}, Size{240, 110}},
		{"five lines no growth", flowchart.NodeProcess, Content{Label: strings.Repeat("a", 24*5)}, Size{230, 96}},
		{"process extra lines", flowchart.NodeProcess, sevenLines, Size{230, 96 + 18*2}},
		{"decision one line", flowchart.NodeDecision, Content{Label: "Ok?"}, Size{210 + 10, 150}},
		{"decision extra lines", flowchart.NodeDecision, sevenLines, Size{210 + 10*7, 150 + 18*2 + 8*2}},
		{"empty content", flowchart.NodeProcess, Content{}, Size{230, 96}},
		{"unknown type sizes as process", flowchart.NodeType("swimlane"), Content{Label: "x"}, Size{230, 96}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.t, tt.c); got != tt.want {
				t.Errorf("Estimate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEstimateClamp(t *testing.T) {
	huge := Content{
		Label:   strings.Repeat("l", 10000),
		Details: strings.Repeat("d", 100000),
		Notes:   strings.Repeat("n", 10000),
	}
	for _, nt := range flowchart.NodeTypes {
		s := Estimate(nt, huge)
		if s.Width > MaxWidth || s.Height > MaxHeight {
			t.Errorf("%s: size %+v exceeds %dx%d", nt, s, MaxWidth, MaxHeight)
		}
	}
	if s := Estimate(flowchart.NodeDecision, huge); s.Width != MaxWidth || s.Height != MaxHeight {
		t.Errorf("decision with huge content = %+v, want clamped to max", s)
	}
}

func TestEstimateNode(t *testing.T) {
	n := flowchart.Node{ID: "a", Label: "Store", Type: flowchart.NodeData}
	if got := EstimateNode(n); got != (Size{240, 96}) {
		t.Errorf("EstimateNode() = %+v", got)
	}
}
