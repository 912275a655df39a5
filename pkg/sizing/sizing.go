// Package sizing estimates rendered node dimensions from node content.
//
// Every node type starts from a base size. Text grows the node by an
// estimated line count:
//
//	lines = ceil(label/24) + ceil(details/42) + ceil(notes/44)
//
// where lengths are rune counts. Each line beyond five adds 18 units of
// height. Decisions also widen by 10 units per line and gain 8 more units of
// height per extra line so the diamond still fits its text. Results are
// clamped to [MaxWidth] x [MaxHeight].
package sizing

import (
	"unicode/utf8"

	"github.com/matzehuels/flowsketch/pkg/flowchart"
)

// Hard limits for estimated sizes.
const (
	MaxWidth  = 420
	MaxHeight = 560
)

// Line estimation constants.
const (
	labelCharsPerLine   = 24
	detailsCharsPerLine = 42
	notesCharsPerLine   = 44
	freeLines           = 5
	extraLineHeight     = 18

	decisionWidthPerLine = 10
	decisionExtraPerLine = 8
)

// Size is a node's width and height.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Content is the text that determines a node's size.
type Content struct {
	Label   string
	Details string
	Notes   string
}

// ContentOf returns the sizing content of a node.
func ContentOf(n flowchart.Node) Content {
	return Content{Label: n.Label, Details: n.Details, Notes: n.Notes}
}

var baseSizes = map[flowchart.NodeType]Size{
	flowchart.NodeStart:      {200, 72},
	flowchart.NodeEnd:        {200, 72},
	flowchart.NodeProcess:    {230, 96},
	flowchart.NodeDecision:   {210, 150},
	flowchart.NodeData:       {230, 96},
	flowchart.NodeSubprocess: {240, 100},
	flowchart.NodeActor:      {200, 96},
	flowchart.NodeDocument:   {230, 110},
}

var minWidths = map[flowchart.NodeType]float64{
	flowchart.NodeData:     240,
	flowchart.NodeActor:    220,
	flowchart.NodeDocument: 240,
}

// Base returns the content-free size of a node type. Unknown types size as
// process nodes.
func Base(t flowchart.NodeType) Size {
	if s, ok := baseSizes[t]; ok {
		return s
	}
	return baseSizes[flowchart.NodeProcess]
}

// Lines returns the estimated number of text lines of c.
func Lines(c Content) int {
	return ceilDiv(utf8.RuneCountInString(c.Label), labelCharsPerLine) +
		ceilDiv(utf8.RuneCountInString(c.Details), detailsCharsPerLine) +
		ceilDiv(utf8.RuneCountInString(c.Notes), notesCharsPerLine)
}

// Estimate returns the size of a node of type t showing c.
func Estimate(t flowchart.NodeType, c Content) Size {
	s := Base(t)
	lines := Lines(c)
	extra := max(0, lines-freeLines)

	s.Height += float64(extraLineHeight * extra)
	if t == flowchart.NodeDecision {
		s.Width += float64(decisionWidthPerLine * lines)
		s.Height += float64(decisionExtraPerLine * extra)
	}
	if floor, ok := minWidths[t]; ok {
		s.Width = max(s.Width, floor)
	}

	s.Width = min(s.Width, MaxWidth)
	s.Height = min(s.Height, MaxHeight)
	return s
}

// EstimateNode is Estimate applied to a document node.
func EstimateNode(n flowchart.Node) Size {
	return Estimate(n.Type, ContentOf(n))
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
