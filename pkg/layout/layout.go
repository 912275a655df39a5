// Package layout assigns sizes and positions to the nodes of a flowchart.
//
// [Engine.Layout] sizes every node with the sizing package, hands the sized
// graph to a [Placer] and post-processes the returned centers:
//
//   - centers become top-left corners using each node's own size
//   - the whole set is shifted so min x and min y are at least [MinOffset]
//   - every edge gets the [ArrowMarker]
//   - connector sides follow the final direction (top/bottom or left/right)
//
// # Orientations
//
// [Vertical] and [Horizontal] run one placement with the standard spacing.
// [Compact] runs top-to-bottom and left-to-right with tight spacing and
// keeps the orientation with the smaller bounding box. Ties keep
// top-to-bottom.
//
// # Placers
//
// [LayeredPlacer] is the pure Go default. [GraphvizPlacer] delegates to the
// Graphviz dot engine through go-graphviz.
package layout

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/flowchart"
	"github.com/matzehuels/flowsketch/pkg/sizing"
)

// Orientation selects how a document is laid out.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
	Compact    Orientation = "compact"
)

// Orientations lists the supported orientations.
var Orientations = []Orientation{Vertical, Horizontal, Compact}

// ParseOrientation validates s as an orientation. Empty means Vertical.
func ParseOrientation(s string) (Orientation, error) {
	if s == "" {
		return Vertical, nil
	}
	for _, o := range Orientations {
		if string(o) == s {
			return o, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidLayout, "unknown orientation %q (want vertical, horizontal or compact)", s)
}

// ArrowMarker is the marker attached to every laid out edge.
const ArrowMarker = "arrowclosed"

// MinOffset is the smallest x and y of any laid out node.
const MinOffset = 20

// Standard and compact spacing.
var (
	StandardSpacing = Config{RankSep: 100, NodeSep: 80, MarginX: 30, MarginY: 30}
	CompactSpacing  = Config{RankSep: 45, NodeSep: 30, MarginX: 20, MarginY: 20}
)

// Side is a node border where edges attach.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Node is a document node with its size, top-left position and connector
// sides.
type Node struct {
	flowchart.Node
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Position   Point   `json:"position"`
	SourceSide Side    `json:"sourcePosition"`
	TargetSide Side    `json:"targetPosition"`
}

// Edge is a document edge annotated with its rendering marker.
type Edge struct {
	flowchart.Edge
	Marker string `json:"marker"`
}

// Result is a positioned flowchart.
type Result struct {
	// Orientation is the requested orientation.
	Orientation Orientation `json:"orientation"`
	// RankDir is the direction actually used.
	RankDir RankDir `json:"rankDir"`
	// Placer names the placement routine.
	Placer string `json:"placer"`
	Nodes  []Node `json:"nodes"`
	Edges  []Edge `json:"edges"`
}

// Bounds returns the axis-aligned bounding box of the nodes as its top-left
// corner and size.
func (r *Result) Bounds() (origin Point, width, height float64) {
	if len(r.Nodes) == 0 {
		return Point{}, 0, 0
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range r.Nodes {
		minX = math.Min(minX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
		maxX = math.Max(maxX, n.Position.X+n.Width)
		maxY = math.Max(maxY, n.Position.Y+n.Height)
	}
	return Point{X: minX, Y: minY}, maxX - minX, maxY - minY
}

// Area returns the bounding-box area of the nodes.
func (r *Result) Area() float64 {
	_, w, h := r.Bounds()
	return w * h
}

// Engine lays out flowchart documents with a Placer.
// An Engine holds no state besides its placer and is safe for concurrent use
// when the placer is.
type Engine struct {
	Placer Placer
}

// NewEngine returns an engine using p, or a LayeredPlacer when p is nil.
func NewEngine(p Placer) *Engine {
	if p == nil {
		p = NewLayeredPlacer()
	}
	return &Engine{Placer: p}
}

// PlacerName returns the name of the engine's placer.
func (e *Engine) PlacerName() string {
	return e.placer().Name()
}

func (e *Engine) placer() Placer {
	if e == nil || e.Placer == nil {
		return NewLayeredPlacer()
	}
	return e.Placer
}

// Layout positions doc in the given orientation.
func (e *Engine) Layout(ctx context.Context, doc *flowchart.Document, o Orientation) (*Result, error) {
	if doc == nil {
		return nil, errors.New(errors.ErrCodeInvalidLayout, "nothing to lay out")
	}
	if _, err := ParseOrientation(string(o)); err != nil {
		return nil, err
	}

	nodes, links := sizedGraph(doc)

	var (
		res *Result
		err error
	)
	switch o {
	case Compact:
		res, err = e.compact(ctx, doc, nodes, links)
	case Horizontal:
		res, err = e.place(ctx, doc, nodes, links, withDir(StandardSpacing, LeftToRight))
	default:
		res, err = e.place(ctx, doc, nodes, links, withDir(StandardSpacing, TopToBottom))
	}
	if err != nil {
		return nil, err
	}
	res.Orientation = o
	return res, nil
}

func (e *Engine) compact(ctx context.Context, doc *flowchart.Document, nodes []SizedNode, links []Link) (*Result, error) {
	tb, err := e.place(ctx, doc, nodes, links, withDir(CompactSpacing, TopToBottom))
	if err != nil {
		return nil, err
	}
	lr, err := e.place(ctx, doc, nodes, links, withDir(CompactSpacing, LeftToRight))
	if err != nil {
		return nil, err
	}
	if lr.Area() < tb.Area() {
		return lr, nil
	}
	return tb, nil
}

func (e *Engine) place(ctx context.Context, doc *flowchart.Document, nodes []SizedNode, links []Link, cfg Config) (*Result, error) {
	p := e.placer()
	centers, err := p.Place(ctx, nodes, links, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s placement: %w", p.Name(), err)
	}

	source, target := SideBottom, SideTop
	if cfg.RankDir == LeftToRight {
		source, target = SideRight, SideLeft
	}

	res := &Result{
		RankDir: cfg.RankDir,
		Placer:  p.Name(),
		Nodes:   make([]Node, len(doc.Nodes)),
		Edges:   make([]Edge, len(doc.Edges)),
	}
	minX, minY := math.Inf(1), math.Inf(1)
	for i, n := range doc.Nodes {
		c, ok := centers[n.ID]
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "%s placer returned no position for %q", p.Name(), n.ID)
		}
		s := nodes[i]
		pos := Point{X: c.X - s.Width/2, Y: c.Y - s.Height/2}
		minX, minY = math.Min(minX, pos.X), math.Min(minY, pos.Y)
		res.Nodes[i] = Node{
			Node:       n,
			Width:      s.Width,
			Height:     s.Height,
			Position:   pos,
			SourceSide: source,
			TargetSide: target,
		}
	}

	dx, dy := math.Max(0, MinOffset-minX), math.Max(0, MinOffset-minY)
	for i := range res.Nodes {
		res.Nodes[i].Position.X += dx
		res.Nodes[i].Position.Y += dy
	}

	for i, edge := range doc.Edges {
		res.Edges[i] = Edge{Edge: edge, Marker: ArrowMarker}
	}
	return res, nil
}

func sizedGraph(doc *flowchart.Document) ([]SizedNode, []Link) {
	nodes := make([]SizedNode, len(doc.Nodes))
	for i, n := range doc.Nodes {
		s := sizing.EstimateNode(n)
		nodes[i] = SizedNode{ID: n.ID, Width: s.Width, Height: s.Height}
	}
	links := make([]Link, len(doc.Edges))
	for i, e := range doc.Edges {
		links[i] = Link{Source: e.Source, Target: e.Target}
	}
	return nodes, links
}

func withDir(cfg Config, dir RankDir) Config {
	cfg.RankDir = dir
	return cfg
}
