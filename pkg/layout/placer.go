package layout

import "context"

// RankDir is the direction ranks advance in.
type RankDir string

const (
	// TopToBottom stacks ranks vertically.
	TopToBottom RankDir = "TB"
	// LeftToRight stacks ranks horizontally.
	LeftToRight RankDir = "LR"
)

// Config parameterizes one placement run. Separations and margins are in
// layout units (1 unit = 1 point).
type Config struct {
	RankDir RankDir
	RankSep float64
	NodeSep float64
	MarginX float64
	MarginY float64
}

// SizedNode is a node identifier with its estimated size.
type SizedNode struct {
	ID     string
	Width  float64
	Height float64
}

// Link is a directed connection between two node identifiers.
type Link struct {
	Source string
	Target string
}

// Point is a 2-D coordinate. Y grows downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Placer assigns a center position to every node of a layered graph.
//
// Implementations must be deterministic: the same nodes, links and config
// always produce the same positions. The returned map has an entry for
// every node.
type Placer interface {
	// Name identifies the placer in cache keys and logs.
	Name() string
	Place(ctx context.Context, nodes []SizedNode, links []Link, cfg Config) (map[string]Point, error)
}
