// Package flowchart defines the canonical flowchart document model.
//
// A [Document] is an ordered list of typed [Node] values, a list of [Edge]
// values referencing those nodes by id, a [palette.Palette] and narrative
// metadata. A canonical document satisfies:
//
//   - 2 to 35 nodes with unique ids
//   - at most 90 edges, each with endpoints that are node ids
//   - at least one start node and at least one end node
//
// Documents are produced by the repair package or the fallback synthesizer
// and afterwards changed only through the edit methods on [Document], each
// of which keeps the invariants above.
//
// # JSON
//
// The canonical JSON form carries exactly the fields
//
//	{ title, summary, rationale, suggestions, palette, nodes, edges }
//
// SourcePrompt is part of the Go value but not of the JSON form.
package flowchart

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/flowsketch/pkg/palette"
)

// Size bounds of a canonical document.
const (
	MinNodes       = 2
	MaxNodes       = 35
	MaxEdges       = 90
	MaxSuggestions = 8

	MaxNodeIDLength     = 60
	MaxLabelLength      = 120
	MaxDetailsLength    = 350
	MaxNotesLength      = 220
	MaxEdgeIDLength     = 80
	MaxEdgeLabelLength  = 120
	MaxConditionLength  = 120
	MaxTitleLength      = 120
	MaxSummaryLength    = 600
	MaxRationaleLength  = 1200
	MaxSuggestionLength = 180
)

// NodeType is the kind of a flowchart node.
type NodeType string

// Node types.
const (
	NodeStart      NodeType = "start"
	NodeProcess    NodeType = "process"
	NodeDecision   NodeType = "decision"
	NodeData       NodeType = "data"
	NodeSubprocess NodeType = "subprocess"
	NodeEnd        NodeType = "end"
	NodeActor      NodeType = "actor"
	NodeDocument   NodeType = "document"
)

// NodeTypes lists every node type in declaration order.
var NodeTypes = []NodeType{
	NodeStart, NodeProcess, NodeDecision, NodeData,
	NodeSubprocess, NodeEnd, NodeActor, NodeDocument,
}

// Valid reports whether t is one of the eight node types.
func (t NodeType) Valid() bool {
	for _, v := range NodeTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Node is a single flowchart step.
type Node struct {
	ID      string   `json:"id" bson:"id"`
	Label   string   `json:"label" bson:"label"`
	Type    NodeType `json:"type" bson:"type"`
	Details string   `json:"details" bson:"details"`
	Notes   string   `json:"notes" bson:"notes"`
}

// Edge is a directed connection between two nodes. Condition is a branch
// guard annotation kept separate from the display Label.
type Edge struct {
	ID        string `json:"id" bson:"id"`
	Source    string `json:"source" bson:"source"`
	Target    string `json:"target" bson:"target"`
	Label     string `json:"label" bson:"label"`
	Condition string `json:"condition" bson:"condition"`
}

// Document is a canonical flowchart.
type Document struct {
	Title       string          `json:"title" bson:"title"`
	Summary     string          `json:"summary" bson:"summary"`
	Rationale   string          `json:"rationale" bson:"rationale"`
	Suggestions []string        `json:"suggestions" bson:"suggestions"`
	Palette     palette.Palette `json:"palette" bson:"palette"`
	Nodes       []Node          `json:"nodes" bson:"nodes"`
	Edges       []Edge          `json:"edges" bson:"edges"`

	// SourcePrompt is the prompt the document was generated from, if any.
	SourcePrompt string `json:"-" bson:"sourcePrompt"`
}

// NodeIndex returns the position of the node with the given id, or -1.
func (d *Document) NodeIndex(id string) int {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Node returns the node with the given id.
func (d *Document) Node(id string) (*Node, bool) {
	if i := d.NodeIndex(id); i >= 0 {
		return &d.Nodes[i], true
	}
	return nil, false
}

// EdgeIndex returns the position of the edge with the given id, or -1.
func (d *Document) EdgeIndex(id string) int {
	for i := range d.Edges {
		if d.Edges[i].ID == id {
			return i
		}
	}
	return -1
}

// CountType returns how many nodes have type t.
func (d *Document) CountType(t NodeType) int {
	n := 0
	for _, node := range d.Nodes {
		if node.Type == t {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	c.Suggestions = append([]string(nil), d.Suggestions...)
	c.Nodes = append([]Node(nil), d.Nodes...)
	c.Edges = append([]Edge(nil), d.Edges...)
	return &c
}

// =============================================================================
// Serialization
// =============================================================================

// MarshalDocument returns the indented canonical JSON encoding of doc.
// nil slices encode as empty arrays.
func MarshalDocument(doc *Document) ([]byte, error) {
	out := *doc
	if out.Suggestions == nil {
		out.Suggestions = []string{}
	}
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocument writes the canonical JSON encoding of doc to w.
func WriteDocument(w io.Writer, doc *Document) error {
	data, err := MarshalDocument(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteDocumentFile writes the canonical JSON encoding of doc to path.
func WriteDocumentFile(path string, doc *Document) error {
	data, err := MarshalDocument(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
