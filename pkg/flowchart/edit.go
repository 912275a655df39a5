package flowchart

import (
	"fmt"
	"strings"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/palette"
)

// SetNodeLabel replaces the label of node id. The label is trimmed and must
// be non-empty.
func (d *Document) SetNodeLabel(id, label string) error {
	n, ok := d.Node(id)
	if !ok {
		return nodeNotFound(id)
	}
	label = strings.TrimSpace(label)
	if err := errors.ValidateText("label", label, MaxLabelLength, true); err != nil {
		return err
	}
	n.Label = label
	return nil
}

// SetNodeDetails replaces the details and notes of node id.
func (d *Document) SetNodeDetails(id, details, notes string) error {
	n, ok := d.Node(id)
	if !ok {
		return nodeNotFound(id)
	}
	details = strings.TrimSpace(details)
	notes = strings.TrimSpace(notes)
	if err := errors.ValidateText("details", details, MaxDetailsLength, false); err != nil {
		return err
	}
	if err := errors.ValidateText("notes", notes, MaxNotesLength, false); err != nil {
		return err
	}
	n.Details = details
	n.Notes = notes
	return nil
}

// SetNodeType changes the type of node id. The change is rejected when it
// would leave the document without a start or an end node.
func (d *Document) SetNodeType(id string, t NodeType) error {
	if !t.Valid() {
		return errors.New(errors.ErrCodeInvalidEdit, "unknown node type %q", t)
	}
	n, ok := d.Node(id)
	if !ok {
		return nodeNotFound(id)
	}
	if n.Type == t {
		return nil
	}
	for _, terminal := range []NodeType{NodeStart, NodeEnd} {
		if n.Type == terminal && d.CountType(terminal) == 1 {
			return errors.New(errors.ErrCodeInvalidEdit,
				"node %q is the only %s node", id, terminal)
		}
	}
	n.Type = t
	return nil
}

// AddEdge connects source to target and returns the new edge. The id is
// derived from the endpoints and made unique within the document.
func (d *Document) AddEdge(source, target, label, condition string) (Edge, error) {
	if d.NodeIndex(source) < 0 {
		return Edge{}, nodeNotFound(source)
	}
	if d.NodeIndex(target) < 0 {
		return Edge{}, nodeNotFound(target)
	}
	if len(d.Edges) >= MaxEdges {
		return Edge{}, errors.New(errors.ErrCodeInvalidEdit, "document already has %d edges", MaxEdges)
	}
	label = strings.TrimSpace(label)
	condition = strings.TrimSpace(condition)
	if err := errors.ValidateText("edge label", label, MaxEdgeLabelLength, false); err != nil {
		return Edge{}, err
	}
	if err := errors.ValidateText("condition", condition, MaxConditionLength, false); err != nil {
		return Edge{}, err
	}

	used := NewIDSet()
	for _, e := range d.Edges {
		used[e.ID] = struct{}{}
	}
	index := len(d.Edges) + 1
	generated := SanitizeID(fmt.Sprintf("edge-%s-%s-%d", source, target, index), fmt.Sprintf("edge-%d", index))

	e := Edge{
		ID:        used.Claim(generated, index),
		Source:    source,
		Target:    target,
		Label:     label,
		Condition: condition,
	}
	d.Edges = append(d.Edges, e)
	return e, nil
}

// RemoveEdge deletes the edge with the given id.
func (d *Document) RemoveEdge(id string) error {
	i := d.EdgeIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "edge %q not found", id)
	}
	d.Edges = append(d.Edges[:i], d.Edges[i+1:]...)
	return nil
}

// SetPalette replaces the palette. An invalid candidate leaves the current
// palette in place; the palette that ends up on the document is returned.
func (d *Document) SetPalette(p any) palette.Palette {
	d.Palette = palette.Normalize(p, d.Palette)
	return d.Palette
}

func nodeNotFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "node %q not found", id)
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks every document invariant and returns the first violation.
func (d *Document) Validate() error {
	if n := len(d.Nodes); n < MinNodes || n > MaxNodes {
		return invalid("document has %d nodes, want %d to %d", n, MinNodes, MaxNodes)
	}
	if n := len(d.Edges); n > MaxEdges {
		return invalid("document has %d edges, max %d", n, MaxEdges)
	}
	if n := len(d.Suggestions); n > MaxSuggestions {
		return invalid("document has %d suggestions, max %d", n, MaxSuggestions)
	}

	ids := NewIDSet()
	for _, n := range d.Nodes {
		if n.ID == "" || len(n.ID) > MaxNodeIDLength {
			return invalid("node id %q has invalid length", n.ID)
		}
		if ids.Has(n.ID) {
			return invalid("duplicate node id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
		if !n.Type.Valid() {
			return invalid("node %q has unknown type %q", n.ID, n.Type)
		}
		if err := firstTextError(
			textField{"label", n.Label, MaxLabelLength, true},
			textField{"details", n.Details, MaxDetailsLength, false},
			textField{"notes", n.Notes, MaxNotesLength, false},
		); err != nil {
			return invalid("node %q: %s", n.ID, errors.UserMessage(err))
		}
	}

	edgeIDs := NewIDSet()
	for _, e := range d.Edges {
		if e.ID == "" || len(e.ID) > MaxEdgeIDLength {
			return invalid("edge id %q has invalid length", e.ID)
		}
		if edgeIDs.Has(e.ID) {
			return invalid("duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = struct{}{}
		if !ids.Has(e.Source) || !ids.Has(e.Target) {
			return invalid("edge %q references unknown node", e.ID)
		}
		if err := firstTextError(
			textField{"label", e.Label, MaxEdgeLabelLength, false},
			textField{"condition", e.Condition, MaxConditionLength, false},
		); err != nil {
			return invalid("edge %q: %s", e.ID, errors.UserMessage(err))
		}
	}

	if d.CountType(NodeStart) == 0 {
		return invalid("document has no start node")
	}
	if d.CountType(NodeEnd) == 0 {
		return invalid("document has no end node")
	}
	if !palette.Valid(d.Palette) {
		return invalid("palette is invalid")
	}
	return nil
}

type textField struct {
	name     string
	value    string
	max      int
	required bool
}

func firstTextError(fields ...textField) error {
	for _, f := range fields {
		if err := errors.ValidateText(f.name, f.value, f.max, f.required); err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidInput, format, args...)
}
