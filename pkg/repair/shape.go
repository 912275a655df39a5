package repair

import (
	"github.com/matzehuels/flowsketch/pkg/errors"
)

// maxWrapDepth bounds how many single-key wrapper objects are peeled off.
const maxWrapDepth = 8

// NormalizeShape converts a decoded candidate into the canonical object
// shape. It accepts
//
//   - the canonical shape (an object with a "nodes" key)
//   - the positioned export shape, where nodes carry their content under
//     "data" next to a "position" and edges carry "data.condition"
//   - an object with a single key wrapping either of the above, up to
//     eight levels deep
//
// Positions and sizes are discarded. Anything else fails with
// ErrCodeUnsupportedShape. The input is not modified.
func NormalizeShape(v any) (map[string]any, error) {
	return normalizeShape(v, 0)
}

func normalizeShape(v any, depth int) (map[string]any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedShape, "expected a JSON object, got %s", kindOf(v))
	}

	if _, ok := obj["nodes"]; ok {
		return unwrapPositioned(obj), nil
	}

	if len(obj) == 1 {
		if depth >= maxWrapDepth {
			return nil, errors.New(errors.ErrCodeUnsupportedShape, "document nested deeper than %d wrapper objects", maxWrapDepth)
		}
		for key, inner := range obj {
			if _, ok := inner.(map[string]any); ok {
				return normalizeShape(inner, depth+1)
			}
			return nil, errors.New(errors.ErrCodeUnsupportedShape, "wrapper key %q does not hold an object", key)
		}
	}

	return nil, errors.New(errors.ErrCodeUnsupportedShape, "object has no nodes")
}

// unwrapPositioned returns a shallow copy of obj with positioned nodes and
// edges flattened into canonical records. Elements already in canonical form
// are kept as they are.
func unwrapPositioned(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}

	if nodes, ok := obj["nodes"].([]any); ok {
		flat := make([]any, len(nodes))
		for i, n := range nodes {
			flat[i] = flattenNode(n)
		}
		out["nodes"] = flat
	}
	if edges, ok := obj["edges"].([]any); ok {
		flat := make([]any, len(edges))
		for i, e := range edges {
			flat[i] = flattenEdge(e)
		}
		out["edges"] = flat
	}
	return out
}

func flattenNode(v any) any {
	node, ok := v.(map[string]any)
	if !ok {
		return v
	}
	data, ok := node["data"].(map[string]any)
	if !ok {
		return v
	}

	flat := make(map[string]any, 5)
	copyKey(flat, node, "id")
	// data.type is the flowchart type; the outer type names a renderer.
	if t, ok := data["type"]; ok {
		flat["type"] = t
	} else {
		copyKey(flat, node, "type")
	}
	if l, ok := data["label"]; ok {
		flat["label"] = l
	} else {
		copyKey(flat, node, "label")
	}
	copyKey(flat, data, "details")
	copyKey(flat, data, "notes")
	return flat
}

func flattenEdge(v any) any {
	edge, ok := v.(map[string]any)
	if !ok {
		return v
	}
	data, ok := edge["data"].(map[string]any)
	if !ok {
		return v
	}

	flat := make(map[string]any, 5)
	copyKey(flat, edge, "id")
	copyKey(flat, edge, "source")
	copyKey(flat, edge, "target")
	if l, ok := edge["label"]; ok {
		flat["label"] = l
	} else {
		copyKey(flat, data, "label")
	}
	copyKey(flat, data, "condition")
	return flat
}

func copyKey(dst, src map[string]any, key string) {
	if v, ok := src[key]; ok {
		dst[key] = v
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	default:
		return "number"
	}
}
