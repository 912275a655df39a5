package repair

import (
	"strings"
	"testing"

	"github.com/matzehuels/flowsketch/pkg/errors"
)

const positionedExport = `{
	"title": "Support ticket",
	"nodes": [
		{"id": "open", "type": "flowNode", "position": {"x": 10, "y": 20}, "width": 200, "height": 72,
		 "data": {"label": "Ticket opened", "type": "start", "details": "via email", "notes": ""}},
		{"id": "triage", "type": "flowNode", "position": {"x": 10, "y": 200},
		 "data": {"label": "Urgent?", "type": "decision", "details": "", "notes": "SLA 4h"}},
		{"id": "close", "position": {"x": 10, "y": 400},
		 "data": {"label": "Closed", "type": "end"}}
	],
	"edges": [
		{"id": "e1", "source": "open", "target": "triage", "data": {"condition": ""}},
		{"id": "e2", "source": "triage", "target": "close", "label": "No", "data": {"condition": "low priority"}},
		{"id": "e3", "source": "triage", "target": "close", "data": {"condition": "escalated", "label": "Yes"}}
	]
}`

func TestNormalizeShapePositioned(t *testing.T) {
	shaped, err := NormalizeShape(decode(t, positionedExport))
	if err != nil {
		t.Fatalf("NormalizeShape: %v", err)
	}

	nodes := shaped["nodes"].([]any)
	first := nodes[0].(map[string]any)
	if first["type"] != "start" || first["label"] != "Ticket opened" || first["details"] != "via email" {
		t.Errorf("first node = %v", first)
	}
	for _, k := range []string{"position", "width", "height", "data"} {
		if _, ok := first[k]; ok {
			t.Errorf("flattened node kept %q", k)
		}
	}

	edges := shaped["edges"].([]any)
	e2 := edges[1].(map[string]any)
	if e2["label"] != "No" || e2["condition"] != "low priority" {
		t.Errorf("edge 2 = %v", e2)
	}
	e3 := edges[2].(map[string]any)
	if e3["label"] != "Yes" {
		t.Errorf("edge 3 label from data = %v", e3["label"])
	}

	res, err := Repair([]byte(positionedExport), "", nil)
	if err != nil {
		t.Fatalf("Repair(positioned): %v", err)
	}
	if res.Document.Nodes[1].Notes != "SLA 4h" || res.Document.Edges[1].Condition != "low priority" {
		t.Errorf("content lost: %+v", res.Document)
	}
}

func TestNormalizeShapeWrapped(t *testing.T) {
	inner := `{"nodes": [{"id": "a", "label": "A", "type": "start"}, {"id": "b", "label": "B", "type": "end"}]}`

	tests := []struct {
		name    string
		input   string
		wantErr errors.Code
	}{
		{"canonical", inner, ""},
		{"one wrapper", `{"flowchart": ` + inner + `}`, ""},
		{"nested wrappers", `{"result": {"data": {"document": ` + inner + `}}}`, ""},
		{"wrapped positioned", `{"export": ` + positionedExport + `}`, ""},
		{"eight wrappers", strings.Repeat(`{"w": `, 8) + inner + strings.Repeat("}", 8), ""},
		{"nine wrappers", strings.Repeat(`{"w": `, 9) + inner + strings.Repeat("}", 9), errors.ErrCodeUnsupportedShape},
		{"two keys without nodes", `{"a": ` + inner + `, "b": 1}`, errors.ErrCodeUnsupportedShape},
		{"wrapper of array", `{"items": [1, 2]}`, errors.ErrCodeUnsupportedShape},
		{"top-level array", `[` + inner + `]`, errors.ErrCodeUnsupportedShape},
		{"string", `"flowchart"`, errors.ErrCodeUnsupportedShape},
		{"empty object", `{}`, errors.ErrCodeUnsupportedShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Repair([]byte(tt.input), "", nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Repair() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Repair() error = %v, want %s", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeShapeDoesNotMutate(t *testing.T) {
	in := decode(t, positionedExport)
	if _, err := NormalizeShape(in); err != nil {
		t.Fatalf("NormalizeShape: %v", err)
	}
	first := in["nodes"].([]any)[0].(map[string]any)
	if _, ok := first["position"]; !ok {
		t.Error("input node lost its position")
	}
}
