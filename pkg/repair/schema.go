package repair

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/matzehuels/flowsketch/pkg/errors"
)

const documentSchemaURL = "https://flowsketch.dev/schemas/document.json"

// documentSchemaJSON bounds the shape of a candidate document. Palette is
// deliberately unconstrained: palettes are normalized, not rejected.
const documentSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowsketch.dev/schemas/document.json",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "title": { "$ref": "#/$defs/optText", "maxLength": 120 },
    "summary": { "$ref": "#/$defs/optText", "maxLength": 600 },
    "rationale": { "$ref": "#/$defs/optText", "maxLength": 1200 },
    "suggestions": {
      "type": ["array", "null"],
      "maxItems": 8,
      "items": { "type": "string", "maxLength": 180 }
    },
    "sourcePrompt": { "$ref": "#/$defs/optText" },
    "palette": {},
    "nodes": {
      "type": "array",
      "minItems": 2,
      "maxItems": 35,
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": ["array", "null"],
      "maxItems": 90,
      "items": { "$ref": "#/$defs/edge" }
    }
  },
  "$defs": {
    "optText": { "type": ["string", "null"] },
    "node": {
      "type": "object",
      "required": ["id", "label", "type"],
      "properties": {
        "id": { "type": "string", "minLength": 1, "maxLength": 60 },
        "label": { "type": "string", "maxLength": 120 },
        "type": {
          "type": "string",
          "enum": ["start", "process", "decision", "data", "subprocess", "end", "actor", "document"]
        },
        "details": { "$ref": "#/$defs/optText", "maxLength": 350 },
        "notes": { "$ref": "#/$defs/optText", "maxLength": 220 }
      }
    },
    "edge": {
      "type": "object",
      "required": ["source", "target"],
      "properties": {
        "id": { "$ref": "#/$defs/optText", "maxLength": 80 },
        "source": { "type": "string", "minLength": 1, "maxLength": 60 },
        "target": { "type": "string", "minLength": 1, "maxLength": 60 },
        "label": { "$ref": "#/$defs/optText", "maxLength": 120 },
        "condition": { "$ref": "#/$defs/optText", "maxLength": 120 }
      }
    }
  }
}`

var documentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal document schema: %w", err)
	}
	if err := c.AddResource(documentSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add document schema resource: %w", err)
	}
	return c.Compile(documentSchemaURL)
})

// ValidateShape checks a shape-normalized candidate against the document
// schema. Violations are reported as an ErrCodeSchema error.
func ValidateShape(candidate map[string]any) error {
	schema, err := documentSchema()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "compile document schema")
	}
	if err := schema.Validate(candidate); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return errors.Schema([]string{err.Error()})
		}
		return errors.Schema(collectViolations(verr))
	}
	return nil
}

// toJSONValue converts v into generic decoded JSON (map[string]any, []any,
// json.Number, string, bool, nil). Byte slices are parsed as JSON text.
func toJSONValue(v any) (any, error) {
	var b []byte
	switch t := v.(type) {
	case []byte:
		b = t
	case json.RawMessage:
		b = t
	case string:
		b = []byte(t)
	default:
		var err error
		if b, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/" + strings.Join(verr.InstanceLocation, "/")
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}
	var out []string
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}
