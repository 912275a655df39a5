package palette

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://flowsketch.dev/schemas/palette.json"

// paletteSchemaJSON is the JSON Schema a palette candidate must satisfy as a
// whole. nodeColors rejects unknown keys.
const paletteSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowsketch.dev/schemas/palette.json",
  "type": "object",
  "required": ["name", "canvas", "panel", "text", "mutedText", "edge", "accent", "nodeColors"],
  "properties": {
    "name": { "type": "string", "minLength": 1, "maxLength": 60 },
    "canvas": { "$ref": "#/$defs/color" },
    "panel": { "$ref": "#/$defs/color" },
    "text": { "$ref": "#/$defs/color" },
    "mutedText": { "$ref": "#/$defs/color" },
    "edge": { "$ref": "#/$defs/color" },
    "accent": { "$ref": "#/$defs/color" },
    "nodeColors": {
      "type": "object",
      "required": ["start", "process", "decision", "data", "subprocess", "end", "actor", "document"],
      "properties": {
        "start": { "$ref": "#/$defs/color" },
        "process": { "$ref": "#/$defs/color" },
        "decision": { "$ref": "#/$defs/color" },
        "data": { "$ref": "#/$defs/color" },
        "subprocess": { "$ref": "#/$defs/color" },
        "end": { "$ref": "#/$defs/color" },
        "actor": { "$ref": "#/$defs/color" },
        "document": { "$ref": "#/$defs/color" }
      },
      "additionalProperties": false
    }
  },
  "$defs": {
    "color": { "type": "string", "pattern": "^#[0-9a-fA-F]{6}$" }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(paletteSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal palette schema: %w", err)
	}
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add palette schema resource: %w", err)
	}
	return c.Compile(schemaURL)
})

// Normalize returns raw as a Palette if it passes the palette schema as a
// whole. Otherwise fallback is tried the same way, and finally [Default].
//
// Candidates may be a Palette, a *Palette, decoded JSON (map[string]any) or
// raw JSON bytes. nil candidates are skipped.
func Normalize(raw, fallback any) Palette {
	for _, candidate := range []any{raw, fallback} {
		if p, ok := validate(candidate); ok {
			return p
		}
	}
	return defaultPalette
}

// Valid reports whether candidate passes the palette schema.
func Valid(candidate any) bool {
	_, ok := validate(candidate)
	return ok
}

// Violations lists the schema violations of candidate, one per offending
// location. An empty result means the candidate is valid.
func Violations(candidate any) []string {
	doc, err := toJSONValue(candidate)
	if err != nil {
		return []string{"/: " + err.Error()}
	}
	schema, err := compiledSchema()
	if err != nil {
		return []string{"/: " + err.Error()}
	}
	err = schema.Validate(doc)
	if err == nil {
		return nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{"/: " + err.Error()}
	}
	return collectViolations(verr)
}

func validate(candidate any) (Palette, bool) {
	if isNil(candidate) {
		return Palette{}, false
	}
	if len(Violations(candidate)) > 0 {
		return Palette{}, false
	}
	data, ok := candidate.([]byte)
	if !ok {
		var err error
		if data, err = json.Marshal(candidate); err != nil {
			return Palette{}, false
		}
	}
	var p Palette
	if err := json.Unmarshal(data, &p); err != nil {
		return Palette{}, false
	}
	return p, true
}

func isNil(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *Palette:
		return t == nil
	case []byte:
		return len(t) == 0
	case map[string]any:
		return t == nil
	}
	return false
}

// toJSONValue converts v into the generic form the schema validator expects.
// Byte slices are treated as JSON text.
func toJSONValue(v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
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
