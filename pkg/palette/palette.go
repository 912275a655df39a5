// Package palette defines flowchart color palettes and their normalization.
//
// A [Palette] has a name, six interface colors and one color per node type.
// Every color is a 6-digit hex string ("#1f2a44").
//
// # Normalization
//
// [Normalize] validates a whole candidate palette against a JSON schema in
// one pass. When any field fails, the entire candidate is discarded and the
// fallback (or, failing that, [Default]) is used instead; fields are never
// patched individually:
//
//	p := palette.Normalize(raw, current)
//
// # Domain palettes
//
// [ForPrompt] picks a palette from a fixed, ordered keyword table. The first
// entry whose keyword appears in the lower-cased prompt wins.
package palette

import "strings"

// Palette is the color scheme of a flowchart document.
type Palette struct {
	Name       string     `json:"name" bson:"name"`
	Canvas     string     `json:"canvas" bson:"canvas"`
	Panel      string     `json:"panel" bson:"panel"`
	Text       string     `json:"text" bson:"text"`
	MutedText  string     `json:"mutedText" bson:"mutedText"`
	Edge       string     `json:"edge" bson:"edge"`
	Accent     string     `json:"accent" bson:"accent"`
	NodeColors NodeColors `json:"nodeColors" bson:"nodeColors"`
}

// NodeColors holds one color per node type. The JSON form is an object with
// exactly the eight node-type keys.
type NodeColors struct {
	Start      string `json:"start" bson:"start"`
	Process    string `json:"process" bson:"process"`
	Decision   string `json:"decision" bson:"decision"`
	Data       string `json:"data" bson:"data"`
	Subprocess string `json:"subprocess" bson:"subprocess"`
	End        string `json:"end" bson:"end"`
	Actor      string `json:"actor" bson:"actor"`
	Document   string `json:"document" bson:"document"`
}

// For returns the color for a node type name, or "" for unknown types.
func (c NodeColors) For(nodeType string) string {
	switch nodeType {
	case "start":
		return c.Start
	case "process":
		return c.Process
	case "decision":
		return c.Decision
	case "data":
		return c.Data
	case "subprocess":
		return c.Subprocess
	case "end":
		return c.End
	case "actor":
		return c.Actor
	case "document":
		return c.Document
	default:
		return ""
	}
}

// =============================================================================
// Built-in Palettes
// =============================================================================

var defaultPalette = Palette{
	Name:      "Studio Default",
	Canvas:    "#f7f7fb",
	Panel:     "#ffffff",
	Text:      "#1f2933",
	MutedText: "#616e7c",
	Edge:      "#7b8794",
	Accent:    "#3f51b5",
	NodeColors: NodeColors{
		Start:      "#2e7d32",
		Process:    "#3f51b5",
		Decision:   "#f9a825",
		Data:       "#00838f",
		Subprocess: "#6a1b9a",
		End:        "#c62828",
		Actor:      "#ef6c00",
		Document:   "#546e7a",
	},
}

// Default returns the global default palette.
func Default() Palette { return defaultPalette }

// domainPalette maps a keyword set to a palette. Order of domainPalettes is
// significant: the first match wins.
type domainPalette struct {
	keywords []string
	palette  Palette
}

var domainPalettes = []domainPalette{
	{
		keywords: []string{"health", "clinic", "patient", "medical", "hospital", "care"},
		palette: Palette{
			Name:      "Clinical Mint",
			Canvas:    "#f3faf7",
			Panel:     "#ffffff",
			Text:      "#16302b",
			MutedText: "#4f6f66",
			Edge:      "#6f9c8f",
			Accent:    "#0f9d76",
			NodeColors: NodeColors{
				Start:      "#0f9d76",
				Process:    "#2a7f9e",
				Decision:   "#e0a526",
				Data:       "#3e8e7e",
				Subprocess: "#5b6abf",
				End:        "#c0504d",
				Actor:      "#d9822b",
				Document:   "#607d8b",
			},
		},
	},
	{
		keywords: []string{"finance", "bank", "payment", "invoice", "budget", "loan"},
		palette: Palette{
			Name:      "Ledger Blue",
			Canvas:    "#f4f6fa",
			Panel:     "#ffffff",
			Text:      "#14213d",
			MutedText: "#52607a",
			Edge:      "#7a8bab",
			Accent:    "#1d4ed8",
			NodeColors: NodeColors{
				Start:      "#15803d",
				Process:    "#1d4ed8",
				Decision:   "#ca8a04",
				Data:       "#0e7490",
				Subprocess: "#4338ca",
				End:        "#b91c1c",
				Actor:      "#c2410c",
				Document:   "#475569",
			},
		},
	},
	{
		keywords: []string{"software", "deploy", "code", "api", "release", "devops", "server"},
		palette: Palette{
			Name:      "Circuit Night",
			Canvas:    "#0f172a",
			Panel:     "#1e293b",
			Text:      "#e2e8f0",
			MutedText: "#94a3b8",
			Edge:      "#64748b",
			Accent:    "#38bdf8",
			NodeColors: NodeColors{
				Start:      "#22c55e",
				Process:    "#38bdf8",
				Decision:   "#facc15",
				Data:       "#2dd4bf",
				Subprocess: "#a78bfa",
				End:        "#f87171",
				Actor:      "#fb923c",
				Document:   "#cbd5e1",
			},
		},
	},
	{
		keywords: []string{"school", "student", "course", "lesson", "learn", "teach"},
		palette: Palette{
			Name:      "Chalkboard",
			Canvas:    "#f5f3ee",
			Panel:     "#fffdf8",
			Text:      "#2b2d2f",
			MutedText: "#6b6f73",
			Edge:      "#8a8f94",
			Accent:    "#2f6f4f",
			NodeColors: NodeColors{
				Start:      "#2f6f4f",
				Process:    "#3b5b92",
				Decision:   "#d4a017",
				Data:       "#2a8c8c",
				Subprocess: "#7a4b94",
				End:        "#b5443b",
				Actor:      "#c8752a",
				Document:   "#5f6b73",
			},
		},
	},
	{
		keywords: []string{"order", "shop", "checkout", "customer", "sales", "marketing"},
		palette: Palette{
			Name:      "Market Sunset",
			Canvas:    "#fff7f2",
			Panel:     "#ffffff",
			Text:      "#3b1f1a",
			MutedText: "#7d5a50",
			Edge:      "#b08878",
			Accent:    "#e4572e",
			NodeColors: NodeColors{
				Start:      "#2a9d8f",
				Process:    "#e4572e",
				Decision:   "#f3a712",
				Data:       "#29335c",
				Subprocess: "#8e5572",
				End:        "#a4161a",
				Actor:      "#f07167",
				Document:   "#6c757d",
			},
		},
	},
}

// ForPrompt returns the palette of the first domain entry with a keyword
// contained in the lower-cased prompt, or [Default] when none matches.
func ForPrompt(prompt string) Palette {
	lower := strings.ToLower(prompt)
	for _, d := range domainPalettes {
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				return d.palette
			}
		}
	}
	return defaultPalette
}

// Names returns the names of the built-in palettes, default first.
func Names() []string {
	names := make([]string, 0, len(domainPalettes)+1)
	names = append(names, defaultPalette.Name)
	for _, d := range domainPalettes {
		names = append(names, d.palette.Name)
	}
	return names
}
