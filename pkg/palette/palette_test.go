package palette

import (
	"encoding/json"
	"testing"
)

func toMap(t *testing.T, p Palette) map[string]any {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func TestBuiltinPalettesValid(t *testing.T) {
	all := []Palette{Default()}
	for _, d := range domainPalettes {
		all = append(all, d.palette)
	}
	for _, p := range all {
		if v := Violations(p); len(v) > 0 {
			t.Errorf("palette %q invalid: %v", p.Name, v)
		}
	}
}

func TestNormalizeAllOrNothing(t *testing.T) {
	candidate := toMap(t, Default())
	candidate["name"] = "Almost Default"
	candidate["accent"] = "not-a-color"

	got := Normalize(candidate, nil)
	if got != Default() {
		t.Errorf("Normalize() = %+v, want full default palette", got)
	}
}

func TestNormalize(t *testing.T) {
	ledger := ForPrompt("monthly budget review")
	custom := Default()
	custom.Name = "Custom"
	custom.Accent = "#123456"

	badNode := toMap(t, custom)
	badNode["nodeColors"].(map[string]any)["decision"] = "#12345"

	extraKey := toMap(t, custom)
	extraKey["nodeColors"].(map[string]any)["swimlane"] = "#abcdef"

	missingKey := toMap(t, custom)
	delete(missingKey["nodeColors"].(map[string]any), "actor")

	tests := []struct {
		name     string
		raw      any
		fallback any
		want     Palette
	}{
		{"valid struct", custom, ledger, custom},
		{"valid pointer", &custom, nil, custom},
		{"valid map", toMap(t, custom), nil, custom},
		{"valid bytes", []byte(mustJSON(t, custom)), nil, custom},
		{"nil raw uses fallback", nil, ledger, ledger},
		{"nil pointer uses fallback", (*Palette)(nil), ledger, ledger},
		{"bad node color uses fallback", badNode, ledger, ledger},
		{"extra node color key uses fallback", extraKey, ledger, ledger},
		{"missing node color key uses fallback", missingKey, ledger, ledger},
		{"both invalid uses default", badNode, extraKey, Default()},
		{"empty palette uses default", Palette{}, nil, Default()},
		{"not an object", "midnight", nil, Default()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw, tt.fallback); got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got.Name, tt.want.Name)
			}
		})
	}
}

func TestNormalizeLowercaseAndUppercaseHex(t *testing.T) {
	p := Default()
	p.Canvas = "#ABCDEF"
	if !Valid(p) {
		t.Errorf("uppercase hex should be valid: %v", Violations(p))
	}
}

func TestViolationsLocations(t *testing.T) {
	p := Default()
	p.Edge = "red"
	v := Violations(p)
	if len(v) != 1 {
		t.Fatalf("Violations() = %v, want exactly one", v)
	}
	if v[0][:5] != "/edge" {
		t.Errorf("violation location = %q, want prefix /edge", v[0])
	}
}

func TestForPrompt(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{"Admit a patient to the ward", "Clinical Mint"},
		{"Approve a LOAN application", "Ledger Blue"},
		{"Deploy a new release to production", "Circuit Night"},
		{"Enroll a student in a course", "Chalkboard"},
		{"Process a customer checkout", "Market Sunset"},
		{"Plant a vegetable garden", "Studio Default"},
		{"", "Studio Default"},
		// healthcare precedes finance in table order
		{"Hospital invoice payment", "Clinical Mint"},
		// "care" is a substring match
		{"Careers page review", "Clinical Mint"},
		// finance precedes software
		{"Bank api integration", "Ledger Blue"},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			if got := ForPrompt(tt.prompt); got.Name != tt.want {
				t.Errorf("ForPrompt(%q) = %q, want %q", tt.prompt, got.Name, tt.want)
			}
		})
	}
}

func TestDefaultIsCopy(t *testing.T) {
	p := Default()
	p.Accent = "#000000"
	if Default().Accent == "#000000" {
		t.Error("mutating the returned default changed the package default")
	}
}

func TestNodeColorsFor(t *testing.T) {
	c := Default().NodeColors
	if c.For("decision") != c.Decision {
		t.Errorf("For(decision) = %q", c.For("decision"))
	}
	if c.For("swimlane") != "" {
		t.Errorf("For(unknown) = %q, want empty", c.For("swimlane"))
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 6 {
		t.Fatalf("Names() = %v, want 6 entries", names)
	}
	if names[0] != "Studio Default" {
		t.Errorf("Names()[0] = %q, want default first", names[0])
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
