package render

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/flowsketch/pkg/errors"
	"github.com/matzehuels/flowsketch/pkg/layout"
	"github.com/matzehuels/flowsketch/pkg/palette"
)

// Format names an export artifact.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatDOT  Format = "dot"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatSVG, FormatDOT, FormatPNG, FormatPDF, FormatJSON}

// ParseFormat validates s as a format. Empty means SVG.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatSVG, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unsupported export format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "text/vnd.graphviz"
	}
}

// Export renders res in format f using palette p.
func Export(ctx context.Context, res *layout.Result, p palette.Palette, f Format) ([]byte, error) {
	if res == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nothing to export")
	}
	switch f {
	case FormatJSON:
		return json.MarshalIndent(res, "", "  ")
	case FormatDOT:
		return []byte(ToDOT(res, p)), nil
	}

	svg, err := SVG(ctx, ToDOT(res, p))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render svg")
	}
	switch f {
	case FormatSVG:
		return svg, nil
	case FormatPNG:
		return ToPNG(ctx, svg, 2.0)
	case FormatPDF:
		return ToPDF(ctx, svg)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported export format %q", f)
	}
}
