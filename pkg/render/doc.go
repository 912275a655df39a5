// Package render turns a laid out flowchart into exportable artifacts.
//
// # DOT
//
// [ToDOT] writes a Graphviz graph with every node pinned at its computed
// position (pos="x,y!"), shaped by node type and filled from the palette.
// Positions are flipped into Graphviz's y-up space so the picture matches
// the layout.
//
// # SVG
//
// [SVG] renders DOT through go-graphviz with the neato engine, which keeps
// pinned nodes in place and only routes the edges.
//
// # PNG and PDF
//
// [ToPNG] and [ToPDF] convert SVG with the external rsvg-convert tool
// (librsvg):
//
//	svg, err := render.SVG(ctx, render.ToDOT(res, doc.Palette))
//	png, err := render.ToPNG(ctx, svg, 2.0)
//
// [Export] dispatches on a [Format] name.
package render
