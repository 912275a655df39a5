package layout_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowsketch/pkg/fallback"
	"github.com/matzehuels/flowsketch/pkg/layout"
)

func ExampleEngine_Layout() {
	doc := fallback.Synthesize("Publish the quarterly report", "", "")

	engine := layout.NewEngine(nil)
	res, err := engine.Layout(context.Background(), doc, layout.Vertical)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, n := range res.Nodes {
		fmt.Printf("%-8s %3.0fx%-3.0f target=%s\n", n.ID, n.Width, n.Height, n.TargetSide)
	}
	fmt.Println("marker:", res.Edges[0].Marker)
	// Output:
	// define   200x72  target=top
	// extract  230x96  target=top
	// model    230x96  target=top
	// review   230x150 target=top
	// final    200x72  target=top
	// marker: arrowclosed
}
