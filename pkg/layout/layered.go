package layout

import (
	"context"
	"sort"
)

// orderingSweeps is the number of down/up barycenter sweep pairs.
const orderingSweeps = 2

// LayeredPlacer is a pure Go layered placement routine.
//
// Placement runs in four passes:
//  1. Cycles are broken by ignoring DFS back edges, visiting sources first
//     and then every remaining node in input order.
//  2. Ranks are assigned by longest path (Kahn's algorithm), so every node
//     sits one rank below its deepest parent.
//  3. Nodes within a rank start in input order and are reordered by a few
//     deterministic barycenter sweeps.
//  4. Ranks are stacked along the rank axis, each as thick as its largest
//     node plus RankSep. Within a rank nodes are packed with NodeSep and the
//     rank is centered on the widest one.
//
// Ordering never depends on separations, so shrinking RankSep or NodeSep
// never grows the bounding box.
type LayeredPlacer struct{}

// NewLayeredPlacer returns the default placer.
func NewLayeredPlacer() *LayeredPlacer { return &LayeredPlacer{} }

// Name implements Placer.
func (*LayeredPlacer) Name() string { return "layered" }

// Place implements Placer.
func (*LayeredPlacer) Place(_ context.Context, nodes []SizedNode, links []Link, cfg Config) (map[string]Point, error) {
	if len(nodes) == 0 {
		return map[string]Point{}, nil
	}

	g := newRankGraph(nodes, links)
	g.breakCycles()
	ranks := g.assignRanks()
	orders := g.orderRanks(ranks)
	return g.coordinates(nodes, orders, cfg), nil
}

// rankGraph is an index-based adjacency view of the input.
type rankGraph struct {
	n        int
	children [][]int
	parents  [][]int
}

func newRankGraph(nodes []SizedNode, links []Link) *rankGraph {
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if _, ok := index[n.ID]; !ok {
			index[n.ID] = i
		}
	}

	g := &rankGraph{
		n:        len(nodes),
		children: make([][]int, len(nodes)),
		parents:  make([][]int, len(nodes)),
	}
	seen := make(map[[2]int]bool, len(links))
	for _, l := range links {
		s, okS := index[l.Source]
		t, okT := index[l.Target]
		if !okS || !okT || s == t || seen[[2]int{s, t}] {
			continue
		}
		seen[[2]int{s, t}] = true
		g.children[s] = append(g.children[s], t)
		g.parents[t] = append(g.parents[t], s)
	}
	return g
}

func (g *rankGraph) removeEdge(s, t int) {
	g.children[s] = without(g.children[s], t)
	g.parents[t] = without(g.parents[t], s)
}

func without(xs []int, v int) []int {
	out := xs[:0:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func (g *rankGraph) breakCycles() int {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, g.n)
	var backEdges [][2]int

	var dfs func(node int)
	dfs = func(node int) {
		color[node] = gray
		for _, child := range g.children[node] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, [2]int{node, child})
			}
		}
		color[node] = black
	}

	for i := 0; i < g.n; i++ {
		if len(g.parents[i]) == 0 && color[i] == white {
			dfs(i)
		}
	}
	for i := 0; i < g.n; i++ {
		if color[i] == white {
			dfs(i)
		}
	}

	for _, e := range backEdges {
		g.removeEdge(e[0], e[1])
	}
	return len(backEdges)
}

func (g *rankGraph) assignRanks() []int {
	inDegree := make([]int, g.n)
	ranks := make([]int, g.n)
	queue := make([]int, 0, g.n)

	for i := 0; i < g.n; i++ {
		inDegree[i] = len(g.parents[i])
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.children[curr] {
			if r := ranks[curr] + 1; r > ranks[child] {
				ranks[child] = r
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return ranks
}

func (g *rankGraph) orderRanks(ranks []int) [][]int {
	maxRank := 0
	for _, r := range ranks {
		maxRank = max(maxRank, r)
	}
	orders := make([][]int, maxRank+1)
	for i, r := range ranks {
		orders[r] = append(orders[r], i)
	}

	pos := make([]float64, g.n)
	updatePos := func() {
		for _, order := range orders {
			for p, node := range order {
				pos[node] = float64(p)
			}
		}
	}
	updatePos()

	sweep := func(r int, neighbors [][]int) {
		order := orders[r]
		bary := make(map[int]float64, len(order))
		for _, node := range order {
			adj := neighbors[node]
			if len(adj) == 0 {
				bary[node] = pos[node]
				continue
			}
			sum := 0.0
			for _, a := range adj {
				sum += pos[a]
			}
			bary[node] = sum / float64(len(adj))
		}
		sort.SliceStable(order, func(i, j int) bool {
			return bary[order[i]] < bary[order[j]]
		})
		for p, node := range order {
			pos[node] = float64(p)
		}
	}

	for range orderingSweeps {
		for r := 1; r < len(orders); r++ {
			sweep(r, g.parents)
		}
		for r := len(orders) - 2; r >= 0; r-- {
			sweep(r, g.children)
		}
	}
	return orders
}

// coordinates converts rank orders into node centers.
func (g *rankGraph) coordinates(nodes []SizedNode, orders [][]int, cfg Config) map[string]Point {
	// thick is the extent along the rank axis, wide across it.
	thick := func(n SizedNode) float64 { return n.Height }
	wide := func(n SizedNode) float64 { return n.Width }
	if cfg.RankDir == LeftToRight {
		thick, wide = wide, thick
	}

	rankThick := make([]float64, len(orders))
	rankWide := make([]float64, len(orders))
	maxWide := 0.0
	for r, order := range orders {
		for p, idx := range order {
			rankThick[r] = max(rankThick[r], thick(nodes[idx]))
			rankWide[r] += wide(nodes[idx])
			if p > 0 {
				rankWide[r] += cfg.NodeSep
			}
		}
		maxWide = max(maxWide, rankWide[r])
	}

	rankMargin, crossMargin := cfg.MarginY, cfg.MarginX
	if cfg.RankDir == LeftToRight {
		rankMargin, crossMargin = cfg.MarginX, cfg.MarginY
	}

	centers := make(map[string]Point, len(nodes))
	rankOffset := rankMargin
	for r, order := range orders {
		along := rankOffset + rankThick[r]/2
		cross := crossMargin + (maxWide-rankWide[r])/2
		for _, idx := range order {
			w := wide(nodes[idx])
			c := cross + w/2
			if cfg.RankDir == LeftToRight {
				centers[nodes[idx].ID] = Point{X: along, Y: c}
			} else {
				centers[nodes[idx].ID] = Point{X: c, Y: along}
			}
			cross += w + cfg.NodeSep
		}
		rankOffset += rankThick[r] + cfg.RankSep
	}
	return centers
}
