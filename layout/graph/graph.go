// Package graph implements the adjacency-graph primitive shared by the
// margin, layout, table-rules and reading-order stages. Each
// node records its nearest neighbours in the four cardinal directions;
// adjacency means "no intervening element on the straight projection
// between opposing edges".
//
// The graph is built once per page and walked repeatedly by its
// consumers; only forward (down/right) edges are derived from geometry,
// with up/left mirrored from them.
package graph

import (
	"sort"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

// Edge pairs a neighbour node index with the gap distance to it.
type Edge struct {
	Node     int
	Distance float64
}

// Node wraps one element (or, for index 0, the virtual root) together
// with its adjacency lists, each sorted nearest-first.
type Node struct {
	Element elements.Element // nil for the root
	BBox    geom.Bbox
	Up      []Edge
	Down    []Edge
	Left    []Edge
	Right   []Edge
}

// Graph is the adjacency graph over a page (or section) bbox and a list
// of elements. Node 0 is always the virtual root above the page.
type Graph struct {
	PageBound geom.Bbox
	Nodes     []Node
}

const rootID = 0

// Build rasterises the elements into an id matrix and derives the four
// directional adjacency lists.
func Build(pageBound geom.Bbox, els []elements.Element) *Graph {
	g := &Graph{PageBound: pageBound}
	root := Node{BBox: geom.New(0, -2, pageBound.X1, -1, pageBound.X1, pageBound.Y1)}
	g.Nodes = append(g.Nodes, root)
	for _, e := range els {
		g.Nodes = append(g.Nodes, Node{Element: e, BBox: e.Box()})
	}

	w := int(pageBound.X1) + 1
	h := int(pageBound.Y1) + 1
	if w <= 0 || h <= 0 {
		return g
	}
	matrix := make([][]int, w)
	for i := range matrix {
		matrix[i] = make([]int, h)
	}
	clampW := func(v float64) int {
		iv := int(v)
		if iv < 0 {
			return 0
		}
		if iv > w {
			return w
		}
		return iv
	}
	clampH := func(v float64) int {
		iv := int(v)
		if iv < 0 {
			return 0
		}
		if iv > h {
			return h
		}
		return iv
	}

	for id := 1; id < len(g.Nodes); id++ {
		n := g.Nodes[id]
		x0, x1 := clampW(n.BBox.X0), clampW(n.BBox.X1)
		y0, y1 := clampH(n.BBox.Y0), clampH(n.BBox.Y1)
		for x := x0; x < x1; x++ {
			for y := y0; y < y1; y++ {
				matrix[x][y] = id
			}
		}
	}

	for id := 1; id < len(g.Nodes); id++ {
		n := &g.Nodes[id]
		n.Down = g.projectDirection(id, matrix, false)
		n.Right = g.projectDirection(id, matrix, true)
	}

	for id := 1; id < len(g.Nodes); id++ {
		n := &g.Nodes[id]
		if len(n.Up) == 0 {
			n.Up = append(n.Up, Edge{Node: rootID, Distance: n.BBox.Y0})
			g.Nodes[rootID].Down = append(g.Nodes[rootID].Down, Edge{Node: id, Distance: n.BBox.Y0})
		}
		for _, d := range n.Down {
			g.Nodes[d.Node].Up = append(g.Nodes[d.Node].Up, Edge{Node: id, Distance: d.Distance})
		}
		for _, r := range n.Right {
			g.Nodes[r.Node].Left = append(g.Nodes[r.Node].Left, Edge{Node: id, Distance: r.Distance})
		}
	}

	for i := range g.Nodes {
		sort.Slice(g.Nodes[i].Up, func(a, b int) bool { return g.Nodes[i].Up[a].Distance < g.Nodes[i].Up[b].Distance })
		sort.Slice(g.Nodes[i].Left, func(a, b int) bool { return g.Nodes[i].Left[a].Distance < g.Nodes[i].Left[b].Distance })
	}
	sort.Slice(g.Nodes[rootID].Down, func(a, b int) bool {
		return g.Nodes[rootID].Down[a].Distance < g.Nodes[rootID].Down[b].Distance
	})

	return g
}

// projectDirection finds the ordered list of nearest non-overlapping
// neighbours found by projecting node id's strip downward (transpose=
// false) or rightward (transpose=true) across the rasterised matrix.
func (g *Graph) projectDirection(id int, matrix [][]int, transpose bool) []Edge {
	n := g.Nodes[id]
	w := len(matrix)
	h := 0
	if w > 0 {
		h = len(matrix[0])
	}

	var overlapMin func(a, b geom.Bbox) float64
	var rejectOverlap func(candidate geom.Bbox) float64
	var distance func(a, b geom.Bbox) float64

	if !transpose {
		if int(n.BBox.Y1) >= int(g.PageBound.Y1)-1 {
			return nil
		}
		overlapMin = func(a, b geom.Bbox) float64 { return a.XOverlap(b, geom.NormMin) }
		rejectOverlap = func(c geom.Bbox) float64 { return n.BBox.YOverlap(c, geom.NormNone) }
		distance = func(a, b geom.Bbox) float64 {
			d := b.Y0 - a.Y1
			if d < 0 {
				return 0
			}
			return d
		}
	} else {
		if int(n.BBox.X1) >= int(g.PageBound.X1)-1 {
			return nil
		}
		overlapMin = func(a, b geom.Bbox) float64 { return a.YOverlap(b, geom.NormMin) }
		rejectOverlap = func(c geom.Bbox) float64 { return n.BBox.XOverlap(c, geom.NormNone) }
		distance = func(a, b geom.Bbox) float64 {
			d := b.X0 - a.X1
			if d < 0 {
				return 0
			}
			return d
		}
	}

	// Collect, for each row (or column, transposed), the first nonzero id
	// encountered scanning outward from the node's own strip.
	seen := map[int]bool{}
	var candidateIDs []int

	if !transpose {
		x0, x1 := clampInt(n.BBox.X0, w), clampInt(n.BBox.X1, w)
		y1 := clampInt(n.BBox.Y1, h)
		for x := x0; x < x1 && x < w; x++ {
			for y := y1; y < h; y++ {
				if v := matrix[x][y]; v != 0 {
					if !seen[v] {
						seen[v] = true
						candidateIDs = append(candidateIDs, v)
					}
					break
				}
			}
		}
	} else {
		y0, y1 := clampInt(n.BBox.Y0, h), clampInt(n.BBox.Y1, h)
		x1 := clampInt(n.BBox.X1, w)
		for y := y0; y < y1 && y < h; y++ {
			for x := x1; x < w; x++ {
				if v := matrix[x][y]; v != 0 {
					if !seen[v] {
						seen[v] = true
						candidateIDs = append(candidateIDs, v)
					}
					break
				}
			}
		}
	}

	type scored struct {
		id   int
		dist float64
	}
	var scoredCandidates []scored
	for _, cid := range candidateIDs {
		if cid == id {
			continue
		}
		cand := g.Nodes[cid].BBox
		if rejectOverlap(cand) > 5 {
			continue
		}
		if overlapMin(n.BBox, cand) <= 0.1 {
			continue
		}
		scoredCandidates = append(scoredCandidates, scored{cid, distance(n.BBox, cand)})
	}
	sort.Slice(scoredCandidates, func(a, b int) bool {
		ka := scoredCandidates[a].dist + 0.01*g.Nodes[scoredCandidates[a].id].BBox.Y0
		kb := scoredCandidates[b].dist + 0.01*g.Nodes[scoredCandidates[b].id].BBox.Y0
		return ka < kb
	})

	var out []Edge
	for _, s := range scoredCandidates {
		shadowed := false
		for _, kept := range out {
			if overlapMin(g.Nodes[s.id].BBox, g.Nodes[kept.Node].BBox) > 0.1 {
				shadowed = true
				break
			}
		}
		if !shadowed {
			out = append(out, Edge{Node: s.id, Distance: s.dist})
		}
	}
	return out
}

func clampInt(v float64, max int) int {
	iv := int(v)
	if iv < 0 {
		return 0
	}
	if iv > max {
		return max
	}
	return iv
}

// NodeHasAncestor reports whether target is reachable from node by
// following only up/left edges (i.e. target lies "before" node in
// reading order).
func (g *Graph) NodeHasAncestor(node, target int) bool {
	if node == target {
		return true
	}
	n := g.Nodes[node]
	for _, e := range n.Up {
		if g.NodeHasAncestor(e.Node, target) {
			return true
		}
	}
	for _, e := range n.Left {
		if g.NodeHasAncestor(e.Node, target) {
			return true
		}
	}
	return false
}

// Element returns the element backing a node id, or nil for the root.
func (g *Graph) Element(id int) elements.Element {
	return g.Nodes[id].Element
}

// Root is the virtual node above the page that every up-neighbour-less
// element links to.
const Root = rootID
