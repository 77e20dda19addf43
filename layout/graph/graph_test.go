package graph

import (
	"testing"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

func rectEl(x0, y0, x1, y1 float64) elements.Element {
	return elements.NewDrawing(geom.New(x0, y0, x1, y1, 600, 800), elements.DrawingRect)
}

// TestDiagramAdjacency reproduces the canonical example from the adjacency
// graph's docstring:
//
//	[   a   ]    [   b   ]
//	[ c ]
//	[         d          ]
//
// giving (a,right,b), (a,down,c), (c,down,d), (b,down,d) but not (a,down,d).
func TestDiagramAdjacency(t *testing.T) {
	a := rectEl(0, 0, 200, 50)
	b := rectEl(300, 0, 500, 50)
	c := rectEl(0, 60, 100, 110)
	d := rectEl(0, 120, 500, 170)

	g := Build(geom.New(0, 0, 600, 800, 600, 800), []elements.Element{a, b, c, d})
	idA, idB, idC, idD := 1, 2, 3, 4

	if !hasEdge(g.Nodes[idA].Right, idB) {
		t.Errorf("expected a-right-b")
	}
	if !hasEdge(g.Nodes[idA].Down, idC) {
		t.Errorf("expected a-down-c")
	}
	if !hasEdge(g.Nodes[idC].Down, idD) {
		t.Errorf("expected c-down-d")
	}
	if !hasEdge(g.Nodes[idB].Down, idD) {
		t.Errorf("expected b-down-d")
	}
	if hasEdge(g.Nodes[idA].Down, idD) {
		t.Errorf("did not expect a-down-d (shadowed by c)")
	}
}

func hasEdge(edges []Edge, target int) bool {
	for _, e := range edges {
		if e.Node == target {
			return true
		}
	}
	return false
}

func TestRootLinksTopElements(t *testing.T) {
	a := rectEl(0, 0, 200, 50)
	g := Build(geom.New(0, 0, 600, 800, 600, 800), []elements.Element{a})
	if len(g.Nodes[1].Up) != 1 || g.Nodes[1].Up[0].Node != Root {
		t.Fatalf("expected node with no upward neighbour to link to root")
	}
}

func TestNodeHasAncestor(t *testing.T) {
	a := rectEl(0, 0, 200, 50)
	c := rectEl(0, 60, 100, 110)
	g := Build(geom.New(0, 0, 600, 800, 600, 800), []elements.Element{a, c})
	if !g.NodeHasAncestor(2, 1) {
		t.Fatalf("expected c to have a as an ancestor")
	}
	if g.NodeHasAncestor(1, 2) {
		t.Fatalf("did not expect a to have c as an ancestor")
	}
}
