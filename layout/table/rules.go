// Package table implements the two table-detection processors: a
// geometric heuristic over the adjacency graph ("table-rules") and an
// optional ML-backed detector ("table-ml") wired to the tablemodel
// collaborator.
package table

import (
	"context"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
	"github.com/bbiangul/goreason-layout/layout/graph"
)

const (
	rowFontSizeSlack  = 0.5
	rowTextBallooning = 4.0
	rowTextMinChars   = 20
	headerYSlack      = 20.0
	columnHeightSlack = 20.0
	badLineLimit      = 0
)

// RulesProcessor finds inline tables missed by the ML detector using the
// shared adjacency-graph primitive, independently within each section.
type RulesProcessor struct{}

func NewRules() *RulesProcessor { return &RulesProcessor{} }

func (p *RulesProcessor) Name() string { return "table-rules" }

func (p *RulesProcessor) Requires() (required, optional []layout.StateKey) {
	return []layout.StateKey{layout.KeyElements, layout.KeyPageBounds}, nil
}

func (p *RulesProcessor) Produces() []layout.StateKey {
	return []layout.StateKey{layout.KeyTables, layout.KeyElements}
}

func (p *RulesProcessor) Threadable() bool { return true }
func (p *RulesProcessor) Expensive() bool  { return false }

func (p *RulesProcessor) Process(ctx context.Context, bag *layout.StateBag) error {
	for _, page := range bag.SortedPages() {
		bound, ok := bag.PageBounds[page]
		if !ok {
			continue
		}
		var tables []*elements.Table
		for _, el := range bag.Elements[page] {
			sec, ok := el.(*elements.PageSection)
			if !ok {
				continue
			}
			blocks := textBlocksOf(sec.Items)
			if len(blocks) < 2 {
				continue
			}
			els := make([]elements.Element, len(blocks))
			for i, b := range blocks {
				els[i] = b
			}
			g := graph.Build(bound, els)

			used := map[int]bool{}
			for seedIdx := range blocks {
				if used[seedIdx] {
					continue
				}
				t, members := tryBuildTable(g, blocks, seedIdx, bound)
				if t == nil {
					continue
				}
				sec.Items = removeBlocks(sec.Items, members)
				tables = append(tables, t)
				for _, m := range members {
					used[blockIndex(blocks, m)] = true
				}
			}
		}
		if len(tables) > 0 {
			bag.Tables[page] = append(bag.Tables[page], tables...)
		}
	}
	return nil
}

func textBlocksOf(items []elements.Element) []*elements.TextBlock {
	var out []*elements.TextBlock
	for _, it := range items {
		if tb, ok := it.(*elements.TextBlock); ok {
			out = append(out, tb)
		}
	}
	return out
}

// tryBuildTable attempts to grow a table candidate from blocks[seedIdx]
// (seed column down, header row right, remaining columns down), then
// assembles row/column boxes by occupancy gaps and binds the member
// blocks into cells.
func tryBuildTable(g *graph.Graph, blocks []*elements.TextBlock, seedIdx int, bound geom.Bbox) (*elements.Table, []*elements.TextBlock) {
	seed := blocks[seedIdx]
	seedNode := seedIdx + 1 // node 0 is the virtual root

	rightNeighbour, ok := nearestRight(g, seedNode)
	if !ok {
		return nil, nil
	}
	// The seed only counts when its right neighbour is row-aligned with
	// it, within 5pt vertically.
	if absF(blocks[rightNeighbour-1].BBox.Y0-seed.BBox.Y0) > 5 {
		return nil, nil
	}

	col0 := walkColumn(g, blocks, seedNode)
	if len(col0) < 2 {
		return nil, nil
	}

	headerRow := walkHeaderRow(g, blocks, seedNode, bound)
	if len(headerRow) < 2 {
		return nil, nil
	}

	columns := [][]*elements.TextBlock{col0}
	col0Height := col0[len(col0)-1].BBox.Y1 - col0[0].BBox.Y0
	for _, headerBlock := range headerRow[1:] {
		headerNode := blockIndex(blocks, headerBlock) + 1
		col := walkColumn(g, blocks, headerNode)
		if len(col) == 0 {
			continue
		}
		height := col[len(col)-1].BBox.Y1 - col[0].BBox.Y0
		if height > col0Height+columnHeightSlack {
			continue
		}
		columns = append(columns, col)
	}

	if len(columns) < 2 {
		return nil, nil
	}
	if len(columns) == 2 {
		w0 := columnWidth(columns[0])
		w1 := columnWidth(columns[1])
		if w0 > 0 && absF(w0-w1)/w0 < 0.1 {
			return nil, nil
		}
	}

	var members []*elements.TextBlock
	boxes := []geom.Bbox{}
	for _, col := range columns {
		for _, b := range col {
			members = append(members, b)
			boxes = append(boxes, b.BBox)
		}
	}
	candidateBBox := geom.Merge(boxes)

	rowBoxes, colBoxes := occupancyGrid(columns, candidateBBox)
	if rejectedByParagraphGaps(columns) {
		return nil, nil
	}

	t := elements.NewTable(candidateBBox, rowBoxes, colBoxes)
	badLines := bindCells(t, columns)
	if badLines > badLineLimit {
		return nil, nil
	}
	return t, members
}

func nearestRight(g *graph.Graph, node int) (int, bool) {
	for _, e := range g.Nodes[node].Right {
		return e.Node, true
	}
	return 0, false
}

// walkColumn greedily walks downward from seedNode building column 0
// while font size doesn't grow by >0.5, text doesn't balloon past 4x and
// 20 chars after the first row, and x1 doesn't cross the nearest right
// column's edge.
func walkColumn(g *graph.Graph, blocks []*elements.TextBlock, seedNode int) []*elements.TextBlock {
	var out []*elements.TextBlock
	node := seedNode
	firstLen := -1
	firstSize := 0.0
	rightEdge, hasRight := 0.0, false
	for _, e := range g.Nodes[seedNode].Right {
		rightEdge, hasRight = g.Nodes[e.Node].BBox.X0, true
		break
	}
	for node != graph.Root {
		b := blocks[node-1]
		size := b.ModalFont().Size
		if firstLen < 0 {
			firstLen = len(b.Text())
			firstSize = size
		} else {
			if size > firstSize+rowFontSizeSlack {
				break
			}
			if len(b.Text()) > firstLen*int(rowTextBallooning) && len(b.Text()) > rowTextMinChars {
				break
			}
			if hasRight && b.BBox.X1 > rightEdge {
				break
			}
		}
		out = append(out, b)
		next := 0
		found := false
		for _, e := range g.Nodes[node].Down {
			next, found = e.Node, true
			break
		}
		if !found {
			break
		}
		node = next
	}
	return out
}

// walkHeaderRow greedily walks rightward from seedNode building the
// header row: matched font size, y0 within headerYSlack of the seed, not
// crossing the x-midline when the seed started left of it.
func walkHeaderRow(g *graph.Graph, blocks []*elements.TextBlock, seedNode int, bound geom.Bbox) []*elements.TextBlock {
	seed := blocks[seedNode-1]
	out := []*elements.TextBlock{seed}
	midline := bound.X0 + bound.Width(false)/2
	seedLeftOfMid := seed.BBox.X0 < midline

	node := seedNode
	for {
		var next int
		found := false
		for _, e := range g.Nodes[node].Right {
			next, found = e.Node, true
			break
		}
		if !found {
			break
		}
		b := blocks[next-1]
		if absF(b.ModalFont().Size-seed.ModalFont().Size) > rowFontSizeSlack*2 {
			break
		}
		if absF(b.BBox.Y0-seed.BBox.Y0) > headerYSlack {
			break
		}
		if seedLeftOfMid && b.BBox.X0 > midline {
			break
		}
		out = append(out, b)
		node = next
	}
	return out
}

func columnWidth(col []*elements.TextBlock) float64 {
	if len(col) == 0 {
		return 0
	}
	boxes := boxesOf(col)
	return geom.Merge(boxes).Width(false)
}

func boxesOf(blocks []*elements.TextBlock) []geom.Bbox {
	boxes := make([]geom.Bbox, len(blocks))
	for i, b := range blocks {
		boxes[i] = b.BBox
	}
	return boxes
}

// occupancyGrid derives row and column separator boxes from the
// candidate's per-column block extents, approximating a per-pixel
// occupancy scan by using each column's block boundaries as
// the row/column bands directly (the blocks were already grown column by
// column, so their boundaries are the occupancy gaps).
func occupancyGrid(columns [][]*elements.TextBlock, bbox geom.Bbox) ([]elements.PartBox, []elements.PartBox) {
	rowCount := 0
	for _, col := range columns {
		if len(col) > rowCount {
			rowCount = len(col)
		}
	}
	var rowBoxes []elements.PartBox
	for r := 0; r < rowCount; r++ {
		y0, y1 := bbox.Y1, bbox.Y0
		found := false
		for _, col := range columns {
			if r < len(col) {
				found = true
				if col[r].BBox.Y0 < y0 {
					y0 = col[r].BBox.Y0
				}
				if col[r].BBox.Y1 > y1 {
					y1 = col[r].BBox.Y1
				}
			}
		}
		if !found {
			continue
		}
		part := elements.PartRow
		if r == 0 {
			part = elements.PartColumnHeader
		}
		rowBoxes = append(rowBoxes, elements.PartBox{Part: part, BBox: geom.New(bbox.X0, y0, bbox.X1, y1, bbox.PageWidth, bbox.PageHeight)})
	}

	var colBoxes []elements.PartBox
	for c, col := range columns {
		boxes := boxesOf(col)
		if len(boxes) == 0 {
			continue
		}
		cb := geom.Merge(boxes)
		part := elements.PartColumn
		if c == 0 {
			part = elements.PartRowHeader
		}
		colBoxes = append(colBoxes, elements.PartBox{Part: part, BBox: geom.New(cb.X0, bbox.Y0, cb.X1, bbox.Y1, bbox.PageWidth, bbox.PageHeight)})
	}
	return rowBoxes, colBoxes
}

// rejectedByParagraphGaps rejects a candidate whose first column produced
// more horizontal gaps (rows) than the rest of the candidate, which
// indicates ordinary paragraph text greedily grown into a column rather
// than a table. totalRows is derived from the other columns
// only: col0's own row count can never exceed a total that includes it.
func rejectedByParagraphGaps(columns [][]*elements.TextBlock) bool {
	if len(columns) == 0 {
		return false
	}
	col0 := columns[0]
	totalRows := 0
	for _, col := range columns[1:] {
		if len(col) > totalRows {
			totalRows = len(col)
		}
	}
	return totalRows > 0 && len(col0) > totalRows
}

// bindCells distributes each column's blocks into the table's cell grid
// by position, returning the count of blocks that could not be placed.
func bindCells(t *elements.Table, columns [][]*elements.TextBlock) int {
	bad := 0
	for c, col := range columns {
		if c >= t.NumCols() {
			bad += len(col)
			continue
		}
		for r, b := range col {
			if r >= t.NumRows() {
				bad++
				continue
			}
			t.Cells[r][c] = append(t.Cells[r][c], b)
		}
	}
	return bad
}

func removeBlocks(items []elements.Element, remove []*elements.TextBlock) []elements.Element {
	drop := map[*elements.TextBlock]bool{}
	for _, b := range remove {
		drop[b] = true
	}
	var out []elements.Element
	for _, it := range items {
		if tb, ok := it.(*elements.TextBlock); ok && drop[tb] {
			continue
		}
		out = append(out, it)
	}
	return out
}

func blockIndex(blocks []*elements.TextBlock, target *elements.TextBlock) int {
	for i, b := range blocks {
		if b == target {
			return i
		}
	}
	return -1
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

var _ layout.Processor = (*RulesProcessor)(nil)
