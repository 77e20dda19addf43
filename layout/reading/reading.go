// Package reading implements the reading-order processor: a
// two-phase column-forming-then-depth-first-traversal pass that orders
// every section's elements and folds inline images/tables into the flow.
package reading

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
	"github.com/bbiangul/goreason-layout/layout/graph"
)

const (
	columnMergeOverlap  = 0.5
	fullPageXOverlap    = 0.5
	columnXOverlapMin   = 0.1
	columnGapMax        = 30.0
	inlineOverlapCutoff = 0.3
)

// Processor implements layout.Processor for the reading-order stage.
type Processor struct{}

func New() *Processor { return &Processor{} }

func (p *Processor) Name() string { return "reading" }

func (p *Processor) Requires() (required, optional []layout.StateKey) {
	return []layout.StateKey{layout.KeyElements, layout.KeyPageBounds},
		[]layout.StateKey{layout.KeyTables, layout.KeyImageElements}
}

func (p *Processor) Produces() []layout.StateKey {
	return []layout.StateKey{layout.KeyElements}
}

func (p *Processor) Threadable() bool { return true }
func (p *Processor) Expensive() bool  { return false }

func (p *Processor) Process(ctx context.Context, bag *layout.StateBag) error {
	for _, page := range bag.SortedPages() {
		if _, ok := bag.PageBounds[page]; !ok {
			continue
		}
		top := bag.Elements[page]

		var defaults []*elements.PageSection
		var nonDefault []*elements.PageSection
		var other []elements.Element
		for _, el := range top {
			if sec, ok := el.(*elements.PageSection); ok {
				if sec.Default {
					defaults = append(defaults, sec)
				} else {
					nonDefault = append(nonDefault, sec)
				}
				continue
			}
			other = append(other, el)
		}

		// Merge content images and detected tables into the section that
		// geometrically holds them before any ordering runs; Phase A/B
		// then place them in the flow alongside the text blocks.
		allSections := append(append([]*elements.PageSection{}, nonDefault...), defaults...)
		if len(allSections) > 0 {
			present := presentIDs(top)
			for _, imgs := range bag.ImageElements[page] {
				for _, img := range imgs {
					if img.Type != elements.ImagePrimary && img.Type != elements.ImageGradient {
						continue
					}
					if present[img.ID()] {
						continue
					}
					host := containingSection(allSections, img.BBox)
					host.Items = append(host.Items, img)
				}
			}
			for _, t := range bag.Tables[page] {
				if present[t.ID()] {
					continue
				}
				host := containingSection(allSections, t.BBox)
				host.Items = append(host.Items, t)
			}
		}

		// Non-default sections order their own contents first, then join
		// their containing default section's flow as single elements.
		for _, sec := range nonDefault {
			sec.Items = orderSection(sec.BBox, sec.Items)
		}
		if len(defaults) > 0 {
			for _, sec := range nonDefault {
				host := containingDefault(defaults, sec.BBox)
				host.Items = append(host.Items, sec)
			}
			nonDefault = nil
		}
		for _, sec := range defaults {
			sec.Items = orderSection(sec.BBox, sec.Items)
		}

		sort.SliceStable(defaults, func(i, j int) bool { return defaults[i].BBox.Y0 < defaults[j].BBox.Y0 })

		var out []elements.Element
		out = append(out, other...)
		for _, sec := range nonDefault {
			out = append(out, sec)
		}
		for _, sec := range defaults {
			out = append(out, sec)
		}
		bag.Elements[page] = out
	}
	return nil
}

// presentIDs collects the ids of every element already reachable from
// the page's element tree, so a re-run never re-attaches an image or
// table that a previous pass already placed.
func presentIDs(els []elements.Element) map[uuid.UUID]bool {
	out := map[uuid.UUID]bool{}
	var walk func(e elements.Element)
	walk = func(e elements.Element) {
		out[e.ID()] = true
		for _, child := range elements.Children(e) {
			walk(child)
		}
	}
	for _, e := range els {
		walk(e)
	}
	return out
}

// containingSection picks the section with the greatest overlap against
// bbox, preferring non-default sections when sections tie (the slice is
// ordered non-default first), falling back to the first.
func containingSection(sections []*elements.PageSection, bbox geom.Bbox) *elements.PageSection {
	best := sections[0]
	bestOverlap := -1.0
	for _, s := range sections {
		if ov := s.BBox.Overlap(bbox, geom.NormSecond); ov > bestOverlap {
			best, bestOverlap = s, ov
		}
	}
	return best
}

// containingDefault picks the default section with the greatest overlap
// against bbox, falling back to the first.
func containingDefault(defaults []*elements.PageSection, bbox geom.Bbox) *elements.PageSection {
	return containingSection(defaults, bbox)
}

// orderSection runs Phase A (column forming) then Phase B (inter-column
// ordering) over one section's items, after separating out-of-line
// tables/images into page-occupying pseudo-sections.
func orderSection(bound geom.Bbox, items []elements.Element) []elements.Element {
	inline, outOfLine := partitionInlineVsOutOfLine(bound, items)

	columns := formColumns(bound, inline)
	for _, it := range outOfLine {
		g := elements.NewGroup(it.Box())
		g.Append(it)
		columns = append(columns, g)
	}
	runs := segmentRuns(columns)

	var ordered []elements.Element
	for _, run := range runs {
		ordered = append(ordered, orderRun(bound, run)...)
	}
	return ordered
}

// partitionInlineVsOutOfLine separates elements with small overlap
// against the rest of the section's content (enters Phase A directly)
// from large page-occupying images/tables (wrapped as single-element
// pseudo-sections passed straight to Phase B).
func partitionInlineVsOutOfLine(bound geom.Bbox, items []elements.Element) (inline, outOfLine []elements.Element) {
	for _, it := range items {
		isPageOccupying := false
		switch it.(type) {
		case *elements.Image, *elements.Table:
			isPageOccupying = it.Box().Overlap(bound, geom.NormSecond) > inlineOverlapCutoff
		}
		if isPageOccupying {
			outOfLine = append(outOfLine, it)
		} else {
			inline = append(inline, it)
		}
	}
	return inline, outOfLine
}

// formColumns implements Phase A: sort elements top-left, maintain open
// LayoutElementGroup columns, append per the join/stop rules, then merge
// overlapping columns.
func formColumns(bound geom.Bbox, items []elements.Element) []*elements.Group {
	sorted := append([]elements.Element{}, items...)
	sort.Slice(sorted, func(i, j int) bool {
		bi, bj := sorted[i].Box(), sorted[j].Box()
		if bi.Y0 != bj.Y0 {
			return bi.Y0 < bj.Y0
		}
		return bi.X0 < bj.X0
	})

	var columns []*elements.Group
	for _, el := range sorted {
		b := el.Box()
		appended := false
		for _, col := range columns {
			if joinsColumn(bound, col, b) {
				col.Append(el)
				appended = true
				break
			}
		}
		if !appended {
			g := elements.NewGroup(b)
			g.Append(el)
			columns = append(columns, g)
		}
	}
	return mergeColumns(columns)
}

func joinsColumn(bound geom.Bbox, col *elements.Group, b geom.Bbox) bool {
	colB := col.BBox
	vgap := b.Y0 - colB.Y1

	isFullPage := func(x geom.Bbox) bool { return x.XOverlap(bound, geom.NormSecond) > fullPageXOverlap }
	colFull, elFull := isFullPage(colB), isFullPage(b)
	if colFull != elFull {
		return false
	}

	colCentered := absF(colB.Center(false).X-bound.Center(false).X) < colB.Width(false)/2
	elCentered := absF(b.Center(false).X-bound.Center(false).X) < b.Width(false)/2
	leftAligned := absF(colB.X0-b.X0) < 3
	if colCentered != elCentered && !leftAligned {
		return false
	}

	if vgap < 0 && colB.Overlap(b, geom.NormSecond) >= 0.8 {
		return true
	}
	if vgap >= 0 && vgap < columnGapMax {
		colX0, colX1 := colB.X0, colB.X1
		colCenterX := (colX0 + colX1) / 2
		elCenterX := (b.X0 + b.X1) / 2
		overlapReq := columnXOverlapMin
		if colFull {
			overlapReq = 0.5
		}
		if colX0 < elCenterX && b.X0 < colCenterX && colB.XOverlap(b, geom.NormFirst) > overlapReq {
			return true
		}
	}
	return false
}

func mergeColumns(columns []*elements.Group) []*elements.Group {
	for {
		merged := false
		for i := 0; i < len(columns); i++ {
			for j := i + 1; j < len(columns); j++ {
				if columns[i].BBox.Overlap(columns[j].BBox, geom.NormMin) > columnMergeOverlap {
					for _, it := range columns[j].Items {
						columns[i].Append(it)
					}
					columns = append(columns[:j], columns[j+1:]...)
					merged = true
					break
				}
			}
			if merged {
				break
			}
		}
		if !merged {
			break
		}
	}
	return columns
}

// segmentRuns groups columns into runs by their full-page/columnar flag.
func segmentRuns(columns []*elements.Group) [][]*elements.Group {
	sort.Slice(columns, func(i, j int) bool { return columns[i].BBox.Y0 < columns[j].BBox.Y0 })
	var runs [][]*elements.Group
	var current []*elements.Group
	var currentFull bool
	for i, col := range columns {
		full := col.BBox.Width(true) > fullPageXOverlap
		if i == 0 || full == currentFull {
			current = append(current, col)
		} else {
			runs = append(runs, current)
			current = []*elements.Group{col}
		}
		currentFull = full
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

// orderRun performs the left-to-right depth-first traversal within one
// run of columns, then flattens each column's items in their stored
// order.
func orderRun(bound geom.Bbox, columns []*elements.Group) []elements.Element {
	els := make([]elements.Element, len(columns))
	for i, c := range columns {
		els[i] = c
	}
	g := graph.Build(bound, els)

	var order []int
	visited := make([]bool, len(columns)+1)
	var stack []int
	node := graph.Root
	for {
		if !visited[node] {
			visited[node] = true
			if node != graph.Root {
				order = append(order, node)
			}
		}
		next, hasNext := leftmostUnusedDown(g, node, visited)
		if hasNext {
			if shadowedByUnusedUp(g, next, visited) {
				if len(stack) == 0 {
					break
				}
				node = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				continue
			}
			stack = append(stack, node)
			node = next
			continue
		}
		if len(stack) == 0 {
			break
		}
		node = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
	}

	// Shadow-induced backtracking can drain the stack with columns still
	// unvisited; sweep them up in top-left order so no element is lost.
	for id := 1; id < len(visited); id++ {
		if !visited[id] {
			order = append(order, id)
		}
	}

	var out []elements.Element
	for _, id := range order {
		out = append(out, columns[id-1].Items...)
	}
	return out
}

func leftmostUnusedDown(g *graph.Graph, node int, visited []bool) (int, bool) {
	best, found := 0, false
	for _, e := range g.Nodes[node].Down {
		if !visited[e.Node] && (!found || g.Nodes[e.Node].BBox.X0 < g.Nodes[best].BBox.X0) {
			best, found = e.Node, true
		}
	}
	if found {
		return best, true
	}
	for _, e := range g.Nodes[node].Right {
		if !visited[e.Node] {
			return e.Node, true
		}
	}
	return 0, false
}

func shadowedByUnusedUp(g *graph.Graph, node int, visited []bool) bool {
	for _, e := range g.Nodes[node].Up {
		if !visited[e.Node] {
			return true
		}
	}
	return false
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

var _ layout.Processor = (*Processor)(nil)
