package table

import (
	"context"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
	"github.com/bbiangul/goreason-layout/layout/tablemodel"
)

// The penalties score lines that fall inside a detected table but fit
// no cell; snapInset is the gap left when adjacent row/column edges are
// snapped to abut.
const (
	mlBadLinePenalty        = 10
	mlBadLinePenaltyShallow = 1
	mlBadLineRejectScore    = 11
	snapInset               = 1.0
)

// MLProcessor runs the optional ONNX-backed table-detection/structure
// model. It is expensive to initialise and must run single-process:
// the CLI builds one MLProcessor per run, and since it is not
// threadable the driver calls that instance once over the whole bag.
type MLProcessor struct {
	Detector           tablemodel.Detector
	DetectThreshold    float64
	StructureThreshold float64
}

// NewML builds the ML table processor over an already-initialised
// detector (a NoopDetector when no model path was configured).
// Thresholds default from layout.DefaultConfig; the CLI sets them from
// its Config.Thresholds.
func NewML(detector tablemodel.Detector) *MLProcessor {
	th := layout.DefaultConfig().Thresholds
	return &MLProcessor{
		Detector:           detector,
		DetectThreshold:    th.TableDetectionThreshold,
		StructureThreshold: th.TableStructureThreshold,
	}
}

func (p *MLProcessor) Name() string { return "table-ml" }

func (p *MLProcessor) Requires() (required, optional []layout.StateKey) {
	return []layout.StateKey{layout.KeyPageImages, layout.KeyPageBounds}, []layout.StateKey{layout.KeyTextElements}
}

func (p *MLProcessor) Produces() []layout.StateKey {
	return []layout.StateKey{layout.KeyTables, layout.KeyTextElements}
}

// Threadable is false: the model must run single-process.
func (p *MLProcessor) Threadable() bool { return false }

// Expensive is true: model init is costly, so the CLI builds a single
// MLProcessor for the run rather than one per page.
func (p *MLProcessor) Expensive() bool { return true }

func (p *MLProcessor) Process(ctx context.Context, bag *layout.StateBag) error {
	if avail, ok := p.Detector.(tablemodel.Available); ok && !avail.Available() {
		return nil
	}
	for _, page := range bag.SortedPages() {
		bound, ok := bag.PageBounds[page]
		if !ok {
			continue
		}
		raw := bag.PageImages[page]
		if raw == nil {
			continue
		}
		w, h := int(bound.PageWidth), int(bound.PageHeight)

		detections, err := p.Detector.Detect(ctx, raw, w, h, p.DetectThreshold)
		if err != nil || len(detections) == 0 {
			continue
		}
		for _, det := range detections {
			structure, err := p.Detector.Recognize(ctx, raw, w, h, det.BBox, p.StructureThreshold)
			if err != nil {
				continue
			}
			t := assembleTable(det.BBox, structure, bound)
			badScore := bindTextToTable(t, bag.TextElements[page])
			if badScore >= mlBadLineRejectScore {
				continue
			}
			pruneEmptyRowsCols(t)
			bag.Tables[page] = append(bag.Tables[page], t)
			bag.TextElements[page] = removeLines(bag.TextElements[page], t)
		}
	}
	return nil
}

// assembleTable builds row/column boxes from the structure recognition
// pass, snapping adjacent trailing/leading edges to abut.
func assembleTable(tableBBox geom.Bbox, structure tablemodel.Structure, bound geom.Bbox) *elements.Table {
	rowYs := uniqueRowEdges(structure.Cells)
	colXs := uniqueColEdges(structure.Cells)

	var rowBoxes []elements.PartBox
	for i := 0; i+1 < len(rowYs); i++ {
		y0, y1 := rowYs[i], rowYs[i+1]-snapInset
		part := elements.PartRow
		if i == 0 {
			part = elements.PartColumnHeader
		}
		rowBoxes = append(rowBoxes, elements.PartBox{Part: part, BBox: geom.New(tableBBox.X0, y0, tableBBox.X1, y1, bound.PageWidth, bound.PageHeight)})
	}
	var colBoxes []elements.PartBox
	for i := 0; i+1 < len(colXs); i++ {
		x0, x1 := colXs[i], colXs[i+1]-snapInset
		part := elements.PartColumn
		if i == 0 {
			part = elements.PartRowHeader
		}
		colBoxes = append(colBoxes, elements.PartBox{Part: part, BBox: geom.New(x0, tableBBox.Y0, x1, tableBBox.Y1, bound.PageWidth, bound.PageHeight)})
	}
	return elements.NewTable(tableBBox, rowBoxes, colBoxes)
}

func uniqueRowEdges(cells []tablemodel.Cell) []float64 {
	edgeSet := map[int]float64{}
	for _, c := range cells {
		edgeSet[c.RowStart] = c.BBox.Y0
		edgeSet[c.RowEnd+1] = c.BBox.Y1
	}
	return sortedValues(edgeSet)
}

func uniqueColEdges(cells []tablemodel.Cell) []float64 {
	edgeSet := map[int]float64{}
	for _, c := range cells {
		edgeSet[c.ColStart] = c.BBox.X0
		edgeSet[c.ColEnd+1] = c.BBox.X1
	}
	return sortedValues(edgeSet)
}

func sortedValues(m map[int]float64) []float64 {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// bindTextToTable distributes lines fully inside the table into cells by
// best x-overlap with a column band and y-overlap with a row band,
// scoring deep-interior mis-binds at mlBadLinePenalty and shallow ones at
// mlBadLinePenaltyShallow.
func bindTextToTable(t *elements.Table, lines []*elements.Line) int {
	score := 0
	for _, l := range lines {
		if l.BBox.Overlap(t.BBox, geom.NormFirst) < 0.95 {
			continue
		}
		row := bestRow(t, l.BBox)
		col := bestCol(t, l.BBox)
		if row < 0 || col < 0 {
			depth := l.BBox.Overlap(t.BBox, geom.NormFirst)
			if depth > 0.5 {
				score += mlBadLinePenalty
			} else {
				score += mlBadLinePenaltyShallow
			}
			continue
		}
		t.Cells[row][col] = append(t.Cells[row][col], l)
	}
	return score
}

func bestRow(t *elements.Table, bbox geom.Bbox) int {
	best, bestOverlap := -1, 0.0
	for i, rb := range t.RowBoxes {
		if ov := bbox.YOverlap(rb.BBox, geom.NormFirst); ov > bestOverlap {
			best, bestOverlap = i, ov
		}
	}
	if bestOverlap <= 0 {
		return -1
	}
	return best
}

func bestCol(t *elements.Table, bbox geom.Bbox) int {
	best, bestOverlap := -1, 0.0
	for i, cb := range t.ColBoxes {
		if ov := bbox.XOverlap(cb.BBox, geom.NormFirst); ov > bestOverlap {
			best, bestOverlap = i, ov
		}
	}
	if bestOverlap <= 0 {
		return -1
	}
	return best
}

func pruneEmptyRowsCols(t *elements.Table) {
	var keepRows []int
	for r, row := range t.Cells {
		nonEmpty := false
		for _, cell := range row {
			if len(cell) > 0 {
				nonEmpty = true
				break
			}
		}
		if nonEmpty {
			keepRows = append(keepRows, r)
		}
	}
	var keepCols []int
	if len(t.Cells) > 0 {
		for c := range t.Cells[0] {
			nonEmpty := false
			for _, row := range t.Cells {
				if c < len(row) && len(row[c]) > 0 {
					nonEmpty = true
					break
				}
			}
			if nonEmpty {
				keepCols = append(keepCols, c)
			}
		}
	}
	newCells := make([][][]elements.Element, len(keepRows))
	var newRowBoxes []elements.PartBox
	for i, r := range keepRows {
		newRowBoxes = append(newRowBoxes, t.RowBoxes[r])
		newCells[i] = make([][]elements.Element, len(keepCols))
		for j, c := range keepCols {
			newCells[i][j] = t.Cells[r][c]
		}
	}
	var newColBoxes []elements.PartBox
	for _, c := range keepCols {
		newColBoxes = append(newColBoxes, t.ColBoxes[c])
	}
	t.Cells = newCells
	t.RowBoxes = newRowBoxes
	t.ColBoxes = newColBoxes
}

func removeLines(lines []*elements.Line, t *elements.Table) []*elements.Line {
	bound := map[*elements.Line]bool{}
	for _, row := range t.Cells {
		for _, cell := range row {
			for _, el := range cell {
				if l, ok := el.(*elements.Line); ok {
					bound[l] = true
				}
			}
		}
	}
	var out []*elements.Line
	for _, l := range lines {
		if !bound[l] {
			out = append(out, l)
		}
	}
	return out
}

var _ layout.Processor = (*MLProcessor)(nil)
