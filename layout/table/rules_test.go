package table

import (
	"testing"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

func blockAt(x0, y0, x1, y1 float64, text string) *elements.TextBlock {
	f := elements.NewFont("Arial", 10, 0, 0)
	line := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(x0, y0, x1, y1, 600, 800), f, text)}, [2]float64{1, 0})
	return elements.NewTextBlock([]*elements.Line{line})
}

func TestRejectedByParagraphGapsFlagsOrdinaryText(t *testing.T) {
	col0 := []*elements.TextBlock{blockAt(0, 0, 10, 10, "a"), blockAt(0, 20, 10, 30, "b"), blockAt(0, 40, 10, 50, "c")}
	shortOther := []*elements.TextBlock{blockAt(50, 0, 90, 10, "x"), blockAt(50, 20, 90, 30, "y")}
	longOther := make([]*elements.TextBlock, 5)
	for i := range longOther {
		longOther[i] = blockAt(50, float64(i*20), 90, float64(i*20+10), "x")
	}
	if !rejectedByParagraphGaps([][]*elements.TextBlock{col0, shortOther}) {
		t.Fatalf("expected a first column with more rows than the rest of the candidate to be rejected")
	}
	if rejectedByParagraphGaps([][]*elements.TextBlock{col0, longOther}) {
		t.Fatalf("expected a first column with fewer rows than the rest of the candidate to be accepted")
	}
}

func TestBindCellsCountsOutOfRangeAsBad(t *testing.T) {
	rowBoxes := []elements.PartBox{{Part: elements.PartRow, BBox: geom.New(0, 0, 100, 10, 600, 800)}}
	colBoxes := []elements.PartBox{
		{Part: elements.PartColumn, BBox: geom.New(0, 0, 50, 10, 600, 800)},
		{Part: elements.PartColumn, BBox: geom.New(50, 0, 100, 10, 600, 800)},
	}
	tbl := elements.NewTable(geom.New(0, 0, 100, 10, 600, 800), rowBoxes, colBoxes)
	columns := [][]*elements.TextBlock{
		{blockAt(0, 0, 40, 10, "a")},
		{blockAt(50, 0, 90, 10, "b"), blockAt(50, 20, 90, 30, "overflow")},
	}
	bad := bindCells(tbl, columns)
	if bad != 1 {
		t.Fatalf("expected 1 bad line from the overflowing row, got %d", bad)
	}
}
