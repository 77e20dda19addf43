package reading

import (
	"context"
	"testing"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

func block(x0, y0, x1, y1 float64) *elements.TextBlock {
	f := elements.NewFont("Arial", 10, 0, 0)
	l := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(x0, y0, x1, y1, 600, 800), f, "x")}, [2]float64{1, 0})
	return elements.NewTextBlock([]*elements.Line{l})
}

func TestFormColumnsGroupsVerticallyStacked(t *testing.T) {
	bound := geom.New(0, 0, 600, 800, 600, 800)
	items := []elements.Element{
		block(10, 10, 200, 20),
		block(10, 25, 200, 35),
	}
	cols := formColumns(bound, items)
	if len(cols) != 1 {
		t.Fatalf("expected a single column for vertically stacked aligned blocks, got %d", len(cols))
	}
}

func TestFormColumnsSeparatesDistinctColumns(t *testing.T) {
	bound := geom.New(0, 0, 600, 800, 600, 800)
	items := []elements.Element{
		block(10, 10, 200, 100),
		block(400, 10, 590, 100),
	}
	cols := formColumns(bound, items)
	if len(cols) != 2 {
		t.Fatalf("expected 2 distinct side-by-side columns, got %d", len(cols))
	}
}

func TestOrderRunOrdersLeftToRight(t *testing.T) {
	bound := geom.New(0, 0, 600, 800, 600, 800)
	left := elements.NewGroup(geom.New(0, 0, 290, 800, 600, 800))
	leftBlock := block(10, 10, 280, 100)
	left.Append(leftBlock)
	right := elements.NewGroup(geom.New(310, 0, 600, 800, 600, 800))
	right.Append(block(320, 10, 590, 100))
	out := orderRun(bound, []*elements.Group{right, left})
	if len(out) != 2 {
		t.Fatalf("expected both columns' items in the output, got %d", len(out))
	}
	if out[0] != elements.Element(leftBlock) {
		t.Fatalf("expected the left column's item first, got %+v", out[0].Box())
	}
}

func TestProcessMergesImagesAndTablesIntoFlow(t *testing.T) {
	bag := layout.NewStateBag()
	const page = 1
	bound := geom.New(0, 0, 600, 800, 600, 800)
	bag.PageBounds[page] = bound

	sec := elements.NewPageSection(bound, true)
	sec.Items = []elements.Element{block(10, 10, 580, 60)}
	bag.Elements[page] = []elements.Element{sec}

	img := elements.NewImage(geom.New(50, 100, 550, 400, 600, 800), geom.New(50, 100, 550, 400, 600, 800), 0, elements.ImagePrimary)
	bag.ImageElements[page] = map[elements.ImageType][]*elements.Image{
		elements.ImagePrimary: {img},
	}
	tbl := elements.NewTable(geom.New(50, 450, 550, 700, 600, 800), nil, nil)
	bag.Tables[page] = []*elements.Table{tbl}

	if err := New().Process(context.Background(), bag); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	found := map[string]bool{}
	var walk func(e elements.Element)
	walk = func(e elements.Element) {
		switch e.(type) {
		case *elements.Image:
			found["image"] = true
		case *elements.Table:
			found["table"] = true
		}
		for _, c := range elements.Children(e) {
			walk(c)
		}
	}
	for _, e := range bag.Elements[page] {
		walk(e)
	}
	if !found["image"] || !found["table"] {
		t.Fatalf("expected the primary image and the table merged into the ordered flow, got %v", found)
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	bag := layout.NewStateBag()
	const page = 1
	bound := geom.New(0, 0, 600, 800, 600, 800)
	bag.PageBounds[page] = bound

	sec := elements.NewPageSection(bound, true)
	sec.Items = []elements.Element{block(10, 10, 280, 60), block(10, 70, 280, 120)}
	bag.Elements[page] = []elements.Element{sec}
	tbl := elements.NewTable(geom.New(50, 450, 550, 700, 600, 800), nil, nil)
	bag.Tables[page] = []*elements.Table{tbl}

	if err := New().Process(context.Background(), bag); err != nil {
		t.Fatalf("first Process: %v", err)
	}
	count := func() int {
		n := 0
		var walk func(e elements.Element)
		walk = func(e elements.Element) {
			n++
			for _, c := range elements.Children(e) {
				walk(c)
			}
		}
		for _, e := range bag.Elements[page] {
			walk(e)
		}
		return n
	}
	first := count()
	if err := New().Process(context.Background(), bag); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	if second := count(); second != first {
		t.Fatalf("expected re-running reading order to be a no-op (%d elements), got %d", first, second)
	}
}
