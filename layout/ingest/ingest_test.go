package ingest

import (
	"image/color"
	"testing"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

func page(w, h float64) geom.Bbox { return geom.New(0, 0, w, h, w, h) }

func TestClassifyImageInvisible(t *testing.T) {
	p := page(600, 800)
	bbox := geom.New(0, 0, 1, 1, 600, 800)
	if got := classifyImage(bbox, p, nil, color.RGBA{255, 255, 255, 255}); got != elements.ImageInvisible {
		t.Fatalf("got %v, want Invisible", got)
	}
}

func TestClassifyImageLineAspect(t *testing.T) {
	p := page(600, 800)
	// 1% wide, 75% tall: thin vertical line, centered (not on edge).
	bbox := geom.New(300, 100, 306, 700, 600, 800)
	if got := classifyImage(bbox, p, nil, color.RGBA{255, 255, 255, 255}); got != elements.ImageLine {
		t.Fatalf("got %v, want Line", got)
	}
}

func TestMergeRectsCombinesHighOverlap(t *testing.T) {
	a := elements.NewDrawing(geom.New(0, 0, 100, 100, 600, 800), elements.DrawingRect)
	b := elements.NewDrawing(geom.New(0, 0, 102, 100, 600, 800), elements.DrawingRect)
	out := mergeRects([]*elements.Drawing{a, b})
	if len(out) != 1 {
		t.Fatalf("expected merge to 1 rect, got %d", len(out))
	}
}

func TestMergeRectsKeepsDistinctRects(t *testing.T) {
	a := elements.NewDrawing(geom.New(0, 0, 10, 10, 600, 800), elements.DrawingRect)
	b := elements.NewDrawing(geom.New(500, 500, 510, 510, 600, 800), elements.DrawingRect)
	out := mergeRects([]*elements.Drawing{a, b})
	if len(out) != 2 {
		t.Fatalf("expected 2 distinct rects, got %d", len(out))
	}
}

func TestCollapseSingleSpacesPreservesDoubles(t *testing.T) {
	got := collapseSingleSpaces("T H I S  I S")
	want := "THIS IS"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRemoveDuplicateLinesKeepsLonger(t *testing.T) {
	f := elements.NewFont("Arial", 11, 0, 0)
	short := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(0, 0, 50, 10, 600, 800), f, "Intro")}, [2]float64{1, 0})
	long := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(0, 0, 100, 10, 600, 800), f, "Introduction")}, [2]float64{1, 0})
	out := removeDuplicateLines([]*elements.Line{short, long})
	if len(out) != 1 || out[0].Text() != "Introduction" {
		t.Fatalf("expected only the longer duplicate line to survive, got %+v", out)
	}
}

func TestMergeBareBulletLabelsFoldsIntoNeighbour(t *testing.T) {
	f := elements.NewFont("Arial", 11, 0, 0)
	label := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(10, 100, 18, 110, 600, 800), f, "a)")}, [2]float64{1, 0})
	body := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(25, 100, 200, 110, 600, 800), f, "First item")}, [2]float64{1, 0})
	out := mergeBareBulletLabels([]*elements.Line{label, body})
	if len(out) != 1 {
		t.Fatalf("expected bare label folded away, got %d lines", len(out))
	}
	if out[0].Text() != "a)First item" {
		t.Fatalf("unexpected merged text: %q", out[0].Text())
	}
}

func TestKmeansDominantReturnsMajorityColour(t *testing.T) {
	pix := make([]byte, 0, 400)
	for i := 0; i < 90; i++ {
		pix = append(pix, 255, 255, 255, 255)
	}
	for i := 0; i < 10; i++ {
		pix = append(pix, 0, 0, 0, 255)
	}
	got := kmeansDominant(pix, 2)
	if got.R < 200 {
		t.Fatalf("expected majority-white centroid, got %+v", got)
	}
}

func TestMergeBulletDrawingsFoldsIntoLine(t *testing.T) {
	f := elements.NewFont("Arial", 11, 0, 0)
	target := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(20, 99, 300, 112, 600, 800), f, "List item text")}, [2]float64{1, 0})
	bullet := elements.NewDrawing(geom.New(10, 100, 14, 104, 600, 800), elements.DrawingBullet)
	unmatched := mergeBulletDrawings([]*elements.Line{target}, []*elements.Drawing{bullet})
	if len(unmatched) != 0 {
		t.Fatalf("expected the bullet consumed by the adjacent line, got %d unmatched", len(unmatched))
	}
	if got := target.Spans[0].Text; got != "• List item text" {
		t.Fatalf("expected the line prefixed with a bullet glyph, got %q", got)
	}
}
