package hierarchy

import (
	"testing"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

func heading(text string, typ elements.BlockType) *elements.TextBlock {
	f := elements.NewFont("Arial", 18, 0, 0)
	l := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(0, 0, 200, 20, 600, 800), f, text)}, [2]float64{1, 0})
	tb := elements.NewTextBlock([]*elements.Line{l})
	tb.Type = typ
	return tb
}

func TestBuildHierarchyCollectsHeadingsInOrder(t *testing.T) {
	para := heading("Body text", elements.Paragraph)
	h1 := heading("Introduction", elements.H1)
	h2 := heading("Background", elements.H2)
	out := buildHierarchy(1, []elements.Element{h1, para, h2})
	if len(out) != 2 {
		t.Fatalf("expected 2 heading entries, got %d", len(out))
	}
	if out[0].Text != "Introduction" || out[0].Level != "h1" {
		t.Fatalf("unexpected first entry: %+v", out[0])
	}
	if out[1].Text != "Background" || out[1].Level != "h2" {
		t.Fatalf("unexpected second entry: %+v", out[1])
	}
}

func TestBuildHierarchyRecursesIntoAsides(t *testing.T) {
	h := heading("Sidebar Heading", elements.H3)
	aside := elements.NewAside(geom.New(0, 0, 100, 100, 600, 800), []elements.Element{h})
	out := buildHierarchy(1, []elements.Element{aside})
	if len(out) != 1 || out[0].Text != "Sidebar Heading" {
		t.Fatalf("expected the Aside's heading to surface, got %+v", out)
	}
}
