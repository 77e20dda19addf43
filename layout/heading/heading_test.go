package heading

import (
	"testing"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

func blockWithFont(text string, size float64, bold, italic, caps bool) *elements.TextBlock {
	name := "Arial"
	if bold {
		name += "-Bold"
	}
	if italic {
		name += "-Italic"
	}
	txt := text
	if caps {
		txt = text // caller passes already-uppercased text
	}
	f := elements.NewFont(name, size, 0, 0)
	l := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(0, 0, 100, 10, 600, 800), f, txt)}, [2]float64{1, 0})
	return elements.NewTextBlock([]*elements.Line{l})
}

func TestFitBodyFontPriorPicksModalSize(t *testing.T) {
	stats := layout.NewFontStatistics()
	for i := 0; i < 100; i++ {
		stats.Record(elements.NewFont("Arial", 11, 0, 0))
	}
	for i := 0; i < 5; i++ {
		stats.Record(elements.NewFont("Arial", 24, 0, 0))
	}
	got := fitBodyFontPrior(stats)
	if got != 11 {
		t.Fatalf("expected modal size 11, got %v", got)
	}
}

func TestClassifyBlockLargeBoldIsHeading(t *testing.T) {
	b := blockWithFont("SECTION TITLE", 18, true, false, true)
	got := classifyBlock(b, nil, nil, 11)
	if !got.IsHeading() {
		t.Fatalf("expected a large bold short block to classify as a heading, got %v", got)
	}
}

func TestClassifyBlockLongParagraphIsNotHeading(t *testing.T) {
	longText := ""
	for i := 0; i < 30; i++ {
		longText += "word "
	}
	b := blockWithFont(longText, 11, false, false, false)
	got := classifyBlock(b, nil, nil, 11)
	if got.IsHeading() {
		t.Fatalf("expected a long paragraph-sized block to not classify as a heading, got %v", got)
	}
}

func TestFlattenElementFlattensDefaultSection(t *testing.T) {
	sec := elements.NewPageSection(geom.New(0, 0, 600, 800, 600, 800), true)
	b := blockWithFont("Paragraph", 11, false, false, false)
	sec.Items = []elements.Element{b}
	out := flattenElement(sec)
	if len(out) != 1 {
		t.Fatalf("expected the default section to flatten to its single child, got %d", len(out))
	}
	if _, ok := out[0].(*elements.TextBlock); !ok {
		t.Fatalf("expected the flattened child to be the TextBlock, got %T", out[0])
	}
}

func TestFlattenElementKeepsBackedSectionAsAside(t *testing.T) {
	sec := elements.NewPageSection(geom.New(0, 0, 300, 200, 600, 800), false)
	sec.BackingDrawing = elements.NewDrawing(sec.BBox, elements.DrawingRect)
	b := blockWithFont("Sidebar", 11, false, false, false)
	sec.Items = []elements.Element{b}
	out := flattenElement(sec)
	if len(out) != 1 {
		t.Fatalf("expected one Aside, got %d elements", len(out))
	}
	if _, ok := out[0].(*elements.Aside); !ok {
		t.Fatalf("expected a backed non-default section to become an Aside, got %T", out[0])
	}
}

func TestLevelForLadder(t *testing.T) {
	cases := []struct {
		size float64
		want elements.BlockType
	}{
		{11.2, elements.H6},
		{12, elements.H5},
		{14, elements.H4},
		{16, elements.H3},
		{19, elements.H2},
		{24, elements.H1},
	}
	for _, c := range cases {
		if got := levelFor(c.size, 11); got != c.want {
			t.Errorf("levelFor(%v, 11) = %v, want %v", c.size, got, c.want)
		}
	}
}

func TestFitBodyFontPriorTieResolvesToLargerSize(t *testing.T) {
	stats := layout.NewFontStatistics()
	for i := 0; i < 10; i++ {
		stats.Record(elements.NewFont("Arial", 11, 0, 0))
		stats.Record(elements.NewFont("Arial", 12, 0, 0))
	}
	if got := fitBodyFontPrior(stats); got != 12 {
		t.Fatalf("expected the count tie to resolve to the larger size 12, got %v", got)
	}
}
