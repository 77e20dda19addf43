package section

import (
	"testing"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

func font() elements.Font { return elements.NewFont("Arial", 11, 0, 0) }

func line(x0, y0, x1, y1 float64, text string) *elements.Line {
	f := font()
	return elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(x0, y0, x1, y1, 600, 800), f, text)}, [2]float64{1, 0})
}

func TestClusterBlocksGroupsAdjacentLines(t *testing.T) {
	lines := []*elements.Line{
		line(10, 10, 200, 20, "First line of a paragraph"),
		line(10, 22, 210, 32, "continues here"),
	}
	items := make([]elements.Element, len(lines))
	for i, l := range lines {
		items[i] = l
	}
	out := clusterBlocks(items, 8)
	if len(out) != 1 {
		t.Fatalf("expected lines to cluster into a single block, got %d elements", len(out))
	}
	tb, ok := out[0].(*elements.TextBlock)
	if !ok {
		t.Fatalf("expected a TextBlock, got %T", out[0])
	}
	if tb.LineCount() != 2 {
		t.Fatalf("expected 2 lines in the block, got %d", tb.LineCount())
	}
}

func TestClusterBlocksSplitsOnLargeGap(t *testing.T) {
	lines := []*elements.Line{
		line(10, 10, 200, 20, "Paragraph one"),
		line(10, 22, 210, 32, "still paragraph one"),
		line(10, 400, 210, 410, "Paragraph two, far below"),
	}
	items := make([]elements.Element, len(lines))
	for i, l := range lines {
		items[i] = l
	}
	out := clusterBlocks(items, 8)
	if len(out) != 2 {
		t.Fatalf("expected 2 blocks split by the large vertical gap, got %d", len(out))
	}
}

func TestClusterBlocksStartsNewBlockAtBulletLabel(t *testing.T) {
	lines := []*elements.Line{
		line(10, 10, 200, 20, "Intro paragraph"),
		line(10, 22, 210, 32, "(a) first bullet item"),
	}
	items := make([]elements.Element, len(lines))
	for i, l := range lines {
		items[i] = l
	}
	out := clusterBlocks(items, 8)
	if len(out) != 2 {
		t.Fatalf("expected the bullet line to start a new block, got %d blocks", len(out))
	}
}

func TestBuildSectionsAssignsLinesToDefaultSection(t *testing.T) {
	bound := geom.New(0, 0, 600, 800, 600, 800)
	lines := []*elements.Line{line(10, 10, 200, 20, "body text")}
	sections, _ := buildSections(bound, lines, nil, nil, 0.75)
	if len(sections) != 1 {
		t.Fatalf("expected a single default section, got %d", len(sections))
	}
	if !sections[0].Default {
		t.Fatalf("expected the only section to be the default one")
	}
	if len(sections[0].Items) != 1 {
		t.Fatalf("expected the line assigned to the default section")
	}
}

func TestBuildSectionsSplitsAtFullWidthDivider(t *testing.T) {
	bound := geom.New(0, 0, 600, 800, 600, 800)
	lines := []*elements.Line{
		line(10, 100, 200, 110, "above the divider"),
		line(10, 500, 200, 510, "below the divider"),
	}
	divider := elements.NewDrawing(geom.New(50, 300, 550, 302, 600, 800), elements.DrawingLine)
	drawings := map[elements.DrawingType][]*elements.Drawing{
		elements.DrawingLine: {divider},
	}
	sections, _ := buildSections(bound, lines, nil, drawings, 0.75)
	if len(sections) != 2 {
		t.Fatalf("expected the divider to split the page into 2 default sections, got %d", len(sections))
	}
	for _, s := range sections {
		if !s.Default {
			t.Fatalf("expected divider-cut sections to stay default")
		}
		if len(s.Items) != 1 {
			t.Fatalf("expected one line per band, got %d", len(s.Items))
		}
	}
}

func TestBuildSectionsShortDividerDoesNotSplit(t *testing.T) {
	bound := geom.New(0, 0, 600, 800, 600, 800)
	lines := []*elements.Line{line(10, 100, 200, 110, "body")}
	short := elements.NewDrawing(geom.New(50, 300, 250, 302, 600, 800), elements.DrawingLine)
	drawings := map[elements.DrawingType][]*elements.Drawing{
		elements.DrawingLine: {short},
	}
	sections, _ := buildSections(bound, lines, nil, drawings, 0.75)
	if len(sections) != 1 {
		t.Fatalf("expected a sub-full-width divider to leave the page whole, got %d sections", len(sections))
	}
}
