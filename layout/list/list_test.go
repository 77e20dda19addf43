package list

import (
	"testing"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

func textBlock(text string, x0, y0, x1, y1 float64) *elements.TextBlock {
	f := elements.NewFont("Arial", 11, 0, 0)
	l := elements.NewLine([]*elements.Span{elements.NewSpan(geom.New(x0, y0, x1, y1, 600, 800), f, text)}, [2]float64{1, 0})
	return elements.NewTextBlock([]*elements.Line{l})
}

func TestParseLabelRecognisesBullet(t *testing.T) {
	b := textBlock("• first item", 10, 10, 200, 20)
	label, stripped, ok := parseLabel(b)
	if !ok || label.kind != labelBullet {
		t.Fatalf("expected a recognised bullet label, got %+v ok=%v", label, ok)
	}
	if stripped.Text() != "first item" {
		t.Fatalf("expected label prefix stripped, got %q", stripped.Text())
	}
}

func TestParseLabelRecognisesEnumeratedNumber(t *testing.T) {
	b := textBlock("1. the first step", 10, 10, 200, 20)
	label, _, ok := parseLabel(b)
	if !ok || label.kind != labelNumber || label.value != 1 {
		t.Fatalf("expected numeric label 1, got %+v ok=%v", label, ok)
	}
}

func TestIsNextListIndexAdvancesIntegers(t *testing.T) {
	last := parsedLabel{kind: labelNumber, value: 1}
	next := parsedLabel{kind: labelNumber, value: 2}
	if !isNextListIndex(last, next) {
		t.Fatalf("expected 2 to follow 1")
	}
	notNext := parsedLabel{kind: labelNumber, value: 5}
	if isNextListIndex(last, notNext) {
		t.Fatalf("expected 5 to not immediately follow 1")
	}
}

func TestBuildListsFromRunGroupsBulletItems(t *testing.T) {
	items := []elements.Element{
		textBlock("• first item", 10, 10, 200, 20),
		textBlock("• second item", 10, 25, 200, 35),
	}
	out := buildListsFromRun(items)
	if len(out) != 1 {
		t.Fatalf("expected both bullets folded into one TextList, got %d elements", len(out))
	}
	tl, ok := out[0].(*elements.TextList)
	if !ok {
		t.Fatalf("expected a TextList, got %T", out[0])
	}
	if len(tl.Items) != 2 {
		t.Fatalf("expected 2 list items, got %d", len(tl.Items))
	}
}

func TestIsNextListIndexAdvancesRomanNumerals(t *testing.T) {
	last := parsedLabel{kind: labelLetter, text: "ii"}
	next := parsedLabel{kind: labelLetter, text: "iii"}
	if !isNextListIndex(last, next) {
		t.Fatalf("expected roman numeral iii to follow ii")
	}
	notNext := parsedLabel{kind: labelLetter, text: "v"}
	if isNextListIndex(last, notNext) {
		t.Fatalf("expected roman numeral v to not immediately follow ii")
	}
}

func TestIsNextListIndexAdvancesLetters(t *testing.T) {
	last := parsedLabel{kind: labelLetter, text: "a"}
	next := parsedLabel{kind: labelLetter, text: "b"}
	if !isNextListIndex(last, next) {
		t.Fatalf("expected letter b to follow a")
	}
}

func TestBuildListsFromRunJoinsUnlabelledBlockViaLookahead(t *testing.T) {
	items := []elements.Element{
		textBlock("(a) first item", 10, 10, 200, 20),
		textBlock("continuation of first item, unindented", 10, 25, 200, 35),
		textBlock("(b) second item", 10, 40, 200, 50),
	}
	out := buildListsFromRun(items)
	if len(out) != 1 {
		t.Fatalf("expected one TextList, got %d elements", len(out))
	}
	tl, ok := out[0].(*elements.TextList)
	if !ok {
		t.Fatalf("expected a TextList, got %T", out[0])
	}
	if len(tl.Items) != 2 {
		t.Fatalf("expected 2 list items, got %d", len(tl.Items))
	}
	if len(tl.Items[0].Items) != 2 {
		t.Fatalf("expected the unlabelled continuation folded into item 0 via lookahead, got %d blocks", len(tl.Items[0].Items))
	}
}

func TestBuildListsFromRunLeavesOrdinaryParagraphsAlone(t *testing.T) {
	items := []elements.Element{
		textBlock("Just a normal paragraph.", 10, 10, 200, 20),
	}
	out := buildListsFromRun(items)
	if len(out) != 1 {
		t.Fatalf("expected the paragraph untouched, got %d elements", len(out))
	}
	if _, ok := out[0].(*elements.TextBlock); !ok {
		t.Fatalf("expected a TextBlock passthrough, got %T", out[0])
	}
}

func TestBuildListsFromRunKeepsSingleBulletAsList(t *testing.T) {
	items := []elements.Element{
		textBlock("• lone bullet item", 10, 10, 200, 20),
	}
	out := buildListsFromRun(items)
	if len(out) != 1 {
		t.Fatalf("expected 1 element, got %d", len(out))
	}
	tl, ok := out[0].(*elements.TextList)
	if !ok {
		t.Fatalf("expected a lone bullet to stay a TextList, got %T", out[0])
	}
	if tl.Ordered {
		t.Fatal("expected the bullet list to be unordered")
	}
	if len(tl.Items) != 1 {
		t.Fatalf("expected 1 list item, got %d", len(tl.Items))
	}
}

func TestBuildListsFromRunDegeneratesSingleOrderedItem(t *testing.T) {
	items := []elements.Element{
		textBlock("1. a lone numbered line", 10, 10, 200, 20),
	}
	out := buildListsFromRun(items)
	if len(out) != 1 {
		t.Fatalf("expected 1 element, got %d", len(out))
	}
	if _, ok := out[0].(*elements.TextBlock); !ok {
		t.Fatalf("expected a one-item ordered list to degenerate to its block, got %T", out[0])
	}
}
