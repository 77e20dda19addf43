// Package heading implements the heading processor: it fits
// a document-wide body-font prior from the accumulated font histogram,
// classifies each TextBlock as a heading level or Paragraph/Emphasis/
// Small, then recurses into PageSections, flattening default and
// unbacked sections into their parent and emitting the rest as Asides.
package heading

import (
	"context"
	"sort"
	"strings"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
)

const maxDefaultFontSize = 20.0

// Processor implements layout.Processor for the heading stage.
type Processor struct{}

func New() *Processor { return &Processor{} }

func (p *Processor) Name() string { return "heading" }

func (p *Processor) Requires() (required, optional []layout.StateKey) {
	return []layout.StateKey{layout.KeyElements, layout.KeyMetadata}, nil
}

func (p *Processor) Produces() []layout.StateKey {
	return []layout.StateKey{layout.KeyElements}
}

func (p *Processor) Threadable() bool { return true }
func (p *Processor) Expensive() bool  { return false }

func (p *Processor) Process(ctx context.Context, bag *layout.StateBag) error {
	defaultSize := fitBodyFontPrior(bag.Metadata.FontStatistics)
	for _, page := range bag.SortedPages() {
		els := bag.Elements[page]
		blocks := collectBlocksInOrder(els)
		classifyBlocks(blocks, defaultSize)
		bag.Elements[page] = flattenSections(els)
	}
	return nil
}

// FitBodyFontPrior exposes the body-font prior fit for callers outside
// the pipeline (the CLI's cache layer reuses it to record a run's fitted
// size without re-deriving it from the raw histogram).
func FitBodyFontPrior(stats *layout.FontStatistics) float64 {
	return fitBodyFontPrior(stats)
}

// fitBodyFontPrior flattens the per-family histogram across families,
// converts sizes to integer tenths, and sets default_font_size to the
// modal size.
func fitBodyFontPrior(stats *layout.FontStatistics) float64 {
	if stats == nil {
		return 11
	}
	counts := map[int]int{}
	for _, fam := range stats.Families {
		for tenths, n := range fam.Sizes {
			counts[tenths] += n
		}
	}
	sizes := make([]int, 0, len(counts))
	for tenths := range counts {
		sizes = append(sizes, tenths)
	}
	sort.Ints(sizes)
	// Ties resolve toward the larger size so the prior is stable
	// run-to-run.
	best, bestCount := 110, -1
	for _, tenths := range sizes {
		if n := counts[tenths]; n >= bestCount {
			best, bestCount = tenths, n
		}
	}
	size := float64(best) / 10.0
	if size > maxDefaultFontSize {
		size = maxDefaultFontSize
	}
	if size <= 0 {
		size = 11
	}
	return size
}

// collectBlocksInOrder walks the page's element tree in document order,
// returning every TextBlock (recursing into PageSections and Asides).
func collectBlocksInOrder(els []elements.Element) []*elements.TextBlock {
	var out []*elements.TextBlock
	var walk func(elements.Element)
	walk = func(e elements.Element) {
		switch v := e.(type) {
		case *elements.TextBlock:
			out = append(out, v)
		case *elements.PageSection:
			for _, it := range v.Items {
				walk(it)
			}
		case *elements.Aside:
			for _, it := range v.Items {
				walk(it)
			}
		}
	}
	for _, e := range els {
		walk(e)
	}
	return out
}

// classifyBlocks assigns BlockType to every block, walking them in
// document order so the neighbour-distance factors see the blocks that
// actually precede and follow on the page.
func classifyBlocks(blocks []*elements.TextBlock, defaultSize float64) {
	for i, b := range blocks {
		var prev, next *elements.TextBlock
		if i > 0 {
			prev = blocks[i-1]
		}
		if i+1 < len(blocks) {
			next = blocks[i+1]
		}
		b.Type = classifyBlock(b, prev, next, defaultSize)
	}
}

func classifyBlock(b, prev, next *elements.TextBlock, defaultSize float64) elements.BlockType {
	text := strings.TrimSpace(b.Text())
	if text == "" || strings.Contains(text, "•") {
		return elements.Paragraph
	}

	modalSize := b.ModalFont().Size
	words, lines := b.WordCount(), b.LineCount()

	if modalSize < defaultSize+2 && (words > 8 || lines > 2) {
		return fallbackType(b, defaultSize)
	}
	if modalSize < defaultSize+10 && (words > 15 || lines > 3) {
		return fallbackType(b, defaultSize)
	}
	if words > 20 {
		return fallbackType(b, defaultSize)
	}

	allItalic := b.AllItalic()
	allBold := b.AllBold()
	allCaps := b.AllCaps()

	combinedWords := words
	if sameFamily(b, next) {
		combinedWords += next.WordCount()
	}
	if sameFamily(b, prev) {
		combinedWords += prev.WordCount()
	}
	if allItalic && !allBold && (modalSize < defaultSize+1 || combinedWords > 7) {
		return fallbackType(b, defaultSize)
	}

	distToPrev := blockDistance(prev, b)
	distToNext := blockDistance(b, next)
	isParagraphHeader := distToPrev > minF(5, distToNext+1)

	if isParagraphHeader {
		if allCaps && !(next != nil && next.ModalFont().Smallcaps) {
			return levelFor(modalSize, defaultSize)
		}
		if allBold && absF(lineAlign(b, next)) > 5 && absF(distToNext) < 4 && !(next != nil && next.AllBold()) {
			return levelFor(modalSize, defaultSize)
		}
		if allBold && modalSize > defaultSize+0.5 {
			return levelFor(modalSize, defaultSize)
		}
		if allBold && distToNext > 10 {
			return levelFor(modalSize, defaultSize)
		}
		if distToNext < 5 && prev != nil && next != nil && differentFamily(b, prev) && differentFamily(b, next) {
			return levelFor(modalSize, defaultSize)
		}
		if next != nil && modalSize > next.ModalFont().Size+0.5 && distToNext < 10 {
			return levelFor(modalSize, defaultSize)
		}
	}

	if modalSize > defaultSize+2 {
		return levelFor(modalSize, defaultSize)
	}
	if modalSize > defaultSize+0.5 && (allBold || allCaps || (next != nil && b.ModalFont().Colour != next.ModalFont().Colour)) {
		return levelFor(modalSize, defaultSize)
	}

	return fallbackType(b, defaultSize)
}

func fallbackType(b *elements.TextBlock, defaultSize float64) elements.BlockType {
	size := b.ModalFont().Size
	near := absF(size-defaultSize) < 0.5
	switch {
	case near && b.AllItalic():
		return elements.Emphasis
	case near:
		return elements.Paragraph
	case size < defaultSize:
		return elements.Small
	default:
		return elements.Paragraph
	}
}

// levelFor maps a heading block's modal size to H1..H6.
func levelFor(size, defaultSize float64) elements.BlockType {
	if size < defaultSize+0.5 {
		return elements.H6
	}
	for k := 1; k <= 4; k++ {
		threshold := defaultSize * (1.05 + 0.2*float64(k))
		if size < threshold {
			return levelFromRank(6 - k)
		}
	}
	return elements.H1
}

func levelFromRank(rank int) elements.BlockType {
	switch rank {
	case 2:
		return elements.H2
	case 3:
		return elements.H3
	case 4:
		return elements.H4
	case 5:
		return elements.H5
	default:
		return elements.H1
	}
}

// blockDistance is the signed vertical gap between a and b (b below a),
// deliberately unclamped so overlapping blocks read as negative; a nil
// neighbour yields a sentinel far larger than any real page gap.
func blockDistance(a, b *elements.TextBlock) float64 {
	if a == nil || b == nil {
		return 5000
	}
	return b.BBox.Y0 - a.BBox.Y1
}

// sameFamily reports whether other exists and shares b's font family; a
// nil neighbour never counts as "same family".
func sameFamily(b, other *elements.TextBlock) bool {
	if other == nil {
		return false
	}
	return b.ModalFont().Family == other.ModalFont().Family
}

func differentFamily(b, other *elements.TextBlock) bool {
	if other == nil {
		return false
	}
	return b.ModalFont().Family != other.ModalFont().Family
}

// lineAlign is the signed difference between next's right edge and b's
// right edge; zero when next is absent.
func lineAlign(b, next *elements.TextBlock) float64 {
	if next == nil {
		return 0
	}
	return next.BBox.X1 - b.BBox.X1
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// flattenSections recurses into every PageSection: default sections and
// sections with no backing drawing/image are flattened into their
// parent; others become Asides carrying their (now-classified) children.
func flattenSections(els []elements.Element) []elements.Element {
	var out []elements.Element
	for _, e := range els {
		out = append(out, flattenElement(e)...)
	}
	return out
}

func flattenElement(e elements.Element) []elements.Element {
	sec, ok := e.(*elements.PageSection)
	if !ok {
		return []elements.Element{e}
	}
	var flattenedItems []elements.Element
	for _, it := range sec.Items {
		flattenedItems = append(flattenedItems, flattenElement(it)...)
	}
	if sec.Default || !sec.HasBacking() {
		return flattenedItems
	}
	return []elements.Element{elements.NewAside(sec.BBox, flattenedItems)}
}

var _ layout.Processor = (*Processor)(nil)
