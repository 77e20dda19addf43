package section

import (
	"regexp"
	"sort"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

// listLabelPrefix recognises a line opening with a bullet or enumeration
// label, used by the block-boundary test and shared in shape
// with the list processor's own label regex.
var listLabelPrefix = regexp.MustCompile(`^(?:•|\(?[a-zA-Z]\)\.?|\(?[0-9]+\)\.?|[0-9]+\.)\s`)

const (
	minOverlapToJoin  = 0.08
	fontSizeTolerance = 0.25
	fuzzyGapThreshold = 5.0
	blockMergeOverlap = 0.5
)

type openBlock struct {
	lines []*elements.Line
	bbox  geom.Bbox
	gap   float64
	x0    float64
}

// clusterBlocks sorts a section's lines top-to-bottom/left-to-right
// and greedily clusters them into TextBlocks. gapInitial
// seeds each new block's vertical-gap threshold until the block's own first
// two lines adapt it. Non-Line elements already present in items (inline
// images/drawings assigned to the section) pass through untouched.
func clusterBlocks(items []elements.Element, gapInitial float64) []elements.Element {
	var lines []*elements.Line
	var passthrough []elements.Element
	for _, it := range items {
		if l, ok := it.(*elements.Line); ok {
			lines = append(lines, l)
		} else {
			passthrough = append(passthrough, it)
		}
	}
	if len(lines) == 0 {
		return passthrough
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].BBox.Y0 != lines[j].BBox.Y0 {
			return lines[i].BBox.Y0 < lines[j].BBox.Y0
		}
		return lines[i].BBox.X0 < lines[j].BBox.X0
	})

	var open []*openBlock
	var closed []*openBlock

	for _, l := range lines {
		appended := false
		for _, b := range open {
			if tryAppend(b, l) {
				appended = true
				break
			}
		}
		if !appended {
			nb := &openBlock{lines: []*elements.Line{l}, bbox: l.BBox, gap: gapInitial, x0: l.BBox.X0}
			open = append(open, nb)
		}
		// Close blocks whose bottom lies more than four gap thresholds
		// above the current line: lines arrive sorted by y0, so every
		// later line lies at least as far below them.
		var stillOpen []*openBlock
		for _, b := range open {
			if l.BBox.Y0-b.bbox.Y1 > b.gap*4 {
				closed = append(closed, b)
				continue
			}
			stillOpen = append(stillOpen, b)
		}
		open = stillOpen
	}
	closed = append(closed, open...)

	closed = mergeOverlappingBlocks(closed)
	closed = splitOnMarginTransitions(closed)

	out := append([]elements.Element{}, passthrough...)
	for _, b := range closed {
		out = append(out, elements.NewTextBlock(b.lines))
	}
	return out
}

// tryAppend tests line l against open block b's join conditions and, if
// satisfied, appends l to b and updates its adapted gap threshold.
func tryAppend(b *openBlock, l *elements.Line) bool {
	overlap := l.BBox.XOverlap(b.bbox, geom.NormFirst)
	vgap := l.BBox.Y0 - b.bbox.Y1
	if vgap < 0 {
		vgap = 0
	}

	containment := l.BBox.Overlap(b.bbox, geom.NormFirst)
	isSingleTallChar := len([]rune(l.Text())) == 1 && l.DominantFont().Size > b.lines[0].DominantFont().Size*1.5

	fontOK := fontMatches(b, l, vgap)
	startsWithLabel := listLabelPrefix.MatchString(l.Text())
	isSuperscript := len([]rune(l.Text())) < 3 && l.DominantFont().Size < 7

	qualifies := overlap >= minOverlapToJoin && vgap < b.gap && fontOK && !startsWithLabel && !isSuperscript
	qualifiesByContainment := overlap < minOverlapToJoin && containment > 0.9

	if !qualifies && !qualifiesByContainment && !isSingleTallChar {
		return false
	}
	if startsWithLabel || (!fontOK && !isSingleTallChar) {
		return false
	}

	if len(b.lines) == 1 {
		b.gap = maxF(l.BBox.Y0-b.lines[0].BBox.Y1+1, 3)
	}
	b.lines = append(b.lines, l)
	b.bbox = geom.Merge([]geom.Bbox{b.bbox, l.BBox})
	return true
}

func fontMatches(b *openBlock, l *elements.Line, vgap float64) bool {
	ref := b.lines[len(b.lines)-1].DominantFont()
	cand := l.DominantFont()
	if !ref.SameFamily(cand, fontSizeTolerance) {
		return false
	}
	if vgap < fuzzyGapThreshold {
		// Fuzzy end-alignment substitutes for a strict bold/italic match
		// when the lines sit close together.
		endAligned := absF(l.BBox.X1-b.bbox.X1) < 3
		return endAligned || (ref.Bold == cand.Bold && ref.Italic == cand.Italic)
	}
	return ref.Bold == cand.Bold && ref.Italic == cand.Italic
}

func mergeOverlappingBlocks(blocks []*openBlock) []*openBlock {
	for {
		merged := false
		for i := 0; i < len(blocks); i++ {
			for j := i + 1; j < len(blocks); j++ {
				if blocks[i].bbox.Overlap(blocks[j].bbox, geom.NormMin) >= blockMergeOverlap {
					blocks[i].lines = append(blocks[i].lines, blocks[j].lines...)
					blocks[i].bbox = geom.Merge([]geom.Bbox{blocks[i].bbox, blocks[j].bbox})
					blocks = append(blocks[:j], blocks[j+1:]...)
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
	return blocks
}

// splitOnMarginTransitions splits a block into two at the point where
// its lines realign back to the block's original left margin after a
// run of differently-indented lines.
func splitOnMarginTransitions(blocks []*openBlock) []*openBlock {
	var out []*openBlock
	for _, b := range blocks {
		if len(b.lines) < 3 {
			out = append(out, b)
			continue
		}
		splitAt := -1
		for i := 2; i < len(b.lines); i++ {
			indented := absF(b.lines[i-1].BBox.X0-b.x0) > 3
			realigned := absF(b.lines[i].BBox.X0-b.x0) < 1
			if indented && realigned {
				splitAt = i
				break
			}
		}
		if splitAt < 0 {
			out = append(out, b)
			continue
		}
		first := &openBlock{lines: b.lines[:splitAt], x0: b.x0}
		second := &openBlock{lines: b.lines[splitAt:], x0: b.lines[splitAt].BBox.X0}
		first.bbox = geom.Merge(boxesOf(first.lines))
		second.bbox = geom.Merge(boxesOf(second.lines))
		out = append(out, first, second)
	}
	return out
}

func boxesOf(lines []*elements.Line) []geom.Bbox {
	boxes := make([]geom.Bbox, len(lines))
	for i, l := range lines {
		boxes[i] = l.BBox
	}
	return boxes
}

func maxF(a, b float64) float64 {
	if a > b {
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
