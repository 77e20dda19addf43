// Package list implements the list processor: it walks each
// section's ordered blocks, detects bullet and enumerated-list label
// runs, and builds TextList/TextListItem nodes.
package list

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
)

// labelPattern matches a block's leading list-label token.
// Capture groups, in order: bullet, lowercase letter run (a single letter
// or a Roman numeral such as "ii"/"iv"), numeric-in-parens,
// bare-numeric-with-dot.
var labelPattern = regexp.MustCompile(`^(?:(•)|\(?([a-z]+)\)\.?|\(?([0-9]+)\)\.?|([0-9]+)\.)`)

const (
	alignOffsetMin = 5.0
	alignOffsetMax = 30.0
	alignYTolerance = 2.0
)

// Processor implements layout.Processor for the list-detection stage.
type Processor struct{}

func New() *Processor { return &Processor{} }

func (p *Processor) Name() string { return "list" }

func (p *Processor) Requires() (required, optional []layout.StateKey) {
	return []layout.StateKey{layout.KeyElements}, nil
}

func (p *Processor) Produces() []layout.StateKey {
	return []layout.StateKey{layout.KeyElements}
}

func (p *Processor) Threadable() bool { return true }
func (p *Processor) Expensive() bool  { return false }

func (p *Processor) Process(ctx context.Context, bag *layout.StateBag) error {
	for _, page := range bag.SortedPages() {
		bag.Elements[page] = buildListsRecursive(bag.Elements[page])
	}
	return nil
}

func buildListsRecursive(items []elements.Element) []elements.Element {
	for _, it := range items {
		switch v := it.(type) {
		case *elements.PageSection:
			v.Items = buildListsFromRun(buildListsRecursive(v.Items))
		case *elements.Aside:
			v.Items = buildListsFromRun(buildListsRecursive(v.Items))
		}
	}
	return buildListsFromRun(items)
}

type labelKind int

const (
	labelNone labelKind = iota
	labelBullet
	labelLetter
	labelNumber
)

type parsedLabel struct {
	kind  labelKind
	text  string
	value int // for numeric/letter labels
}

// buildListsFromRun walks one ordered run of elements, opening and
// closing TextList accumulations by the successor and alignment rules.
func buildListsFromRun(items []elements.Element) []elements.Element {
	var out []elements.Element
	var openItems []*elements.TextListItem
	var openOrdered bool
	var lastLabel parsedLabel
	var lastBlock *elements.TextBlock

	emit := func() {
		if len(openItems) == 0 {
			return
		}
		// A one-item enumeration is just a numbered paragraph; a lone
		// bullet is still a list.
		if openOrdered && len(openItems) == 1 {
			out = append(out, elementsOf(openItems[0])...)
		} else {
			out = append(out, elements.NewTextList(openOrdered, openItems))
		}
		openItems = nil
		lastBlock = nil
	}

	for i, it := range items {
		tb, ok := it.(*elements.TextBlock)
		if !ok {
			emit()
			out = append(out, it)
			continue
		}

		label, stripped, hasLabel := parseLabel(tb)
		if hasLabel {
			if len(openItems) > 0 && isNextListIndex(lastLabel, label) {
				openItems = append(openItems, elements.NewTextListItem(label.text, []*elements.TextBlock{stripped}))
			} else {
				emit()
				openItems = []*elements.TextListItem{elements.NewTextListItem(label.text, []*elements.TextBlock{stripped})}
				openOrdered = label.kind != labelBullet
			}
			lastLabel = label
			lastBlock = stripped
			continue
		}

		if len(openItems) > 0 && joinsCurrentItem(lastBlock, tb) {
			openItems[len(openItems)-1].Items = append(openItems[len(openItems)-1].Items, tb)
			lastBlock = tb
			continue
		}

		if len(openItems) > 0 && openOrdered && nextCarriesExpectedLabel(items, i, lastLabel) {
			openItems[len(openItems)-1].Items = append(openItems[len(openItems)-1].Items, tb)
			lastBlock = tb
			continue
		}

		emit()
		out = append(out, tb)
		lastBlock = nil
	}
	emit()
	return out
}

// nextCarriesExpectedLabel implements the lookahead join: a
// non-labelled block still belongs to the current (ordered) list when the
// following block in the run carries the label that would continue it.
func nextCarriesExpectedLabel(items []elements.Element, i int, lastLabel parsedLabel) bool {
	if i+1 >= len(items) {
		return false
	}
	future, ok := items[i+1].(*elements.TextBlock)
	if !ok {
		return false
	}
	futureLabel, _, hasLabel := parseLabel(future)
	return hasLabel && isNextListIndex(lastLabel, futureLabel)
}

func elementsOf(item *elements.TextListItem) []elements.Element {
	out := make([]elements.Element, len(item.Items))
	for i, b := range item.Items {
		out[i] = b
	}
	return out
}

// parseLabel reports whether block b opens with a list label, and if so
// strips the label prefix from its first span's text.
func parseLabel(b *elements.TextBlock) (parsedLabel, *elements.TextBlock, bool) {
	if len(b.Lines) == 0 || len(b.Lines[0].Spans) == 0 {
		return parsedLabel{}, nil, false
	}
	text := b.Lines[0].Spans[0].Text
	m := labelPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return parsedLabel{}, nil, false
	}
	matched := text[m[0]:m[1]]
	var label parsedLabel
	switch {
	case m[2] >= 0:
		label = parsedLabel{kind: labelBullet, text: "•"}
	case m[4] >= 0:
		letter := text[m[4]:m[5]]
		label = parsedLabel{kind: labelLetter, text: letter}
	case m[6] >= 0:
		n, _ := strconv.Atoi(text[m[6]:m[7]])
		label = parsedLabel{kind: labelNumber, text: text[m[6]:m[7]], value: n}
	case m[8] >= 0:
		n, _ := strconv.Atoi(text[m[8]:m[9]])
		label = parsedLabel{kind: labelNumber, text: text[m[8]:m[9]], value: n}
	default:
		return parsedLabel{}, nil, false
	}

	stripped := stripPrefix(b, len(matched))
	return label, stripped, true
}

// stripPrefix returns a shallow copy of b with the label prefix removed
// from its first span's text.
func stripPrefix(b *elements.TextBlock, n int) *elements.TextBlock {
	firstSpan := *b.Lines[0].Spans[0]
	firstSpan.Text = strings.TrimLeft(firstSpan.Text[n:], " ")
	newFirstLine := *b.Lines[0]
	newSpans := append([]*elements.Span{&firstSpan}, b.Lines[0].Spans[1:]...)
	newFirstLine.Spans = newSpans
	newLines := append([]*elements.Line{&newFirstLine}, b.Lines[1:]...)
	return elements.NewTextBlock(newLines)
}

// isNextListIndex implements the index-successor rule:
// bullet->bullet; integer->integer+1; single letter->next letter; Roman
// numerals attempt parse before falling through to the letter rule.
func isNextListIndex(last, next parsedLabel) bool {
	if last.kind != next.kind {
		return false
	}
	switch last.kind {
	case labelBullet:
		return true
	case labelNumber:
		return next.value == last.value+1
	case labelLetter:
		return isNextLetterOrRoman(last.text, next.text)
	default:
		return false
	}
}

// isNextLetterOrRoman attempts a Roman-numeral successor check before
// falling back to plain single-letter succession.
func isNextLetterOrRoman(last, next string) bool {
	if strings.ContainsRune(strings.ToLower(last), 'i') || strings.ContainsRune(strings.ToLower(next), 'i') {
		if lv, lok := romanToInt(last); lok {
			if nv, nok := romanToInt(next); nok {
				return nv-lv == 1
			}
		}
		if len(last) > 1 || len(next) > 1 {
			return false
		}
	}
	if len(last) != 1 || len(next) != 1 {
		return false
	}
	return next[0]-last[0] == 1
}

var romanValues = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

// romanToInt attempts to parse s as a Roman numeral, returning ok=false
// on any unrecognised character (an "attempted parse", not a validator).
func romanToInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	upper := strings.ToUpper(s)
	total := 0
	for i := 0; i < len(upper); i++ {
		v, ok := romanValues[upper[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(upper) {
			if next, ok := romanValues[upper[i+1]]; ok && v < next {
				total -= v
				continue
			}
		}
		total += v
	}
	if total <= 0 {
		return 0, false
	}
	return total, true
}

// joinsCurrentItem reports whether a non-labelled block belongs to the
// current open item: its x0 lies between alignOffsetMin and
// alignOffsetMax points right of the previous block's x0, and its top is
// within alignYTolerance+8 of the previous block's bottom.
func joinsCurrentItem(last, next *elements.TextBlock) bool {
	if last == nil {
		return false
	}
	offset := next.BBox.X0 - last.BBox.X0
	withinY := absF(next.BBox.Y0-last.BBox.Y1) <= alignYTolerance+8
	return offset > alignOffsetMin && offset < alignOffsetMax && withinY
}

func absF(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

var _ layout.Processor = (*Processor)(nil)
