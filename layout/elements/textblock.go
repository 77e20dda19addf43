package elements

import (
	"strings"

	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// BlockType classifies a TextBlock after the heading stage runs. The zero
// value is Paragraph, the type every block carries until the heading
// stage classifies it.
type BlockType int

const (
	Paragraph BlockType = iota
	Emphasis
	Small
	H1
	H2
	H3
	H4
	H5
	H6
)

func (t BlockType) String() string {
	switch t {
	case Paragraph:
		return "paragraph"
	case Emphasis:
		return "emphasis"
	case Small:
		return "small"
	case H1:
		return "h1"
	case H2:
		return "h2"
	case H3:
		return "h3"
	case H4:
		return "h4"
	case H5:
		return "h5"
	case H6:
		return "h6"
	default:
		return "paragraph"
	}
}

// IsHeading reports whether the block type is one of H1..H6.
func (t BlockType) IsHeading() bool { return t >= H1 && t <= H6 }

// HeadingLevel returns 1..6 for H1..H6, or 0 for non-headings.
func (t BlockType) HeadingLevel() int {
	if !t.IsHeading() {
		return 0
	}
	return int(t-H1) + 1
}

// TextBlock is a cluster of contiguous lines with matching font and
// vertical rhythm: the atom of heading/list classification.
type TextBlock struct {
	BBox  geom.Bbox
	Lines []*Line
	Type  BlockType
	id    uuid.UUID
}

// NewTextBlock builds a TextBlock from its lines, computing the enclosing
// bbox. Type defaults to Paragraph.
func NewTextBlock(lines []*Line) *TextBlock {
	boxes := make([]geom.Bbox, len(lines))
	for i, l := range lines {
		boxes[i] = l.BBox
	}
	bbox := geom.Bbox{}
	if len(boxes) > 0 {
		bbox = geom.Merge(boxes)
	}
	return &TextBlock{BBox: bbox, Lines: lines, Type: Paragraph, id: NewID()}
}

func (b *TextBlock) Kind() Kind     { return KindTextBlock }
func (b *TextBlock) ID() uuid.UUID  { return b.id }
func (b *TextBlock) Box() geom.Bbox { return b.BBox }

// Text concatenates the block's line text, one line per output line.
func (b *TextBlock) Text() string {
	lines := make([]string, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = l.Text()
	}
	return strings.Join(lines, "\n")
}

// WordCount and LineCount are the factors the heading classifier uses.
func (b *TextBlock) WordCount() int {
	n := 0
	for _, l := range b.Lines {
		n += len(strings.Fields(l.Text()))
	}
	return n
}

func (b *TextBlock) LineCount() int { return len(b.Lines) }

// ModalFont returns the font shared by the largest number of lines
// (ties broken by first occurrence), used to compute the block's modal
// size and family for heading/list classification.
func (b *TextBlock) ModalFont() Font {
	if len(b.Lines) == 0 {
		return Font{}
	}
	type key struct {
		family string
		size   int // tenths
	}
	counts := make(map[key]int)
	fonts := make(map[key]Font)
	order := make([]key, 0, len(b.Lines))
	for _, l := range b.Lines {
		f := l.DominantFont()
		k := key{f.Family, int(f.Size*10 + 0.5)}
		if counts[k] == 0 {
			order = append(order, k)
			fonts[k] = f
		}
		counts[k]++
	}
	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return fonts[best]
}

// AllCaps reports whether every letter in the block's text is uppercase.
func (b *TextBlock) AllCaps() bool {
	text := b.Text()
	seenLetter := false
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			seenLetter = true
		}
	}
	return seenLetter
}

// AllBold and AllItalic report whether every line's dominant font carries
// the corresponding flag.
func (b *TextBlock) AllBold() bool {
	if len(b.Lines) == 0 {
		return false
	}
	for _, l := range b.Lines {
		if !l.DominantFont().Bold {
			return false
		}
	}
	return true
}

func (b *TextBlock) AllItalic() bool {
	if len(b.Lines) == 0 {
		return false
	}
	for _, l := range b.Lines {
		if !l.DominantFont().Italic {
			return false
		}
	}
	return true
}
