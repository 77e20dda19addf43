package ingest

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
	"github.com/bbiangul/goreason-layout/layout/pdfreader"
)

// spacedLetterRun matches spuriously spaced large text, e.g. "T H I S
// I S".
var spacedLetterRun = regexp.MustCompile(`([a-zA-Z0-9]{1,2}\s){3,}`)

// bulletLabel matches a bare bullet/enumeration label occupying an
// entire line by itself.
var bulletLabel = regexp.MustCompile(`^(?:[\x{2022}\x{F0A7}\x{F0B7}]|\(?[a-zA-Z0-9]{1,2}\)?\.?)$`)

// wingdingsBullet matches the handful of Wingdings/Symbol private-use
// codepoints PDF producers commonly map a bullet glyph onto.
var wingdingsBullet = map[rune]bool{
	'': true, '': true, '': true,
}

// extractPageText builds the page's Line elements from the reader's
// text dictionary, applying the span/line normalisation and cleanup
// rules, and records every span's font into stats.
func (p *Processor) extractPageText(ctx context.Context, page int, stats fontRecorder) ([]*elements.Line, error) {
	blocks, err := p.Reader.TextDict(ctx, page)
	if err != nil {
		return nil, err
	}

	var lines []*elements.Line
	for _, block := range blocks {
		for _, rl := range block.Lines {
			l := buildLine(rl, stats)
			if l != nil {
				lines = append(lines, l)
			}
		}
	}

	lines = removeDuplicateLines(lines)
	for _, l := range lines {
		collapseSpacedText(l)
	}
	lines = mergeBareBulletLabels(lines)
	lines = prependLeadingSingleChar(lines)
	return lines, nil
}

type fontRecorder interface {
	Record(elements.Font)
}

func buildLine(rl pdfreader.RawLine, stats fontRecorder) *elements.Line {
	var spans []*elements.Span
	for _, rs := range rl.Spans {
		text := rs.Text
		if runes := []rune(text); len(runes) == 1 && wingdingsBullet[runes[0]] {
			text = "•"
		}
		text = norm.NFKC.String(text)
		if text == "" {
			continue
		}
		font := elements.NewFont(rs.Font, rs.Size, rs.Color, rs.Flags)
		stats.Record(font)
		spans = append(spans, elements.NewSpan(rs.BBox, font, text))
	}
	if len(spans) == 0 {
		return nil
	}
	return elements.NewLine(spans, rl.Spans[0].Dir)
}

// removeDuplicateLines drops lines that are duplicates or substrings of
// another line when their bboxes overlap >=0.5, keeping the longer text
func removeDuplicateLines(lines []*elements.Line) []*elements.Line {
	keep := make([]bool, len(lines))
	for i := range lines {
		keep[i] = true
	}
	for i := 0; i < len(lines); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			if !keep[j] {
				continue
			}
			if lines[i].BBox.Overlap(lines[j].BBox, geom.NormMin) < 0.5 {
				continue
			}
			ti, tj := lines[i].Text(), lines[j].Text()
			switch {
			case ti == tj || strings.Contains(ti, tj):
				keep[j] = false
			case strings.Contains(tj, ti):
				keep[i] = false
			}
			if !keep[i] {
				break
			}
		}
	}
	var out []*elements.Line
	for i, l := range lines {
		if keep[i] {
			out = append(out, l)
		}
	}
	return out
}

// collapseSpacedText rewrites spuriously-spaced large text in place:
// single spaces inside a matched run are removed and each double space
// is kept as one word-separating space, only for spans at size>=13.
func collapseSpacedText(l *elements.Line) {
	for _, s := range l.Spans {
		if s.F.Size < 13 {
			continue
		}
		if !spacedLetterRun.MatchString(s.Text) {
			continue
		}
		s.Text = collapseSingleSpaces(s.Text)
	}
}

func collapseSingleSpaces(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] == ' ' && i+1 < len(runes) && runes[i+1] == ' ' {
			b.WriteRune(' ')
			i++
			continue
		}
		if runes[i] == ' ' {
			continue
		}
		b.WriteRune(runes[i])
	}
	return b.String()
}

// mergeBareBulletLabels folds a line that is nothing but a bullet/
// enumeration label into the adjacent line when y-overlap>=0.5 and the
// horizontal gap is <20.
func mergeBareBulletLabels(lines []*elements.Line) []*elements.Line {
	used := make([]bool, len(lines))
	for i, l := range lines {
		if used[i] {
			continue
		}
		text := strings.TrimSpace(l.Text())
		if !bulletLabel.MatchString(text) {
			continue
		}
		for j, other := range lines {
			if i == j || used[j] {
				continue
			}
			if l.BBox.YOverlap(other.BBox, geom.NormMin) < 0.5 {
				continue
			}
			gap := other.BBox.X0 - l.BBox.X1
			if gap < 0 {
				gap = l.BBox.X0 - other.BBox.X1
			}
			if gap < 20 {
				other.Spans = append(l.Spans, other.Spans...)
				used[i] = true
				break
			}
		}
	}
	var final []*elements.Line
	for i, l := range lines {
		if !used[i] {
			final = append(final, l)
		}
	}
	return final
}

// prependLeadingSingleChar folds a lone oversized single-character
// line (size>15, a drop cap) into the immediately following line when
// that line starts a sentence.
func prependLeadingSingleChar(lines []*elements.Line) []*elements.Line {
	var out []*elements.Line
	skip := make(map[int]bool)
	for i := 0; i < len(lines); i++ {
		if skip[i] {
			continue
		}
		text := strings.TrimSpace(lines[i].Text())
		if i+1 < len(lines) && len([]rune(text)) == 1 && lines[i].DominantFont().Size > 15 && isSentenceStart(lines[i+1].Text()) {
			next := lines[i+1]
			next.Spans = append(lines[i].Spans, next.Spans...)
			out = append(out, next)
			skip[i+1] = true
			continue
		}
		out = append(out, lines[i])
	}
	return out
}

func isSentenceStart(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return unicode.IsLetter(r)
}

// mergeBulletDrawings folds detected Bullet drawings into the nearest
// line whose y-overlap>=0.6 and |line.x0 - bullet.x1|<25, prefixing the
// line's first span text with "• ".
func mergeBulletDrawings(lines []*elements.Line, bullets []*elements.Drawing) []*elements.Drawing {
	var unmatched []*elements.Drawing
	for _, d := range bullets {
		var best *elements.Line
		bestDist := 1e18
		for _, l := range lines {
			if l.BBox.YOverlap(d.BBox, geom.NormMin) < 0.6 {
				continue
			}
			gap := l.BBox.X0 - d.BBox.X1
			if gap < 0 || gap >= 25 {
				continue
			}
			if gap < bestDist {
				best, bestDist = l, gap
			}
		}
		if best != nil && len(best.Spans) > 0 {
			best.Spans[0].Text = "• " + best.Spans[0].Text
		} else {
			unmatched = append(unmatched, d)
		}
	}
	return unmatched
}
