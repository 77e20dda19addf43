package elements

import (
	"strings"

	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// Line is a horizontal run of spans sharing a baseline, carrying the
// rotation of the text as (cos theta, sin theta) so rotated sidebar text
// can be distinguished from horizontal body text.
type Line struct {
	BBox     geom.Bbox
	Spans    []*Span
	Rotation [2]float64 // cos, sin; [1,0] for unrotated text
	id       uuid.UUID
}

// NewLine builds a Line from its spans, computing the enclosing bbox.
func NewLine(spans []*Span, rotation [2]float64) *Line {
	boxes := make([]geom.Bbox, len(spans))
	for i, s := range spans {
		boxes[i] = s.BBox
	}
	bbox := geom.Bbox{}
	if len(boxes) > 0 {
		bbox = geom.Merge(boxes)
	}
	return &Line{BBox: bbox, Spans: spans, Rotation: rotation, id: NewID()}
}

func (l *Line) Kind() Kind     { return KindLine }
func (l *Line) ID() uuid.UUID  { return l.id }
func (l *Line) Box() geom.Bbox { return l.BBox }

// Text concatenates the line's span text.
func (l *Line) Text() string {
	var sb strings.Builder
	for _, s := range l.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// DominantFont returns the font of the line's widest span, used as the
// representative font for clustering decisions.
func (l *Line) DominantFont() Font {
	if len(l.Spans) == 0 {
		return Font{}
	}
	best := l.Spans[0]
	bestWidth := best.BBox.Width(false)
	for _, s := range l.Spans[1:] {
		if w := s.BBox.Width(false); w > bestWidth {
			best, bestWidth = s, w
		}
	}
	return best.F
}

// IsRotated reports whether the line's text direction deviates
// substantially from horizontal (rotation cosine below 0.7).
func (l *Line) IsRotated() bool {
	return l.Rotation[0] < 0.7
}
