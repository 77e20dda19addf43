package elements

import (
	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// Span is a maximally contiguous run of same-font text.
type Span struct {
	BBox geom.Bbox
	F    Font
	Text string
	id   uuid.UUID
}

// NewSpan builds a Span with a freshly minted id.
func NewSpan(bbox geom.Bbox, font Font, text string) *Span {
	return &Span{BBox: bbox, F: font, Text: text, id: NewID()}
}

func (s *Span) Kind() Kind      { return KindSpan }
func (s *Span) ID() uuid.UUID   { return s.id }
func (s *Span) Box() geom.Bbox  { return s.BBox }
func (s *Span) Font() Font      { return s.F }
func (s *Span) String() string  { return s.Text }
