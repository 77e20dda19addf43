package elements

import (
	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// DrawingType classifies a vector path by its layout role.
type DrawingType int

const (
	DrawingLine DrawingType = iota
	DrawingRect
	DrawingBullet
	DrawingTable
	DrawingUnknown
)

func (t DrawingType) String() string {
	switch t {
	case DrawingLine:
		return "line"
	case DrawingRect:
		return "rect"
	case DrawingBullet:
		return "bullet"
	case DrawingTable:
		return "table"
	default:
		return "unknown"
	}
}

// Drawing is a stroked and/or filled path from the PDF content stream.
type Drawing struct {
	BBox          geom.Bbox
	Type          DrawingType
	FillOpacity   float64
	FillColour    uint32
	StrokeOpacity float64
	StrokeColour  uint32
	StrokeWidth   float64
	id            uuid.UUID
}

// NewDrawing builds a Drawing with a freshly minted id.
func NewDrawing(bbox geom.Bbox, typ DrawingType) *Drawing {
	return &Drawing{BBox: bbox, Type: typ, id: NewID()}
}

func (d *Drawing) Kind() Kind     { return KindDrawing }
func (d *Drawing) ID() uuid.UUID  { return d.id }
func (d *Drawing) Box() geom.Bbox { return d.BBox }
