package elements

import (
	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// TextListItem is one entry of a TextList: its stripped label (e.g. "a",
// "2", "•") and the text blocks that make up its content.
type TextListItem struct {
	Label string
	Items []*TextBlock
	id    uuid.UUID
}

// NewTextListItem builds a TextListItem with a freshly minted id.
func NewTextListItem(label string, items []*TextBlock) *TextListItem {
	return &TextListItem{Label: label, Items: items, id: NewID()}
}

func (i *TextListItem) Kind() Kind { return KindTextListItem }
func (i *TextListItem) ID() uuid.UUID { return i.id }
func (i *TextListItem) Box() geom.Bbox {
	boxes := make([]geom.Bbox, len(i.Items))
	for j, it := range i.Items {
		boxes[j] = it.BBox
	}
	if len(boxes) == 0 {
		return geom.Bbox{}
	}
	return geom.Merge(boxes)
}

// TextList is an ordered (enumerated) or unordered (bulleted) list of
// items, built by the list processor from a run of detected labels.
type TextList struct {
	BBox    geom.Bbox
	Ordered bool
	Items   []*TextListItem
	id      uuid.UUID
}

// NewTextList builds a TextList from its items, computing the enclosing
// bbox.
func NewTextList(ordered bool, items []*TextListItem) *TextList {
	boxes := make([]geom.Bbox, len(items))
	for i, it := range items {
		boxes[i] = it.Box()
	}
	bbox := geom.Bbox{}
	if len(boxes) > 0 {
		bbox = geom.Merge(boxes)
	}
	return &TextList{BBox: bbox, Ordered: ordered, Items: items, id: NewID()}
}

func (l *TextList) Kind() Kind     { return KindTextList }
func (l *TextList) ID() uuid.UUID  { return l.id }
func (l *TextList) Box() geom.Bbox { return l.BBox }
