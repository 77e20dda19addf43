package elements

import (
	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// PageSection is a contiguous region of a page within which reading order
// is computed independently. The implicit whole-page section is marked
// Default; others are carved out by dividers, rectangles or
// section-background images.
type PageSection struct {
	BBox           geom.Bbox
	Items          []Element
	Default        bool
	BackingDrawing *Drawing
	BackingImage   *Image
	Inline         bool
	id             uuid.UUID
}

// NewPageSection builds a PageSection with a freshly minted id.
func NewPageSection(bbox geom.Bbox, isDefault bool) *PageSection {
	return &PageSection{BBox: bbox, Default: isDefault, id: NewID()}
}

func (s *PageSection) Kind() Kind     { return KindPageSection }
func (s *PageSection) ID() uuid.UUID  { return s.id }
func (s *PageSection) Box() geom.Bbox { return s.BBox }

// HasBacking reports whether the section is visually delimited by a
// drawing or image, which the heading stage uses to decide whether the
// section should survive as an Aside rather than being flattened.
func (s *PageSection) HasBacking() bool {
	return s.BackingDrawing != nil || s.BackingImage != nil
}

// Aside is a section that, after heading classification, is emitted as a
// distinct element separating its content from the surrounding reading
// flow.
type Aside struct {
	BBox  geom.Bbox
	Items []Element
	id    uuid.UUID
}

// NewAside builds an Aside from a classified PageSection.
func NewAside(bbox geom.Bbox, items []Element) *Aside {
	return &Aside{BBox: bbox, Items: items, id: NewID()}
}

func (a *Aside) Kind() Kind     { return KindAside }
func (a *Aside) ID() uuid.UUID  { return a.id }
func (a *Aside) Box() geom.Bbox { return a.BBox }

// Group is the generic transient container used by reading order while
// it builds up columns, before elements are re-parented into their final
// PageSection or Aside.
type Group struct {
	BBox  geom.Bbox
	Items []Element
	id    uuid.UUID
}

// NewGroup builds an empty Group.
func NewGroup(bbox geom.Bbox) *Group {
	return &Group{BBox: bbox, id: NewID()}
}

func (g *Group) Kind() Kind     { return KindGroup }
func (g *Group) ID() uuid.UUID  { return g.id }
func (g *Group) Box() geom.Bbox { return g.BBox }

// Append adds an element to the group and recomputes the enclosing bbox.
func (g *Group) Append(e Element) {
	g.Items = append(g.Items, e)
	boxes := make([]geom.Bbox, len(g.Items))
	for i, it := range g.Items {
		boxes[i] = it.Box()
	}
	g.BBox = geom.Merge(boxes)
}
