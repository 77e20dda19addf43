// Package elements models the semantic element hierarchy that the layout
// pipeline builds on top of the PDF reader's raw primitives: spans, lines,
// text blocks, images, drawings, tables, sections, asides and lists. Go has
// no tagged-union builtin, so every variant satisfies a common Element
// interface and carries its own Kind; callers dispatch with a type switch
// or the Kind() tag.
package elements

import (
	"github.com/google/uuid"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// Kind tags an Element's concrete variant for fast dispatch without a type
// switch, mirroring the source system's runtime type checks.
type Kind int

const (
	KindSpan Kind = iota
	KindLine
	KindTextBlock
	KindImage
	KindDrawing
	KindTable
	KindPageSection
	KindAside
	KindTextList
	KindTextListItem
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindSpan:
		return "span"
	case KindLine:
		return "line"
	case KindTextBlock:
		return "textblock"
	case KindImage:
		return "image"
	case KindDrawing:
		return "drawing"
	case KindTable:
		return "table"
	case KindPageSection:
		return "pagesection"
	case KindAside:
		return "aside"
	case KindTextList:
		return "textlist"
	case KindTextListItem:
		return "textlistitem"
	case KindGroup:
		return "layoutelementgroup"
	default:
		return "unknown"
	}
}

// Element is satisfied by every member of the semantic element hierarchy.
// All elements carry a page-space bounding box and a stable id that is
// never reused for another element.
type Element interface {
	Kind() Kind
	ID() uuid.UUID
	Box() geom.Bbox
}

// NewID mints a fresh stable element id.
func NewID() uuid.UUID {
	return uuid.New()
}

// Children returns the direct contained elements of any container
// element, or nil for leaves. Used by generic tree walks (page hierarchy,
// JSON serialisation) that don't need variant-specific behaviour.
func Children(e Element) []Element {
	switch v := e.(type) {
	case *Line:
		out := make([]Element, len(v.Spans))
		for i, s := range v.Spans {
			out[i] = s
		}
		return out
	case *TextBlock:
		out := make([]Element, len(v.Lines))
		for i, l := range v.Lines {
			out[i] = l
		}
		return out
	case *PageSection:
		return v.Items
	case *Aside:
		return v.Items
	case *TextList:
		out := make([]Element, len(v.Items))
		for i, it := range v.Items {
			out[i] = it
		}
		return out
	case *TextListItem:
		out := make([]Element, len(v.Items))
		for i, it := range v.Items {
			out[i] = it
		}
		return out
	case *Group:
		return v.Items
	case *Table:
		var out []Element
		for _, row := range v.Cells {
			for _, cell := range row {
				out = append(out, cell...)
			}
		}
		return out
	default:
		return nil
	}
}
