// Package hierarchy implements the page-hierarchy processor: for each
// page it emits a flat array of heading entries in
// document order by walking the page's final element list, recursing
// into PageSection/Aside.
package hierarchy

import (
	"context"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
)

// Processor implements layout.Processor for the hierarchy stage.
type Processor struct{}

func New() *Processor { return &Processor{} }

func (p *Processor) Name() string { return "hierarchy" }

func (p *Processor) Requires() (required, optional []layout.StateKey) {
	return []layout.StateKey{layout.KeyElements}, nil
}

func (p *Processor) Produces() []layout.StateKey {
	return []layout.StateKey{layout.KeyPageHierarchy}
}

func (p *Processor) Threadable() bool { return true }
func (p *Processor) Expensive() bool  { return false }

func (p *Processor) Process(ctx context.Context, bag *layout.StateBag) error {
	for _, page := range bag.SortedPages() {
		bag.PageHierarchy[page] = buildHierarchy(page, bag.Elements[page])
	}
	return nil
}

func buildHierarchy(page int, els []elements.Element) []layout.HierarchyEntry {
	var out []layout.HierarchyEntry
	idx := 0
	var walk func(elements.Element)
	walk = func(e elements.Element) {
		switch v := e.(type) {
		case *elements.TextBlock:
			if v.Type.IsHeading() {
				out = append(out, layout.HierarchyEntry{
					Page:         page,
					ElementIndex: idx,
					Text:         v.Text(),
					Size:         v.ModalFont().Size,
					Level:        v.Type.String(),
				})
			}
			idx++
		case *elements.PageSection:
			for _, it := range v.Items {
				walk(it)
			}
		case *elements.Aside:
			for _, it := range v.Items {
				walk(it)
			}
		case *elements.TextList:
			for _, item := range v.Items {
				for _, b := range item.Items {
					walk(b)
				}
			}
		default:
			idx++
		}
	}
	for _, e := range els {
		walk(e)
	}
	return out
}

var _ layout.Processor = (*Processor)(nil)
