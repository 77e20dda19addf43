// Package margin implements the margin processor: it
// classifies body lines as header, footer, left/right sidebar, or an
// extracted page number, and removes the classified lines from the
// page's body text.
package margin

import (
	"context"
	"strconv"
	"strings"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/graph"
)

// Processor implements layout.Processor for the margin stage.
// HeaderTopFrac and FooterBottomFrac default to the values in
// layout.DefaultConfig; the CLI sets them from its Config.Thresholds.
type Processor struct {
	HeaderTopFrac    float64
	FooterBottomFrac float64
}

func New() *Processor {
	th := layout.DefaultConfig().Thresholds
	return &Processor{HeaderTopFrac: th.MarginHeaderTopFrac, FooterBottomFrac: th.MarginFooterBottomFrac}
}

func (p *Processor) Name() string { return "margin" }

func (p *Processor) Requires() (required, optional []layout.StateKey) {
	return []layout.StateKey{layout.KeyTextElements, layout.KeyPageBounds}, []layout.StateKey{layout.KeyTables}
}

func (p *Processor) Produces() []layout.StateKey {
	return []layout.StateKey{
		layout.KeyTextElements, layout.KeyHeaders, layout.KeyFooters,
		layout.KeyLeftSidebar, layout.KeyRightSidebar, layout.KeyExtractedPageNumber,
	}
}

func (p *Processor) Threadable() bool { return true }
func (p *Processor) Expensive() bool  { return false }

func (p *Processor) Process(ctx context.Context, bag *layout.StateBag) error {
	for _, page := range bag.SortedPages() {
		bound, ok := bag.PageBounds[page]
		if !ok {
			continue
		}
		lines := bag.TextElements[page]
		if len(lines) == 0 {
			continue
		}

		els := make([]elements.Element, len(lines))
		for i, l := range lines {
			els[i] = l
		}
		for _, t := range bag.Tables[page] {
			els = append(els, t)
		}
		g := graph.Build(bound, els)

		nearestUp := make([]float64, len(lines))
		nearestDown := make([]float64, len(lines))
		for i := range lines {
			nodeID := i + 1
			nearestUp[i] = nearestDistance(g.Nodes[nodeID].Up)
			nearestDown[i] = nearestDistance(g.Nodes[nodeID].Down)
		}

		var body, headers, footers, left, right []*elements.Line
		pageNumbers := map[int]int{}

		for i, l := range lines {
			top := l.BBox.Y0Norm()
			bottom := l.BBox.Y1Norm()
			leftFrac := l.BBox.X0Norm()
			rightFrac := l.BBox.X1Norm()
			nearest := minF(nearestUp[i], nearestDown[i])
			size := l.DominantFont().Size
			rotated := l.IsRotated()

			switch {
			case top < p.HeaderTopFrac && nearest > 5:
				headers = append(headers, l)
			case top < p.HeaderTopFrac*2 && nearest > 10 && size < 10:
				headers = append(headers, l)
			case bottom > p.FooterBottomFrac && nearest > 5:
				text := strings.TrimSpace(l.Text())
				if n, err := strconv.Atoi(text); err == nil {
					pageNumbers[page] = n
				} else {
					footers = append(footers, l)
				}
			case rightFrac > 0.95 || (rotated && rightFrac > 0.9):
				right = append(right, l)
			case leftFrac < 0.05 || (rotated && leftFrac < 0.1):
				left = append(left, l)
			default:
				body = append(body, l)
			}
		}

		bag.TextElements[page] = body
		bag.Headers[page] = headers
		bag.Footers[page] = footers
		bag.LeftSidebar[page] = left
		bag.RightSidebar[page] = right
		if n, ok := pageNumbers[page]; ok {
			bag.ExtractedPageNumber[page] = n
		}
	}
	return nil
}

func nearestDistance(edges []graph.Edge) float64 {
	if len(edges) == 0 {
		return 1e9
	}
	return edges[0].Distance
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

var _ layout.Processor = (*Processor)(nil)
