// Package section implements the layout processor: it cuts
// each page into PageSections from dividers, rectangles and
// section-background images, assigns body lines to sections, and
// clusters each section's lines into TextBlocks.
package section

import (
	"context"
	"sort"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

// sectionAssignOverlap is the minimum 'second'-normalised overlap of a
// line with a non-default section's bbox for the line to be assigned to
// that section instead of the enclosing default one.
const sectionAssignOverlap = 0.93

// Processor implements layout.Processor for the section + block stage.
// FullWidthFrac and BlockGapInitial default to the values in
// layout.DefaultConfig; the CLI sets them from its Config.Thresholds.
type Processor struct {
	FullWidthFrac   float64
	BlockGapInitial float64
}

func New() *Processor {
	th := layout.DefaultConfig().Thresholds
	return &Processor{FullWidthFrac: th.SectionFullWidthFrac, BlockGapInitial: th.BlockLineGapInitial}
}

func (p *Processor) Name() string { return "section" }

func (p *Processor) Requires() (required, optional []layout.StateKey) {
	return []layout.StateKey{layout.KeyTextElements, layout.KeyPageBounds, layout.KeyImageElements, layout.KeyDrawingElements}, nil
}

func (p *Processor) Produces() []layout.StateKey {
	return []layout.StateKey{layout.KeyElements, layout.KeyImageElements}
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
		images := bag.ImageElements[page]
		drawings := bag.DrawingElements[page]

		sections, reclassified := buildSections(bound, lines, images, drawings, p.FullWidthFrac)
		for _, sec := range sections {
			sec.Items = clusterBlocks(sec.Items, p.BlockGapInitial)
		}

		out := make([]elements.Element, len(sections))
		for i, s := range sections {
			out[i] = s
		}
		bag.Elements[page] = out
		if reclassified {
			bag.ImageElements[page] = images
		}
	}
	return nil
}

// buildSections cuts the page into default sections at full-width
// dividers, carves non-default sections out of Section-typed images and
// Rect drawings, assigns every line to the most specific section, and
// drops captured-nothing sections. It reports
// whether any image's type was rewritten to Primary as a result of an
// empty capture.
func buildSections(bound geom.Bbox, lines []*elements.Line, images map[elements.ImageType][]*elements.Image, drawings map[elements.DrawingType][]*elements.Drawing, fullWidthFrac float64) ([]*elements.PageSection, bool) {
	breaks := fullWidthBreaks(bound, drawings[elements.DrawingLine], images[elements.ImageLine], fullWidthFrac)
	defaults := splitAtBreaks(bound, breaks)

	type candidate struct {
		sec *elements.PageSection
		img *elements.Image
	}
	var candidates []candidate

	for _, img := range images[elements.ImageSection] {
		sec := elements.NewPageSection(img.BBox, false)
		sec.BackingImage = img
		sec.Inline = img.BBox.Width(false) > bound.Width(false)/2
		candidates = append(candidates, candidate{sec, img})
	}
	for _, d := range drawings[elements.DrawingRect] {
		sec := elements.NewPageSection(d.BBox, false)
		sec.BackingDrawing = d
		sec.Inline = d.BBox.Width(false) > bound.Width(false)/2
		candidates = append(candidates, candidate{sec, nil})
	}

	assigned := make([]bool, len(lines))
	for _, c := range candidates {
		for i, l := range lines {
			if assigned[i] {
				continue
			}
			if c.sec.BBox.Overlap(l.BBox, geom.NormSecond) >= sectionAssignOverlap {
				c.sec.Items = append(c.sec.Items, l)
				assigned[i] = true
			}
		}
	}
	for i, l := range lines {
		if !assigned[i] {
			defaultFor(defaults, l.BBox).Items = append(defaultFor(defaults, l.BBox).Items, l)
		}
	}

	var out []*elements.PageSection
	for i, d := range defaults {
		if len(d.Items) > 0 || i == 0 {
			out = append(out, d)
		}
	}
	reclassified := false
	for _, c := range candidates {
		if len(c.sec.Items) == 0 {
			// A full-page section image survives as its own section; any
			// other empty capture dissolves and its backing image reverts
			// to an ordinary Primary image.
			if c.img != nil && c.img.BBox.Overlap(bound, geom.NormSecond) >= 0.98 {
				out = append(out, c.sec)
				continue
			}
			if c.img != nil {
				c.img.Type = elements.ImagePrimary
				reclassified = true
			}
			continue
		}
		out = append(out, c.sec)
	}
	return out, reclassified
}

// fullWidthBreaks returns the y-coordinates of full-width dividers: thin
// horizontal Line drawings and thin Line-typed images whose width exceeds
// fullWidthFrac of the page width. Shorter dividers stay as ordinary
// section content.
func fullWidthBreaks(bound geom.Bbox, hlines []*elements.Drawing, limages []*elements.Image, fullWidthFrac float64) []float64 {
	var ys []float64
	pw := bound.Width(false)
	for _, d := range hlines {
		if d.BBox.Width(false)/pw > fullWidthFrac {
			ys = append(ys, d.BBox.Y0)
		}
	}
	for _, img := range limages {
		if img.BBox.Width(false)/pw > fullWidthFrac {
			ys = append(ys, img.BBox.Y0)
		}
	}
	sort.Float64s(ys)
	return ys
}

// splitAtBreaks cuts the page bound into one default section per band
// between consecutive divider y-coordinates. With no breaks the whole
// page is the single default section.
func splitAtBreaks(bound geom.Bbox, breaks []float64) []*elements.PageSection {
	edges := []float64{bound.Y0}
	for _, y := range breaks {
		if y > edges[len(edges)-1]+1 && y < bound.Y1-1 {
			edges = append(edges, y)
		}
	}
	edges = append(edges, bound.Y1)

	var out []*elements.PageSection
	for i := 0; i+1 < len(edges); i++ {
		band := geom.New(bound.X0, edges[i], bound.X1, edges[i+1], bound.PageWidth, bound.PageHeight)
		out = append(out, elements.NewPageSection(band, true))
	}
	return out
}

// defaultFor picks the default band containing bbox's vertical center,
// falling back to the last band.
func defaultFor(defaults []*elements.PageSection, bbox geom.Bbox) *elements.PageSection {
	cy := bbox.Center(false).Y
	for _, d := range defaults {
		if cy >= d.BBox.Y0 && cy < d.BBox.Y1 {
			return d
		}
	}
	return defaults[len(defaults)-1]
}
