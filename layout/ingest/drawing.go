package ingest

import (
	"context"
	"image/color"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

// extractPageDrawings classifies every stroked/filled path on a page
// (bullet, thin line, rect, or discarded as invisible/background), then
// runs the Rect merge post-pass.
func (p *Processor) extractPageDrawings(ctx context.Context, page int, bound geom.Bbox, bg color.RGBA) (map[elements.DrawingType][]*elements.Drawing, error) {
	raws, err := p.Reader.Drawings(ctx, page)
	if err != nil {
		return nil, err
	}
	out := map[elements.DrawingType][]*elements.Drawing{}
	var rects []*elements.Drawing

	for _, raw := range raws {
		if raw.FillOpacity < 0.1 && raw.StrokeOpacity < 0.1 {
			continue
		}
		fillColour := rgbaFromUint32(raw.Fill)
		if colourDistance(fillColour, bg) < 25 {
			continue
		}

		w, h := raw.Rect.Width(false), raw.Rect.Height(false)
		aspect := 1.0
		if w > 0 && h > 0 {
			if w > h {
				aspect = h / w
			} else {
				aspect = w / h
			}
		}

		switch {
		case w < 5 && h < 5 && aspect > 0.6 && raw.FillOpacity > 0.8 && len(raw.Items) > 1:
			d := elements.NewDrawing(raw.Rect, elements.DrawingBullet)
			d.FillOpacity, d.FillColour = raw.FillOpacity, raw.Fill
			out[elements.DrawingBullet] = append(out[elements.DrawingBullet], d)
		case h < 10 || w < 10:
			if raw.Rect.Overlap(bound, geom.NormSecond) > 0 {
				d := elements.NewDrawing(raw.Rect, elements.DrawingLine)
				d.StrokeOpacity, d.StrokeColour, d.StrokeWidth = raw.StrokeOpacity, raw.Color, raw.Width
				out[elements.DrawingLine] = append(out[elements.DrawingLine], d)
			}
		default:
			coverage := raw.Rect.Area(true)
			if coverage > 0.001 && coverage < 0.55 {
				d := elements.NewDrawing(raw.Rect, elements.DrawingRect)
				d.FillOpacity, d.FillColour = raw.FillOpacity, raw.Fill
				rects = append(rects, d)
			}
		}
	}

	rects = mergeRects(rects)
	if len(rects) > 0 {
		out[elements.DrawingRect] = rects
	}
	return out, nil
}

// mergeRects iteratively merges Rect drawings whose overlap normalised by
// either box's own extent exceeds 0.97, keeping the larger drawing with
// its bbox grown to the union of both, until a fixpoint.
func mergeRects(rects []*elements.Drawing) []*elements.Drawing {
	for {
		merged := false
		for i := 0; i < len(rects); i++ {
			for j := i + 1; j < len(rects); j++ {
				a, b := rects[i].BBox, rects[j].BBox
				if a.Overlap(b, geom.NormFirst) > 0.97 || a.Overlap(b, geom.NormSecond) > 0.97 {
					keep, drop := i, j
					if b.Area(false) > a.Area(false) {
						keep, drop = j, i
					}
					rects[keep].BBox = geom.Merge([]geom.Bbox{rects[i].BBox, rects[j].BBox})
					rects = append(rects[:drop], rects[drop+1:]...)
					merged = true
					break
				}
			}
			if merged {
				break
			}
		}
		if !merged {
			break
		}
	}
	return rects
}
