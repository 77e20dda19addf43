package elements

import (
	"encoding/json"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// ToJSON converts an Element tree into the output schema: every
// element is {name, ...fields, bbox?}, discriminated by a lowercased
// "name" field.
func ToJSON(e Element, detailed bool) map[string]any {
	if e == nil {
		return nil
	}
	out := map[string]any{"name": e.Kind().String()}
	if detailed {
		out["bbox"] = bboxJSON(e.Box())
	}
	switch v := e.(type) {
	case *Span:
		out["text"] = v.Text
		out["font"] = fontJSON(v.F)
	case *Line:
		spans := make([]map[string]any, len(v.Spans))
		for i, s := range v.Spans {
			spans[i] = ToJSON(s, detailed)
		}
		out["spans"] = spans
	case *TextBlock:
		out["type"] = v.Type.String()
		out["block_text"] = v.Text()
		if detailed {
			lines := make([]map[string]any, len(v.Lines))
			for i, l := range v.Lines {
				lines[i] = ToJSON(l, detailed)
			}
			out["lines"] = lines
		}
	case *Image:
		out["type"] = v.Type.String()
		out["store_index"] = v.StoreIndex
		if detailed {
			out["original_bbox"] = bboxJSON(v.OriginalBBox)
			out["properties"] = v.Properties
		}
	case *Drawing:
		out["type"] = v.Type.String()
		if detailed {
			out["fill_opacity"] = v.FillOpacity
			out["fill_colour"] = v.FillColour
			out["stroke_opacity"] = v.StrokeOpacity
			out["stroke_colour"] = v.StrokeColour
			out["stroke_width"] = v.StrokeWidth
		}
	case *Table:
		out["row_header_index"] = v.RowHeaderIndex()
		out["col_header_index"] = v.ColHeaderIndex()
		cells := make([][]json.RawMessage, len(v.Cells))
		for r, row := range v.Cells {
			cells[r] = make([]json.RawMessage, len(row))
			for c, contents := range row {
				items := make([]map[string]any, len(contents))
				for i, it := range contents {
					items[i] = ToJSON(it, detailed)
				}
				raw, _ := json.Marshal(items)
				cells[r][c] = raw
			}
		}
		out["cells"] = cells
	case *PageSection:
		items := make([]map[string]any, len(v.Items))
		for i, it := range v.Items {
			items[i] = ToJSON(it, detailed)
		}
		out["items"] = items
	case *Aside:
		items := make([]map[string]any, len(v.Items))
		for i, it := range v.Items {
			items[i] = ToJSON(it, detailed)
		}
		out["items"] = items
	case *TextList:
		out["ordered"] = v.Ordered
		items := make([]map[string]any, len(v.Items))
		for i, it := range v.Items {
			items[i] = ToJSON(it, detailed)
		}
		out["items"] = items
	case *TextListItem:
		out["label"] = v.Label
		items := make([]map[string]any, len(v.Items))
		for i, it := range v.Items {
			items[i] = ToJSON(it, detailed)
		}
		out["items"] = items
	case *Group:
		items := make([]map[string]any, len(v.Items))
		for i, it := range v.Items {
			items[i] = ToJSON(it, detailed)
		}
		out["items"] = items
	}
	return out
}

func bboxJSON(b geom.Bbox) map[string]any {
	return map[string]any{"x0": b.X0, "y0": b.Y0, "x1": b.X1, "y1": b.Y1}
}

func fontJSON(f Font) map[string]any {
	return map[string]any{
		"name":   "font",
		"font":   f.Name,
		"family": f.Family,
		"size":   f.Size,
		"colour": f.Colour,
		"bd":     f.Bold,
		"it":     f.Italic,
		"sp":     f.Superscript,
		"sc":     f.Smallcaps,
	}
}
