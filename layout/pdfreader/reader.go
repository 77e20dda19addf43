// Package pdfreader adapts a concrete PDF library into the PDF reader
// collaborator contract: page count, per-page bounds,
// font list, image/drawing lists, per-page text dictionary, page bitmap,
// raw image bytes, and document metadata/TOC. The layout pipeline only
// depends on the Reader interface; LedongthucReader is the one concrete
// adapter.
package pdfreader

import (
	"context"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// FontEntry is one entry of a page's font table.
type FontEntry struct {
	ID       string
	Ext      string
	Type     string
	Name     string
	Encoding string
}

// RawSpan is one span from the reader's per-page text dictionary.
type RawSpan struct {
	Size  float64
	Flags uint32 // bit0=superscript, bit1=italic, bit4=bold
	Font  string
	Color uint32
	Text  string
	BBox  geom.Bbox
	Dir   [2]float64 // (cos, sin) text direction
}

// RawLine groups spans the reader already considers one visual line.
type RawLine struct {
	Spans []RawSpan
}

// RawTextBlock groups lines the reader already considers one block.
type RawTextBlock struct {
	Lines []RawLine
}

// RawImage is one placed image on a page.
type RawImage struct {
	Xref      int
	BBox      geom.Bbox
	CSName    string
	SMaskXref int
	HasAlpha  bool
}

// PathItem is one drawn primitive (line/curve segment) within a RawDrawing.
type PathItem struct {
	Kind string // "l" (line), "c" (curve), "re" (rect)
}

// RawDrawing is one stroked/filled path from the page content stream.
type RawDrawing struct {
	Type          byte // 'f' fill, 's' stroke, or combination
	Rect          geom.Bbox
	Items         []PathItem
	Fill          uint32
	FillOpacity   float64
	Color         uint32
	StrokeOpacity float64
	Width         float64
}

// DocMetadata is the document-level metadata and TOC.
type DocMetadata struct {
	Title string
	Info  map[string]string
	TOC   []TOCEntry
}

// TOCEntry is one bookmark/outline entry.
type TOCEntry struct {
	Title string
	Level int
	Page  int
}

// Reader is the PDF primitive reader collaborator. Every
// per-page method is 1-indexed, matching most PDF tooling conventions.
type Reader interface {
	PageCount() int
	PageBound(ctx context.Context, page int) (geom.Bbox, error)
	Fonts(ctx context.Context, page int) ([]FontEntry, error)
	Images(ctx context.Context, page int) ([]RawImage, error)
	Drawings(ctx context.Context, page int) ([]RawDrawing, error)
	TextDict(ctx context.Context, page int) ([]RawTextBlock, error)
	PageBitmap(ctx context.Context, page int) ([]byte, int, int, error) // RGBA bytes, width, height
	ImageBytes(ctx context.Context, xref int) ([]byte, string, string, error) // data, mime, cs-name
	Metadata(ctx context.Context) (DocMetadata, error)
}
