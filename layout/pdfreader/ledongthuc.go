package pdfreader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"reflect"
	"sort"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// LedongthucReader adapts github.com/ledongthuc/pdf to the Reader
// contract.
//
// The library exposes no vector-graphics operators and no page
// rasterizer, so Drawings and PageBitmap are necessarily partial: the
// former always returns an empty slice, the latter always returns a
// nil buffer. Callers must treat an empty bitmap as "no raster
// available" rather than as a malformed page — the ingest processor's
// background-colour estimate assumes white whenever a page lacks a
// bitmap.
type LedongthucReader struct {
	path   string
	file   *os.File
	reader *pdf.Reader

	mu        sync.Mutex
	nextXref  int
	xobjByRef map[int]pdf.Value
}

// Open opens path and returns a Reader backed by ledongthuc/pdf. The
// caller must call Close when done.
func Open(path string) (*LedongthucReader, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pdfreader: opening %s: %w", path, err)
	}
	return &LedongthucReader{
		path:      path,
		file:      f,
		reader:    r,
		nextXref:  1,
		xobjByRef: make(map[int]pdf.Value),
	}, nil
}

// Close releases the underlying file handle.
func (r *LedongthucReader) Close() error {
	return r.file.Close()
}

func (r *LedongthucReader) PageCount() int { return r.reader.NumPage() }

func (r *LedongthucReader) PageBound(ctx context.Context, page int) (geom.Bbox, error) {
	p := r.reader.Page(page)
	if p.V.IsNull() {
		return geom.Bbox{}, fmt.Errorf("pdfreader: page %d: %w", page, errPageNotFound)
	}
	box := p.V.Key("MediaBox")
	if box.IsNull() || box.Len() != 4 {
		// US Letter at 72dpi, matching the library's own internal default.
		return geom.New(0, 0, 612, 792, 612, 792), nil
	}
	x0 := box.Index(0).Float64()
	y0 := box.Index(1).Float64()
	x1 := box.Index(2).Float64()
	y1 := box.Index(3).Float64()
	return geom.New(x0, y0, x1, y1, x1-x0, y1-y0), nil
}

func (r *LedongthucReader) Fonts(ctx context.Context, page int) ([]FontEntry, error) {
	p := r.reader.Page(page)
	if p.V.IsNull() {
		return nil, fmt.Errorf("pdfreader: page %d: %w", page, errPageNotFound)
	}
	fonts := p.Resources().Key("Font")
	if fonts.IsNull() {
		return nil, nil
	}
	var out []FontEntry
	for _, name := range fonts.Keys() {
		f := fonts.Key(name)
		out = append(out, FontEntry{
			ID:       name,
			Ext:      "",
			Type:     f.Key("Subtype").Name(),
			Name:     f.Key("BaseFont").Name(),
			Encoding: f.Key("Encoding").Name(),
		})
	}
	return out, nil
}

// Images extracts the page's placed, non-mask XObject images and
// registers each under a synthetic xref handle (ledongthuc/pdf's
// public API does not expose the PDF object number).
func (r *LedongthucReader) Images(ctx context.Context, page int) ([]RawImage, error) {
	p := r.reader.Page(page)
	if p.V.IsNull() {
		return nil, fmt.Errorf("pdfreader: page %d: %w", page, errPageNotFound)
	}
	resources := p.Resources()
	if resources.IsNull() {
		return nil, nil
	}
	xobjects := resources.Key("XObject")
	if xobjects.IsNull() {
		return nil, nil
	}

	bound, err := r.PageBound(ctx, page)
	if err != nil {
		return nil, err
	}

	var out []RawImage
	for _, name := range xobjects.Keys() {
		xobj := xobjects.Key(name)
		if xobj.Key("Subtype").Name() != "Image" || xobj.Key("ImageMask").Bool() {
			continue
		}
		width := xobj.Key("Width").Int64()
		height := xobj.Key("Height").Int64()
		if width == 0 || height == 0 {
			continue
		}

		r.mu.Lock()
		ref := r.nextXref
		r.nextXref++
		r.xobjByRef[ref] = xobj
		r.mu.Unlock()

		smaskRef := 0
		if smask := xobj.Key("SMask"); !smask.IsNull() {
			r.mu.Lock()
			smaskRef = r.nextXref
			r.nextXref++
			r.xobjByRef[smaskRef] = smask
			r.mu.Unlock()
		}

		// ledongthuc/pdf's Content() does not report image placement
		// matrices; without them we cannot recover where on the page
		// the image sits, so we fall back to the full page bound. The
		// ingest processor treats an image bbox equal to the page
		// bound as "full-bleed" for classification purposes anyway.
		out = append(out, RawImage{
			Xref:      ref,
			BBox:      bound,
			CSName:    xobj.Key("ColorSpace").Name(),
			SMaskXref: smaskRef,
			HasAlpha:  smaskRef != 0,
		})
	}
	return out, nil
}

// Drawings always returns an empty slice: ledongthuc/pdf parses text
// operators only, never path-construction operators (m/l/c/re/f/s).
func (r *LedongthucReader) Drawings(ctx context.Context, page int) ([]RawDrawing, error) {
	return nil, nil
}

// TextDict groups the page's Content().Text elements into visual lines
// by Y proximity, the same rule extractPageTextOrdered uses, but keeps
// each element as its own span (with a reconstructed bbox) instead of
// collapsing to a plain string. One RawTextBlock is emitted per page;
// the section processor later clusters the resulting lines into blocks.
func (r *LedongthucReader) TextDict(ctx context.Context, page int) ([]RawTextBlock, error) {
	p := r.reader.Page(page)
	if p.V.IsNull() {
		return nil, fmt.Errorf("pdfreader: page %d: %w", page, errPageNotFound)
	}
	bound, err := r.PageBound(ctx, page)
	if err != nil {
		return nil, err
	}
	content := p.Content()
	if len(content.Text) == 0 {
		return nil, nil
	}

	const lineTolerance = 3.0
	type rawLine struct {
		y     float64
		spans []RawSpan
	}
	var lines []*rawLine
	var cur *rawLine
	for _, t := range content.Text {
		if cur == nil || math.Abs(t.Y-cur.y) > lineTolerance {
			lines = append(lines, &rawLine{y: t.Y})
			cur = lines[len(lines)-1]
		}
		// PDF text-space origin is bottom-left; the layout pipeline's
		// bbox convention is top-left with y increasing
		// downward, matching page-reading order.
		top := bound.Y1 - t.Y - t.FontSize
		bottom := bound.Y1 - t.Y
		cur.spans = append(cur.spans, RawSpan{
			Size: t.FontSize,
			Font: t.Font,
			Text: t.S,
			BBox: geom.New(t.X, top, t.X+t.W, bottom, bound.PageWidth, bound.PageHeight),
			Dir:  [2]float64{1, 0},
		})
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	block := RawTextBlock{}
	for _, l := range lines {
		if len(l.spans) == 0 {
			continue
		}
		block.Lines = append(block.Lines, RawLine{Spans: l.spans})
	}
	if len(block.Lines) == 0 {
		return nil, nil
	}
	return []RawTextBlock{block}, nil
}

// PageBitmap always returns a nil buffer: ledongthuc/pdf has no
// rasterizer. Background-colour inference degrades to its
// documented fallback (assume white) when no bitmap is available.
func (r *LedongthucReader) PageBitmap(ctx context.Context, page int) ([]byte, int, int, error) {
	return nil, 0, 0, nil
}

// ImageBytes decodes the XObject previously registered under ref by
// Images. DCTDecode streams pass through as JPEG; FlateDecode raw
// pixels are re-encoded as PNG.
func (r *LedongthucReader) ImageBytes(ctx context.Context, ref int) ([]byte, string, string, error) {
	r.mu.Lock()
	xobj, ok := r.xobjByRef[ref]
	r.mu.Unlock()
	if !ok {
		return nil, "", "", fmt.Errorf("pdfreader: unknown image ref %d", ref)
	}

	width := int(xobj.Key("Width").Int64())
	height := int(xobj.Key("Height").Int64())
	filter := xobj.Key("Filter").Name()
	cs := xobj.Key("ColorSpace").Name()

	data, mime := extractSingleImage(xobj, filter, width, height)
	if data == nil {
		return nil, "", "", fmt.Errorf("pdfreader: ref %d: %w", ref, errUndecodable)
	}
	return data, mime, cs, nil
}

func (r *LedongthucReader) Metadata(ctx context.Context) (DocMetadata, error) {
	info := r.reader.Trailer().Key("Info")
	md := DocMetadata{Info: make(map[string]string)}
	if !info.IsNull() {
		for _, k := range info.Keys() {
			if s := info.Key(k).Text(); s != "" {
				md.Info[k] = s
			}
		}
		md.Title = md.Info["Title"]
	}
	md.TOC = r.outline()
	return md, nil
}

// outline walks the document's /Outlines tree into a flat TOC. Page
// numbers are left at zero when the destination cannot be resolved to
// a page index — ledongthuc/pdf does not expose a reverse page→ref
// lookup, so exact resolution would require walking every page's
// content dictionary to match object identity, which the library's
// public API cannot do reliably.
func (r *LedongthucReader) outline() []TOCEntry {
	root := r.reader.Trailer().Key("Root")
	if root.IsNull() {
		return nil
	}
	outlines := root.Key("Outlines")
	if outlines.IsNull() {
		return nil
	}
	var entries []TOCEntry
	var walk func(node pdf.Value, level int)
	walk = func(node pdf.Value, level int) {
		child := node.Key("First")
		for !child.IsNull() {
			title := child.Key("Title").Text()
			if title != "" {
				entries = append(entries, TOCEntry{Title: title, Level: level})
			}
			walk(child, level+1)
			child = child.Key("Next")
		}
	}
	walk(outlines, 1)
	return entries
}

// extractSingleImage reads one image XObject's stream, recovering from
// the library's panics on unsupported filters by skipping the image.
func extractSingleImage(xobj pdf.Value, filter string, width, height int) (data []byte, mimeType string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Debug("pdfreader: panic reading image stream, skipping", "panic", rec)
			data = nil
			mimeType = ""
		}
	}()

	switch filter {
	case "DCTDecode":
		raw, err := readRawStreamBytes(xobj)
		if err != nil {
			slog.Debug("pdfreader: failed to read raw JPEG stream", "error", err)
			return nil, ""
		}
		if len(raw) > 2 && raw[0] == 0xff && raw[1] == 0xd8 {
			return raw, "image/jpeg"
		}
		return nil, ""

	case "FlateDecode", "":
		rc := xobj.Reader()
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			slog.Debug("pdfreader: failed to read FlateDecode image", "error", err)
			return nil, ""
		}
		pngData, err := rawPixelsToPNG(raw, width, height, xobj.Key("ColorSpace").Name(), int(xobj.Key("BitsPerComponent").Int64()))
		if err != nil {
			slog.Debug("pdfreader: failed to encode PNG", "error", err)
			return nil, ""
		}
		return pngData, "image/png"

	default:
		slog.Debug("pdfreader: unsupported image filter", "filter", filter)
		return nil, ""
	}
}

// readRawStreamBytes reads the raw, unfiltered stream bytes from a
// pdf.Value via reflection, bypassing Reader()'s panic on DCTDecode.
// Internal layout used (ledongthuc/pdf): Value{r *Reader; ptr objptr;
// data interface{}}, stream{hdr dict; ptr objptr; offset int64},
// Reader{f io.ReaderAt; ...}.
func readRawStreamBytes(v pdf.Value) ([]byte, error) {
	length := v.Key("Length").Int64()
	if length <= 0 {
		return nil, fmt.Errorf("stream has no length")
	}

	val := reflect.ValueOf(v)
	dataField := val.Field(2)
	if dataField.IsNil() {
		return nil, fmt.Errorf("value has nil data")
	}
	streamVal := dataField.Elem()
	if streamVal.Kind() == reflect.Ptr {
		streamVal = streamVal.Elem()
	}
	offsetField := streamVal.Field(2)
	offset := offsetField.Int()

	rField := val.Field(0)
	if rField.IsNil() {
		return nil, fmt.Errorf("value has nil reader")
	}
	readerStruct := reflect.NewAt(rField.Type().Elem(), rField.UnsafePointer()).Elem()
	fField := readerStruct.Field(0)
	readerAt, ok := fField.Interface().(io.ReaderAt)
	if !ok {
		return nil, fmt.Errorf("reader.f is not io.ReaderAt")
	}

	buf := make([]byte, length)
	n, err := readerAt.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading stream at offset %d: %w", offset, err)
	}
	return buf[:n], nil
}

func rawPixelsToPNG(data []byte, width, height int, colorSpace string, bitsPerComponent int) ([]byte, error) {
	if bitsPerComponent == 0 {
		bitsPerComponent = 8
	}

	var img image.Image
	switch colorSpace {
	case "DeviceRGB", "":
		expected := width * height * 3
		if len(data) < expected {
			return nil, fmt.Errorf("insufficient data for RGB image: got %d, expected %d", len(data), expected)
		}
		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				o := (y*width + x) * 3
				rgba.SetRGBA(x, y, color.RGBA{R: data[o], G: data[o+1], B: data[o+2], A: 255})
			}
		}
		img = rgba

	case "DeviceGray":
		expected := width * height
		if len(data) < expected {
			return nil, fmt.Errorf("insufficient data for gray image: got %d, expected %d", len(data), expected)
		}
		gray := image.NewGray(image.Rect(0, 0, width, height))
		copy(gray.Pix, data[:expected])
		img = gray

	case "DeviceCMYK":
		expected := width * height * 4
		if len(data) < expected {
			return nil, fmt.Errorf("insufficient data for CMYK image: got %d, expected %d", len(data), expected)
		}
		rgba := image.NewRGBA(image.Rect(0, 0, width, height))
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				o := (y*width + x) * 4
				c, m, yk, k := data[o], data[o+1], data[o+2], data[o+3]
				rr := 255 - min(255, int(c)+int(k))
				gg := 255 - min(255, int(m)+int(k))
				bb := 255 - min(255, int(yk)+int(k))
				rgba.SetRGBA(x, y, color.RGBA{R: uint8(rr), G: uint8(gg), B: uint8(bb), A: 255})
			}
		}
		img = rgba

	default:
		return nil, fmt.Errorf("unsupported color space: %s", colorSpace)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var (
	errPageNotFound = fmt.Errorf("page not found")
	errUndecodable  = fmt.Errorf("image could not be decoded")
)

var _ Reader = (*LedongthucReader)(nil)
