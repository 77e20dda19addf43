package ingest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

// imageStore deduplicates decoded image blobs by content hash within
// one page; each element records an index into it rather than carrying
// the bytes.
type imageStore struct {
	blobs   [][]byte
	byHash  map[string]int
}

func newImageStore() *imageStore {
	return &imageStore{byHash: map[string]int{}}
}

func (s *imageStore) add(data []byte) int {
	h := hashBytes(data)
	if idx, ok := s.byHash[h]; ok {
		return idx
	}
	idx := len(s.blobs)
	s.blobs = append(s.blobs, data)
	s.byHash[h] = idx
	return idx
}

// extractPageImages decodes each raw image, merges its soft mask,
// crops transparent borders, classifies it, and registers the decoded
// bytes in store.
func (p *Processor) extractPageImages(ctx context.Context, page int, bound geom.Bbox, bg color.RGBA, store *imageStore) (map[elements.ImageType][]*elements.Image, error) {
	raws, err := p.Reader.Images(ctx, page)
	if err != nil {
		return nil, err
	}
	out := map[elements.ImageType][]*elements.Image{}
	for _, raw := range raws {
		data, _, _, err := p.Reader.ImageBytes(ctx, raw.Xref)
		if err != nil || len(data) == 0 {
			continue
		}
		placed := raw.BBox
		if raw.SMaskXref != 0 {
			if maskData, _, _, merr := p.Reader.ImageBytes(ctx, raw.SMaskXref); merr == nil {
				if merged, ok := mergeSoftMask(data, maskData); ok {
					data = merged
				}
			}
		}
		if cropped, box, ok := cropTransparentBorder(data, placed); ok {
			data, placed = cropped, box
		}
		idx := store.add(data)
		typ := classifyImage(placed, bound, data, bg)
		img := elements.NewImage(placed, raw.BBox, idx, typ)
		out[typ] = append(out[typ], img)
	}
	return out, nil
}

// mergeSoftMask applies a PDF soft mask (a grayscale image of the same
// nominal shape) as the alpha channel of the base image.
func mergeSoftMask(data, maskData []byte) ([]byte, bool) {
	base, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	mask, _, err := image.Decode(bytes.NewReader(maskData))
	if err != nil {
		return nil, false
	}
	b := base.Bounds()
	if mask.Bounds() != b {
		mask = imaging.Resize(mask, b.Dx(), b.Dy(), imaging.Linear)
	}
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := base.At(x, y).RGBA()
			mr, _, _, _ := mask.At(x, y).RGBA()
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8),
				A: uint8(mr >> 8),
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// cropTransparentBorder trims fully transparent edges off the decoded
// image and shrinks the placed page-space bbox by the same fractions, so
// the element's geometry tracks its visible pixels.
func cropTransparentBorder(data []byte, placed geom.Bbox) ([]byte, geom.Bbox, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, geom.Bbox{}, false
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, geom.Bbox{}, false
	}

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	opaqueFound := false
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				opaqueFound = true
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x+1 > maxX {
					maxX = x + 1
				}
				if y+1 > maxY {
					maxY = y + 1
				}
			}
		}
	}
	visible := image.Rect(minX, minY, maxX, maxY)
	if !opaqueFound || visible == b {
		return nil, geom.Bbox{}, false
	}

	cropped := imaging.Crop(img, visible)
	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, geom.Bbox{}, false
	}

	sx := placed.Width(false) / float64(w)
	sy := placed.Height(false) / float64(h)
	box := geom.New(
		placed.X0+float64(visible.Min.X-b.Min.X)*sx,
		placed.Y0+float64(visible.Min.Y-b.Min.Y)*sy,
		placed.X0+float64(visible.Max.X-b.Min.X)*sx,
		placed.Y0+float64(visible.Max.Y-b.Min.Y)*sy,
		placed.PageWidth, placed.PageHeight,
	)
	return buf.Bytes(), box, true
}

// classifyImage assigns a layout role by the classification decision
// tree: coverage, aspect extremes, interior variance, palette distance
// from the page background, page-edge position.
func classifyImage(bbox, page geom.Bbox, data []byte, bg color.RGBA) elements.ImageType {
	xCov := bbox.Width(true)
	yCov := bbox.Height(true)
	pageCoverage := xCov * yCov

	if pageCoverage <= 0.0001 {
		return elements.ImageInvisible
	}

	onEdge := onPageEdge(bbox, page)
	if (xCov < 0.05 && yCov > 0.1) || (yCov < 0.05 && xCov > 0.1) {
		if !onEdge {
			return elements.ImageLine
		}
		return elements.ImageDecorative
	}

	xv, yv, alphaMean, multiColour, primary := decodedStats(data)
	distFromBg := colourDistance(primary, bg)

	if xv+yv < 200 && alphaMean > 0.95 && !multiColour {
		if pageCoverage > 0.9 {
			return elements.ImageBackground
		}
		if pageCoverage > 0.1 && distFromBg > 400 {
			return elements.ImageSection
		}
	}

	asymmetric := (xv > 4*yv || yv > 4*xv) && (xv+yv > 50)
	if asymmetric && distFromBg > 400 {
		return elements.ImageGradient
	}

	if onEdge && pageCoverage < 0.02 {
		return elements.ImageDecorative
	}

	return elements.ImagePrimary
}

func onPageEdge(bbox, page geom.Bbox) bool {
	const tol = 2
	return bbox.X0 <= page.X0+tol || bbox.Y0 <= page.Y0+tol ||
		bbox.X1 >= page.X1-tol || bbox.Y1 >= page.Y1-tol
}

// decodedStats decodes the image bytes and computes interior variance
// along each axis, mean alpha, whether the palette is strongly
// multi-coloured, and the primary (most frequent) colour.
func decodedStats(data []byte) (xv, yv float64, alphaMean float64, multiColour bool, primary color.RGBA) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, 1, false, color.RGBA{}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 1, false, color.RGBA{}
	}

	counts := map[color.RGBA]int{}
	var rowMeans, colMeans []float64
	rowMeans = make([]float64, h)
	colMeans = make([]float64, w)
	var alphaSum float64
	total := 0

	step := 1
	if w*h > 10000 {
		step = (w * h) / 10000
		if step < 1 {
			step = 1
		}
	}
	for y := 0; y < h; y += 1 {
		for x := 0; x < w; x += step {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			c := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(bl >> 8), A: uint8(a >> 8)}
			counts[c]++
			lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
			rowMeans[y] += lum
			colMeans[x] += lum
			alphaSum += float64(c.A) / 255
			total++
		}
	}
	if total == 0 {
		return 0, 0, 1, false, color.RGBA{}
	}
	alphaMean = alphaSum / float64(total)

	xv = variance(colMeans)
	yv = variance(rowMeans)

	best := color.RGBA{}
	bestCount := 0
	for c, n := range counts {
		if n > bestCount {
			best, bestCount = c, n
		}
	}
	multiColour = len(counts) > total/4

	return xv, yv, alphaMean, multiColour, best
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var v float64
	for _, x := range xs {
		d := x - mean
		v += d * d
	}
	return v / float64(len(xs))
}
