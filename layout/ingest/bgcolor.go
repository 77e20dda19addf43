package ingest

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// downscaleSide is the target square side for the blurred copy the
// background-colour estimate is computed over. Downscaling with a
// bilinear kernel already acts as a cheap blur, so no separate blur
// pass is run.
const downscaleSide = 64

// pageBackgroundColour estimates the page's dominant background colour
// by 2-means clustering over a downscaled copy of the page bitmap.
// Returns white when no bitmap is available — ledongthuc/pdf (the only
// wired reader) has no rasterizer, so this is the common case.
func pageBackgroundColour(bitmap []byte, width, height int) color.RGBA {
	if len(bitmap) == 0 || width <= 0 || height <= 0 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	src := &image.RGBA{Pix: bitmap, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	dst := image.NewRGBA(image.Rect(0, 0, downscaleSide, downscaleSide))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return kmeansDominant(dst.Pix, 2)
}

// kmeansDominant runs k-means over RGBA pixel bytes and returns the
// centroid with the most assigned pixels.
func kmeansDominant(pix []byte, k int) color.RGBA {
	n := len(pix) / 4
	if n == 0 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	type centroid struct{ r, g, b float64 }
	centroids := make([]centroid, k)
	for i := range centroids {
		idx := (i * n / k) * 4
		centroids[i] = centroid{float64(pix[idx]), float64(pix[idx+1]), float64(pix[idx+2])}
	}

	assignment := make([]int, n)
	for iter := 0; iter < 6; iter++ {
		sums := make([]centroid, k)
		counts := make([]int, k)
		for p := 0; p < n; p++ {
			r, g, b := float64(pix[p*4]), float64(pix[p*4+1]), float64(pix[p*4+2])
			best, bestDist := 0, distSq(r, g, b, centroids[0])
			for c := 1; c < k; c++ {
				if d := distSq(r, g, b, centroids[c]); d < bestDist {
					best, bestDist = c, d
				}
			}
			assignment[p] = best
			sums[best].r += r
			sums[best].g += g
			sums[best].b += b
			counts[best]++
		}
		for c := 0; c < k; c++ {
			if counts[c] > 0 {
				centroids[c] = centroid{sums[c].r / float64(counts[c]), sums[c].g / float64(counts[c]), sums[c].b / float64(counts[c])}
			}
		}
	}

	counts := make([]int, k)
	for _, a := range assignment {
		counts[a]++
	}
	best := 0
	for c := 1; c < k; c++ {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return color.RGBA{R: uint8(centroids[best].r), G: uint8(centroids[best].g), B: uint8(centroids[best].b), A: 255}
}

func distSq(r, g, b float64, c struct{ r, g, b float64 }) float64 {
	dr, dg, db := r-c.r, g-c.g, b-c.b
	return dr*dr + dg*dg + db*db
}

// colourDistance is the squared Euclidean RGB distance used by the image and
// drawing classification decision trees to compare a candidate colour
// against the page background.
func colourDistance(a, b color.RGBA) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return dr*dr + dg*dg + db*db
}

func rgbaFromUint32(c uint32) color.RGBA {
	return color.RGBA{
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
		A: 255,
	}
}
