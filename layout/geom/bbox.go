// Package geom provides the axis-aligned bounding-box and point primitives
// shared by every layout-analysis stage. All geometry lives in page
// coordinate space with a known page width and height.
package geom

import "math"

// epsilon is the minimum projected overlap considered non-zero.
const epsilon = 0.01

// Norm selects how an overlap or projection is expressed relative to the
// two boxes being compared.
type Norm int

const (
	// NormNone returns the raw overlap length, unnormalised.
	NormNone Norm = iota
	// NormFirst normalises by the calling box's own extent.
	NormFirst
	// NormSecond normalises by the passed box's extent.
	NormSecond
	// NormMin normalises by the smaller of the two extents.
	NormMin
	// NormMax normalises by the larger of the two extents.
	NormMax
	// NormPage normalises by the page extent.
	NormPage
)

// Point is a single page-space coordinate.
type Point struct {
	X, Y float64
}

// Bbox is an axis-aligned rectangle in page coordinate space, carrying the
// dimensions of the page it was measured on so normalised quantities can be
// derived without extra arguments.
//
// Invariant: X0 <= X1 and Y0 <= Y1.
type Bbox struct {
	X0, Y0, X1, Y1 float64
	PageWidth      float64
	PageHeight     float64
}

// New builds a Bbox, swapping coordinates as needed to satisfy the
// X0<=X1, Y0<=Y1 invariant.
func New(x0, y0, x1, y1, pageWidth, pageHeight float64) Bbox {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return Bbox{X0: x0, Y0: y0, X1: x1, Y1: y1, PageWidth: pageWidth, PageHeight: pageHeight}
}

// Width returns the box width, optionally normalised by page width.
func (b Bbox) Width(norm bool) float64 {
	w := b.X1 - b.X0
	if norm && b.PageWidth != 0 {
		return w / b.PageWidth
	}
	return w
}

// Height returns the box height, optionally normalised by page height.
func (b Bbox) Height(norm bool) float64 {
	h := b.Y1 - b.Y0
	if norm && b.PageHeight != 0 {
		return h / b.PageHeight
	}
	return h
}

// Center returns the box's center point, optionally page-normalised.
func (b Bbox) Center(norm bool) Point {
	cx := b.X0 + 0.5*(b.X1-b.X0)
	cy := b.Y0 + 0.5*(b.Y1-b.Y0)
	if norm {
		if b.PageWidth != 0 {
			cx /= b.PageWidth
		}
		if b.PageHeight != 0 {
			cy /= b.PageHeight
		}
	}
	return Point{X: cx, Y: cy}
}

// X0Norm, X1Norm, Y0Norm, Y1Norm return the respective edge normalised by
// the page dimension on that axis.
func (b Bbox) X0Norm() float64 {
	if b.PageWidth == 0 {
		return 0
	}
	return b.X0 / b.PageWidth
}

func (b Bbox) X1Norm() float64 {
	if b.PageWidth == 0 {
		return 0
	}
	return b.X1 / b.PageWidth
}

func (b Bbox) Y0Norm() float64 {
	if b.PageHeight == 0 {
		return 0
	}
	return b.Y0 / b.PageHeight
}

func (b Bbox) Y1Norm() float64 {
	if b.PageHeight == 0 {
		return 0
	}
	return b.Y1 / b.PageHeight
}

// Area returns the box area, optionally normalised by page area.
func (b Bbox) Area(norm bool) float64 {
	a := (b.X1 - b.X0) * (b.Y1 - b.Y0)
	if norm && b.PageWidth != 0 && b.PageHeight != 0 {
		return a / (b.PageWidth * b.PageHeight)
	}
	return a
}

// IsVertical reports whether the box is taller than it is wide.
func (b Bbox) IsVertical() bool {
	return b.Height(false) > b.Width(false)
}

// Clone returns a copy of the box.
func (b Bbox) Clone() Bbox {
	return b
}

func extentWidth(norm Norm, a, other Bbox) float64 {
	switch norm {
	case NormFirst:
		return a.Width(false)
	case NormSecond:
		return other.Width(false)
	case NormMin:
		return math.Min(a.Width(false), other.Width(false))
	case NormMax:
		return math.Max(a.Width(false), other.Width(false))
	case NormPage:
		return a.PageWidth
	default:
		return 1
	}
}

func extentHeight(norm Norm, a, other Bbox) float64 {
	switch norm {
	case NormFirst:
		return a.Height(false)
	case NormSecond:
		return other.Height(false)
	case NormMin:
		return math.Min(a.Height(false), other.Height(false))
	case NormMax:
		return math.Max(a.Height(false), other.Height(false))
	case NormPage:
		return a.PageHeight
	default:
		return 1
	}
}

// XOverlap computes the projected overlap of b and other on the x axis.
// With NormNone it returns a length; otherwise a ratio in [0,1]. Overlap
// below epsilon is reported as 0. A near-zero-width extent that still has
// positive raw overlap saturates to 1 (a sliver box fully straddled by the
// other box counts as fully overlapping under that normalisation).
func (b Bbox) XOverlap(other Bbox, norm Norm) float64 {
	raw := math.Max(math.Min(b.X1, other.X1)-math.Max(b.X0, other.X0), 0)
	if raw < epsilon {
		return 0
	}
	if norm == NormNone {
		return raw
	}
	extent := extentWidth(norm, b, other)
	if extent < 1 && raw > 0 {
		return 1
	}
	return raw / extent
}

// YOverlap computes the projected overlap of b and other on the y axis.
func (b Bbox) YOverlap(other Bbox, norm Norm) float64 {
	raw := math.Max(math.Min(b.Y1, other.Y1)-math.Max(b.Y0, other.Y0), 0)
	if raw < epsilon {
		return 0
	}
	if norm == NormNone {
		return raw
	}
	extent := extentHeight(norm, b, other)
	if extent < 1 && raw > 0 {
		return 1
	}
	return raw / extent
}

// Overlap computes the combined area overlap between b and other.
// NormMin/NormMax pick the smaller/larger-area box per axis consistently
// (both axes normalise against whichever box has the smaller/larger area).
func (b Bbox) Overlap(other Bbox, norm Norm) float64 {
	effective := norm
	if norm == NormMin {
		if b.Area(false) < other.Area(false) {
			effective = NormFirst
		} else {
			effective = NormSecond
		}
	} else if norm == NormMax {
		if b.Area(false) > other.Area(false) {
			effective = NormFirst
		} else {
			effective = NormSecond
		}
	}
	return b.XOverlap(other, effective) * b.YOverlap(other, effective)
}

// XDistance returns the signed center-to-center distance in x: positive
// when other lies to the right of b.
func (b Bbox) XDistance(other Bbox) float64 {
	return other.Center(false).X - b.Center(false).X
}

// YDistance returns the signed center-to-center distance in y: positive
// when other lies below b.
func (b Bbox) YDistance(other Bbox) float64 {
	return other.Center(false).Y - b.Center(false).Y
}

// Merge returns the smallest enclosing Bbox over all given boxes. Panics
// if bboxes is empty; callers are expected to guard on length themselves,
// matching the precondition that there is always at least one element to
// merge.
func Merge(bboxes []Bbox) Bbox {
	if len(bboxes) == 0 {
		panic("geom: Merge requires at least one bbox")
	}
	out := bboxes[0]
	for _, bb := range bboxes[1:] {
		if bb.X0 < out.X0 {
			out.X0 = bb.X0
		}
		if bb.Y0 < out.Y0 {
			out.Y0 = bb.Y0
		}
		if bb.X1 > out.X1 {
			out.X1 = bb.X1
		}
		if bb.Y1 > out.Y1 {
			out.Y1 = bb.Y1
		}
	}
	return out
}
