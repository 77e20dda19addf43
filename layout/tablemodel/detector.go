// Package tablemodel wraps the optional table-detection and table-
// structure-recognition model backend. The layout
// pipeline depends only on the Detector interface; ONNXDetector is the
// real backend, and NoopDetector lets the pipeline run (skipping the
// ML table processor, falling back to the rules-based one from
// layout/table) when no model weights are configured.
package tablemodel

import (
	"context"
	"fmt"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// Detection is one candidate table region with a confidence score.
type Detection struct {
	BBox       geom.Bbox
	Confidence float64
}

// Cell is one recognised table cell, given as a grid position plus its
// bounding box — row/column spans follow from adjacent cells sharing a
// RowStart/ColStart.
type Cell struct {
	BBox              geom.Bbox
	RowStart, RowEnd  int
	ColStart, ColEnd  int
	IsColumnHeader    bool
	IsRowHeader       bool
}

// Structure is the recognised row/column layout of one detected table.
type Structure struct {
	Cells   []Cell
	NumRows int
	NumCols int
}

// Detector is the object-detection/structure-recognition collaborator.
// Detect finds candidate table regions on a page bitmap; Recognize
// finds the row/column structure within one already-cropped region.
type Detector interface {
	Detect(ctx context.Context, bitmap []byte, width, height int, threshold float64) ([]Detection, error)
	Recognize(ctx context.Context, bitmap []byte, width, height int, region geom.Bbox, threshold float64) (Structure, error)
	Close() error
}

// Available reports whether the detector has usable model weights
// loaded. The CLI uses this at construction time to decide whether to
// add the table-ML processor (layout/table) to the pipeline at all, and
// that processor returns without work when it reports false, rather
// than erroring mid-run on every page.
type Available interface {
	Available() bool
}

var errNotAvailable = fmt.Errorf("tablemodel: model not available")
