package tablemodel

import (
	"context"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// NoopDetector satisfies Detector without ever reporting a detection.
// It is the default when no ONNX model path is configured, so the
// pipeline can still run end to end with only the rules-based table
// processor (layout/table) active.
type NoopDetector struct{}

func (NoopDetector) Detect(ctx context.Context, bitmap []byte, width, height int, threshold float64) ([]Detection, error) {
	return nil, nil
}

func (NoopDetector) Recognize(ctx context.Context, bitmap []byte, width, height int, region geom.Bbox, threshold float64) (Structure, error) {
	return Structure{}, nil
}

func (NoopDetector) Close() error { return nil }

func (NoopDetector) Available() bool { return false }

var (
	_ Detector  = NoopDetector{}
	_ Available = NoopDetector{}
)
