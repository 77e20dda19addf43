package tablemodel

import (
	"context"
	"testing"
)

func TestNoopDetectorNeverDetects(t *testing.T) {
	d := NoopDetector{}
	dets, err := d.Detect(context.Background(), nil, 100, 100, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dets) != 0 {
		t.Fatalf("expected no detections, got %d", len(dets))
	}
	if d.Available() {
		t.Fatal("noop detector must report unavailable")
	}
}

func TestDecodeBoxesFiltersByThreshold(t *testing.T) {
	raw := []float32{
		0.5, 0.5, 0.2, 0.2, 0.9, 0, // above threshold
		0.3, 0.3, 0.1, 0.1, 0.1, 0, // below threshold
	}
	dets := decodeBoxes(raw, 1000, 1000, 0.5)
	if len(dets) != 1 {
		t.Fatalf("expected 1 detection above threshold, got %d", len(dets))
	}
	if dets[0].Confidence != float64(float32(0.9)) {
		t.Fatalf("expected confidence 0.9, got %v", dets[0].Confidence)
	}
}

func TestDecodeBoxesScalesToPageSpace(t *testing.T) {
	raw := []float32{0.5, 0.5, 0.5, 0.5, 1.0, 0}
	dets := decodeBoxes(raw, 200, 100, 0.1)
	if len(dets) != 1 {
		t.Fatalf("expected 1 detection, got %d", len(dets))
	}
	b := dets[0].BBox
	if b.X0 != 50 || b.X1 != 150 || b.Y0 != 25 || b.Y1 != 75 {
		t.Fatalf("unexpected bbox scaling: %+v", b)
	}
}

func TestSortUniqueSorts(t *testing.T) {
	xs := []float64{5, 1, 3, 2, 4}
	sortUnique(xs)
	want := []float64{1, 2, 3, 4, 5}
	for i := range want {
		if xs[i] != want[i] {
			t.Fatalf("got %v, want %v", xs, want)
		}
	}
}
