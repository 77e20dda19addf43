package geom

import "testing"

func box(x0, y0, x1, y1 float64) Bbox {
	return New(x0, y0, x1, y1, 600, 800)
}

func TestXOverlapSelf(t *testing.T) {
	b := box(10, 10, 110, 60)
	if got := b.XOverlap(b, NormNone); got != b.Width(false) {
		t.Fatalf("XOverlap(self, none) = %v, want %v", got, b.Width(false))
	}
	if got := b.XOverlap(b, NormFirst); got != 1.0 {
		t.Fatalf("XOverlap(self, first) = %v, want 1.0", got)
	}
}

func TestOverlapSymmetric(t *testing.T) {
	a := box(0, 0, 50, 50)
	b := box(25, 25, 100, 100)
	for _, n := range []Norm{NormNone, NormMin, NormMax, NormPage} {
		if got, want := a.XOverlap(b, n), b.XOverlap(a, n); got != want {
			t.Errorf("x_overlap not symmetric under norm %v: %v != %v", n, got, want)
		}
		if got, want := a.YOverlap(b, n), b.YOverlap(a, n); got != want {
			t.Errorf("y_overlap not symmetric under norm %v: %v != %v", n, got, want)
		}
	}
}

func TestOverlapBelowEpsilonIsZero(t *testing.T) {
	a := box(0, 0, 10, 10)
	b := box(10.005, 0, 20, 10)
	if got := a.XOverlap(b, NormNone); got != 0 {
		t.Fatalf("tiny overlap should clamp to 0, got %v", got)
	}
}

func TestSliverInsideSaturates(t *testing.T) {
	outer := box(0, 0, 100, 10)
	sliver := box(50, 0, 50.5, 10)
	if got := outer.XOverlap(sliver, NormSecond); got != 1.0 {
		t.Fatalf("sliver fully inside outer should saturate to 1 under 'second', got %v", got)
	}
}

func TestMergeSingleIsIdentity(t *testing.T) {
	b := box(1, 2, 3, 4)
	m := Merge([]Bbox{b})
	if m != b {
		t.Fatalf("Merge([b]) = %+v, want %+v", m, b)
	}
}

func TestMergeAssociative(t *testing.T) {
	a := box(0, 0, 10, 10)
	b := box(5, 5, 20, 20)
	c := box(-5, -5, 2, 2)
	left := Merge([]Bbox{Merge([]Bbox{a, b}), c})
	right := Merge([]Bbox{a, Merge([]Bbox{b, c})})
	if left != right {
		t.Fatalf("Merge not associative: %+v != %+v", left, right)
	}
}

func TestXDistanceSign(t *testing.T) {
	a := box(0, 0, 10, 10)
	b := box(100, 0, 110, 10)
	if d := a.XDistance(b); d <= 0 {
		t.Fatalf("expected positive x distance when other is to the right, got %v", d)
	}
	if d := b.XDistance(a); d >= 0 {
		t.Fatalf("expected negative x distance when other is to the left, got %v", d)
	}
}
