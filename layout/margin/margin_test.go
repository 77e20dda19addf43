package margin

import (
	"context"
	"testing"

	"github.com/bbiangul/goreason-layout/layout"
	"github.com/bbiangul/goreason-layout/layout/elements"
	"github.com/bbiangul/goreason-layout/layout/geom"
)

const (
	testPageWidth  = 600.0
	testPageHeight = 800.0
)

func marginLine(x0, y0, x1, y1 float64, text string, rotation [2]float64) *elements.Line {
	f := elements.NewFont("Arial", 11, 0, 0)
	bbox := geom.New(x0, y0, x1, y1, testPageWidth, testPageHeight)
	return elements.NewLine([]*elements.Span{elements.NewSpan(bbox, f, text)}, rotation)
}

// TestMarginProcessorClassifiesByPosition builds one page of lines placed
// to independently exercise each branch of the classifier: a header near
// the top with a wide body-ward gap, a body paragraph, an ordinary footer
// line and an extracted page number near the bottom, and a rotated left
// sidebar plus an unrotated right sidebar. Horizontal, then reading-order
// vertical, overlaps are chosen so each line's up/down adjacency is
// unambiguous.
func TestMarginProcessorClassifiesByPosition(t *testing.T) {
	horizontal := [2]float64{1, 0}
	rotated := [2]float64{0.5, 0.866} // cos<0.7

	header := marginLine(50, 10, 250, 25, "Header Text", horizontal)
	body := marginLine(50, 350, 400, 400, "Body paragraph text", horizontal)
	footerNumber := marginLine(250, 770, 280, 785, "7", horizontal)
	footerText := marginLine(350, 770, 450, 785, "Page Footer", horizontal)
	leftSidebar := marginLine(40, 410, 55, 600, "Rotated sidebar", rotated)
	rightSidebar := marginLine(580, 410, 595, 600, "Margin note", horizontal)

	bag := layout.NewStateBag()
	const page = 1
	bag.PageBounds[page] = geom.New(0, 0, testPageWidth, testPageHeight, testPageWidth, testPageHeight)
	bag.TextElements[page] = []*elements.Line{header, body, footerNumber, footerText, leftSidebar, rightSidebar}

	if err := New().Process(context.Background(), bag); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if got := bag.Headers[page]; len(got) != 1 || got[0] != header {
		t.Fatalf("expected the top line classified as a header, got %v", got)
	}
	if got := bag.TextElements[page]; len(got) != 1 || got[0] != body {
		t.Fatalf("expected the paragraph left in body text_elements, got %v", got)
	}
	if got := bag.Footers[page]; len(got) != 1 || got[0] != footerText {
		t.Fatalf("expected the non-numeric bottom line classified as a footer, got %v", got)
	}
	if n, ok := bag.ExtractedPageNumber[page]; !ok || n != 7 {
		t.Fatalf("expected the numeric bottom line extracted as page number 7, got %v ok=%v", n, ok)
	}
	if got := bag.LeftSidebar[page]; len(got) != 1 || got[0] != leftSidebar {
		t.Fatalf("expected the rotated narrow-left line classified as left sidebar, got %v", got)
	}
	if got := bag.RightSidebar[page]; len(got) != 1 || got[0] != rightSidebar {
		t.Fatalf("expected the far-right line classified as right sidebar, got %v", got)
	}
}

// TestMarginProcessorRotationThreshold pins the 0.7 rotation cosine
// threshold: a line just inside the 0.05-0.1 left-margin band is only
// pulled into the sidebar when its rotation cosine drops below 0.7.
func TestMarginProcessorRotationThreshold(t *testing.T) {
	body := marginLine(50, 350, 400, 400, "Body paragraph text", [2]float64{1, 0})

	newBag := func(candidate *elements.Line) *layout.StateBag {
		bag := layout.NewStateBag()
		const page = 1
		bag.PageBounds[page] = geom.New(0, 0, testPageWidth, testPageHeight, testPageWidth, testPageHeight)
		bag.TextElements[page] = []*elements.Line{body, candidate}
		return bag
	}

	// leftFrac = 40/600 ≈ 0.067, inside (0.05, 0.1): requires rotated.
	justBelowThreshold := marginLine(40, 410, 45, 600, "Almost sidebar", [2]float64{0.69, 0.72})
	bag := newBag(justBelowThreshold)
	if err := New().Process(context.Background(), bag); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if got := bag.LeftSidebar[1]; len(got) != 1 || got[0] != justBelowThreshold {
		t.Fatalf("expected rotation 0.69 (< 0.7) to count as rotated and join the sidebar, got %v", got)
	}

	atThreshold := marginLine(40, 410, 45, 600, "Not quite sidebar", [2]float64{0.7, 0.714})
	bag = newBag(atThreshold)
	if err := New().Process(context.Background(), bag); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if got := bag.LeftSidebar[1]; len(got) != 0 {
		t.Fatalf("expected rotation exactly 0.7 to not count as rotated, got sidebar %v", got)
	}
	if got := bag.TextElements[1]; len(got) != 2 {
		t.Fatalf("expected the unrotated near-margin line to fall through to body text, got %v", got)
	}
}
