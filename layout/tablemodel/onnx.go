package tablemodel

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/bbiangul/goreason-layout/layout/geom"
)

// detectInputSide and structureInputSide are the square input
// resolutions the bundled detection/structure-recognition ONNX graphs
// expect; both models follow the table-transformer convention of a
// fixed square input with ImageNet-style normalisation.
const (
	detectInputSide   = 800
	structureInputSide = 448
)

var imagenetMean = [3]float32{0.485, 0.456, 0.406}
var imagenetStd = [3]float32{0.229, 0.224, 0.225}

// ONNXDetector runs table detection and structure recognition through
// onnxruntime_go. Detection and structure recognition use separate
// model files, matching how table-transformer ships them.
type ONNXDetector struct {
	mu               sync.Mutex
	detectSession    *ort.AdvancedSession
	structureSession *ort.AdvancedSession
	detectInput      *ort.Tensor[float32]
	detectOutput     *ort.Tensor[float32]
	structureInput   *ort.Tensor[float32]
	structureOutput  *ort.Tensor[float32]
}

// NewONNXDetector loads the detection and structure-recognition graphs
// from the given paths. sharedLibPath is the platform onnxruntime
// shared library (.so/.dylib/.dll); pass "" to use the runtime's
// compiled-in default search path.
func NewONNXDetector(sharedLibPath, detectModelPath, structureModelPath string) (*ONNXDetector, error) {
	if sharedLibPath != "" {
		ort.SetSharedLibraryPath(sharedLibPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("tablemodel: initializing onnxruntime: %w", err)
	}

	d := &ONNXDetector{}

	detectIn, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, detectInputSide, detectInputSide))
	if err != nil {
		return nil, fmt.Errorf("tablemodel: allocating detect input tensor: %w", err)
	}
	detectOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 100, 6))
	if err != nil {
		return nil, fmt.Errorf("tablemodel: allocating detect output tensor: %w", err)
	}
	detectSession, err := ort.NewAdvancedSession(detectModelPath,
		[]string{"pixel_values"}, []string{"logits_boxes"},
		[]ort.Value{detectIn}, []ort.Value{detectOut}, nil)
	if err != nil {
		return nil, fmt.Errorf("tablemodel: loading detection model %s: %w", detectModelPath, err)
	}

	structureIn, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, structureInputSide, structureInputSide))
	if err != nil {
		return nil, fmt.Errorf("tablemodel: allocating structure input tensor: %w", err)
	}
	structureOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 200, 6))
	if err != nil {
		return nil, fmt.Errorf("tablemodel: allocating structure output tensor: %w", err)
	}
	structureSession, err := ort.NewAdvancedSession(structureModelPath,
		[]string{"pixel_values"}, []string{"logits_boxes"},
		[]ort.Value{structureIn}, []ort.Value{structureOut}, nil)
	if err != nil {
		return nil, fmt.Errorf("tablemodel: loading structure model %s: %w", structureModelPath, err)
	}

	d.detectSession = detectSession
	d.detectInput = detectIn
	d.detectOutput = detectOut
	d.structureSession = structureSession
	d.structureInput = structureIn
	d.structureOutput = structureOut
	return d, nil
}

func (d *ONNXDetector) Available() bool { return d != nil && d.detectSession != nil }

func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detectSession != nil {
		d.detectSession.Destroy()
	}
	if d.structureSession != nil {
		d.structureSession.Destroy()
	}
	if d.detectInput != nil {
		d.detectInput.Destroy()
	}
	if d.detectOutput != nil {
		d.detectOutput.Destroy()
	}
	if d.structureInput != nil {
		d.structureInput.Destroy()
	}
	if d.structureOutput != nil {
		d.structureOutput.Destroy()
	}
	return ort.DestroyEnvironment()
}

// Detect runs the table-detection graph over the page bitmap and
// returns candidate regions scoring above threshold.
func (d *ONNXDetector) Detect(ctx context.Context, bitmap []byte, width, height int, threshold float64) ([]Detection, error) {
	if !d.Available() {
		return nil, errNotAvailable
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	img := rgbaFromBitmap(bitmap, width, height)
	resized := imaging.Resize(img, detectInputSide, detectInputSide, imaging.Lanczos)
	writeNormalizedCHW(resized, d.detectInput.GetData(), detectInputSide)

	if err := d.detectSession.Run(); err != nil {
		return nil, fmt.Errorf("tablemodel: running detection session: %w", err)
	}

	return decodeBoxes(d.detectOutput.GetData(), width, height, threshold), nil
}

// Recognize runs the structure-recognition graph over a cropped table
// region and returns its recognised row/column cells.
func (d *ONNXDetector) Recognize(ctx context.Context, bitmap []byte, width, height int, region geom.Bbox, threshold float64) (Structure, error) {
	if !d.Available() {
		return Structure{}, errNotAvailable
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	img := rgbaFromBitmap(bitmap, width, height)
	cropRect := image.Rect(int(region.X0), int(region.Y0), int(region.X1), int(region.Y1))
	cropped := imaging.Crop(img, cropRect)
	resized := imaging.Resize(cropped, structureInputSide, structureInputSide, imaging.Lanczos)
	writeNormalizedCHW(resized, d.structureInput.GetData(), structureInputSide)

	if err := d.structureSession.Run(); err != nil {
		return Structure{}, fmt.Errorf("tablemodel: running structure session: %w", err)
	}

	return decodeStructure(d.structureOutput.GetData(), region, threshold), nil
}

func rgbaFromBitmap(bitmap []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, bitmap)
	return img
}

// writeNormalizedCHW converts an RGBA image into planar (channel,
// height, width) float32 data, ImageNet-normalised, the layout every
// table-transformer ONNX export expects for pixel_values.
func writeNormalizedCHW(img image.Image, dst []float32, side int) {
	plane := side * side
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			idx := y*side + x
			dst[0*plane+idx] = (float32(r>>8)/255 - imagenetMean[0]) / imagenetStd[0]
			dst[1*plane+idx] = (float32(g>>8)/255 - imagenetMean[1]) / imagenetStd[1]
			dst[2*plane+idx] = (float32(b>>8)/255 - imagenetMean[2]) / imagenetStd[2]
		}
	}
}

// decodeBoxes reads [cx, cy, w, h, score, class] rows scaled to
// [0,1] model-input space and rescales them to page pixel space.
func decodeBoxes(raw []float32, pageW, pageH int, threshold float64) []Detection {
	const stride = 6
	var out []Detection
	for i := 0; i+stride <= len(raw); i += stride {
		score := float64(raw[i+4])
		if score < threshold {
			continue
		}
		cx, cy, w, h := float64(raw[i]), float64(raw[i+1]), float64(raw[i+2]), float64(raw[i+3])
		x0 := (cx - w/2) * float64(pageW)
		y0 := (cy - h/2) * float64(pageH)
		x1 := (cx + w/2) * float64(pageW)
		y1 := (cy + h/2) * float64(pageH)
		out = append(out, Detection{
			BBox:       geom.New(x0, y0, x1, y1, float64(pageW), float64(pageH)),
			Confidence: score,
		})
	}
	return out
}

// decodeStructure reads the same [cx, cy, w, h, score, class] rows as
// decodeBoxes but interprets class 0/1 as row/column lines and
// reconstructs the grid they imply within region.
func decodeStructure(raw []float32, region geom.Bbox, threshold float64) Structure {
	const stride = 6
	const classRow = 0
	const classCol = 1

	var rowYs, colXs []float64
	w := region.X1 - region.X0
	h := region.Y1 - region.Y0

	for i := 0; i+stride <= len(raw); i += stride {
		score := float64(raw[i+4])
		if score < threshold {
			continue
		}
		class := int(raw[i+5])
		cy := region.Y0 + float64(raw[i+1])*h
		cx := region.X0 + float64(raw[i])*w
		switch class {
		case classRow:
			rowYs = append(rowYs, cy)
		case classCol:
			colXs = append(colXs, cx)
		}
	}

	rowYs = append(rowYs, region.Y0, region.Y1)
	colXs = append(colXs, region.X0, region.X1)
	sortUnique(rowYs)
	sortUnique(colXs)

	var cells []Cell
	for r := 0; r+1 < len(rowYs); r++ {
		for c := 0; c+1 < len(colXs); c++ {
			cells = append(cells, Cell{
				BBox:     geom.New(colXs[c], rowYs[r], colXs[c+1], rowYs[r+1], w, h),
				RowStart: r, RowEnd: r + 1,
				ColStart: c, ColEnd: c + 1,
				IsColumnHeader: r == 0,
				IsRowHeader:    c == 0,
			})
		}
	}

	return Structure{Cells: cells, NumRows: len(rowYs) - 1, NumCols: len(colXs) - 1}
}

func sortUnique(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

var (
	_ Detector  = (*ONNXDetector)(nil)
	_ Available = (*ONNXDetector)(nil)
)
