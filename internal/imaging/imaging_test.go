package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// createTestImage creates a uniform test image
func createTestImage(width, height int, fillColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// rectMask sets [x0,x1)×[y0,y1) in a w×h mask
func rectMask(w, h, x0, y0, x1, y1 int) *Mask {
	m := NewMask(w, h)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			m.Set(x, y)
		}
	}
	return m
}

func TestNewFrame_Luminance(t *testing.T) {
	tests := []struct {
		name  string
		color color.RGBA
		want  float64
	}{
		{"white", color.RGBA{255, 255, 255, 255}, 1.0},
		{"black", color.RGBA{0, 0, 0, 255}, 0.0},
		{"red", color.RGBA{255, 0, 0, 255}, 0.299},
		{"green", color.RGBA{0, 255, 0, 255}, 0.587},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame(createTestImage(4, 3, tt.color))
			if f.Width != 4 || f.Height != 3 {
				t.Fatalf("Expected 4x3 frame, got %dx%d", f.Width, f.Height)
			}
			if math.Abs(f.Lum[0]-tt.want) > 1e-9 {
				t.Errorf("Expected luminance %f, got %f", tt.want, f.Lum[0])
			}
		})
	}
}

func TestNewFrame_Channels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	if c := NewFrame(gray).Channels; c != 1 {
		t.Errorf("Expected 1 channel for gray image, got %d", c)
	}
	if c := NewFrame(createTestImage(2, 2, color.RGBA{1, 2, 3, 255})).Channels; c != 3 {
		t.Errorf("Expected 3 channels for RGBA image, got %d", c)
	}
}

func TestFrame_Lab(t *testing.T) {
	white := NewFrame(createTestImage(2, 2, color.RGBA{255, 255, 255, 255})).Lab()
	if math.Abs(white.L[0]-100) > 0.01 || math.Abs(white.A[0]) > 0.01 || math.Abs(white.B[0]) > 0.01 {
		t.Errorf("Expected white to be L=100 a=0 b=0, got %f %f %f", white.L[0], white.A[0], white.B[0])
	}

	red := NewFrame(createTestImage(2, 2, color.RGBA{255, 0, 0, 255})).Lab()
	if red.A[0] < 50 {
		t.Errorf("Expected strongly positive a* for red, got %f", red.A[0])
	}
}

func TestNewFrame_Empty(t *testing.T) {
	f := NewFrame(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	if !f.Empty() {
		t.Error("Expected empty frame")
	}
}

func TestMask_BBox(t *testing.T) {
	m := rectMask(20, 10, 3, 2, 8, 7)
	box, ok := m.BBox()
	if !ok {
		t.Fatal("Expected non-empty bbox")
	}
	want := BBox{XMin: 3, YMin: 2, XMax: 7, YMax: 6}
	if box != want {
		t.Errorf("Expected %+v, got %+v", want, box)
	}
	if box.Width() != 4 || box.Height() != 4 {
		t.Errorf("Expected 4x4 extent, got %dx%d", box.Width(), box.Height())
	}

	if _, ok := NewMask(5, 5).BBox(); ok {
		t.Error("Expected empty mask to have no bbox")
	}
}

func TestMask_ErodeDilate(t *testing.T) {
	m := rectMask(20, 20, 5, 5, 10, 10)

	if got := m.Erode(3, 3).Count(); got != 9 {
		t.Errorf("Expected 9 pixels after 3x3 erosion, got %d", got)
	}
	if got := m.Dilate(3, 3).Count(); got != 49 {
		t.Errorf("Expected 49 pixels after 3x3 dilation, got %d", got)
	}

	full := rectMask(10, 10, 0, 0, 10, 10)
	if got := full.Erode(5, 5).Count(); got != 100 {
		t.Errorf("Expected full mask to survive erosion, got %d", got)
	}
}

func TestMask_Boundary(t *testing.T) {
	m := rectMask(10, 10, 2, 2, 6, 6)
	if got := len(m.Boundary()); got != 12 {
		t.Errorf("Expected 12 boundary pixels on a 4x4 square, got %d", got)
	}
}

func TestOtsuBinarize(t *testing.T) {
	gray := make([]uint8, 100)
	for i := 50; i < 100; i++ {
		gray[i] = 200
	}
	th, ok := Otsu(gray)
	if !ok {
		t.Fatal("Expected bimodal plane to be separable")
	}
	if th >= 200 {
		t.Fatalf("Expected threshold below 200, got %d", th)
	}
	if got := Binarize(gray, 10, 10, th).Count(); got != 50 {
		t.Errorf("Expected 50 foreground pixels, got %d", got)
	}
	if _, ok := Otsu(nil); ok {
		t.Error("Expected empty input to be inseparable")
	}
	flat := make([]uint8, 16)
	for i := range flat {
		flat[i] = 255
	}
	if _, ok := Otsu(flat); ok {
		t.Error("Expected constant plane to be inseparable")
	}
}

func TestLargestComponent(t *testing.T) {
	m := rectMask(30, 30, 0, 0, 3, 3)
	big := rectMask(30, 30, 10, 10, 20, 20)
	for i, v := range big.Pix {
		if v != 0 {
			m.Pix[i] = 1
		}
	}

	_, comps := Label(m)
	if len(comps) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(comps))
	}

	largest := LargestComponent(m)
	if got := largest.Count(); got != 100 {
		t.Errorf("Expected largest component of 100 pixels, got %d", got)
	}
	if largest.At(1, 1) {
		t.Error("Expected small component to be removed")
	}
}

func TestFillHoles(t *testing.T) {
	m := rectMask(20, 20, 5, 5, 15, 15)
	for y := 8; y < 12; y++ {
		for x := 8; x < 12; x++ {
			m.Pix[y*20+x] = 0
		}
	}
	if got := FillHoles(m).Count(); got != 100 {
		t.Errorf("Expected filled square of 100 pixels, got %d", got)
	}
	if got := FillHoles(NewMask(0, 5)).Count(); got != 0 {
		t.Errorf("Expected empty result for degenerate mask, got %d", got)
	}
}

func TestLaplacian_Uniform(t *testing.T) {
	src := make([]float64, 25)
	for i := range src {
		src[i] = 7
	}
	for i, v := range Laplacian(src, 5, 5) {
		if v != 0 {
			t.Fatalf("Expected zero response at %d, got %f", i, v)
		}
	}
}

func TestCanny_VerticalEdge(t *testing.T) {
	w, h := 40, 20
	gray := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 20; x < w; x++ {
			gray[y*w+x] = 255
		}
	}
	edges := Canny(gray, w, h, 50, 150)
	if edges.Count() == 0 {
		t.Fatal("Expected edge pixels")
	}
	for i, v := range edges.Pix {
		if v == 0 {
			continue
		}
		if x := i % w; x < 18 || x > 21 {
			t.Errorf("Unexpected edge pixel at column %d", x)
		}
	}

	if Canny(make([]uint8, 4), 2, 2, 50, 150).Count() != 0 {
		t.Error("Expected no edges on a 2x2 plane")
	}
}

// slantedLines sets pixels along parallel lines descending at deg.
func slantedLines(w, h int, deg float64, rows ...int) *Mask {
	m := NewMask(w, h)
	slope := math.Tan(deg * math.Pi / 180)
	for _, y0 := range rows {
		for x := 20; x < w-20; x++ {
			m.Set(x, y0+int(math.Round(float64(x)*slope)))
		}
	}
	return m
}

func TestSkewAngle(t *testing.T) {
	tests := []struct {
		name  string
		edges *Mask
		want  float64
	}{
		{"horizontal", rectMask(300, 100, 50, 40, 250, 41), 0},
		{"two degrees", slantedLines(400, 200, 2, 40, 80, 120), 2},
		{"minus two degrees", slantedLines(400, 200, -2, 60, 100, 140), -2},
		{"half degree", slantedLines(400, 200, 0.5, 40, 80, 120), 0.5},
		{"seven degrees", slantedLines(400, 200, 7, 20, 60, 100), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SkewAngle(tt.edges, 45, 100)
			if !ok {
				t.Fatal("Expected an estimate")
			}
			if math.Abs(got-tt.want) > 0.25 {
				t.Errorf("Expected %.1f, got %.2f", tt.want, got)
			}
		})
	}

	if _, ok := SkewAngle(rectMask(100, 100, 10, 10, 60, 11), 45, 100); ok {
		t.Error("Expected no estimate below the pixel minimum")
	}
	if _, ok := SkewAngle(NewMask(50, 50), 45, 0); ok {
		t.Error("Expected no estimate on an empty mask")
	}
}

func TestHoughSegments_Horizontal(t *testing.T) {
	edges := rectMask(300, 100, 0, 50, 200, 51)
	segs := HoughSegments(edges, SegmentParams{Threshold: 50, MinLength: 50, MaxGap: 10})
	if len(segs) != 1 {
		t.Fatalf("Expected 1 segment, got %d", len(segs))
	}
	s := segs[0]
	if s.Y1 != 50 || s.Y2 != 50 {
		t.Errorf("Expected horizontal segment at y=50, got %+v", s)
	}
	if absInt(s.X2-s.X1) != 199 {
		t.Errorf("Expected segment spanning 199 px, got %+v", s)
	}

	again := HoughSegments(edges, SegmentParams{Threshold: 50, MinLength: 50, MaxGap: 10})
	if len(again) != 1 || again[0] != s {
		t.Error("Expected deterministic segments")
	}
}

func TestLinePixels(t *testing.T) {
	edges := rectMask(10, 10, 0, 0, 10, 10)
	pts := LinePixels(edges, 0, 0, 9, 9)
	if len(pts) != 10 {
		t.Fatalf("Expected 10 diagonal pixels, got %d", len(pts))
	}
	if pts[9] != [2]int{9, 9} {
		t.Errorf("Expected last point (9,9), got %v", pts[9])
	}
}

func TestPercentiles(t *testing.T) {
	ramp := make([]float64, 10)
	for i := range ramp {
		ramp[i] = float64(i + 1)
	}
	large := make([]float64, 10001)
	for i := range large {
		large[i] = float64(len(large) - 1 - i)
	}

	tests := []struct {
		name string
		x    []float64
		ps   []float64
		want []float64
	}{
		{"unsorted five", []float64{5, 1, 4, 2, 3}, []float64{10, 25, 50, 100}, []float64{1.4, 2, 3, 5}},
		{"ramp", ramp, []float64{0, 5, 90, 95}, []float64{1, 1.45, 9.1, 9.55}},
		{"single", []float64{7}, []float64{0, 50, 100}, []float64{7, 7, 7}},
		{"out of range", []float64{1, 2}, []float64{-5, 150}, []float64{1, 2}},
		{"larger than scratch", large, []float64{50, 99}, []float64{5000, 9900}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := tt.x[0]
			p := Percentiles(tt.x, tt.ps...)
			for i := range tt.want {
				if math.Abs(p[i]-tt.want[i]) > 1e-9 {
					t.Errorf("Percentile %v: expected %f, got %f", tt.ps[i], tt.want[i], p[i])
				}
			}
			if tt.x[0] != first {
				t.Error("Expected input to be left unsorted")
			}
		})
	}

	if got := Percentiles(nil, 50)[0]; got != 0 {
		t.Errorf("Expected 0 for empty input, got %f", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if s.Mean != 5 {
		t.Errorf("Expected mean 5, got %f", s.Mean)
	}
	if s.Std != 2 {
		t.Errorf("Expected population std 2, got %f", s.Std)
	}
	if s.Min != 2 || s.Max != 9 {
		t.Errorf("Expected min 2 max 9, got %f %f", s.Min, s.Max)
	}
	if (Summarize(nil) != Summary{}) {
		t.Error("Expected zero summary for empty input")
	}
}

func TestTiles(t *testing.T) {
	tiles := Tiles(130, 64, 64)
	if len(tiles) != 3 {
		t.Fatalf("Expected 3 tiles, got %d", len(tiles))
	}
	if tiles[2].Dx() != 2 {
		t.Errorf("Expected clipped last tile of width 2, got %d", tiles[2].Dx())
	}
	if Tiles(0, 10, 64) != nil {
		t.Error("Expected no tiles for empty plane")
	}
}

func TestBandEnergies(t *testing.T) {
	flat := make([]float64, 64)
	for i := range flat {
		flat[i] = 10
	}
	e := BandEnergies(flat, 8, 8)
	if math.Abs(e.Low-1) > 1e-9 || e.Centroid > 1e-9 {
		t.Errorf("Expected all energy at DC, got %+v", e)
	}

	checker := make([]float64, 64)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if (x+y)%2 == 0 {
				checker[y*8+x] = 1
			} else {
				checker[y*8+x] = -1
			}
		}
	}
	e = BandEnergies(checker, 8, 8)
	if math.Abs(e.High-1) > 1e-9 {
		t.Errorf("Expected all energy in the high band, got %+v", e)
	}

	if (BandEnergies(make([]float64, 64), 8, 8) != BandEnergy{}) {
		t.Error("Expected zero ratios without energy")
	}
}

func TestCurveDeviation(t *testing.T) {
	var straight [][2]int
	for x := 0; x < 50; x++ {
		straight = append(straight, [2]int{x, 10})
	}
	if d := CurveDeviation(straight); d > 1e-6 {
		t.Errorf("Expected ~0 deviation for a straight run, got %f", d)
	}

	coef, err := PolyFit([]float64{0, 1, 2, 3, 4}, []float64{1, 6, 17, 34, 57}, 2)
	if err != nil {
		t.Fatalf("PolyFit failed: %v", err)
	}
	for i, want := range []float64{1, 2, 3} {
		if math.Abs(coef[i]-want) > 1e-6 {
			t.Errorf("Coefficient %d: expected %f, got %f", i, want, coef[i])
		}
	}
}
