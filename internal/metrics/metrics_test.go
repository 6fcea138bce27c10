package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

var (
	dark  = color.RGBA{10, 10, 10, 255}
	paper = color.RGBA{235, 235, 235, 255}
	ink   = color.RGBA{30, 30, 30, 255}
)

// pageImage draws a light page over page on a dark w×h background with a
// dark horizontal text line every 20 pixels.
func pageImage(w, h int, page image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := dark
			if image.Pt(x, y).In(page) {
				c = paper
				if (y-page.Min.Y)%20 == 10 && x > page.Min.X+10 && x < page.Max.X-10 {
					c = ink
				}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func rectMask(w, h int, r image.Rectangle) *imaging.Mask {
	m := imaging.NewMask(w, h)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(x, y)
		}
	}
	return m
}

func pageInput(w, h int, page image.Rectangle) *Input {
	return &Input{
		Frame: imaging.NewFrame(pageImage(w, h, page)),
		Mask:  rectMask(w, h, page),
	}
}

func TestDefaultRegistry_Order(t *testing.T) {
	reg := DefaultRegistry()
	want := config.Categories()

	got := reg.Categories()
	if len(got) != len(want) {
		t.Fatalf("registry has %d categories, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("category %d = %s, want %s", i, got[i], want[i])
		}
	}
	for i, c := range reg.Computers() {
		if c.Category() != got[i] {
			t.Errorf("computer %d reports %s, registered as %s", i, c.Category(), got[i])
		}
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(NewSharpnessComputer()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.Register(NewSharpnessComputer()); err == nil {
		t.Error("duplicate register should fail")
	}
	empty := ComputeFunc{Fn: func(*Input, *config.Config) (Record, error) { return nil, nil }}
	if err := reg.Register(empty); err == nil {
		t.Error("register without category should fail")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
	if _, ok := reg.Get(Sharpness); !ok {
		t.Error("Get(sharpness) not found")
	}
	if _, ok := reg.Get(Noise); ok {
		t.Error("Get(noise) should not be found")
	}
}

func TestComputers_EmptyMask(t *testing.T) {
	const w, h = 120, 90
	in := &Input{
		Frame: imaging.NewFrame(pageImage(w, h, image.Rect(0, 0, w, h))),
		Mask:  imaging.NewMask(w, h),
	}
	cfg := config.Default()

	records := make(map[Category]Record)
	for _, c := range DefaultRegistry().Computers() {
		rec, err := c.Compute(in, cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.Category(), err)
		}
		if rec == nil {
			t.Fatalf("%s: nil record", c.Category())
		}
		if rec.Category() != c.Category() {
			t.Errorf("%s: record category %s", c.Category(), rec.Category())
		}
		records[c.Category()] = rec
	}

	comp := records[Completeness].(*CompletenessRecord)
	if comp.ContentBBoxCoverage != 0 || comp.EdgeTouch {
		t.Errorf("completeness = %+v, want zero coverage and no edge touch", comp)
	}
	border := records[BorderBackground].(*BorderBackgroundRecord)
	if border.MaxSideRatio() != 0 {
		t.Errorf("border ratios = %+v, want 0", border)
	}
	geo := records[Geometry].(*GeometryRecord)
	if geo.Orientation.Orientation != "unknown" {
		t.Errorf("orientation = %q, want unknown", geo.Orientation.Orientation)
	}
	exp := records[Exposure].(*ExposureRecord)
	if exp.IlluminationUniformity.Ratio != 1 {
		t.Errorf("uniformity ratio = %v, want 1", exp.IlluminationUniformity.Ratio)
	}
}

func TestCompleteness_CenteredPage(t *testing.T) {
	const w, h = 800, 600
	page := image.Rect(100, 75, 700, 525)
	cfg := config.Default()

	rec, err := NewCompletenessComputer().Compute(pageInput(w, h, page), cfg)
	if err != nil {
		t.Fatal(err)
	}
	c := rec.(*CompletenessRecord)

	want := float64(599*449) / float64(w*h)
	if math.Abs(c.ContentBBoxCoverage-want) > 1e-9 {
		t.Errorf("coverage = %v, want %v", c.ContentBBoxCoverage, want)
	}
	if c.EdgeTouch {
		t.Error("centered page should not touch the edge")
	}
	if c.EdgeViolations != (EdgeViolations{}) {
		t.Errorf("edge violations = %+v, want none", c.EdgeViolations)
	}
	if c.Margins.Left != 100 || c.Margins.Top != 75 {
		t.Errorf("margins = %+v", c.Margins)
	}
	if c.CroppedText != nil {
		t.Error("cropped text should be omitted when detection is off")
	}
}

func TestCompleteness_EdgeTouch(t *testing.T) {
	const w, h = 200, 150
	rec, err := NewCompletenessComputer().Compute(pageInput(w, h, image.Rect(0, 20, 180, 130)), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	c := rec.(*CompletenessRecord)
	if !c.EdgeTouch {
		t.Error("page starting at x=0 should touch the edge")
	}
	if !c.EdgeViolations.Left || c.EdgeViolations.Right {
		t.Errorf("edge violations = %+v, want left only", c.EdgeViolations)
	}
}

func TestBorderBackground_Ratios(t *testing.T) {
	const w, h = 200, 160
	page := image.Rect(40, 30, 160, 130)
	rec, err := NewBorderBackgroundComputer().Compute(pageInput(w, h, page), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	b := rec.(*BorderBackgroundRecord)

	// bbox is inclusive: x 40..159, y 30..129
	if b.MarginsPx != (MarginsPx{Left: 40, Right: 41, Top: 30, Bottom: 31}) {
		t.Errorf("margins = %+v", b.MarginsPx)
	}
	if math.Abs(b.LeftMarginRatio-40.0/119.0) > 1e-9 {
		t.Errorf("left ratio = %v", b.LeftMarginRatio)
	}
	if b.BgMedianLum > 0.05 {
		t.Errorf("bg median = %v, want dark background", b.BgMedianLum)
	}
}

func TestForeignObjects_BrightBlob(t *testing.T) {
	const w, h = 200, 160
	page := image.Rect(40, 30, 160, 130)
	img := pageImage(w, h, page)
	for y := 135; y < 160; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, paper)
		}
	}
	in := &Input{Frame: imaging.NewFrame(img), Mask: rectMask(w, h, page)}

	rec, err := NewForeignObjectsComputer().Compute(in, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	fo := rec.(*ForeignObjectsRecord)
	if !fo.Flag {
		t.Errorf("expected foreign object flag, area_pct = %v", fo.AreaPct)
	}
	if fo.Objects != 1 {
		t.Errorf("objects = %d, want 1", fo.Objects)
	}

	clean, err := NewForeignObjectsComputer().Compute(pageInput(w, h, page), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if clean.(*ForeignObjectsRecord).Flag {
		t.Error("clean background should not be flagged")
	}
}

func TestFormatIntegrity(t *testing.T) {
	cfg := config.Default()
	frame := imaging.NewFrame(image.NewGray(image.Rect(0, 0, 4, 4)))

	tests := []struct {
		name        string
		md          *Metadata
		wantFormat  string
		wantAllowed bool
		wantDepth   int
		wantQuality bool
	}{
		{"no metadata", nil, "unknown", false, 8, false},
		{"jpg alias", &Metadata{Format: "JPG", BitDepth: 8, JPEGQuality: 0.9}, "jpeg", true, 8, true},
		{"tif alias", &Metadata{Format: "tif", BitDepth: 16}, "tiff", true, 16, false},
		{"bmp not allowed", &Metadata{Format: "bmp"}, "bmp", false, 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NewFormatIntegrityComputer().Compute(&Input{Frame: frame, Mask: imaging.NewMask(4, 4), Metadata: tt.md}, cfg)
			if err != nil {
				t.Fatal(err)
			}
			f := rec.(*FormatIntegrityRecord)
			if f.FormatName != tt.wantFormat {
				t.Errorf("format = %q, want %q", f.FormatName, tt.wantFormat)
			}
			if f.FormatAllowed != tt.wantAllowed {
				t.Errorf("allowed = %v, want %v", f.FormatAllowed, tt.wantAllowed)
			}
			if f.BitDepth != tt.wantDepth {
				t.Errorf("bit depth = %d, want %d", f.BitDepth, tt.wantDepth)
			}
			if (f.JPEGQuality != nil) != tt.wantQuality {
				t.Errorf("jpeg quality = %v, want present=%v", f.JPEGQuality, tt.wantQuality)
			}
		})
	}
}

func TestResolution_DefaultDPI(t *testing.T) {
	cfg := config.Default()
	frame := imaging.NewFrame(image.NewGray(image.Rect(0, 0, 1000, 500)))
	mask := imaging.NewMask(1000, 500)

	rec, _ := NewResolutionComputer().Compute(&Input{Frame: frame, Mask: mask}, cfg)
	r := rec.(*ResolutionRecord)
	if r.EffectiveDPIX != 72 || r.EffectiveDPIY != 72 || !r.DPIAssumed {
		t.Errorf("got %+v, want assumed 72 dpi", r)
	}
	if r.Megapixels != 0.5 {
		t.Errorf("megapixels = %v, want 0.5", r.Megapixels)
	}

	rec, _ = NewResolutionComputer().Compute(&Input{Frame: frame, Mask: mask, Metadata: &Metadata{DPIX: 300, DPIY: 600}}, cfg)
	r = rec.(*ResolutionRecord)
	if r.DPIAssumed || r.MinDPI() != 300 {
		t.Errorf("got %+v, want metadata dpi", r)
	}
}

func TestColor_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.Color.EnableColorChecks = false
	in := pageInput(100, 80, image.Rect(10, 10, 90, 70))

	rec, _ := NewColorComputer().Compute(in, cfg)
	if c := rec.(*ColorRecord); c.Enabled || c.Reason != "disabled" {
		t.Errorf("got %+v, want disabled", c)
	}

	gray := &Input{
		Frame: imaging.NewFrame(image.NewGray(image.Rect(0, 0, 100, 80))),
		Mask:  rectMask(100, 80, image.Rect(10, 10, 90, 70)),
	}
	rec, _ = NewColorComputer().Compute(gray, config.Default())
	if c := rec.(*ColorRecord); c.Enabled || c.Reason != "grayscale_image" {
		t.Errorf("got %+v, want grayscale_image", c)
	}
}

func TestColor_NeutralPaper(t *testing.T) {
	rec, err := NewColorComputer().Compute(pageInput(200, 160, image.Rect(20, 20, 180, 140)), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	c := rec.(*ColorRecord)
	if !c.Enabled {
		t.Fatal("color checks should be enabled")
	}
	if c.Chroma > 1 {
		t.Errorf("neutral paper chroma = %v, want ~0", c.Chroma)
	}
	if c.GrayDeltaE != nil {
		t.Error("gray deltaE should be null without a reference patch")
	}
}

func TestGeometry_StraightPage(t *testing.T) {
	rec, err := NewGeometryComputer().Compute(pageInput(400, 300, image.Rect(40, 30, 360, 270)), config.Default())
	if err != nil {
		t.Fatal(err)
	}
	g := rec.(*GeometryRecord)
	if g.SkewAngleAbs > 1 {
		t.Errorf("skew = %v, want ~0 for horizontal lines", g.SkewAngleDeg)
	}
	if g.Orientation.Orientation != "landscape" {
		t.Errorf("orientation = %q, want landscape", g.Orientation.Orientation)
	}
}

// rotatedPageInput draws a 300×200 page with text lines every 20 pixels,
// centred on a dark w×h background and turned by deg, and masks the page.
func rotatedPageInput(w, h int, deg float64) *Input {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	mask := imaging.NewMask(w, h)
	sin, cos := math.Sincos(deg * math.Pi / 180)
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			c := dark
			if math.Abs(u) < 150 && math.Abs(v) < 100 {
				c = paper
				mask.Set(x, y)
				if math.Abs(u) < 135 && int(math.Floor(v+100))%20 == 10 {
					c = ink
				}
			}
			img.Set(x, y, c)
		}
	}
	return &Input{Frame: imaging.NewFrame(img), Mask: mask}
}

func TestGeometry_RotatedPage(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		deg      float64
		wantFail bool
	}{
		{0, false},
		{2, true},
		{-2, true},
		{0.6, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%+.1f", tt.deg), func(t *testing.T) {
			rec, err := NewGeometryComputer().Compute(rotatedPageInput(400, 300, tt.deg), cfg)
			if err != nil {
				t.Fatal(err)
			}
			g := rec.(*GeometryRecord)
			if math.Abs(g.SkewAngleDeg-tt.deg) > 0.5 {
				t.Errorf("skew = %v, want %v within 0.5", g.SkewAngleDeg, tt.deg)
			}
			if fail := g.SkewAngleAbs > cfg.Geometry.MaxSkewDegPass; fail != tt.wantFail {
				t.Errorf("skew %v beyond %v = %v, want %v", g.SkewAngleAbs, cfg.Geometry.MaxSkewDegPass, fail, tt.wantFail)
			}
		})
	}
}

func TestMissing(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"nil", nil, true},
		{"nil pointer", (*SharpnessRecord)(nil), true},
		{"record", &SharpnessRecord{}, false},
		{"value", GeometryRecord{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Missing(tt.rec); got != tt.want {
				t.Errorf("Missing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNoise_CleanPage(t *testing.T) {
	const w, h = 200, 160
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, paper)
		}
	}
	in := &Input{Frame: imaging.NewFrame(img), Mask: rectMask(w, h, image.Rect(20, 20, 180, 140))}

	rec, err := NewNoiseComputer().Compute(in, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	n := rec.(*NoiseRecord)
	if n.SamplesUsed < noiseMinSamples {
		t.Errorf("samples = %d, want at least %d", n.SamplesUsed, noiseMinSamples)
	}
	if n.BgNoiseStd > 1e-9 {
		t.Errorf("noise std = %v, want 0 on a flat page", n.BgNoiseStd)
	}
}

func TestComputers_Deterministic(t *testing.T) {
	in := pageInput(160, 120, image.Rect(20, 15, 140, 105))
	cfg := config.Default()
	for _, c := range DefaultRegistry().Computers() {
		a, errA := c.Compute(in, cfg)
		b, errB := c.Compute(in, cfg)
		if errA != nil || errB != nil {
			t.Fatalf("%s: %v / %v", c.Category(), errA, errB)
		}
		if !recordsEqual(a, b) {
			t.Errorf("%s: results differ between runs", c.Category())
		}
	}
}

func recordsEqual(a, b Record) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}
