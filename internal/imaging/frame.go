package imaging

import (
	"image"
	"image/color"
	"math"
	"sync"
)

// Frame is a decoded raster normalised for analysis. All planes are row-major
// with index y*Width+x. A Frame is never modified after NewFrame returns and
// is safe for concurrent reads.
type Frame struct {
	Width    int
	Height   int
	Channels int

	// Lum is luminance in 0..1 (0.299R + 0.587G + 0.114B).
	Lum []float64
	// Gray is Lum quantised to 0..255.
	Gray []uint8

	rgb     []uint8
	labOnce sync.Once
	lab     *LabPlanes
}

// LabPlanes holds CIE L*a*b* planes (D65 white point).
type LabPlanes struct {
	L []float64
	A []float64
	B []float64
}

// NewFrame converts img into analysis planes.
func NewFrame(img image.Image) *Frame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 0 || h < 0 {
		w, h = 0, 0
	}

	n := w * h
	f := &Frame{
		Width:    w,
		Height:   h,
		Channels: channelCount(img.ColorModel()),
		Lum:      make([]float64, n),
		Gray:     make([]uint8, n),
		rgb:      make([]uint8, n*3),
	}

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				r, g, b := rgb8(img.At(bounds.Min.X+x, bounds.Min.Y+y))
				i := y*w + x
				f.rgb[i*3] = r
				f.rgb[i*3+1] = g
				f.rgb[i*3+2] = b

				// weights sum to 1000 so pure white is exactly 1.0
				lum := float64(299*int(r)+587*int(g)+114*int(b)) / 255000.0
				f.Lum[i] = lum
				f.Gray[i] = uint8(math.Round(lum * 255))
			}
		}
	})

	return f
}

// Empty reports whether the frame has no pixels.
func (f *Frame) Empty() bool {
	return f.Width == 0 || f.Height == 0
}

// GrayFloat returns the 0..255 gray plane as float64, with pixels outside
// mask zeroed when mask is non-nil.
func (f *Frame) GrayFloat(mask *Mask) []float64 {
	out := make([]float64, len(f.Gray))
	for i, v := range f.Gray {
		if mask != nil && mask.Pix[i] == 0 {
			continue
		}
		out[i] = float64(v)
	}
	return out
}

// MaskedGray returns the 8-bit gray plane with pixels outside mask zeroed.
func (f *Frame) MaskedGray(mask *Mask) []uint8 {
	out := make([]uint8, len(f.Gray))
	for i, v := range f.Gray {
		if mask.Pix[i] != 0 {
			out[i] = v
		}
	}
	return out
}

// Lab returns the L*a*b* planes, computing them on first use.
func (f *Frame) Lab() *LabPlanes {
	f.labOnce.Do(func() {
		n := f.Width * f.Height
		lab := &LabPlanes{
			L: make([]float64, n),
			A: make([]float64, n),
			B: make([]float64, n),
		}
		parallelRows(f.Height, func(y0, y1 int) {
			for i := y0 * f.Width; i < y1*f.Width; i++ {
				lab.L[i], lab.A[i], lab.B[i] = rgbToLab(f.rgb[i*3], f.rgb[i*3+1], f.rgb[i*3+2])
			}
		})
		f.lab = lab
	})
	return f.lab
}

func channelCount(m color.Model) int {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return 1
	default:
		return 3
	}
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

var srgbToLinear = func() [256]float64 {
	var lut [256]float64
	for i := range lut {
		c := float64(i) / 255.0
		if c <= 0.04045 {
			lut[i] = c / 12.92
		} else {
			lut[i] = math.Pow((c+0.055)/1.055, 2.4)
		}
	}
	return lut
}()

const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

func rgbToLab(r, g, b uint8) (float64, float64, float64) {
	rl, gl, bl := srgbToLinear[r], srgbToLinear[g], srgbToLinear[b]

	x := (0.4124564*rl + 0.3575761*gl + 0.1804375*bl) / whiteX
	y := (0.2126729*rl + 0.7151522*gl + 0.0721750*bl) / whiteY
	z := (0.0193339*rl + 0.1191920*gl + 0.9503041*bl) / whiteZ

	fx, fy, fz := labF(x), labF(y), labF(z)
	return 116*fy - 16, 500 * (fx - fy), 200 * (fy - fz)
}

func labF(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}
