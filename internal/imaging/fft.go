package imaging

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// BandEnergy holds the share of spectral energy in radial frequency bands
// and the energy-weighted mean radius.
type BandEnergy struct {
	High     float64 `json:"high_freq_energy"`
	Mid      float64 `json:"mid_freq_energy"`
	Low      float64 `json:"low_freq_energy"`
	Centroid float64 `json:"spectral_centroid"`
}

// FFT2 returns the 2-D discrete Fourier transform of a w×h real plane.
func FFT2(plane []float64, w, h int) []complex128 {
	out := make([]complex128, len(plane))
	for i, v := range plane {
		out[i] = complex(v, 0)
	}
	if w == 0 || h == 0 {
		return out
	}

	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		rowFFT.Coefficients(row, out[y*w:(y+1)*w])
		copy(out[y*w:], row)
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	coef := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = out[y*w+x]
		}
		colFFT.Coefficients(coef, col)
		for y := 0; y < h; y++ {
			out[y*w+x] = coef[y]
		}
	}
	return out
}

// BandEnergies splits the power spectrum of a w×h plane into rings around
// the zero frequency: low (r <= 0.3R), mid (0.3R < r <= 0.7R) and high
// (r > 0.7R) with R = min(w,h)/2. All ratios are 0 when the plane carries no
// energy or R is 0.
func BandEnergies(plane []float64, w, h int) BandEnergy {
	maxFreq := w / 2
	if h < w {
		maxFreq = h / 2
	}
	if maxFreq == 0 {
		return BandEnergy{}
	}

	spec := FFT2(plane, w, h)
	cy, cx := h/2, w/2
	lowR, midR := 0.3*float64(maxFreq), 0.7*float64(maxFreq)

	var total, low, mid, high, weighted float64
	for y := 0; y < h; y++ {
		// position after shifting zero frequency to the centre
		sy := (y + h/2) % h
		for x := 0; x < w; x++ {
			sx := (x + w/2) % w
			c := spec[y*w+x]
			e := real(c)*real(c) + imag(c)*imag(c)
			d := math.Hypot(float64(sx-cx), float64(sy-cy))

			total += e
			weighted += d * e
			switch {
			case d <= lowR:
				low += e
			case d <= midR:
				mid += e
			default:
				high += e
			}
		}
	}
	if total == 0 {
		return BandEnergy{}
	}
	return BandEnergy{
		High:     high / total,
		Mid:      mid / total,
		Low:      low / total,
		Centroid: weighted / total / float64(maxFreq),
	}
}
