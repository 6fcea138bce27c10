package imaging

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// scratch buffers for the sorted copies Percentiles works on
var slicePool = sync.Pool{
	New: func() interface{} {
		buf := make([]float64, 0, 4096)
		return &buf
	},
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// StdDev returns the population standard deviation, or 0 for an empty slice.
func StdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.PopStdDev(x, nil)
}

// Variance returns the population variance, or 0 for an empty slice.
func Variance(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.PopVariance(x, nil)
}

// MinMax returns the smallest and largest values, zeros for an empty slice.
func MinMax(x []float64) (min, max float64) {
	if len(x) == 0 {
		return 0, 0
	}
	min, max = x[0], x[0]
	for _, v := range x[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Percentiles returns the requested percentiles (0..100) of x, linearly
// interpolated at rank p/100*(n-1) of the sorted samples. x is not
// modified.
func Percentiles(x []float64, ps ...float64) []float64 {
	out := make([]float64, len(ps))
	if len(x) == 0 {
		return out
	}

	buf := slicePool.Get().(*[]float64)
	sorted := append((*buf)[:0], x...)
	defer func() {
		*buf = sorted[:0]
		slicePool.Put(buf)
	}()
	sort.Float64s(sorted)

	// stat.Quantile with LinInterp interpolates at rank q*n-1; map the
	// closest-ranks position onto it.
	n := float64(len(sorted))
	for i, p := range ps {
		p = min(max(p, 0), 100) / 100
		q := min((p*(n-1)+1)/n, 1)
		out[i] = stat.Quantile(q, stat.LinInterp, sorted, nil)
	}
	return out
}

// Median returns the 50th percentile.
func Median(x []float64) float64 {
	return Percentiles(x, 50)[0]
}

// Summary is the distribution summary reported for tiled measurements.
type Summary struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	P10  float64 `json:"p10"`
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	P90  float64 `json:"p90"`
}

// Summarize computes a Summary of x. An empty x yields the zero Summary.
func Summarize(x []float64) Summary {
	if len(x) == 0 {
		return Summary{}
	}
	min, max := MinMax(x)
	p := Percentiles(x, 10, 25, 50, 75, 90)
	return Summary{
		Mean: Mean(x),
		Std:  StdDev(x),
		Min:  min,
		Max:  max,
		P10:  p[0],
		P25:  p[1],
		P50:  p[2],
		P75:  p[3],
		P90:  p[4],
	}
}

// Select gathers plane values where mask is set. A nil mask selects all.
func Select(plane []float64, mask *Mask) []float64 {
	if mask == nil {
		out := make([]float64, len(plane))
		copy(out, plane)
		return out
	}
	out := make([]float64, 0, len(plane)/2)
	for i, v := range plane {
		if mask.Pix[i] != 0 {
			out = append(out, v)
		}
	}
	return out
}
