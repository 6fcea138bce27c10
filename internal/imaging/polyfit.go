package imaging

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// PolyFit fits y = c0 + c1*x + ... + cd*x^d by least squares and returns
// the coefficients in ascending order.
func PolyFit(xs, ys []float64, degree int) ([]float64, error) {
	n, k := len(xs), degree+1
	a := mat.NewDense(n, k, nil)
	for i, x := range xs {
		p := 1.0
		for j := 0; j < k; j++ {
			a.Set(i, j, p)
			p *= x
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), ys...))

	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return nil, err
	}
	return c.RawVector().Data, nil
}

// PolyEval evaluates ascending-order coefficients at x.
func PolyEval(coef []float64, x float64) float64 {
	var y float64
	for i := len(coef) - 1; i >= 0; i-- {
		y = y*x + coef[i]
	}
	return y
}

// CurveDeviation returns the RMS distance of points from a quadratic fitted
// along their dominant axis. It returns 0 for fewer than three points or a
// degenerate fit.
func CurveDeviation(points [][2]int) float64 {
	if len(points) < 3 {
		return 0
	}
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = float64(p[0]), float64(p[1])
	}
	if StdDev(ys) >= StdDev(xs) {
		xs, ys = ys, xs
	}

	coef, err := PolyFit(xs, ys, 2)
	if err != nil {
		return 0
	}
	var sq float64
	for i, x := range xs {
		d := ys[i] - PolyEval(coef, x)
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
