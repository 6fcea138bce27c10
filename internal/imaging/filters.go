package imaging

import "math"

// reflect101 mirrors an out-of-range index without repeating the edge
// sample (gfedcb|abcdefgh|gfedcba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// GaussianKernel returns a normalised 1-D Gaussian of the given odd size.
func GaussianKernel(size int, sigma float64) []float64 {
	if size < 1 {
		size = 1
	}
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}
	k := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianBlur convolves a w×h plane with a separable size×size Gaussian.
func GaussianBlur(src []float64, w, h, size int, sigma float64) []float64 {
	k := GaussianKernel(size, sigma)
	half := len(k) / 2
	tmp := make([]float64, len(src))
	out := make([]float64, len(src))

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := src[y*w : (y+1)*w]
			for x := 0; x < w; x++ {
				var acc float64
				for i, kv := range k {
					acc += kv * row[reflect101(x+i-half, w)]
				}
				tmp[y*w+x] = acc
			}
		}
	})
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				var acc float64
				for i, kv := range k {
					acc += kv * tmp[reflect101(y+i-half, h)*w+x]
				}
				out[y*w+x] = acc
			}
		}
	})
	return out
}

// Laplacian applies the 4-neighbour kernel [0 1 0; 1 -4 1; 0 1 0].
func Laplacian(src []float64, w, h int) []float64 {
	out := make([]float64, len(src))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			up, down := reflect101(y-1, h), reflect101(y+1, h)
			for x := 0; x < w; x++ {
				left, right := reflect101(x-1, w), reflect101(x+1, w)
				center := src[y*w+x]
				out[y*w+x] = src[up*w+x] + src[down*w+x] + src[y*w+left] + src[y*w+right] - 4*center
			}
		}
	})
	return out
}

// Sobel returns the 3×3 Sobel derivatives along x and y.
func Sobel(src []float64, w, h int) (gx, gy []float64) {
	gx = make([]float64, len(src))
	gy = make([]float64, len(src))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			ym, yp := reflect101(y-1, h), reflect101(y+1, h)
			for x := 0; x < w; x++ {
				xm, xp := reflect101(x-1, w), reflect101(x+1, w)
				tl, tc, tr := src[ym*w+xm], src[ym*w+x], src[ym*w+xp]
				ml, mr := src[y*w+xm], src[y*w+xp]
				bl, bc, br := src[yp*w+xm], src[yp*w+x], src[yp*w+xp]

				gx[y*w+x] = (tr + 2*mr + br) - (tl + 2*ml + bl)
				gy[y*w+x] = (bl + 2*bc + br) - (tl + 2*tc + tr)
			}
		}
	})
	return gx, gy
}
