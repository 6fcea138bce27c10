package imaging

import "math"

// Canny detects edges in an 8-bit plane using Sobel derivatives, L1 gradient
// magnitude, non-maximum suppression and hysteresis between low and high.
func Canny(gray []uint8, w, h int, low, high float64) *Mask {
	edges := NewMask(w, h)
	if w < 3 || h < 3 {
		return edges
	}

	src := make([]float64, len(gray))
	for i, v := range gray {
		src[i] = float64(v)
	}
	gx, gy := Sobel(src, w, h)

	mag := make([]float64, len(src))
	for i := range mag {
		mag[i] = math.Abs(gx[i]) + math.Abs(gy[i])
	}

	const (
		tan22 = 0.4142135623730951
		tan67 = 2.414213562373095
	)

	// 0 = suppressed, 1 = weak, 2 = strong
	state := make([]uint8, len(src))
	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			if y == 0 || y == h-1 {
				continue
			}
			for x := 1; x < w-1; x++ {
				i := y*w + x
				m := mag[i]
				if m <= low {
					continue
				}
				ax, ay := math.Abs(gx[i]), math.Abs(gy[i])

				var n1, n2 float64
				switch {
				case ay <= ax*tan22:
					n1, n2 = mag[i-1], mag[i+1]
				case ay >= ax*tan67:
					n1, n2 = mag[i-w], mag[i+w]
				case (gx[i] > 0) == (gy[i] > 0):
					n1, n2 = mag[i-w-1], mag[i+w+1]
				default:
					n1, n2 = mag[i-w+1], mag[i+w-1]
				}
				if m > n1 && m >= n2 {
					if m > high {
						state[i] = 2
					} else {
						state[i] = 1
					}
				}
			}
		}
	})

	stack := make([]int, 0, 1024)
	for i, s := range state {
		if s == 2 && edges.Pix[i] == 0 {
			edges.Pix[i] = 1
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := j%w, j/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					n := ny*w + nx
					if state[n] != 0 && edges.Pix[n] == 0 {
						edges.Pix[n] = 1
						stack = append(stack, n)
					}
				}
			}
		}
	}
	return edges
}
