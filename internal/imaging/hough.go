package imaging

import "math"

// Segment is a detected line segment with integer end points.
type Segment struct {
	X1, Y1, X2, Y2 int
}

// SegmentParams tunes HoughSegments.
type SegmentParams struct {
	Threshold int
	MinLength int
	MaxGap    int
}

type houghTables struct {
	numAngle int
	numRho   int
	offset   int
	cos      []float64
	sin      []float64
}

func newHoughTables(w, h int) houghTables {
	const numAngle = 180
	diag := int(math.Ceil(math.Hypot(float64(w), float64(h))))
	t := houghTables{
		numAngle: numAngle,
		numRho:   2*diag + 1,
		offset:   diag,
		cos:      make([]float64, numAngle),
		sin:      make([]float64, numAngle),
	}
	for n := 0; n < numAngle; n++ {
		theta := float64(n) * math.Pi / numAngle
		t.cos[n] = math.Cos(theta)
		t.sin[n] = math.Sin(theta)
	}
	return t
}

func (t houghTables) rhoIndex(x, y, n int) int {
	return int(math.Round(float64(x)*t.cos[n]+float64(y)*t.sin[n])) + t.offset
}

// SkewAngle returns the direction, in degrees within ±maxDeg of horizontal,
// along which the set pixels of edges line up best. Positive angles descend
// to the right. Each candidate angle is scored by the sum of squared counts
// of its 1 px projection profile; a one-degree sweep is refined in 0.1°
// steps around the best candidate. ok is false when edges has fewer than
// minPixels set pixels.
func SkewAngle(edges *Mask, maxDeg float64, minPixels int) (angle float64, ok bool) {
	var pts [][2]int
	for i, v := range edges.Pix {
		if v != 0 {
			pts = append(pts, [2]int{i % edges.Width, i / edges.Width})
		}
	}
	if len(pts) == 0 || len(pts) < minPixels {
		return 0, false
	}

	offset := int(math.Ceil(math.Hypot(float64(edges.Width), float64(edges.Height))))
	profile := make([]int, 2*offset+1)

	coarse, bestScore := 0.0, -1.0
	for a := -math.Floor(maxDeg); a <= maxDeg; a++ {
		if score := alignment(pts, a, profile, offset); score > bestScore {
			coarse, bestScore = a, score
		}
	}

	// equal scores form a plateau; report its middle
	lo, hi := coarse, coarse
	bestScore = -1
	for i := -10; i <= 10; i++ {
		a := coarse + float64(i)/10
		if a < -maxDeg || a > maxDeg {
			continue
		}
		switch score := alignment(pts, a, profile, offset); {
		case score > bestScore:
			lo, hi, bestScore = a, a, score
		case score == bestScore:
			hi = a
		}
	}
	return math.Round((lo+hi)*5) / 10, true
}

// alignment projects pts onto the normal of a line at deg and returns the
// sum of squared bin counts.
func alignment(pts [][2]int, deg float64, profile []int, offset int) float64 {
	theta := (90 + deg) * math.Pi / 180
	c, s := math.Cos(theta), math.Sin(theta)
	clear(profile)
	for _, p := range pts {
		profile[int(math.Round(float64(p[0])*c+float64(p[1])*s))+offset]++
	}
	var score float64
	for _, n := range profile {
		score += float64(n) * float64(n)
	}
	return score
}

// HoughSegments extracts line segments with a progressive probabilistic
// Hough transform. Points are visited in row-major order instead of random
// order so the output is reproducible.
func HoughSegments(edges *Mask, p SegmentParams) []Segment {
	w, h := edges.Width, edges.Height
	t := newHoughTables(w, h)
	acc := make([]int, t.numAngle*t.numRho)
	remaining := edges.Clone()
	voted := make([]bool, len(edges.Pix))

	var segments []Segment
	for idx, v := range edges.Pix {
		if v == 0 || remaining.Pix[idx] == 0 {
			continue
		}
		px, py := idx%w, idx/w

		maxVal, maxN := p.Threshold-1, -1
		for n := 0; n < t.numAngle; n++ {
			r := t.rhoIndex(px, py, n)
			acc[n*t.numRho+r]++
			if acc[n*t.numRho+r] > maxVal {
				maxVal = acc[n*t.numRho+r]
				maxN = n
			}
		}
		voted[idx] = true
		if maxN < 0 {
			continue
		}

		// walk both directions along the line through (px, py)
		dirX, dirY := -t.sin[maxN], t.cos[maxN]
		var stepX, stepY float64
		if math.Abs(dirX) >= math.Abs(dirY) {
			stepX = math.Copysign(1, dirX)
			stepY = dirY / math.Abs(dirX)
		} else {
			stepY = math.Copysign(1, dirY)
			stepX = dirX / math.Abs(dirY)
		}

		var ends [2][2]int
		for k := 0; k < 2; k++ {
			sx, sy := stepX, stepY
			if k == 1 {
				sx, sy = -sx, -sy
			}
			ends[k] = [2]int{px, py}
			gap := 0
			for fx, fy := float64(px), float64(py); ; fx, fy = fx+sx, fy+sy {
				x, y := int(math.Floor(fx+0.5)), int(math.Floor(fy+0.5))
				if x < 0 || y < 0 || x >= w || y >= h {
					break
				}
				if remaining.Pix[y*w+x] != 0 {
					gap = 0
					ends[k] = [2]int{x, y}
				} else {
					gap++
					if gap > p.MaxGap {
						break
					}
				}
			}
		}

		good := absInt(ends[1][0]-ends[0][0]) >= p.MinLength || absInt(ends[1][1]-ends[0][1]) >= p.MinLength

		// consume the points of the walked segment
		for k := 0; k < 2; k++ {
			sx, sy := stepX, stepY
			if k == 1 {
				sx, sy = -sx, -sy
			}
			for fx, fy := float64(px), float64(py); ; fx, fy = fx+sx, fy+sy {
				x, y := int(math.Floor(fx+0.5)), int(math.Floor(fy+0.5))
				if x < 0 || y < 0 || x >= w || y >= h {
					break
				}
				i := y*w + x
				if remaining.Pix[i] != 0 {
					if good && voted[i] {
						for n := 0; n < t.numAngle; n++ {
							acc[n*t.numRho+t.rhoIndex(x, y, n)]--
						}
						voted[i] = false
					}
					remaining.Pix[i] = 0
				}
				if x == ends[k][0] && y == ends[k][1] {
					break
				}
			}
		}

		if good {
			segments = append(segments, Segment{X1: ends[1][0], Y1: ends[1][1], X2: ends[0][0], Y2: ends[0][1]})
		}
	}
	return segments
}

// LinePixels walks the Bresenham line from (x1,y1) to (x2,y2) and returns
// the coordinates where edges is set.
func LinePixels(edges *Mask, x1, y1, x2, y2 int) [][2]int {
	var pts [][2]int
	dx, dy := absInt(x2-x1), absInt(y2-y1)
	sx, sy := 1, 1
	if x1 >= x2 {
		sx = -1
	}
	if y1 >= y2 {
		sy = -1
	}
	err := dx - dy
	x, y := x1, y1
	for {
		if edges.At(x, y) {
			pts = append(pts, [2]int{x, y})
		}
		if x == x2 && y == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
	return pts
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
