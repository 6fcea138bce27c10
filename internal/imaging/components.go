package imaging

// Component is one 8-connected region of a mask.
type Component struct {
	Label int
	Area  int
	BBox  BBox
}

// Label assigns 8-connected component labels (1..n) to set pixels of m.
// Labels follow row-major discovery order, so results are deterministic.
func Label(m *Mask) ([]int32, []Component) {
	labels := make([]int32, len(m.Pix))
	var comps []Component
	stack := make([]int, 0, 1024)

	for start, v := range m.Pix {
		if v == 0 || labels[start] != 0 {
			continue
		}
		label := int32(len(comps) + 1)
		sx, sy := start%m.Width, start/m.Width
		comp := Component{Label: int(label), BBox: BBox{XMin: sx, YMin: sy, XMax: sx, YMax: sy}}

		labels[start] = label
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%m.Width, idx/m.Width
			comp.Area++
			if x < comp.BBox.XMin {
				comp.BBox.XMin = x
			}
			if x > comp.BBox.XMax {
				comp.BBox.XMax = x
			}
			if y < comp.BBox.YMin {
				comp.BBox.YMin = y
			}
			if y > comp.BBox.YMax {
				comp.BBox.YMax = y
			}

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= m.Height {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if (dx == 0 && dy == 0) || nx < 0 || nx >= m.Width {
						continue
					}
					n := ny*m.Width + nx
					if m.Pix[n] != 0 && labels[n] == 0 {
						labels[n] = label
						stack = append(stack, n)
					}
				}
			}
		}
		comps = append(comps, comp)
	}
	return labels, comps
}

// LargestComponent keeps only the largest 8-connected region of m. Ties go to
// the region discovered first. An empty input yields an empty mask.
func LargestComponent(m *Mask) *Mask {
	labels, comps := Label(m)
	out := NewMask(m.Width, m.Height)
	if len(comps) == 0 {
		return out
	}

	best := comps[0]
	for _, c := range comps[1:] {
		if c.Area > best.Area {
			best = c
		}
	}
	for i, l := range labels {
		if int(l) == best.Label {
			out.Pix[i] = 1
		}
	}
	return out
}

// FillHoles sets every unset pixel that is not 4-connected to the image
// border through unset pixels.
func FillHoles(m *Mask) *Mask {
	w, h := m.Width, m.Height
	if w == 0 || h == 0 {
		return NewMask(w, h)
	}
	outside := make([]bool, len(m.Pix))
	stack := make([]int, 0, 2*(w+h))

	push := func(x, y int) {
		i := y*w + x
		if m.Pix[i] == 0 && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}

	out := NewMask(w, h)
	for i := range out.Pix {
		if !outside[i] {
			out.Pix[i] = 1
		}
	}
	return out
}
