package imaging

// Mask is a binary raster: 1 marks document pixels, 0 background.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// BBox is an inclusive pixel bounding box.
type BBox struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// Width is XMax-XMin, matching how margins are normalised.
func (b BBox) Width() int { return b.XMax - b.XMin }

// Height is YMax-YMin.
func (b BBox) Height() int { return b.YMax - b.YMin }

// NewMask allocates an all-zero mask.
func NewMask(w, h int) *Mask {
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &Mask{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

// At reports whether (x, y) is set. Out-of-range coordinates are unset.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Set marks (x, y).
func (m *Mask) Set(x, y int) {
	m.Pix[y*m.Width+x] = 1
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// CountIn returns the number of set pixels inside [x0,x1)×[y0,y1).
func (m *Mask) CountIn(x0, y0, x1, y1 int) int {
	n := 0
	for y := y0; y < y1; y++ {
		row := m.Pix[y*m.Width : y*m.Width+m.Width]
		for x := x0; x < x1; x++ {
			if row[x] != 0 {
				n++
			}
		}
	}
	return n
}

// BBox returns the bounding box of set pixels. ok is false for an empty mask.
func (m *Mask) BBox() (box BBox, ok bool) {
	box = BBox{XMin: m.Width, YMin: m.Height, XMax: -1, YMax: -1}
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		for x, v := range row {
			if v == 0 {
				continue
			}
			if x < box.XMin {
				box.XMin = x
			}
			if x > box.XMax {
				box.XMax = x
			}
			if y < box.YMin {
				box.YMin = y
			}
			box.YMax = y
		}
	}
	if box.XMax < 0 {
		return BBox{}, false
	}
	return box, true
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Invert returns the complement of m.
func (m *Mask) Invert() *Mask {
	c := NewMask(m.Width, m.Height)
	for i, v := range m.Pix {
		if v == 0 {
			c.Pix[i] = 1
		}
	}
	return c
}

// And returns the intersection of m and o, which must share dimensions.
func (m *Mask) And(o *Mask) *Mask {
	c := NewMask(m.Width, m.Height)
	for i := range m.Pix {
		if m.Pix[i] != 0 && o.Pix[i] != 0 {
			c.Pix[i] = 1
		}
	}
	return c
}

// Erode applies a kw×kh rectangular erosion. Pixels beyond the image border
// count as set, so a mask touching the border does not shrink there.
func (m *Mask) Erode(kw, kh int) *Mask {
	return m.morph(kw, kh, true)
}

// Dilate applies a kw×kh rectangular dilation.
func (m *Mask) Dilate(kw, kh int) *Mask {
	return m.morph(kw, kh, false)
}

// morph runs the separable rectangular min/max filter using running counts
// of the opposite value inside each window.
func (m *Mask) morph(kw, kh int, erode bool) *Mask {
	if kw < 1 {
		kw = 1
	}
	if kh < 1 {
		kh = 1
	}
	tmp := NewMask(m.Width, m.Height)
	out := NewMask(m.Width, m.Height)

	// horizontal pass
	before, after := kw/2, kw-1-kw/2
	for y := 0; y < m.Height; y++ {
		row := m.Pix[y*m.Width : (y+1)*m.Width]
		prefix := make([]int, m.Width+1)
		for x, v := range row {
			hit := 0
			if (v != 0) != erode {
				hit = 1
			}
			prefix[x+1] = prefix[x] + hit
		}
		for x := 0; x < m.Width; x++ {
			lo, hi := x-before, x+after
			if lo < 0 {
				lo = 0
			}
			if hi > m.Width-1 {
				hi = m.Width - 1
			}
			hits := prefix[hi+1] - prefix[lo]
			if erode && hits == 0 || !erode && hits > 0 {
				tmp.Pix[y*m.Width+x] = 1
			}
		}
	}

	// vertical pass
	before, after = kh/2, kh-1-kh/2
	prefix := make([]int, m.Height+1)
	for x := 0; x < m.Width; x++ {
		for y := 0; y < m.Height; y++ {
			hit := 0
			if (tmp.Pix[y*m.Width+x] != 0) != erode {
				hit = 1
			}
			prefix[y+1] = prefix[y] + hit
		}
		for y := 0; y < m.Height; y++ {
			lo, hi := y-before, y+after
			if lo < 0 {
				lo = 0
			}
			if hi > m.Height-1 {
				hi = m.Height - 1
			}
			hits := prefix[hi+1] - prefix[lo]
			if erode && hits == 0 || !erode && hits > 0 {
				out.Pix[y*m.Width+x] = 1
			}
		}
	}
	return out
}

// Boundary lists set pixels with at least one unset 4-neighbour inside the
// image, in row-major order.
func (m *Mask) Boundary() [][2]int {
	var pts [][2]int
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Pix[y*m.Width+x] == 0 {
				continue
			}
			if (x > 0 && !m.At(x-1, y)) || (x < m.Width-1 && !m.At(x+1, y)) ||
				(y > 0 && !m.At(x, y-1)) || (y < m.Height-1 && !m.At(x, y+1)) {
				pts = append(pts, [2]int{x, y})
			}
		}
	}
	return pts
}
