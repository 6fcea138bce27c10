package imaging

import "image"

// DefaultTileSize is the edge length of local-analysis tiles.
const DefaultTileSize = 64

// Tiles partitions a w×h plane into size×size rectangles in row-major
// order. Tiles on the right and bottom edges are clipped.
func Tiles(w, h, size int) []image.Rectangle {
	if size <= 0 || w <= 0 || h <= 0 {
		return nil
	}
	tiles := make([]image.Rectangle, 0, ((w+size-1)/size)*((h+size-1)/size))
	for y := 0; y < h; y += size {
		for x := 0; x < w; x += size {
			x2, y2 := x+size, y+size
			if x2 > w {
				x2 = w
			}
			if y2 > h {
				y2 = h
			}
			tiles = append(tiles, image.Rect(x, y, x2, y2))
		}
	}
	return tiles
}

// Crop copies the r region of a w-wide plane into a new r.Dx()×r.Dy() plane.
func Crop(plane []float64, w int, r image.Rectangle) []float64 {
	out := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		out = append(out, plane[y*w+r.Min.X:y*w+r.Max.X]...)
	}
	return out
}

// Crop copies the r region of m into a new mask.
func (m *Mask) Crop(r image.Rectangle) *Mask {
	out := NewMask(r.Dx(), r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(out.Pix[(y-r.Min.Y)*out.Width:], m.Pix[y*m.Width+r.Min.X:y*m.Width+r.Max.X])
	}
	return out
}
