package storage

import (
	"encoding/binary"
)

// stdLuminanceQuant is the IJG reference luminance table in natural order.
var stdLuminanceQuant = [64]float64{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

// zigzag maps stream position to natural index.
var zigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// estimateJPEGQuality inverts IJG quality scaling using the luminance table
// (id 0) of a DQT segment. The result is in 0..1.
func estimateJPEGQuality(seg []byte) (float64, bool) {
	for off := 0; off < len(seg); {
		precision := seg[off] >> 4
		id := seg[off] & 0x0F
		off++

		size := 64
		if precision == 1 {
			size = 128
		}
		if off+size > len(seg) {
			return 0, false
		}

		if id == 0 {
			var sum float64
			for k := 0; k < 64; k++ {
				var q float64
				if precision == 1 {
					q = float64(binary.BigEndian.Uint16(seg[off+2*k:]))
				} else {
					q = float64(seg[off+k])
				}
				sum += q * 100 / stdLuminanceQuant[zigzag[k]]
			}
			return qualityFromScale(sum / 64), true
		}
		off += size
	}
	return 0, false
}

func qualityFromScale(scale float64) float64 {
	var q float64
	switch {
	case scale <= 0:
		q = 100
	case scale <= 100:
		q = (200 - scale) / 2
	default:
		q = 5000 / scale
	}
	return min(max(q, 1), 100) / 100
}
