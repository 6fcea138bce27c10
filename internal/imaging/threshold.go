package imaging

// Otsu returns the gray level that maximises between-class variance of the
// histogram of gray. separable is false when no level splits the pixels
// into two non-empty classes, as for a constant plane.
func Otsu(gray []uint8) (threshold uint8, separable bool) {
	var hist [256]int
	for _, v := range gray {
		hist[v]++
	}
	total := len(gray)
	if total == 0 {
		return 0, false
	}

	var sumAll float64
	for i, c := range hist {
		sumAll += float64(i * c)
	}

	var (
		sumBack    float64
		weightBack int
		best       float64
		t0         int
	)
	for t := 0; t < 256; t++ {
		weightBack += hist[t]
		if weightBack == 0 {
			continue
		}
		weightFore := total - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(t * hist[t])
		meanBack := sumBack / float64(weightBack)
		meanFore := (sumAll - sumBack) / float64(weightFore)
		diff := meanBack - meanFore
		between := float64(weightBack) * float64(weightFore) * diff * diff
		if between > best {
			best = between
			t0 = t
		}
	}
	return uint8(t0), best > 0
}

// Binarize sets pixels strictly brighter than t.
func Binarize(gray []uint8, w, h int, t uint8) *Mask {
	m := NewMask(w, h)
	for i, v := range gray {
		if v > t {
			m.Pix[i] = 1
		}
	}
	return m
}

// AdaptiveGaussian sets pixels brighter than their Gaussian-weighted
// block×block neighbourhood mean minus c.
func AdaptiveGaussian(gray []uint8, w, h, block int, c float64) *Mask {
	src := make([]float64, len(gray))
	for i, v := range gray {
		src[i] = float64(v)
	}
	sigma := 0.3*(float64(block-1)*0.5-1) + 0.8
	local := GaussianBlur(src, w, h, block, sigma)

	m := NewMask(w, h)
	for i, v := range src {
		if v > local[i]-c {
			m.Pix[i] = 1
		}
	}
	return m
}
