package metrics

import (
	"math"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

const (
	noiseErosion    = 10
	noiseMinSamples = 100
	// blockSize is the JPEG DCT block edge.
	blockSize = 8
)

type NoiseRecord struct {
	BgNoiseStd      float64 `json:"bg_noise_std"`
	BlockinessIndex float64 `json:"blockiness_index"`
	SamplesUsed     int     `json:"samples_used"`
}

func (NoiseRecord) Category() Category { return Noise }

type noiseComputer struct{}

func NewNoiseComputer() Computer {
	return noiseComputer{}
}

func (noiseComputer) Category() Category { return Noise }

func (noiseComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	f := in.Frame
	rec := &NoiseRecord{
		BlockinessIndex: blockiness(f),
	}

	paper := in.Mask.Erode(noiseErosion, noiseErosion).Erode(noiseErosion, noiseErosion)
	n := paper.Count()
	if n < noiseMinSamples {
		return rec, nil
	}

	smoothed := imaging.GaussianBlur(f.Lum, f.Width, f.Height, 3, 1.0)
	residual := make([]float64, 0, n)
	for i, v := range f.Lum {
		if paper.Pix[i] != 0 {
			residual = append(residual, v-smoothed[i])
		}
	}
	rec.BgNoiseStd = imaging.StdDev(residual)
	rec.SamplesUsed = n
	return rec, nil
}

// blockiness is the share of gradient energy that falls on the 8-pixel
// grid, a proxy for JPEG block artifacts.
func blockiness(f *imaging.Frame) float64 {
	w, h := f.Width, f.Height
	if w == 0 || h == 0 {
		return 0
	}
	gx, gy := imaging.Sobel(f.GrayFloat(nil), w, h)

	var grid, total float64
	for i := range gx {
		total += math.Abs(gx[i]) + math.Abs(gy[i])
	}
	for x := blockSize; x < w; x += blockSize {
		for y := 0; y < h; y++ {
			grid += math.Abs(gx[y*w+x])
		}
	}
	for y := blockSize; y < h; y += blockSize {
		for x := 0; x < w; x++ {
			grid += math.Abs(gy[y*w+x])
		}
	}
	return ratio(grid, total)
}
