package metrics

import (
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

type ExposureRecord struct {
	Clipping               Clipping         `json:"clipping"`
	IlluminationUniformity Uniformity       `json:"illumination_uniformity"`
	Brightness             BrightnessStats  `json:"brightness"`
	DynamicRange           DynamicRange     `json:"dynamic_range"`
	Background             BackgroundLevels `json:"background"`
}

func (ExposureRecord) Category() Category { return Exposure }

type Clipping struct {
	ShadowClipPct          float64 `json:"shadow_clip_pct"`
	HighlightClipPct       float64 `json:"highlight_clip_pct"`
	ShadowClippedPixels    int     `json:"shadow_clipped_pixels"`
	HighlightClippedPixels int     `json:"highlight_clipped_pixels"`
	TotalPixels            int     `json:"total_pixels"`
}

// Uniformity summarises tile mean luminance. Ratio is std/mean; lower is
// more even lighting.
type Uniformity struct {
	Ratio                  float64 `json:"uniformity_ratio"`
	LocalStd               float64 `json:"local_std"`
	LocalMean              float64 `json:"local_mean"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	TilesAnalyzed          int     `json:"num_tiles_analyzed"`
}

type BrightnessStats struct {
	Mean        float64     `json:"mean"`
	Median      float64     `json:"median"`
	Std         float64     `json:"std"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
	Percentiles Percentiles `json:"percentiles"`
}

type Percentiles struct {
	P5  float64 `json:"p5"`
	P10 float64 `json:"p10"`
	P25 float64 `json:"p25"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
}

type DynamicRange struct {
	EffectiveRange float64 `json:"effective_range"`
	FullRange      float64 `json:"full_range"`
	Utilization    float64 `json:"utilization"`
	P5             float64 `json:"p5_value"`
	P95            float64 `json:"p95_value"`
}

type BackgroundLevels struct {
	Median     float64 `json:"median"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	Max        float64 `json:"max"`
	PixelCount int     `json:"pixel_count"`
}

type exposureComputer struct {
	tileSize int
}

// NewExposureComputer measures clipping, lighting evenness and brightness.
func NewExposureComputer() Computer {
	return exposureComputer{tileSize: imaging.DefaultTileSize}
}

func (exposureComputer) Category() Category { return Exposure }

func (e exposureComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	lum, mask := in.Frame.Lum, in.Mask
	doc := imaging.Select(lum, mask)
	if len(doc) == 0 {
		return &ExposureRecord{IlluminationUniformity: Uniformity{Ratio: 1}}, nil
	}

	rec := &ExposureRecord{}

	var shadow, highlight int
	for _, v := range doc {
		if v <= 0 {
			shadow++
		}
		if v >= 1 {
			highlight++
		}
	}
	rec.Clipping = Clipping{
		ShadowClipPct:          float64(shadow) / float64(len(doc)) * 100,
		HighlightClipPct:       float64(highlight) / float64(len(doc)) * 100,
		ShadowClippedPixels:    shadow,
		HighlightClippedPixels: highlight,
		TotalPixels:            len(doc),
	}

	rec.IlluminationUniformity = e.uniformity(lum, mask)

	lo, hi := imaging.MinMax(doc)
	p := imaging.Percentiles(doc, 5, 10, 25, 50, 75, 90, 95)
	rec.Brightness = BrightnessStats{
		Mean:   imaging.Mean(doc),
		Median: p[3],
		Std:    imaging.StdDev(doc),
		Min:    lo,
		Max:    hi,
		Percentiles: Percentiles{
			P5: p[0], P10: p[1], P25: p[2], P75: p[4], P90: p[5], P95: p[6],
		},
	}
	rec.DynamicRange = DynamicRange{
		EffectiveRange: p[6] - p[0],
		FullRange:      hi - lo,
		Utilization:    p[6] - p[0],
		P5:             p[0],
		P95:            p[6],
	}

	rec.Background = backgroundLevels(lum, mask)
	return rec, nil
}

func (e exposureComputer) uniformity(lum []float64, mask *imaging.Mask) Uniformity {
	minPixels := minTileCoverage * float64(e.tileSize*e.tileSize)
	var means []float64
	for _, r := range imaging.Tiles(mask.Width, mask.Height, e.tileSize) {
		if float64(mask.CountIn(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)) < minPixels {
			continue
		}
		vals := imaging.Select(imaging.Crop(lum, mask.Width, r), mask.Crop(r))
		if len(vals) > 0 {
			means = append(means, imaging.Mean(vals))
		}
	}
	if len(means) == 0 {
		return Uniformity{Ratio: 1}
	}

	mean, std := imaging.Mean(means), imaging.StdDev(means)
	u := Uniformity{
		Ratio:         ratio(std, mean),
		LocalStd:      std,
		LocalMean:     mean,
		TilesAnalyzed: len(means),
	}
	u.CoefficientOfVariation = u.Ratio * 100
	return u
}

// backgroundLevels summarises luminance outside the document.
func backgroundLevels(lum []float64, mask *imaging.Mask) BackgroundLevels {
	bg := imaging.Select(lum, mask.Invert())
	if len(bg) == 0 {
		return BackgroundLevels{}
	}
	_, hi := imaging.MinMax(bg)
	return BackgroundLevels{
		Median:     imaging.Median(bg),
		Mean:       imaging.Mean(bg),
		Std:        imaging.StdDev(bg),
		Max:        hi,
		PixelCount: len(bg),
	}
}
