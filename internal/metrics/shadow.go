package metrics

import (
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

const (
	shadowSamples      = 20 // samples per outward ray
	shadowStride       = 2  // pixels between samples
	shadowMinSamples   = 5
	shadowPointStep    = 5 // analyse every n-th boundary pixel
	shadowStableGrad   = 2 // intensity step below which the gradient has settled
	shadowNeutralScore = 0.5
)

// 8-neighbourhood ray directions
var shadowDirections = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, -1}, {1, -1}, {-1, 1},
}

// ShadowRecord describes the halo cast by a page lying on another surface.
type ShadowRecord struct {
	Present           bool               `json:"shadow_present"`
	Intensity         float64            `json:"shadow_intensity"`
	Width             float64            `json:"shadow_width"`
	Coverage          float64            `json:"shadow_coverage"`
	PerimeterAnalyzed float64            `json:"perimeter_analyzed"`
	Confidence        float64            `json:"confidence"`
	QualityScore      float64            `json:"quality_score"`
	Measurements      ShadowMeasurements `json:"measurements"`
	// Skipped explains why the analysis did not run.
	Skipped string `json:"skipped,omitempty"`
}

type ShadowMeasurements struct {
	EdgeIntensityAvg    float64 `json:"edge_intensity_avg"`
	OuterIntensityAvg   float64 `json:"outer_intensity_avg"`
	IntensityDifference float64 `json:"intensity_difference"`
	GradientVariance    float64 `json:"gradient_variance"`
	ShadowPixels        int     `json:"shadow_pixels_detected"`
	TotalAnalysisPixels int     `json:"total_analysis_pixels"`
	DocumentArea        int     `json:"document_contour_area"`
	SampleCount         int     `json:"sample_count"`
}

func skippedShadow(reason string) ShadowRecord {
	return ShadowRecord{
		QualityScore: shadowNeutralScore,
		Measurements: ShadowMeasurements{EdgeIntensityAvg: 128, OuterIntensityAvg: 128},
		Skipped:      reason,
	}
}

// analyzeShadow samples intensity profiles outward from the document
// boundary. A page resting on another sheet shows a soft band that differs
// from the surface further out.
func analyzeShadow(frame *imaging.Frame, mask *imaging.Mask, cfg config.DocumentShadowConfig) ShadowRecord {
	w, h := frame.Width, frame.Height
	area := mask.Count()
	if area == 0 || area < cfg.MinContourArea {
		return skippedShadow("document region too small")
	}

	gray := make([]float64, len(frame.Gray))
	for i, v := range frame.Gray {
		gray[i] = float64(v)
	}
	if cfg.GaussianBlurKernel > 1 {
		gray = imaging.GaussianBlur(gray, w, h, cfg.GaussianBlurKernel, 0)
	}

	boundary := mask.Boundary()
	var (
		profiles  [][]float64
		widths    []float64
		variances []float64
	)
	for i := 0; i < len(boundary); i += shadowPointStep {
		p := boundary[i]
		samples := outwardProfile(gray, mask, p[0], p[1])
		if samples == nil {
			continue
		}
		profiles = append(profiles, samples)
		widths = append(widths, shadowWidth(samples))
		if len(samples) > 1 {
			variances = append(variances, imaging.Variance(diff(samples)))
		}
	}
	if len(profiles) == 0 {
		return skippedShadow("no outward intensity profiles")
	}

	edge := make([]float64, len(profiles))
	outer := make([]float64, len(profiles))
	for i, s := range profiles {
		edge[i] = s[0]
		outer[i] = s[len(s)-1]
	}

	band := 2 * cfg.AnalysisBandWidth
	bandPixels := 0
	if band > 0 {
		bandPixels = mask.Dilate(band, band).Count() - area
	}

	m := ShadowMeasurements{
		EdgeIntensityAvg:    imaging.Mean(edge),
		OuterIntensityAvg:   imaging.Mean(outer),
		GradientVariance:    imaging.Mean(variances),
		ShadowPixels:        bandPixels,
		TotalAnalysisPixels: w * h,
		DocumentArea:        area,
		SampleCount:         len(profiles),
	}
	m.IntensityDifference = m.OuterIntensityAvg - m.EdgeIntensityAvg

	rec := ShadowRecord{
		Intensity:         m.IntensityDifference,
		Width:             imaging.Mean(widths),
		Coverage:          ratio(float64(bandPixels), float64(w*h)) * 100,
		PerimeterAnalyzed: float64(len(boundary)),
		Measurements:      m,
	}
	rec.Present = m.IntensityDifference > cfg.ShadowThreshold
	rec.Confidence = shadowConfidence(m.IntensityDifference, m.GradientVariance, rec.Width, cfg.ShadowThreshold)
	rec.QualityScore = 1
	if rec.Present {
		rec.QualityScore = max(0, 1-m.IntensityDifference/100)
	}
	return rec
}

// outwardProfile casts rays in eight directions from (x, y) and keeps the
// longest run that leaves the document. Rays stop at the image border or on
// re-entering the mask after the first few samples. Runs shorter than
// shadowMinSamples are discarded.
func outwardProfile(gray []float64, mask *imaging.Mask, x, y int) []float64 {
	w, h := mask.Width, mask.Height
	var best []float64
	for _, d := range shadowDirections {
		var run []float64
		for i := 0; i < shadowSamples; i++ {
			sx, sy := x+d[0]*i*shadowStride, y+d[1]*i*shadowStride
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				break
			}
			if i > 2 && mask.Pix[sy*w+sx] != 0 {
				break
			}
			run = append(run, gray[sy*w+sx])
		}
		if len(run) > len(best) {
			best = run
		}
	}
	if len(best) < shadowMinSamples {
		return nil
	}
	return best
}

// shadowWidth is the distance in pixels at which the profile settles.
func shadowWidth(samples []float64) float64 {
	if len(samples) < 3 {
		return 0
	}
	for i, g := range diff(samples) {
		if g < shadowStableGrad && g > -shadowStableGrad {
			return float64(i * shadowStride)
		}
	}
	return float64(len(samples) * shadowStride)
}

func shadowConfidence(intensity, gradVar, width, threshold float64) float64 {
	factors := []float64{min(ratio(intensity, threshold*2), 1)}
	if gradVar > 0 {
		factors = append(factors, max(0, 1-gradVar/100))
	}
	if width >= 5 && width <= 100 {
		factors = append(factors, 1)
	} else {
		factors = append(factors, 0.5)
	}
	return imaging.Mean(factors)
}

func diff(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	out := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		out[i-1] = x[i] - x[i-1]
	}
	return out
}
