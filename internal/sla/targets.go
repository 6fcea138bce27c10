package sla

import (
	"fmt"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
)

// target reads one metric value for a performance target.
type target struct {
	category metrics.Category
	metric   string
	// atLeast is true for minimums, false for maximums.
	atLeast bool
	value   func(metrics.Record) (float64, bool)
	// describe renders the violation text from actual and required.
	describe func(actual, required float64) string
}

var targets = map[string]target{
	config.TargetSharpnessMinLaplacian: {
		category: metrics.Sharpness,
		metric:   "laplacian_var",
		atLeast:  true,
		value: func(r metrics.Record) (float64, bool) {
			s, ok := r.(*metrics.SharpnessRecord)
			if !ok || s == nil {
				return 0, false
			}
			return s.LaplacianVar, true
		},
		describe: func(a, req float64) string {
			return fmt.Sprintf("Image sharpness below quality standard (%.1f < %g)", a, req)
		},
	},
	config.TargetContrastMinGlobal: {
		category: metrics.Contrast,
		metric:   "global_contrast",
		atLeast:  true,
		value: func(r metrics.Record) (float64, bool) {
			c, ok := r.(*metrics.ContrastRecord)
			if !ok || c == nil {
				return 0, false
			}
			return c.GlobalContrast, true
		},
		describe: func(a, req float64) string {
			return fmt.Sprintf("Image contrast below quality standard (%.3f < %g)", a, req)
		},
	},
	config.TargetResolutionMinDPI: {
		category: metrics.Resolution,
		metric:   "effective_dpi",
		atLeast:  true,
		value: func(r metrics.Record) (float64, bool) {
			res, ok := r.(*metrics.ResolutionRecord)
			if !ok || res == nil {
				return 0, false
			}
			return res.MinDPI(), true
		},
		describe: func(a, req float64) string {
			return fmt.Sprintf("Image resolution below quality standard (%.0f DPI < %g DPI)", a, req)
		},
	},
	config.TargetNoiseMaxStd: {
		category: metrics.Noise,
		metric:   "bg_noise_std",
		value: func(r metrics.Record) (float64, bool) {
			n, ok := r.(*metrics.NoiseRecord)
			if !ok || n == nil {
				return 0, false
			}
			return n.BgNoiseStd, true
		},
		describe: func(a, req float64) string {
			return fmt.Sprintf("Image noise above quality standard (%.3f > %g)", a, req)
		},
	},
	config.TargetGeometryMaxSkew: {
		category: metrics.Geometry,
		metric:   "skew_angle_abs",
		value: func(r metrics.Record) (float64, bool) {
			g, ok := r.(*metrics.GeometryRecord)
			if !ok || g == nil {
				return 0, false
			}
			return g.SkewAngleAbs, true
		},
		describe: func(a, req float64) string {
			return fmt.Sprintf("Document skew above quality standard (%.1f° > %g°)", a, req)
		},
	},
	config.TargetExposureMaxHighlightClip: {
		category: metrics.Exposure,
		metric:   "highlight_clip_pct",
		value: func(r metrics.Record) (float64, bool) {
			e, ok := r.(*metrics.ExposureRecord)
			if !ok || e == nil {
				return 0, false
			}
			return e.Clipping.HighlightClipPct, true
		},
		describe: func(a, req float64) string {
			return fmt.Sprintf("Image exposure clipping exceeds quality standards (highlights %.2f%% > %g%%)", a, req)
		},
	},
	config.TargetExposureMaxShadowClip: {
		category: metrics.Exposure,
		metric:   "shadow_clip_pct",
		value: func(r metrics.Record) (float64, bool) {
			e, ok := r.(*metrics.ExposureRecord)
			if !ok || e == nil {
				return 0, false
			}
			return e.Clipping.ShadowClipPct, true
		},
		describe: func(a, req float64) string {
			return fmt.Sprintf("Image exposure clipping exceeds quality standards (shadows %.2f%% > %g%%)", a, req)
		},
	},
}

// checkTarget returns the violation for key, or nil when the target holds.
// A missing record violates the target.
func checkTarget(key string, required float64, records map[metrics.Category]metrics.Record) *Violation {
	t, ok := targets[key]
	if !ok {
		return nil
	}

	var actual float64
	rec := records[t.category]
	missing := metrics.Missing(rec)
	if !missing {
		actual, ok = t.value(rec)
	}
	if missing || !ok {
		return &Violation{
			Requirement: key,
			Metric:      t.metric,
			Required:    required,
			Actual:      nil,
			Description: fmt.Sprintf("No %s measurement available for %s", t.category, key),
		}
	}

	if (t.atLeast && actual >= required) || (!t.atLeast && actual <= required) {
		return nil
	}
	return &Violation{
		Requirement: key,
		Metric:      t.metric,
		Required:    required,
		Actual:      actual,
		Description: t.describe(actual, required),
	}
}
