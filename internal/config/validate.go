package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"

	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
)

// maxSuggestDistance bounds how far a typo may be from a known name to be
// offered as a suggestion.
const maxSuggestDistance = 3

var knownFormats = []string{"tiff", "png", "jpeg", "bmp", "webp", "gif"}

// Validate checks ranges, the ordering of pass/warn threshold pairs and
// every category or target name referenced by scoring and SLA sections.
// All problems are reported together in a single config error.
func (c *Config) Validate() error {
	v := &validator{}

	switch c.Segmentation.Method {
	case SegmentOtsu, SegmentAdaptive, SegmentCombined:
	default:
		v.addf("segmentation.method %q must be one of %s, %s, %s%s", c.Segmentation.Method,
			SegmentOtsu, SegmentAdaptive, SegmentCombined,
			suggest(c.Segmentation.Method, []string{SegmentOtsu, SegmentAdaptive, SegmentCombined}))
	}
	if c.Segmentation.AdaptiveBlockSize < 3 || c.Segmentation.AdaptiveBlockSize%2 == 0 {
		v.addf("segmentation.adaptive_block_size must be an odd number >= 3 (got %d)", c.Segmentation.AdaptiveBlockSize)
	}

	v.positive("resolution.min_dpi_text", c.Resolution.MinDPIText)
	v.positive("resolution.min_dpi_archival", c.Resolution.MinDPIArchival)
	v.positive("resolution.default_dpi", c.Resolution.DefaultDPI)

	v.between("exposure.max_shadow_clip_pct", c.Exposure.MaxShadowClipPct, 0, 100)
	v.between("exposure.max_highlight_clip_pct", c.Exposure.MaxHighlightClipPct, 0, 100)
	v.between("exposure.target_bg_median_lum", c.Exposure.TargetBgMedianLum, 0, 1)
	v.nonNegative("exposure.illumination_uniformity_warn", c.Exposure.IlluminationUniformityWarn)
	v.ordered("exposure.illumination_uniformity_warn", c.Exposure.IlluminationUniformityWarn,
		"exposure.illumination_uniformity_fail", c.Exposure.IlluminationUniformityFail)

	v.between("contrast.min_global_contrast", c.Contrast.MinGlobalContrast, 0, 1)
	v.between("contrast.warn_global_contrast", c.Contrast.WarnGlobalContrast, 0, 1)
	v.ordered("contrast.warn_global_contrast", c.Contrast.WarnGlobalContrast,
		"contrast.min_global_contrast", c.Contrast.MinGlobalContrast)

	v.nonNegative("sharpness.warn_laplacian_variance", c.Sharpness.WarnLaplacianVariance)
	v.ordered("sharpness.warn_laplacian_variance", c.Sharpness.WarnLaplacianVariance,
		"sharpness.min_laplacian_variance", c.Sharpness.MinLaplacianVariance)

	v.nonNegative("noise.max_bg_noise_std", c.Noise.MaxBgNoiseStd)
	v.ordered("noise.max_bg_noise_std", c.Noise.MaxBgNoiseStd, "noise.warn_bg_noise_std", c.Noise.WarnBgNoiseStd)

	v.between("geometry.max_skew_deg_pass", c.Geometry.MaxSkewDegPass, 0, 45)
	v.between("geometry.max_skew_deg_warn", c.Geometry.MaxSkewDegWarn, 0, 45)
	v.ordered("geometry.max_skew_deg_pass", c.Geometry.MaxSkewDegPass, "geometry.max_skew_deg_warn", c.Geometry.MaxSkewDegWarn)

	v.nonNegative("border_background.max_side_margin_ratio_pass", c.BorderBackground.MaxSideMarginRatioPass)
	v.ordered("border_background.max_side_margin_ratio_pass", c.BorderBackground.MaxSideMarginRatioPass,
		"border_background.max_side_margin_ratio_warn", c.BorderBackground.MaxSideMarginRatioWarn)
	v.between("border_background.max_bg_median_luminance", c.BorderBackground.MaxBgMedianLuminance, 0, 1)

	v.nonNegative("color.max_gray_deltaE_pass", c.Color.MaxGrayDeltaEPass)
	v.ordered("color.max_gray_deltaE_pass", c.Color.MaxGrayDeltaEPass, "color.max_gray_deltaE_warn", c.Color.MaxGrayDeltaEWarn)
	v.between("color.max_hue_cast_degrees_warn", c.Color.MaxHueCastDegreesWarn, 0, 180)

	if len(c.FormatIntegrity.AllowedFormats) == 0 {
		v.addf("format_integrity.allowed_formats must not be empty")
	}
	for _, f := range c.FormatIntegrity.AllowedFormats {
		if !contains(knownFormats, f) {
			v.addf("format_integrity.allowed_formats: unknown format %q%s", f, suggest(f, knownFormats))
		}
	}
	v.between("format_integrity.jpeg_quality_warn", c.FormatIntegrity.JPEGQualityWarn, 0, 1)
	if c.FormatIntegrity.BitDepthMin < 1 || c.FormatIntegrity.BitDepthMin > 32 {
		v.addf("format_integrity.bit_depth_min must be in [1, 32] (got %d)", c.FormatIntegrity.BitDepthMin)
	}

	if c.Completeness.MinMarginPx < 0 {
		v.addf("completeness.min_margin_px must be >= 0 (got %d)", c.Completeness.MinMarginPx)
	}
	v.between("completeness.min_content_bbox_coverage", c.Completeness.MinContentBBoxCoverage, 0, 1)

	v.between("foreign_objects.background_threshold", c.ForeignObjects.BackgroundThreshold, 0, 255)
	v.between("foreign_objects.min_object_area_pct", c.ForeignObjects.MinObjectAreaPct, 0, 100)
	v.between("foreign_objects.flag_area_pct", c.ForeignObjects.FlagAreaPct, 0, 100)

	v.between("document_shadow.shadow_threshold", c.DocumentShadow.ShadowThreshold, 0, 255)
	if c.DocumentShadow.AnalysisBandWidth < 1 {
		v.addf("document_shadow.analysis_band_width must be >= 1 (got %d)", c.DocumentShadow.AnalysisBandWidth)
	}
	if c.DocumentShadow.MinContourArea < 0 {
		v.addf("document_shadow.min_contour_area must be >= 0 (got %d)", c.DocumentShadow.MinContourArea)
	}
	if k := c.DocumentShadow.GaussianBlurKernel; k < 0 || (k > 0 && k%2 == 0) {
		v.addf("document_shadow.gaussian_blur_kernel must be 0 or odd (got %d)", k)
	}
	v.ordered("document_shadow.warn_shadow_intensity", c.DocumentShadow.WarnShadowIntensity,
		"document_shadow.fail_shadow_intensity", c.DocumentShadow.FailShadowIntensity)

	c.validateScoring(v)
	c.validateSLA(v)

	if len(v.problems) == 0 {
		return nil
	}
	return apperrors.NewConfigError("invalid quality configuration", nil).
		WithDetails(strings.Join(v.problems, "; "))
}

func (c *Config) validateScoring(v *validator) {
	s := c.Scoring
	for _, name := range sortedKeys(s.Weights) {
		v.category("scoring.weights", name)
		if s.Weights[name] < 0 {
			v.addf("scoring.weights.%s must be >= 0 (got %g)", name, s.Weights[name])
		}
	}
	var total float64
	for _, name := range categoryOrder {
		total += s.Weight(name)
	}
	if total <= 0 {
		v.addf("scoring.weights must not all be zero")
	}
	for _, name := range s.CriticalCategories {
		v.category("scoring.critical_categories", name)
	}
	v.between("scoring.warn_score_threshold", s.WarnScoreThreshold, 0, 1)
	v.between("scoring.four_star_threshold", s.FourStarThreshold, 0, 1)
	v.ordered("scoring.warn_score_threshold", s.WarnScoreThreshold, "scoring.pass_score_threshold", s.PassScoreThreshold)
	v.ordered("scoring.pass_score_threshold", s.PassScoreThreshold, "scoring.four_star_threshold", s.FourStarThreshold)
}

func (c *Config) validateSLA(v *validator) {
	s := c.SLA
	if !s.Enabled {
		return
	}
	r := s.Requirements
	v.between("sla.requirements.min_overall_score", r.MinOverallScore, 0, 1)
	if r.MaxFailCategories < 0 {
		v.addf("sla.requirements.max_fail_categories must be >= 0 (got %d)", r.MaxFailCategories)
	}
	for _, name := range r.RequiredPassCategories {
		v.category("sla.requirements.required_pass_categories", name)
	}
	known := PerformanceTargets()
	for _, name := range sortedKeys(r.PerformanceTargets) {
		if !contains(known, name) {
			v.addf("sla.requirements.performance_targets: unknown target %q%s", name, suggest(name, known))
		}
	}

	l := s.ComplianceLevels
	v.between("sla.compliance_levels.excellent.min_score", l.Excellent.MinScore, 0, 1)
	v.between("sla.compliance_levels.warning.min_score", l.Warning.MinScore, 0, 1)
	v.ordered("sla.compliance_levels.compliant.min_score", l.Compliant.MinScore,
		"sla.compliance_levels.excellent.min_score", l.Excellent.MinScore)
	v.ordered("sla.compliance_levels.warning.min_score", l.Warning.MinScore,
		"sla.compliance_levels.compliant.min_score", l.Compliant.MinScore)
}

type validator struct {
	problems []string
}

func (v *validator) addf(format string, args ...interface{}) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) positive(key string, value float64) {
	if value <= 0 {
		v.addf("%s must be > 0 (got %g)", key, value)
	}
}

func (v *validator) nonNegative(key string, value float64) {
	if value < 0 {
		v.addf("%s must be >= 0 (got %g)", key, value)
	}
}

func (v *validator) between(key string, value, lo, hi float64) {
	if value < lo || value > hi {
		v.addf("%s must be in [%g, %g] (got %g)", key, lo, hi, value)
	}
}

// ordered requires lower <= upper.
func (v *validator) ordered(lowerKey string, lower float64, upperKey string, upper float64) {
	if lower > upper {
		v.addf("%s (%g) must not exceed %s (%g)", lowerKey, lower, upperKey, upper)
	}
}

func (v *validator) category(key, name string) {
	if !contains(categoryOrder, name) {
		v.addf("%s: unknown category %q%s", key, name, suggest(name, categoryOrder))
	}
}

// suggest returns a "did you mean" hint for the closest known name.
func suggest(name string, known []string) string {
	best, bestDist := "", maxSuggestDistance+1
	for _, k := range known {
		if d := levenshtein.Distance(name, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
