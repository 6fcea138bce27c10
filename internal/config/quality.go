package config

// Category names in declaration order. Scoring, action items and reports
// iterate categories in this order.
var categoryOrder = []string{
	"completeness",
	"foreign_objects",
	"sharpness",
	"exposure",
	"contrast",
	"color",
	"geometry",
	"border_background",
	"noise",
	"format_integrity",
	"resolution",
}

// Categories returns the built-in category names in declaration order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// Segmentation methods.
const (
	SegmentOtsu     = "otsu"
	SegmentAdaptive = "adaptive"
	SegmentCombined = "combined"
)

// Performance target keys understood by the SLA evaluator.
const (
	TargetSharpnessMinLaplacian    = "sharpness_min_laplacian"
	TargetContrastMinGlobal        = "contrast_min_global"
	TargetResolutionMinDPI         = "resolution_min_dpi"
	TargetNoiseMaxStd              = "noise_max_std"
	TargetGeometryMaxSkew          = "geometry_max_skew"
	TargetExposureMaxHighlightClip = "exposure_max_highlight_clip"
	TargetExposureMaxShadowClip    = "exposure_max_shadow_clip"
)

// PerformanceTargets lists the target keys in evaluation order.
func PerformanceTargets() []string {
	return []string{
		TargetSharpnessMinLaplacian,
		TargetContrastMinGlobal,
		TargetResolutionMinDPI,
		TargetNoiseMaxStd,
		TargetGeometryMaxSkew,
		TargetExposureMaxHighlightClip,
		TargetExposureMaxShadowClip,
	}
}

// Config is the validated quality configuration. It is treated as
// immutable once loaded; use Clone or the With helpers to derive variants.
type Config struct {
	Segmentation     SegmentationConfig     `yaml:"segmentation" json:"segmentation"`
	Resolution       ResolutionConfig       `yaml:"resolution" json:"resolution"`
	Exposure         ExposureConfig         `yaml:"exposure" json:"exposure"`
	Contrast         ContrastConfig         `yaml:"contrast" json:"contrast"`
	Sharpness        SharpnessConfig        `yaml:"sharpness" json:"sharpness"`
	Noise            NoiseConfig            `yaml:"noise" json:"noise"`
	Geometry         GeometryConfig         `yaml:"geometry" json:"geometry"`
	BorderBackground BorderBackgroundConfig `yaml:"border_background" json:"border_background"`
	Color            ColorConfig            `yaml:"color" json:"color"`
	FormatIntegrity  FormatIntegrityConfig  `yaml:"format_integrity" json:"format_integrity"`
	Completeness     CompletenessConfig     `yaml:"completeness" json:"completeness"`
	ForeignObjects   ForeignObjectsConfig   `yaml:"foreign_objects" json:"foreign_objects"`
	DocumentShadow   DocumentShadowConfig   `yaml:"document_shadow" json:"document_shadow"`
	Scoring          ScoringConfig          `yaml:"scoring" json:"scoring"`
	SLA              SLAConfig              `yaml:"sla" json:"sla"`
}

type SegmentationConfig struct {
	Method            string  `yaml:"method" json:"method"`
	AdaptiveBlockSize int     `yaml:"adaptive_block_size" json:"adaptive_block_size"`
	AdaptiveC         float64 `yaml:"adaptive_c" json:"adaptive_c"`
}

type ResolutionConfig struct {
	MinDPIText     float64 `yaml:"min_dpi_text" json:"min_dpi_text"`
	MinDPIArchival float64 `yaml:"min_dpi_archival" json:"min_dpi_archival"`
	// DefaultDPI is assumed when the image carries no density metadata.
	DefaultDPI float64 `yaml:"default_dpi" json:"default_dpi"`
}

type ExposureConfig struct {
	MaxShadowClipPct           float64 `yaml:"max_shadow_clip_pct" json:"max_shadow_clip_pct"`
	MaxHighlightClipPct        float64 `yaml:"max_highlight_clip_pct" json:"max_highlight_clip_pct"`
	TargetBgMedianLum          float64 `yaml:"target_bg_median_lum" json:"target_bg_median_lum"`
	IlluminationUniformityWarn float64 `yaml:"illumination_uniformity_warn" json:"illumination_uniformity_warn"`
	IlluminationUniformityFail float64 `yaml:"illumination_uniformity_fail" json:"illumination_uniformity_fail"`
}

type ContrastConfig struct {
	MinGlobalContrast  float64 `yaml:"min_global_contrast" json:"min_global_contrast"`
	WarnGlobalContrast float64 `yaml:"warn_global_contrast" json:"warn_global_contrast"`
}

type SharpnessConfig struct {
	MinLaplacianVariance  float64 `yaml:"min_laplacian_variance" json:"min_laplacian_variance"`
	WarnLaplacianVariance float64 `yaml:"warn_laplacian_variance" json:"warn_laplacian_variance"`
}

type NoiseConfig struct {
	MaxBgNoiseStd  float64 `yaml:"max_bg_noise_std" json:"max_bg_noise_std"`
	WarnBgNoiseStd float64 `yaml:"warn_bg_noise_std" json:"warn_bg_noise_std"`
}

type GeometryConfig struct {
	MaxSkewDegPass float64 `yaml:"max_skew_deg_pass" json:"max_skew_deg_pass"`
	MaxSkewDegWarn float64 `yaml:"max_skew_deg_warn" json:"max_skew_deg_warn"`
}

type BorderBackgroundConfig struct {
	RequireBlackBackground bool    `yaml:"require_black_background" json:"require_black_background"`
	MaxSideMarginRatioPass float64 `yaml:"max_side_margin_ratio_pass" json:"max_side_margin_ratio_pass"`
	MaxSideMarginRatioWarn float64 `yaml:"max_side_margin_ratio_warn" json:"max_side_margin_ratio_warn"`
	MaxBgMedianLuminance   float64 `yaml:"max_bg_median_luminance" json:"max_bg_median_luminance"`
}

type ColorConfig struct {
	EnableColorChecks     bool    `yaml:"enable_color_checks" json:"enable_color_checks"`
	MaxGrayDeltaEPass     float64 `yaml:"max_gray_deltaE_pass" json:"max_gray_deltaE_pass"`
	MaxGrayDeltaEWarn     float64 `yaml:"max_gray_deltaE_warn" json:"max_gray_deltaE_warn"`
	MaxHueCastDegreesWarn float64 `yaml:"max_hue_cast_degrees_warn" json:"max_hue_cast_degrees_warn"`
}

type FormatIntegrityConfig struct {
	AllowedFormats  []string `yaml:"allowed_formats" json:"allowed_formats"`
	JPEGQualityWarn float64  `yaml:"jpeg_quality_warn" json:"jpeg_quality_warn"`
	BitDepthMin     int      `yaml:"bit_depth_min" json:"bit_depth_min"`
}

type CompletenessConfig struct {
	MinMarginPx            int     `yaml:"min_margin_px" json:"min_margin_px"`
	MinContentBBoxCoverage float64 `yaml:"min_content_bbox_coverage" json:"min_content_bbox_coverage"`
	// DetectCroppedText enables the edge-density check for text running
	// off the image border.
	DetectCroppedText bool `yaml:"detect_cropped_text" json:"detect_cropped_text"`
}

type ForeignObjectsConfig struct {
	// BackgroundThreshold is the 0..255 gray level above which a
	// background pixel counts as a possible object.
	BackgroundThreshold float64 `yaml:"background_threshold" json:"background_threshold"`
	// MinObjectAreaPct is the smallest object kept, in percent of the
	// background area.
	MinObjectAreaPct float64 `yaml:"min_object_area_pct" json:"min_object_area_pct"`
	FlagAreaPct      float64 `yaml:"flag_area_pct" json:"flag_area_pct"`
}

type DocumentShadowConfig struct {
	ShadowThreshold     float64 `yaml:"shadow_threshold" json:"shadow_threshold"`
	AnalysisBandWidth   int     `yaml:"analysis_band_width" json:"analysis_band_width"`
	MinContourArea      int     `yaml:"min_contour_area" json:"min_contour_area"`
	GaussianBlurKernel  int     `yaml:"gaussian_blur_kernel" json:"gaussian_blur_kernel"`
	WarnShadowIntensity float64 `yaml:"warn_shadow_intensity" json:"warn_shadow_intensity"`
	FailShadowIntensity float64 `yaml:"fail_shadow_intensity" json:"fail_shadow_intensity"`
}

type ScoringConfig struct {
	// Weights per category; categories not listed weigh 1.0.
	Weights            map[string]float64 `yaml:"weights" json:"weights"`
	FourStarThreshold  float64            `yaml:"four_star_threshold" json:"four_star_threshold"`
	PassScoreThreshold float64            `yaml:"pass_score_threshold" json:"pass_score_threshold"`
	WarnScoreThreshold float64            `yaml:"warn_score_threshold" json:"warn_score_threshold"`
	CriticalCategories []string           `yaml:"critical_categories" json:"critical_categories"`
}

// Weight returns the configured weight for category, defaulting to 1.0.
func (s ScoringConfig) Weight(category string) float64 {
	if w, ok := s.Weights[category]; ok {
		return w
	}
	return 1.0
}

// IsCritical reports whether a FAIL in category forces a global FAIL.
func (s ScoringConfig) IsCritical(category string) bool {
	for _, c := range s.CriticalCategories {
		if c == category {
			return true
		}
	}
	return false
}

type SLAConfig struct {
	Enabled          bool                   `yaml:"enabled" json:"enabled"`
	Name             string                 `yaml:"name" json:"name"`
	Description      string                 `yaml:"description" json:"description"`
	Requirements     SLARequirements        `yaml:"requirements" json:"requirements"`
	ComplianceLevels ComplianceLevelsConfig `yaml:"compliance_levels" json:"compliance_levels"`
}

type SLARequirements struct {
	MinOverallScore        float64            `yaml:"min_overall_score" json:"min_overall_score"`
	MaxFailCategories      int                `yaml:"max_fail_categories" json:"max_fail_categories"`
	RequiredPassCategories []string           `yaml:"required_pass_categories" json:"required_pass_categories"`
	PerformanceTargets     map[string]float64 `yaml:"performance_targets" json:"performance_targets"`
}

type ComplianceLevel struct {
	MinScore    float64 `yaml:"min_score" json:"min_score"`
	Description string  `yaml:"description" json:"description"`
}

type ComplianceLevelsConfig struct {
	Excellent    ComplianceLevel `yaml:"excellent" json:"excellent"`
	Compliant    ComplianceLevel `yaml:"compliant" json:"compliant"`
	Warning      ComplianceLevel `yaml:"warning" json:"warning"`
	NonCompliant ComplianceLevel `yaml:"non_compliant" json:"non_compliant"`
}

// Default returns a fresh copy of the built-in configuration, tuned for
// documents photographed or scanned on a black background.
func Default() *Config {
	return &Config{
		Segmentation: SegmentationConfig{
			Method:            SegmentOtsu,
			AdaptiveBlockSize: 11,
			AdaptiveC:         2,
		},
		Resolution: ResolutionConfig{
			MinDPIText:     300,
			MinDPIArchival: 400,
			DefaultDPI:     72,
		},
		Exposure: ExposureConfig{
			MaxShadowClipPct:           0.5,
			MaxHighlightClipPct:        0.5,
			TargetBgMedianLum:          0.10,
			IlluminationUniformityWarn: 0.15,
			IlluminationUniformityFail: 0.25,
		},
		Contrast: ContrastConfig{
			MinGlobalContrast:  0.20,
			WarnGlobalContrast: 0.15,
		},
		Sharpness: SharpnessConfig{
			MinLaplacianVariance:  150,
			WarnLaplacianVariance: 120,
		},
		Noise: NoiseConfig{
			MaxBgNoiseStd:  0.04,
			WarnBgNoiseStd: 0.06,
		},
		Geometry: GeometryConfig{
			MaxSkewDegPass: 1.0,
			MaxSkewDegWarn: 3.0,
		},
		BorderBackground: BorderBackgroundConfig{
			RequireBlackBackground: true,
			MaxSideMarginRatioPass: 0.10,
			MaxSideMarginRatioWarn: 0.12,
			MaxBgMedianLuminance:   0.10,
		},
		Color: ColorConfig{
			EnableColorChecks:     true,
			MaxGrayDeltaEPass:     5.0,
			MaxGrayDeltaEWarn:     8.0,
			MaxHueCastDegreesWarn: 6.0,
		},
		FormatIntegrity: FormatIntegrityConfig{
			AllowedFormats:  []string{"tiff", "png", "jpeg"},
			JPEGQualityWarn: 0.85,
			BitDepthMin:     8,
		},
		Completeness: CompletenessConfig{
			MinMarginPx:            8,
			MinContentBBoxCoverage: 0.90,
		},
		ForeignObjects: ForeignObjectsConfig{
			BackgroundThreshold: 50,
			MinObjectAreaPct:    1.0,
			FlagAreaPct:         2.0,
		},
		DocumentShadow: DocumentShadowConfig{
			ShadowThreshold:     25,
			AnalysisBandWidth:   50,
			MinContourArea:      10000,
			GaussianBlurKernel:  3,
			WarnShadowIntensity: 20,
			FailShadowIntensity: 40,
		},
		Scoring: ScoringConfig{
			Weights:            map[string]float64{},
			FourStarThreshold:  0.90,
			PassScoreThreshold: 0.80,
			WarnScoreThreshold: 0.65,
			CriticalCategories: []string{"completeness", "border_background", "resolution", "geometry"},
		},
		SLA: SLAConfig{
			Enabled:     true,
			Name:        "Default Document Quality SLA",
			Description: "Standard quality requirements for document processing",
			Requirements: SLARequirements{
				MinOverallScore:        0.75,
				MaxFailCategories:      1,
				RequiredPassCategories: []string{"completeness", "sharpness", "resolution"},
				PerformanceTargets: map[string]float64{
					TargetSharpnessMinLaplacian:    150,
					TargetContrastMinGlobal:        0.20,
					TargetResolutionMinDPI:         300,
					TargetNoiseMaxStd:              0.04,
					TargetGeometryMaxSkew:          1.0,
					TargetExposureMaxHighlightClip: 0.5,
					TargetExposureMaxShadowClip:    0.5,
				},
			},
			ComplianceLevels: ComplianceLevelsConfig{
				Excellent:    ComplianceLevel{MinScore: 0.90, Description: "Exceeds all SLA requirements"},
				Compliant:    ComplianceLevel{MinScore: 0.75, Description: "Meets all SLA requirements"},
				Warning:      ComplianceLevel{MinScore: 0.60, Description: "Below SLA but usable"},
				NonCompliant: ComplianceLevel{MinScore: 0.0, Description: "Does not meet SLA requirements"},
			},
		},
	}
}
