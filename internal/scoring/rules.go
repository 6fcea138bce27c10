package scoring

import (
	"fmt"
	"math"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/metrics"
)

// Rule turns one category's metric record into a status. A value exactly on
// a threshold passes that threshold.
type Rule interface {
	Category() metrics.Category
	Evaluate(rec metrics.Record, cfg *config.Config) (Status, []Violation, error)
}

// RuleFunc adapts a function to Rule.
type RuleFunc struct {
	Name metrics.Category
	Fn   func(rec metrics.Record, cfg *config.Config) (Status, []Violation, error)
}

func (r RuleFunc) Category() metrics.Category { return r.Name }

func (r RuleFunc) Evaluate(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	return r.Fn(rec, cfg)
}

// RuleSet holds one rule per category in registration order. The order is
// the category declaration order used for action items.
type RuleSet struct {
	order []metrics.Category
	rules map[metrics.Category]Rule
}

func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[metrics.Category]Rule)}
}

// Register adds r. A category may only be registered once.
func (s *RuleSet) Register(r Rule) error {
	cat := r.Category()
	if cat == "" {
		return fmt.Errorf("rule has no category")
	}
	if _, exists := s.rules[cat]; exists {
		return fmt.Errorf("rule for %q already registered", cat)
	}
	s.rules[cat] = r
	s.order = append(s.order, cat)
	return nil
}

func (s *RuleSet) MustRegister(r Rule) {
	if err := s.Register(r); err != nil {
		panic(err)
	}
}

func (s *RuleSet) Get(cat metrics.Category) (Rule, bool) {
	r, ok := s.rules[cat]
	return r, ok
}

// Categories returns the ruled categories in registration order.
func (s *RuleSet) Categories() []metrics.Category {
	out := make([]metrics.Category, len(s.order))
	copy(out, s.order)
	return out
}

// DefaultRules returns the rules for the eleven built-in categories.
func DefaultRules() *RuleSet {
	s := NewRuleSet()
	s.MustRegister(RuleFunc{metrics.Completeness, completenessRule})
	s.MustRegister(RuleFunc{metrics.ForeignObjects, foreignObjectsRule})
	s.MustRegister(RuleFunc{metrics.Sharpness, sharpnessRule})
	s.MustRegister(RuleFunc{metrics.Exposure, exposureRule})
	s.MustRegister(RuleFunc{metrics.Contrast, contrastRule})
	s.MustRegister(RuleFunc{metrics.Color, colorRule})
	s.MustRegister(RuleFunc{metrics.Geometry, geometryRule})
	s.MustRegister(RuleFunc{metrics.BorderBackground, borderBackgroundRule})
	s.MustRegister(RuleFunc{metrics.Noise, noiseRule})
	s.MustRegister(RuleFunc{metrics.FormatIntegrity, formatIntegrityRule})
	s.MustRegister(RuleFunc{metrics.Resolution, resolutionRule})
	return s
}

// checker accumulates violations for one category.
type checker struct {
	category   metrics.Category
	status     Status
	violations []Violation
}

func newChecker(cat metrics.Category) *checker {
	return &checker{category: cat, status: Pass}
}

func (c *checker) add(level Status, metric, op string, required, actual float64) {
	c.status = worse(c.status, level)
	c.violations = append(c.violations, Violation{
		Category: c.category,
		Level:    level,
		Metric:   metric,
		Op:       op,
		Required: required,
		Actual:   actual,
	})
}

// below flags actual < required (higher is better).
func (c *checker) below(level Status, metric string, actual, required float64) bool {
	if actual < required {
		c.add(level, metric, OpBelow, required, actual)
		return true
	}
	return false
}

// above flags actual > limit (lower is better).
func (c *checker) above(level Status, metric string, actual, limit float64) bool {
	if actual > limit {
		c.add(level, metric, OpAbove, limit, actual)
		return true
	}
	return false
}

// flag records a boolean that should be false.
func (c *checker) flag(level Status, metric string, set bool) {
	if set {
		c.add(level, metric, OpIs, 0, 1)
	}
}

func (c *checker) result() (Status, []Violation, error) {
	return c.status, c.violations, nil
}

func wrongRecord(cat metrics.Category, rec metrics.Record) (Status, []Violation, error) {
	return Fail, nil, fmt.Errorf("%s rule got %T", cat, rec)
}

func completenessRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.CompletenessRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.Completeness, rec)
	}
	c := newChecker(metrics.Completeness)
	c.flag(Fail, "edge_touch_flag", r.EdgeTouch)
	c.below(Fail, "content_bbox_coverage", r.ContentBBoxCoverage, cfg.Completeness.MinContentBBoxCoverage)
	if r.CroppedText != nil {
		c.flag(Warn, "cropped_text", *r.CroppedText)
	}
	return c.result()
}

func foreignObjectsRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.ForeignObjectsRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.ForeignObjects, rec)
	}
	c := newChecker(metrics.ForeignObjects)
	if r.Flag {
		c.add(Warn, "foreign_object_area_pct", OpAbove, cfg.ForeignObjects.FlagAreaPct, r.AreaPct)
	}
	if sh := r.DocumentShadow; sh.Present {
		ds := cfg.DocumentShadow
		if !c.above(Fail, "shadow_intensity", sh.Intensity, ds.FailShadowIntensity) {
			c.above(Warn, "shadow_intensity", sh.Intensity, ds.WarnShadowIntensity)
		}
	}
	return c.result()
}

func sharpnessRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.SharpnessRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.Sharpness, rec)
	}
	c := newChecker(metrics.Sharpness)
	s := cfg.Sharpness
	if !c.below(Fail, "laplacian_var", r.LaplacianVar, s.WarnLaplacianVariance) {
		c.below(Warn, "laplacian_var", r.LaplacianVar, s.MinLaplacianVariance)
	}
	return c.result()
}

func exposureRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.ExposureRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.Exposure, rec)
	}
	c := newChecker(metrics.Exposure)
	e := cfg.Exposure
	c.above(Fail, "shadow_clip_pct", r.Clipping.ShadowClipPct, e.MaxShadowClipPct)
	c.above(Fail, "highlight_clip_pct", r.Clipping.HighlightClipPct, e.MaxHighlightClipPct)

	u := r.IlluminationUniformity.Ratio
	if !c.above(Fail, "uniformity_ratio", u, e.IlluminationUniformityFail) {
		c.above(Warn, "uniformity_ratio", u, e.IlluminationUniformityWarn)
	}
	return c.result()
}

func contrastRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.ContrastRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.Contrast, rec)
	}
	c := newChecker(metrics.Contrast)
	if !c.below(Fail, "global_contrast", r.GlobalContrast, cfg.Contrast.WarnGlobalContrast) {
		c.below(Warn, "global_contrast", r.GlobalContrast, cfg.Contrast.MinGlobalContrast)
	}
	return c.result()
}

func colorRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.ColorRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.Color, rec)
	}
	c := newChecker(metrics.Color)
	if !r.Enabled {
		return c.result()
	}
	col := cfg.Color
	c.above(Warn, "hue_cast_degrees", math.Abs(r.HueCastDegrees), col.MaxHueCastDegreesWarn)
	if r.GrayDeltaE != nil {
		if !c.above(Fail, "gray_deltaE", *r.GrayDeltaE, col.MaxGrayDeltaEWarn) {
			c.above(Warn, "gray_deltaE", *r.GrayDeltaE, col.MaxGrayDeltaEPass)
		}
	}
	return c.result()
}

func geometryRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.GeometryRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.Geometry, rec)
	}
	c := newChecker(metrics.Geometry)
	g := cfg.Geometry
	if !c.above(Fail, "skew_angle_abs", r.SkewAngleAbs, g.MaxSkewDegWarn) {
		c.above(Warn, "skew_angle_abs", r.SkewAngleAbs, g.MaxSkewDegPass)
	}
	return c.result()
}

func borderBackgroundRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.BorderBackgroundRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.BorderBackground, rec)
	}
	c := newChecker(metrics.BorderBackground)
	b := cfg.BorderBackground
	if b.RequireBlackBackground {
		c.above(Fail, "bg_median_lum", r.BgMedianLum, b.MaxBgMedianLuminance)
	}
	side := r.MaxSideRatio()
	if !c.above(Fail, "max_side_margin_ratio", side, b.MaxSideMarginRatioWarn) {
		c.above(Warn, "max_side_margin_ratio", side, b.MaxSideMarginRatioPass)
	}
	return c.result()
}

func noiseRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.NoiseRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.Noise, rec)
	}
	c := newChecker(metrics.Noise)
	if !c.above(Fail, "bg_noise_std", r.BgNoiseStd, cfg.Noise.WarnBgNoiseStd) {
		c.above(Warn, "bg_noise_std", r.BgNoiseStd, cfg.Noise.MaxBgNoiseStd)
	}
	return c.result()
}

func formatIntegrityRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.FormatIntegrityRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.FormatIntegrity, rec)
	}
	c := newChecker(metrics.FormatIntegrity)
	f := cfg.FormatIntegrity
	c.flag(Fail, "format_not_allowed", !r.FormatAllowed)
	c.below(Fail, "bit_depth", float64(r.BitDepth), float64(f.BitDepthMin))
	if r.JPEGQuality != nil {
		c.below(Warn, "jpeg_quality", *r.JPEGQuality, f.JPEGQualityWarn)
	}
	return c.result()
}

func resolutionRule(rec metrics.Record, cfg *config.Config) (Status, []Violation, error) {
	r, ok := rec.(*metrics.ResolutionRecord)
	if !ok || r == nil {
		return wrongRecord(metrics.Resolution, rec)
	}
	c := newChecker(metrics.Resolution)
	c.below(Fail, "effective_dpi", r.MinDPI(), cfg.Resolution.MinDPIText)
	return c.result()
}
