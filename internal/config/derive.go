package config

// Clone returns a deep copy. Derived configurations never share maps or
// slices with their source.
func (c *Config) Clone() *Config {
	out := *c
	out.FormatIntegrity.AllowedFormats = cloneStrings(c.FormatIntegrity.AllowedFormats)
	out.Scoring.Weights = cloneFloats(c.Scoring.Weights)
	out.Scoring.CriticalCategories = cloneStrings(c.Scoring.CriticalCategories)
	out.SLA.Requirements.RequiredPassCategories = cloneStrings(c.SLA.Requirements.RequiredPassCategories)
	out.SLA.Requirements.PerformanceTargets = cloneFloats(c.SLA.Requirements.PerformanceTargets)
	return &out
}

// WithSharpness returns a copy with different sharpness thresholds.
func (c *Config) WithSharpness(s SharpnessConfig) *Config {
	out := c.Clone()
	out.Sharpness = s
	return out
}

// WithGeometry returns a copy with different skew thresholds.
func (c *Config) WithGeometry(g GeometryConfig) *Config {
	out := c.Clone()
	out.Geometry = g
	return out
}

// WithCritical returns a copy whose critical set is exactly categories.
func (c *Config) WithCritical(categories ...string) *Config {
	out := c.Clone()
	out.Scoring.CriticalCategories = cloneStrings(categories)
	return out
}

// WithWeight returns a copy with one category weight replaced.
func (c *Config) WithWeight(category string, weight float64) *Config {
	out := c.Clone()
	if out.Scoring.Weights == nil {
		out.Scoring.Weights = map[string]float64{}
	}
	out.Scoring.Weights[category] = weight
	return out
}

// WithSLA returns a copy with a different SLA section.
func (c *Config) WithSLA(s SLAConfig) *Config {
	out := c.Clone()
	out.SLA = s
	out.SLA.Requirements.RequiredPassCategories = cloneStrings(s.Requirements.RequiredPassCategories)
	out.SLA.Requirements.PerformanceTargets = cloneFloats(s.Requirements.PerformanceTargets)
	return out
}

// WithoutSLA returns a copy with SLA evaluation disabled.
func (c *Config) WithoutSLA() *Config {
	out := c.Clone()
	out.SLA.Enabled = false
	return out
}

// Scaled returns a copy with every quality threshold tightened (factor > 1)
// or relaxed (factor < 1). Higher-is-better minimums are multiplied by
// factor and lower-is-better maximums divided by it. Ratios are capped at 1.
// A non-positive factor returns an unchanged copy.
func (c *Config) Scaled(factor float64) *Config {
	out := c.Clone()
	if factor <= 0 {
		return out
	}
	up := func(v float64) float64 { return v * factor }
	down := func(v float64) float64 { return v / factor }
	capped := func(v float64) float64 {
		if v > 1 {
			return 1
		}
		return v
	}

	out.Resolution.MinDPIText = up(out.Resolution.MinDPIText)
	out.Resolution.MinDPIArchival = up(out.Resolution.MinDPIArchival)

	out.Sharpness.MinLaplacianVariance = up(out.Sharpness.MinLaplacianVariance)
	out.Sharpness.WarnLaplacianVariance = up(out.Sharpness.WarnLaplacianVariance)

	out.Contrast.MinGlobalContrast = capped(up(out.Contrast.MinGlobalContrast))
	out.Contrast.WarnGlobalContrast = capped(up(out.Contrast.WarnGlobalContrast))

	out.Completeness.MinContentBBoxCoverage = capped(up(out.Completeness.MinContentBBoxCoverage))

	out.Exposure.MaxShadowClipPct = down(out.Exposure.MaxShadowClipPct)
	out.Exposure.MaxHighlightClipPct = down(out.Exposure.MaxHighlightClipPct)
	out.Exposure.IlluminationUniformityWarn = down(out.Exposure.IlluminationUniformityWarn)
	out.Exposure.IlluminationUniformityFail = down(out.Exposure.IlluminationUniformityFail)

	out.Noise.MaxBgNoiseStd = down(out.Noise.MaxBgNoiseStd)
	out.Noise.WarnBgNoiseStd = down(out.Noise.WarnBgNoiseStd)

	out.Geometry.MaxSkewDegPass = down(out.Geometry.MaxSkewDegPass)
	out.Geometry.MaxSkewDegWarn = down(out.Geometry.MaxSkewDegWarn)

	out.BorderBackground.MaxSideMarginRatioPass = down(out.BorderBackground.MaxSideMarginRatioPass)
	out.BorderBackground.MaxSideMarginRatioWarn = down(out.BorderBackground.MaxSideMarginRatioWarn)
	out.BorderBackground.MaxBgMedianLuminance = capped(down(out.BorderBackground.MaxBgMedianLuminance))

	out.Color.MaxHueCastDegreesWarn = down(out.Color.MaxHueCastDegreesWarn)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneFloats(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
