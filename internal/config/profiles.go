package config

import (
	"fmt"

	apperrors "github.com/anime-shed/doc-inspector-go/internal/errors"
)

// Profile names.
const (
	ProfileStrict   = "document_black_background_strict"
	ProfileLenient  = "document_lenient"
	ProfileArchival = "archival_quality"
)

// ProfileInfo describes a named profile.
type ProfileInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type profile struct {
	info  ProfileInfo
	build func() *Config
}

var profiles = []profile{
	{
		info: ProfileInfo{
			Key:         ProfileStrict,
			Name:        "Document-Black-Background-Strict",
			Description: "Strict quality control for documents on black backgrounds",
		},
		build: Default,
	},
	{
		info: ProfileInfo{
			Key:         ProfileLenient,
			Name:        "Document-Lenient",
			Description: "More forgiving thresholds for legacy documents",
		},
		build: func() *Config {
			c := Default()
			c.Geometry = GeometryConfig{MaxSkewDegPass: 2.0, MaxSkewDegWarn: 5.0}
			c.BorderBackground.MaxSideMarginRatioPass = 0.15
			c.BorderBackground.MaxSideMarginRatioWarn = 0.20
			c.Sharpness = SharpnessConfig{MinLaplacianVariance: 100, WarnLaplacianVariance: 80}
			return c
		},
	},
	{
		info: ProfileInfo{
			Key:         ProfileArchival,
			Name:        "Archival-Quality",
			Description: "High standards for archival preservation",
		},
		build: func() *Config {
			c := Default()
			c.Resolution.MinDPIText = 400
			c.Resolution.MinDPIArchival = 600
			c.Sharpness = SharpnessConfig{MinLaplacianVariance: 200, WarnLaplacianVariance: 160}
			c.Noise = NoiseConfig{MaxBgNoiseStd: 0.02, WarnBgNoiseStd: 0.03}
			c.FormatIntegrity.AllowedFormats = []string{"tiff", "png"}
			c.FormatIntegrity.BitDepthMin = 16
			return c
		},
	},
}

// Profiles lists the built-in profiles.
func Profiles() []ProfileInfo {
	out := make([]ProfileInfo, len(profiles))
	for i, p := range profiles {
		out[i] = p.info
	}
	return out
}

// Profile returns a fresh configuration for a named profile.
func Profile(name string) (*Config, error) {
	keys := make([]string, len(profiles))
	for i, p := range profiles {
		if p.info.Key == name {
			return p.build(), nil
		}
		keys[i] = p.info.Key
	}
	return nil, apperrors.NewConfigError(fmt.Sprintf("unknown profile %q%s", name, suggest(name, keys)), nil)
}
