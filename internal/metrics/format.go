package metrics

import (
	"strings"

	"github.com/anime-shed/doc-inspector-go/internal/config"
)

const (
	unknownFormat   = "unknown"
	defaultBitDepth = 8
)

type FormatIntegrityRecord struct {
	FormatName    string `json:"format_name"`
	FormatAllowed bool   `json:"format_allowed"`
	BitDepth      int    `json:"bit_depth"`
	// JPEGQuality is null when the file is not a JPEG or the estimate failed.
	JPEGQuality *float64 `json:"jpeg_quality"`
	Compression *string  `json:"compression"`
}

func (FormatIntegrityRecord) Category() Category { return FormatIntegrity }

type formatIntegrityComputer struct{}

func NewFormatIntegrityComputer() Computer {
	return formatIntegrityComputer{}
}

func (formatIntegrityComputer) Category() Category { return FormatIntegrity }

func (formatIntegrityComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	md := in.Metadata
	if md == nil {
		return &FormatIntegrityRecord{FormatName: unknownFormat, BitDepth: defaultBitDepth}, nil
	}

	rec := &FormatIntegrityRecord{
		FormatName: NormalizeFormat(md.Format),
		BitDepth:   md.BitDepth,
	}
	if rec.BitDepth <= 0 {
		rec.BitDepth = defaultBitDepth
	}
	for _, f := range cfg.FormatIntegrity.AllowedFormats {
		if NormalizeFormat(f) == rec.FormatName {
			rec.FormatAllowed = true
			break
		}
	}
	if md.JPEGQuality > 0 {
		q := md.JPEGQuality
		rec.JPEGQuality = &q
	}
	if md.Compression != "" {
		c := md.Compression
		rec.Compression = &c
	}
	return rec, nil
}

// NormalizeFormat lower-cases a format name and folds common aliases.
func NormalizeFormat(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "":
		return unknownFormat
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	}
	return n
}

type ResolutionRecord struct {
	EffectiveDPIX float64 `json:"effective_dpi_x"`
	EffectiveDPIY float64 `json:"effective_dpi_y"`
	PixelWidth    int     `json:"pixel_width"`
	PixelHeight   int     `json:"pixel_height"`
	Megapixels    float64 `json:"megapixels"`
	// DPIAssumed is true when density came from resolution.default_dpi.
	DPIAssumed bool `json:"dpi_assumed"`
}

func (ResolutionRecord) Category() Category { return Resolution }

// MinDPI is the lower of the two axis densities.
func (r ResolutionRecord) MinDPI() float64 {
	return min(r.EffectiveDPIX, r.EffectiveDPIY)
}

type resolutionComputer struct{}

func NewResolutionComputer() Computer {
	return resolutionComputer{}
}

func (resolutionComputer) Category() Category { return Resolution }

func (resolutionComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	w, h := in.Frame.Width, in.Frame.Height
	rec := &ResolutionRecord{
		PixelWidth:  w,
		PixelHeight: h,
		Megapixels:  float64(w*h) / 1e6,
	}

	def := cfg.Resolution.DefaultDPI
	rec.EffectiveDPIX, rec.EffectiveDPIY = def, def
	if md := in.Metadata; md != nil && md.DPIX > 0 && md.DPIY > 0 {
		rec.EffectiveDPIX, rec.EffectiveDPIY = md.DPIX, md.DPIY
	} else {
		rec.DPIAssumed = true
	}
	return rec, nil
}
