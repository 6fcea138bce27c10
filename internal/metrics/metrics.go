// Package metrics computes the per-category quality measurements of a
// document image. Every computer is a pure function of its Input and the
// configuration; computers share no mutable state and may run in any order.
package metrics

import (
	"reflect"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

// Category names a quality dimension.
type Category string

const (
	Completeness     Category = "completeness"
	ForeignObjects   Category = "foreign_objects"
	Sharpness        Category = "sharpness"
	Exposure         Category = "exposure"
	Contrast         Category = "contrast"
	Color            Category = "color"
	Geometry         Category = "geometry"
	BorderBackground Category = "border_background"
	Noise            Category = "noise"
	FormatIntegrity  Category = "format_integrity"
	Resolution       Category = "resolution"
)

// Metadata is what the decoder learned about the file. Zero values mean
// unknown.
type Metadata struct {
	Format   string  `json:"format"`
	DPIX     float64 `json:"dpi_x"`
	DPIY     float64 `json:"dpi_y"`
	BitDepth int     `json:"bit_depth"`
	// JPEGQuality is the estimated encoder quality in 0..1.
	JPEGQuality float64 `json:"jpeg_quality,omitempty"`
	Compression string  `json:"compression,omitempty"`
}

// Input is the read-only data every computer receives. Computers must not
// modify Frame or Mask.
type Input struct {
	Frame    *imaging.Frame
	Mask     *imaging.Mask
	Metadata *Metadata
}

// Record is the measurement set of one category.
type Record interface {
	Category() Category
}

// Missing reports whether r holds no record, including a nil pointer of a
// record type.
func Missing(r Record) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// NewRecord returns an empty record of the type computed for cat.
func NewRecord(cat Category) (Record, bool) {
	switch cat {
	case Completeness:
		return &CompletenessRecord{}, true
	case ForeignObjects:
		return &ForeignObjectsRecord{}, true
	case Sharpness:
		return &SharpnessRecord{}, true
	case Exposure:
		return &ExposureRecord{}, true
	case Contrast:
		return &ContrastRecord{}, true
	case Color:
		return &ColorRecord{}, true
	case Geometry:
		return &GeometryRecord{}, true
	case BorderBackground:
		return &BorderBackgroundRecord{}, true
	case Noise:
		return &NoiseRecord{}, true
	case FormatIntegrity:
		return &FormatIntegrityRecord{}, true
	case Resolution:
		return &ResolutionRecord{}, true
	}
	return nil, false
}

// Computer produces the Record of one category.
type Computer interface {
	Category() Category
	Compute(in *Input, cfg *config.Config) (Record, error)
}

// ComputeFunc adapts a plain function to the Computer interface.
type ComputeFunc struct {
	Name Category
	Fn   func(in *Input, cfg *config.Config) (Record, error)
}

func (c ComputeFunc) Category() Category { return c.Name }

func (c ComputeFunc) Compute(in *Input, cfg *config.Config) (Record, error) {
	return c.Fn(in, cfg)
}

// bboxOf returns the mask bounding box and whether the mask is non-empty.
func bboxOf(m *imaging.Mask) (imaging.BBox, bool) {
	if m == nil {
		return imaging.BBox{}, false
	}
	box, ok := m.BBox()
	if !ok {
		return imaging.BBox{}, false
	}
	return box, true
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
