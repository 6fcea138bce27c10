package metrics

import (
	"math"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

const (
	// skewMinEdges is the fewest strong edge pixels a skew estimate needs.
	skewMinEdges = 100
	maxSkewAngle = 45.0
	// warpMinPixels is the fewest edge pixels a segment needs before its
	// curvature is trusted.
	warpMinPixels   = 20
	warpMinSegments = 3
)

var (
	lineSegmentParams = imaging.SegmentParams{Threshold: 50, MinLength: 50, MaxGap: 10}
	warpSegmentParams = imaging.SegmentParams{Threshold: 80, MinLength: 100, MaxGap: 20}
)

type GeometryRecord struct {
	SkewAngleDeg float64     `json:"skew_angle_deg"`
	SkewAngleAbs float64     `json:"skew_angle_abs"`
	LineAngles   LineAngles  `json:"line_angles"`
	WarpIndex    float64     `json:"warp_index"`
	Orientation  Orientation `json:"orientation"`
}

func (GeometryRecord) Category() Category { return Geometry }

type LineAngles struct {
	DetectedLines int     `json:"detected_lines"`
	AngleStd      float64 `json:"angle_std"`
	AngleRange    float64 `json:"angle_range"`
}

type Orientation struct {
	AspectRatio float64 `json:"aspect_ratio"`
	// Orientation is landscape, portrait, square or unknown for an empty
	// mask.
	Orientation string `json:"orientation"`
	DocWidthPx  int    `json:"doc_width_px"`
	DocHeightPx int    `json:"doc_height_px"`
}

type geometryComputer struct{}

// NewGeometryComputer measures skew, line straightness and page shape.
func NewGeometryComputer() Computer {
	return geometryComputer{}
}

func (geometryComputer) Category() Category { return Geometry }

func (geometryComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	f, mask := in.Frame, in.Mask
	w, h := f.Width, f.Height
	rec := &GeometryRecord{Orientation: orientation(mask)}
	if mask.Count() == 0 {
		return rec, nil
	}

	gray := f.MaskedGray(mask)
	strong := imaging.Canny(gray, w, h, 50, 150).And(mask)

	rec.SkewAngleDeg = skewAngle(strong)
	rec.SkewAngleAbs = math.Abs(rec.SkewAngleDeg)

	angles := segmentAngles(imaging.Canny(gray, w, h, 30, 100).And(mask))
	rec.LineAngles.DetectedLines = len(angles)
	if len(angles) > 0 {
		lo, hi := imaging.MinMax(angles)
		rec.LineAngles.AngleStd = imaging.StdDev(angles)
		rec.LineAngles.AngleRange = hi - lo
	}

	rec.WarpIndex = warpIndex(strong)
	return rec, nil
}

// skewAngle is the dominant edge direction within ±45° of horizontal, to
// a tenth of a degree. Too few edges read as level.
func skewAngle(edges *imaging.Mask) float64 {
	a, ok := imaging.SkewAngle(edges, maxSkewAngle, skewMinEdges)
	if !ok {
		return 0
	}
	return a
}

// segmentAngles folds every non-vertical segment angle into ±45°.
func segmentAngles(edges *imaging.Mask) []float64 {
	var angles []float64
	for _, s := range imaging.HoughSegments(edges, lineSegmentParams) {
		if s.X2 == s.X1 {
			continue
		}
		a := math.Atan2(float64(s.Y2-s.Y1), float64(s.X2-s.X1)) * 180 / math.Pi
		if a > maxSkewAngle {
			a -= 90
		} else if a < -maxSkewAngle {
			a += 90
		}
		angles = append(angles, a)
	}
	return angles
}

// warpIndex is the mean quadratic-fit deviation of long segments' pixel
// runs. Straight pages score 0.
func warpIndex(edges *imaging.Mask) float64 {
	segs := imaging.HoughSegments(edges, warpSegmentParams)
	if len(segs) < warpMinSegments {
		return 0
	}
	var scores []float64
	for _, s := range segs {
		pts := imaging.LinePixels(edges, s.X1, s.Y1, s.X2, s.Y2)
		if len(pts) < warpMinPixels {
			continue
		}
		scores = append(scores, imaging.CurveDeviation(pts))
	}
	return imaging.Mean(scores)
}

func orientation(mask *imaging.Mask) Orientation {
	box, ok := bboxOf(mask)
	if !ok {
		return Orientation{Orientation: "unknown"}
	}
	o := Orientation{
		AspectRatio: ratio(float64(box.Width()), float64(box.Height())),
		DocWidthPx:  box.Width(),
		DocHeightPx: box.Height(),
	}
	switch {
	case o.AspectRatio > 1.2:
		o.Orientation = "landscape"
	case o.AspectRatio < 0.8:
		o.Orientation = "portrait"
	default:
		o.Orientation = "square"
	}
	return o
}
