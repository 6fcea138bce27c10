package metrics

import (
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

type BorderBackgroundRecord struct {
	BgMedianLum       float64   `json:"bg_median_lum"`
	BgMeanLum         float64   `json:"bg_mean_lum"`
	BgStd             float64   `json:"bg_std"`
	LeftMarginRatio   float64   `json:"left_margin_ratio"`
	RightMarginRatio  float64   `json:"right_margin_ratio"`
	TopMarginRatio    float64   `json:"top_margin_ratio"`
	BottomMarginRatio float64   `json:"bottom_margin_ratio"`
	MarginsPx         MarginsPx `json:"margins_px"`
}

func (BorderBackgroundRecord) Category() Category { return BorderBackground }

// MaxSideRatio is the largest of the four margin ratios.
func (r BorderBackgroundRecord) MaxSideRatio() float64 {
	return max(r.LeftMarginRatio, r.RightMarginRatio, r.TopMarginRatio, r.BottomMarginRatio)
}

type MarginsPx struct {
	Left   int `json:"left"`
	Right  int `json:"right"`
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

type borderBackgroundComputer struct{}

// NewBorderBackgroundComputer measures margins relative to the page size and
// the luminance of the surface around it.
func NewBorderBackgroundComputer() Computer {
	return borderBackgroundComputer{}
}

func (borderBackgroundComputer) Category() Category { return BorderBackground }

func (borderBackgroundComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	rec := &BorderBackgroundRecord{}

	bg := imaging.Select(in.Frame.Lum, in.Mask.Invert())
	if len(bg) > 0 {
		rec.BgMedianLum = imaging.Median(bg)
		rec.BgMeanLum = imaging.Mean(bg)
		rec.BgStd = imaging.StdDev(bg)
	}

	box, ok := bboxOf(in.Mask)
	if !ok {
		return rec, nil
	}
	w, h := in.Frame.Width, in.Frame.Height
	docW, docH := float64(box.Width()), float64(box.Height())

	rec.MarginsPx = MarginsPx{
		Left:   box.XMin,
		Right:  w - box.XMax,
		Top:    box.YMin,
		Bottom: h - box.YMax,
	}
	rec.LeftMarginRatio = ratio(float64(rec.MarginsPx.Left), docW)
	rec.RightMarginRatio = ratio(float64(rec.MarginsPx.Right), docW)
	rec.TopMarginRatio = ratio(float64(rec.MarginsPx.Top), docH)
	rec.BottomMarginRatio = ratio(float64(rec.MarginsPx.Bottom), docH)
	return rec, nil
}
