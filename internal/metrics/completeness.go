package metrics

import (
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

// croppedTextStrip is the border strip width, in pixels, searched for text
// running off the image.
const croppedTextStrip = 20

// croppedTextDensity is the edge density above which a border strip counts
// as cropped text.
const croppedTextDensity = 0.05

type CompletenessRecord struct {
	ContentBBoxCoverage float64        `json:"content_bbox_coverage"`
	EdgeTouch           bool           `json:"edge_touch_flag"`
	Margins             PixelMargins   `json:"margins"`
	EdgeViolations      EdgeViolations `json:"edge_violations"`
	DocumentBBox        DocumentBBox   `json:"document_bbox"`
	// CroppedText is set only when completeness.detect_cropped_text is on.
	CroppedText *bool `json:"cropped_text,omitempty"`
}

func (CompletenessRecord) Category() Category { return Completeness }

type PixelMargins struct {
	Left   int `json:"left_px"`
	Right  int `json:"right_px"`
	Top    int `json:"top_px"`
	Bottom int `json:"bottom_px"`
}

type EdgeViolations struct {
	Left   bool `json:"left_violation"`
	Right  bool `json:"right_violation"`
	Top    bool `json:"top_violation"`
	Bottom bool `json:"bottom_violation"`
}

type DocumentBBox struct {
	XMin        int     `json:"x_min"`
	YMin        int     `json:"y_min"`
	XMax        int     `json:"x_max"`
	YMax        int     `json:"y_max"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
}

type completenessComputer struct{}

// NewCompletenessComputer measures whether the whole page was captured.
func NewCompletenessComputer() Computer {
	return completenessComputer{}
}

func (completenessComputer) Category() Category { return Completeness }

func (completenessComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	rec := &CompletenessRecord{}
	c := cfg.Completeness

	if c.DetectCroppedText {
		cropped := detectCroppedText(in.Frame, in.Mask)
		rec.CroppedText = &cropped
	}

	box, ok := bboxOf(in.Mask)
	if !ok {
		return rec, nil
	}

	w, h := in.Frame.Width, in.Frame.Height
	m := c.MinMarginPx

	rec.ContentBBoxCoverage = ratio(float64(box.Width()*box.Height()), float64(w*h))
	rec.EdgeTouch = box.XMin <= m || box.YMin <= m || box.XMax >= w-m || box.YMax >= h-m
	rec.Margins = PixelMargins{
		Left:   box.XMin,
		Right:  w - box.XMax,
		Top:    box.YMin,
		Bottom: h - box.YMax,
	}
	rec.EdgeViolations = edgeViolations(in.Mask, m)
	rec.DocumentBBox = DocumentBBox{
		XMin:        box.XMin,
		YMin:        box.YMin,
		XMax:        box.XMax,
		YMax:        box.YMax,
		Width:       box.Width(),
		Height:      box.Height(),
		AspectRatio: ratio(float64(box.Width()), float64(box.Height())),
	}
	return rec, nil
}

// edgeViolations reports, per side, whether any document pixel lies within
// margin pixels of the image edge.
func edgeViolations(mask *imaging.Mask, margin int) EdgeViolations {
	w, h := mask.Width, mask.Height
	if margin <= 0 {
		return EdgeViolations{}
	}
	mx, my := min(margin, w), min(margin, h)
	return EdgeViolations{
		Left:   mask.CountIn(0, 0, mx, h) > 0,
		Right:  mask.CountIn(w-mx, 0, w, h) > 0,
		Top:    mask.CountIn(0, 0, w, my) > 0,
		Bottom: mask.CountIn(0, h-my, w, h) > 0,
	}
}

// detectCroppedText looks for dense edges in the border strips of the
// masked gray plane, a sign of text cut off by the frame.
func detectCroppedText(frame *imaging.Frame, mask *imaging.Mask) bool {
	w, h := frame.Width, frame.Height
	if w == 0 || h == 0 {
		return false
	}
	edges := imaging.Canny(frame.MaskedGray(mask), w, h, 50, 150)
	sx, sy := min(croppedTextStrip, w), min(croppedTextStrip, h)

	strips := [][4]int{
		{0, 0, w, sy},
		{0, h - sy, w, h},
		{0, 0, sx, h},
		{w - sx, 0, w, h},
	}
	for _, s := range strips {
		area := (s[2] - s[0]) * (s[3] - s[1])
		if area == 0 {
			continue
		}
		if float64(edges.CountIn(s[0], s[1], s[2], s[3]))/float64(area) > croppedTextDensity {
			return true
		}
	}
	return false
}
