package metrics

import (
	"math"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

// paperErosion shrinks the document mask so colour is sampled from paper
// away from text and edges.
const paperErosion = 20

type ColorRecord struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
	// HueCastDegrees is atan2(mean b*, mean a*) of the paper.
	HueCastDegrees float64 `json:"hue_cast_degrees"`
	MeanA          float64 `json:"mean_a"`
	MeanB          float64 `json:"mean_b"`
	Chroma         float64 `json:"chroma"`
	// GrayDeltaE needs a reference gray patch and is null without one.
	GrayDeltaE *float64 `json:"gray_deltaE"`
}

func (ColorRecord) Category() Category { return Color }

type colorComputer struct{}

func NewColorComputer() Computer {
	return colorComputer{}
}

func (colorComputer) Category() Category { return Color }

func (colorComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	if !cfg.Color.EnableColorChecks {
		return &ColorRecord{Reason: "disabled"}, nil
	}
	if in.Frame.Channels < 3 {
		return &ColorRecord{Reason: "grayscale_image"}, nil
	}

	rec := &ColorRecord{Enabled: true}
	paper := in.Mask.Erode(paperErosion, paperErosion)
	if paper.Count() == 0 {
		return rec, nil
	}

	lab := in.Frame.Lab()
	rec.MeanA = imaging.Mean(imaging.Select(lab.A, paper))
	rec.MeanB = imaging.Mean(imaging.Select(lab.B, paper))
	rec.HueCastDegrees = math.Atan2(rec.MeanB, rec.MeanA) * 180 / math.Pi
	rec.Chroma = math.Hypot(rec.MeanA, rec.MeanB)
	return rec, nil
}
