package metrics

import (
	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

// minTileSamples is the fewest document pixels a tile needs for a local
// contrast estimate.
const minTileSamples = 10

type ContrastRecord struct {
	// GlobalContrast is P95-P5 of document luminance.
	GlobalContrast float64             `json:"global_contrast"`
	RMSContrast    float64             `json:"rms_contrast"`
	Percentiles    ContrastPercentiles `json:"percentiles"`
	MeanLuminance  float64             `json:"mean_luminance"`
	LocalContrast  LocalContrast       `json:"local_contrast"`
}

func (ContrastRecord) Category() Category { return Contrast }

type ContrastPercentiles struct {
	P5  float64 `json:"p5"`
	P95 float64 `json:"p95"`
}

type LocalContrast struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Tiles int     `json:"num_tiles"`
}

type contrastComputer struct {
	tileSize int
}

func NewContrastComputer() Computer {
	return contrastComputer{tileSize: imaging.DefaultTileSize}
}

func (contrastComputer) Category() Category { return Contrast }

func (c contrastComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	lum, mask := in.Frame.Lum, in.Mask
	rec := &ContrastRecord{}
	doc := imaging.Select(lum, mask)
	if len(doc) == 0 {
		return rec, nil
	}

	p := imaging.Percentiles(doc, 5, 95)
	rec.GlobalContrast = p[1] - p[0]
	rec.Percentiles.P5, rec.Percentiles.P95 = p[0], p[1]
	rec.MeanLuminance = imaging.Mean(doc)
	rec.RMSContrast = imaging.StdDev(doc)

	minPixels := minTileCoverage * float64(c.tileSize*c.tileSize)
	var local []float64
	for _, r := range imaging.Tiles(mask.Width, mask.Height, c.tileSize) {
		if float64(mask.CountIn(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)) < minPixels {
			continue
		}
		vals := imaging.Select(imaging.Crop(lum, mask.Width, r), mask.Crop(r))
		if len(vals) > minTileSamples {
			local = append(local, imaging.StdDev(vals))
		}
	}
	if len(local) > 0 {
		lo, hi := imaging.MinMax(local)
		rec.LocalContrast = LocalContrast{
			Mean:  imaging.Mean(local),
			Std:   imaging.StdDev(local),
			Min:   lo,
			Max:   hi,
			Tiles: len(local),
		}
	}
	return rec, nil
}
