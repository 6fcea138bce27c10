package metrics

import (
	"image"
	"math"

	"github.com/anime-shed/doc-inspector-go/internal/config"
	"github.com/anime-shed/doc-inspector-go/internal/imaging"
)

// minTileCoverage is the fraction of a full tile that must be document for
// the tile to take part in local statistics.
const minTileCoverage = 0.1

type SharpnessRecord struct {
	// LaplacianVar is the primary focus signal.
	LaplacianVar          float64            `json:"laplacian_var"`
	GradientMagnitudeMean float64            `json:"gradient_magnitude_mean"`
	EdgeDensity           float64            `json:"edge_density"`
	LocalSharpness        imaging.Summary    `json:"local_sharpness"`
	TilesAnalyzed         int                `json:"tiles_analyzed"`
	FrequencyMetrics      imaging.BandEnergy `json:"frequency_metrics"`
}

func (SharpnessRecord) Category() Category { return Sharpness }

type sharpnessComputer struct {
	tileSize int
}

// NewSharpnessComputer measures focus from second derivatives, gradients,
// edges, local tiles and the spectrum of the page.
func NewSharpnessComputer() Computer {
	return sharpnessComputer{tileSize: imaging.DefaultTileSize}
}

func (sharpnessComputer) Category() Category { return Sharpness }

func (s sharpnessComputer) Compute(in *Input, cfg *config.Config) (Record, error) {
	f, mask := in.Frame, in.Mask
	w, h := f.Width, f.Height
	rec := &SharpnessRecord{}
	docPixels := mask.Count()
	if docPixels == 0 {
		return rec, nil
	}

	plane := f.GrayFloat(mask)

	rec.LaplacianVar = imaging.Variance(imaging.Select(imaging.Laplacian(plane, w, h), mask))

	gx, gy := imaging.Sobel(plane, w, h)
	mag := make([]float64, len(gx))
	for i := range gx {
		mag[i] = math.Hypot(gx[i], gy[i])
	}
	rec.GradientMagnitudeMean = imaging.Mean(imaging.Select(mag, mask))

	edges := imaging.Canny(f.MaskedGray(mask), w, h, 50, 150).And(mask)
	rec.EdgeDensity = float64(edges.Count()) / float64(docPixels)

	tiles := s.tileVariances(plane, mask)
	rec.LocalSharpness = imaging.Summarize(tiles)
	rec.TilesAnalyzed = len(tiles)

	box, _ := mask.BBox()
	region := image.Rect(box.XMin, box.YMin, box.XMax, box.YMax)
	rec.FrequencyMetrics = imaging.BandEnergies(imaging.Crop(plane, w, region), region.Dx(), region.Dy())
	return rec, nil
}

// tileVariances returns the Laplacian variance of each tile that is at
// least minTileCoverage document.
func (s sharpnessComputer) tileVariances(plane []float64, mask *imaging.Mask) []float64 {
	minPixels := minTileCoverage * float64(s.tileSize*s.tileSize)
	var out []float64
	for _, r := range imaging.Tiles(mask.Width, mask.Height, s.tileSize) {
		if float64(mask.CountIn(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)) < minPixels {
			continue
		}
		tile := imaging.Crop(plane, mask.Width, r)
		lap := imaging.Laplacian(tile, r.Dx(), r.Dy())
		vals := imaging.Select(lap, mask.Crop(r))
		if len(vals) > 0 {
			out = append(out, imaging.Variance(vals))
		}
	}
	return out
}
